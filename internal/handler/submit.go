package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"agro-attendance/internal/models"
	"agro-attendance/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// submit saves the working set for a date. The records are captured before
// returning, so later edits are not part of this save. The progress is shown
// by editing a single message; the save itself runs in the background.
func (h *Handler) submit(ctx context.Context, chatID int64, args string) {
	date, err := parseDate(args, h.now())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	s := h.session(chatID)
	pending, err := s.BeginSubmit()
	if err != nil {
		h.reply(chatID, "⏳ A submission is already running.")
		return
	}
	if pending.Len() == 0 {
		pending.Discard()
		h.reply(chatID, "📭 Nothing to save. Select areas with /areas or /select.")
		return
	}

	var warning string
	if h.calendar != nil && h.calendar.IsNonWorkingDay(date) {
		warning = fmt.Sprintf("⚠️ %s is a non-working day.\n", date.Format(models.DateLayout))
	}

	progressMsg, err := h.client.Send(tgbotapi.NewMessage(chatID, warning+progressText(service.Progress{})))
	if err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to send progress message")
	}

	report := func(p service.Progress) {
		if progressMsg.MessageID == 0 {
			return
		}
		edit := tgbotapi.NewEditMessageText(chatID, progressMsg.MessageID, warning+progressText(p))
		if _, err := h.client.Send(edit); err != nil {
			h.logger.WithError(err).Debug("Failed to update progress")
		}
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		result, err := pending.Run(context.WithoutCancel(ctx), date, report)
		if err != nil {
			h.logger.WithError(err).WithFields(logrus.Fields{
				"chat_id": chatID,
				"date":    date.Format(models.DateLayout),
			}).Warn("Submission failed")
			h.reply(chatID, "❌ "+s.Message()+validationDetails(err))
			return
		}

		h.reply(chatID, fmt.Sprintf("✅ %s\n🆔 Request: %s", s.Message(), result.RequestID))
	}()
}

func progressText(p service.Progress) string {
	const width = 10
	filled := p.Percent * width / 100
	bar := strings.Repeat("▓", filled) + strings.Repeat("░", width-filled)

	stage := string(p.Stage)
	if stage == "" {
		stage = "starting"
	}
	return fmt.Sprintf("⏳ Saving attendance\n%s %d%%\n%s", bar, p.Percent, stage)
}

// validationDetails lists the offending fields of a rejected batch.
func validationDetails(err error) string {
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		return ""
	}
	return "\n\n" + verr.Error()
}

func (h *Handler) showReport(chatID int64, args string) {
	parts := strings.Fields(args)

	var dateArg string
	if len(parts) > 0 {
		dateArg = parts[0]
	}
	date, err := parseDate(dateArg, h.now())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	var areaID *uint
	if len(parts) > 1 {
		id, err := parseID(parts[1])
		if err != nil {
			h.reply(chatID, "❌ "+err.Error())
			return
		}
		areaID = &id
	}

	day := date.Format(models.DateLayout)
	rows, err := h.reports.DayTotals(day, areaID)
	if err != nil {
		h.logger.WithError(err).WithField("date", day).Error("Failed to load report")
		h.reply(chatID, "❌ Could not load the report: "+err.Error())
		return
	}
	if len(rows) == 0 {
		h.reply(chatID, fmt.Sprintf("📭 Nothing saved for %s.", day))
		return
	}

	lines := []string{fmt.Sprintf("📊 Saved totals for %s", day)}
	for _, row := range rows {
		lines = append(lines, "", "🗺 "+row.AreaName, formatTotals(dailyToTotals(row)))
	}
	h.reply(chatID, strings.Join(lines, "\n"))
}

func (h *Handler) showMonth(chatID int64, args string) {
	year, month, err := parseMonth(args, h.now())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	areas, err := h.reports.Month(year, month)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load month report")
		h.reply(chatID, "❌ Could not load the report: "+err.Error())
		return
	}
	if len(areas) == 0 {
		h.reply(chatID, fmt.Sprintf("📭 Nothing saved for %04d-%02d.", year, month))
		return
	}

	lines := []string{fmt.Sprintf("📊 Saved totals for %04d-%02d", year, month)}
	for _, a := range areas {
		lines = append(lines, "", fmt.Sprintf("🗺 %s (%d days)", a.AreaName, a.Days), formatTotals(a.Totals))
	}
	h.reply(chatID, strings.Join(lines, "\n"))
}

func (h *Handler) exportReport(chatID int64, args string) {
	date, err := parseDate(args, h.now())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}
	day := date.Format(models.DateLayout)

	var buf bytes.Buffer
	n, err := h.reports.ExportDay(day, &buf)
	if err != nil {
		h.logger.WithError(err).WithField("date", day).Error("Failed to export report")
		h.reply(chatID, "❌ Could not build the report: "+err.Error())
		return
	}
	if n == 0 {
		h.reply(chatID, fmt.Sprintf("📭 Nothing saved for %s.", day))
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  "attendance-" + day + ".xlsx",
		Bytes: buf.Bytes(),
	})
	doc.Caption = fmt.Sprintf("📊 Attendance totals %s", day)
	if _, err := h.client.Send(doc); err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send report")
		h.reply(chatID, "❌ Could not send the report: "+err.Error())
	}
}

func (h *Handler) showHistory(chatID int64, args string) {
	limit := 10
	if arg := strings.TrimSpace(args); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			h.reply(chatID, "❌ Usage: /history [n]")
			return
		}
		limit = n
	}

	entries, err := h.submissions.GetRecent(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load submissions")
		h.reply(chatID, "❌ Could not load the history: "+err.Error())
		return
	}
	if len(entries) == 0 {
		h.reply(chatID, "📭 No submissions yet.")
		return
	}

	lines := []string{"🗂 Recent submissions:", ""}
	for _, e := range entries {
		icon := "✅"
		detail := fmt.Sprintf("%d of %d records (%s)", e.Processed, e.RecordCount, e.TimeElapsed)
		if e.Status == models.SubmissionFailed {
			icon = "❌"
			detail = fmt.Sprintf("%d records: %s", e.RecordCount, e.Error)
		}
		lines = append(lines, fmt.Sprintf("%s %s %s, %s", icon, e.CreatedAt.Format("2006-01-02 15:04"), e.Date, detail))
	}
	h.reply(chatID, strings.Join(lines, "\n"))
}

func (h *Handler) showCalendar(chatID int64, args string) {
	year, month, err := parseMonth(args, h.now())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	days, err := h.calendar.MonthDays(year, month)
	if err != nil {
		h.reply(chatID, "❌ Could not load the calendar: "+err.Error())
		return
	}
	if len(days) == 0 {
		h.reply(chatID, fmt.Sprintf("📅 No non-working days stored for %04d-%02d.", year, month))
		return
	}

	lines := []string{fmt.Sprintf("📅 Non-working days %04d-%02d:", year, month)}
	for _, d := range days {
		line := "• " + d.Date
		if d.Transferred {
			line += " (transferred)"
		}
		lines = append(lines, line)
	}
	h.reply(chatID, strings.Join(lines, "\n"))
}

func (h *Handler) loadCalendar(chatID int64) {
	if h.config.CalendarFile == "" {
		h.reply(chatID, "❌ CALENDAR_FILE is not configured.")
		return
	}

	n, err := h.calendar.LoadFromFile(h.config.CalendarFile)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load calendar")
		h.reply(chatID, "❌ Could not load the calendar: "+err.Error())
		return
	}
	h.reply(chatID, fmt.Sprintf("📅 %d non-working days loaded.", n))
}

func dailyToTotals(d models.DailyTotals) models.Totals {
	return models.Totals{
		Breakfast:           d.Breakfast,
		ReinforcedBreakfast: d.ReinforcedBreakfast,
		Snack1:              d.Snack1,
		AfternoonSnack:      d.AfternoonSnack,
		DryMeal:             d.DryMeal,
		Lunch:               d.Lunch,
		Transport:           d.Transport,
		VacationCount:       d.VacationCount,
		PermissionCount:     d.PermissionCount,
		RecordCount:         d.RecordCount,
		WorkedHours:         d.WorkedHours,
	}
}
