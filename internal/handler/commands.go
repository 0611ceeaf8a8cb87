package handler

import (
	"context"
	"strconv"

	"agro-attendance/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (h *Handler) handleCommand(ctx context.Context, op *models.Operator, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	args := message.CommandArguments()

	switch message.Command() {
	// Areas and roster
	case "areas":
		h.showAreas(ctx, chatID)
	case "select":
		h.selectAreas(ctx, chatID, args)
	case "deselect":
		h.deselectAreas(ctx, chatID, args)
	case "reseed":
		h.reseed(chatID)

	// Records
	case "records", "list":
		h.listRecords(chatID, args)
	case "record":
		h.showRecord(chatID, args)
	case "set":
		h.setField(chatID, args)
	case "bulk":
		h.applyBulk(chatID, args)
	case "totals":
		h.showTotals(chatID)

	// Saving
	case "submit", "save":
		h.submit(ctx, chatID, args)
	case "status":
		h.showStatus(chatID)

	// Reports
	case "report":
		h.showReport(chatID, args)
	case "month":
		h.showMonth(chatID, args)
	case "export":
		h.exportReport(chatID, args)
	case "history":
		h.showHistory(chatID, args)
	case "calendar":
		h.showCalendar(chatID, args)

	// Administration
	case "defaults":
		h.handleDefaults(op, chatID, args)
	case "loadcalendar":
		if h.requireAdmin(op) {
			h.loadCalendar(chatID)
		}
	case "operators":
		if h.requireAdmin(op) {
			h.showOperators(chatID)
		}
	case "addoperator":
		if h.requireAdmin(op) {
			h.addOperator(op, chatID, args)
		}
	case "removeoperator":
		if h.requireAdmin(op) {
			h.removeOperator(op, chatID, args)
		}

	default:
		h.reply(chatID, "❌ Unknown command. Use /help for the list of commands.")
	}
}

func (h *Handler) sendHelp(chatID int64) {
	text := `📋 Attendance registration

🗺 Areas:
/areas - Show areas and toggle the selection
/select 1,2 - Add areas to the selection
/deselect 2 - Remove areas from the selection
/reseed - Reset every record to the defaults

👥 Records:
/records [area] - List records
/record <employee> - Show one record
/set <employee> <field> <value> - Change one field
/bulk <field> <value> <ids|all|area:N> - Change many records
/totals - Live totals

💾 Saving:
/submit [YYYY-MM-DD] - Save the day (default today)
/status - Last result and current message

📊 Reports:
/report [YYYY-MM-DD] [area] - Saved totals of a day
/month [YYYY-MM] - Saved totals of a month
/export [YYYY-MM-DD] - Totals as an Excel file
/history [n] - Recent submissions
/calendar [YYYY-MM] - Non-working days

👑 Administrators:
/defaults [key=value ...] - Show or change the defaults
/loadcalendar - Reload the non-working days
/operators, /addoperator <chat id> <name>, /removeoperator <chat id>

Fields: entry, exit, lunchtime, vacation, permission, reason,
breakfast, reinforced, snack, afternoon, drymeal, lunch, transport
Example: /set 1024 exit 15:30`

	h.reply(chatID, text)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
