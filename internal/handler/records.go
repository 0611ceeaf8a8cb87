package handler

import (
	"fmt"
	"strings"

	"agro-attendance/internal/models"
)

func (h *Handler) listRecords(chatID int64, args string) {
	s := h.session(chatID)
	store := s.Store()

	ids := store.EmployeeIDs()
	if strings.TrimSpace(args) != "" {
		areaID, err := parseID(args)
		if err != nil {
			h.reply(chatID, "❌ "+err.Error()+"\nUsage: /records [area]")
			return
		}
		ids = store.AreaEmployeeIDs(areaID)
	}
	if len(ids) == 0 {
		h.reply(chatID, "📭 No records. Select areas with /areas or /select.")
		return
	}

	names := employeeNames(s.Roster())
	lines := []string{fmt.Sprintf("👥 Records (%d):", len(ids)), ""}
	for _, id := range ids {
		r, ok := store.Get(id)
		if !ok {
			continue
		}
		lines = append(lines, recordLine(r, names[id]))
	}

	h.reply(chatID, strings.Join(lines, "\n"))
}

func (h *Handler) showRecord(chatID int64, args string) {
	id, err := parseID(args)
	if err != nil {
		h.reply(chatID, "❌ "+err.Error()+"\nUsage: /record <employee>")
		return
	}

	s := h.session(chatID)
	r, ok := s.Store().Get(id)
	if !ok {
		h.reply(chatID, fmt.Sprintf("❌ Employee %d is not in the working set.", id))
		return
	}

	h.reply(chatID, formatRecord(r, employeeNames(s.Roster())[id]))
}

// setField changes one field of one record: /set <employee> <field> <value>.
func (h *Handler) setField(chatID int64, args string) {
	parts := strings.Fields(args)
	if len(parts) < 3 {
		h.reply(chatID, "❌ Usage: /set <employee> <field> <value>")
		return
	}

	id, err := parseID(parts[0])
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}
	key, value, err := parseFieldValue(parts[1], strings.Join(parts[2:], " "))
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	store := h.session(chatID).Store()
	var ok bool
	if food, isFood := strings.CutPrefix(key, models.FoodFieldPrefix); isFood {
		ok = store.UpdateFoodAllowance(id, food, value.(float64))
	} else {
		ok = store.UpdateField(id, key, value)
	}
	if !ok {
		h.reply(chatID, fmt.Sprintf("❌ Employee %d is not in the working set.", id))
		return
	}

	r, _ := store.Get(id)
	h.reply(chatID, "✅ Updated.\n"+recordLine(r, ""))
}

// applyBulk changes one field on many records:
// /bulk <field> <value> <ids|all|area:N>.
func (h *Handler) applyBulk(chatID int64, args string) {
	parts := strings.Fields(args)
	if len(parts) < 3 {
		h.reply(chatID, "❌ Usage: /bulk <field> <value> <ids|all|area:N>")
		return
	}

	key, value, err := parseFieldValue(parts[0], parts[1])
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	store := h.session(chatID).Store()
	target := strings.Join(parts[2:], " ")
	var ids []uint
	switch {
	case strings.EqualFold(target, "all"):
		ids = store.EmployeeIDs()
	case strings.HasPrefix(strings.ToLower(target), "area:"):
		areaID, err := parseID(target[len("area:"):])
		if err != nil {
			h.reply(chatID, "❌ "+err.Error())
			return
		}
		ids = store.AreaEmployeeIDs(areaID)
	default:
		ids, err = parseIDs(target)
		if err != nil {
			h.reply(chatID, "❌ "+err.Error())
			return
		}
	}

	n := store.ApplyBulk(ids, key, value)
	h.reply(chatID, fmt.Sprintf("✅ %d of %d records updated.", n, len(ids)))
}

func (h *Handler) showTotals(chatID int64) {
	store := h.session(chatID).Store()
	if store.Len() == 0 {
		h.reply(chatID, "📭 No records. Select areas with /areas or /select.")
		return
	}

	lines := []string{"📊 Totals", "", formatTotals(store.Totals())}
	for _, a := range store.TotalsByArea() {
		lines = append(lines, "", "🗺 "+a.AreaName, formatTotals(a.Totals))
	}
	h.reply(chatID, strings.Join(lines, "\n"))
}

func (h *Handler) showStatus(chatID int64) {
	s := h.session(chatID)

	lines := []string{selectionLine(s.Roster(), s.Selected())}
	lines = append(lines, fmt.Sprintf("👥 Records: %d", s.Store().Len()))
	if s.InFlight() {
		lines = append(lines, "⏳ A submission is running.")
	}
	if msg := s.Message(); msg != "" {
		lines = append(lines, "💬 "+msg)
	}
	if last := s.LastResult(); last != nil {
		lines = append(lines, fmt.Sprintf("💾 Last save: %s, %d of %d records (%s)",
			last.Date, last.Processed, last.Records, last.TimeElapsed))
	}
	h.reply(chatID, strings.Join(lines, "\n"))
}

func employeeNames(rosters []models.AreaRoster) map[uint]string {
	names := make(map[uint]string)
	for _, r := range rosters {
		for _, e := range r.Employees {
			names[e.ID] = e.Name
		}
	}
	return names
}

func recordLine(r models.AttendanceRecord, name string) string {
	label := fmt.Sprintf("%d", r.EmployeeID)
	if name != "" {
		label += " " + name
	}
	if r.IsVacation {
		return fmt.Sprintf("🏖 %s: vacation", label)
	}

	line := fmt.Sprintf("👤 %s: %s-%s, lunch %dm", label, r.EntryTime, r.ExitTime, r.LunchDuration)
	if h, err := r.WorkedHours(); err == nil {
		line += fmt.Sprintf(", %.2fh", h)
	}
	if r.HasPermission() {
		line += fmt.Sprintf(", permission %.1fh", r.PermissionHours)
	}
	return line
}

func formatRecord(r models.AttendanceRecord, name string) string {
	lines := []string{fmt.Sprintf("👤 Employee %d %s", r.EmployeeID, name), ""}
	lines = append(lines,
		fmt.Sprintf("⏰ Entry: %s", r.EntryTime),
		fmt.Sprintf("⏰ Exit: %s", r.ExitTime),
		fmt.Sprintf("🍽 Lunch break: %d min", r.LunchDuration),
	)
	if h, err := r.WorkedHours(); err == nil {
		lines = append(lines, fmt.Sprintf("⏳ Worked: %.2f h", h))
	} else {
		lines = append(lines, "⏳ Worked: -")
	}
	lines = append(lines, fmt.Sprintf("🏖 Vacation: %s", yesNo(r.IsVacation)))
	lines = append(lines, fmt.Sprintf("📝 Permission: %.1f h %s", r.PermissionHours, r.PermissionReason))

	lines = append(lines, "", "🥪 Food allowance:")
	for _, field := range models.FoodFields {
		v, _ := r.FoodAllowance.Get(field)
		if field == models.FoodTransport {
			lines = append(lines, fmt.Sprintf("  %s: %.2f", field, v))
		} else {
			lines = append(lines, fmt.Sprintf("  %s: %d", field, int(v)))
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func formatTotals(t models.Totals) string {
	lines := []string{
		fmt.Sprintf("👥 Records: %d", t.RecordCount),
		fmt.Sprintf("🏖 Vacation: %d", t.VacationCount),
		fmt.Sprintf("📝 Permission: %d", t.PermissionCount),
		fmt.Sprintf("⏳ Worked hours: %.2f", t.WorkedHours),
	}
	for _, field := range models.FoodCounterFields {
		lines = append(lines, fmt.Sprintf("🥪 %s: %d", field, t.Counter(field)))
	}
	lines = append(lines, fmt.Sprintf("🚌 transport: %.2f", t.Transport))
	return strings.Join(lines, "\n")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
