package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"agro-attendance/internal/models"
	"agro-attendance/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleDefaults shows the defaults, or stages new ones for confirmation.
// Applying them resets every record of the chat's working set.
func (h *Handler) handleDefaults(op *models.Operator, chatID int64, args string) {
	current := h.settings.Current()
	if strings.TrimSpace(args) == "" {
		h.reply(chatID, formatDefaults(current))
		return
	}
	if !h.requireAdmin(op) {
		return
	}

	next, err := parseDefaults(args, current)
	if err != nil {
		h.reply(chatID, "❌ "+err.Error()+"\nExample: /defaults entry=06:30 exit=16:00 lunchtime=30 hours=8 breakfast=1")
		return
	}
	if err := service.ValidateDefaults(next); err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	h.mu.Lock()
	h.pendingDefaults[chatID] = next
	h.mu.Unlock()

	msg := tgbotapi.NewMessage(chatID, formatDefaults(next)+
		"\n\n⚠️ Applying new defaults resets every record and discards all edits. Continue?")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Apply", callbackDefaultsConfirm),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", callbackDefaultsCancel),
		),
	)
	if _, err := h.client.Send(msg); err != nil {
		h.logger.WithError(err).Warn("Failed to send defaults confirmation")
	}
}

func (h *Handler) confirmDefaults(op *models.Operator, chatID int64) {
	if !h.requireAdmin(op) {
		return
	}

	h.mu.Lock()
	next, ok := h.pendingDefaults[chatID]
	delete(h.pendingDefaults, chatID)
	h.mu.Unlock()
	if !ok {
		h.reply(chatID, "❌ No pending defaults. Use /defaults key=value first.")
		return
	}

	s := h.session(chatID)
	if err := s.UpdateDefaults(next); err != nil {
		h.reply(chatID, "❌ "+s.Message()+validationDetails(err))
		return
	}
	h.reply(chatID, "✅ "+s.Message())
}

func formatDefaults(d models.DefaultSettings) string {
	lines := []string{
		"⚙️ Default settings:",
		"",
		fmt.Sprintf("⏰ Entry: %s", d.EntryTime),
		fmt.Sprintf("⏰ Exit: %s", d.ExitTime),
		fmt.Sprintf("🍽 Lunch break: %d min", d.LunchDuration),
		fmt.Sprintf("⏳ Working hours: %.1f", d.WorkingHours),
	}
	for _, field := range models.FoodCounterFields {
		v, _ := d.FoodAllowance.Get(field)
		lines = append(lines, fmt.Sprintf("🥪 %s: %d", field, int(v)))
	}
	lines = append(lines, fmt.Sprintf("🚌 transport: %.2f", d.FoodAllowance.Transport))
	return strings.Join(lines, "\n")
}

func (h *Handler) showOperators(chatID int64) {
	text, err := h.operators.FormatAll()
	if err != nil {
		h.reply(chatID, "❌ Could not load the operators: "+err.Error())
		return
	}
	h.reply(chatID, text)
}

// addOperator registers a chat: /addoperator <chat id> <name> [admin].
func (h *Handler) addOperator(op *models.Operator, chatID int64, args string) {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		h.reply(chatID, "❌ Usage: /addoperator <chat id> <name> [admin]")
		return
	}

	target, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		h.reply(chatID, "❌ Invalid chat ID: "+parts[0])
		return
	}

	role := models.RoleOperator
	nameParts := parts[1:]
	if last := nameParts[len(nameParts)-1]; strings.EqualFold(last, "admin") && len(nameParts) > 1 {
		role = models.RoleAdmin
		nameParts = nameParts[:len(nameParts)-1]
	}

	added, err := h.operators.Add(op.ChatID, target, strings.Join(nameParts, " "), role)
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}
	h.reply(chatID, fmt.Sprintf("✅ %s (%d) added as %s.", added.Name, added.ChatID, added.Role))
}

func (h *Handler) removeOperator(op *models.Operator, chatID int64, args string) {
	target, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		h.reply(chatID, "❌ Usage: /removeoperator <chat id>")
		return
	}

	if err := h.operators.Remove(op.ChatID, target); err != nil {
		if errors.Is(err, service.ErrRemoveLastAdmin) {
			h.reply(chatID, "⛔ "+err.Error()+".")
			return
		}
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	h.mu.Lock()
	delete(h.sessions, target)
	h.mu.Unlock()

	h.reply(chatID, fmt.Sprintf("✅ Operator %d removed.", target))
}
