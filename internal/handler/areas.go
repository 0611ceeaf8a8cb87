package handler

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"agro-attendance/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	callbackAreaToggle      = "area_toggle_"
	callbackDefaultsConfirm = "defaults_confirm"
	callbackDefaultsCancel  = "defaults_cancel"
)

// showAreas lists the areas with a toggle button each.
func (h *Handler) showAreas(ctx context.Context, chatID int64) {
	areas, err := h.api.GetAreas(ctx)
	if err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to load areas")
		h.reply(chatID, "❌ Could not load the areas: "+err.Error())
		return
	}
	if len(areas) == 0 {
		h.reply(chatID, "📭 No areas available.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, "🗺 Tap an area to select or deselect it:")
	msg.ReplyMarkup = areaKeyboard(areas, h.session(chatID).Selected())
	if _, err := h.client.Send(msg); err != nil {
		h.logger.WithError(err).Warn("Failed to send area list")
	}
}

func areaKeyboard(areas []models.Area, selected []uint) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(areas))
	for _, a := range areas {
		label := "⬜ " + a.Name
		if slices.Contains(selected, a.ID) {
			label = "✅ " + a.Name
		}
		data := callbackAreaToggle + strconv.FormatUint(uint64(a.ID), 10)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label, data)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (h *Handler) toggleArea(ctx context.Context, chatID int64, messageID int, rawID string) {
	id, err := parseID(rawID)
	if err != nil {
		return
	}

	s := h.session(chatID)
	if slices.Contains(s.Selected(), id) {
		err = s.DeselectArea(ctx, id)
	} else {
		err = s.SelectArea(ctx, id)
	}
	if err != nil {
		h.logger.WithError(err).WithField("area_id", id).Warn("Area selection failed")
	}

	if areas, err := h.api.GetAreas(ctx); err == nil {
		edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, areaKeyboard(areas, s.Selected()))
		if _, err := h.client.Send(edit); err != nil {
			h.logger.WithError(err).Debug("Failed to refresh area keyboard")
		}
	}

	h.reply(chatID, statusIcon(err)+s.Message())
}

func (h *Handler) selectAreas(ctx context.Context, chatID int64, args string) {
	h.changeSelection(ctx, chatID, args, true)
}

func (h *Handler) deselectAreas(ctx context.Context, chatID int64, args string) {
	h.changeSelection(ctx, chatID, args, false)
}

func (h *Handler) changeSelection(ctx context.Context, chatID int64, args string, add bool) {
	ids, err := parseIDs(args)
	if err != nil {
		h.reply(chatID, "❌ "+err.Error()+"\nUsage: /select 1,2")
		return
	}

	s := h.session(chatID)
	for _, id := range ids {
		if add {
			err = s.SelectArea(ctx, id)
		} else {
			err = s.DeselectArea(ctx, id)
		}
		if err != nil {
			break
		}
	}

	h.reply(chatID, statusIcon(err)+s.Message()+"\n"+selectionLine(s.Roster(), s.Selected()))
}

func (h *Handler) reseed(chatID int64) {
	s := h.session(chatID)
	n := s.Reseed()
	h.reply(chatID, fmt.Sprintf("🔄 %d records reset to the defaults.", n))
}

func selectionLine(rosters []models.AreaRoster, selected []uint) string {
	if len(selected) == 0 {
		return "🗺 No areas selected."
	}

	names := make(map[uint]string, len(rosters))
	for _, r := range rosters {
		names[r.AreaID] = r.AreaName
	}

	parts := make([]string, 0, len(selected))
	for _, id := range selected {
		if name, ok := names[id]; ok {
			parts = append(parts, fmt.Sprintf("%s (%d)", name, id))
		} else {
			parts = append(parts, fmt.Sprintf("#%d", id))
		}
	}
	return "🗺 Selected: " + strings.Join(parts, ", ")
}

func statusIcon(err error) string {
	if err != nil {
		return "⚠️ "
	}
	return "✅ "
}
