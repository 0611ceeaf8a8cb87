package handler

import (
	"context"
	"strings"
	"sync"
	"time"

	"agro-attendance/internal/config"
	"agro-attendance/internal/models"
	"agro-attendance/internal/repository"
	"agro-attendance/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Messenger is the part of the Telegram client the handler talks to.
type Messenger interface {
	Send(msg tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(req tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// AttendanceAPI serves the area list and the roster, and saves batches.
type AttendanceAPI interface {
	service.RosterProvider
	service.BatchSaver
	GetAreas(ctx context.Context) ([]models.Area, error)
}

type Handler struct {
	client      Messenger
	api         AttendanceAPI
	operators   *service.OperatorService
	settings    *service.DefaultSettingsService
	reports     *service.ReportService
	calendar    *service.CalendarService
	submissions repository.SubmissionRepository
	config      *config.Config

	mu              sync.Mutex
	sessions        map[int64]*service.RegistrationSession
	pendingDefaults map[int64]models.DefaultSettings

	wg     sync.WaitGroup
	now    func() time.Time
	logger *logrus.Logger
}

func NewHandler(
	client Messenger,
	api AttendanceAPI,
	operators *service.OperatorService,
	settings *service.DefaultSettingsService,
	reports *service.ReportService,
	calendar *service.CalendarService,
	submissions repository.SubmissionRepository,
	cfg *config.Config,
) *Handler {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &Handler{
		client:          client,
		api:             api,
		operators:       operators,
		settings:        settings,
		reports:         reports,
		calendar:        calendar,
		submissions:     submissions,
		config:          cfg,
		sessions:        make(map[int64]*service.RegistrationSession),
		pendingDefaults: make(map[int64]models.DefaultSettings),
		now:             time.Now,
		logger:          logger,
	}
}

// HandleUpdates processes updates until the channel closes or ctx is done.
// Submissions run in the background and are awaited before returning.
func (h *Handler) HandleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer h.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, update)
		}
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.handleCallbackQuery(ctx, update.CallbackQuery)
		return
	}
	if update.Message == nil {
		return
	}
	h.handleMessage(ctx, update.Message)
}

func (h *Handler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	logger := h.logger.WithField("chat_id", chatID)
	if message.From != nil {
		logger = logger.WithField("user", message.From.UserName)
	}
	logger.Infof("%s", message.Text)

	if !message.IsCommand() {
		h.reply(chatID, "❓ Send a command. Use /help for the list of commands.")
		return
	}

	switch message.Command() {
	case "start", "help":
		h.sendHelp(chatID)
		return
	case "whoami":
		h.reply(chatID, "🆔 Your chat ID: "+itoa(chatID))
		return
	}

	op, ok := h.requireOperator(chatID)
	if !ok {
		return
	}

	h.handleCommand(ctx, op, message)
}

// handleCallbackQuery serves the inline keyboards: area toggles and the
// confirmation of new defaults.
func (h *Handler) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	defer func() {
		if _, err := h.client.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
			h.logger.WithError(err).Debug("Failed to answer callback")
		}
	}()

	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	op, ok := h.requireOperator(chatID)
	if !ok {
		return
	}

	data := callback.Data
	switch {
	case strings.HasPrefix(data, callbackAreaToggle):
		h.toggleArea(ctx, chatID, callback.Message.MessageID, strings.TrimPrefix(data, callbackAreaToggle))
	case data == callbackDefaultsConfirm:
		h.clearKeyboard(chatID, callback.Message.MessageID)
		h.confirmDefaults(op, chatID)
	case data == callbackDefaultsCancel:
		h.clearKeyboard(chatID, callback.Message.MessageID)
		h.mu.Lock()
		delete(h.pendingDefaults, chatID)
		h.mu.Unlock()
		h.reply(chatID, "❌ Defaults unchanged.")
	}
}

func (h *Handler) requireOperator(chatID int64) (*models.Operator, bool) {
	op, err := h.operators.Get(chatID)
	if err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to check operator")
		h.reply(chatID, "❌ Could not check your access: "+err.Error())
		return nil, false
	}
	if op == nil {
		h.reply(chatID, "⛔ This chat is not registered as an operator. Ask an administrator to add chat ID "+itoa(chatID)+".")
		return nil, false
	}
	return op, true
}

func (h *Handler) requireAdmin(op *models.Operator) bool {
	if op.IsAdmin() {
		return true
	}
	h.reply(op.ChatID, "⛔ Access denied. This command is for administrators only.")
	return false
}

// session returns the registration session of a chat, creating it on first
// use. Each chat has its own working set and submitter.
func (h *Handler) session(chatID int64) *service.RegistrationSession {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.sessions[chatID]; ok {
		return s
	}

	s := service.NewRegistrationSession(
		h.api,
		h.settings,
		service.NewBatchSubmitter(h.api, h.submissions, h.config.RequirePermissionReason),
		h.reports,
	)
	h.sessions[chatID] = s
	return s
}

func (h *Handler) reply(chatID int64, text string) {
	for _, chunk := range splitMessage(text, maxMessageLength) {
		if _, err := h.client.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			h.logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to send message")
		}
	}
}

func (h *Handler) clearKeyboard(chatID int64, messageID int) {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	if _, err := h.client.Send(edit); err != nil {
		h.logger.WithError(err).Debug("Failed to clear keyboard")
	}
}
