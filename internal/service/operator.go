package service

import (
	"errors"
	"fmt"
	"strings"

	"agro-attendance/internal/models"
	"agro-attendance/internal/repository"

	"github.com/sirupsen/logrus"
)

var (
	ErrNotAdmin        = errors.New("only administrators can do this")
	ErrInvalidOperator = errors.New("operator needs a chat id and a name")
	ErrRemoveLastAdmin = errors.New("the last administrator cannot be removed")
)

// OperatorService decides which Telegram chats may register attendance.
type OperatorService struct {
	repo   repository.OperatorRepository
	logger *logrus.Logger
}

func NewOperatorService(repo repository.OperatorRepository) *OperatorService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &OperatorService{repo: repo, logger: logger}
}

// InitializeAdmin makes sure the configured chat is an administrator.
func (s *OperatorService) InitializeAdmin(adminChatID int64) error {
	if adminChatID <= 0 {
		return nil
	}

	existing, err := s.repo.GetByChatID(adminChatID)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.IsAdmin() {
			return nil
		}
		return s.repo.UpdateRole(adminChatID, models.RoleAdmin)
	}

	return s.repo.Create(&models.Operator{
		ChatID: adminChatID,
		Name:   "Administrator",
		Role:   models.RoleAdmin,
	})
}

// Get returns the operator of a chat, or nil when the chat is unknown.
func (s *OperatorService) Get(chatID int64) (*models.Operator, error) {
	return s.repo.GetByChatID(chatID)
}

func (s *OperatorService) IsAdmin(chatID int64) (bool, error) {
	op, err := s.repo.GetByChatID(chatID)
	if err != nil {
		return false, err
	}
	return op != nil && op.IsAdmin(), nil
}

// Add registers a new operator on behalf of an administrator.
func (s *OperatorService) Add(adminChatID, chatID int64, name string, role models.Role) (*models.Operator, error) {
	if err := s.requireAdmin(adminChatID); err != nil {
		return nil, err
	}

	op := &models.Operator{ChatID: chatID, Name: strings.TrimSpace(name), Role: role}
	if !op.IsValid() {
		return nil, ErrInvalidOperator
	}
	if err := s.repo.Create(op); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"admin_chat_id": adminChatID,
		"chat_id":       chatID,
		"role":          role,
	}).Info("Operator added")

	return op, nil
}

// Remove deletes an operator. The last administrator is kept.
func (s *OperatorService) Remove(adminChatID, chatID int64) error {
	if err := s.requireAdmin(adminChatID); err != nil {
		return err
	}

	target, err := s.repo.GetByChatID(chatID)
	if err != nil {
		return err
	}
	if target == nil {
		return repository.ErrOperatorNotFound
	}

	if target.IsAdmin() {
		all, err := s.repo.GetAll()
		if err != nil {
			return err
		}
		admins := 0
		for _, op := range all {
			if op.IsAdmin() {
				admins++
			}
		}
		if admins <= 1 {
			return ErrRemoveLastAdmin
		}
	}

	if err := s.repo.Delete(chatID); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"admin_chat_id": adminChatID,
		"chat_id":       chatID,
	}).Info("Operator removed")

	return nil
}

func (s *OperatorService) FormatAll() (string, error) {
	ops, err := s.repo.GetAll()
	if err != nil {
		return "", err
	}
	if len(ops) == 0 {
		return "📭 No operators registered.", nil
	}

	lines := []string{"📋 Operators:", ""}
	for i, op := range ops {
		roleEmoji := "👤"
		if op.IsAdmin() {
			roleEmoji = "👑"
		}
		line := fmt.Sprintf("%d. %s %s", i+1, roleEmoji, op.Name)
		if op.Username != "" {
			line += fmt.Sprintf(" (@%s)", op.Username)
		}
		line += fmt.Sprintf(" - ID: %d", op.ChatID)
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n"), nil
}

func (s *OperatorService) requireAdmin(chatID int64) error {
	isAdmin, err := s.IsAdmin(chatID)
	if err != nil {
		return fmt.Errorf("failed to check permissions: %w", err)
	}
	if !isAdmin {
		return ErrNotAdmin
	}
	return nil
}
