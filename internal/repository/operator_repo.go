package repository

import (
	"errors"

	"agro-attendance/internal/models"

	"gorm.io/gorm"
)

var (
	ErrOperatorExists   = errors.New("operator already exists")
	ErrOperatorNotFound = errors.New("operator not found")
)

type OperatorRepository interface {
	Create(op *models.Operator) error
	GetByChatID(chatID int64) (*models.Operator, error)
	GetAll() ([]*models.Operator, error)
	UpdateRole(chatID int64, role models.Role) error
	Delete(chatID int64) error
}

type GormOperatorRepository struct {
	db *gorm.DB
}

func NewGormOperatorRepository(db *gorm.DB) (OperatorRepository, error) {
	if err := db.AutoMigrate(&models.Operator{}); err != nil {
		return nil, err
	}

	return &GormOperatorRepository{db: db}, nil
}

func (r *GormOperatorRepository) Create(op *models.Operator) error {
	var existing models.Operator
	result := r.db.Where("chat_id = ?", op.ChatID).First(&existing)
	if result.Error == nil {
		return ErrOperatorExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	return r.db.Create(op).Error
}

func (r *GormOperatorRepository) GetByChatID(chatID int64) (*models.Operator, error) {
	var op models.Operator
	result := r.db.Where("chat_id = ?", chatID).First(&op)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}

	return &op, nil
}

func (r *GormOperatorRepository) GetAll() ([]*models.Operator, error) {
	var ops []*models.Operator
	if err := r.db.Order("id").Find(&ops).Error; err != nil {
		return nil, err
	}
	return ops, nil
}

func (r *GormOperatorRepository) UpdateRole(chatID int64, role models.Role) error {
	result := r.db.Model(&models.Operator{}).
		Where("chat_id = ?", chatID).
		Update("role", role)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOperatorNotFound
	}

	return nil
}

func (r *GormOperatorRepository) Delete(chatID int64) error {
	result := r.db.Where("chat_id = ?", chatID).Delete(&models.Operator{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOperatorNotFound
	}

	return nil
}
