package repository

import (
	"errors"

	"agro-attendance/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type DefaultSettingsRepository interface {
	Get() (*models.DefaultSettings, error)
	Save(settings *models.DefaultSettings) error
}

type GormDefaultSettingsRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormDefaultSettingsRepository(db *gorm.DB) (*GormDefaultSettingsRepository, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if err := db.AutoMigrate(&models.DefaultSettings{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate default_settings table")
		return nil, err
	}

	logger.Info("Default settings repository initialized")

	return &GormDefaultSettingsRepository{
		db:     db,
		logger: logger,
	}, nil
}

// Get returns the stored settings, or nil when none were saved yet.
func (r *GormDefaultSettingsRepository) Get() (*models.DefaultSettings, error) {
	var settings models.DefaultSettings
	result := r.db.First(&settings, models.DefaultSettingsID)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.Debug("Default settings not stored yet")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get default settings")
		return nil, result.Error
	}

	return &settings, nil
}

// Save upserts the single settings row.
func (r *GormDefaultSettingsRepository) Save(settings *models.DefaultSettings) error {
	settings.ID = models.DefaultSettingsID

	result := r.db.Save(settings)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to save default settings")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"entry_time":     settings.EntryTime,
		"exit_time":      settings.ExitTime,
		"lunch_duration": settings.LunchDuration,
	}).Info("Default settings saved")

	return nil
}
