package service

import (
	"sync"

	"agro-attendance/internal/config"
	"agro-attendance/internal/models"
	"agro-attendance/internal/repository"

	"github.com/sirupsen/logrus"
)

// DefaultSettingsService serves the global defaults records are seeded from.
// Until an operator saves settings the configured fallback is used.
type DefaultSettingsService struct {
	mu       sync.RWMutex
	repo     repository.DefaultSettingsRepository
	fallback models.DefaultSettings
	current  *models.DefaultSettings
	logger   *logrus.Logger
}

func NewDefaultSettingsService(repo repository.DefaultSettingsRepository, fallback models.DefaultSettings) *DefaultSettingsService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &DefaultSettingsService{
		repo:     repo,
		fallback: fallback,
		logger:   logger,
	}
}

// FallbackFromConfig builds the factory defaults overridden by the
// DEFAULT_* environment settings.
func FallbackFromConfig(cfg *config.Config) models.DefaultSettings {
	d := models.FactoryDefaults()
	if cfg.DefaultEntryTime != "" {
		d.EntryTime = cfg.DefaultEntryTime
	}
	if cfg.DefaultExitTime != "" {
		d.ExitTime = cfg.DefaultExitTime
	}
	d.LunchDuration = cfg.DefaultLunchMinutes
	d.WorkingHours = cfg.DefaultWorkingHours
	return d
}

// Current returns the defaults in effect. A storage failure falls back to
// the configured defaults.
func (s *DefaultSettingsService) Current() models.DefaultSettings {
	s.mu.RLock()
	if s.current != nil {
		defer s.mu.RUnlock()
		return *s.current
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return *s.current
	}

	stored, err := s.repo.Get()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read default settings, using fallback")
		return s.fallback
	}
	if stored == nil {
		return s.fallback
	}

	s.current = stored
	return *stored
}

// Update validates and stores new defaults. Records already in a working
// set are untouched until they are reseeded.
func (s *DefaultSettingsService) Update(d models.DefaultSettings) error {
	if err := ValidateDefaults(d); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Save(&d); err != nil {
		return err
	}
	s.current = &d

	s.logger.WithFields(logrus.Fields{
		"entry_time":     d.EntryTime,
		"exit_time":      d.ExitTime,
		"lunch_duration": d.LunchDuration,
		"working_hours":  d.WorkingHours,
	}).Info("Default settings updated")

	return nil
}
