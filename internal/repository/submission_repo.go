package repository

import (
	"errors"

	"agro-attendance/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrInvalidSubmission = errors.New("invalid submission journal entry")

type SubmissionRepository interface {
	Create(submission *models.Submission) error
	GetByRequestID(requestID string) (*models.Submission, error)
	GetByDate(date string) ([]*models.Submission, error)
	GetRecent(limit int) ([]*models.Submission, error)
}

type GormSubmissionRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormSubmissionRepository(db *gorm.DB) (*GormSubmissionRepository, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if err := db.AutoMigrate(&models.Submission{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate submissions table")
		return nil, err
	}

	logger.Info("Submission repository initialized")

	return &GormSubmissionRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormSubmissionRepository) Create(submission *models.Submission) error {
	if !submission.IsValid() {
		r.logger.WithFields(logrus.Fields{
			"request_id": submission.RequestID,
			"date":       submission.Date,
			"status":     submission.Status,
		}).Warn("Invalid submission data")
		return ErrInvalidSubmission
	}

	result := r.db.Create(submission)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create submission")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":         submission.ID,
		"request_id": submission.RequestID,
		"date":       submission.Date,
		"processed":  submission.Processed,
		"status":     submission.Status,
	}).Info("Submission recorded")

	return nil
}

func (r *GormSubmissionRepository) GetByRequestID(requestID string) (*models.Submission, error) {
	var submission models.Submission
	result := r.db.Where("request_id = ?", requestID).First(&submission)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("request_id", requestID).Debug("Submission not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get submission by request ID")
		return nil, result.Error
	}

	return &submission, nil
}

func (r *GormSubmissionRepository) GetByDate(date string) ([]*models.Submission, error) {
	var submissions []*models.Submission
	result := r.db.Where("date = ?", date).Order("id DESC").Find(&submissions)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get submissions by date")
		return nil, result.Error
	}

	return submissions, nil
}

func (r *GormSubmissionRepository) GetRecent(limit int) ([]*models.Submission, error) {
	var submissions []*models.Submission

	query := r.db.Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	result := query.Find(&submissions)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get recent submissions")
		return nil, result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"count": len(submissions),
		"limit": limit,
	}).Debug("Retrieved recent submissions")

	return submissions, nil
}
