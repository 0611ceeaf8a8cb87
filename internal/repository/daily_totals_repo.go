package repository

import (
	"errors"
	"fmt"

	"agro-attendance/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type DailyTotalsRepository interface {
	ReplaceForDate(date string, rows []models.DailyTotals) error
	GetByDate(date string) ([]models.DailyTotals, error)
	GetByDateAndArea(date string, areaID uint) (*models.DailyTotals, error)
	GetByMonth(year, month int) ([]models.DailyTotals, error)
}

type GormDailyTotalsRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormDailyTotalsRepository(db *gorm.DB) (*GormDailyTotalsRepository, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if err := db.AutoMigrate(&models.DailyTotals{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate daily_totals table")
		return nil, err
	}

	logger.Info("Daily totals repository initialized")

	return &GormDailyTotalsRepository{
		db:     db,
		logger: logger,
	}, nil
}

// ReplaceForDate drops whatever was stored for the date and writes rows in
// one transaction, so a re-saved day never mixes two batches.
func (r *GormDailyTotalsRepository) ReplaceForDate(date string, rows []models.DailyTotals) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("date = ?", date).Delete(&models.DailyTotals{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		for i := range rows {
			rows[i].ID = 0
			rows[i].Date = date
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		r.logger.WithError(err).WithField("date", date).Error("Failed to replace daily totals")
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"date": date,
		"rows": len(rows),
	}).Info("Daily totals stored")

	return nil
}

func (r *GormDailyTotalsRepository) GetByDate(date string) ([]models.DailyTotals, error) {
	var rows []models.DailyTotals
	err := r.db.Where("date = ?", date).Order("area_id ASC").Find(&rows).Error
	return rows, err
}

// GetByMonth returns every stored row of a month ordered by date and area.
func (r *GormDailyTotalsRepository) GetByMonth(year, month int) ([]models.DailyTotals, error) {
	var rows []models.DailyTotals
	prefix := fmt.Sprintf("%04d-%02d-%%", year, month)
	err := r.db.Where("date LIKE ?", prefix).Order("date ASC, area_id ASC").Find(&rows).Error
	return rows, err
}

func (r *GormDailyTotalsRepository) GetByDateAndArea(date string, areaID uint) (*models.DailyTotals, error) {
	var row models.DailyTotals
	result := r.db.Where("date = ? AND area_id = ?", date, areaID).First(&row)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithFields(logrus.Fields{
			"date":    date,
			"area_id": areaID,
		}).Debug("Daily totals not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get daily totals")
		return nil, result.Error
	}

	return &row, nil
}
