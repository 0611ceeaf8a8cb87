package repository

import (
	"agro-attendance/internal/models"

	"gorm.io/gorm"
)

type NonWorkingDayRepository interface {
	ReplaceYear(year int, days []models.NonWorkingDay) error
	GetByYearMonth(year, month int) ([]models.NonWorkingDay, error)
	IsNonWorkingDay(date string) (bool, error)
}

type GormNonWorkingDayRepository struct {
	db *gorm.DB
}

func NewGormNonWorkingDayRepository(db *gorm.DB) (NonWorkingDayRepository, error) {
	if err := db.AutoMigrate(&models.NonWorkingDay{}); err != nil {
		return nil, err
	}

	return &GormNonWorkingDayRepository{db: db}, nil
}

// ReplaceYear swaps every stored day of year for days.
func (r *GormNonWorkingDayRepository) ReplaceYear(year int, days []models.NonWorkingDay) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("year = ?", year).Delete(&models.NonWorkingDay{}).Error; err != nil {
			return err
		}
		if len(days) == 0 {
			return nil
		}
		return tx.Create(&days).Error
	})
}

func (r *GormNonWorkingDayRepository) GetByYearMonth(year, month int) ([]models.NonWorkingDay, error) {
	var days []models.NonWorkingDay
	err := r.db.Where("year = ? AND month = ?", year, month).Order("date").Find(&days).Error
	return days, err
}

func (r *GormNonWorkingDayRepository) IsNonWorkingDay(date string) (bool, error) {
	var count int64
	err := r.db.Model(&models.NonWorkingDay{}).
		Where("date = ?", date).
		Count(&count).Error
	return count > 0, err
}
