package models

import "time"

// AllAreas is the AreaID under which the day-wide totals are stored.
const AllAreas uint = 0

// DailyTotals keeps the aggregated totals of a saved day, per area and for
// the whole working set (AreaID = AllAreas).
type DailyTotals struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Date                string    `gorm:"type:char(10);not null;uniqueIndex:idx_daily_totals_date_area" json:"date"`
	AreaID              uint      `gorm:"not null;uniqueIndex:idx_daily_totals_date_area" json:"area_id"`
	AreaName            string    `json:"area_name"`
	Breakfast           int       `gorm:"not null;default:0" json:"breakfast"`
	ReinforcedBreakfast int       `gorm:"not null;default:0" json:"reinforced_breakfast"`
	Snack1              int       `gorm:"not null;default:0" json:"snack1"`
	AfternoonSnack      int       `gorm:"not null;default:0" json:"afternoon_snack"`
	DryMeal             int       `gorm:"not null;default:0" json:"dry_meal"`
	Lunch               int       `gorm:"not null;default:0" json:"lunch"`
	Transport           float64   `gorm:"not null;default:0" json:"transport"`
	VacationCount       int       `gorm:"not null;default:0" json:"vacation_count"`
	PermissionCount     int       `gorm:"not null;default:0" json:"permission_count"`
	RecordCount         int       `gorm:"not null;default:0" json:"record_count"`
	WorkedHours         float64   `gorm:"not null;default:0" json:"worked_hours"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DailyTotals) TableName() string {
	return "daily_totals"
}

// NewDailyTotals copies live totals into a report row.
func NewDailyTotals(date string, areaID uint, areaName string, t Totals) DailyTotals {
	return DailyTotals{
		Date:                date,
		AreaID:              areaID,
		AreaName:            areaName,
		Breakfast:           t.Breakfast,
		ReinforcedBreakfast: t.ReinforcedBreakfast,
		Snack1:              t.Snack1,
		AfternoonSnack:      t.AfternoonSnack,
		DryMeal:             t.DryMeal,
		Lunch:               t.Lunch,
		Transport:           t.Transport,
		VacationCount:       t.VacationCount,
		PermissionCount:     t.PermissionCount,
		RecordCount:         t.RecordCount,
		WorkedHours:         t.WorkedHours,
	}
}
