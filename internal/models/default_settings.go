package models

import "time"

// DefaultSettingsID is the primary key of the only default_settings row.
const DefaultSettingsID = 1

// DefaultSettings is the session-wide configuration every record is seeded
// from. It is stored as a single row and passed explicitly to seeding.
type DefaultSettings struct {
	ID            uint          `gorm:"primaryKey" json:"-"`
	EntryTime     string        `gorm:"type:char(5);not null;default:'06:30'" json:"entryTime" validate:"required,datetime=15:04"`
	ExitTime      string        `gorm:"type:char(5);not null;default:'16:00'" json:"exitTime" validate:"required,datetime=15:04"`
	LunchDuration int           `gorm:"not null;default:30" json:"lunchDuration" validate:"min=0,max=180"`
	WorkingHours  float64       `gorm:"not null;default:8" json:"workingHours" validate:"min=1,max=24"`
	FoodAllowance FoodAllowance `gorm:"embedded;embeddedPrefix:food_" json:"foodAllowance"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"-"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime" json:"-"`
}

func (DefaultSettings) TableName() string {
	return "default_settings"
}

// FactoryDefaults returns the settings used before an operator saves any.
func FactoryDefaults() DefaultSettings {
	return DefaultSettings{
		ID:            DefaultSettingsID,
		EntryTime:     "06:30",
		ExitTime:      "16:00",
		LunchDuration: 30,
		WorkingHours:  8,
		FoodAllowance: FoodAllowance{Lunch: 1},
	}
}

// NewRecord builds the seeded record for one employee.
func (d DefaultSettings) NewRecord(employeeID uint) AttendanceRecord {
	return AttendanceRecord{
		EmployeeID:       employeeID,
		EntryTime:        d.EntryTime,
		ExitTime:         d.ExitTime,
		LunchDuration:    ClampLunch(float64(d.LunchDuration)),
		IsVacation:       false,
		PermissionHours:  0,
		PermissionReason: "",
		FoodAllowance:    d.FoodAllowance.Clamped(),
	}
}
