package models

import (
	"time"
)

// NonWorkingDay is a public holiday or transferred day off of the
// production calendar.
type NonWorkingDay struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Date        string    `gorm:"type:char(10);uniqueIndex" json:"date"`
	Year        int       `gorm:"index" json:"year"`
	Month       int       `gorm:"index" json:"month"`
	Transferred bool      `json:"transferred"`
	CreatedAt   time.Time `json:"created_at"`
}

func (NonWorkingDay) TableName() string {
	return "non_working_days"
}
