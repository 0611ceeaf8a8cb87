package models

import "time"

// Submission is a journal entry for one batch sent to the attendance API.
type Submission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RequestID   string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"request_id"`
	Date        string    `gorm:"type:char(10);not null;index" json:"date"`
	RecordCount int       `gorm:"not null;default:0" json:"record_count"`
	Processed   int       `gorm:"not null;default:0" json:"processed"`
	TimeElapsed string    `json:"time_elapsed"`
	Status      string    `gorm:"type:varchar(20);not null;index" json:"status"`
	Error       string    `json:"error"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Submission) TableName() string {
	return "submissions"
}

const (
	SubmissionSucceeded = "succeeded"
	SubmissionFailed    = "failed"
)

// IsValid checks the journal entry before it is written.
func (s *Submission) IsValid() bool {
	if s.RequestID == "" {
		return false
	}
	if _, err := time.Parse(DateLayout, s.Date); err != nil {
		return false
	}
	if s.RecordCount < 0 || s.Processed < 0 {
		return false
	}
	return s.Status == SubmissionSucceeded || s.Status == SubmissionFailed
}
