package models

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

// Top-level record fields addressable by UpdateField and ApplyBulk.
const (
	FieldEmployeeID       = "employeeId"
	FieldEntryTime        = "entryTime"
	FieldExitTime         = "exitTime"
	FieldLunchDuration    = "lunchDuration"
	FieldIsVacation       = "isVacation"
	FieldPermissionHours  = "permissionHours"
	FieldPermissionReason = "permissionReason"

	// FoodFieldPrefix addresses a food allowance sub-field in bulk keys,
	// e.g. "foodAllowance.breakfast".
	FoodFieldPrefix = "foodAllowance."
)

const (
	ClockLayout        = "15:04"
	DateLayout         = "2006-01-02"
	MaxLunchDuration   = 180
	MaxPermissionHours = 8.0
)

var ErrInvalidClock = errors.New("invalid time of day, expected HH:MM")

// AttendanceRecord is one employee's registration for the day being edited.
// The JSON shape is the one the batch endpoint receives.
type AttendanceRecord struct {
	EmployeeID       uint          `json:"employeeId" validate:"required"`
	EntryTime        string        `json:"entryTime" validate:"omitempty,datetime=15:04"`
	ExitTime         string        `json:"exitTime" validate:"omitempty,datetime=15:04"`
	LunchDuration    int           `json:"lunchDuration" validate:"min=0,max=180"`
	IsVacation       bool          `json:"isVacation"`
	PermissionHours  float64       `json:"permissionHours" validate:"min=0,max=8,halfhour"`
	PermissionReason string        `json:"permissionReason"`
	FoodAllowance    FoodAllowance `json:"foodAllowance"`
}

// HasPermission reports whether the record carries permission hours.
func (r *AttendanceRecord) HasPermission() bool {
	return r.PermissionHours > 0
}

// SetField replaces one top-level field. Values of the wrong type are
// rejected. Lunch duration and permission hours are clamped to their ranges.
func (r *AttendanceRecord) SetField(field string, value any) bool {
	switch field {
	case FieldEntryTime:
		s, ok := value.(string)
		if !ok {
			return false
		}
		r.EntryTime = strings.TrimSpace(s)
	case FieldExitTime:
		s, ok := value.(string)
		if !ok {
			return false
		}
		r.ExitTime = strings.TrimSpace(s)
	case FieldLunchDuration:
		v, ok := ToFloat(value)
		if !ok {
			return false
		}
		r.LunchDuration = ClampLunch(v)
	case FieldIsVacation:
		b, ok := value.(bool)
		if !ok {
			return false
		}
		r.IsVacation = b
	case FieldPermissionHours:
		v, ok := ToFloat(value)
		if !ok {
			return false
		}
		r.PermissionHours = ClampPermission(v)
	case FieldPermissionReason:
		s, ok := value.(string)
		if !ok {
			return false
		}
		r.PermissionReason = s
	default:
		return false
	}
	return true
}

// WorkedHours returns the hours worked according to the record. Vacation
// days count as zero.
func (r *AttendanceRecord) WorkedHours() (float64, error) {
	if r.IsVacation {
		return 0, nil
	}
	return WorkedHours(r.EntryTime, r.ExitTime, r.LunchDuration)
}

// WorkedHours computes (exit - entry) - lunch. An exit at or before the entry
// yields zero or a negative result; overnight shifts are not supported.
func WorkedHours(entry, exit string, lunchMinutes int) (float64, error) {
	in, err := ParseClock(entry)
	if err != nil {
		return 0, fmt.Errorf("entry time: %w", err)
	}
	out, err := ParseClock(exit)
	if err != nil {
		return 0, fmt.Errorf("exit time: %w", err)
	}
	return out.Sub(in).Hours() - float64(lunchMinutes)/60, nil
}

// ParseClock parses a "HH:MM" time of day.
func ParseClock(s string) (time.Time, error) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidClock
	}
	return t, nil
}

// ClampLunch brings a lunch duration into [0, MaxLunchDuration] minutes.
func ClampLunch(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= MaxLunchDuration {
		return MaxLunchDuration
	}
	return int(math.Round(v))
}

// ClampPermission brings permission hours into [0, MaxPermissionHours].
// Half-hour granularity is left to validation.
func ClampPermission(v float64) float64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	return math.Min(v, MaxPermissionHours)
}

// ToFloat converts any integer or floating point value a caller may hand to
// a mutator.
func ToFloat(value any) (float64, bool) {
	if value == nil {
		return 0, false
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}
