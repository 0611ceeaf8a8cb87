package calendar

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// File is a yearly production calendar: per month a comma separated list of
// non-working days, where "12*" marks a shortened pre-holiday day and "8+"
// a transferred day off.
type File struct {
	Year   int          `json:"year"`
	Months []MonthEntry `json:"months"`
}

type MonthEntry struct {
	Month int    `json:"month"`
	Days  string `json:"days"`
}

// Day is one non-working day of the calendar.
type Day struct {
	Date        time.Time
	Transferred bool
}

// ParseFile reads a calendar file from disk.
func ParseFile(path string) ([]Day, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a calendar document. Shortened days are still working days
// and are skipped.
func Parse(data []byte) ([]Day, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal calendar: %w", err)
	}
	if f.Year == 0 {
		return nil, fmt.Errorf("calendar has no year")
	}

	var days []Day
	for _, m := range f.Months {
		if m.Month < 1 || m.Month > 12 {
			return nil, fmt.Errorf("invalid month %d", m.Month)
		}
		for _, raw := range strings.Split(m.Days, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" || strings.HasSuffix(raw, "*") {
				continue
			}
			transferred := strings.HasSuffix(raw, "+")
			raw = strings.TrimSuffix(raw, "+")

			day, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("failed to parse day '%s' in month %d: %w", raw, m.Month, err)
			}
			date := time.Date(f.Year, time.Month(m.Month), day, 0, 0, 0, 0, time.UTC)
			if date.Month() != time.Month(m.Month) {
				return nil, fmt.Errorf("day %d does not exist in month %d", day, m.Month)
			}

			days = append(days, Day{Date: date, Transferred: transferred})
		}
	}

	return days, nil
}
