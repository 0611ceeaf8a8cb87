package service

import (
	"fmt"
	"time"

	"agro-attendance/internal/models"
	"agro-attendance/internal/repository"
	"agro-attendance/pkg/calendar"

	"github.com/sirupsen/logrus"
)

// CalendarService knows the non-working days submissions are checked
// against. Registering a non-working day is allowed but flagged.
type CalendarService struct {
	repo   repository.NonWorkingDayRepository
	logger *logrus.Logger
}

func NewCalendarService(repo repository.NonWorkingDayRepository) *CalendarService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &CalendarService{repo: repo, logger: logger}
}

// LoadFromFile replaces the stored calendar years found in the file.
func (s *CalendarService) LoadFromFile(path string) (int, error) {
	days, err := calendar.ParseFile(path)
	if err != nil {
		return 0, err
	}
	return s.Load(days)
}

func (s *CalendarService) Load(days []calendar.Day) (int, error) {
	byYear := make(map[int][]models.NonWorkingDay)
	for _, d := range days {
		year := d.Date.Year()
		byYear[year] = append(byYear[year], models.NonWorkingDay{
			Date:        d.Date.Format(models.DateLayout),
			Year:        year,
			Month:       int(d.Date.Month()),
			Transferred: d.Transferred,
		})
	}

	for year, rows := range byYear {
		if err := s.repo.ReplaceYear(year, rows); err != nil {
			return 0, fmt.Errorf("failed to store calendar %d: %w", year, err)
		}
		s.logger.WithFields(logrus.Fields{
			"year": year,
			"days": len(rows),
		}).Info("Calendar loaded")
	}

	return len(days), nil
}

// IsNonWorkingDay reports whether date is a holiday. Lookup failures are
// logged and treated as a working day.
func (s *CalendarService) IsNonWorkingDay(date time.Time) bool {
	day := date.Format(models.DateLayout)
	off, err := s.repo.IsNonWorkingDay(day)
	if err != nil {
		s.logger.WithError(err).WithField("date", day).Warn("Failed to check calendar")
		return false
	}
	return off
}

func (s *CalendarService) MonthDays(year, month int) ([]models.NonWorkingDay, error) {
	return s.repo.GetByYearMonth(year, month)
}
