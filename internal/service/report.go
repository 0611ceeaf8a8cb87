package service

import (
	"fmt"
	"io"

	"agro-attendance/internal/models"
	"agro-attendance/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const reportSheet = "Totals"

var reportHeader = []string{
	"Area", "Records", "Vacation", "Permission", "Worked hours",
	"Breakfast", "Reinforced breakfast", "Snack", "Afternoon snack", "Dry meal", "Lunch", "Transport",
}

// ReportService keeps the totals of saved days for the reporting side.
type ReportService struct {
	repo   repository.DailyTotalsRepository
	logger *logrus.Logger
}

func NewReportService(repo repository.DailyTotalsRepository) *ReportService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &ReportService{repo: repo, logger: logger}
}

// RecordDay stores the day-wide totals and one row per area, replacing
// whatever an earlier save of the same date left.
func (s *ReportService) RecordDay(date string, overall models.Totals, byArea []AreaTotals) error {
	rows := make([]models.DailyTotals, 0, len(byArea)+1)
	rows = append(rows, models.NewDailyTotals(date, models.AllAreas, "All areas", overall))
	for _, a := range byArea {
		rows = append(rows, models.NewDailyTotals(date, a.AreaID, a.AreaName, a.Totals))
	}

	if err := s.repo.ReplaceForDate(date, rows); err != nil {
		return fmt.Errorf("failed to store totals for %s: %w", date, err)
	}
	return nil
}

// DayTotals returns the stored totals of a date: every row, or only the row
// of areaID when it is given.
func (s *ReportService) DayTotals(date string, areaID *uint) ([]models.DailyTotals, error) {
	if areaID == nil {
		return s.repo.GetByDate(date)
	}

	row, err := s.repo.GetByDateAndArea(date, *areaID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return []models.DailyTotals{*row}, nil
}

// MonthTotals sums the saved days of a month per area.
type MonthTotals struct {
	AreaID   uint
	AreaName string
	Days     int
	Totals   models.Totals
}

// Month aggregates the stored daily totals of a month, one entry per area in
// order of first appearance.
func (s *ReportService) Month(year, month int) ([]MonthTotals, error) {
	rows, err := s.repo.GetByMonth(year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to load totals for %04d-%02d: %w", year, month, err)
	}

	index := make(map[uint]int)
	var out []MonthTotals
	for _, row := range rows {
		i, ok := index[row.AreaID]
		if !ok {
			i = len(out)
			index[row.AreaID] = i
			out = append(out, MonthTotals{AreaID: row.AreaID, AreaName: row.AreaName})
		}

		m := &out[i]
		m.Days++
		m.Totals.Breakfast += row.Breakfast
		m.Totals.ReinforcedBreakfast += row.ReinforcedBreakfast
		m.Totals.Snack1 += row.Snack1
		m.Totals.AfternoonSnack += row.AfternoonSnack
		m.Totals.DryMeal += row.DryMeal
		m.Totals.Lunch += row.Lunch
		m.Totals.Transport += row.Transport
		m.Totals.VacationCount += row.VacationCount
		m.Totals.PermissionCount += row.PermissionCount
		m.Totals.RecordCount += row.RecordCount
		m.Totals.WorkedHours += row.WorkedHours
	}

	return out, nil
}

// ExportDay writes the totals of a date as an XLSX workbook.
func (s *ReportService) ExportDay(date string, w io.Writer) (int, error) {
	rows, err := s.repo.GetByDate(date)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), reportSheet); err != nil {
		return 0, err
	}

	if err := f.SetSheetRow(reportSheet, "A1", &[]any{"Attendance totals", date}); err != nil {
		return 0, err
	}
	header := make([]any, len(reportHeader))
	for i, h := range reportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(reportSheet, "A3", &header); err != nil {
		return 0, err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return 0, err
		}
		values := []any{
			row.AreaName, row.RecordCount, row.VacationCount, row.PermissionCount, row.WorkedHours,
			row.Breakfast, row.ReinforcedBreakfast, row.Snack1, row.AfternoonSnack, row.DryMeal, row.Lunch, row.Transport,
		}
		if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
			return 0, err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"date": date,
		"rows": len(rows),
	}).Info("Daily totals exported")

	return len(rows), nil
}
