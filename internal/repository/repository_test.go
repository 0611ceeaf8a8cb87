package repository

import (
	"errors"
	"testing"

	"agro-attendance/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// every connection to :memory: is its own database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func TestDefaultSettingsRoundTrip(t *testing.T) {
	repo, err := NewGormDefaultSettingsRepository(openTestDB(t))
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}

	got, err := repo.Get()
	if err != nil {
		t.Fatalf("get empty: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no settings before first save, got %+v", got)
	}

	settings := models.FactoryDefaults()
	settings.EntryTime = "07:00"
	settings.FoodAllowance.Breakfast = 2
	settings.FoodAllowance.Transport = 3.75
	if err := repo.Save(&settings); err != nil {
		t.Fatalf("save: %v", err)
	}

	settings.ExitTime = "17:00"
	if err := repo.Save(&settings); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err = repo.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.EntryTime != "07:00" || got.ExitTime != "17:00" {
		t.Fatalf("unexpected times %s-%s", got.EntryTime, got.ExitTime)
	}
	if got.FoodAllowance.Breakfast != 2 || got.FoodAllowance.Transport != 3.75 {
		t.Fatalf("unexpected food allowance %+v", got.FoodAllowance)
	}

	var count int64
	repo.db.Model(&models.DefaultSettings{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected a single settings row, got %d", count)
	}
}

func TestSubmissionJournal(t *testing.T) {
	repo, err := NewGormSubmissionRepository(openTestDB(t))
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}

	if err := repo.Create(&models.Submission{RequestID: "x", Date: "15/10/2026", Status: models.SubmissionFailed}); err != ErrInvalidSubmission {
		t.Fatalf("expected ErrInvalidSubmission for bad date, got %v", err)
	}

	for i, id := range []string{"a", "b", "c"} {
		s := &models.Submission{
			RequestID:   id,
			Date:        "2026-10-15",
			RecordCount: 10 + i,
			Processed:   10 + i,
			Status:      models.SubmissionSucceeded,
		}
		if err := repo.Create(s); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	recent, err := repo.GetRecent(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].RequestID != "c" || recent[1].RequestID != "b" {
		t.Fatalf("unexpected recent submissions %+v", recent)
	}

	found, err := repo.GetByRequestID("b")
	if err != nil || found == nil || found.Processed != 11 {
		t.Fatalf("unexpected lookup result %+v, %v", found, err)
	}

	missing, err := repo.GetByRequestID("zzz")
	if err != nil || missing != nil {
		t.Fatalf("expected nil, nil for unknown request id, got %+v, %v", missing, err)
	}

	byDate, err := repo.GetByDate("2026-10-15")
	if err != nil || len(byDate) != 3 {
		t.Fatalf("expected 3 submissions for date, got %d (%v)", len(byDate), err)
	}
}

func TestDailyTotalsReplaceForDate(t *testing.T) {
	repo, err := NewGormDailyTotalsRepository(openTestDB(t))
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}

	first := []models.DailyTotals{
		{AreaID: models.AllAreas, AreaName: "All", Lunch: 30, RecordCount: 30},
		{AreaID: 1, AreaName: "Packing", Lunch: 20, RecordCount: 20},
		{AreaID: 2, AreaName: "Harvest", Lunch: 10, RecordCount: 10},
	}
	if err := repo.ReplaceForDate("2026-10-15", first); err != nil {
		t.Fatalf("replace: %v", err)
	}

	second := []models.DailyTotals{
		{AreaID: models.AllAreas, AreaName: "All", Lunch: 12, RecordCount: 12},
		{AreaID: 1, AreaName: "Packing", Lunch: 12, RecordCount: 12},
	}
	if err := repo.ReplaceForDate("2026-10-15", second); err != nil {
		t.Fatalf("replace again: %v", err)
	}

	rows, err := repo.GetByDate("2026-10-15")
	if err != nil {
		t.Fatalf("get by date: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected previous batch to be replaced, got %d rows", len(rows))
	}

	packing, err := repo.GetByDateAndArea("2026-10-15", 1)
	if err != nil || packing == nil || packing.Lunch != 12 {
		t.Fatalf("unexpected packing totals %+v, %v", packing, err)
	}

	harvest, err := repo.GetByDateAndArea("2026-10-15", 2)
	if err != nil || harvest != nil {
		t.Fatalf("expected harvest totals to be gone, got %+v, %v", harvest, err)
	}
}

func TestNonWorkingDaysReplaceYear(t *testing.T) {
	repo, err := NewGormNonWorkingDayRepository(openTestDB(t))
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}

	if err := repo.ReplaceYear(2026, []models.NonWorkingDay{
		{Date: "2026-05-01", Year: 2026, Month: 5},
		{Date: "2026-05-09", Year: 2026, Month: 5},
	}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := repo.ReplaceYear(2026, []models.NonWorkingDay{
		{Date: "2026-05-11", Year: 2026, Month: 5, Transferred: true},
	}); err != nil {
		t.Fatalf("replace again: %v", err)
	}

	off, err := repo.IsNonWorkingDay("2026-05-01")
	if err != nil || off {
		t.Fatalf("expected replaced day to be gone, got %v, %v", off, err)
	}
	off, err = repo.IsNonWorkingDay("2026-05-11")
	if err != nil || !off {
		t.Fatalf("expected 2026-05-11 to be off, got %v, %v", off, err)
	}

	days, err := repo.GetByYearMonth(2026, 5)
	if err != nil || len(days) != 1 || !days[0].Transferred {
		t.Fatalf("unexpected month days %+v, %v", days, err)
	}
}

func TestOperators(t *testing.T) {
	repo, err := NewGormOperatorRepository(openTestDB(t))
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}

	if err := repo.Create(&models.Operator{ChatID: 7, Name: "Ana", Role: models.RoleOperator}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(&models.Operator{ChatID: 7, Name: "Ana", Role: models.RoleOperator}); !errors.Is(err, ErrOperatorExists) {
		t.Fatalf("expected ErrOperatorExists, got %v", err)
	}

	if err := repo.UpdateRole(7, models.RoleAdmin); err != nil {
		t.Fatalf("update role: %v", err)
	}
	op, err := repo.GetByChatID(7)
	if err != nil || op == nil || !op.IsAdmin() {
		t.Fatalf("expected admin, got %+v, %v", op, err)
	}

	if err := repo.Delete(8); !errors.Is(err, ErrOperatorNotFound) {
		t.Fatalf("expected ErrOperatorNotFound, got %v", err)
	}
	if err := repo.Delete(7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if op, err := repo.GetByChatID(7); err != nil || op != nil {
		t.Fatalf("expected nil, nil after delete, got %+v, %v", op, err)
	}
}

func TestDailyTotalsByMonth(t *testing.T) {
	repo, err := NewGormDailyTotalsRepository(openTestDB(t))
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}

	for _, date := range []string{"2026-10-15", "2026-10-01", "2026-11-01"} {
		if err := repo.ReplaceForDate(date, []models.DailyTotals{{AreaID: models.AllAreas, AreaName: "All", RecordCount: 1}}); err != nil {
			t.Fatalf("replace %s: %v", date, err)
		}
	}

	rows, err := repo.GetByMonth(2026, 10)
	if err != nil {
		t.Fatalf("get by month: %v", err)
	}
	if len(rows) != 2 || rows[0].Date != "2026-10-01" {
		t.Fatalf("unexpected month rows %+v", rows)
	}
}
