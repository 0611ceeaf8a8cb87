package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"agro-attendance/internal/models"
	"agro-attendance/pkg/attendanceapi"
)

type staticDefaults struct {
	settings models.DefaultSettings
}

func (d *staticDefaults) Current() models.DefaultSettings {
	return d.settings
}

type fakeRoster struct {
	mu      sync.Mutex
	byArea  map[uint]models.AreaRoster
	err     error
	calls   [][]uint
	blockOn map[uint]chan struct{}
}

func newFakeRoster(rosters ...models.AreaRoster) *fakeRoster {
	f := &fakeRoster{byArea: make(map[uint]models.AreaRoster), blockOn: make(map[uint]chan struct{})}
	for _, r := range rosters {
		f.byArea[r.AreaID] = r
	}
	return f
}

func (f *fakeRoster) GetEmployeesByAreas(ctx context.Context, areaIDs []uint) ([]models.AreaRoster, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]uint(nil), areaIDs...))
	err := f.err
	var gate chan struct{}
	if len(areaIDs) > 0 {
		gate = f.blockOn[areaIDs[len(areaIDs)-1]]
	}
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.AreaRoster, 0, len(areaIDs))
	for _, id := range areaIDs {
		if r, ok := f.byArea[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeSaver struct {
	mu       sync.Mutex
	requests []attendanceapi.BatchRequest
	ids      []string
	resp     *attendanceapi.BatchResponse
	err      error
	onSave   func()
}

func (f *fakeSaver) SaveBatch(ctx context.Context, requestID string, req attendanceapi.BatchRequest) (*attendanceapi.BatchResponse, error) {
	if f.onSave != nil {
		f.onSave()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.ids = append(f.ids, requestID)
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &attendanceapi.BatchResponse{Processed: len(req.Records), TimeElapsed: "0.10s"}, nil
}

type memSubmissions struct {
	mu   sync.Mutex
	rows []*models.Submission
}

func (m *memSubmissions) Create(s *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uint(len(m.rows) + 1)
	m.rows = append(m.rows, s)
	return nil
}

func (m *memSubmissions) GetByRequestID(requestID string) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.rows {
		if s.RequestID == requestID {
			return s, nil
		}
	}
	return nil, nil
}

func (m *memSubmissions) GetByDate(date string) ([]*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Submission
	for _, s := range m.rows {
		if s.Date == date {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSubmissions) GetRecent(limit int) ([]*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Submission
	for i := len(m.rows) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, m.rows[i])
	}
	return out, nil
}

type memSettings struct {
	stored *models.DefaultSettings
	err    error
	saves  int
}

func (m *memSettings) Get() (*models.DefaultSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.stored == nil {
		return nil, nil
	}
	s := *m.stored
	return &s, nil
}

func (m *memSettings) Save(settings *models.DefaultSettings) error {
	if m.err != nil {
		return m.err
	}
	s := *settings
	m.stored = &s
	m.saves++
	return nil
}

type memDailyTotals struct {
	rows map[string][]models.DailyTotals
}

func newMemDailyTotals() *memDailyTotals {
	return &memDailyTotals{rows: make(map[string][]models.DailyTotals)}
}

func (m *memDailyTotals) ReplaceForDate(date string, rows []models.DailyTotals) error {
	m.rows[date] = append([]models.DailyTotals(nil), rows...)
	return nil
}

func (m *memDailyTotals) GetByDate(date string) ([]models.DailyTotals, error) {
	return m.rows[date], nil
}

func (m *memDailyTotals) GetByMonth(year, month int) ([]models.DailyTotals, error) {
	prefix := fmt.Sprintf("%04d-%02d-", year, month)
	dates := make([]string, 0, len(m.rows))
	for date := range m.rows {
		if strings.HasPrefix(date, prefix) {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)

	var out []models.DailyTotals
	for _, date := range dates {
		out = append(out, m.rows[date]...)
	}
	return out, nil
}

func (m *memDailyTotals) GetByDateAndArea(date string, areaID uint) (*models.DailyTotals, error) {
	for _, r := range m.rows[date] {
		if r.AreaID == areaID {
			row := r
			return &row, nil
		}
	}
	return nil, nil
}

func roster(areaID uint, name string, employeeIDs ...uint) models.AreaRoster {
	r := models.AreaRoster{AreaID: areaID, AreaName: name}
	for _, id := range employeeIDs {
		r.Employees = append(r.Employees, models.Employee{ID: id, Name: name})
	}
	return r
}

func testDefaults() models.DefaultSettings {
	d := models.FactoryDefaults()
	d.FoodAllowance = models.FoodAllowance{
		Breakfast:      1,
		Snack1:         2,
		AfternoonSnack: 1,
		Lunch:          1,
		Transport:      2.5,
	}
	return d
}
