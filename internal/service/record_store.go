package service

import (
	"strings"
	"sync"

	"agro-attendance/internal/models"

	"github.com/sirupsen/logrus"
)

// AreaTotals is the aggregation restricted to the employees of one area.
type AreaTotals struct {
	AreaID   uint
	AreaName string
	Totals   models.Totals
}

// RecordStore owns the attendance records of the current working set, one
// per employee, kept in roster order.
type RecordStore struct {
	mu        sync.RWMutex
	records   map[uint]*models.AttendanceRecord
	order     []uint
	areaOf    map[uint]uint
	areaNames map[uint]string
	areaOrder []uint
	logger    *logrus.Logger
}

func NewRecordStore() *RecordStore {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &RecordStore{
		records:   make(map[uint]*models.AttendanceRecord),
		areaOf:    make(map[uint]uint),
		areaNames: make(map[uint]string),
		logger:    logger,
	}
}

// Reseed discards every record, including unsaved edits, and builds one
// fresh record per rostered employee from defaults. Only the global defaults
// are used; area and employee defaults are ignored. An employee listed under
// two areas keeps a single record attributed to the later area.
func (s *RecordStore) Reseed(rosters []models.AreaRoster, defaults models.DefaultSettings) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	for _, roster := range rosters {
		if _, seen := s.areaNames[roster.AreaID]; !seen {
			s.areaOrder = append(s.areaOrder, roster.AreaID)
		}
		s.areaNames[roster.AreaID] = roster.AreaName

		for _, emp := range roster.Employees {
			if _, exists := s.records[emp.ID]; !exists {
				s.order = append(s.order, emp.ID)
			}
			record := defaults.NewRecord(emp.ID)
			s.records[emp.ID] = &record
			s.areaOf[emp.ID] = roster.AreaID
		}
	}

	s.logger.WithFields(logrus.Fields{
		"areas":   len(s.areaOrder),
		"records": len(s.order),
	}).Info("Attendance records seeded")

	return len(s.order)
}

// Clear drops the whole working set.
func (s *RecordStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *RecordStore) resetLocked() {
	s.records = make(map[uint]*models.AttendanceRecord)
	s.order = nil
	s.areaOf = make(map[uint]uint)
	s.areaNames = make(map[uint]string)
	s.areaOrder = nil
}

func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Get returns a copy of the employee's record.
func (s *RecordStore) Get(employeeID uint) (models.AttendanceRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[employeeID]
	if !ok {
		return models.AttendanceRecord{}, false
	}
	return *record, true
}

// EmployeeIDs returns the employees of the working set in roster order.
func (s *RecordStore) EmployeeIDs() []uint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]uint(nil), s.order...)
}

// AreaEmployeeIDs returns the employees seeded from the given area.
func (s *RecordStore) AreaEmployeeIDs(areaID uint) []uint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []uint
	for _, id := range s.order {
		if s.areaOf[id] == areaID {
			ids = append(ids, id)
		}
	}
	return ids
}

// UpdateField replaces one top-level field of an existing record. Unknown
// employees, unknown fields and mistyped values are ignored.
func (s *RecordStore) UpdateField(employeeID uint, field string, value any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateFieldLocked(employeeID, field, value)
}

// UpdateFoodAllowance stores a food allowance value, clamped into range.
func (s *RecordStore) UpdateFoodAllowance(employeeID uint, field string, value float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateFoodLocked(employeeID, field, value)
}

// ApplyBulk writes one value to every named record, going through the same
// rules as the single-record mutators. Food allowance sub-fields are
// addressed as "foodAllowance.<field>". It returns the number of records
// that were changed.
func (s *RecordStore) ApplyBulk(employeeIDs []uint, field string, value any) int {
	if len(employeeIDs) == 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	if food, ok := strings.CutPrefix(field, models.FoodFieldPrefix); ok {
		v, ok := models.ToFloat(value)
		if !ok {
			return 0
		}
		for _, id := range employeeIDs {
			if s.updateFoodLocked(id, food, v) {
				updated++
			}
		}
	} else {
		for _, id := range employeeIDs {
			if s.updateFieldLocked(id, field, value) {
				updated++
			}
		}
	}

	s.logger.WithFields(logrus.Fields{
		"field":     field,
		"requested": len(employeeIDs),
		"updated":   updated,
	}).Debug("Bulk update applied")

	return updated
}

func (s *RecordStore) updateFieldLocked(employeeID uint, field string, value any) bool {
	record, ok := s.records[employeeID]
	if !ok {
		return false
	}
	return record.SetField(field, value)
}

func (s *RecordStore) updateFoodLocked(employeeID uint, field string, value float64) bool {
	record, ok := s.records[employeeID]
	if !ok {
		return false
	}
	return record.FoodAllowance.Set(field, value)
}

// Totals reduces every current record. Nothing is cached.
func (s *RecordStore) Totals() models.Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalsLocked()
}

func (s *RecordStore) totalsLocked() models.Totals {
	var totals models.Totals
	for _, id := range s.order {
		totals.Add(s.records[id])
	}
	return totals
}

// TotalsByArea aggregates per contributing area, in roster order.
func (s *RecordStore) TotalsByArea() []AreaTotals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalsByAreaLocked()
}

func (s *RecordStore) totalsByAreaLocked() []AreaTotals {
	byArea := make(map[uint]*models.Totals, len(s.areaOrder))
	for _, areaID := range s.areaOrder {
		byArea[areaID] = &models.Totals{}
	}
	for _, id := range s.order {
		byArea[s.areaOf[id]].Add(s.records[id])
	}

	out := make([]AreaTotals, 0, len(s.areaOrder))
	for _, areaID := range s.areaOrder {
		out = append(out, AreaTotals{
			AreaID:   areaID,
			AreaName: s.areaNames[areaID],
			Totals:   *byArea[areaID],
		})
	}
	return out
}

// Snapshot copies every record in insertion order.
func (s *RecordStore) Snapshot() []models.AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *RecordStore) snapshotLocked() []models.AttendanceRecord {
	out := make([]models.AttendanceRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.records[id])
	}
	return out
}

// Capture is the working set frozen at one instant: the records and the
// totals computed from exactly those records.
type Capture struct {
	Records []models.AttendanceRecord
	Totals  models.Totals
	ByArea  []AreaTotals
}

// Capture copies the records and their totals under a single lock. Later
// edits do not affect the returned value.
func (s *RecordStore) Capture() Capture {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Capture{
		Records: s.snapshotLocked(),
		Totals:  s.totalsLocked(),
		ByArea:  s.totalsByAreaLocked(),
	}
}
