package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"agro-attendance/internal/models"

	"github.com/sirupsen/logrus"
)

var (
	ErrRosterLoad  = errors.New("could not load the employees of the selected areas")
	ErrStaleRoster = errors.New("roster superseded by a newer selection")
)

type RosterProvider interface {
	GetEmployeesByAreas(ctx context.Context, areaIDs []uint) ([]models.AreaRoster, error)
}

type DefaultsSource interface {
	Current() models.DefaultSettings
}

// AreaSelector keeps the ordered set of selected areas and keeps the record
// store in sync with it: every change reloads the full roster for the new
// set and reseeds. Each load carries a generation number and only the latest
// one may touch the store.
type AreaSelector struct {
	mu         sync.Mutex
	selected   []uint
	generation uint64
	roster     []models.AreaRoster

	provider RosterProvider
	defaults DefaultsSource
	store    *RecordStore
	logger   *logrus.Logger
}

func NewAreaSelector(provider RosterProvider, defaults DefaultsSource, store *RecordStore) *AreaSelector {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &AreaSelector{
		provider: provider,
		defaults: defaults,
		store:    store,
		logger:   logger,
	}
}

// Select adds an area. Selecting an already selected area does nothing.
func (a *AreaSelector) Select(ctx context.Context, areaID uint) error {
	a.mu.Lock()
	if slices.Contains(a.selected, areaID) {
		a.mu.Unlock()
		return nil
	}
	a.selected = append(a.selected, areaID)
	ids, gen := a.beginLocked()
	a.mu.Unlock()

	a.logger.WithFields(logrus.Fields{
		"area_id":    areaID,
		"selected":   ids,
		"generation": gen,
	}).Info("Area selected")

	return a.load(ctx, ids, gen)
}

// Deselect removes an area. Removing an area that is not selected does
// nothing; removing the last one clears the store without a fetch.
func (a *AreaSelector) Deselect(ctx context.Context, areaID uint) error {
	a.mu.Lock()
	idx := slices.Index(a.selected, areaID)
	if idx < 0 {
		a.mu.Unlock()
		return nil
	}
	a.selected = slices.Delete(a.selected, idx, idx+1)
	ids, gen := a.beginLocked()
	a.mu.Unlock()

	a.logger.WithFields(logrus.Fields{
		"area_id":    areaID,
		"selected":   ids,
		"generation": gen,
	}).Info("Area deselected")

	return a.load(ctx, ids, gen)
}

// Reload fetches the roster of the current selection again.
func (a *AreaSelector) Reload(ctx context.Context) error {
	a.mu.Lock()
	ids, gen := a.beginLocked()
	a.mu.Unlock()

	return a.load(ctx, ids, gen)
}

// Selected returns the selected area ids in selection order.
func (a *AreaSelector) Selected() []uint {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.selected)
}

// Roster returns the roster last applied to the store.
func (a *AreaSelector) Roster() []models.AreaRoster {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.roster)
}

func (a *AreaSelector) beginLocked() ([]uint, uint64) {
	a.generation++
	return slices.Clone(a.selected), a.generation
}

func (a *AreaSelector) load(ctx context.Context, ids []uint, gen uint64) error {
	if len(ids) == 0 {
		a.mu.Lock()
		defer a.mu.Unlock()
		if gen != a.generation {
			return ErrStaleRoster
		}
		a.roster = nil
		a.store.Clear()
		a.logger.Info("No areas selected, working set cleared")
		return nil
	}

	rosters, err := a.provider.GetEmployeesByAreas(ctx, ids)

	a.mu.Lock()
	defer a.mu.Unlock()

	if gen != a.generation {
		a.logger.WithFields(logrus.Fields{
			"generation": gen,
			"latest":     a.generation,
		}).Warn("Discarding stale roster")
		return ErrStaleRoster
	}

	if err != nil {
		a.roster = nil
		a.store.Clear()
		a.logger.WithError(err).WithField("selected", ids).Error("Failed to load roster")
		return fmt.Errorf("%w: %w", ErrRosterLoad, err)
	}

	a.roster = filterRosters(rosters, ids)
	count := a.store.Reseed(a.roster, a.defaults.Current())

	a.logger.WithFields(logrus.Fields{
		"selected":   ids,
		"generation": gen,
		"employees":  count,
	}).Info("Roster applied")

	return nil
}

// filterRosters keeps only the requested areas so the working set never
// holds employees of an unselected area.
func filterRosters(rosters []models.AreaRoster, ids []uint) []models.AreaRoster {
	out := make([]models.AreaRoster, 0, len(rosters))
	for _, r := range rosters {
		if slices.Contains(ids, r.AreaID) {
			out = append(out, r)
		}
	}
	return out
}
