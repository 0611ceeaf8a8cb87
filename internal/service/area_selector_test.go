package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"agro-attendance/internal/models"
)

func newTestSelector(provider *fakeRoster) (*AreaSelector, *RecordStore) {
	store := NewRecordStore()
	return NewAreaSelector(provider, &staticDefaults{settings: testDefaults()}, store), store
}

func TestSelectLoadsRosterForWholeSelection(t *testing.T) {
	provider := newFakeRoster(roster(1, "Packing", 10, 11), roster(2, "Harvest", 20))
	selector, store := newTestSelector(provider)
	ctx := context.Background()

	if err := selector.Select(ctx, 1); err != nil {
		t.Fatalf("select 1: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", store.Len())
	}

	if err := selector.Select(ctx, 2); err != nil {
		t.Fatalf("select 2: %v", err)
	}
	if store.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", store.Len())
	}

	last := provider.calls[len(provider.calls)-1]
	if len(last) != 2 || last[0] != 1 || last[1] != 2 {
		t.Fatalf("expected a full reload for [1 2], got %v", last)
	}
}

func TestSelectIsIdempotent(t *testing.T) {
	provider := newFakeRoster(roster(1, "Packing", 10))
	selector, _ := newTestSelector(provider)
	ctx := context.Background()

	_ = selector.Select(ctx, 1)
	_ = selector.Select(ctx, 1)

	if len(provider.calls) != 1 {
		t.Fatalf("expected a single fetch, got %d", len(provider.calls))
	}
	if got := selector.Selected(); len(got) != 1 {
		t.Fatalf("expected one selected area, got %v", got)
	}
	if err := selector.Deselect(ctx, 7); err != nil || len(provider.calls) != 1 {
		t.Fatalf("deselecting an unselected area must do nothing")
	}
}

func TestDeselectPrunesAndEmptyClears(t *testing.T) {
	provider := newFakeRoster(roster(1, "Packing", 10, 11), roster(2, "Harvest", 20))
	selector, store := newTestSelector(provider)
	ctx := context.Background()

	_ = selector.Select(ctx, 1)
	_ = selector.Select(ctx, 2)

	if err := selector.Deselect(ctx, 1); err != nil {
		t.Fatalf("deselect: %v", err)
	}
	if ids := store.EmployeeIDs(); len(ids) != 1 || ids[0] != 20 {
		t.Fatalf("expected only harvest employees, got %v", ids)
	}

	calls := len(provider.calls)
	if err := selector.Deselect(ctx, 2); err != nil {
		t.Fatalf("deselect last: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d records", store.Len())
	}
	if len(provider.calls) != calls {
		t.Fatalf("clearing the selection must not fetch")
	}
}

func TestRosterFailureClearsStore(t *testing.T) {
	provider := newFakeRoster(roster(1, "Packing", 10), roster(2, "Harvest", 20))
	selector, store := newTestSelector(provider)
	ctx := context.Background()

	_ = selector.Select(ctx, 1)

	provider.err = errors.New("connection refused")
	err := selector.Select(ctx, 2)
	if !errors.Is(err, ErrRosterLoad) {
		t.Fatalf("expected ErrRosterLoad, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected no partial roster, got %d records", store.Len())
	}
	if got := selector.Selected(); len(got) != 2 {
		t.Fatalf("expected selection change to be kept, got %v", got)
	}
}

func TestRosterIsFilteredToSelection(t *testing.T) {
	provider := &extraAreaRoster{fakeRoster: newFakeRoster(roster(1, "Packing", 10))}
	store := NewRecordStore()
	selector := NewAreaSelector(provider, &staticDefaults{settings: testDefaults()}, store)

	if err := selector.Select(context.Background(), 1); err != nil {
		t.Fatalf("select: %v", err)
	}
	if ids := store.EmployeeIDs(); len(ids) != 1 || ids[0] != 10 {
		t.Fatalf("expected only employees of the selected area, got %v", ids)
	}
}

type extraAreaRoster struct {
	*fakeRoster
}

func (e *extraAreaRoster) GetEmployeesByAreas(ctx context.Context, areaIDs []uint) ([]models.AreaRoster, error) {
	out, err := e.fakeRoster.GetEmployeesByAreas(ctx, areaIDs)
	return append(out, roster(99, "Unrequested", 990)), err
}

func TestStaleRosterIsDiscarded(t *testing.T) {
	provider := newFakeRoster(roster(1, "Packing", 10), roster(2, "Harvest", 20))
	gate := make(chan struct{})
	provider.blockOn[1] = gate

	selector, store := newTestSelector(provider)
	ctx := context.Background()

	slow := make(chan error, 1)
	go func() { slow <- selector.Select(ctx, 1) }()

	// wait for the first fetch to be issued before superseding it
	deadline := time.Now().Add(2 * time.Second)
	for {
		provider.mu.Lock()
		issued := len(provider.calls)
		provider.mu.Unlock()
		if issued == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("first fetch was never issued")
		}
		time.Sleep(time.Millisecond)
	}

	if err := selector.Select(ctx, 2); err != nil {
		t.Fatalf("select 2: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("expected roster of [1 2], got %d records", store.Len())
	}

	close(gate)
	if err := <-slow; !errors.Is(err, ErrStaleRoster) {
		t.Fatalf("expected ErrStaleRoster from the superseded fetch, got %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("stale roster overwrote the store: %d records", store.Len())
	}
}

func TestReloadReseedsFromCurrentDefaults(t *testing.T) {
	provider := newFakeRoster(roster(1, "Packing", 10))
	defaults := &staticDefaults{settings: testDefaults()}
	store := NewRecordStore()
	selector := NewAreaSelector(provider, defaults, store)
	ctx := context.Background()

	_ = selector.Select(ctx, 1)
	defaults.settings.EntryTime = "05:45"

	if err := selector.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if r, _ := store.Get(10); r.EntryTime != "05:45" {
		t.Fatalf("expected reseed from new defaults, got %s", r.EntryTime)
	}
	if len(selector.Roster()) != 1 {
		t.Fatalf("expected applied roster to be kept")
	}
}
