package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"agro-attendance/internal/models"

	"github.com/sirupsen/logrus"
)

// RegistrationSession is one operator's bulk registration: the area
// selection, the records it produced, and the submitter. It keeps a single
// current message for the operator; every outcome replaces the previous one.
type RegistrationSession struct {
	selector  *AreaSelector
	store     *RecordStore
	submitter *BatchSubmitter
	settings  *DefaultSettingsService
	reports   *ReportService

	mu         sync.Mutex
	message    string
	lastResult *SubmitResult
	logger     *logrus.Logger
}

func NewRegistrationSession(
	roster RosterProvider,
	settings *DefaultSettingsService,
	submitter *BatchSubmitter,
	reports *ReportService,
) *RegistrationSession {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	store := NewRecordStore()
	return &RegistrationSession{
		selector:  NewAreaSelector(roster, settings, store),
		store:     store,
		submitter: submitter,
		settings:  settings,
		reports:   reports,
		logger:    logger,
	}
}

func (s *RegistrationSession) Store() *RecordStore {
	return s.store
}

func (s *RegistrationSession) Selected() []uint {
	return s.selector.Selected()
}

// Roster returns the roster the working set was seeded from.
func (s *RegistrationSession) Roster() []models.AreaRoster {
	return s.selector.Roster()
}

// InFlight reports whether a submission of this session is outstanding.
func (s *RegistrationSession) InFlight() bool {
	return s.submitter.InFlight()
}

// Message returns the current operator message.
func (s *RegistrationSession) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// LastResult returns the outcome of the last successful submission.
func (s *RegistrationSession) LastResult() *SubmitResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

func (s *RegistrationSession) setMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = msg
}

// SelectArea adds an area and reloads the working set.
func (s *RegistrationSession) SelectArea(ctx context.Context, areaID uint) error {
	return s.afterLoad(s.selector.Select(ctx, areaID))
}

// DeselectArea removes an area and reloads the working set.
func (s *RegistrationSession) DeselectArea(ctx context.Context, areaID uint) error {
	return s.afterLoad(s.selector.Deselect(ctx, areaID))
}

func (s *RegistrationSession) afterLoad(err error) error {
	switch {
	case err == nil:
		s.setMessage(fmt.Sprintf("%d employees loaded from %d area(s).", s.store.Len(), len(s.selector.Selected())))
		return nil
	case errors.Is(err, ErrStaleRoster):
		// a newer selection owns the store and the message
		return nil
	default:
		s.setMessage(ErrRosterLoad.Error() + ".")
		return err
	}
}

// UpdateDefaults stores new global defaults and reseeds the working set
// from them. This is destructive: every edit made so far is discarded.
func (s *RegistrationSession) UpdateDefaults(d models.DefaultSettings) error {
	if err := s.settings.Update(d); err != nil {
		s.setMessage(userMessage(err))
		return err
	}
	n := s.Reseed()
	s.setMessage(fmt.Sprintf("Defaults saved, %d records reset.", n))
	return nil
}

// Reseed rebuilds every record of the current roster from the current
// defaults, discarding all edits.
func (s *RegistrationSession) Reseed() int {
	return s.store.Reseed(s.selector.Roster(), s.settings.Current())
}

// PendingSubmit is a save that has claimed the session's submitter and
// frozen the working set. Run sends it; Discard gives the slot back unsent.
type PendingSubmit struct {
	session *RegistrationSession
	capture Capture
	release func()
}

// BeginSubmit reserves the submitter and captures the working set as it is
// now. Edits made afterwards belong to the next submission.
func (s *RegistrationSession) BeginSubmit() (*PendingSubmit, error) {
	release, err := s.submitter.Acquire()
	if err != nil {
		s.setMessage(userMessage(err))
		return nil, err
	}
	return &PendingSubmit{
		session: s,
		capture: s.store.Capture(),
		release: release,
	}, nil
}

// Len is the number of captured records.
func (p *PendingSubmit) Len() int {
	return len(p.capture.Records)
}

func (p *PendingSubmit) Discard() {
	p.release()
}

// Run sends the captured records for date and, on success, stores the
// totals of those same records for reporting. The store is left intact
// whatever the outcome, so a failed batch can be retried as is.
func (p *PendingSubmit) Run(ctx context.Context, date time.Time, progress ProgressFunc) (*SubmitResult, error) {
	defer p.release()
	s := p.session

	result, err := s.submitter.send(ctx, date, p.capture.Records, progress)
	if err != nil {
		s.setMessage(userMessage(err))
		return nil, err
	}

	if s.reports != nil {
		if err := s.reports.RecordDay(result.Date, p.capture.Totals, p.capture.ByArea); err != nil {
			s.logger.WithError(err).WithField("date", result.Date).Warn("Failed to store daily totals")
		}
	}

	s.mu.Lock()
	s.lastResult = result
	s.message = fmt.Sprintf("%d of %d records registered for %s (%s).",
		result.Processed, result.Records, result.Date, result.TimeElapsed)
	s.mu.Unlock()

	return result, nil
}

// Submit captures the working set and sends it for date.
func (s *RegistrationSession) Submit(ctx context.Context, date time.Time, progress ProgressFunc) (*SubmitResult, error) {
	pending, err := s.BeginSubmit()
	if err != nil {
		return nil, err
	}
	return pending.Run(ctx, date, progress)
}

func userMessage(err error) string {
	var verr *ValidationError
	var submitErr *SubmitError
	switch {
	case errors.As(err, &verr):
		return fmt.Sprintf("%d field(s) need attention before saving.", len(verr.Fields))
	case errors.As(err, &submitErr):
		return submitErr.Message
	case errors.Is(err, ErrSubmitInProgress):
		return "A submission is already running."
	default:
		return err.Error()
	}
}
