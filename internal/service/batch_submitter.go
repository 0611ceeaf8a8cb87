package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"agro-attendance/internal/models"
	"agro-attendance/internal/repository"
	"agro-attendance/pkg/attendanceapi"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// FallbackSubmitMessage is shown when the API gives no usable explanation.
const FallbackSubmitMessage = "The attendance could not be saved. Please try again."

var ErrSubmitInProgress = errors.New("a submission is already in progress")

type BatchSaver interface {
	SaveBatch(ctx context.Context, requestID string, req attendanceapi.BatchRequest) (*attendanceapi.BatchResponse, error)
}

type Stage string

const (
	StageValidating Stage = "validating"
	StagePreparing  Stage = "preparing"
	StageSending    Stage = "sending"
	StagePersisting Stage = "persisting"
	StageFinalizing Stage = "finalizing"
)

var stagePercent = map[Stage]int{
	StageValidating: 10,
	StagePreparing:  30,
	StageSending:    50,
	StagePersisting: 80,
	StageFinalizing: 100,
}

// Progress is an informational milestone of a submission.
type Progress struct {
	Stage   Stage
	Percent int
}

type ProgressFunc func(Progress)

type SubmitResult struct {
	RequestID   string
	Date        string
	Records     int
	Processed   int
	TimeElapsed string
}

// SubmitError is a failed save, with the message the operator should see.
type SubmitError struct {
	Message string
	Status  int
	Err     error
}

func (e *SubmitError) Error() string {
	return e.Message
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// BatchSubmitter sends the whole working set of a day as one request. It
// never retries, splits or resumes a batch; the server decides atomicity.
type BatchSubmitter struct {
	saver         BatchSaver
	journal       repository.SubmissionRepository
	requireReason bool
	inFlight      atomic.Bool
	newRequestID  func() string
	logger        *logrus.Logger
}

func NewBatchSubmitter(saver BatchSaver, journal repository.SubmissionRepository, requireReason bool) *BatchSubmitter {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &BatchSubmitter{
		saver:         saver,
		journal:       journal,
		requireReason: requireReason,
		newRequestID:  uuid.NewString,
		logger:        logger,
	}
}

// InFlight reports whether a submission is outstanding.
func (b *BatchSubmitter) InFlight() bool {
	return b.inFlight.Load()
}

// Acquire marks a submission as in flight until release is called. Extra
// calls to release are ignored.
func (b *BatchSubmitter) Acquire() (release func(), err error) {
	if !b.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmitInProgress
	}
	var once sync.Once
	return func() { once.Do(func() { b.inFlight.Store(false) }) }, nil
}

// Submit validates and posts records for date. Progress milestones are
// reported in increasing order and 100% is only reached on success.
func (b *BatchSubmitter) Submit(ctx context.Context, date time.Time, records []models.AttendanceRecord, progress ProgressFunc) (*SubmitResult, error) {
	release, err := b.Acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	return b.send(ctx, date, records, progress)
}

// send runs one submission; the caller holds the in-flight slot.
func (b *BatchSubmitter) send(ctx context.Context, date time.Time, records []models.AttendanceRecord, progress ProgressFunc) (*SubmitResult, error) {
	report := func(stage Stage) {
		if progress != nil {
			progress(Progress{Stage: stage, Percent: stagePercent[stage]})
		}
	}

	day := date.Format(models.DateLayout)
	logger := b.logger.WithFields(logrus.Fields{
		"date":    day,
		"records": len(records),
	})

	report(StageValidating)
	if err := ValidateRecords(records, b.requireReason); err != nil {
		logger.WithError(err).Warn("Batch rejected by validation")
		return nil, err
	}

	report(StagePreparing)
	req := attendanceapi.BatchRequest{
		Date:    day,
		Records: append([]models.AttendanceRecord(nil), records...),
	}
	requestID := b.newRequestID()
	logger = logger.WithField("request_id", requestID)

	report(StageSending)
	started := time.Now()
	resp, err := b.saver.SaveBatch(ctx, requestID, req)
	if err != nil {
		submitErr := newSubmitError(err)
		logger.WithError(err).Error("Batch save failed")
		b.record(&models.Submission{
			RequestID:   requestID,
			Date:        day,
			RecordCount: len(records),
			Status:      models.SubmissionFailed,
			Error:       submitErr.Message,
		})
		return nil, submitErr
	}

	report(StagePersisting)
	b.record(&models.Submission{
		RequestID:   requestID,
		Date:        day,
		RecordCount: len(records),
		Processed:   resp.Processed,
		TimeElapsed: resp.TimeElapsed,
		Status:      models.SubmissionSucceeded,
	})

	report(StageFinalizing)
	logger.WithFields(logrus.Fields{
		"processed":    resp.Processed,
		"time_elapsed": resp.TimeElapsed,
		"round_trip":   time.Since(started).String(),
	}).Info("Batch saved")

	return &SubmitResult{
		RequestID:   requestID,
		Date:        day,
		Records:     len(records),
		Processed:   resp.Processed,
		TimeElapsed: resp.TimeElapsed,
	}, nil
}

// record writes the journal entry. The remote save is the source of truth,
// so a journal failure is only logged.
func (b *BatchSubmitter) record(s *models.Submission) {
	if b.journal == nil {
		return
	}
	if err := b.journal.Create(s); err != nil {
		b.logger.WithError(err).WithField("request_id", s.RequestID).Warn("Failed to journal submission")
	}
}

func newSubmitError(err error) *SubmitError {
	submitErr := &SubmitError{Message: FallbackSubmitMessage, Err: err}

	var apiErr *attendanceapi.APIError
	if errors.As(err, &apiErr) {
		submitErr.Status = apiErr.Status
		if apiErr.Message != "" {
			submitErr.Message = fmt.Sprintf("The attendance could not be saved: %s", apiErr.Message)
		}
	}

	return submitErr
}
