// Package service contains the business logic of the qualifier host.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openutm/qualifier-host/internal/core"
	"github.com/openutm/qualifier-host/internal/data"
	"github.com/openutm/qualifier-host/internal/domain/model"
	apperrors "github.com/openutm/qualifier-host/internal/errors"
)

// ErrTestRunNotFound is the uniform lookup outcome for unknown run ids and
// unreachable queue stores alike.
var ErrTestRunNotFound = apperrors.NotFound("test run not found")

// TestRunServiceOptions groups dependencies for TestRunService.
type TestRunServiceOptions struct {
	Queue core.JobQueue
	Store core.ReportStore
	// Archive is optional; when present, report reads fall back to it after
	// the Redis store misses.
	Archive core.ReportArchive
}

// TestRunService coordinates test run enqueueing, lookup, and report access.
type TestRunService struct {
	queue   core.JobQueue
	store   core.ReportStore
	archive core.ReportArchive
}

// NewTestRunService constructs a TestRunService.
func NewTestRunService(opts TestRunServiceOptions) (*TestRunService, error) {
	if opts.Queue == nil {
		return nil, errors.New("job queue is required")
	}
	if opts.Store == nil {
		return nil, errors.New("report store is required")
	}
	return &TestRunService{queue: opts.Queue, store: opts.Store, archive: opts.Archive}, nil
}

// Create validates the request and enqueues a new test run, returning the
// queued record.
func (s *TestRunService) Create(ctx context.Context, req *model.CreateTestRunRequest) (*model.TestRun, error) {
	if req == nil {
		return nil, apperrors.Validation("request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid test run request")
	}

	run := &model.TestRun{
		ID:         uuid.New().String(),
		Status:     model.TestRunStatusPending,
		ConfigJSON: req.ConfigJSON,
		AuthSpec:   req.AuthSpec,
		InputFiles: req.InputFiles,
		Debug:      req.Debug,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := s.queue.Enqueue(ctx, run); err != nil {
		return nil, fmt.Errorf("enqueue test run: %w", err)
	}
	return run, nil
}

// Get fetches a test run by id. Unknown ids and queue-store connectivity
// errors both surface as ErrTestRunNotFound; callers cannot tell "never
// existed" from "store unreachable".
func (s *TestRunService) Get(ctx context.Context, id string) (*model.TestRun, error) {
	if id == "" {
		return nil, ErrTestRunNotFound
	}
	run, err := s.queue.Fetch(ctx, id)
	if err != nil {
		return nil, ErrTestRunNotFound
	}
	return run, nil
}

// GetReport returns the stored report bytes for a run id. The Redis sink is
// authoritative; the archive serves as a fallback for evicted reports.
func (s *TestRunService) GetReport(ctx context.Context, id string) ([]byte, error) {
	if id == "" {
		return nil, ErrTestRunNotFound
	}

	report, err := s.store.Get(ctx, id)
	if err == nil {
		return report, nil
	}
	if !errors.Is(err, data.ErrReportNotFound) {
		return nil, fmt.Errorf("read report: %w", err)
	}

	if s.archive != nil {
		archived, archiveErr := s.archive.Get(ctx, id)
		if archiveErr == nil {
			return archived.Report, nil
		}
		if !errors.Is(archiveErr, data.ErrReportNotFound) && !errors.Is(archiveErr, data.ErrArchiveNotConfigured) {
			return nil, fmt.Errorf("read archived report: %w", archiveErr)
		}
	}

	return nil, apperrors.NotFoundf("no report stored for run %s", id)
}

// Summary extracts display-oriented counts from the stored report.
func (s *TestRunService) Summary(ctx context.Context, id string) (*ReportSummary, error) {
	report, err := s.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	return SummarizeReport(report)
}
