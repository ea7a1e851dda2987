// Package taskrunner executes queued qualifier test runs: it adapts the
// external test executor to the queue and persists reports into the report
// store keyed by run id.
package taskrunner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openutm/qualifier-host/internal/core"
	"github.com/openutm/qualifier-host/internal/domain/model"
	"github.com/openutm/qualifier-host/internal/executor"
	"github.com/openutm/qualifier-host/internal/observability/metrics"
	"github.com/openutm/qualifier-host/internal/observability/statsd"
)

// TaskDeps groups the collaborators of a single task execution.
type TaskDeps struct {
	Store core.ReportStore
	// Archive is optional; archive failures are logged and never fail the task.
	Archive  core.ReportArchive
	Executor core.Executor
	Logger   *slog.Logger
}

// ExecuteTestRun performs one test run:
//
//  1. Parse the run's JSON configuration; a parse failure propagates.
//  2. In debug mode, substitute the fixed sample report for real execution.
//  3. Otherwise invoke the executor with the configuration, the auth spec
//     (forwarded verbatim) and the input file references; executor errors
//     propagate.
//  4. If the report is non-empty and the run id is known, serialize the report
//     and write it to the report store under the run id, no expiry. An empty
//     report or missing id completes silently with no write.
//
// The store write is the externally observable effect; repeated execution with
// the same id overwrites (last-write-wins).
func ExecuteTestRun(ctx context.Context, deps TaskDeps, run *model.TestRun) error {
	if run == nil {
		return errors.New("test run is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := model.ParseTestConfiguration(run.ConfigJSON)
	if err != nil {
		return err
	}

	var report model.Report
	if run.Debug {
		report = executor.SampleReport()
	} else {
		report, err = deps.Executor.Run(ctx, core.RunInput{
			Config:     cfg,
			AuthSpec:   run.AuthSpec,
			InputFiles: run.InputFiles,
		})
		if err != nil {
			return fmt.Errorf("execute test run: %w", err)
		}
	}

	if report.Empty() {
		logger.InfoContext(ctx, "test executor produced no report; nothing stored", "run_id", run.ID)
		return nil
	}
	if run.ID == "" {
		logger.WarnContext(ctx, "report produced but no run id resolvable; nothing stored")
		return nil
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("serialize report: %w", err)
	}
	if err := deps.Store.Save(ctx, run.ID, payload); err != nil {
		return fmt.Errorf("store report: %w", err)
	}

	archiveReport(ctx, deps, run, payload, logger)
	return nil
}

// archiveReport mirrors the stored report into the durable archive. Failures
// are logged only: the Redis write above is the contract-bearing side effect.
func archiveReport(ctx context.Context, deps TaskDeps, run *model.TestRun, payload []byte, logger *slog.Logger) {
	if deps.Archive == nil {
		return
	}
	if err := deps.Archive.Upsert(ctx, core.ArchiveReportParams{
		RunID:      run.ID,
		Report:     payload,
		Debug:      run.Debug,
		ArchivedAt: time.Now().UTC(),
	}); err != nil {
		logger.ErrorContext(ctx, "archive report failed", "run_id", run.ID, "error", err)
	}
}

// RunnerOptions configures the test run worker.
type RunnerOptions struct {
	Queue    core.JobQueue
	Store    core.ReportStore
	Archive  core.ReportArchive
	Executor core.Executor

	Logger  *slog.Logger
	Metrics statsd.Sink

	// Concurrency is the number of worker goroutines; defaults to 1.
	Concurrency int

	// ReserveTimeout bounds each blocking queue poll; defaults to 5s.
	ReserveTimeout time.Duration
}

// Runner pulls queued test runs and executes them until its context is cancelled.
type Runner struct {
	queue          core.JobQueue
	deps           TaskDeps
	logger         *slog.Logger
	metrics        statsd.Sink
	workers        int
	reserveTimeout time.Duration
}

// NewRunner validates dependencies and constructs a worker runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Queue == nil {
		return nil, errors.New("job queue is required")
	}
	if opts.Store == nil {
		return nil, errors.New("report store is required")
	}
	if opts.Executor == nil {
		return nil, errors.New("executor is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = 1
	}
	reserveTimeout := opts.ReserveTimeout
	if reserveTimeout <= 0 {
		reserveTimeout = 5 * time.Second
	}

	return &Runner{
		queue: opts.Queue,
		deps: TaskDeps{
			Store:    opts.Store,
			Archive:  opts.Archive,
			Executor: opts.Executor,
			Logger:   logger,
		},
		logger:         logger,
		metrics:        opts.Metrics,
		workers:        workers,
		reserveTimeout: reserveTimeout,
	}, nil
}

// Run starts worker goroutines and processes runs until the context is
// cancelled. The first fatal worker error cancels the rest.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting test run worker",
		"workers", r.workers, "reserve_timeout", r.reserveTimeout)

	group, gctx := errgroup.WithContext(ctx)
	for range r.workers {
		group.Go(func() error {
			return r.workerLoop(gctx)
		})
	}
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return ctx.Err()
}

func (r *Runner) workerLoop(ctx context.Context) error {
	for ctx.Err() == nil {
		run, err := r.queue.Reserve(ctx, r.reserveTimeout)
		switch {
		case err == nil:
			r.processRun(ctx, run)
		case errors.Is(err, model.ErrNoRunsAvailable):
			// idle poll; go around again
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return ctx.Err()
		default:
			return fmt.Errorf("reserve run: %w", err)
		}
	}
	return ctx.Err()
}

func (r *Runner) processRun(ctx context.Context, run *model.TestRun) {
	start := time.Now()
	emit := func(transition, result string, err error) {
		metrics.EmitRunLifecycle(r.metrics, metrics.RunMetric{
			Transition: transition,
			Result:     result,
			Debug:      run.Debug,
			Duration:   time.Since(start),
			Err:        err,
		})
	}

	if err := r.queue.MarkRunning(ctx, run.ID); err != nil {
		r.logger.ErrorContext(ctx, "mark run running failed", "run_id", run.ID, "error", err)
	}

	if err := ExecuteTestRun(ctx, r.deps, run); err != nil {
		// Failed runs are terminal; re-enqueueing is an operator decision.
		if ferr := r.queue.Fail(ctx, run.ID, err.Error()); ferr != nil {
			r.logger.ErrorContext(ctx, "fail run error", "run_id", run.ID, "error", ferr, "original_error", err)
		}
		r.logger.ErrorContext(ctx, "test run failed", "run_id", run.ID, "error", err)
		emit("failed", metrics.ResultError, err)
		return
	}

	if err := r.queue.Complete(ctx, run.ID); err != nil {
		r.logger.ErrorContext(ctx, "complete run error", "run_id", run.ID, "error", err)
		emit("completed", metrics.ResultError, err)
		return
	}
	r.logger.InfoContext(ctx, "test run completed", "run_id", run.ID, "debug", run.Debug)
	emit("completed", metrics.ResultSuccess, nil)
}
