// Package core defines the ports between the qualifier host's services and its
// external collaborators: the job queue, the report stores, and the test executor.
package core

import (
	"context"
	"time"

	"github.com/openutm/qualifier-host/internal/domain/model"
)

// JobQueue is the port to the queue service that owns test run scheduling and
// lifecycle bookkeeping.
type JobQueue interface {
	// Enqueue registers the run's metadata and pushes its id onto the pending
	// queue. The id must already be set by the caller.
	Enqueue(ctx context.Context, run *model.TestRun) error

	// Reserve blocks up to timeout for the next pending run id and returns the
	// run record. Returns model.ErrNoRunsAvailable when the wait times out.
	Reserve(ctx context.Context, timeout time.Duration) (*model.TestRun, error)

	// Fetch returns the run record for an id. Unknown ids and queue-store
	// connectivity errors both surface as the same not-found outcome; callers
	// cannot distinguish the two.
	Fetch(ctx context.Context, id string) (*model.TestRun, error)

	// MarkRunning transitions a run to the running state.
	MarkRunning(ctx context.Context, id string) error

	// Complete transitions a run to the completed state.
	Complete(ctx context.Context, id string) error

	// Fail transitions a run to the failed state, recording the error message.
	Fail(ctx context.Context, id string, msg string) error

	// Health pings the backing store.
	Health(ctx context.Context) error
}

// ReportStore is the port to the key-value store used as the report sink.
// Keys are test run ids; values are serialized reports.
type ReportStore interface {
	// Save writes the serialized report under the run id with no expiry.
	Save(ctx context.Context, runID string, report []byte) error

	// Get returns the stored report bytes; absence is an error the data layer
	// exposes as a sentinel.
	Get(ctx context.Context, runID string) ([]byte, error)

	// Exists reports whether a report is stored for the run id.
	Exists(ctx context.Context, runID string) (bool, error)

	// Health pings the backing store.
	Health(ctx context.Context) error
}

// ReportArchive is the port to the durable report archive. Archive writes are
// best-effort: failures are logged by callers and never fail a test run.
type ReportArchive interface {
	// Upsert stores or replaces the archived report for a run (last-write-wins).
	Upsert(ctx context.Context, params ArchiveReportParams) error

	// Get returns the archived report for a run id.
	Get(ctx context.Context, runID string) (*ArchivedReport, error)

	// Prune deletes archived reports older than the cutoff, up to limit rows,
	// returning the number deleted.
	Prune(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

// ArchiveReportParams groups parameters for ReportArchive.Upsert.
type ArchiveReportParams struct {
	RunID      string
	Report     []byte
	Debug      bool
	ArchivedAt time.Time
}

// ArchivedReport is a row from the report archive.
type ArchivedReport struct {
	RunID      string
	Report     []byte
	Debug      bool
	ArchivedAt time.Time
}

// RunInput carries the inputs of one test execution. AuthSpec and InputFiles
// are forwarded verbatim from the enqueued run.
type RunInput struct {
	Config     *model.TestConfiguration
	AuthSpec   string
	InputFiles []string
}

// Executor is the port to the external test-execution routine. The execution
// algorithm itself is out of scope for this host.
type Executor interface {
	// Run performs one test execution and returns the resulting report. An
	// empty report means "no report produced" and is not an error.
	Run(ctx context.Context, input RunInput) (model.Report, error)
}
