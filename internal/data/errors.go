package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrJobNotFound is the uniform outcome for job lookups that cannot be
	// served: the id is unknown, or the queue store was unreachable. The two
	// causes are intentionally not distinguishable by callers.
	ErrJobNotFound = errors.New("job not found")

	// ErrReportNotFound is returned when no report is stored for a run id.
	ErrReportNotFound = errors.New("report not found")

	// ErrRunIDRequired is returned when a run id argument is empty.
	ErrRunIDRequired = errors.New("run id is required")

	// ErrArchiveNotConfigured is returned when the report archive is used
	// without a database connection.
	ErrArchiveNotConfigured = errors.New("report archive not configured")
)
