// Package model defines the core data types used throughout the qualifier host.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TestRunStatus represents the current status of a test run job.
type TestRunStatus string

const (
	// TestRunStatusPending indicates a run is queued and waiting for a worker.
	TestRunStatusPending TestRunStatus = "pending"
	// TestRunStatusRunning indicates a run is currently executing on a worker.
	TestRunStatusRunning TestRunStatus = "running"
	// TestRunStatusCompleted indicates a run finished successfully.
	TestRunStatusCompleted TestRunStatus = "completed"
	// TestRunStatusFailed indicates a run failed to complete.
	TestRunStatusFailed TestRunStatus = "failed"
)

// Valid returns true if the TestRunStatus is valid.
func (s TestRunStatus) Valid() bool {
	return s == TestRunStatusPending || s == TestRunStatusRunning ||
		s == TestRunStatusCompleted || s == TestRunStatusFailed
}

// UnmarshalText implements encoding.TextUnmarshaler for TestRunStatus.
func (s *TestRunStatus) UnmarshalText(text []byte) error {
	v := TestRunStatus(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid TestRunStatus: %q", string(text))
	}
	*s = v
	return nil
}

// ErrNoRunsAvailable is returned when the queue has no pending runs to reserve.
var ErrNoRunsAvailable = errors.New("no test runs available")

// TestRun represents a queued qualifier test run and its queue-owned lifecycle state.
type TestRun struct {
	ID         string          `json:"id"                    redis:"id"`
	Status     TestRunStatus   `json:"status"                redis:"status"`
	ConfigJSON json.RawMessage `json:"config"                redis:"config"`
	AuthSpec   string          `json:"auth_spec,omitempty"   redis:"auth_spec"`
	InputFiles []string        `json:"input_files,omitempty" redis:"-"`
	Debug      bool            `json:"debug"                 redis:"debug"`
	EnqueuedAt time.Time       `json:"enqueued_at"           redis:"enqueued_at"`
	StartedAt  *time.Time      `json:"started_at,omitempty"  redis:"started_at"`
	EndedAt    *time.Time      `json:"ended_at,omitempty"    redis:"ended_at"`
	LastError  *string         `json:"last_error,omitempty"  redis:"last_error"`
}

// CreateTestRunRequest represents a request to enqueue a new test run.
type CreateTestRunRequest struct {
	ConfigJSON json.RawMessage `json:"config"`
	AuthSpec   string          `json:"auth_spec,omitempty"`
	InputFiles []string        `json:"input_files,omitempty"`
	Debug      bool            `json:"debug,omitempty"`
}

// Validate validates the CreateTestRunRequest fields.
// The configuration is opaque to the queue but must at least be well-formed JSON;
// schema validation belongs to the executor.
func (r *CreateTestRunRequest) Validate() error {
	if len(r.ConfigJSON) == 0 {
		return errors.New("config is required")
	}
	if !json.Valid(r.ConfigJSON) {
		return errors.New("config must be valid JSON")
	}
	for _, f := range r.InputFiles {
		if strings.TrimSpace(f) == "" {
			return errors.New("input file references must be non-empty")
		}
	}
	return nil
}

// TestRunStatusResponse represents the status information for a specific test run.
type TestRunStatusResponse struct {
	ID        string        `json:"id"`
	Status    TestRunStatus `json:"status"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
	LastError *string       `json:"last_error,omitempty"`
}
