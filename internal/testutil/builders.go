package testutil

import (
	"encoding/json"
	"time"

	"github.com/openutm/qualifier-host/internal/domain/model"
)

// MinimalConfigJSON is a small but structurally complete test configuration.
const MinimalConfigJSON = `{
	"locale": "en",
	"rid_version": "F3411-19",
	"injection_targets": [
		{"name": "uss1", "injection_base_url": "https://uss1.example.test/injection"}
	],
	"flight_start_delay": "5s"
}`

// TestRunBuilder builds model.TestRun values for tests with sensible defaults.
type TestRunBuilder struct {
	run model.TestRun
}

// NewTestRunBuilder creates a builder for a pending run with a minimal config.
func NewTestRunBuilder(id string) *TestRunBuilder {
	return &TestRunBuilder{
		run: model.TestRun{
			ID:         id,
			Status:     model.TestRunStatusPending,
			ConfigJSON: json.RawMessage(MinimalConfigJSON),
			AuthSpec:   "NoAuth()",
			EnqueuedAt: time.Now().UTC().Truncate(time.Second),
		},
	}
}

// WithStatus sets the run status.
func (b *TestRunBuilder) WithStatus(status model.TestRunStatus) *TestRunBuilder {
	b.run.Status = status
	return b
}

// WithConfig sets the raw configuration JSON.
func (b *TestRunBuilder) WithConfig(cfg string) *TestRunBuilder {
	b.run.ConfigJSON = json.RawMessage(cfg)
	return b
}

// WithAuthSpec sets the auth spec string.
func (b *TestRunBuilder) WithAuthSpec(spec string) *TestRunBuilder {
	b.run.AuthSpec = spec
	return b
}

// WithInputFiles sets the input file references.
func (b *TestRunBuilder) WithInputFiles(files ...string) *TestRunBuilder {
	b.run.InputFiles = files
	return b
}

// WithDebug marks the run as a debug run.
func (b *TestRunBuilder) WithDebug() *TestRunBuilder {
	b.run.Debug = true
	return b
}

// Build returns the assembled run.
func (b *TestRunBuilder) Build() *model.TestRun {
	run := b.run
	return &run
}
