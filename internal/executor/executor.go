// Package executor provides clients for the external test-execution routine.
// The execution algorithm itself lives outside this host; the executors here
// only deliver configurations to it and collect the resulting report.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openutm/qualifier-host/internal/authspec"
	"github.com/openutm/qualifier-host/internal/core"
	"github.com/openutm/qualifier-host/internal/domain/model"
)

const maxReportBytes = 32 << 20 // refuse reports over 32MB

// HTTPExecutorOptions configures an HTTPExecutor.
type HTTPExecutorOptions struct {
	// RunnerURL is the base URL of the remote qualifier runner.
	RunnerURL string

	// Timeout bounds a whole run round trip; defaults to 15 minutes. The
	// remote runner performs the actual test flights, so runs are long.
	Timeout time.Duration

	// HTTPClient overrides the auth-spec-derived client (tests/decoupling).
	HTTPClient *http.Client

	Logger *slog.Logger
}

// HTTPExecutor delegates test execution to a remote qualifier runner over
// HTTP, authenticating with the run's auth spec.
type HTTPExecutor struct {
	runnerURL string
	timeout   time.Duration
	client    *http.Client
	logger    *slog.Logger
}

var _ core.Executor = (*HTTPExecutor)(nil)

// NewHTTPExecutor creates an executor targeting the given runner.
func NewHTTPExecutor(opts HTTPExecutorOptions) (*HTTPExecutor, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.RunnerURL), "/")
	if base == "" {
		return nil, errors.New("runner URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse runner URL: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPExecutor{
		runnerURL: base,
		timeout:   timeout,
		client:    opts.HTTPClient,
		logger:    logger,
	}, nil
}

// runRequest is the wire payload delivered to the remote runner.
type runRequest struct {
	Configuration json.RawMessage `json:"configuration"`
	InputFiles    []string        `json:"input_files,omitempty"`
}

// Run delivers one test configuration to the remote runner and returns its
// report. An empty response body means "no report produced".
func (e *HTTPExecutor) Run(ctx context.Context, input core.RunInput) (model.Report, error) {
	if input.Config == nil {
		return nil, errors.New("test configuration is required")
	}

	client, err := e.resolveClient(ctx, input.AuthSpec)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(runRequest{
		Configuration: input.Config.Raw,
		InputFiles:    input.InputFiles,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal run request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.runnerURL+"/runs", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	e.logger.InfoContext(ctx, "dispatching test run to remote runner",
		"runner_url", e.runnerURL,
		"auth", authspec.Describe(input.AuthSpec),
		"input_files", len(input.InputFiles))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute test run: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	return decodeRunResponse(resp)
}

func (e *HTTPExecutor) resolveClient(ctx context.Context, spec string) (*http.Client, error) {
	if e.client != nil {
		return e.client, nil
	}
	provider, err := authspec.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("resolve auth spec: %w", err)
	}
	return provider.HTTPClient(ctx), nil
}

func decodeRunResponse(resp *http.Response) (model.Report, error) {
	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxReportBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read runner response: %w", err)
	}
	if len(payload) > maxReportBytes {
		return nil, errors.New("runner response exceeds report size limit")
	}

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("runner returned status %d: %s", resp.StatusCode, truncateForError(payload))
	}

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if !json.Valid(trimmed) {
		return nil, errors.New("runner returned a non-JSON report")
	}
	return model.Report(trimmed), nil
}

func truncateForError(payload []byte) string {
	const max = 256
	s := strings.TrimSpace(string(payload))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
