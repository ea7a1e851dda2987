package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeWorker runs the test run worker.
	ServiceModeWorker ServiceMode = "worker"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeWorker,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeWorker:
			services[mode] = true
		default:
			return nil, fmt.Errorf("invalid service name: %q (valid options: http, worker)", serviceName)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// WorkerConfig contains test run worker configuration.
type WorkerConfig struct {
	// Concurrency is the number of worker goroutines.
	Concurrency int `env:"WORKER_CONCURRENCY" envDefault:"2"`

	// Queue is the name of the queue to reserve test runs from.
	Queue string `env:"WORKER_QUEUE" envDefault:"qualifier"`

	// ReserveTimeout is how long a single blocking reserve waits before
	// the worker loop re-checks for shutdown.
	ReserveTimeout time.Duration `env:"WORKER_RESERVE_TIMEOUT" envDefault:"5s"`
}

// Sanitize applies guardrails to worker configuration values.
func (w *WorkerConfig) Sanitize() {
	if w.Concurrency < 1 {
		w.Concurrency = 1
	}
	if w.Queue = strings.TrimSpace(w.Queue); w.Queue == "" {
		w.Queue = "qualifier"
	}
	if w.ReserveTimeout < time.Second {
		w.ReserveTimeout = time.Second
	}
}

// ExecutorConfig contains configuration for the external test executor.
type ExecutorConfig struct {
	// RunnerURL is the base URL of the test executor service.
	RunnerURL string `env:"EXECUTOR_RUNNER_URL" envDefault:"http://localhost:8090"`

	// Timeout bounds a single test run execution end to end.
	Timeout time.Duration `env:"EXECUTOR_TIMEOUT" envDefault:"15m"`
}

// Sanitize applies guardrails to executor configuration values.
func (e *ExecutorConfig) Sanitize() {
	e.RunnerURL = strings.TrimRight(strings.TrimSpace(e.RunnerURL), "/")
	if e.Timeout < time.Minute {
		e.Timeout = time.Minute
	}
}
