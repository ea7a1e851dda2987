package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:  "single service - http",
			input: "http",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP: true,
			},
			expectError: false,
		},
		{
			name:  "single service - worker",
			input: "worker",
			expected: map[ServiceMode]bool{
				ServiceModeWorker: true,
			},
			expectError: false,
		},
		{
			name:  "multiple services",
			input: "http,worker",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:   true,
				ServiceModeWorker: true,
			},
			expectError: false,
		},
		{
			name:  "services with spaces",
			input: " http , worker ",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:   true,
				ServiceModeWorker: true,
			},
			expectError: false,
		},
		{
			name:  "duplicate services",
			input: "http,http,worker",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:   true,
				ServiceModeWorker: true,
			},
			expectError: false,
		},
		{
			name:        "empty string",
			input:       "",
			expected:    nil,
			expectError: true,
		},
		{
			name:        "only spaces and commas",
			input:       " , , ",
			expected:    nil,
			expectError: true,
		},
		{
			name:        "invalid service name",
			input:       "http,invalid-service",
			expected:    nil,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseServices(tt.input)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if len(result) != len(tt.expected) {
				t.Errorf("expected %d services, got %d", len(tt.expected), len(result))
				return
			}

			for service, expected := range tt.expected {
				if result[service] != expected {
					t.Errorf("expected service %s to be %v, got %v", service, expected, result[service])
				}
			}
		})
	}
}

func TestConfig_ServiceEnabledMethods(t *testing.T) {
	tests := []struct {
		name           string
		services       string
		expectedHTTP   bool
		expectedWorker bool
	}{
		{
			name:           "default - http only",
			services:       "http",
			expectedHTTP:   true,
			expectedWorker: false,
		},
		{
			name:           "http and worker",
			services:       "http,worker",
			expectedHTTP:   true,
			expectedWorker: true,
		},
		{
			name:           "worker only",
			services:       "worker",
			expectedHTTP:   false,
			expectedWorker: true,
		},
		{
			name:           "invalid configuration",
			services:       "invalid-service",
			expectedHTTP:   false,
			expectedWorker: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AppConfig{Services: tt.services}

			if cfg.IsHTTPServerEnabled() != tt.expectedHTTP {
				t.Errorf("IsHTTPServerEnabled(): expected %v, got %v", tt.expectedHTTP, cfg.IsHTTPServerEnabled())
			}

			if cfg.IsWorkerEnabled() != tt.expectedWorker {
				t.Errorf("IsWorkerEnabled(): expected %v, got %v", tt.expectedWorker, cfg.IsWorkerEnabled())
			}
		})
	}
}

func TestAppConfig_ParseEnv(t *testing.T) {
	t.Setenv("SERVICES", "http,worker")
	t.Setenv("REDIS_URI", "redis.internal:6380")
	t.Setenv("REDIS_PASSWORD", "s3cret")
	t.Setenv("DB_ENABLED", "true")
	t.Setenv("DB_HOST", "pg.internal")
	t.Setenv("WORKER_CONCURRENCY", "4")
	t.Setenv("EXECUTOR_RUNNER_URL", "http://executor.internal:8090/")
	t.Setenv("EXECUTOR_TIMEOUT", "30m")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Services != "http,worker" {
		t.Errorf("expected services http,worker, got %q", cfg.Services)
	}
	if cfg.Redis.URI != "redis.internal:6380" {
		t.Errorf("unexpected redis uri: %q", cfg.Redis.URI)
	}
	if cfg.Redis.Password != "s3cret" {
		t.Errorf("unexpected redis password: %q", cfg.Redis.Password)
	}
	if !cfg.Archive.Enabled {
		t.Error("expected archive to be enabled")
	}
	if cfg.Archive.Host != "pg.internal" {
		t.Errorf("unexpected archive host: %q", cfg.Archive.Host)
	}
	if cfg.Worker.Concurrency != 4 {
		t.Errorf("expected worker concurrency 4, got %d", cfg.Worker.Concurrency)
	}
	if cfg.Executor.RunnerURL != "http://executor.internal:8090" {
		t.Errorf("expected runner url trailing slash to be trimmed, got %q", cfg.Executor.RunnerURL)
	}
	if cfg.Executor.Timeout != 30*time.Minute {
		t.Errorf("unexpected executor timeout: %v", cfg.Executor.Timeout)
	}
}

func TestWorkerConfig_Sanitize(t *testing.T) {
	cfg := WorkerConfig{
		Concurrency:    0,
		Queue:          "  ",
		ReserveTimeout: 0,
	}

	cfg.Sanitize()

	if cfg.Concurrency != 1 {
		t.Errorf("expected concurrency clamp to 1, got %d", cfg.Concurrency)
	}
	if cfg.Queue != "qualifier" {
		t.Errorf("expected default queue, got %q", cfg.Queue)
	}
	if cfg.ReserveTimeout != time.Second {
		t.Errorf("expected reserve timeout clamp to 1s, got %v", cfg.ReserveTimeout)
	}
}

func TestExecutorConfig_Sanitize(t *testing.T) {
	cfg := ExecutorConfig{
		RunnerURL: " http://executor:8090/ ",
		Timeout:   time.Second,
	}

	cfg.Sanitize()

	if cfg.RunnerURL != "http://executor:8090" {
		t.Errorf("expected trimmed runner url, got %q", cfg.RunnerURL)
	}
	if cfg.Timeout != time.Minute {
		t.Errorf("expected timeout clamp to 1m, got %v", cfg.Timeout)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
}
