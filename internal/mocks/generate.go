// Package mocks provides mock implementations for testing the qualifier host.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockQueue := mocks.NewMockJobQueue(ctrl)
//	mockQueue.EXPECT().Fetch(gomock.Any(), "run-42").Return(run, nil)
package mocks

// Generate mock for JobQueue interface from internal/core package.
// This creates MockJobQueue with methods for all JobQueue interface methods:
// Enqueue, Reserve, Fetch, MarkRunning, Complete, Fail, Health
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_queue_mock.go github.com/openutm/qualifier-host/internal/core JobQueue

// Generate mock for ReportStore interface from internal/core package.
// This creates MockReportStore with methods for all ReportStore interface methods:
// Save, Get, Exists, Health
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=report_store_mock.go github.com/openutm/qualifier-host/internal/core ReportStore

// Generate mock for ReportArchive interface from internal/core package.
// This creates MockReportArchive with methods for all ReportArchive interface methods:
// Upsert, Get, Prune
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=report_archive_mock.go github.com/openutm/qualifier-host/internal/core ReportArchive

// Generate mock for Executor interface from internal/core package.
// This creates MockExecutor with methods for all Executor interface methods:
// Run
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=executor_mock.go github.com/openutm/qualifier-host/internal/core Executor
