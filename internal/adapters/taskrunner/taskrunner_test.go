package taskrunner

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/openutm/qualifier-host/internal/core"
	"github.com/openutm/qualifier-host/internal/domain/model"
	"github.com/openutm/qualifier-host/internal/executor"
	"github.com/openutm/qualifier-host/internal/mocks"
	"github.com/openutm/qualifier-host/internal/testutil"
)

func TestExecuteTestRun_DebugUsesSampleReport(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockReportStore(ctrl)

	run := testutil.NewTestRunBuilder("run-1").WithDebug().Build()

	var saved []byte
	store.EXPECT().
		Save(gomock.Any(), "run-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, payload []byte) error {
			saved = payload
			return nil
		})

	// Debug mode must not touch the executor at all, so none is wired.
	err := ExecuteTestRun(context.Background(), TaskDeps{Store: store}, run)
	require.NoError(t, err)

	var report model.Report
	require.NoError(t, json.Unmarshal(saved, &report))
	assert.JSONEq(t, string(executor.SampleReport()), string(report))
}

func TestExecuteTestRun_InvokesExecutor(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockReportStore(ctrl)
	exec := mocks.NewMockExecutor(ctrl)

	run := testutil.NewTestRunBuilder("run-2").
		WithAuthSpec("StaticToken(abc)").
		WithInputFiles("flight_data/a.json", "flight_data/b.json").
		Build()

	exec.EXPECT().
		Run(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input core.RunInput) (model.Report, error) {
			require.NotNil(t, input.Config)
			assert.Equal(t, "StaticToken(abc)", input.AuthSpec)
			assert.Equal(t, []string{"flight_data/a.json", "flight_data/b.json"}, input.InputFiles)
			return model.Report(`{"findings": {}}`), nil
		})
	store.EXPECT().Save(gomock.Any(), "run-2", gomock.Any()).Return(nil)

	err := ExecuteTestRun(context.Background(), TaskDeps{Store: store, Executor: exec}, run)
	require.NoError(t, err)
}

func TestExecuteTestRun_ConfigParseFailurePropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockReportStore(ctrl)

	run := testutil.NewTestRunBuilder("run-3").WithConfig("{not json").Build()

	err := ExecuteTestRun(context.Background(), TaskDeps{Store: store}, run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse test configuration")
}

func TestExecuteTestRun_ExecutorErrorPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockReportStore(ctrl)
	exec := mocks.NewMockExecutor(ctrl)

	run := testutil.NewTestRunBuilder("run-4").Build()
	exec.EXPECT().Run(gomock.Any(), gomock.Any()).Return(nil, errors.New("runner unreachable"))

	err := ExecuteTestRun(context.Background(), TaskDeps{Store: store, Executor: exec}, run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runner unreachable")
}

func TestExecuteTestRun_EmptyReportStoresNothing(t *testing.T) {
	tests := []struct {
		name   string
		report model.Report
	}{
		{name: "nil report", report: nil},
		{name: "empty object", report: model.Report(`{}`)},
		{name: "json null", report: model.Report(`null`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockReportStore(ctrl)
			exec := mocks.NewMockExecutor(ctrl)

			run := testutil.NewTestRunBuilder("run-5").Build()
			exec.EXPECT().Run(gomock.Any(), gomock.Any()).Return(tt.report, nil)
			// No Save expectation: any store call fails the test.

			err := ExecuteTestRun(context.Background(), TaskDeps{Store: store, Executor: exec}, run)
			require.NoError(t, err)
		})
	}
}

func TestExecuteTestRun_MissingRunIDStoresNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockReportStore(ctrl)
	exec := mocks.NewMockExecutor(ctrl)

	run := testutil.NewTestRunBuilder("").Build()
	exec.EXPECT().Run(gomock.Any(), gomock.Any()).Return(model.Report(`{"findings": {}}`), nil)

	err := ExecuteTestRun(context.Background(), TaskDeps{Store: store, Executor: exec}, run)
	require.NoError(t, err)
}

func TestExecuteTestRun_StoreFailurePropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockReportStore(ctrl)

	run := testutil.NewTestRunBuilder("run-6").WithDebug().Build()
	store.EXPECT().Save(gomock.Any(), "run-6", gomock.Any()).Return(errors.New("redis down"))

	err := ExecuteTestRun(context.Background(), TaskDeps{Store: store}, run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store report")
}

func TestExecuteTestRun_ArchiveFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockReportStore(ctrl)
	archive := mocks.NewMockReportArchive(ctrl)

	run := testutil.NewTestRunBuilder("run-7").WithDebug().Build()
	store.EXPECT().Save(gomock.Any(), "run-7", gomock.Any()).Return(nil)
	archive.EXPECT().
		Upsert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.ArchiveReportParams) error {
			assert.Equal(t, "run-7", params.RunID)
			assert.True(t, params.Debug)
			return errors.New("postgres down")
		})

	err := ExecuteTestRun(context.Background(), TaskDeps{Store: store, Archive: archive}, run)
	require.NoError(t, err)
}

func TestNewRunner(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockJobQueue(ctrl)
	store := mocks.NewMockReportStore(ctrl)
	exec := mocks.NewMockExecutor(ctrl)

	_, err := NewRunner(RunnerOptions{Store: store, Executor: exec})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job queue is required")

	_, err = NewRunner(RunnerOptions{Queue: queue, Executor: exec})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report store is required")

	_, err = NewRunner(RunnerOptions{Queue: queue, Store: store})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "executor is required")

	runner, err := NewRunner(RunnerOptions{Queue: queue, Store: store, Executor: exec})
	require.NoError(t, err)
	assert.Equal(t, 1, runner.workers)
	assert.Equal(t, 5*time.Second, runner.reserveTimeout)
}

func TestRunner_ProcessesReservedRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockJobQueue(ctrl)
	store := mocks.NewMockReportStore(ctrl)
	exec := mocks.NewMockExecutor(ctrl)

	run := testutil.NewTestRunBuilder("run-8").WithDebug().Build()
	done := make(chan struct{})

	gomock.InOrder(
		queue.EXPECT().Reserve(gomock.Any(), gomock.Any()).Return(run, nil),
		queue.EXPECT().MarkRunning(gomock.Any(), "run-8").Return(nil),
		queue.EXPECT().Complete(gomock.Any(), "run-8").
			DoAndReturn(func(context.Context, string) error {
				close(done)
				return nil
			}),
	)
	store.EXPECT().Save(gomock.Any(), "run-8", gomock.Any()).Return(nil)
	queue.EXPECT().Reserve(gomock.Any(), gomock.Any()).
		Return(nil, model.ErrNoRunsAvailable).AnyTimes()

	runner, err := NewRunner(RunnerOptions{Queue: queue, Store: store, Executor: exec})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run was not completed in time")
	}
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

func TestRunner_FailedRunIsMarkedFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockJobQueue(ctrl)
	store := mocks.NewMockReportStore(ctrl)
	exec := mocks.NewMockExecutor(ctrl)

	run := testutil.NewTestRunBuilder("run-9").Build()
	done := make(chan struct{})

	queue.EXPECT().Reserve(gomock.Any(), gomock.Any()).Return(run, nil)
	queue.EXPECT().MarkRunning(gomock.Any(), "run-9").Return(nil)
	exec.EXPECT().Run(gomock.Any(), gomock.Any()).Return(nil, errors.New("runner unreachable"))
	queue.EXPECT().Fail(gomock.Any(), "run-9", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, msg string) error {
			assert.Contains(t, msg, "runner unreachable")
			close(done)
			return nil
		})
	queue.EXPECT().Reserve(gomock.Any(), gomock.Any()).
		Return(nil, model.ErrNoRunsAvailable).AnyTimes()

	runner, err := NewRunner(RunnerOptions{Queue: queue, Store: store, Executor: exec})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run was not failed in time")
	}
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

func TestRunner_FatalReserveErrorStopsWorkers(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockJobQueue(ctrl)
	store := mocks.NewMockReportStore(ctrl)
	exec := mocks.NewMockExecutor(ctrl)

	queue.EXPECT().Reserve(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection refused")).AnyTimes()

	runner, err := NewRunner(RunnerOptions{Queue: queue, Store: store, Executor: exec, Concurrency: 2})
	require.NoError(t, err)

	err = runner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserve run")
}
