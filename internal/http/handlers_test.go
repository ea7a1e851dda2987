package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/openutm/qualifier-host/internal/data"
	"github.com/openutm/qualifier-host/internal/domain/model"
	"github.com/openutm/qualifier-host/internal/mocks"
	"github.com/openutm/qualifier-host/internal/service"
	"github.com/openutm/qualifier-host/internal/testutil"
)

type routerMocks struct {
	queue *mocks.MockJobQueue
	store *mocks.MockReportStore
}

func newTestRouter(t *testing.T) (http.Handler, routerMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := routerMocks{
		queue: mocks.NewMockJobQueue(ctrl),
		store: mocks.NewMockReportStore(ctrl),
	}
	svc, err := service.NewTestRunService(service.TestRunServiceOptions{
		Queue: m.queue,
		Store: m.store,
	})
	require.NoError(t, err)
	return NewRouter(RouterServices{TestRuns: svc, Queue: m.queue}), m
}

func doRequest(router http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateTestRun(t *testing.T) {
	router, m := newTestRouter(t)

	m.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil)

	body := fmt.Sprintf(`{"config": %s, "auth_spec": "NoAuth()", "debug": true}`, testutil.MinimalConfigJSON)
	rec := doRequest(router, http.MethodPost, "/api/test-runs", body)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var run model.TestRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.TestRunStatusPending, run.Status)
	assert.True(t, run.Debug)
}

func TestCreateTestRun_BadRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		errCode string
	}{
		{name: "malformed json", body: `{not json`, errCode: "invalid_json"},
		{name: "unknown field", body: `{"config": {}, "bogus": 1}`, errCode: "invalid_json"},
		{name: "missing config", body: `{"debug": true}`, errCode: "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t)

			rec := doRequest(router, http.MethodPost, "/api/test-runs", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.errCode, resp["error"])
		})
	}
}

func TestCreateTestRun_QueueFailure(t *testing.T) {
	router, m := newTestRouter(t)

	m.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	body := fmt.Sprintf(`{"config": %s}`, testutil.MinimalConfigJSON)
	rec := doRequest(router, http.MethodPost, "/api/test-runs", body)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetTestRun(t *testing.T) {
	router, m := newTestRouter(t)

	run := testutil.NewTestRunBuilder("run-1").
		WithStatus(model.TestRunStatusFailed).
		Build()
	run.LastError = testutil.StringPtr("runner unreachable")
	m.queue.EXPECT().Fetch(gomock.Any(), "run-1").Return(run, nil)

	rec := doRequest(router, http.MethodGet, "/api/test-runs/run-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.TestRunStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.ID)
	assert.Equal(t, model.TestRunStatusFailed, resp.Status)
	require.NotNil(t, resp.LastError)
	assert.Equal(t, "runner unreachable", *resp.LastError)
}

func TestGetTestRun_NotFoundIsUniform(t *testing.T) {
	tests := []struct {
		name     string
		fetchErr error
	}{
		{name: "unknown id", fetchErr: data.ErrJobNotFound},
		{name: "store unreachable", fetchErr: errors.New("dial tcp: connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := newTestRouter(t)
			m.queue.EXPECT().Fetch(gomock.Any(), "run-1").Return(nil, tt.fetchErr)

			rec := doRequest(router, http.MethodGet, "/api/test-runs/run-1", "")
			require.Equal(t, http.StatusNotFound, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "not_found", resp["error"])
			assert.Equal(t, "test run not found", resp["message"])
		})
	}
}

func TestGetReport(t *testing.T) {
	router, m := newTestRouter(t)

	stored := []byte(`{"findings": {"issues": []}}`)
	m.store.EXPECT().Get(gomock.Any(), "run-1").Return(stored, nil)

	rec := doRequest(router, http.MethodGet, "/api/test-runs/run-1/report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	// Raw bytes pass through untouched.
	assert.Equal(t, stored, rec.Body.Bytes())
}

func TestGetReport_NotFound(t *testing.T) {
	router, m := newTestRouter(t)

	m.store.EXPECT().Get(gomock.Any(), "run-1").Return(nil, data.ErrReportNotFound)

	rec := doRequest(router, http.MethodGet, "/api/test-runs/run-1/report", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetReport_StoreFailure(t *testing.T) {
	router, m := newTestRouter(t)

	m.store.EXPECT().Get(gomock.Any(), "run-1").Return(nil, errors.New("redis down"))

	rec := doRequest(router, http.MethodGet, "/api/test-runs/run-1/report", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetReportSummary(t *testing.T) {
	router, m := newTestRouter(t)

	m.store.EXPECT().Get(gomock.Any(), "run-1").Return([]byte(`{
		"qualifier_version": "v0.2.0",
		"findings": {"issues": [{"severity": "Low", "subject": "uss1"}]}
	}`), nil)

	rec := doRequest(router, http.MethodGet, "/api/test-runs/run-1/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary service.ReportSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "v0.2.0", summary.QualifierVersion)
	assert.Equal(t, 1, summary.IssueCount)
	assert.Equal(t, []string{"uss1"}, summary.Subjects)
}

func TestHealth(t *testing.T) {
	router, m := newTestRouter(t)

	m.queue.EXPECT().Health(gomock.Any()).Return(nil)

	rec := doRequest(router, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestHealth_Degraded(t *testing.T) {
	router, m := newTestRouter(t)

	m.queue.EXPECT().Health(gomock.Any()).Return(errors.New("redis down"))

	rec := doRequest(router, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
}

func TestHealth_Head(t *testing.T) {
	router, m := newTestRouter(t)

	m.queue.EXPECT().Health(gomock.Any()).Return(nil)

	rec := doRequest(router, http.MethodHead, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, http.MethodDelete, "/api/test-runs/run-1", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
