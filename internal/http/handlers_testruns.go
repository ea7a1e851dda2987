package httpx

import (
	"errors"
	"net/http"

	"github.com/openutm/qualifier-host/internal/domain/model"
	apperrors "github.com/openutm/qualifier-host/internal/errors"
	"github.com/openutm/qualifier-host/internal/service"
)

// TestRunHandlers provides HTTP handlers for test run operations.
type TestRunHandlers struct {
	Svc *service.TestRunService
}

// CreateTestRun handles requests to enqueue a new test run.
func (h *TestRunHandlers) CreateTestRun(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTestRunRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	run, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		code := http.StatusInternalServerError
		errCode := "create_failed"
		if apperrors.IsValidation(err) {
			code = http.StatusBadRequest
			errCode = "invalid_request"
		}
		WriteError(w, ErrorParams{Code: code, ErrCode: errCode, Err: err})
		return
	}

	WriteJSON(w, http.StatusAccepted, run)
}

// GetTestRun handles requests to look up a test run by id.
func (h *TestRunHandlers) GetTestRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: err})
		return
	}

	WriteJSON(w, http.StatusOK, model.TestRunStatusResponse{
		ID:        run.ID,
		Status:    run.Status,
		EndedAt:   run.EndedAt,
		LastError: run.LastError,
	})
}

// GetReport handles requests for the raw stored report of a test run.
func (h *TestRunHandlers) GetReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	report, err := h.Svc.GetReport(r.Context(), id)
	if err != nil {
		writeReportError(w, err)
		return
	}
	WriteRawJSON(w, http.StatusOK, report)
}

// GetReportSummary handles requests for extracted report counts.
func (h *TestRunHandlers) GetReportSummary(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	summary, err := h.Svc.Summary(r.Context(), id)
	if err != nil {
		writeReportError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

func writeReportError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code == apperrors.ErrCodeNotFound {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: err})
		return
	}
	WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal", Err: err})
}
