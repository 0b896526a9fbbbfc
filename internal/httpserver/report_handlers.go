package httpserver

import (
	"errors"
	"net/http"

	"github.com/glebovvv/bugtrack/internal/domain"
	"github.com/go-chi/chi/v5"
)

func (h *handler) handleReportCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID        string `json:"project_id"`
		Title            string `json:"title"`
		Description      string `json:"description"`
		Priority         string `json:"priority"`
		Severity         string `json:"severity"`
		StepsToReproduce string `json:"steps_to_reproduce"`
		ExpectedResult   string `json:"expected_result"`
		ActualResult     string `json:"actual_result"`
		ReportedBy       string `json:"reported_by"`
	}
	if err := decodeJSON(r.Context(), r.Body, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if req.Title == "" || req.ProjectID == "" || req.ReportedBy == "" {
		writeValidationError(w, errors.New("title, project_id and reported_by are required"))
		return
	}

	report, err := h.svc.CreateReport(r.Context(), domain.CreateReportInput{
		ProjectID:        req.ProjectID,
		Title:            req.Title,
		Description:      req.Description,
		Priority:         domain.BugPriority(req.Priority),
		Severity:         domain.BugSeverity(req.Severity),
		StepsToReproduce: req.StepsToReproduce,
		ExpectedResult:   req.ExpectedResult,
		ActualResult:     req.ActualResult,
	}, req.ReportedBy)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"report": mapReport(report),
	})
}

func (h *handler) handleReportGet(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.GetReport(r.Context(), chi.URLParam(r, "reportID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapReport(report))
}

func (h *handler) handleReportReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status        string  `json:"status"`
		ReviewComment string  `json:"review_comment"`
		AssignedTo    *string `json:"assigned_to"`
		ReviewedBy    string  `json:"reviewed_by"`
	}
	if err := decodeJSON(r.Context(), r.Body, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if req.Status == "" || req.ReviewedBy == "" {
		writeValidationError(w, errors.New("status and reviewed_by are required"))
		return
	}

	report, err := h.svc.ReviewReport(r.Context(), chi.URLParam(r, "reportID"), domain.ReviewReportInput{
		Status:        domain.ReportStatus(req.Status),
		ReviewComment: req.ReviewComment,
		AssignedTo:    req.AssignedTo,
	}, req.ReviewedBy)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"report": mapReport(report),
	})
}

func (h *handler) handleReportDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteReport(r.Context(), chi.URLParam(r, "reportID")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted": true,
	})
}
