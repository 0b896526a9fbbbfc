package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/glebovvv/bugtrack/internal/domain"
	"github.com/go-chi/chi/v5"
)

type bugRequest struct {
	ProjectID   string   `json:"project_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ReportedBy  string   `json:"reported_by"`
	AssignedTo  *string  `json:"assigned_to"`
	Priority    string   `json:"priority"`
	Severity    string   `json:"severity"`
	Tags        []string `json:"tags"`
	DueDate     *string  `json:"due_date"`
	ParentBug   *string  `json:"parent_bug"`
	RelatedBugs []string `json:"related_bugs"`

	StepsToReproduce string `json:"steps_to_reproduce,omitempty"`
	ExpectedResult   string `json:"expected_result,omitempty"`
	ActualResult     string `json:"actual_result,omitempty"`
}

func (req bugRequest) toInput() (domain.CreateBugInput, error) {
	in := domain.CreateBugInput{
		ProjectID:        req.ProjectID,
		Title:            req.Title,
		Description:      req.Description,
		Priority:         domain.BugPriority(req.Priority),
		Severity:         domain.BugSeverity(req.Severity),
		Tags:             req.Tags,
		AssignedTo:       req.AssignedTo,
		ParentBug:        req.ParentBug,
		RelatedBugs:      req.RelatedBugs,
		StepsToReproduce: req.StepsToReproduce,
		ExpectedResult:   req.ExpectedResult,
		ActualResult:     req.ActualResult,
	}
	if req.DueDate != nil {
		due, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			return domain.CreateBugInput{}, errors.New("due_date must be RFC3339")
		}
		in.DueDate = &due
	}
	return in, nil
}

func (h *handler) handleBugCreate(w http.ResponseWriter, r *http.Request) {
	var req bugRequest
	if err := decodeJSON(r.Context(), r.Body, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if req.Title == "" || req.ProjectID == "" || req.ReportedBy == "" {
		writeValidationError(w, errors.New("title, project_id and reported_by are required"))
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeValidationError(w, err)
		return
	}

	bug, err := h.svc.CreateBug(r.Context(), in, req.ReportedBy)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"bug": mapBug(bug),
	})
}

func (h *handler) handleBugCreateWithReport(w http.ResponseWriter, r *http.Request) {
	var req bugRequest
	if err := decodeJSON(r.Context(), r.Body, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if req.Title == "" || req.ProjectID == "" || req.ReportedBy == "" {
		writeValidationError(w, errors.New("title, project_id and reported_by are required"))
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeValidationError(w, err)
		return
	}

	bug, report, err := h.svc.CreateBugWithReport(r.Context(), in, req.ReportedBy)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"bug":    mapBug(bug),
		"report": mapReport(report),
	})
}

func (h *handler) handleBugGet(w http.ResponseWriter, r *http.Request) {
	bug, err := h.svc.GetBug(r.Context(), chi.URLParam(r, "bugID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapBug(bug))
}

func (h *handler) handleBugStatusUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status    string `json:"status"`
		ChangedBy string `json:"changed_by"`
	}
	if err := decodeJSON(r.Context(), r.Body, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if req.Status == "" || req.ChangedBy == "" {
		writeValidationError(w, errors.New("status and changed_by are required"))
		return
	}

	bug, err := h.svc.UpdateBugStatus(r.Context(), chi.URLParam(r, "bugID"), domain.BugStatus(req.Status), req.ChangedBy)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bug": mapBug(bug),
	})
}

func (h *handler) handleBugAssign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string `json:"user_id"`
		ChangedBy string `json:"changed_by"`
	}
	if err := decodeJSON(r.Context(), r.Body, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if req.UserID == "" || req.ChangedBy == "" {
		writeValidationError(w, errors.New("user_id and changed_by are required"))
		return
	}

	bug, err := h.svc.AssignBug(r.Context(), chi.URLParam(r, "bugID"), req.UserID, req.ChangedBy)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bug": mapBug(bug),
	})
}

func (h *handler) handleBugLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RelatedBugID string `json:"related_bug_id"`
	}
	if err := decodeJSON(r.Context(), r.Body, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if req.RelatedBugID == "" {
		writeValidationError(w, errors.New("related_bug_id is required"))
		return
	}

	bug, related, err := h.svc.LinkBugs(r.Context(), chi.URLParam(r, "bugID"), req.RelatedBugID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bug":         mapBug(bug),
		"related_bug": mapBug(related),
	})
}

func (h *handler) handleSubBugCreate(w http.ResponseWriter, r *http.Request) {
	var req bugRequest
	if err := decodeJSON(r.Context(), r.Body, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if req.Title == "" || req.ReportedBy == "" {
		writeValidationError(w, errors.New("title and reported_by are required"))
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeValidationError(w, err)
		return
	}

	bug, err := h.svc.CreateSubBug(r.Context(), chi.URLParam(r, "bugID"), in, req.ReportedBy)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"bug": mapBug(bug),
	})
}

func (h *handler) handleBugHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.svc.BugHistory(r.Context(), chi.URLParam(r, "bugID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"history": mapHistory(history),
	})
}

func (h *handler) handleBugDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteBug(r.Context(), chi.URLParam(r, "bugID")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted": true,
	})
}
