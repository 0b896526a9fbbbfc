package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/glebovvv/bugtrack/internal/domain"
	"github.com/glebovvv/bugtrack/internal/service"
	"go.uber.org/zap"
)

type handler struct {
	svc    Service
	logger *zap.Logger
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) writeServiceError(w http.ResponseWriter, err error) {
	status, code := mapServiceError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("service error", zap.Error(err))
	}
	writeError(w, status, code, err.Error())
}

func mapServiceError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrProjectNotFound),
		errors.Is(err, service.ErrBugNotFound),
		errors.Is(err, service.ErrReportNotFound),
		errors.Is(err, service.ErrTeamNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrSelfLink),
		errors.Is(err, service.ErrParentCycle):
		return http.StatusBadRequest, "VALIDATION"
	case errors.Is(err, service.ErrDuplicateBugTitle),
		errors.Is(err, service.ErrDuplicateTeamName),
		errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrProjectAlreadyAssigned),
		errors.Is(err, service.ErrReportAlreadyReviewed):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, service.ErrProjectArchived):
		return http.StatusConflict, "PROJECT_ARCHIVED"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func mapProject(p domain.Project) map[string]any {
	resp := map[string]any{
		"project_id":          p.ID,
		"name":                p.Name,
		"description":         p.Description,
		"status":              string(p.Status),
		"progress_percentage": p.Progress,
		"archived":            p.Archived,
		"created_by":          p.CreatedBy,
		"stats": map[string]any{
			"total_bugs":       p.Stats.TotalBugs,
			"open_bugs":        p.Stats.OpenBugs,
			"resolved_bugs":    p.Stats.ResolvedBugs,
			"pending_reports":  p.Stats.PendingReports,
			"approved_reports": p.Stats.ApprovedReports,
		},
		"created_at": formatTime(p.CreatedAt),
		"updated_at": formatTime(p.UpdatedAt),
	}
	if p.CompletedAt != nil {
		resp["completed_at"] = formatTime(*p.CompletedAt)
	}
	return resp
}

func mapBug(b domain.Bug) map[string]any {
	resp := map[string]any{
		"bug_id":      b.ID,
		"project_id":  b.ProjectID,
		"title":       b.Title,
		"description": b.Description,
		"status":      string(b.Status),
		"priority":    string(b.Priority),
		"severity":    string(b.Severity),
		"tags":        b.Tags,
		"reported_by": b.ReportedBy,
		"linked_bugs": b.LinkedBugs,
		"created_at":  formatTime(b.CreatedAt),
		"updated_at":  formatTime(b.UpdatedAt),
	}
	if b.AssignedTo != nil {
		resp["assigned_to"] = *b.AssignedTo
	}
	if b.ParentBug != nil {
		resp["parent_bug"] = *b.ParentBug
	}
	if b.DueDate != nil {
		resp["due_date"] = formatTime(*b.DueDate)
	}
	if b.ResolutionDate != nil {
		resp["resolution_date"] = formatTime(*b.ResolutionDate)
	}
	return resp
}

func mapBugList(bugs []domain.Bug) []map[string]any {
	result := make([]map[string]any, 0, len(bugs))
	for _, b := range bugs {
		result = append(result, mapBug(b))
	}
	return result
}

func mapReport(rep domain.Report) map[string]any {
	resp := map[string]any{
		"report_id":          rep.ID,
		"project_id":         rep.ProjectID,
		"title":              rep.Title,
		"description":        rep.Description,
		"steps_to_reproduce": rep.StepsToReproduce,
		"expected_result":    rep.ExpectedResult,
		"actual_result":      rep.ActualResult,
		"priority":           string(rep.Priority),
		"severity":           string(rep.Severity),
		"status":             string(rep.Status),
		"reported_by":        rep.ReportedBy,
		"created_at":         formatTime(rep.CreatedAt),
		"updated_at":         formatTime(rep.UpdatedAt),
	}
	if rep.BugID != nil {
		resp["bug_id"] = *rep.BugID
	}
	if rep.ReviewedBy != nil {
		resp["reviewed_by"] = *rep.ReviewedBy
		resp["review_comment"] = rep.ReviewComment
	}
	if rep.ReviewedAt != nil {
		resp["reviewed_at"] = formatTime(*rep.ReviewedAt)
	}
	return resp
}

func mapReportList(reports []domain.Report) []map[string]any {
	result := make([]map[string]any, 0, len(reports))
	for _, rep := range reports {
		result = append(result, mapReport(rep))
	}
	return result
}

func mapTeam(t domain.Team) map[string]any {
	resp := map[string]any{
		"team_id":     t.ID,
		"name":        t.Name,
		"description": t.Description,
		"members":     emptyIfNil(t.Members),
		"projects":    emptyIfNil(t.Projects),
		"created_at":  formatTime(t.CreatedAt),
	}
	if t.Lead != nil {
		resp["lead"] = *t.Lead
	}
	return resp
}

func mapUser(u domain.User) map[string]any {
	return map[string]any{
		"user_id":   u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"role":      string(u.Role),
		"is_active": u.IsActive,
	}
}

func mapHistory(entries []domain.BugHistoryEntry) []map[string]any {
	result := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		result = append(result, map[string]any{
			"changed_by": e.ChangedBy,
			"field":      e.Field,
			"old_value":  e.OldValue,
			"new_value":  e.NewValue,
			"changed_at": formatTime(e.ChangedAt),
		})
	}
	return result
}

func emptyIfNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func decodeJSON(_ context.Context, body io.ReadCloser, dst any) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("unexpected extra JSON input")
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
}
