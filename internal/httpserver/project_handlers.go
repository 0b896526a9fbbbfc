package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *handler) handleProjectCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		CreatedBy   string `json:"created_by"`
	}
	if err := decodeJSON(r.Context(), r.Body, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if req.Name == "" || req.CreatedBy == "" {
		writeValidationError(w, errors.New("name and created_by are required"))
		return
	}

	project, err := h.svc.CreateProject(r.Context(), req.Name, req.Description, req.CreatedBy)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"project": mapProject(project),
	})
}

func (h *handler) handleProjectGet(w http.ResponseWriter, r *http.Request) {
	project, err := h.svc.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProject(project))
}

func (h *handler) handleProjectList(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.ListProjects(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	result := make([]map[string]any, 0, len(projects))
	for _, p := range projects {
		result = append(result, mapProject(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"projects": result,
	})
}

func (h *handler) handleProjectArchive(w http.ResponseWriter, r *http.Request) {
	project, err := h.svc.ArchiveProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"project": mapProject(project),
	})
}

func (h *handler) handleProjectDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProject(r.Context(), chi.URLParam(r, "projectID")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted": true,
	})
}

func (h *handler) handleProjectResync(w http.ResponseWriter, r *http.Request) {
	project, err := h.svc.ResyncProjectStats(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"project": mapProject(project),
	})
}

func (h *handler) handleProjectBugs(w http.ResponseWriter, r *http.Request) {
	bugs, err := h.svc.ListBugsByProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bugs": mapBugList(bugs),
	})
}

func (h *handler) handleProjectReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.svc.ListReportsByProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reports": mapReportList(reports),
	})
}
