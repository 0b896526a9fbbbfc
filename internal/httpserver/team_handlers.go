package httpserver

import (
	"errors"
	"net/http"

	"github.com/glebovvv/bugtrack/internal/domain"
	"github.com/go-chi/chi/v5"
)

func (h *handler) handleTeamCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Lead        *string  `json:"lead"`
		Members     []string `json:"members"`
	}
	if err := decodeJSON(r.Context(), r.Body, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if req.Name == "" {
		writeValidationError(w, errors.New("name is required"))
		return
	}

	team, err := h.svc.CreateTeam(r.Context(), req.Name, req.Description, req.Lead, req.Members)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"team": mapTeam(team),
	})
}

func (h *handler) handleTeamGet(w http.ResponseWriter, r *http.Request) {
	team, err := h.svc.GetTeam(r.Context(), chi.URLParam(r, "teamID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapTeam(team))
}

func (h *handler) handleTeamList(w http.ResponseWriter, r *http.Request) {
	teams, err := h.svc.ListTeams(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	result := make([]map[string]any, 0, len(teams))
	for _, t := range teams {
		result = append(result, mapTeam(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"teams": result,
	})
}

func (h *handler) handleTeamAddMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := decodeJSON(r.Context(), r.Body, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if req.UserID == "" {
		writeValidationError(w, errors.New("user_id is required"))
		return
	}

	team, err := h.svc.AddTeamMember(r.Context(), chi.URLParam(r, "teamID"), req.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"team": mapTeam(team),
	})
}

func (h *handler) handleTeamAssignProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID string `json:"project_id"`
	}
	if err := decodeJSON(r.Context(), r.Body, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if req.ProjectID == "" {
		writeValidationError(w, errors.New("project_id is required"))
		return
	}

	team, err := h.svc.AssignProjectToTeam(r.Context(), chi.URLParam(r, "teamID"), req.ProjectID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"team": mapTeam(team),
	})
}

func (h *handler) handleTeamBugs(w http.ResponseWriter, r *http.Request) {
	bugs, err := h.svc.ListBugsByTeam(r.Context(), chi.URLParam(r, "teamID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bugs": mapBugList(bugs),
	})
}

func (h *handler) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := decodeJSON(r.Context(), r.Body, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if req.Name == "" || req.Email == "" {
		writeValidationError(w, errors.New("name and email are required"))
		return
	}

	user, err := h.svc.CreateUser(r.Context(), req.Name, req.Email, domain.UserRole(req.Role))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user": mapUser(user),
	})
}

func (h *handler) handleUserGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapUser(user))
}

func (h *handler) handleUserList(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	result := make([]map[string]any, 0, len(users))
	for _, u := range users {
		result = append(result, mapUser(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users": result,
	})
}

func (h *handler) handleUserBugs(w http.ResponseWriter, r *http.Request) {
	bugs, err := h.svc.ListBugsByAssignee(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bugs": mapBugList(bugs),
	})
}
