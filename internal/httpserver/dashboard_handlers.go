package httpserver

import (
	"net/http"

	"github.com/glebovvv/bugtrack/internal/domain"
)

func (h *handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.svc.Dashboard(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapDashboard(dash))
}

func mapDashboard(d domain.Dashboard) map[string]any {
	recent := make([]map[string]any, 0, len(d.RecentProjects))
	for _, ru := range d.RecentProjects {
		recent = append(recent, mapProject(ru.Project))
	}

	activity := make([]map[string]any, 0, len(d.RecentActivity))
	for _, it := range d.RecentActivity {
		activity = append(activity, map[string]any{
			"kind":       it.Kind,
			"id":         it.ID,
			"project_id": it.ProjectID,
			"title":      it.Title,
			"status":     it.Status,
			"created_at": formatTime(it.CreatedAt),
		})
	}

	teams := make([]map[string]any, 0, len(d.TeamProgress))
	for _, tp := range d.TeamProgress {
		teams = append(teams, map[string]any{
			"team_id":       tp.TeamID,
			"team_name":     tp.TeamName,
			"project_count": tp.ProjectCount,
			"avg_progress":  tp.AvgProgress,
		})
	}

	bugStatus := make(map[string]int, len(d.BugStatus))
	for status, n := range d.BugStatus {
		bugStatus[string(status)] = n
	}
	projectStatus := make(map[string]int, len(d.ProjectStatus))
	for status, n := range d.ProjectStatus {
		projectStatus[string(status)] = n
	}

	return map[string]any{
		"recent_projects": recent,
		"recent_activity": activity,
		"bug_status":      bugStatus,
		"project_status":  projectStatus,
		"team_progress":   teams,
		"totals": map[string]any{
			"projects":     d.TotalProjects,
			"bugs":         d.TotalBugs,
			"teams":        d.TotalTeams,
			"active_users": d.ActiveUsers,
		},
	}
}
