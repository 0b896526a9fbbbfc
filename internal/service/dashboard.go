package service

import (
	"context"
	"time"

	"github.com/glebovvv/bugtrack/internal/domain"
)

const (
	dashboardRecentProjects = 10
	dashboardRecentActivity = 20
)

// Dashboard assembles the cross-project read model. Project statuses are
// derived from the live bug population at read time; stored statuses are
// used only for the Archived/Cancelled terminal states. The build is
// read-only.
func (s *Service) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	recent, err := s.repo.ListProjectRollups(ctx, dashboardRecentProjects)
	if err != nil {
		return domain.Dashboard{}, err
	}
	now := s.now().UTC()
	for i := range recent {
		applyDerivedRollup(&recent[i], now)
	}

	all, err := s.repo.ListProjectRollups(ctx, 0)
	if err != nil {
		return domain.Dashboard{}, err
	}
	projectStatus := make(map[domain.ProjectStatus]int)
	for i := range all {
		applyDerivedRollup(&all[i], now)
		projectStatus[all[i].Project.Status]++
	}

	bugStatus, err := s.repo.BugStatusCounts(ctx)
	if err != nil {
		return domain.Dashboard{}, err
	}

	teamProgress, err := s.repo.ListTeamProgress(ctx)
	if err != nil {
		return domain.Dashboard{}, err
	}

	activity, err := s.repo.ListRecentActivity(ctx, dashboardRecentActivity)
	if err != nil {
		return domain.Dashboard{}, err
	}

	totalProjects, totalBugs, totalTeams, activeUsers, err := s.repo.CountTotals(ctx)
	if err != nil {
		return domain.Dashboard{}, err
	}

	return domain.Dashboard{
		RecentProjects: recent,
		RecentActivity: activity,
		BugStatus:      bugStatus,
		ProjectStatus:  projectStatus,
		TeamProgress:   teamProgress,
		TotalProjects:  totalProjects,
		TotalBugs:      totalBugs,
		TotalTeams:     totalTeams,
		ActiveUsers:    activeUsers,
	}, nil
}

// applyDerivedRollup overwrites a rollup's display status and progress with
// the values derived from its live bug counts, without writing anything
// back to the store.
func applyDerivedRollup(ru *domain.ProjectRollup, now time.Time) {
	derived := deriveProject(ru.Project.Status, ru.Project.CompletedAt, ru.TotalBugs, ru.ResolvedBugs, now)
	ru.Project.Status = derived.Status
	ru.Project.Progress = derived.Progress
	ru.Project.CompletedAt = derived.CompletedAt
}
