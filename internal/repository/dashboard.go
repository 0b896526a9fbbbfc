package repository

import (
	"context"
	"fmt"

	"github.com/glebovvv/bugtrack/internal/domain"
)

// ListProjectRollups returns up to limit most recent live projects together
// with their live-bug counts; limit <= 0 means all projects.
func (r *Repository) ListProjectRollups(ctx context.Context, limit int) ([]domain.ProjectRollup, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+projectColumns+`,
		       b.total, b.resolved
		FROM projects p,
		LATERAL (
			SELECT COUNT(*) AS total,
			       COUNT(*) FILTER (WHERE status IN ('Resolved', 'Closed')) AS resolved
			FROM bugs
			WHERE project_id = p.project_id AND deleted_at IS NULL
		) b
		WHERE p.deleted_at IS NULL
		ORDER BY p.created_at DESC
		LIMIT NULLIF($1, 0)
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("select project rollups: %w", err)
	}
	defer rows.Close()

	var rollups []domain.ProjectRollup
	for rows.Next() {
		var ru domain.ProjectRollup
		p := &ru.Project
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Status, &p.Progress, &p.Archived,
			&p.CreatedBy, &p.CompletedAt,
			&p.Stats.TotalBugs, &p.Stats.OpenBugs, &p.Stats.ResolvedBugs,
			&p.Stats.PendingReports, &p.Stats.ApprovedReports,
			&p.CreatedAt, &p.UpdatedAt,
			&ru.TotalBugs, &ru.ResolvedBugs,
		); err != nil {
			return nil, fmt.Errorf("scan project rollup: %w", err)
		}
		rollups = append(rollups, ru)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project rollups: %w", err)
	}

	return rollups, nil
}

func (r *Repository) BugStatusCounts(ctx context.Context) (map[domain.BugStatus]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM bugs
		WHERE deleted_at IS NULL
		GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("select bug status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.BugStatus]int)
	for rows.Next() {
		var status domain.BugStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan bug status count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bug status counts: %w", err)
	}

	return counts, nil
}

// ListTeamProgress averages the bug-derived progress of each team's live
// projects. Projects without bugs count as 0 percent.
func (r *Repository) ListTeamProgress(ctx context.Context) ([]domain.TeamProgress, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.team_id, t.name,
		       COUNT(p.project_id),
		       COALESCE(ROUND(AVG(
		           CASE WHEN b.total > 0 THEN b.resolved * 100.0 / b.total ELSE 0 END
		       )), 0)::int
		FROM teams t
		LEFT JOIN team_projects tp ON tp.team_id = t.team_id
		LEFT JOIN projects p ON p.project_id = tp.project_id AND p.deleted_at IS NULL
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS total,
			       COUNT(*) FILTER (WHERE status IN ('Resolved', 'Closed')) AS resolved
			FROM bugs
			WHERE project_id = p.project_id AND deleted_at IS NULL
		) b ON TRUE
		WHERE t.deleted_at IS NULL
		GROUP BY t.team_id, t.name
		ORDER BY t.name
	`)
	if err != nil {
		return nil, fmt.Errorf("select team progress: %w", err)
	}
	defer rows.Close()

	var progress []domain.TeamProgress
	for rows.Next() {
		var tp domain.TeamProgress
		if err := rows.Scan(&tp.TeamID, &tp.TeamName, &tp.ProjectCount, &tp.AvgProgress); err != nil {
			return nil, fmt.Errorf("scan team progress: %w", err)
		}
		progress = append(progress, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team progress: %w", err)
	}

	return progress, nil
}

// ListRecentActivity merges the latest live bugs and reports into one feed
// ordered by creation time.
func (r *Repository) ListRecentActivity(ctx context.Context, limit int) ([]domain.ActivityItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT kind, id, project_id, title, status, created_at
		FROM (
			SELECT 'bug' AS kind, bug_id AS id, project_id, title, status, created_at
			FROM bugs
			WHERE deleted_at IS NULL
			UNION ALL
			SELECT 'report' AS kind, report_id AS id, project_id, title, status, created_at
			FROM reports
			WHERE deleted_at IS NULL
		) activity
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("select recent activity: %w", err)
	}
	defer rows.Close()

	var items []domain.ActivityItem
	for rows.Next() {
		var it domain.ActivityItem
		if err := rows.Scan(&it.Kind, &it.ID, &it.ProjectID, &it.Title, &it.Status, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}

	return items, nil
}

// CountTotals returns the live entity totals shown on the dashboard.
func (r *Repository) CountTotals(ctx context.Context) (projects, bugs, teams, activeUsers int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM projects WHERE deleted_at IS NULL),
		       (SELECT COUNT(*) FROM bugs WHERE deleted_at IS NULL),
		       (SELECT COUNT(*) FROM teams WHERE deleted_at IS NULL),
		       (SELECT COUNT(*) FROM users WHERE deleted_at IS NULL AND is_active)
	`).Scan(&projects, &bugs, &teams, &activeUsers)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("count totals: %w", err)
	}
	return projects, bugs, teams, activeUsers, nil
}
