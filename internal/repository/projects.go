package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebovvv/bugtrack/internal/domain"
	"github.com/jackc/pgx/v5"
)

const projectColumns = `
	project_id, name, description, status, progress_percentage, archived,
	created_by, completed_at,
	total_bugs, open_bugs, resolved_bugs, pending_reports, approved_reports,
	created_at, updated_at`

func scanProject(row pgx.Row) (domain.Project, error) {
	var p domain.Project
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Status, &p.Progress, &p.Archived,
		&p.CreatedBy, &p.CompletedAt,
		&p.Stats.TotalBugs, &p.Stats.OpenBugs, &p.Stats.ResolvedBugs,
		&p.Stats.PendingReports, &p.Stats.ApprovedReports,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *Repository) InsertProject(ctx context.Context, p domain.Project) error {
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO projects (project_id, name, description, status, created_by)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.Name, p.Description, string(p.Status), p.CreatedBy); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *Repository) GetProject(ctx context.Context, tx pgx.Tx, projectID string) (domain.Project, error) {
	p, err := scanProject(r.db(tx).QueryRow(ctx, `
		SELECT`+projectColumns+`
		FROM projects
		WHERE project_id = $1 AND deleted_at IS NULL
	`, projectID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Project{}, ErrProjectNotFound
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("select project: %w", err)
	}
	return p, nil
}

// GetProjectForUpdate locks the project row for the remainder of the
// transaction so concurrent creation workflows serialize per project.
func (r *Repository) GetProjectForUpdate(ctx context.Context, tx pgx.Tx, projectID string) (domain.Project, error) {
	if tx == nil {
		return domain.Project{}, errTxRequired
	}

	p, err := scanProject(tx.QueryRow(ctx, `
		SELECT`+projectColumns+`
		FROM projects
		WHERE project_id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`, projectID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Project{}, ErrProjectNotFound
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("select project for update: %w", err)
	}
	return p, nil
}

func (r *Repository) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+projectColumns+`
		FROM projects
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("select projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	return projects, nil
}

func (r *Repository) SetProjectArchived(ctx context.Context, projectID string, archived bool) error {
	status := domain.ProjectStatusArchived
	tag, err := r.pool.Exec(ctx, `
		UPDATE projects
		SET archived = $2,
		    status = CASE WHEN $2 THEN $3 ELSE status END,
		    updated_at = NOW()
		WHERE project_id = $1 AND deleted_at IS NULL
	`, projectID, archived, string(status))
	if err != nil {
		return fmt.Errorf("update project archived: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (r *Repository) SoftDeleteProject(ctx context.Context, projectID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE projects
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE project_id = $1 AND deleted_at IS NULL
	`, projectID)
	if err != nil {
		return fmt.Errorf("soft delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// CountBugPopulation counts the live bugs of a project: total and those in
// a resolved state. Soft-deleted bugs never contribute.
func (r *Repository) CountBugPopulation(ctx context.Context, tx pgx.Tx, projectID string) (total, resolved int, err error) {
	err = r.db(tx).QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status IN ('Resolved', 'Closed'))
		FROM bugs
		WHERE project_id = $1 AND deleted_at IS NULL
	`, projectID).Scan(&total, &resolved)
	if err != nil {
		return 0, 0, fmt.Errorf("count bugs: %w", err)
	}
	return total, resolved, nil
}

// CountReportPopulation counts the live pending and approved reports of a
// project.
func (r *Repository) CountReportPopulation(ctx context.Context, tx pgx.Tx, projectID string) (pending, approved int, err error) {
	err = r.db(tx).QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE status = 'Pending'),
		       COUNT(*) FILTER (WHERE status = 'Approved')
		FROM reports
		WHERE project_id = $1 AND deleted_at IS NULL
	`, projectID).Scan(&pending, &approved)
	if err != nil {
		return 0, 0, fmt.Errorf("count reports: %w", err)
	}
	return pending, approved, nil
}

// OverwriteProjectStats replaces the cached counter block wholesale.
func (r *Repository) OverwriteProjectStats(ctx context.Context, tx pgx.Tx, projectID string, stats domain.ProjectStats) error {
	tag, err := r.db(tx).Exec(ctx, `
		UPDATE projects
		SET total_bugs = $2,
		    open_bugs = $3,
		    resolved_bugs = $4,
		    pending_reports = $5,
		    approved_reports = $6,
		    updated_at = NOW()
		WHERE project_id = $1 AND deleted_at IS NULL
	`, projectID, stats.TotalBugs, stats.OpenBugs, stats.ResolvedBugs,
		stats.PendingReports, stats.ApprovedReports)
	if err != nil {
		return fmt.Errorf("update project stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// ApplyDerivedState persists the output of the status derivation.
func (r *Repository) ApplyDerivedState(ctx context.Context, tx pgx.Tx, projectID string, status domain.ProjectStatus, progress int, completedAt *time.Time) error {
	tag, err := r.db(tx).Exec(ctx, `
		UPDATE projects
		SET status = $2,
		    progress_percentage = $3,
		    completed_at = $4,
		    updated_at = NOW()
		WHERE project_id = $1 AND deleted_at IS NULL
	`, projectID, string(status), progress, completedAt)
	if err != nil {
		return fmt.Errorf("update project derived state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}
