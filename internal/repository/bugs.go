package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebovvv/bugtrack/internal/domain"
	"github.com/jackc/pgx/v5"
)

const bugColumns = `
	bug_id, project_id, title, description, status, priority, severity, tags,
	reported_by, assigned_to, parent_bug, due_date, resolution_date,
	created_at, updated_at`

func scanBug(row pgx.Row) (domain.Bug, error) {
	var b domain.Bug
	err := row.Scan(
		&b.ID, &b.ProjectID, &b.Title, &b.Description, &b.Status, &b.Priority,
		&b.Severity, &b.Tags, &b.ReportedBy, &b.AssignedTo, &b.ParentBug,
		&b.DueDate, &b.ResolutionDate, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

func (r *Repository) InsertBug(ctx context.Context, tx pgx.Tx, b domain.Bug) (domain.Bug, error) {
	if tx == nil {
		return domain.Bug{}, errTxRequired
	}

	err := tx.QueryRow(ctx, `
		INSERT INTO bugs (bug_id, project_id, title, description, status,
		                  priority, severity, tags, reported_by, assigned_to,
		                  parent_bug, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`, b.ID, b.ProjectID, b.Title, b.Description, string(b.Status),
		string(b.Priority), string(b.Severity), b.Tags, b.ReportedBy,
		b.AssignedTo, b.ParentBug, b.DueDate).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Bug{}, ErrDuplicateBugTitle
		}
		return domain.Bug{}, fmt.Errorf("insert bug: %w", err)
	}

	return b, nil
}

// ExistsLiveBugTitle reports whether a live bug with the same
// case-insensitive title already exists in the project.
func (r *Repository) ExistsLiveBugTitle(ctx context.Context, tx pgx.Tx, projectID, title string) (bool, error) {
	var exists bool
	err := r.db(tx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bugs
			WHERE project_id = $1 AND LOWER(title) = LOWER($2) AND deleted_at IS NULL
		)
	`, projectID, title).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check bug title: %w", err)
	}
	return exists, nil
}

func (r *Repository) GetBug(ctx context.Context, bugID string) (domain.Bug, error) {
	b, err := scanBug(r.pool.QueryRow(ctx, `
		SELECT`+bugColumns+`
		FROM bugs
		WHERE bug_id = $1 AND deleted_at IS NULL
	`, bugID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Bug{}, ErrBugNotFound
	}
	if err != nil {
		return domain.Bug{}, fmt.Errorf("select bug: %w", err)
	}

	linked, err := r.ListLinkedBugIDs(ctx, bugID)
	if err != nil {
		return domain.Bug{}, err
	}
	b.LinkedBugs = linked

	return b, nil
}

func (r *Repository) UpdateBugStatus(ctx context.Context, bugID string, status domain.BugStatus, resolutionDate *time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bugs
		SET status = $2,
		    resolution_date = $3,
		    updated_at = NOW()
		WHERE bug_id = $1 AND deleted_at IS NULL
	`, bugID, string(status), resolutionDate)
	if err != nil {
		return fmt.Errorf("update bug status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBugNotFound
	}
	return nil
}

func (r *Repository) SetBugAssignee(ctx context.Context, bugID, userID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bugs
		SET assigned_to = $2, updated_at = NOW()
		WHERE bug_id = $1 AND deleted_at IS NULL
	`, bugID, userID)
	if err != nil {
		return fmt.Errorf("update bug assignee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBugNotFound
	}
	return nil
}

func (r *Repository) SoftDeleteBug(ctx context.Context, bugID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bugs
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE bug_id = $1 AND deleted_at IS NULL
	`, bugID)
	if err != nil {
		return fmt.Errorf("soft delete bug: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBugNotFound
	}
	return nil
}

// InsertBugLink stores the symmetric edge in both directions. Repeated
// calls on the same pair are no-ops.
func (r *Repository) InsertBugLink(ctx context.Context, tx pgx.Tx, bugID, linkedBugID string) error {
	if _, err := r.db(tx).Exec(ctx, `
		INSERT INTO bug_links (bug_id, linked_bug_id)
		VALUES ($1, $2), ($2, $1)
		ON CONFLICT DO NOTHING
	`, bugID, linkedBugID); err != nil {
		return fmt.Errorf("insert bug link: %w", err)
	}
	return nil
}

func (r *Repository) ListLinkedBugIDs(ctx context.Context, bugID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.linked_bug_id
		FROM bug_links l
		JOIN bugs b ON b.bug_id = l.linked_bug_id
		WHERE l.bug_id = $1 AND b.deleted_at IS NULL
		ORDER BY l.created_at
	`, bugID)
	if err != nil {
		return nil, fmt.Errorf("select linked bugs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan linked bug: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate linked bugs: %w", err)
	}

	return ids, nil
}

func (r *Repository) listBugs(ctx context.Context, where string, args ...any) ([]domain.Bug, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+bugColumns+`
		FROM bugs
		WHERE deleted_at IS NULL AND `+where+`
		ORDER BY created_at DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("select bugs: %w", err)
	}
	defer rows.Close()

	var bugs []domain.Bug
	for rows.Next() {
		b, err := scanBug(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bug: %w", err)
		}
		bugs = append(bugs, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bugs: %w", err)
	}

	return bugs, nil
}

func (r *Repository) ListBugsByProject(ctx context.Context, projectID string) ([]domain.Bug, error) {
	return r.listBugs(ctx, `project_id = $1`, projectID)
}

func (r *Repository) ListBugsByAssignee(ctx context.Context, userID string) ([]domain.Bug, error) {
	return r.listBugs(ctx, `assigned_to = $1`, userID)
}

// ListBugsByTeam returns the live bugs of every project assigned to the team.
func (r *Repository) ListBugsByTeam(ctx context.Context, teamID string) ([]domain.Bug, error) {
	return r.listBugs(ctx, `project_id IN (
		SELECT tp.project_id
		FROM team_projects tp
		JOIN projects p ON p.project_id = tp.project_id AND p.deleted_at IS NULL
		WHERE tp.team_id = $1
	)`, teamID)
}

func (r *Repository) AppendBugHistory(ctx context.Context, tx pgx.Tx, e domain.BugHistoryEntry) error {
	if _, err := r.db(tx).Exec(ctx, `
		INSERT INTO bug_history (bug_id, changed_by, field, old_value, new_value)
		VALUES ($1, $2, $3, $4, $5)
	`, e.BugID, e.ChangedBy, e.Field, e.OldValue, e.NewValue); err != nil {
		return fmt.Errorf("insert bug history: %w", err)
	}
	return nil
}

func (r *Repository) ListBugHistory(ctx context.Context, bugID string) ([]domain.BugHistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT bug_id, changed_by, field, old_value, new_value, changed_at
		FROM bug_history
		WHERE bug_id = $1
		ORDER BY changed_at, id
	`, bugID)
	if err != nil {
		return nil, fmt.Errorf("select bug history: %w", err)
	}
	defer rows.Close()

	var entries []domain.BugHistoryEntry
	for rows.Next() {
		var e domain.BugHistoryEntry
		if err := rows.Scan(&e.BugID, &e.ChangedBy, &e.Field, &e.OldValue, &e.NewValue, &e.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan bug history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bug history: %w", err)
	}

	return entries, nil
}
