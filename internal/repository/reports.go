package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebovvv/bugtrack/internal/domain"
	"github.com/jackc/pgx/v5"
)

const reportColumns = `
	report_id, project_id, bug_id, title, description, steps_to_reproduce,
	expected_result, actual_result, priority, severity, status, reported_by,
	reviewed_by, review_comment, reviewed_at, created_at, updated_at`

func scanReport(row pgx.Row) (domain.Report, error) {
	var rep domain.Report
	err := row.Scan(
		&rep.ID, &rep.ProjectID, &rep.BugID, &rep.Title, &rep.Description,
		&rep.StepsToReproduce, &rep.ExpectedResult, &rep.ActualResult,
		&rep.Priority, &rep.Severity, &rep.Status, &rep.ReportedBy,
		&rep.ReviewedBy, &rep.ReviewComment, &rep.ReviewedAt,
		&rep.CreatedAt, &rep.UpdatedAt,
	)
	return rep, err
}

func (r *Repository) InsertReport(ctx context.Context, tx pgx.Tx, rep domain.Report) (domain.Report, error) {
	err := r.db(tx).QueryRow(ctx, `
		INSERT INTO reports (report_id, project_id, bug_id, title, description,
		                     steps_to_reproduce, expected_result, actual_result,
		                     priority, severity, status, reported_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`, rep.ID, rep.ProjectID, rep.BugID, rep.Title, rep.Description,
		rep.StepsToReproduce, rep.ExpectedResult, rep.ActualResult,
		string(rep.Priority), string(rep.Severity), string(rep.Status),
		rep.ReportedBy).Scan(&rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return domain.Report{}, fmt.Errorf("insert report: %w", err)
	}

	return rep, nil
}

func (r *Repository) GetReport(ctx context.Context, reportID string) (domain.Report, error) {
	rep, err := scanReport(r.pool.QueryRow(ctx, `
		SELECT`+reportColumns+`
		FROM reports
		WHERE report_id = $1 AND deleted_at IS NULL
	`, reportID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Report{}, ErrReportNotFound
	}
	if err != nil {
		return domain.Report{}, fmt.Errorf("select report: %w", err)
	}
	return rep, nil
}

func (r *Repository) ListReportsByProject(ctx context.Context, projectID string) ([]domain.Report, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+reportColumns+`
		FROM reports
		WHERE project_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("select reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}

	return reports, nil
}

// ApplyReview stamps the review verdict onto a still-pending report. The
// bug_id is written only when the review promotes the report; once set it is
// never touched again.
func (r *Repository) ApplyReview(ctx context.Context, tx pgx.Tx, reportID string, status domain.ReportStatus, comment, reviewerID string, reviewedAt time.Time, bugID *string) error {
	tag, err := r.db(tx).Exec(ctx, `
		UPDATE reports
		SET status = $2,
		    review_comment = $3,
		    reviewed_by = $4,
		    reviewed_at = $5,
		    bug_id = COALESCE(bug_id, $6),
		    updated_at = NOW()
		WHERE report_id = $1 AND status = 'Pending' AND deleted_at IS NULL
	`, reportID, string(status), comment, reviewerID, reviewedAt, bugID)
	if err != nil {
		return fmt.Errorf("update report review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// The guard eats the row both when the report is gone and when a
		// concurrent review already decided it; tell the two apart.
		var current string
		err := r.db(tx).QueryRow(ctx, `
			SELECT status FROM reports
			WHERE report_id = $1 AND deleted_at IS NULL
		`, reportID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrReportNotFound
		}
		if err != nil {
			return fmt.Errorf("recheck report status: %w", err)
		}
		return ErrReportAlreadyReviewed
	}
	return nil
}

func (r *Repository) SoftDeleteReport(ctx context.Context, reportID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reports
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE report_id = $1 AND deleted_at IS NULL
	`, reportID)
	if err != nil {
		return fmt.Errorf("soft delete report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}
	return nil
}
