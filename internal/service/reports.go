package service

import (
	"context"
	"strings"

	"github.com/glebovvv/bugtrack/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateReport files a standalone report in Pending state. No bug exists
// yet; one is created only if the report is later approved.
func (s *Service) CreateReport(ctx context.Context, in domain.CreateReportInput, reporterID string) (domain.Report, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Report{}, ErrTitleRequired
	}
	if in.ProjectID == "" || reporterID == "" {
		return domain.Report{}, ErrInvalidInput
	}

	project, err := s.repo.GetProject(ctx, nil, in.ProjectID)
	if err != nil {
		return domain.Report{}, s.mapRepoErr(err)
	}
	if project.Archived {
		return domain.Report{}, ErrProjectArchived
	}

	report, err := s.repo.InsertReport(ctx, nil, domain.Report{
		ID:               uuid.NewString(),
		ProjectID:        in.ProjectID,
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		StepsToReproduce: in.StepsToReproduce,
		ExpectedResult:   in.ExpectedResult,
		ActualResult:     in.ActualResult,
		Priority:         defaultPriority(in.Priority),
		Severity:         defaultSeverity(in.Severity),
		Status:           domain.ReportStatusPending,
		ReportedBy:       reporterID,
	})
	if err != nil {
		return domain.Report{}, err
	}

	if err := s.refreshProject(ctx, nil, in.ProjectID); err != nil {
		return domain.Report{}, err
	}

	return report, nil
}

// ReviewReport stamps a verdict on a pending report. Approval promotes the
// report into a new bug through the regular creation workflow and binds the
// report to it; the binding is one-way and never changes afterwards.
func (s *Service) ReviewReport(ctx context.Context, reportID string, in domain.ReviewReportInput, reviewerID string) (domain.Report, error) {
	if !domain.ValidReviewStatus(in.Status) {
		return domain.Report{}, ErrInvalidStatus
	}

	report, err := s.repo.GetReport(ctx, reportID)
	if err != nil {
		return domain.Report{}, s.mapRepoErr(err)
	}
	if report.Status != domain.ReportStatusPending {
		return domain.Report{}, ErrReportAlreadyReviewed
	}

	// Promotion and the review stamp commit or roll back together: a
	// failed stamp must not leave an orphan bug behind.
	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var bugID *string
		if in.Status == domain.ReportStatusApproved {
			bug, err := s.insertBugTx(ctx, tx, s.newBugID(), domain.CreateBugInput{
				ProjectID:   report.ProjectID,
				Title:       report.Title,
				Description: report.Description,
				Priority:    report.Priority,
				Severity:    report.Severity,
				AssignedTo:  in.AssignedTo,
			}, report.ReportedBy)
			if err != nil {
				return err
			}
			bugID = &bug.ID
		}

		if err := s.repo.ApplyReview(ctx, tx, reportID, in.Status, in.ReviewComment, reviewerID, s.now().UTC(), bugID); err != nil {
			return s.mapRepoErr(err)
		}
		return s.refreshProject(ctx, tx, report.ProjectID)
	})
	if err != nil {
		return domain.Report{}, err
	}

	return s.GetReport(ctx, reportID)
}

func (s *Service) GetReport(ctx context.Context, reportID string) (domain.Report, error) {
	report, err := s.repo.GetReport(ctx, reportID)
	if err != nil {
		return domain.Report{}, s.mapRepoErr(err)
	}
	return report, nil
}

func (s *Service) ListReportsByProject(ctx context.Context, projectID string) ([]domain.Report, error) {
	if _, err := s.repo.GetProject(ctx, nil, projectID); err != nil {
		return nil, s.mapRepoErr(err)
	}
	return s.repo.ListReportsByProject(ctx, projectID)
}

// DeleteReport soft-deletes a report and repairs the owning project's
// cached counters.
func (s *Service) DeleteReport(ctx context.Context, reportID string) error {
	report, err := s.repo.GetReport(ctx, reportID)
	if err != nil {
		return s.mapRepoErr(err)
	}

	if err := s.repo.SoftDeleteReport(ctx, reportID); err != nil {
		return s.mapRepoErr(err)
	}

	return s.refreshProject(ctx, nil, report.ProjectID)
}
