package service

import (
	"context"
	"strings"

	"github.com/glebovvv/bugtrack/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateBug runs the transactional creation workflow without a report:
// precondition checks, the bug insert and the owning project's stats and
// status refresh all commit or roll back as one unit.
func (s *Service) CreateBug(ctx context.Context, in domain.CreateBugInput, reporterID string) (domain.Bug, error) {
	bug, _, err := s.createBugAndMaybeReport(ctx, in, reporterID, false)
	return bug, err
}

// CreateBugWithReport additionally inserts the originating report inside
// the same atomic unit. Any failure leaves neither the bug nor the report
// persisted and the project untouched.
func (s *Service) CreateBugWithReport(ctx context.Context, in domain.CreateBugInput, reporterID string) (domain.Bug, domain.Report, error) {
	return s.createBugAndMaybeReport(ctx, in, reporterID, true)
}

// createBugWithID runs the creation workflow for a caller-chosen bug id,
// used by CreateSubBug which needs the id ahead of the ancestry check.
func (s *Service) createBugWithID(ctx context.Context, bugID string, in domain.CreateBugInput, reporterID string) (domain.Bug, error) {
	bug, _, err := s.createBug(ctx, bugID, in, reporterID, false)
	return bug, err
}

func (s *Service) createBugAndMaybeReport(ctx context.Context, in domain.CreateBugInput, reporterID string, withReport bool) (domain.Bug, domain.Report, error) {
	return s.createBug(ctx, s.newBugID(), in, reporterID, withReport)
}

func (s *Service) createBug(ctx context.Context, bugID string, in domain.CreateBugInput, reporterID string, withReport bool) (domain.Bug, domain.Report, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Bug{}, domain.Report{}, ErrTitleRequired
	}
	if in.ProjectID == "" || reporterID == "" {
		return domain.Bug{}, domain.Report{}, ErrInvalidInput
	}

	var (
		bug    domain.Bug
		report domain.Report
	)
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		bug, err = s.insertBugTx(ctx, tx, bugID, in, reporterID)
		if err != nil {
			return err
		}

		if withReport {
			report, err = s.repo.InsertReport(ctx, tx, domain.Report{
				ID:               uuid.NewString(),
				ProjectID:        in.ProjectID,
				BugID:            &bug.ID,
				Title:            bug.Title,
				Description:      in.Description,
				StepsToReproduce: in.StepsToReproduce,
				ExpectedResult:   in.ExpectedResult,
				ActualResult:     in.ActualResult,
				Priority:         bug.Priority,
				Severity:         bug.Severity,
				Status:           domain.ReportStatusPending,
				ReportedBy:       reporterID,
			})
			if err != nil {
				return err
			}
		}

		return s.refreshProject(ctx, tx, in.ProjectID)
	})
	if err != nil {
		return domain.Bug{}, domain.Report{}, err
	}

	// Reload so the response carries the freshly inserted link set.
	bug, err = s.GetBug(ctx, bug.ID)
	if err != nil {
		return domain.Bug{}, domain.Report{}, err
	}

	return bug, report, nil
}

// insertBugTx checks every creation precondition and inserts the bug row
// with its initial history entry. Callers own the surrounding transaction.
func (s *Service) insertBugTx(ctx context.Context, tx pgx.Tx, bugID string, in domain.CreateBugInput, reporterID string) (domain.Bug, error) {
	project, err := s.repo.GetProjectForUpdate(ctx, tx, in.ProjectID)
	if err != nil {
		return domain.Bug{}, s.mapRepoErr(err)
	}
	if project.Archived || project.Status == domain.ProjectStatusArchived {
		return domain.Bug{}, ErrProjectArchived
	}

	taken, err := s.repo.ExistsLiveBugTitle(ctx, tx, in.ProjectID, in.Title)
	if err != nil {
		return domain.Bug{}, err
	}
	if taken {
		return domain.Bug{}, ErrDuplicateBugTitle
	}

	if in.AssignedTo != nil {
		ok, err := s.repo.UserExists(ctx, tx, *in.AssignedTo)
		if err != nil {
			return domain.Bug{}, err
		}
		if !ok {
			return domain.Bug{}, ErrUserNotFound
		}
	}

	if in.ParentBug != nil {
		parent, err := s.repo.GetBug(ctx, *in.ParentBug)
		if err != nil {
			return domain.Bug{}, s.mapRepoErr(err)
		}
		if parent.ProjectID != in.ProjectID {
			return domain.Bug{}, ErrInvalidInput
		}
		cyclic, err := ancestorChainContains(ctx, s.lookupParent, *in.ParentBug, bugID)
		if err != nil {
			return domain.Bug{}, err
		}
		if cyclic {
			return domain.Bug{}, ErrParentCycle
		}
	}

	bug := domain.Bug{
		ID:          bugID,
		ProjectID:   in.ProjectID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      domain.BugStatusOpen,
		Priority:    defaultPriority(in.Priority),
		Severity:    defaultSeverity(in.Severity),
		Tags:        nonNilTags(in.Tags),
		ReportedBy:  reporterID,
		AssignedTo:  in.AssignedTo,
		ParentBug:   in.ParentBug,
		DueDate:     in.DueDate,
	}

	bug, err = s.repo.InsertBug(ctx, tx, bug)
	if err != nil {
		return domain.Bug{}, s.mapRepoErr(err)
	}

	if err := s.repo.AppendBugHistory(ctx, tx, domain.BugHistoryEntry{
		BugID:     bug.ID,
		ChangedBy: reporterID,
		Field:     "status",
		NewValue:  string(domain.BugStatusOpen),
	}); err != nil {
		return domain.Bug{}, err
	}

	for _, relatedID := range in.RelatedBugs {
		if relatedID == bug.ID {
			return domain.Bug{}, ErrSelfLink
		}
		if _, err := s.repo.GetBug(ctx, relatedID); err != nil {
			return domain.Bug{}, s.mapRepoErr(err)
		}
		if err := s.repo.InsertBugLink(ctx, tx, bug.ID, relatedID); err != nil {
			return domain.Bug{}, err
		}
	}

	return bug, nil
}

func (s *Service) GetBug(ctx context.Context, bugID string) (domain.Bug, error) {
	bug, err := s.repo.GetBug(ctx, bugID)
	if err != nil {
		return domain.Bug{}, s.mapRepoErr(err)
	}
	return bug, nil
}

// UpdateBugStatus changes a bug's status, records the change in its history
// and re-derives the owning project. The bug write and the project repair
// are independent; a failed repair can always be retried via resync.
func (s *Service) UpdateBugStatus(ctx context.Context, bugID string, status domain.BugStatus, changedBy string) (domain.Bug, error) {
	if !domain.ValidBugStatus(status) {
		return domain.Bug{}, ErrInvalidStatus
	}

	bug, err := s.repo.GetBug(ctx, bugID)
	if err != nil {
		return domain.Bug{}, s.mapRepoErr(err)
	}
	if bug.Status == status {
		return bug, nil
	}

	resolutionDate := bug.ResolutionDate
	if status == domain.BugStatusResolved {
		now := s.now().UTC()
		resolutionDate = &now
	} else if !status.Resolved() {
		resolutionDate = nil
	}

	if err := s.repo.UpdateBugStatus(ctx, bugID, status, resolutionDate); err != nil {
		return domain.Bug{}, s.mapRepoErr(err)
	}

	if err := s.repo.AppendBugHistory(ctx, nil, domain.BugHistoryEntry{
		BugID:     bugID,
		ChangedBy: changedBy,
		Field:     "status",
		OldValue:  string(bug.Status),
		NewValue:  string(status),
	}); err != nil {
		return domain.Bug{}, err
	}

	if err := s.refreshProject(ctx, nil, bug.ProjectID); err != nil {
		return domain.Bug{}, err
	}

	return s.GetBug(ctx, bugID)
}

func (s *Service) AssignBug(ctx context.Context, bugID, userID, changedBy string) (domain.Bug, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return domain.Bug{}, s.mapRepoErr(err)
	}

	bug, err := s.repo.GetBug(ctx, bugID)
	if err != nil {
		return domain.Bug{}, s.mapRepoErr(err)
	}

	if err := s.repo.SetBugAssignee(ctx, bugID, userID); err != nil {
		return domain.Bug{}, s.mapRepoErr(err)
	}

	oldValue := ""
	if bug.AssignedTo != nil {
		oldValue = *bug.AssignedTo
	}
	if err := s.repo.AppendBugHistory(ctx, nil, domain.BugHistoryEntry{
		BugID:     bugID,
		ChangedBy: changedBy,
		Field:     "assignedTo",
		OldValue:  oldValue,
		NewValue:  userID,
	}); err != nil {
		return domain.Bug{}, err
	}

	return s.GetBug(ctx, bugID)
}

// DeleteBug soft-deletes a bug and repairs the owning project's cached view
// with a full recount, never by decrementing the old counters.
func (s *Service) DeleteBug(ctx context.Context, bugID string) error {
	bug, err := s.repo.GetBug(ctx, bugID)
	if err != nil {
		return s.mapRepoErr(err)
	}

	if err := s.repo.SoftDeleteBug(ctx, bugID); err != nil {
		return s.mapRepoErr(err)
	}

	return s.refreshProject(ctx, nil, bug.ProjectID)
}

func (s *Service) ListBugsByProject(ctx context.Context, projectID string) ([]domain.Bug, error) {
	if _, err := s.repo.GetProject(ctx, nil, projectID); err != nil {
		return nil, s.mapRepoErr(err)
	}
	return s.repo.ListBugsByProject(ctx, projectID)
}

func (s *Service) ListBugsByAssignee(ctx context.Context, userID string) ([]domain.Bug, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, s.mapRepoErr(err)
	}
	return s.repo.ListBugsByAssignee(ctx, userID)
}

func (s *Service) ListBugsByTeam(ctx context.Context, teamID string) ([]domain.Bug, error) {
	if _, err := s.repo.GetTeam(ctx, teamID); err != nil {
		return nil, s.mapRepoErr(err)
	}
	return s.repo.ListBugsByTeam(ctx, teamID)
}

func (s *Service) BugHistory(ctx context.Context, bugID string) ([]domain.BugHistoryEntry, error) {
	if _, err := s.repo.GetBug(ctx, bugID); err != nil {
		return nil, s.mapRepoErr(err)
	}
	return s.repo.ListBugHistory(ctx, bugID)
}

func (s *Service) newBugID() string {
	return uuid.NewString()
}

func defaultPriority(p domain.BugPriority) domain.BugPriority {
	if p == "" {
		return domain.BugPriorityLow
	}
	return p
}

func defaultSeverity(sev domain.BugSeverity) domain.BugSeverity {
	if sev == "" {
		return domain.BugSeverityMinor
	}
	return sev
}

// nonNilTags keeps the tags column non-null: a nil slice would encode as
// SQL NULL rather than an empty array.
func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
