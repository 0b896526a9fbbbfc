package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/glebovvv/bugtrack/internal/domain"
	"github.com/glebovvv/bugtrack/internal/repository"
	"github.com/jackc/pgx/v5"
)

// derivedState is the output of the status derivation: what the project's
// lifecycle fields must be, given its live bug population.
type derivedState struct {
	Status      domain.ProjectStatus
	Progress    int
	CompletedAt *time.Time
}

// deriveProject computes a project's status, progress percentage and
// completion timestamp from its live bug counts. It is a pure function of
// its inputs: recomputing with an unchanged population yields an identical
// result, so it is safe to re-run after races or retries.
//
// Archived and Cancelled are terminal; bug-driven derivation never
// overwrites them. An existing completion timestamp is kept as long as the
// population stays fully resolved and is cleared as soon as a bug reopens.
func deriveProject(status domain.ProjectStatus, completedAt *time.Time, total, resolved int, now time.Time) derivedState {
	if status.Terminal() {
		return derivedState{Status: status, Progress: progressPercent(resolved, total), CompletedAt: completedAt}
	}

	open := total - resolved
	switch {
	case total == 0:
		return derivedState{Status: domain.ProjectStatusPlanned, Progress: 0, CompletedAt: nil}
	case open > 0:
		return derivedState{
			Status:      domain.ProjectStatusInProgress,
			Progress:    progressPercent(resolved, total),
			CompletedAt: nil,
		}
	default:
		if completedAt == nil {
			completedAt = &now
		}
		return derivedState{
			Status:      domain.ProjectStatusCompleted,
			Progress:    100,
			CompletedAt: completedAt,
		}
	}
}

func progressPercent(resolved, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(resolved) / float64(total) * 100))
}

// refreshProject brings a project's cached stats and derived status back
// into agreement with the stored bug/report population. Runs over the given
// transaction when part of a larger unit, or directly on the pool when nil.
func (s *Service) refreshProject(ctx context.Context, tx pgx.Tx, projectID string) error {
	total, resolved, err := s.repo.CountBugPopulation(ctx, tx, projectID)
	if err != nil {
		return err
	}
	pending, approved, err := s.repo.CountReportPopulation(ctx, tx, projectID)
	if err != nil {
		return err
	}

	stats := domain.ProjectStats{
		TotalBugs:       total,
		OpenBugs:        total - resolved,
		ResolvedBugs:    resolved,
		PendingReports:  pending,
		ApprovedReports: approved,
	}
	if err := s.repo.OverwriteProjectStats(ctx, tx, projectID, stats); err != nil {
		return s.mapRepoErr(err)
	}

	project, err := s.repo.GetProject(ctx, tx, projectID)
	if err != nil {
		return s.mapRepoErr(err)
	}

	derived := deriveProject(project.Status, project.CompletedAt, total, resolved, s.now().UTC())
	if err := s.repo.ApplyDerivedState(ctx, tx, projectID, derived.Status, derived.Progress, derived.CompletedAt); err != nil {
		return s.mapRepoErr(err)
	}

	return nil
}

// RecalculateProject re-derives a project's status and progress from its
// live bug population and overwrites the cached stats. Idempotent: it can
// be invoked at any time to repair the cached view.
func (s *Service) RecalculateProject(ctx context.Context, projectID string) (domain.Project, error) {
	if err := s.refreshProject(ctx, nil, projectID); err != nil {
		return domain.Project{}, err
	}
	return s.GetProject(ctx, projectID)
}

// ResyncProjectStats is the authoritative repair operation for the cached
// counters: it recounts everything from the source-of-truth population and
// never derives new counts from the old cached value.
func (s *Service) ResyncProjectStats(ctx context.Context, projectID string) (domain.Project, error) {
	return s.RecalculateProject(ctx, projectID)
}

func (s *Service) mapRepoErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrProjectNotFound):
		return ErrProjectNotFound
	case errors.Is(err, repository.ErrBugNotFound):
		return ErrBugNotFound
	case errors.Is(err, repository.ErrReportNotFound):
		return ErrReportNotFound
	case errors.Is(err, repository.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrDuplicateBugTitle):
		return ErrDuplicateBugTitle
	case errors.Is(err, repository.ErrDuplicateTeamName):
		return ErrDuplicateTeamName
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrDuplicateEmail
	case errors.Is(err, repository.ErrAlreadyMember):
		return ErrAlreadyMember
	case errors.Is(err, repository.ErrProjectAlreadyAssigned):
		return ErrProjectAlreadyAssigned
	case errors.Is(err, repository.ErrReportAlreadyReviewed):
		return ErrReportAlreadyReviewed
	default:
		return err
	}
}
