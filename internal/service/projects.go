package service

import (
	"context"
	"strings"

	"github.com/glebovvv/bugtrack/internal/domain"
	"github.com/google/uuid"
)

func (s *Service) CreateProject(ctx context.Context, name, description, createdBy string) (domain.Project, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Project{}, ErrNameRequired
	}
	if createdBy == "" {
		return domain.Project{}, ErrInvalidInput
	}
	if _, err := s.repo.GetUser(ctx, createdBy); err != nil {
		return domain.Project{}, s.mapRepoErr(err)
	}

	project := domain.Project{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Description: description,
		Status:      domain.ProjectStatusPlanned,
		CreatedBy:   createdBy,
	}
	if err := s.repo.InsertProject(ctx, project); err != nil {
		return domain.Project{}, err
	}

	return s.GetProject(ctx, project.ID)
}

func (s *Service) GetProject(ctx context.Context, projectID string) (domain.Project, error) {
	project, err := s.repo.GetProject(ctx, nil, projectID)
	if err != nil {
		return domain.Project{}, s.mapRepoErr(err)
	}
	return project, nil
}

func (s *Service) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return s.repo.ListProjects(ctx)
}

// ArchiveProject parks a project in the Archived terminal state. Archived
// projects reject new bugs and are skipped by bug-driven derivation.
func (s *Service) ArchiveProject(ctx context.Context, projectID string) (domain.Project, error) {
	if err := s.repo.SetProjectArchived(ctx, projectID, true); err != nil {
		return domain.Project{}, s.mapRepoErr(err)
	}
	return s.GetProject(ctx, projectID)
}

func (s *Service) DeleteProject(ctx context.Context, projectID string) error {
	if err := s.repo.SoftDeleteProject(ctx, projectID); err != nil {
		return s.mapRepoErr(err)
	}
	return nil
}
