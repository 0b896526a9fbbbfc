package service

import (
	"context"
	"strings"

	"github.com/glebovvv/bugtrack/internal/domain"
	"github.com/google/uuid"
)

func (s *Service) CreateTeam(ctx context.Context, name, description string, lead *string, memberIDs []string) (domain.Team, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Team{}, ErrNameRequired
	}

	if lead != nil {
		if _, err := s.repo.GetUser(ctx, *lead); err != nil {
			return domain.Team{}, s.mapRepoErr(err)
		}
	}
	for _, id := range memberIDs {
		if _, err := s.repo.GetUser(ctx, id); err != nil {
			return domain.Team{}, s.mapRepoErr(err)
		}
	}

	team := domain.Team{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Description: description,
		Lead:        lead,
	}
	if err := s.repo.InsertTeam(ctx, team); err != nil {
		return domain.Team{}, s.mapRepoErr(err)
	}

	for _, id := range memberIDs {
		if err := s.repo.AddTeamMember(ctx, team.ID, id); err != nil {
			return domain.Team{}, s.mapRepoErr(err)
		}
	}

	return s.GetTeam(ctx, team.ID)
}

func (s *Service) GetTeam(ctx context.Context, teamID string) (domain.Team, error) {
	team, err := s.repo.GetTeam(ctx, teamID)
	if err != nil {
		return domain.Team{}, s.mapRepoErr(err)
	}
	return team, nil
}

func (s *Service) ListTeams(ctx context.Context) ([]domain.Team, error) {
	return s.repo.ListTeams(ctx)
}

func (s *Service) AddTeamMember(ctx context.Context, teamID, userID string) (domain.Team, error) {
	if _, err := s.repo.GetTeam(ctx, teamID); err != nil {
		return domain.Team{}, s.mapRepoErr(err)
	}
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return domain.Team{}, s.mapRepoErr(err)
	}

	if err := s.repo.AddTeamMember(ctx, teamID, userID); err != nil {
		return domain.Team{}, s.mapRepoErr(err)
	}

	return s.GetTeam(ctx, teamID)
}

func (s *Service) AssignProjectToTeam(ctx context.Context, teamID, projectID string) (domain.Team, error) {
	if _, err := s.repo.GetTeam(ctx, teamID); err != nil {
		return domain.Team{}, s.mapRepoErr(err)
	}
	if _, err := s.repo.GetProject(ctx, nil, projectID); err != nil {
		return domain.Team{}, s.mapRepoErr(err)
	}

	if err := s.repo.AssignTeamProject(ctx, teamID, projectID); err != nil {
		return domain.Team{}, s.mapRepoErr(err)
	}

	return s.GetTeam(ctx, teamID)
}
