package service

import (
	"context"
	"strings"

	"github.com/glebovvv/bugtrack/internal/domain"
	"github.com/google/uuid"
)

func (s *Service) CreateUser(ctx context.Context, name, email string, role domain.UserRole) (domain.User, error) {
	if strings.TrimSpace(name) == "" {
		return domain.User{}, ErrNameRequired
	}
	if strings.TrimSpace(email) == "" {
		return domain.User{}, ErrInvalidInput
	}
	if role == "" {
		role = domain.UserRoleDeveloper
	}

	user := domain.User{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(name),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Role:     role,
		IsActive: true,
	}
	if err := s.repo.InsertUser(ctx, user); err != nil {
		return domain.User{}, s.mapRepoErr(err)
	}

	return s.GetUser(ctx, user.ID)
}

func (s *Service) GetUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, s.mapRepoErr(err)
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.ListUsers(ctx)
}
