package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebovvv/bugtrack/internal/domain"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) InsertTeam(ctx context.Context, t domain.Team) error {
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO teams (team_id, name, description, lead)
		VALUES ($1, $2, $3, $4)
	`, t.ID, t.Name, t.Description, t.Lead); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTeamName
		}
		return fmt.Errorf("insert team: %w", err)
	}
	return nil
}

func (r *Repository) GetTeam(ctx context.Context, teamID string) (domain.Team, error) {
	var t domain.Team
	err := r.pool.QueryRow(ctx, `
		SELECT team_id, name, description, lead, created_at, updated_at
		FROM teams
		WHERE team_id = $1 AND deleted_at IS NULL
	`, teamID).Scan(&t.ID, &t.Name, &t.Description, &t.Lead, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Team{}, ErrTeamNotFound
	}
	if err != nil {
		return domain.Team{}, fmt.Errorf("select team: %w", err)
	}

	members, err := r.listTeamMemberIDs(ctx, teamID)
	if err != nil {
		return domain.Team{}, err
	}
	t.Members = members

	projects, err := r.listTeamProjectIDs(ctx, teamID)
	if err != nil {
		return domain.Team{}, err
	}
	t.Projects = projects

	return t, nil
}

func (r *Repository) listTeamMemberIDs(ctx context.Context, teamID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id FROM team_members
		WHERE team_id = $1
		ORDER BY joined_at
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("select team members: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team members: %w", err)
	}

	return ids, nil
}

func (r *Repository) listTeamProjectIDs(ctx context.Context, teamID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT project_id FROM team_projects
		WHERE team_id = $1
		ORDER BY assigned_at
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("select team projects: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan team project: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team projects: %w", err)
	}

	return ids, nil
}

func (r *Repository) AddTeamMember(ctx context.Context, teamID, userID string) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, teamID, userID)
	if err != nil {
		return fmt.Errorf("insert team member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyMember
	}
	return nil
}

func (r *Repository) AssignTeamProject(ctx context.Context, teamID, projectID string) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO team_projects (team_id, project_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, teamID, projectID)
	if err != nil {
		return fmt.Errorf("insert team project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectAlreadyAssigned
	}
	return nil
}

func (r *Repository) ListTeams(ctx context.Context) ([]domain.Team, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT team_id, name, description, lead, created_at, updated_at
		FROM teams
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		var t domain.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Lead, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}

	return teams, nil
}
