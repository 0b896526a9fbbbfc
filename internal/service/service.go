package service

import (
	"errors"
	"time"

	"github.com/glebovvv/bugtrack/internal/repository"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrBugNotFound     = errors.New("bug not found")
	ErrReportNotFound  = errors.New("report not found")
	ErrTeamNotFound    = errors.New("team not found")
	ErrUserNotFound    = errors.New("user not found")

	ErrDuplicateBugTitle      = errors.New("bug with same title already exists in this project")
	ErrDuplicateTeamName      = errors.New("team with this name already exists")
	ErrDuplicateEmail         = errors.New("user with this email already exists")
	ErrAlreadyMember          = errors.New("user is already a member of this team")
	ErrProjectAlreadyAssigned = errors.New("project is already assigned to this team")
	ErrReportAlreadyReviewed  = errors.New("report has already been reviewed")

	ErrProjectArchived = errors.New("project is archived")

	ErrTitleRequired = errors.New("title is required")
	ErrNameRequired  = errors.New("name is required")
	ErrInvalidInput  = errors.New("missing required fields")
	ErrInvalidStatus = errors.New("invalid status")
	ErrSelfLink      = errors.New("bug cannot be linked to itself")
	ErrParentCycle   = errors.New("bug cannot appear in its own ancestor chain")
)

type Service struct {
	repo *repository.Repository
	now  func() time.Time
}

func New(repo *repository.Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}
