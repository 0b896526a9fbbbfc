package httpserver

import (
	"context"

	"github.com/glebovvv/bugtrack/internal/domain"
)

type Service interface {
	CreateProject(ctx context.Context, name, description, createdBy string) (domain.Project, error)
	GetProject(ctx context.Context, projectID string) (domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	ArchiveProject(ctx context.Context, projectID string) (domain.Project, error)
	DeleteProject(ctx context.Context, projectID string) error
	ResyncProjectStats(ctx context.Context, projectID string) (domain.Project, error)

	CreateBug(ctx context.Context, in domain.CreateBugInput, reporterID string) (domain.Bug, error)
	CreateBugWithReport(ctx context.Context, in domain.CreateBugInput, reporterID string) (domain.Bug, domain.Report, error)
	GetBug(ctx context.Context, bugID string) (domain.Bug, error)
	UpdateBugStatus(ctx context.Context, bugID string, status domain.BugStatus, changedBy string) (domain.Bug, error)
	AssignBug(ctx context.Context, bugID, userID, changedBy string) (domain.Bug, error)
	DeleteBug(ctx context.Context, bugID string) error
	LinkBugs(ctx context.Context, bugID, relatedBugID string) (domain.Bug, domain.Bug, error)
	CreateSubBug(ctx context.Context, parentID string, in domain.CreateBugInput, reporterID string) (domain.Bug, error)
	BugHistory(ctx context.Context, bugID string) ([]domain.BugHistoryEntry, error)
	ListBugsByProject(ctx context.Context, projectID string) ([]domain.Bug, error)
	ListBugsByAssignee(ctx context.Context, userID string) ([]domain.Bug, error)
	ListBugsByTeam(ctx context.Context, teamID string) ([]domain.Bug, error)

	CreateReport(ctx context.Context, in domain.CreateReportInput, reporterID string) (domain.Report, error)
	GetReport(ctx context.Context, reportID string) (domain.Report, error)
	ReviewReport(ctx context.Context, reportID string, in domain.ReviewReportInput, reviewerID string) (domain.Report, error)
	ListReportsByProject(ctx context.Context, projectID string) ([]domain.Report, error)
	DeleteReport(ctx context.Context, reportID string) error

	CreateTeam(ctx context.Context, name, description string, lead *string, memberIDs []string) (domain.Team, error)
	GetTeam(ctx context.Context, teamID string) (domain.Team, error)
	ListTeams(ctx context.Context) ([]domain.Team, error)
	AddTeamMember(ctx context.Context, teamID, userID string) (domain.Team, error)
	AssignProjectToTeam(ctx context.Context, teamID, projectID string) (domain.Team, error)

	CreateUser(ctx context.Context, name, email string, role domain.UserRole) (domain.User, error)
	GetUser(ctx context.Context, userID string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)

	Dashboard(ctx context.Context) (domain.Dashboard, error)
}
