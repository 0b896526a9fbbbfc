package service_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glebovvv/bugtrack/internal/domain"
	"github.com/glebovvv/bugtrack/internal/migrations"
	"github.com/glebovvv/bugtrack/internal/repository"
	"github.com/glebovvv/bugtrack/internal/service"
)

// These tests need a real Postgres. Point TEST_DATABASE_URL at a disposable
// database to run them; without it the whole file is skipped.
var (
	testPool *pgxpool.Pool
	testSvc  *service.Service
)

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		os.Exit(m.Run())
	}

	ctx := context.Background()

	if err := migrations.Run(ctx, dsn, nil); err != nil {
		log.Fatalf("apply test migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connect to test db: %v", err)
	}
	testPool = pool
	testSvc = service.New(repository.New(pool))

	code := m.Run()
	pool.Close()
	os.Exit(code)
}

// setupTest truncates every table so each test starts from an empty store.
func setupTest(t *testing.T) {
	t.Helper()
	if testSvc == nil {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	_, err := testPool.Exec(context.Background(),
		"TRUNCATE bug_history, bug_links, reports, bugs, team_projects, team_members, projects, teams, users RESTART IDENTITY CASCADE")
	require.NoError(t, err)
}

func seedUser(t *testing.T, name string) domain.User {
	t.Helper()
	user, err := testSvc.CreateUser(context.Background(), name,
		fmt.Sprintf("%s@example.com", name), domain.UserRoleDeveloper)
	require.NoError(t, err)
	return user
}

func seedProject(t *testing.T, name, createdBy string) domain.Project {
	t.Helper()
	project, err := testSvc.CreateProject(context.Background(), name, "", createdBy)
	require.NoError(t, err)
	return project
}

func seedBug(t *testing.T, projectID, title, reporterID string) domain.Bug {
	t.Helper()
	bug, err := testSvc.CreateBug(context.Background(), domain.CreateBugInput{
		ProjectID: projectID,
		Title:     title,
	}, reporterID)
	require.NoError(t, err)
	return bug
}

func TestProjectLifecycleFollowsBugPopulation(t *testing.T) {
	setupTest(t)
	ctx := context.Background()

	user := seedUser(t, "alice")
	project := seedProject(t, "Billing", user.ID)

	assert.Equal(t, domain.ProjectStatusPlanned, project.Status)
	assert.Equal(t, 0, project.Progress)

	first := seedBug(t, project.ID, "Invoice totals wrong", user.ID)
	second := seedBug(t, project.ID, "Currency rounding drift", user.ID)

	// Bugs filed without tags must still persist, with an empty tag list.
	assert.NotNil(t, first.Tags)
	assert.Empty(t, first.Tags)

	project, err := testSvc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectStatusInProgress, project.Status)
	assert.Equal(t, 0, project.Progress)
	assert.Equal(t, 2, project.Stats.TotalBugs)
	assert.Equal(t, 2, project.Stats.OpenBugs)

	_, err = testSvc.UpdateBugStatus(ctx, first.ID, domain.BugStatusResolved, user.ID)
	require.NoError(t, err)

	project, err = testSvc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectStatusInProgress, project.Status)
	assert.Equal(t, 50, project.Progress)

	resolved, err := testSvc.UpdateBugStatus(ctx, second.ID, domain.BugStatusResolved, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, resolved.ResolutionDate)

	project, err = testSvc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectStatusCompleted, project.Status)
	assert.Equal(t, 100, project.Progress)
	require.NotNil(t, project.CompletedAt)

	// Reopening a bug pulls the project back out of Completed.
	reopened, err := testSvc.UpdateBugStatus(ctx, second.ID, domain.BugStatusOpen, user.ID)
	require.NoError(t, err)
	assert.Nil(t, reopened.ResolutionDate)

	project, err = testSvc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectStatusInProgress, project.Status)
	assert.Equal(t, 50, project.Progress)
	assert.Nil(t, project.CompletedAt)
}

func TestDuplicateTitleRollsBackBugAndReport(t *testing.T) {
	setupTest(t)
	ctx := context.Background()

	user := seedUser(t, "bob")
	project := seedProject(t, "Search", user.ID)
	seedBug(t, project.ID, "Crash on empty query", user.ID)

	// Title match is case-insensitive among live bugs of the project.
	_, _, err := testSvc.CreateBugWithReport(ctx, domain.CreateBugInput{
		ProjectID: project.ID,
		Title:     "CRASH ON EMPTY QUERY",
	}, user.ID)
	assert.ErrorIs(t, err, service.ErrDuplicateBugTitle)

	bugs, err := testSvc.ListBugsByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, bugs, 1, "the failed creation must leave no bug behind")

	reports, err := testSvc.ListReportsByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, reports, "the failed creation must leave no report behind")

	project, err = testSvc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, project.Stats.TotalBugs)
	assert.Equal(t, 0, project.Stats.PendingReports)
}

func TestCreateBugWithReportBindsBoth(t *testing.T) {
	setupTest(t)
	ctx := context.Background()

	user := seedUser(t, "carol")
	project := seedProject(t, "Uploads", user.ID)

	bug, report, err := testSvc.CreateBugWithReport(ctx, domain.CreateBugInput{
		ProjectID:        project.ID,
		Title:            "Upload stalls at 99%",
		Priority:         domain.BugPriorityHigh,
		StepsToReproduce: "Upload a file larger than 1 GiB",
	}, user.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.ReportStatusPending, report.Status)
	require.NotNil(t, report.BugID)
	assert.Equal(t, bug.ID, *report.BugID)
	assert.Equal(t, bug.Title, report.Title)
	assert.Equal(t, domain.BugPriorityHigh, report.Priority)

	project, err = testSvc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, project.Stats.TotalBugs)
	assert.Equal(t, 1, project.Stats.PendingReports)
}

func TestLinkBugsSymmetricAndIdempotent(t *testing.T) {
	setupTest(t)
	ctx := context.Background()

	user := seedUser(t, "dave")
	project := seedProject(t, "Auth", user.ID)
	a := seedBug(t, project.ID, "Session expires early", user.ID)
	b := seedBug(t, project.ID, "Refresh token rejected", user.ID)

	left, right, err := testSvc.LinkBugs(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Contains(t, left.LinkedBugs, b.ID)
	assert.Contains(t, right.LinkedBugs, a.ID)

	// Repeating the link in either direction changes nothing.
	_, _, err = testSvc.LinkBugs(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, _, err = testSvc.LinkBugs(ctx, b.ID, a.ID)
	require.NoError(t, err)

	got, err := testSvc.GetBug(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, got.LinkedBugs, 1)

	_, _, err = testSvc.LinkBugs(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, service.ErrSelfLink)
}

func TestCreateSubBugInheritsProjectAndLinksParent(t *testing.T) {
	setupTest(t)
	ctx := context.Background()

	user := seedUser(t, "erin")
	project := seedProject(t, "Gateway", user.ID)
	other := seedProject(t, "Frontend", user.ID)
	parent := seedBug(t, project.ID, "Timeout under load", user.ID)

	child, err := testSvc.CreateSubBug(ctx, parent.ID, domain.CreateBugInput{
		// The project id is taken from the parent even when the caller
		// supplies a different one.
		ProjectID: other.ID,
		Title:     "Connection pool exhausted",
	}, user.ID)
	require.NoError(t, err)

	assert.Equal(t, project.ID, child.ProjectID)
	require.NotNil(t, child.ParentBug)
	assert.Equal(t, parent.ID, *child.ParentBug)
	assert.Contains(t, child.LinkedBugs, parent.ID)

	// A parent from another project is rejected outright.
	stray := seedBug(t, other.ID, "Button misaligned", user.ID)
	_, err = testSvc.CreateBug(ctx, domain.CreateBugInput{
		ProjectID: project.ID,
		Title:     "Cross-project child",
		ParentBug: &stray.ID,
	}, user.ID)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestReviewReportApprovalPromotesToBug(t *testing.T) {
	setupTest(t)
	ctx := context.Background()

	reporter := seedUser(t, "frank")
	reviewer := seedUser(t, "grace")
	project := seedProject(t, "Exports", reporter.ID)

	report, err := testSvc.CreateReport(ctx, domain.CreateReportInput{
		ProjectID:        project.ID,
		Title:            "CSV export drops the header row",
		StepsToReproduce: "Export any non-empty table",
		ExpectedResult:   "Header row present",
		ActualResult:     "Header row missing",
	}, reporter.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusPending, report.Status)
	assert.Nil(t, report.BugID)

	reviewed, err := testSvc.ReviewReport(ctx, report.ID, domain.ReviewReportInput{
		Status:        domain.ReportStatusApproved,
		ReviewComment: "Reproduced",
	}, reviewer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.BugID)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, reviewer.ID, *reviewed.ReviewedBy)

	// The promoted bug carries the report's content and the original reporter.
	bug, err := testSvc.GetBug(ctx, *reviewed.BugID)
	require.NoError(t, err)
	assert.Equal(t, report.Title, bug.Title)
	assert.Equal(t, reporter.ID, bug.ReportedBy)

	// A decided report can not be reviewed again.
	_, err = testSvc.ReviewReport(ctx, report.ID, domain.ReviewReportInput{
		Status: domain.ReportStatusRejected,
	}, reviewer.ID)
	assert.ErrorIs(t, err, service.ErrReportAlreadyReviewed)
}

func TestReviewReportApprovalRollsBackOnConflict(t *testing.T) {
	setupTest(t)
	ctx := context.Background()

	reporter := seedUser(t, "olga")
	reviewer := seedUser(t, "pete")
	project := seedProject(t, "Sync", reporter.ID)

	report, err := testSvc.CreateReport(ctx, domain.CreateReportInput{
		ProjectID: project.ID,
		Title:     "Sync loses edits",
	}, reporter.ID)
	require.NoError(t, err)

	// A live bug already holds the report's title, so promotion must fail.
	blocker := seedBug(t, project.ID, "Sync loses edits", reporter.ID)

	_, err = testSvc.ReviewReport(ctx, report.ID, domain.ReviewReportInput{
		Status: domain.ReportStatusApproved,
	}, reviewer.ID)
	assert.ErrorIs(t, err, service.ErrDuplicateBugTitle)

	// The failed approval left nothing behind: the report is still pending
	// and unbound, and no second bug exists.
	pending, err := testSvc.GetReport(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusPending, pending.Status)
	assert.Nil(t, pending.BugID)

	bugs, err := testSvc.ListBugsByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, bugs, 1)

	// Once the conflict is cleared, the same approval goes through.
	require.NoError(t, testSvc.DeleteBug(ctx, blocker.ID))

	approved, err := testSvc.ReviewReport(ctx, report.ID, domain.ReviewReportInput{
		Status: domain.ReportStatusApproved,
	}, reviewer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusApproved, approved.Status)
	require.NotNil(t, approved.BugID)
}

func TestApplyReviewDistinguishesDecidedFromMissing(t *testing.T) {
	setupTest(t)
	ctx := context.Background()

	reporter := seedUser(t, "quinn")
	reviewer := seedUser(t, "rosa")
	project := seedProject(t, "Cache", reporter.ID)

	report, err := testSvc.CreateReport(ctx, domain.CreateReportInput{
		ProjectID: project.ID,
		Title:     "Stale entries after flush",
	}, reporter.ID)
	require.NoError(t, err)

	repo := repository.New(testPool)
	when := time.Now().UTC()

	require.NoError(t,
		repo.ApplyReview(ctx, nil, report.ID, domain.ReportStatusRejected, "", reviewer.ID, when, nil))

	// A second stamp finds the row decided, not absent.
	err = repo.ApplyReview(ctx, nil, report.ID, domain.ReportStatusApproved, "", reviewer.ID, when, nil)
	assert.ErrorIs(t, err, repository.ErrReportAlreadyReviewed)

	err = repo.ApplyReview(ctx, nil, uuid.NewString(), domain.ReportStatusApproved, "", reviewer.ID, when, nil)
	assert.ErrorIs(t, err, repository.ErrReportNotFound)
}

func TestResyncRepairsDriftedStats(t *testing.T) {
	setupTest(t)
	ctx := context.Background()

	user := seedUser(t, "henry")
	project := seedProject(t, "Payments", user.ID)
	seedBug(t, project.ID, "Double charge on retry", user.ID)
	bug := seedBug(t, project.ID, "Webhook signature mismatch", user.ID)
	_, err := testSvc.UpdateBugStatus(ctx, bug.ID, domain.BugStatusResolved, user.ID)
	require.NoError(t, err)

	// Corrupt the cached counters behind the service's back.
	_, err = testPool.Exec(ctx,
		"UPDATE projects SET total_bugs = 99, open_bugs = 99, resolved_bugs = 0, progress_percentage = 7 WHERE project_id = $1",
		project.ID)
	require.NoError(t, err)

	repaired, err := testSvc.ResyncProjectStats(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, repaired.Stats.TotalBugs)
	assert.Equal(t, 1, repaired.Stats.OpenBugs)
	assert.Equal(t, 1, repaired.Stats.ResolvedBugs)
	assert.Equal(t, 50, repaired.Progress)

	again, err := testSvc.ResyncProjectStats(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, repaired.Stats, again.Stats)
	assert.Equal(t, repaired.Status, again.Status)
	assert.Equal(t, repaired.Progress, again.Progress)
}

func TestArchivedProjectRejectsNewBugs(t *testing.T) {
	setupTest(t)
	ctx := context.Background()

	user := seedUser(t, "irene")
	project := seedProject(t, "Legacy", user.ID)

	archived, err := testSvc.ArchiveProject(ctx, project.ID)
	require.NoError(t, err)
	assert.True(t, archived.Archived)
	assert.Equal(t, domain.ProjectStatusArchived, archived.Status)

	_, err = testSvc.CreateBug(ctx, domain.CreateBugInput{
		ProjectID: project.ID,
		Title:     "One more thing",
	}, user.ID)
	assert.ErrorIs(t, err, service.ErrProjectArchived)
}

func TestDeletedBugLeavesPopulation(t *testing.T) {
	setupTest(t)
	ctx := context.Background()

	user := seedUser(t, "judy")
	project := seedProject(t, "Notifications", user.ID)
	keep := seedBug(t, project.ID, "Email sent twice", user.ID)
	gone := seedBug(t, project.ID, "Push arrives late", user.ID)

	require.NoError(t, testSvc.DeleteBug(ctx, gone.ID))

	_, err := testSvc.GetBug(ctx, gone.ID)
	assert.ErrorIs(t, err, service.ErrBugNotFound)

	bugs, err := testSvc.ListBugsByProject(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, bugs, 1)
	assert.Equal(t, keep.ID, bugs[0].ID)

	project, err = testSvc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, project.Stats.TotalBugs)

	// Title uniqueness only holds among live bugs, so the deleted bug's
	// title is free again.
	_, err = testSvc.CreateBug(ctx, domain.CreateBugInput{
		ProjectID: project.ID,
		Title:     "Push arrives late",
	}, user.ID)
	assert.NoError(t, err)
}

func TestAssignBugRecordsHistory(t *testing.T) {
	setupTest(t)
	ctx := context.Background()

	reporter := seedUser(t, "kate")
	assignee := seedUser(t, "leo")
	project := seedProject(t, "Imports", reporter.ID)
	bug := seedBug(t, project.ID, "Importer skips last row", reporter.ID)

	assigned, err := testSvc.AssignBug(ctx, bug.ID, assignee.ID, reporter.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, assignee.ID, *assigned.AssignedTo)

	mine, err := testSvc.ListBugsByAssignee(ctx, assignee.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, bug.ID, mine[0].ID)

	history, err := testSvc.BugHistory(ctx, bug.ID)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	last := history[len(history)-1]
	assert.Equal(t, "assignedTo", last.Field)
	assert.Equal(t, assignee.ID, last.NewValue)
}

func TestTeamScopedBugListing(t *testing.T) {
	setupTest(t)
	ctx := context.Background()

	lead := seedUser(t, "mona")
	member := seedUser(t, "nick")
	project := seedProject(t, "Core", lead.ID)
	elsewhere := seedProject(t, "Side", lead.ID)

	team, err := testSvc.CreateTeam(ctx, "Platform", "", &lead.ID, []string{lead.ID, member.ID})
	require.NoError(t, err)
	assert.Len(t, team.Members, 2)

	_, err = testSvc.AssignProjectToTeam(ctx, team.ID, project.ID)
	require.NoError(t, err)

	inTeam := seedBug(t, project.ID, "Config reload races", lead.ID)
	seedBug(t, elsewhere.ID, "Unrelated glitch", lead.ID)

	bugs, err := testSvc.ListBugsByTeam(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, bugs, 1)
	assert.Equal(t, inTeam.ID, bugs[0].ID)

	// Bugs of a deleted project drop out of the team view even though the
	// assignment row remains.
	doomed := seedProject(t, "Sunset", lead.ID)
	_, err = testSvc.AssignProjectToTeam(ctx, team.ID, doomed.ID)
	require.NoError(t, err)
	seedBug(t, doomed.ID, "Never shipped", lead.ID)
	require.NoError(t, testSvc.DeleteProject(ctx, doomed.ID))

	bugs, err = testSvc.ListBugsByTeam(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, bugs, 1)
	assert.Equal(t, inTeam.ID, bugs[0].ID)

	_, err = testSvc.AddTeamMember(ctx, team.ID, member.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyMember)

	_, err = testSvc.AssignProjectToTeam(ctx, team.ID, project.ID)
	assert.ErrorIs(t, err, service.ErrProjectAlreadyAssigned)
}
