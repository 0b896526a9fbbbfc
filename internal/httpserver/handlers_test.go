package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/glebovvv/bugtrack/internal/domain"
	"github.com/glebovvv/bugtrack/internal/service"
)

// stubService implements the parts of the port a test needs; anything not
// overridden panics through the embedded nil interface.
type stubService struct {
	Service

	createBugFn func(ctx context.Context, in domain.CreateBugInput, reporterID string) (domain.Bug, error)
	getBugFn    func(ctx context.Context, bugID string) (domain.Bug, error)
	getProjFn   func(ctx context.Context, projectID string) (domain.Project, error)
	linkBugsFn  func(ctx context.Context, bugID, relatedBugID string) (domain.Bug, domain.Bug, error)
}

func (s *stubService) CreateBug(ctx context.Context, in domain.CreateBugInput, reporterID string) (domain.Bug, error) {
	return s.createBugFn(ctx, in, reporterID)
}

func (s *stubService) GetBug(ctx context.Context, bugID string) (domain.Bug, error) {
	return s.getBugFn(ctx, bugID)
}

func (s *stubService) GetProject(ctx context.Context, projectID string) (domain.Project, error) {
	return s.getProjFn(ctx, projectID)
}

func (s *stubService) LinkBugs(ctx context.Context, bugID, relatedBugID string) (domain.Bug, domain.Bug, error) {
	return s.linkBugsFn(ctx, bugID, relatedBugID)
}

func newTestServer(t *testing.T, svc Service) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newRouter(zap.NewNop(), svc))
	t.Cleanup(srv.Close)
	return srv
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrProjectNotFound, http.StatusNotFound, "NOT_FOUND"},
		{service.ErrBugNotFound, http.StatusNotFound, "NOT_FOUND"},
		{service.ErrUserNotFound, http.StatusNotFound, "NOT_FOUND"},
		{service.ErrTitleRequired, http.StatusBadRequest, "VALIDATION"},
		{service.ErrSelfLink, http.StatusBadRequest, "VALIDATION"},
		{service.ErrParentCycle, http.StatusBadRequest, "VALIDATION"},
		{service.ErrDuplicateBugTitle, http.StatusConflict, "CONFLICT"},
		{service.ErrReportAlreadyReviewed, http.StatusConflict, "CONFLICT"},
		{service.ErrProjectArchived, http.StatusConflict, "PROJECT_ARCHIVED"},
		{errors.New("pool exhausted"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.err.Error(), func(t *testing.T) {
			status, code := mapServiceError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestBugCreateReturnsCreated(t *testing.T) {
	svc := &stubService{
		createBugFn: func(_ context.Context, in domain.CreateBugInput, reporterID string) (domain.Bug, error) {
			return domain.Bug{
				ID:         "bug-1",
				ProjectID:  in.ProjectID,
				Title:      in.Title,
				Status:     domain.BugStatusOpen,
				Priority:   domain.BugPriorityLow,
				Severity:   domain.BugSeverityMinor,
				ReportedBy: reporterID,
			}, nil
		},
	}
	srv := newTestServer(t, svc)

	resp, err := http.Post(srv.URL+"/bugs", "application/json", strings.NewReader(
		`{"project_id":"proj-1","title":"Login loops forever","reported_by":"user-1"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	bug, ok := body["bug"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "bug-1", bug["bug_id"])
	assert.Equal(t, "Login loops forever", bug["title"])
	assert.Equal(t, "Open", bug["status"])
}

func TestBugCreateRejectsMissingFields(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	resp, err := http.Post(srv.URL+"/bugs", "application/json", strings.NewReader(
		`{"title":"No project"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION", errObj["code"])
}

func TestBugCreateRejectsUnknownFields(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	resp, err := http.Post(srv.URL+"/bugs", "application/json", strings.NewReader(
		`{"project_id":"p","title":"t","reported_by":"u","surprise":true}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestBugCreateRejectsBadDueDate(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	resp, err := http.Post(srv.URL+"/bugs", "application/json", strings.NewReader(
		`{"project_id":"p","title":"t","reported_by":"u","due_date":"tomorrow"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestBugGetNotFound(t *testing.T) {
	svc := &stubService{
		getBugFn: func(context.Context, string) (domain.Bug, error) {
			return domain.Bug{}, service.ErrBugNotFound
		},
	}
	srv := newTestServer(t, svc)

	resp, err := http.Get(srv.URL + "/bugs/missing")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	body := decodeBody(t, resp)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", errObj["code"])
}

func TestBugLinkConflictOnSelf(t *testing.T) {
	svc := &stubService{
		linkBugsFn: func(context.Context, string, string) (domain.Bug, domain.Bug, error) {
			return domain.Bug{}, domain.Bug{}, service.ErrSelfLink
		},
	}
	srv := newTestServer(t, svc)

	resp, err := http.Post(srv.URL+"/bugs/bug-1/link", "application/json", strings.NewReader(
		`{"related_bug_id":"bug-1"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestProjectGetResponseShape(t *testing.T) {
	svc := &stubService{
		getProjFn: func(_ context.Context, projectID string) (domain.Project, error) {
			return domain.Project{
				ID:        projectID,
				Name:      "Billing",
				Status:    domain.ProjectStatusInProgress,
				Progress:  50,
				CreatedBy: "user-1",
				Stats: domain.ProjectStats{
					TotalBugs:    2,
					OpenBugs:     1,
					ResolvedBugs: 1,
				},
			}, nil
		},
	}
	srv := newTestServer(t, svc)

	resp, err := http.Get(srv.URL + "/projects/proj-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "proj-1", body["project_id"])
	assert.Equal(t, "In Progress", body["status"])
	assert.Equal(t, float64(50), body["progress_percentage"])
	assert.NotContains(t, body, "completed_at")

	stats, ok := body["stats"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), stats["total_bugs"])
	assert.Equal(t, float64(1), stats["open_bugs"])
}
