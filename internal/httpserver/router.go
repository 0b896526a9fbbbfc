package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func newRouter(logger *zap.Logger, svc Service) http.Handler {
	h := &handler{
		svc:    svc,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(zapRequestLogger(logger))

	r.Get("/health", h.handleHealth)
	r.Get("/dashboard", h.handleDashboard)

	r.Route("/projects", func(r chi.Router) {
		r.Post("/", h.handleProjectCreate)
		r.Get("/", h.handleProjectList)
		r.Get("/{projectID}", h.handleProjectGet)
		r.Post("/{projectID}/archive", h.handleProjectArchive)
		r.Post("/{projectID}/resync", h.handleProjectResync)
		r.Get("/{projectID}/bugs", h.handleProjectBugs)
		r.Get("/{projectID}/reports", h.handleProjectReports)
		r.Delete("/{projectID}", h.handleProjectDelete)
	})

	r.Route("/bugs", func(r chi.Router) {
		r.Post("/", h.handleBugCreate)
		r.Post("/withReport", h.handleBugCreateWithReport)
		r.Get("/{bugID}", h.handleBugGet)
		r.Patch("/{bugID}/status", h.handleBugStatusUpdate)
		r.Post("/{bugID}/assign", h.handleBugAssign)
		r.Post("/{bugID}/link", h.handleBugLink)
		r.Post("/{bugID}/subBugs", h.handleSubBugCreate)
		r.Get("/{bugID}/history", h.handleBugHistory)
		r.Delete("/{bugID}", h.handleBugDelete)
	})

	r.Route("/reports", func(r chi.Router) {
		r.Post("/", h.handleReportCreate)
		r.Get("/{reportID}", h.handleReportGet)
		r.Post("/{reportID}/review", h.handleReportReview)
		r.Delete("/{reportID}", h.handleReportDelete)
	})

	r.Route("/teams", func(r chi.Router) {
		r.Post("/", h.handleTeamCreate)
		r.Get("/", h.handleTeamList)
		r.Get("/{teamID}", h.handleTeamGet)
		r.Post("/{teamID}/members", h.handleTeamAddMember)
		r.Post("/{teamID}/projects", h.handleTeamAssignProject)
		r.Get("/{teamID}/bugs", h.handleTeamBugs)
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.handleUserCreate)
		r.Get("/", h.handleUserList)
		r.Get("/{userID}", h.handleUserGet)
		r.Get("/{userID}/bugs", h.handleUserBugs)
	})

	return r
}

func zapRequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info(
				"http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
