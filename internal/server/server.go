package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/calilog/internal/interval"
	"github.com/claude/calilog/internal/models"
	"github.com/claude/calilog/internal/program"
)

// Store is the repository the HTTP API runs workouts against.
type Store interface {
	program.Repository
	interval.Repository
	ListExercises(ctx context.Context) ([]models.Exercise, error)
	ListPrograms(ctx context.Context) ([]models.Program, error)
	ListIntervalPrograms(ctx context.Context) ([]models.IntervalProgram, error)
	ListIntervalRecords(ctx context.Context, limit int) ([]models.IntervalRecord, error)
	GetDataStats(ctx context.Context) (*models.DataStats, error)
}

// Defaults configures every run created through the API.
type Defaults struct {
	Program  program.Settings
	Interval interval.Settings
	Runner   program.Options
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    Store
	defaults Defaults
	runs     *registry
	log      *slog.Logger
	apiKey   string
	router   chi.Router
}

// New creates a new Server with all routes configured. An empty apiKey
// leaves the API unauthenticated.
func New(store Store, defaults Defaults, apiKey string, log *slog.Logger) *Server {
	if defaults.Runner.Logger == nil {
		defaults.Runner.Logger = log
	}
	s := &Server{
		store:    store,
		defaults: defaults,
		runs:     newRegistry(log),
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetMCP mounts an MCP transport under /mcp, behind the API key when one
// is configured.
func (s *Server) SetMCP(h http.Handler) {
	s.router.Group(func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(APIKeyAuth(s.apiKey))
		}
		r.Handle("/mcp", h)
	})
}

// Close discards every run that is still open.
func (s *Server) Close() {
	s.runs.closeAll()
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(APIKeyAuth(s.apiKey))
		}
		r.Get("/exercises", s.handleListExercises)
		r.Get("/exercises/{exerciseID}/latest-session", s.handleLatestSession)
		r.Get("/programs", s.handleListPrograms)
		r.Get("/programs/{programID}", s.handleGetProgram)
		r.Get("/programs/{programID}/exercises", s.handleGetProgramExercises)
		r.Get("/interval-programs", s.handleListIntervalPrograms)
		r.Get("/interval-records", s.handleListIntervalRecords)
		r.Get("/stats", s.handleStats)

		r.Post("/runs/program/{programID}", s.handleCreateProgramRun)
		r.Post("/runs/interval/{programID}", s.handleCreateIntervalRun)
		r.Get("/runs/{runID}", s.handleGetRun)
		r.Post("/runs/{runID}/{action}", s.handleRunAction)
		r.Delete("/runs/{runID}", s.handleDeleteRun)
	})
}
