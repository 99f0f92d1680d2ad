package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/liftlog/internal/ingest/alpha"
	lmcp "github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/tracker"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	tracker *tracker.Service
	alpha   *alpha.Provider
	metrics *metrics.Manager
	log     *slog.Logger
	apiKey  string
	whois   whoIser
	router  chi.Router
	api     chi.Router
}

// New creates a new Server with all routes configured. Identity defaults to
// the local dev user until SetTailscale is called.
func New(svc *tracker.Service, alphaProvider *alpha.Provider, m *metrics.Manager, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		tracker: svc,
		alpha:   alphaProvider,
		metrics: m,
		log:     log,
		apiKey:  apiKey,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	if s.metrics != nil {
		s.router.Use(Instrument(s.metrics))
	}
	s.router.Use(CORS)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Use(s.identify)
		s.api = r

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/me", s.handleMe)

			r.Route("/exercises", func(r chi.Router) {
				r.Get("/", s.handleListExercises)
				r.Post("/", s.handleCreateExercise)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetExercise)
					r.Patch("/", s.handleUpdateExercise)
					r.Delete("/", s.handleDeleteExercise)
					r.Put("/unit", s.handleChangeUnit)
					r.Get("/stats", s.handleExerciseStats)
					r.Post("/stats/rebuild", s.handleRebuildStats)
					r.Get("/progression", s.handleProgression)
				})
			})

			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", s.handleListSessions)
				r.Post("/", s.handleStartSession)
				r.Post("/skip", s.handleSkipSession)
				r.Get("/{id}", s.handleGetSession)
				r.Post("/{id}/complete", s.handleCompleteSession)
				r.Get("/{id}/sets", s.handleSessionSets)
			})

			r.Post("/sets", s.handleAddSet)
			r.Delete("/sets/{id}", s.handleDeleteSet)

			r.Post("/import/alpha", s.handleAlphaImport)
		})
	})
}

// SetMCP mounts a streamable MCP handler at /mcp. Tool calls run as the
// identity resolved for the request.
func (s *Server) SetMCP(h http.Handler) {
	s.api.Handle("/mcp", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := lmcp.WithUserID(r.Context(), userIDFromContext(r))
		h.ServeHTTP(w, r.WithContext(ctx))
	}))
}

// SetMetricsHandler exposes a Prometheus scrape endpoint at /metrics.
func (s *Server) SetMetricsHandler(h http.Handler) {
	s.router.Handle("/metrics", h)
}
