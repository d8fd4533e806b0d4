// Package api serves the board store over HTTP for the browser canvas.
//
// Routes live under /api and speak JSON. Boards with a password require the
// X-Board-Password header on routes that read or edit their canvas.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Iron-Ham/mindnode/internal/autosave"
	"github.com/Iron-Ham/mindnode/internal/board"
	"github.com/Iron-Ham/mindnode/internal/layout"
	"github.com/Iron-Ham/mindnode/internal/logging"
	"github.com/Iron-Ham/mindnode/internal/metrics"
)

// PasswordHeader carries the password of a locked board.
const PasswordHeader = "X-Board-Password"

// maxBodyBytes bounds request bodies, including pasted plans.
const maxBodyBytes = 10 << 20

// Server routes HTTP requests to a board store.
type Server struct {
	store     *board.Store
	saver     *autosave.Saver
	engine    layout.Engine
	metrics   *metrics.Metrics
	logger    *logging.Logger
	origins   []string
	direction layout.Direction
	now       func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithSaver sets the autosaver used for canvas writes.
func WithSaver(sv *autosave.Saver) Option {
	return func(s *Server) { s.saver = sv }
}

// WithEngine sets the engine used by the stateless layout route.
func WithEngine(e layout.Engine) Option {
	return func(s *Server) { s.engine = e }
}

// WithMetrics enables request metrics and the /metrics route.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the request logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithAllowedOrigins sets the CORS origins.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithDefaultDirection sets the relayout direction used when a request
// does not name one.
func WithDefaultDirection(d layout.Direction) Option {
	return func(s *Server) { s.direction = d }
}

// WithClock sets the clock used for timeline overdue checks.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a server for store. Without WithSaver, a saver with the
// default delay is created and registered as a store flusher.
func New(store *board.Store, opts ...Option) *Server {
	s := &Server{
		store:     store,
		direction: layout.TopToBottom,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NopLogger()
	}
	s.logger = s.logger.WithComponent("api")
	if s.saver == nil {
		s.saver = autosave.New(store, autosave.DefaultDelay, s.logger)
		store.AddFlusher(s.saver)
	}
	if s.engine == nil {
		s.engine = metrics.InstrumentEngine(layout.New(), s.metrics)
	}
	return s
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(instrument(s.metrics))

	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", PasswordHeader},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/boards", func(r chi.Router) {
			r.Get("/", s.listBoards)
			r.Post("/", s.createBoard)

			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", s.deleteBoard)
				r.Post("/duplicate", s.duplicateBoard)
				r.Post("/star", s.starBoard)
				r.Post("/activate", s.activateBoard)

				r.Group(func(r chi.Router) {
					r.Use(s.requireUnlocked)
					r.Get("/", s.getBoard)
					r.Patch("/", s.updateBoard)
					r.Put("/canvas", s.saveCanvas)
					r.Post("/layout", s.relayout)
					r.Post("/connections/{cid}/insert", s.insertNode)
				})
			})
		})

		r.Post("/import", s.importPlan)
		r.Get("/prompt", s.prompt)
		r.Post("/layout", s.layout)

		r.Get("/settings", s.getSettings)
		r.Patch("/settings", s.updateSettings)

		r.Get("/analytics", s.globalAnalytics)
		r.Get("/analytics/{id}", s.boardAnalytics)
		r.Get("/timeline", s.timeline)
		r.Get("/calendar", s.calendar)
	})

	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully and flushes pending canvas writes.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return s.saver.Flush(shutdownCtx)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"boards": len(s.store.Boards()),
	})
}
