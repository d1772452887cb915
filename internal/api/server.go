// Package api serves the read-only HTTP view of the stats engine.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"bet-tracker-bot/internal/model"
	"bet-tracker-bot/internal/service"
)

// Pinger reports backend health.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// PickReader looks up a single pick by its full id.
// repository.PickRepository is the production implementation.
type PickReader interface {
	GetByID(ctx context.Context, id string) (*model.Pick, error)
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	stats   *service.StatsService
	picks   PickReader
	db      Pinger
	metrics http.Handler
	maxRows int
}

// NewServer creates a new Server. metrics may be nil to omit /metrics.
func NewServer(stats *service.StatsService, picks PickReader, db Pinger, metrics http.Handler, maxRows int) *Server {
	if maxRows <= 0 {
		maxRows = 100
	}
	return &Server{
		stats:   stats,
		picks:   picks,
		db:      db,
		metrics: metrics,
		maxRows: maxRows,
	}
}

// Router returns the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.healthCheck)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats/{user}", s.getUserStats)
		r.Get("/group", s.getGroupSummary)
		r.Get("/leaderboard", s.getLeaderboard)
		r.Get("/ranking", s.getRanking)
		r.Get("/overview", s.getOverview)
		r.Get("/picks/{id}", s.getPick)
	})

	return r
}

// requestLogger logs one line per request through zerolog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		log.Debug().
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
