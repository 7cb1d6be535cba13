// Package api provides the HTTP surface for browsing the current timeline.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/reelstitch/reelstitch/internal/http/response"
	"github.com/reelstitch/reelstitch/internal/ratelimit"
	"github.com/reelstitch/reelstitch/internal/service"
)

// Rescan budget per client IP. Each rescan can fan out ffprobe processes,
// so a client gets two quick rescans and then one every thirty seconds.
const (
	rescanRPS   = 1.0 / 30
	rescanBurst = 2
)

// Rescanner rebuilds the timeline from disk and returns the fresh report.
type Rescanner func(ctx context.Context) (*service.Report, error)

// Server holds dependencies for HTTP handlers. It serves snapshots: the
// report swaps wholesale when watch mode or a rescan produces a new one.
type Server struct {
	router  *chi.Mux
	logger  *slog.Logger
	limiter *ratelimit.KeyedRateLimiter
	rescan  Rescanner

	mu     sync.RWMutex
	report *service.Report

	// rescanMu keeps concurrent rescans from stacking ffprobe fan-outs;
	// losers get a 202 instead of queueing.
	rescanMu sync.Mutex
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(rescan Rescanner, logger *slog.Logger) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		logger:  logger,
		limiter: ratelimit.New(rescanRPS, rescanBurst),
		rescan:  rescan,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetReport publishes a fresh report snapshot.
func (s *Server) SetReport(report *service.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = report
}

// currentReport returns the latest snapshot, nil before the first build.
func (s *Server) currentReport() *service.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/timeline", s.handleGetTimeline)
		r.Get("/sessions", s.handleGetSessions)
		r.Get("/report", s.handleGetReport)

		r.With(RateLimitMiddleware(s.limiter, s.logger)).Post("/rescan", s.handleRescan)
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}

// handleGetTimeline returns the entries of the current report.
func (s *Server) handleGetTimeline(w http.ResponseWriter, _ *http.Request) {
	report := s.currentReport()
	if report == nil {
		response.ServiceUnavailable(w, "Timeline not built yet", s.logger)
		return
	}

	response.Success(w, report.Entries, s.logger)
}

// handleGetSessions returns the per-session summaries of the current report.
func (s *Server) handleGetSessions(w http.ResponseWriter, _ *http.Request) {
	report := s.currentReport()
	if report == nil {
		response.ServiceUnavailable(w, "Timeline not built yet", s.logger)
		return
	}

	response.Success(w, report.Sessions, s.logger)
}

// handleGetReport returns the full current report, skips and stats included.
func (s *Server) handleGetReport(w http.ResponseWriter, _ *http.Request) {
	report := s.currentReport()
	if report == nil {
		response.ServiceUnavailable(w, "Timeline not built yet", s.logger)
		return
	}

	response.Success(w, report, s.logger)
}

// handleRescan rebuilds the timeline from disk and publishes the result.
func (s *Server) handleRescan(w http.ResponseWriter, r *http.Request) {
	if !s.rescanMu.TryLock() {
		response.Accepted(w, map[string]string{
			"status": "rescan already running",
		}, s.logger)
		return
	}
	defer s.rescanMu.Unlock()

	report, err := s.rescan(r.Context())
	if err != nil {
		s.logger.Error("rescan failed", "error", err)
		response.HandleError(w, err, s.logger)
		return
	}

	s.SetReport(report)
	response.Success(w, report, s.logger)
}
