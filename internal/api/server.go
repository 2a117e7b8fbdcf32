// Package api exposes the assistant over HTTP: JSON endpoints for
// session management and an SSE endpoint for streamed replies.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/fikrfree/assistant/internal/bot"
	"github.com/fikrfree/assistant/pkg/observability"
)

// Server wires the assistant to an HTTP router.
type Server struct {
	assistant *bot.Assistant
	feedback  *FeedbackLog
	health    *observability.HealthChecker
	logger    zerolog.Logger
	limiter   *rate.Limiter
}

// ServerOptions configures the HTTP surface.
type ServerOptions struct {
	Assistant *bot.Assistant
	Feedback  *FeedbackLog
	Health    *observability.HealthChecker
	Logger    zerolog.Logger

	// RateLimit is requests per second across the chat endpoints;
	// RateBurst the bucket size. Zero disables limiting.
	RateLimit float64
	RateBurst int
}

// NewServer builds the server and its router.
func NewServer(opts ServerOptions) *Server {
	s := &Server{
		assistant: opts.Assistant,
		feedback:  opts.Feedback,
		health:    opts.Health,
		logger:    opts.Logger,
	}
	if opts.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateBurst)
	}
	return s
}

// Router assembles all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.healthHandler())
	r.Handle("/metrics", observability.MetricsHandler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.rateLimit)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Post("/messages", s.handleSendMessage)
			r.Get("/history", s.handleHistory)
			r.Get("/info", s.handleInfo)
			r.Delete("/", s.handleDeleteSession)
		})
		r.Get("/stats", s.handleStats)
		r.Post("/translate", s.handleTranslate)
		r.Post("/feedback", s.handleFeedback)
	})

	return r
}

func (s *Server) healthHandler() http.HandlerFunc {
	if s.health != nil {
		return s.health.Handler()
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}
}

// logRequests emits one structured line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		observability.RecordHTTPRequest(r.Method, routePattern(r), statusLabel(ww.Status()), duration)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", duration).
			Msg("request")
	})
}

// rateLimit applies the shared token bucket to the API routes.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func statusLabel(code int) string {
	if code == 0 {
		code = http.StatusOK
	}
	return strconv.Itoa(code)
}
