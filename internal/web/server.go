// Package web provides the HTTP server and JSON API for the athlete
// import service.
package web

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/crewdeck/roster/internal/config"
	"github.com/crewdeck/roster/internal/importer"
	"github.com/crewdeck/roster/internal/metrics"
	"github.com/crewdeck/roster/internal/roster"
	"github.com/crewdeck/roster/internal/web/middleware"
)

// RosterStore lists persisted athletes for the read API.
type RosterStore interface {
	List(ctx context.Context, limit, offset int) ([]roster.Athlete, error)
	Count(ctx context.Context) (int, error)
}

// Server is the HTTP server for the athlete import application.
type Server struct {
	service  *importer.Service
	store    RosterStore
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
	globalRL *rateLimiter
	uploadRL *rateLimiter
}

// NewServer creates a new Server instance.
func NewServer(service *importer.Service, store RosterStore, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		store:   store,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

	s.router.Use(securityHeaders)
	s.router.Use(metrics.Middleware)

	if s.cfg.Rate.Enabled {
		s.globalRL = newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(s.globalRL.middleware)

		// Uploads get a tighter budget than the rest of the API
		s.uploadRL = newRateLimiter(s.cfg.Rate.ImportLimit, time.Minute)
	}
}

// limitUploads applies the stricter upload rate limit when enabled.
func (s *Server) limitUploads(next http.Handler) http.Handler {
	if s.uploadRL == nil {
		return next
	}
	return s.uploadRL.middleware(next)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/imports/template", s.handleDownloadTemplate)

		r.With(s.limitUploads).Post("/imports", s.handleCreateImport)
		r.Route("/imports/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetImport)
			r.Delete("/", s.handleAbortImport)
			r.With(s.limitUploads).Post("/file", s.handleAttachFile)
			r.Put("/mapping", s.handleUpdateMapping)
			r.Post("/preview", s.handlePreview)
			r.Post("/back", s.handleBack)
			r.Get("/invalid.csv", s.handleExportInvalidRows)
			r.Post("/commit", s.handleCommit)
		})

		r.Get("/athletes", s.handleListAthletes)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its rate limiter janitors.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.globalRL != nil {
		s.globalRL.stop()
	}
	if s.uploadRL != nil {
		s.uploadRL.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		// JSON API only, no script or style sources needed
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// clientIP returns the vetted client address, without the port. TrustedRealIP
// has already rewritten RemoteAddr for requests arriving through a trusted
// proxy; forwarded headers are never read here.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
	done     chan struct{}
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the given rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		done:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute until stop is called.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
		}

		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// stop terminates the cleanup goroutine.
func (rl *rateLimiter) stop() {
	select {
	case <-rl.done:
	default:
		close(rl.done)
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{
			tokens:    rl.rate - 1,
			lastReset: time.Now(),
		}
		return true
	}

	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
//
// Buckets are keyed on r.RemoteAddr, never on forwarded headers: the
// TrustedRealIP middleware has already rewritten RemoteAddr for requests
// from vetted proxies, and anything a client sends directly is spoofable.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			metrics.RateLimitRejects.Inc()
			w.Header().Set("Retry-After", "60")
			respondJSON(w, http.StatusTooManyRequests, errorResponse{Error: importer.RateLimited})
			return
		}

		next.ServeHTTP(w, r)
	})
}
