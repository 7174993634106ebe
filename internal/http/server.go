// Package http serves the analytics and data-mining pages and the JSON
// endpoints their scripts call. All page state lives server-side in the
// mining session and analytics page; handlers translate requests into
// session operations and project the resulting state back as JSON.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"hamsterwallet/internal/analytics"
	"hamsterwallet/internal/items"
	applog "hamsterwallet/internal/log"
	"hamsterwallet/internal/mining"
	"hamsterwallet/internal/upstream"
	appweb "hamsterwallet/web"
)

type Server struct {
	http.Server
	templates *template.Template

	session *mining.Session
	page    *analytics.Page
	editor  *items.Editor

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server. The mining session and analytics page are owned by the
// caller so they can be primed before the listener starts.
func NewServer(addr string, backend upstream.Backend, session *mining.Session, page *analytics.Page) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		session:     session,
		page:        page,
		editor:      items.NewEditor(backend),
		rateLimiter: newRateLimiter(),
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	// Pages
	mux.HandleFunc("GET /{$}", s.withMiddleware(s.handleMiningPage))
	mux.HandleFunc("GET /analytics", s.withMiddleware(s.handleAnalyticsPage))

	// Data-mining session
	mux.HandleFunc("GET /api/mining/state", s.withMiddleware(s.handleMiningState))
	mux.HandleFunc("POST /api/mining/filter", s.withMiddleware(s.handleMiningFilter))
	mux.HandleFunc("POST /api/mining/navigate", s.withMiddleware(s.handleNavigate))
	mux.HandleFunc("POST /api/mining/back", s.withMiddleware(s.handleNavigateBack))
	mux.HandleFunc("POST /api/mining/level", s.withMiddleware(s.handleNavigateLevel))
	mux.HandleFunc("POST /api/mining/toggle", s.withMiddleware(s.handleToggle))
	mux.HandleFunc("POST /api/mining/deselect", s.withMiddleware(s.handleDeselect))
	mux.HandleFunc("POST /api/mining/clear", s.withMiddleware(s.handleClearSelection))

	// Comparison groups
	mux.HandleFunc("GET /api/mining/groups", s.withMiddleware(s.handleListGroups))
	mux.HandleFunc("POST /api/mining/groups", s.withMiddleware(s.handleCreateGroup))
	mux.HandleFunc("POST /api/mining/groups/{id}/save", s.withMiddleware(s.handleSaveGroup))
	mux.HandleFunc("POST /api/mining/groups/{id}/edit", s.withMiddleware(s.handleStartEdit))
	mux.HandleFunc("POST /api/mining/groups/{id}/commit", s.withMiddleware(s.handleCommitEdit))
	mux.HandleFunc("POST /api/mining/edit/cancel", s.withMiddleware(s.handleCancelEdit))
	mux.HandleFunc("DELETE /api/mining/groups/{id}", s.withMiddleware(s.handleDeleteGroup))
	mux.HandleFunc("POST /api/mining/groups/{id}/refresh", s.withMiddleware(s.handleRefreshGroup))

	// Chart + detail panel
	mux.HandleFunc("GET /api/mining/chart", s.withMiddleware(s.handleChart))
	mux.HandleFunc("GET /api/mining/groups/{id}/points/{date}", s.withMiddleware(s.handlePointDetails))

	// Analytics page
	mux.HandleFunc("GET /api/analytics/state", s.withMiddleware(s.handleAnalyticsState))
	mux.HandleFunc("POST /api/analytics/filter", s.withMiddleware(s.handleAnalyticsFilter))
	mux.HandleFunc("POST /api/analytics/drill", s.withMiddleware(s.handleDrill))
	mux.HandleFunc("POST /api/analytics/level", s.withMiddleware(s.handleAnalyticsLevel))
	mux.HandleFunc("POST /api/analytics/daily", s.withMiddleware(s.handleDailyItems))
	mux.HandleFunc("GET /api/analytics/list", s.withMiddleware(s.handleFilteredList))

	// Item editor
	mux.HandleFunc("GET /api/items/{id}", s.withMiddleware(s.handleGetItem))
	mux.HandleFunc("PUT /api/items/{id}", s.withMiddleware(s.handleUpdateItem))

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, rate limiting, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		// Mutating requests are rate limited per client.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldComponent, applog.ComponentHTTP,
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com https://cdn.jsdelivr.net; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatus, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMiningPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "mining.html")
}

func (s *Server) handleAnalyticsPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "analytics.html")
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, name string) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, nil); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", applog.FieldError, err, "template", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
