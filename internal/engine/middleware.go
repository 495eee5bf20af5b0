package engine

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const requestIDContextKey contextKey = "request_id"

// Middleware contains the gateway's HTTP middleware
type Middleware struct {
	engine *Engine
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(engine *Engine) *Middleware {
	return &Middleware{
		engine: engine,
	}
}

// shouldSkipAuth exempts unauthenticated routes
func (m *Middleware) shouldSkipAuth(r *http.Request) bool {
	return r.URL.Path == "/health"
}

// AuthenticationMiddleware gates every request behind the shared-secret
// header: 401 when the key is missing, 403 when it is wrong. The check runs
// before any core component is reached.
func (m *Middleware) AuthenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.shouldSkipAuth(r) {
			next.ServeHTTP(w, r)
			return
		}

		expected := m.engine.config.Get("auth.api_key")
		provided := r.Header.Get("X-API-Key")

		if provided == "" {
			writeErrorResponse(w, http.StatusUnauthorized, "API key is required", "")
			return
		}
		if expected == "" || provided != expected {
			writeErrorResponse(w, http.StatusForbidden, "Invalid API key", "")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequestIDMiddleware assigns each request an id for log correlation
func (m *Middleware) RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggingMiddleware logs every request with its duration
func (m *Middleware) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		requestID, _ := r.Context().Value(requestIDContextKey).(string)
		m.engine.logger.WithFields(map[string]string{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": requestID,
			"duration":   time.Since(start).String(),
		}).Info("Handled request")
	})
}
