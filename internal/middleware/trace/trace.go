// Package trace assigns request IDs, logs request completion and records
// HTTP metrics.
package trace

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"smartspend/internal/log"
	"smartspend/internal/metrics"
)

type contextKey struct{}

// HeaderRequestID is echoed back on every response.
const HeaderRequestID = "X-Request-ID"

type Middleware struct {
	logger    *log.Logger
	metrics   *metrics.Metrics
	extractIP func(*http.Request) string
}

func NewMiddleware(logger *log.Logger, m *metrics.Metrics, extractIP func(*http.Request) string) *Middleware {
	return &Middleware{logger: logger, metrics: m, extractIP: extractIP}
}

// Middleware returns HTTP middleware for request tracing. An incoming
// X-Request-ID is reused when it parses as a UUID. Handlers find a logger
// carrying the request ID through log.FromContext.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := WithRequestID(r.Context(), requestID)
		if m.logger != nil {
			ctx = log.IntoContext(ctx, m.logger.With(log.FieldRequestID, requestID))
		}
		r = r.WithContext(ctx)
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		// ServeMux records the matched pattern on the request it was given.
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.metrics.HTTPRequest(r.Method, route, rw.statusCode, duration)

		if m.logger == nil {
			return
		}
		level := slog.LevelInfo
		if rw.statusCode >= 500 {
			level = slog.LevelError
		} else if rw.statusCode >= 400 {
			level = slog.LevelWarn
		}

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}
		fields := log.NewFields().
			WithRequestID(requestID).
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
			WithHTTPResponse(rw.statusCode, duration.Milliseconds())
		fields[log.FieldRoute] = route
		fields[log.FieldClientIP] = clientIP
		fields[log.FieldDurationHuman] = duration.String()

		m.logger.Log(r.Context(), level, "HTTP request completed", fields.ToSlice()...)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	return uuid.NewString()
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

// RequestID returns the request ID of r.
func RequestID(r *http.Request) string {
	return GetRequestID(r.Context())
}
