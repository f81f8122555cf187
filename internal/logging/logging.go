// Package logging provides structured logging and HTTP client
// instrumentation for outbound point API calls.
package logging

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

// requestIDKey is the context key for request ID.
type requestIDKey struct{}

// RequestIDHeader is the HTTP header name for request ID.
const RequestIDHeader = "X-Request-ID"

// NewLogger creates an slog.Logger based on the environment.
// In production (env == "production"), it returns a JSON handler.
// Otherwise, it returns a text handler for development.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}
	return slog.New(handler)
}

// WithRequestID stores a request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestID returns the request ID from context. Returns empty string if not present.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// requestIDTransport stamps every outbound request with an X-Request-ID
// header so client and server logs can be correlated. A request ID already
// present on the context or the request is reused.
type requestIDTransport struct {
	next http.RoundTripper
}

// RequestIDTransport wraps next with request ID stamping. A nil next uses
// http.DefaultTransport.
func RequestIDTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &requestIDTransport{next: next}
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) == "" {
		id := GetRequestID(req.Context())
		if id == "" {
			id = uuid.New().String()
		}
		// Clone before mutating headers; RoundTrip must not modify the
		// caller's request.
		req = req.Clone(WithRequestID(req.Context(), id))
		req.Header.Set(RequestIDHeader, id)
	}
	return t.next.RoundTrip(req)
}

// loggingTransport logs each outbound request with structured fields:
// method, path, status, latency (ms), and request ID when present.
type loggingTransport struct {
	logger *slog.Logger
	next   http.RoundTripper
}

// LoggingTransport wraps next with request logging. A nil next uses
// http.DefaultTransport.
func LoggingTransport(logger *slog.Logger, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{logger: logger, next: next}
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := t.next.RoundTrip(req)

	latency := time.Since(start).Milliseconds()

	attrs := []slog.Attr{
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int64("latency_ms", latency),
	}
	if id := req.Header.Get(RequestIDHeader); id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		t.logger.LogAttrs(req.Context(), slog.LevelError, "request failed", attrs...)
		return nil, err
	}

	attrs = append(attrs, slog.Int("status", resp.StatusCode))

	// Log at appropriate level based on status code using LogAttrs
	if resp.StatusCode >= 500 {
		t.logger.LogAttrs(req.Context(), slog.LevelError, "request completed", attrs...)
	} else if resp.StatusCode >= 400 {
		t.logger.LogAttrs(req.Context(), slog.LevelWarn, "request completed", attrs...)
	} else {
		t.logger.LogAttrs(req.Context(), slog.LevelInfo, "request completed", attrs...)
	}

	return resp, nil
}
