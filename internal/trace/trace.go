// Package trace correlates outbound backend requests. A request ID travels in
// the context, is sent as X-Request-ID and appears in every related log line.
package trace

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"aruskas/internal/log"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"

	HeaderRequestID = "X-Request-ID"
)

// NewRequestID returns a fresh request ID.
func NewRequestID() string {
	return "req_" + uuid.NewString()
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extracts the request ID from ctx, or "" when there is none.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Ensure returns ctx carrying a request ID, adding one when missing.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := RequestID(ctx); id != "" {
		return ctx, id
	}
	id := NewRequestID()
	return WithRequestID(ctx, id), id
}

// Metrics tracks outbound request counts.
type Metrics struct {
	TotalRequests       int64
	FailedRequests      int64
	AverageResponseTime int64 // in microseconds, of the last request
}

// Transport stamps X-Request-ID on every request and logs its outcome at a
// level chosen by status code.
type Transport struct {
	next    http.RoundTripper
	logger  *log.Logger
	metrics Metrics
}

func NewTransport(next http.RoundTripper, logger *log.Logger) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Transport{next: next, logger: logger}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, requestID := Ensure(req.Context())
	req = req.Clone(ctx)
	req.Header.Set(HeaderRequestID, requestID)

	start := time.Now()
	atomic.AddInt64(&t.metrics.TotalRequests, 1)
	resp, err := t.next.RoundTrip(req)
	duration := time.Since(start)
	atomic.StoreInt64(&t.metrics.AverageResponseTime, duration.Microseconds())

	if err != nil {
		atomic.AddInt64(&t.metrics.FailedRequests, 1)
		t.logger.ErrorContext(ctx, "Backend request failed",
			log.FieldRequestID, requestID,
			"method", req.Method,
			"path", req.URL.Path,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldError, err.Error())
		return nil, err
	}

	level := slog.LevelDebug
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		level = slog.LevelWarn
	} else if resp.StatusCode >= 500 {
		level = slog.LevelError
	}
	if resp.StatusCode >= 400 {
		atomic.AddInt64(&t.metrics.FailedRequests, 1)
	}
	t.logger.Log(ctx, level, "Backend request completed",
		log.FieldRequestID, requestID,
		"method", req.Method,
		"path", req.URL.Path,
		"query", req.URL.RawQuery,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, duration.Milliseconds())
	return resp, nil
}

// Metrics returns a snapshot of the counters.
func (t *Transport) Metrics() Metrics {
	return Metrics{
		TotalRequests:       atomic.LoadInt64(&t.metrics.TotalRequests),
		FailedRequests:      atomic.LoadInt64(&t.metrics.FailedRequests),
		AverageResponseTime: atomic.LoadInt64(&t.metrics.AverageResponseTime),
	}
}
