package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/wellknownalpha/bloom-pos/pkg/httputil"
	"github.com/wellknownalpha/bloom-pos/pkg/logger"
)

// Header names shared with clients.
const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderTerminalID    = "X-Terminal-ID"
)

// Recovery turns a handler panic into a 500 response and logs the stack.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					l.ErrorContext(r.Context(), "panic recovered",
						slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					)
					httputil.WriteJSON(w, http.StatusInternalServerError, httputil.Response{
						Error: &httputil.ErrorResponse{
							Code:      "INTERNAL_ERROR",
							Message:   "an internal error occurred",
							RequestID: logger.CorrelationIDFromContext(r.Context()),
						},
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogging assigns a correlation ID (taken from X-Correlation-ID when
// present), echoes it in the response and logs one line per request.
func RequestLogging(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			correlationID := r.Header.Get(HeaderCorrelationID)
			if correlationID == "" {
				correlationID = uuid.NewString()
			}
			ctx := logger.WithCorrelationID(r.Context(), correlationID)
			r = r.WithContext(ctx)
			w.Header().Set(HeaderCorrelationID, correlationID)

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			if rec.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			l.Log(ctx, level, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
				slog.Int("bytes", rec.bytes),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("terminal_id", r.Header.Get(HeaderTerminalID)),
				slog.String("correlation_id", correlationID),
			)
		})
	}
}

// RequestLogger stores a logger enriched with correlation_id, terminal_id and
// trace ids in the request context. Mount it after RequestLogging and Tracing.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if id := r.Header.Get(HeaderTerminalID); id != "" && logger.TerminalIDFromContext(ctx) == "" {
				ctx = logger.WithTerminalID(ctx, id)
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
