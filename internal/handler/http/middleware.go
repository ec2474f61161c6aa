package http

import (
	"net/http"
	"strings"

	"github.com/wellknownalpha/bloom-pos/pkg/httputil"
	"github.com/wellknownalpha/bloom-pos/pkg/logger"
	"github.com/wellknownalpha/bloom-pos/pkg/middleware"
)

const maxTerminalIDLength = 128

// RequireTerminalID rejects requests without an X-Terminal-ID header and
// stores the id in the request context. Each terminal owns one checkout
// session.
func RequireTerminalID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(middleware.HeaderTerminalID))
		if id == "" || len(id) > maxTerminalIDLength {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:      "INVALID_INPUT",
					Message:   middleware.HeaderTerminalID + " header is required",
					RequestID: logger.CorrelationIDFromContext(r.Context()),
				},
			})
			return
		}
		ctx := r.Context()
		if logger.TerminalIDFromContext(ctx) != id {
			ctx = logger.WithTerminalID(ctx, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func terminalID(r *http.Request) string {
	return logger.TerminalIDFromContext(r.Context())
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
