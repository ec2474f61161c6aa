package middleware

import (
	"fmt"
	"net/http"
)

// CacheControl sets a public max-age on GET and HEAD responses.
func CacheControl(maxAge int) func(http.Handler) http.Handler {
	return cacheHeader(fmt.Sprintf("public, max-age=%d", maxAge))
}

// NoStore marks every response as uncacheable. Used for per-terminal state.
func NoStore() func(http.Handler) http.Handler {
	return cacheHeader("no-store")
}

func cacheHeader(value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if value == "no-store" || r.Method == http.MethodGet || r.Method == http.MethodHead {
				w.Header().Set("Cache-Control", value)
			}
			next.ServeHTTP(w, r)
		})
	}
}
