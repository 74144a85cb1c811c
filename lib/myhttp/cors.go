package myhttp

import (
	"net/http"
	"strings"
)

// CORSMiddleware restricts browser access to the configured storefront
// origins. The operator-facing order viewer uses AllowAllOrigins instead.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return corsMiddleware(func(origin string) string {
		for _, allowed := range allowedOrigins {
			if strings.EqualFold(origin, allowed) {
				return allowed
			}
		}
		if len(allowedOrigins) > 0 {
			return allowedOrigins[0]
		}
		return ""
	})
}

func AllowAllOriginsMiddleware() func(http.Handler) http.Handler {
	return corsMiddleware(func(origin string) string {
		return "*"
	})
}

func corsMiddleware(originFor func(origin string) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := originFor(r.Header.Get("Origin")); origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
