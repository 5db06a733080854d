package middleware

import (
	"net/http"
	"strings"
)

const (
	corsMethods = "GET, OPTIONS"
	corsHeaders = "Content-Type, Authorization, X-API-Key, If-None-Match"
)

// CORS lets browsers on allowedOrigins read the chart API. An empty list or
// a "*" entry admits every origin. Only preflight requests are answered
// directly; everything else reaches next.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	open := len(allowedOrigins) == 0
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			open = true
		}
		origins[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			_, listed := origins[strings.ToLower(origin)]
			if open || listed {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Expose-Headers", "ETag")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if open || listed {
					h.Set("Access-Control-Allow-Methods", corsMethods)
					h.Set("Access-Control-Allow-Headers", corsHeaders)
					h.Set("Access-Control-Max-Age", "86400")
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
