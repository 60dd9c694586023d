package middleware

import (
	"crypto/subtle"
	"net/http"
)

// AdminAuth guards operational endpoints with a static token. An empty
// configured token disables the endpoints entirely rather than opening them.
func AdminAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				writeJSON(w, http.StatusNotFound, map[string]string{
					"error": "Not found",
				})
				return
			}

			provided := r.Header.Get("X-Admin-Token")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error": "Invalid admin token",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
