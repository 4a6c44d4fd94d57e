package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/buildnumber-dev/buildnumber/internal/metrics"
)

// Middleware returns Chi-compatible middleware that authenticates requests
// via HTTP basic auth, where the username is the token value and the
// password is ignored.
func Middleware(v *Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			value, _, ok := r.BasicAuth()
			if !ok || value == "" {
				metrics.RecordAuthFailure("missing_token")
				writeUnauthorized(w, "missing API token")
				return
			}

			principal, err := v.Authenticate(r.Context(), value)
			if err != nil {
				if errors.Is(err, ErrInvalidToken) {
					metrics.RecordAuthFailure("invalid_token")
					writeUnauthorized(w, "invalid API token")
					return
				}
				writeJSONError(w, http.StatusInternalServerError, "internal error")
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeUnauthorized writes a 401 with the basic-auth challenge the original
// clients expect.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="buildnumber"`)
	writeJSONError(w, http.StatusUnauthorized, message)
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(map[string]string{"error": message})
	if err != nil {
		// Encoding errors are not critical for error responses
		_ = err
	}
}
