package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	internal "github.com/wytlabs/cardops/internal"
)

const cronTokenHeader = "X-Cron-Token"

// CronSecret guards scheduled-job trigger endpoints with a shared secret.
// Triggers carry no body and no user identity, only this header.
func CronSecret(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(cronTokenHeader)
			if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				logger.Warn("cron trigger rejected: bad shared secret",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr)
				status, body := internal.ErrBadCronToken.ToHTTPResponse()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				if err := json.NewEncoder(w).Encode(body); err != nil {
					logger.Error("failed to write response", "error", err)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
