package api

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/netscan-tools/netscan/internal/logging"
)

const apiKeyHeader = "X-API-Key"

// apiKeyMiddleware enforces API key auth when key hashes are configured.
// Keys are compared against stored bcrypt hashes; plaintext keys never
// live in configuration.
func apiKeyMiddleware(hashes []string, logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(hashes) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(apiKeyHeader)
			if key == "" {
				logger.Warn("request missing API key", "path", r.URL.Path, "remote", r.RemoteAddr)
				http.Error(w, `{"error":"missing API key"}`, http.StatusUnauthorized)
				return
			}

			for _, hash := range hashes {
				if bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("request with invalid API key", "path", r.URL.Path, "remote", r.RemoteAddr)
			http.Error(w, `{"error":"invalid API key"}`, http.StatusUnauthorized)
		})
	}
}

// HashAPIKey produces a bcrypt hash suitable for the api_key_hashes
// configuration list.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
