package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"os"
	"strings"
)

type contextKey string

const CallerKey contextKey = "caller"

// APIKeyMiddleware guards the scoring and admin endpoints with a
// shared key. With no key configured every request passes, which is
// the local development mode.
type APIKeyMiddleware struct {
	key string
}

// NewAPIKeyMiddleware reads the key from API_KEY
func NewAPIKeyMiddleware() *APIKeyMiddleware {
	return &APIKeyMiddleware{key: os.Getenv("API_KEY")}
}

// Require validates the key from the Authorization header or the
// X-API-Key header.
func (m *APIKeyMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.key == "" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		presented := extractKey(r)
		if presented == "" {
			http.Error(w, `{"error":"missing api key"}`, http.StatusUnauthorized)
			return
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(m.key)) != 1 {
			http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), CallerKey, "api-key")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCaller extracts the authenticated caller label from context
func GetCaller(ctx context.Context) string {
	if v := ctx.Value(CallerKey); v != nil {
		return v.(string)
	}
	return ""
}

func extractKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
