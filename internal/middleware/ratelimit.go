package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/shoply-dev/shoply/internal/errors"
	"github.com/shoply-dev/shoply/internal/middleware/ratelimiter"
	"github.com/shoply-dev/shoply/internal/utils"
)

// RateLimit limits requests per identity. Admins are exempt.
func RateLimit(rl *ratelimiter.Limiter, getIdentity func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user := GetUserFromContext(r); user != nil && user.Admin {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := getIdentity(r)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			if !rl.Allow(identity) {
				http.Error(w, "Rate limit exceeded, try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserIDFromContext derives the rate-limit identity from the
// authenticated user; usable only behind NeedAuth.
func GetUserIDFromContext(r *http.Request) (string, error) {
	user := GetUserFromContext(r)
	if user == nil {
		return "", errors.Validation("Can't identify user")
	}
	return fmt.Sprintf("user_%d", user.Id), nil
}

// GetIP extracts the client IP from RemoteAddr.
// Does NOT trust X-Real-IP or X-Forwarded-For headers (no reverse proxy).
func GetIP(r *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, use it directly
		ip = r.RemoteAddr
	}

	if net.ParseIP(ip) == nil {
		return "", errors.Validation("Invalid client address")
	}

	return ip, nil
}

// GetEmailFromBody extracts the email from a JSON request body so that
// per-account limits apply before authentication (register, verify, login).
// The body is restored for the handler.
func GetEmailFromBody(r *http.Request) (string, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", errors.Validation("Failed to read request body")
	}
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	var data struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return "", errors.Validation("Body is invalid json")
	}
	if data.Email == "" {
		return "", errors.Validation("Email field is required")
	}

	return data.Email, nil
}
