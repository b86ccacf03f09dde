package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pawclub/pawclub-server/internal/domain"
	domainerrors "github.com/pawclub/pawclub-server/internal/errors"
)

// authenticateRequest validates the Authorization header and returns the user ID.
func (s *Server) authenticateRequest(ctx context.Context, authHeader string) (string, error) {
	user, err := s.authenticateUser(ctx, authHeader)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// authenticateUser validates the Authorization header and returns the full user.
// Comment handlers need the display name and avatar, not just the ID.
func (s *Server) authenticateUser(ctx context.Context, authHeader string) (*domain.User, error) {
	if authHeader == "" {
		return nil, huma.Error401Unauthorized("Missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, huma.Error401Unauthorized("Invalid authorization header format")
	}

	user, _, err := s.services.Auth.VerifyAccessToken(ctx, parts[1])
	if err != nil {
		return nil, huma.Error401Unauthorized("Invalid or expired token")
	}

	return user, nil
}

// authenticateAndRequireAdmin validates the token and requires admin role.
func (s *Server) authenticateAndRequireAdmin(ctx context.Context, authHeader string) (string, error) {
	userID, err := s.authenticateRequest(ctx, authHeader)
	if err != nil {
		return "", err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", huma.Error401Unauthorized("User not found")
	}

	if !user.IsAdmin() {
		return "", domainerrors.Forbidden("Admin access required")
	}

	return userID, nil
}

// identifyStreamClient resolves the identity of an SSE client. EventSource
// cannot set headers, so the access token may arrive as a query parameter.
// Anonymous clients still connect; they just never receive targeted events.
func (s *Server) identifyStreamClient(r *http.Request) (string, bool) {
	token := ""
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		token = authHeader[7:]
	} else {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return "", false
	}

	user, _, err := s.services.Auth.VerifyAccessToken(r.Context(), token)
	if err != nil {
		return "", false
	}
	return user.ID, user.IsAdmin()
}

// checkAuthRateLimit enforces the per-IP limit on credential endpoints.
func (s *Server) checkAuthRateLimit(remoteAddr string) error {
	ip := stripPort(remoteAddr)
	if !s.authRateLimiter.Allow(ip) {
		s.logger.Warn("Auth rate limit exceeded", "ip", ip)
		return huma.Error429TooManyRequests("Too many requests. Please try again later.")
	}
	return nil
}

// extractIP returns the client IP from forwarding headers.
func extractIP(xForwardedFor, xRealIP, remoteAddr string) string {
	if xForwardedFor != "" {
		for i := 0; i < len(xForwardedFor); i++ {
			if xForwardedFor[i] == ',' {
				return xForwardedFor[:i]
			}
		}
		return xForwardedFor
	}
	if xRealIP != "" {
		return xRealIP
	}
	return stripPort(remoteAddr)
}

// stripPort drops the trailing :port from a host:port address.
func stripPort(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i]
		}
	}
	return addr
}
