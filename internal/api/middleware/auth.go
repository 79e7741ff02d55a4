package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/taskdeck-api/internal/api/shared"
	"github.com/phrazzld/taskdeck-api/internal/platform/logger"
	"github.com/phrazzld/taskdeck-api/internal/redact"
	"github.com/phrazzld/taskdeck-api/internal/service/auth"
)

// AuthMiddleware provides JWT authentication for routes.
type AuthMiddleware struct {
	jwtService auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(jwtService auth.JWTService) *AuthMiddleware {
	if jwtService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("jwtService cannot be nil for AuthMiddleware")
	}
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

// RequireScope returns middleware that validates the bearer token and
// rejects callers whose token does not grant scope. The claims are added to
// the request context.
func (m *AuthMiddleware) RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.FromContextOrDefault(r.Context(), slog.Default())

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
				return
			}

			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" || strings.Contains(token, " ") {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
				return
			}

			claims, err := m.jwtService.ValidateToken(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrExpiredToken):
					shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
				case errors.Is(err, auth.ErrInvalidToken),
					errors.Is(err, auth.ErrTokenNotYetValid),
					errors.Is(err, auth.ErrMissingToken):
					shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
				default:
					log.Error("failed to validate token", "error", redact.Error(err))
					shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
				}
				return
			}

			if !claims.HasScope(scope) {
				shared.RespondWithErrorAndLog(w, r, http.StatusForbidden, "Insufficient scope",
					auth.ErrInsufficientScope, shared.WithElevatedLogLevel())
				return
			}

			ctx := context.WithValue(r.Context(), shared.ClaimsContextKey, claims)
			ctx = logger.WithLogger(ctx, log.With(slog.String("subject", claims.Subject)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims extracts the caller's token claims from the request context.
// Returns the claims and a boolean indicating if they were found.
func GetClaims(r *http.Request) (*auth.Claims, bool) {
	claims, ok := r.Context().Value(shared.ClaimsContextKey).(*auth.Claims)
	return claims, ok && claims != nil
}
