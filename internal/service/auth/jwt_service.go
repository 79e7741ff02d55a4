package auth

import (
	"context"
	"slices"
	"time"
)

// Scopes granted to service tokens.
const (
	// ScopeCacheInvalidate allows dropping cached aggregates by tag.
	ScopeCacheInvalidate = "cache:invalidate"
	// ScopeTaskMutations allows posting task mutation notifications.
	ScopeTaskMutations = "tasks:mutations"
)

// JWTService defines operations for managing the JWT tokens presented by
// trusted writers of the task table.
type JWTService interface {
	// GenerateToken creates a signed JWT for the named service with the given scopes.
	// Returns the token string or an error if token generation fails.
	GenerateToken(ctx context.Context, subject string, scopes ...string) (string, error)

	// ValidateToken validates the provided token string and extracts the claims.
	// Returns the claims if the token is valid, or an error if validation fails
	// (expired, invalid signature, etc.).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the custom claims structure for the JWT tokens.
// It extends standard JWT registered claims with the granted scopes.
type Claims struct {
	// Scopes lists the operations the bearer may perform.
	Scopes []string `json:"scopes,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}

// HasScope reports whether the claims grant scope.
func (c *Claims) HasScope(scope string) bool {
	return c != nil && slices.Contains(c.Scopes, scope)
}
