// Package auth validates and issues the bearer tokens that identify the
// owner of a repurposing job. User accounts live outside this service; a
// token's subject is simply the owning user's UUID.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed JWT access token whose subject is userID.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken validates the provided token string and extracts the claims.
	// Returns ErrExpiredToken, ErrTokenNotYetValid, ErrInvalidSubject or
	// ErrInvalidToken when validation fails.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the validated content of a token.
type Claims struct {
	// UserID is parsed from the sub claim.
	UserID uuid.UUID

	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}
