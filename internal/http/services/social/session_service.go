package social

import (
	"context"
	"errors"
)

// SessionService manages the lifecycle of an issued session: refresh
// rotation and revocation.
type SessionService interface {
	// Refresh rotates the refresh token and returns a fresh pair.
	Refresh(ctx context.Context, refreshToken string) (*LoginPayload, error)

	// Logout revokes the session behind the refresh token.
	Logout(ctx context.Context, refreshToken string) error
}

// Errors for session service.
var (
	ErrSessionTokenMissing = errors.New("missing refresh token")
	ErrSessionTokenInvalid = errors.New("invalid refresh token")
)
