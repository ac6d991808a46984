package login

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/sesamo/internal/domain/repository"
	"github.com/dropDatabas3/sesamo/internal/observability/logger"
	sectoken "github.com/dropDatabas3/sesamo/internal/security/token"
)

// ErrRefreshInvalid covers every unusable refresh token: unknown, revoked,
// rotated away or expired. Callers get one kind so responses cannot be
// used to probe which case it was.
var ErrRefreshInvalid = errors.New("login: refresh token invalid")

// Refresh trades a live refresh token for a fresh pair. The stored bundle
// is rotated: the presented token stops working and the new hash takes its
// place, keeping at most one active refresh token per auth client.
func (o *Orchestrator) Refresh(ctx context.Context, refreshToken string) (*Result, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: empty token", ErrRefreshInvalid)
	}

	hash := sectoken.SHA256Base64URL(refreshToken)
	at, err := o.deps.Tokens.GetByRefreshTokenHash(ctx, hash)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrRefreshInvalid
		}
		return nil, fmt.Errorf("login: refresh lookup: %w", err)
	}
	if at.ExpiresAt.Before(o.deps.now()) {
		return nil, fmt.Errorf("%w: expired", ErrRefreshInvalid)
	}

	client, err := o.deps.Clients.GetByID(ctx, at.AuthClientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthClientLookupFailed, err)
	}

	user, err := o.deps.Users.GetByID(ctx, client.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: user %s", ErrUserNotFound, client.UserID)
		}
		return nil, fmt.Errorf("%w: %v", ErrUserNotFound, err)
	}

	pair, err := o.deps.Issuer.GenerateTokens(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenIssueFailed, err)
	}

	// rotate: same provider tokens, new refresh hash and expiry
	input := repository.SaveAuthTokenInput{
		AuthClientID:         at.AuthClientID,
		ProviderAccessToken:  at.ProviderAccessToken,
		ProviderRefreshToken: at.ProviderRefreshToken,
		RefreshTokenHash:     sectoken.SHA256Base64URL(pair.RefreshToken),
		ExpiresAt:            o.deps.now().Add(o.deps.RefreshTTL),
	}
	if _, err := o.deps.Tokens.Upsert(ctx, input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenUpdateFailed, err)
	}

	logger.From(ctx).Info("session refreshed",
		logger.UserID(user.ID),
		logger.AuthClientID(at.AuthClientID),
	)
	return &Result{UserID: user.ID, IsNewUser: false, Tokens: pair}, nil
}

// Logout revokes the token bundle behind the presented refresh token.
// Revocation is terminal; the user has to run the social flow again.
func (o *Orchestrator) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return fmt.Errorf("%w: empty token", ErrRefreshInvalid)
	}

	hash := sectoken.SHA256Base64URL(refreshToken)
	at, err := o.deps.Tokens.GetByRefreshTokenHash(ctx, hash)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrRefreshInvalid
		}
		return fmt.Errorf("login: logout lookup: %w", err)
	}

	if err := o.deps.Tokens.Revoke(ctx, at.AuthClientID); err != nil {
		if repository.IsNotFound(err) {
			// raced with another revoke; already terminal
			return nil
		}
		return fmt.Errorf("%w: %v", ErrTokenUpdateFailed, err)
	}

	logger.From(ctx).Info("session revoked", logger.AuthClientID(at.AuthClientID))
	return nil
}
