// Package login implements the social login orchestration: resolving an
// external identity into an internal user and a signed token pair, with
// idempotent linking and race-safe identity creation.
package login

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/sesamo/internal/domain/repository"
	"github.com/dropDatabas3/sesamo/internal/jwt"
	"github.com/dropDatabas3/sesamo/internal/oauth"
	"github.com/dropDatabas3/sesamo/internal/observability/logger"
	sectoken "github.com/dropDatabas3/sesamo/internal/security/token"
	"github.com/dropDatabas3/sesamo/internal/users"
)

// Fault kinds surfaced by Login. Each names the exact step that failed so
// operators can tell partial-failure states apart.
var (
	ErrProviderNotFound       = errors.New("login: provider not registered")
	ErrProfileRequired        = errors.New("login: canonical profile incomplete")
	ErrUserNotFound           = errors.New("login: auth client references a missing user")
	ErrUserCreateFailed       = errors.New("login: user creation failed")
	ErrAuthClientCreateFailed = errors.New("login: auth client creation failed")
	ErrAuthClientLookupFailed = errors.New("login: auth client lookup after create failed")
	ErrTokenSaveFailed        = errors.New("login: auth token creation failed")
	ErrTokenUpdateFailed      = errors.New("login: auth token upsert failed")
	ErrTokenIssueFailed       = errors.New("login: token issuance failed")
)

// TokenIssuer signs the session credentials for a resolved user.
type TokenIssuer interface {
	GenerateTokens(userID, email string) (jwt.TokenPair, error)
}

// Result is the outcome of a completed social login.
type Result struct {
	UserID    string
	IsNewUser bool
	Tokens    jwt.TokenPair
}

// Orchestrator drives the login state machine. Stateless; safe for
// concurrent use.
type Orchestrator struct {
	deps Deps
}

// Deps are the collaborators the orchestrator delegates to.
type Deps struct {
	Providers repository.ProviderRepository
	Clients   repository.AuthClientRepository
	Tokens    repository.AuthTokenRepository
	Users     users.Client
	Issuer    TokenIssuer

	// RefreshTTL bounds the stored AuthToken expiry.
	RefreshTTL time.Duration
	// DefaultLocale is assigned to users provisioned during first login.
	DefaultLocale string

	now func() time.Time
}

// New builds an orchestrator, applying defaults for optional knobs.
func New(deps Deps) *Orchestrator {
	if deps.RefreshTTL <= 0 {
		deps.RefreshTTL = 30 * 24 * time.Hour
	}
	if deps.DefaultLocale == "" {
		deps.DefaultLocale = "en"
	}
	if deps.now == nil {
		deps.now = time.Now
	}
	return &Orchestrator{deps: deps}
}

// Login resolves the canonical profile into an internal user and mints a
// token pair. The same external identity always resolves to the same user;
// re-login replaces the stored token bundle instead of appending.
func (o *Orchestrator) Login(ctx context.Context, profile oauth.Profile) (*Result, error) {
	log := logger.From(ctx).With(logger.Provider(profile.Provider), logger.ProviderUserID(profile.ProviderUserID))

	// 1. resolve the provider registry row
	provider, err := o.deps.Providers.GetByName(ctx, profile.Provider)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, profile.Provider)
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderNotFound, err)
	}

	// 2. the profile must carry a stable external id
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileRequired, err)
	}

	// 3. resolve the external identity link
	client, err := o.deps.Clients.GetByExternalID(ctx, provider.ID, profile.ProviderUserID)
	switch {
	case err == nil:
		return o.existingUserPath(ctx, client, profile)
	case repository.IsNotFound(err):
		return o.newIdentityPath(ctx, provider, profile, log)
	default:
		return nil, fmt.Errorf("login: resolve auth client: %w", err)
	}
}

// existingUserPath handles a known external identity: fetch the linked
// user, issue tokens, replace the stored bundle.
func (o *Orchestrator) existingUserPath(ctx context.Context, client *repository.AuthClient, profile oauth.Profile) (*Result, error) {
	user, err := o.deps.Users.GetByID(ctx, client.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			// a dangling link is a data-integrity fault; never paper over it
			// by provisioning a replacement user
			return nil, fmt.Errorf("%w: user %s", ErrUserNotFound, client.UserID)
		}
		return nil, fmt.Errorf("%w: %v", ErrUserNotFound, err)
	}

	pair, err := o.deps.Issuer.GenerateTokens(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenIssueFailed, err)
	}

	if _, err := o.deps.Tokens.Upsert(ctx, o.tokenInput(client.ID, profile, pair)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenUpdateFailed, err)
	}

	logger.From(ctx).Info("social login",
		logger.Provider(profile.Provider),
		logger.UserID(user.ID),
		logger.AuthClientID(client.ID),
		logger.Bool("is_new_user", false),
	)
	return &Result{UserID: user.ID, IsNewUser: false, Tokens: pair}, nil
}

// newIdentityPath handles a never-seen external identity: resolve or
// provision the user, create the link, then the token bundle.
func (o *Orchestrator) newIdentityPath(ctx context.Context, provider *repository.AuthProvider, profile oauth.Profile, log *zap.Logger) (*Result, error) {
	userID, err := o.resolveUserID(ctx, profile)
	if err != nil {
		return nil, err
	}

	salt, err := sectoken.GenerateOpaqueToken(16)
	if err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrAuthClientCreateFailed, err)
	}

	_, err = o.deps.Clients.Create(ctx, repository.CreateAuthClientInput{
		UserID:           userID,
		ProviderID:       provider.ID,
		ExternalClientID: profile.ProviderUserID,
		Salt:             salt,
	})
	if err != nil {
		if repository.IsConflict(err) {
			// a concurrent login created the link first; re-resolve through
			// a fresh lookup instead of surfacing the constraint violation
			log.Info("auth client create raced, re-resolving")
			client, lerr := o.deps.Clients.GetByExternalID(ctx, provider.ID, profile.ProviderUserID)
			if lerr != nil {
				return nil, fmt.Errorf("%w: %v", ErrAuthClientLookupFailed, lerr)
			}
			return o.existingUserPath(ctx, client, profile)
		}
		return nil, fmt.Errorf("%w: %v", ErrAuthClientCreateFailed, err)
	}

	// re-fetch instead of trusting the insert's return value, so storage
	// generated fields are normalized
	client, err := o.deps.Clients.GetByExternalID(ctx, provider.ID, profile.ProviderUserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthClientLookupFailed, err)
	}

	pair, err := o.deps.Issuer.GenerateTokens(userID, profile.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenIssueFailed, err)
	}

	if _, err := o.deps.Tokens.Create(ctx, o.tokenInput(client.ID, profile, pair)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenSaveFailed, err)
	}

	logger.From(ctx).Info("social login",
		logger.Provider(profile.Provider),
		logger.UserID(userID),
		logger.AuthClientID(client.ID),
		logger.Bool("is_new_user", true),
	)
	return &Result{UserID: userID, IsNewUser: true, Tokens: pair}, nil
}

// resolveUserID finds an existing user by email (account linking across
// providers) or provisions a new one.
func (o *Orchestrator) resolveUserID(ctx context.Context, profile oauth.Profile) (string, error) {
	if profile.Email != "" {
		u, err := o.deps.Users.GetByEmail(ctx, profile.Email)
		switch {
		case err == nil:
			return u.ID, nil
		case !repository.IsNotFound(err):
			return "", fmt.Errorf("%w: lookup by email: %v", ErrUserCreateFailed, err)
		}
	}

	u, err := o.deps.Users.Create(ctx, users.CreateUserInput{
		Email:       profile.Email,
		Locale:      o.deps.DefaultLocale,
		DisplayName: displayName(profile),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUserCreateFailed, err)
	}
	return u.ID, nil
}

func (o *Orchestrator) tokenInput(authClientID string, profile oauth.Profile, pair jwt.TokenPair) repository.SaveAuthTokenInput {
	return repository.SaveAuthTokenInput{
		AuthClientID:         authClientID,
		ProviderAccessToken:  profile.AccessToken,
		ProviderRefreshToken: profile.RefreshToken,
		RefreshTokenHash:     sectoken.SHA256Base64URL(pair.RefreshToken),
		ExpiresAt:            o.deps.now().Add(o.deps.RefreshTTL),
	}
}

func displayName(p oauth.Profile) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	if p.Nickname != "" {
		return p.Nickname
	}
	return p.Email
}
