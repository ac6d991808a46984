// Package oauth defines the provider-agnostic contract for social login
// strategies and the canonical profile every provider normalizes into.
package oauth

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors shared by all strategies.
var (
	// ErrNoStableID means the provider response lacked a stable subject
	// identifier. Such a profile can never be linked to an account.
	ErrNoStableID = errors.New("oauth: provider profile has no stable user id")

	// ErrExchangeFailed wraps a failed code-for-token exchange.
	ErrExchangeFailed = errors.New("oauth: code exchange failed")
)

// Profile is the canonical identity extracted from a provider after a
// successful code exchange. ProviderUserID and Provider together form the
// external identity key; everything else is best effort.
type Profile struct {
	Provider       string
	ProviderUserID string
	Email          string
	EmailVerified  bool
	DisplayName    string
	Nickname       string
	AvatarURL      string

	// Provider tokens, sealed before persistence by the store layer.
	AccessToken  string
	RefreshToken string
}

// Validate enforces the minimum contract a profile must satisfy before it
// reaches the login orchestrator.
func (p Profile) Validate() error {
	if p.Provider == "" {
		return fmt.Errorf("oauth: profile without provider name")
	}
	if p.ProviderUserID == "" {
		return fmt.Errorf("%w (provider=%s)", ErrNoStableID, p.Provider)
	}
	return nil
}

// Strategy is implemented by each social provider. Strategies are stateless
// after construction and safe for concurrent use.
type Strategy interface {
	// Name returns the lowercase provider key ("google", "github", "kakao").
	Name() string

	// AuthURL builds the provider authorization URL for the signed state.
	// OIDC providers may resolve their endpoints over the network.
	AuthURL(ctx context.Context, state string) (string, error)

	// Exchange trades an authorization code for provider tokens and fetches
	// the normalized profile in one step.
	Exchange(ctx context.Context, code string) (Profile, error)
}

// NonceCapable is implemented by strategies whose authorization URL carries
// an OIDC nonce bound to the state (Google). Plain OAuth2 providers do not
// implement it.
type NonceCapable interface {
	AuthURLWithNonce(ctx context.Context, state, nonce string) (string, error)

	// ExchangeWithNonce verifies the returned ID token against the nonce
	// minted at the start of the flow.
	ExchangeWithNonce(ctx context.Context, code, expectedNonce string) (Profile, error)
}

// EmailLookupCapable is implemented by strategies that need a secondary
// call to resolve the account email when the primary profile omits it
// (GitHub with private email settings).
type EmailLookupCapable interface {
	FetchEmail(ctx context.Context, accessToken string) (email string, verified bool, err error)
}
