package social

import (
	"context"
	"errors"
)

// LoginService is the direct orchestrator entry for trusted
// server-to-server callers that already hold a provider profile.
type LoginService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginPayload, error)
}

// SocialUserProfile is the wire shape of a provider profile submitted by a
// trusted caller.
type SocialUserProfile struct {
	ProviderUserID string `json:"providerUserId"`
	Email          string `json:"email,omitempty"`
	DisplayName    string `json:"displayName,omitempty"`
	Nickname       string `json:"nickname,omitempty"`
	AvatarURL      string `json:"avatarUrl,omitempty"`
	AccessToken    string `json:"providerAccessToken,omitempty"`
	RefreshToken   string `json:"providerRefreshToken,omitempty"`
}

// LoginRequest is the social-login request body.
type LoginRequest struct {
	Provider string            `json:"provider"`
	Profile  SocialUserProfile `json:"socialUserProfile"`
}

// Errors for login service.
var (
	ErrLoginProviderUnknown = errors.New("unknown provider")
	ErrLoginProfileInvalid  = errors.New("invalid profile")
	ErrLoginFailed          = errors.New("login failed")
)
