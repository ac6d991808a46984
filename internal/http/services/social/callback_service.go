package social

import (
	"context"
	"errors"

	"github.com/dropDatabas3/sesamo/internal/jwt"
)

// CallbackService handles the callback phase of social login.
type CallbackService interface {
	// Callback processes the OAuth callback: state validation, code
	// exchange, login orchestration, and either a redirect with a
	// one-shot login code or a direct token response.
	Callback(ctx context.Context, req CallbackRequest) (*CallbackResult, error)
}

// CallbackRequest contains the parameters for processing the callback.
type CallbackRequest struct {
	Provider string
	State    string
	Code     string
}

// CallbackResult contains the result of callback processing.
type CallbackResult struct {
	// If RedirectURL is set, the controller should 302 there; the URL
	// carries the one-shot login code.
	RedirectURL string
	// Otherwise the controller returns the payload as JSON.
	Payload *LoginPayload
}

// LoginPayload is what a completed login hands to the client, directly or
// parked in cache behind a login code.
type LoginPayload struct {
	UserID    string        `json:"userId"`
	IsNewUser bool          `json:"isNewUser"`
	Tokens    jwt.TokenPair `json:"tokens"`
}

// Errors for callback service.
var (
	ErrCallbackMissingState     = errors.New("missing state")
	ErrCallbackMissingCode      = errors.New("missing code")
	ErrCallbackInvalidState     = errors.New("invalid state")
	ErrCallbackProviderMismatch = errors.New("provider mismatch")
	ErrCallbackProviderUnknown  = errors.New("unknown provider")
	ErrCallbackExchangeFailed   = errors.New("code exchange failed")
	ErrCallbackLoginFailed      = errors.New("login failed")
	ErrCallbackCodeParkFailed   = errors.New("failed to park login code")
)
