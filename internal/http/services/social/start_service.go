package social

import (
	"context"
	"errors"
)

// StartService handles the start phase of social login.
type StartService interface {
	// Start initiates the flow and returns the provider redirect URL.
	Start(ctx context.Context, req StartRequest) (*StartResult, error)
}

// StartRequest contains the parameters for starting social login.
type StartRequest struct {
	Provider string
	// ReturnTo is the optional client URL to bounce back to after the
	// callback completes; it rides inside the signed state.
	ReturnTo string
}

// StartResult contains the result of starting social login.
type StartResult struct {
	RedirectURL string
}

// Errors for start service.
var (
	ErrStartProviderUnknown = errors.New("unknown provider")
	ErrStartAuthURLFailed   = errors.New("failed to generate auth URL")
)
