package social

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/sesamo/internal/jwt"
	"github.com/dropDatabas3/sesamo/internal/oauth"
	"github.com/dropDatabas3/sesamo/internal/observability/logger"
	sectoken "github.com/dropDatabas3/sesamo/internal/security/token"
)

// StartDeps contains dependencies for the start service.
type StartDeps struct {
	Registry StrategySource
	Signer   StateSigner
}

type startService struct {
	registry StrategySource
	signer   StateSigner
}

// NewStartService creates a StartService.
func NewStartService(d StartDeps) StartService {
	return &startService{registry: d.Registry, signer: d.Signer}
}

// Start mints a nonce, signs the state and builds the provider auth URL.
func (s *startService) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("social.start"))

	strategy, ok := s.registry.Get(req.Provider)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStartProviderUnknown, req.Provider)
	}

	nonce, err := sectoken.GenerateOpaqueToken(16)
	if err != nil {
		return nil, fmt.Errorf("%w: nonce: %v", ErrStartAuthURLFailed, err)
	}

	state, err := s.signer.SignState(jwt.StateClaims{
		Provider: req.Provider,
		Nonce:    nonce,
		ReturnTo: req.ReturnTo,
	})
	if err != nil {
		log.Error("state signing failed", logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrStartAuthURLFailed, err)
	}

	var authURL string
	if nc, ok := strategy.(oauth.NonceCapable); ok {
		authURL, err = nc.AuthURLWithNonce(ctx, state, nonce)
	} else {
		authURL, err = strategy.AuthURL(ctx, state)
	}
	if err != nil {
		log.Error("auth url build failed", logger.Provider(req.Provider), logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrStartAuthURLFailed, err)
	}

	return &StartResult{RedirectURL: authURL}, nil
}
