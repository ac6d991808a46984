package social

import (
	"context"

	"github.com/dropDatabas3/sesamo/internal/login"
	"github.com/dropDatabas3/sesamo/internal/oauth"
)

// StrategySource yields configured provider strategies. Satisfied by
// internal/oauth/registry.Registry.
type StrategySource interface {
	Get(name string) (oauth.Strategy, bool)
	Names() []string
}

// LoginOrchestrator resolves a canonical profile into a login result.
// Satisfied by internal/login.Orchestrator.
type LoginOrchestrator interface {
	Login(ctx context.Context, profile oauth.Profile) (*login.Result, error)
}

// Services aggregates the social service layer for controller wiring.
type Services struct {
	Providers ProvidersService
	Start     StartService
	Callback  CallbackService
	Exchange  ExchangeService
	Login     LoginService
	Session   SessionService

	StateSigner StateSigner
}
