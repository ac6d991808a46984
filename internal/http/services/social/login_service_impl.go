package social

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/sesamo/internal/login"
	"github.com/dropDatabas3/sesamo/internal/metrics"
	"github.com/dropDatabas3/sesamo/internal/oauth"
)

// LoginDeps contains dependencies for the direct login service.
type LoginDeps struct {
	Registry     StrategySource
	Orchestrator LoginOrchestrator
}

type loginService struct {
	registry     StrategySource
	orchestrator LoginOrchestrator

	now func() time.Time
}

// NewLoginService creates a LoginService.
func NewLoginService(d LoginDeps) LoginService {
	return &loginService{registry: d.Registry, orchestrator: d.Orchestrator, now: time.Now}
}

func (s *loginService) Login(ctx context.Context, req LoginRequest) (*LoginPayload, error) {
	// the guard runs against the live configuration, not the DB registry:
	// a seeded but unconfigured provider is still rejected here
	if _, ok := s.registry.Get(req.Provider); !ok {
		return nil, fmt.Errorf("%w: %s", ErrLoginProviderUnknown, req.Provider)
	}

	profile := oauth.Profile{
		Provider:       req.Provider,
		ProviderUserID: req.Profile.ProviderUserID,
		Email:          req.Profile.Email,
		DisplayName:    req.Profile.DisplayName,
		Nickname:       req.Profile.Nickname,
		AvatarURL:      req.Profile.AvatarURL,
		AccessToken:    req.Profile.AccessToken,
		RefreshToken:   req.Profile.RefreshToken,
	}

	start := s.now()
	res, err := s.orchestrator.Login(ctx, profile)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(req.Provider, loginResultLabel(err)).Inc()
		if errors.Is(err, login.ErrProfileRequired) {
			return nil, fmt.Errorf("%w: %v", ErrLoginProfileInvalid, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	metrics.LoginsTotal.WithLabelValues(req.Provider, "ok").Inc()
	if res.IsNewUser {
		metrics.NewUsersTotal.WithLabelValues(req.Provider).Inc()
	}
	metrics.LoginDuration.WithLabelValues(req.Provider).Observe(s.now().Sub(start).Seconds())

	return &LoginPayload{UserID: res.UserID, IsNewUser: res.IsNewUser, Tokens: res.Tokens}, nil
}
