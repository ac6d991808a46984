package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dropDatabas3/sesamo/internal/cache"
	"github.com/dropDatabas3/sesamo/internal/login"
	"github.com/dropDatabas3/sesamo/internal/metrics"
	"github.com/dropDatabas3/sesamo/internal/oauth"
	"github.com/dropDatabas3/sesamo/internal/observability/logger"
	sectoken "github.com/dropDatabas3/sesamo/internal/security/token"
)

const loginCodePrefix = "logincode:"

// CallbackDeps contains dependencies for the callback service.
type CallbackDeps struct {
	Registry     StrategySource
	Signer       StateSigner
	Orchestrator LoginOrchestrator
	Cache        cache.Cache
	LoginCodeTTL time.Duration
}

type callbackService struct {
	registry     StrategySource
	signer       StateSigner
	orchestrator LoginOrchestrator
	cache        cache.Cache
	codeTTL      time.Duration

	now func() time.Time
}

// NewCallbackService creates a CallbackService.
func NewCallbackService(d CallbackDeps) CallbackService {
	ttl := d.LoginCodeTTL
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &callbackService{
		registry:     d.Registry,
		signer:       d.Signer,
		orchestrator: d.Orchestrator,
		cache:        d.Cache,
		codeTTL:      ttl,
		now:          time.Now,
	}
}

func (s *callbackService) Callback(ctx context.Context, req CallbackRequest) (*CallbackResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("social.callback"), logger.Provider(req.Provider))
	start := s.now()

	if req.State == "" {
		return nil, ErrCallbackMissingState
	}
	if req.Code == "" {
		return nil, ErrCallbackMissingCode
	}

	sc, err := s.signer.ParseState(req.State)
	if err != nil {
		log.Warn("state rejected", logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrCallbackInvalidState, err)
	}
	// the state binds the flow to one provider; a mismatch means the
	// callback was replayed against another provider's endpoint
	if sc.Provider != req.Provider {
		return nil, ErrCallbackProviderMismatch
	}

	strategy, ok := s.registry.Get(req.Provider)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCallbackProviderUnknown, req.Provider)
	}

	var profile oauth.Profile
	if nc, isNonce := strategy.(oauth.NonceCapable); isNonce {
		profile, err = nc.ExchangeWithNonce(ctx, req.Code, sc.Nonce)
	} else {
		profile, err = strategy.Exchange(ctx, req.Code)
	}
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(req.Provider, "exchange_failed").Inc()
		log.Warn("code exchange failed", logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrCallbackExchangeFailed, err)
	}

	res, err := s.orchestrator.Login(ctx, profile)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(req.Provider, loginResultLabel(err)).Inc()
		return nil, fmt.Errorf("%w: %v", ErrCallbackLoginFailed, err)
	}

	metrics.LoginsTotal.WithLabelValues(req.Provider, "ok").Inc()
	if res.IsNewUser {
		metrics.NewUsersTotal.WithLabelValues(req.Provider).Inc()
	}
	metrics.LoginDuration.WithLabelValues(req.Provider).Observe(s.now().Sub(start).Seconds())

	payload := &LoginPayload{UserID: res.UserID, IsNewUser: res.IsNewUser, Tokens: res.Tokens}

	// without a return URL the caller gets the tokens directly
	if sc.ReturnTo == "" {
		return &CallbackResult{Payload: payload}, nil
	}

	redirect, err := s.parkLoginCode(ctx, sc.ReturnTo, payload)
	if err != nil {
		return nil, err
	}
	return &CallbackResult{RedirectURL: redirect}, nil
}

// parkLoginCode stores the payload under a one-shot code and appends the
// code to the return URL. Tokens never travel inside a redirect.
func (s *callbackService) parkLoginCode(ctx context.Context, returnTo string, payload *LoginPayload) (string, error) {
	code, err := sectoken.GenerateOpaqueToken(24)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCallbackCodeParkFailed, err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCallbackCodeParkFailed, err)
	}
	if err := s.cache.Set(ctx, loginCodePrefix+code, body, s.codeTTL); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCallbackCodeParkFailed, err)
	}

	u, err := url.Parse(returnTo)
	if err != nil {
		return "", fmt.Errorf("%w: bad return url: %v", ErrCallbackCodeParkFailed, err)
	}
	q := u.Query()
	q.Set("code", code)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// loginResultLabel maps orchestrator faults to a bounded metric label set.
func loginResultLabel(err error) string {
	switch {
	case errors.Is(err, login.ErrProviderNotFound):
		return "provider_not_found"
	case errors.Is(err, login.ErrProfileRequired):
		return "profile_invalid"
	case errors.Is(err, login.ErrUserNotFound):
		return "user_missing"
	case errors.Is(err, login.ErrUserCreateFailed):
		return "user_create_failed"
	case errors.Is(err, login.ErrAuthClientCreateFailed),
		errors.Is(err, login.ErrAuthClientLookupFailed):
		return "client_link_failed"
	case errors.Is(err, login.ErrTokenSaveFailed),
		errors.Is(err, login.ErrTokenUpdateFailed),
		errors.Is(err, login.ErrTokenIssueFailed):
		return "token_failed"
	default:
		return "error"
	}
}
