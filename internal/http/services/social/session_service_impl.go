package social

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/sesamo/internal/login"
)

// SessionOrchestrator rotates and revokes sessions by refresh token.
// Satisfied by internal/login.Orchestrator.
type SessionOrchestrator interface {
	Refresh(ctx context.Context, refreshToken string) (*login.Result, error)
	Logout(ctx context.Context, refreshToken string) error
}

// SessionDeps contains dependencies for the session service.
type SessionDeps struct {
	Orchestrator SessionOrchestrator
}

type sessionService struct {
	orchestrator SessionOrchestrator
}

// NewSessionService creates a SessionService.
func NewSessionService(d SessionDeps) SessionService {
	return &sessionService{orchestrator: d.Orchestrator}
}

func (s *sessionService) Refresh(ctx context.Context, refreshToken string) (*LoginPayload, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, ErrSessionTokenMissing
	}

	res, err := s.orchestrator.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, login.ErrRefreshInvalid) {
			return nil, fmt.Errorf("%w: %v", ErrSessionTokenInvalid, err)
		}
		return nil, err
	}
	return &LoginPayload{UserID: res.UserID, IsNewUser: res.IsNewUser, Tokens: res.Tokens}, nil
}

func (s *sessionService) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return ErrSessionTokenMissing
	}

	if err := s.orchestrator.Logout(ctx, refreshToken); err != nil {
		if errors.Is(err, login.ErrRefreshInvalid) {
			return fmt.Errorf("%w: %v", ErrSessionTokenInvalid, err)
		}
		return err
	}
	return nil
}
