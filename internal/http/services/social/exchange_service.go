package social

import (
	"context"
	"errors"
)

// ExchangeService trades a one-shot login code for the parked token pair.
type ExchangeService interface {
	Exchange(ctx context.Context, code string) (*LoginPayload, error)
}

// Errors for exchange service.
var (
	ErrExchangeMissingCode = errors.New("missing code")
	ErrExchangeCodeInvalid = errors.New("invalid or expired code")
)
