package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dropDatabas3/sesamo/internal/cache"
	"github.com/dropDatabas3/sesamo/internal/metrics"
	"github.com/dropDatabas3/sesamo/internal/observability/logger"
)

// ExchangeDeps contains dependencies for the exchange service.
type ExchangeDeps struct {
	Cache cache.Cache
}

type exchangeService struct {
	cache cache.Cache
}

// NewExchangeService creates an ExchangeService.
func NewExchangeService(d ExchangeDeps) ExchangeService {
	return &exchangeService{cache: d.Cache}
}

// Exchange consumes the code atomically: a second exchange with the same
// code always fails, even when racing the first.
func (s *exchangeService) Exchange(ctx context.Context, code string) (*LoginPayload, error) {
	if code == "" {
		return nil, ErrExchangeMissingCode
	}

	body, err := s.cache.GetDel(ctx, loginCodePrefix+code)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			metrics.ExchangesTotal.WithLabelValues("invalid").Inc()
			return nil, ErrExchangeCodeInvalid
		}
		metrics.ExchangesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("exchange: cache: %w", err)
	}

	var payload LoginPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		logger.From(ctx).Error("parked login payload corrupt", logger.Err(err))
		metrics.ExchangesTotal.WithLabelValues("error").Inc()
		return nil, ErrExchangeCodeInvalid
	}

	metrics.ExchangesTotal.WithLabelValues("ok").Inc()
	return &payload, nil
}
