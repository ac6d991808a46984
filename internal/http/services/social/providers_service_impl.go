package social

import (
	"context"

	"github.com/dropDatabas3/sesamo/internal/domain/repository"
	"github.com/dropDatabas3/sesamo/internal/observability/logger"
)

// ProvidersDeps contains dependencies for the providers service.
type ProvidersDeps struct {
	Registry StrategySource
	// Repo is optional; when present it contributes image URLs from the
	// seeded registry rows.
	Repo repository.ProviderRepository
}

type providersService struct {
	registry StrategySource
	repo     repository.ProviderRepository
}

// NewProvidersService creates a ProvidersService.
func NewProvidersService(d ProvidersDeps) ProvidersService {
	return &providersService{registry: d.Registry, repo: d.Repo}
}

// List merges configured strategy names with registry row metadata. Only
// configured providers appear: a seeded row without credentials stays
// hidden from clients.
func (s *providersService) List(ctx context.Context) (*ProvidersResult, error) {
	names := s.registry.Names()

	images := map[string]string{}
	if s.repo != nil {
		rows, err := s.repo.List(ctx)
		if err != nil {
			// listing still works without metadata
			logger.From(ctx).Warn("provider registry lookup failed", logger.Err(err))
		} else {
			for _, r := range rows {
				images[r.ProviderName] = r.ImageURL
			}
		}
	}

	out := &ProvidersResult{Providers: make([]ProviderInfo, 0, len(names))}
	for _, name := range names {
		out.Providers = append(out.Providers, ProviderInfo{Name: name, ImageURL: images[name]})
	}
	return out, nil
}

func (s *providersService) Enabled(name string) (bool, []string) {
	_, ok := s.registry.Get(name)
	return ok, s.registry.Names()
}
