// store/pg/provider.go — Implementación PostgreSQL de ProviderRepository.
// El registro de providers se siembra en deploy; acá es de sólo lectura.
package pg

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/sesamo/internal/domain/repository"
)

type providerRepo struct {
	pool *pgxpool.Pool
}

func (r *providerRepo) GetByName(ctx context.Context, name string) (*repository.AuthProvider, error) {
	const query = `
		SELECT id, provider_name, image_url, created_at, updated_at
		FROM auth_provider
		WHERE provider_name = $1
	`
	var p repository.AuthProvider
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&p.ID, &p.ProviderName, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *providerRepo) List(ctx context.Context) ([]repository.AuthProvider, error) {
	const query = `
		SELECT id, provider_name, image_url, created_at, updated_at
		FROM auth_provider
		ORDER BY provider_name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []repository.AuthProvider
	for rows.Next() {
		var p repository.AuthProvider
		if err := rows.Scan(&p.ID, &p.ProviderName, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}
