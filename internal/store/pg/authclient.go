// store/pg/authclient.go — Implementación PostgreSQL de AuthClientRepository.
// El par (provider_id, external_client_id) tiene constraint UNIQUE; la
// violación se traduce a ErrConflict para que el caller re-resuelva.
package pg

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/sesamo/internal/domain/repository"
)

type authClientRepo struct {
	pool *pgxpool.Pool
}

func (r *authClientRepo) GetByID(ctx context.Context, id string) (*repository.AuthClient, error) {
	const query = `
		SELECT id, user_id, provider_id, external_client_id, salt, created_at, updated_at
		FROM auth_client
		WHERE id = $1
	`
	var ac repository.AuthClient
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&ac.ID, &ac.UserID, &ac.ProviderID, &ac.ExternalClientID,
		&ac.Salt, &ac.CreatedAt, &ac.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ac, nil
}

func (r *authClientRepo) GetByExternalID(ctx context.Context, providerID, externalClientID string) (*repository.AuthClient, error) {
	const query = `
		SELECT id, user_id, provider_id, external_client_id, salt, created_at, updated_at
		FROM auth_client
		WHERE provider_id = $1 AND external_client_id = $2
	`
	var ac repository.AuthClient
	err := r.pool.QueryRow(ctx, query, providerID, externalClientID).Scan(
		&ac.ID, &ac.UserID, &ac.ProviderID, &ac.ExternalClientID,
		&ac.Salt, &ac.CreatedAt, &ac.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ac, nil
}

func (r *authClientRepo) Create(ctx context.Context, input repository.CreateAuthClientInput) (*repository.AuthClient, error) {
	const query = `
		INSERT INTO auth_client (id, user_id, provider_id, external_client_id, salt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`
	now := time.Now().UTC()
	ac := &repository.AuthClient{
		ID:               uuid.NewString(),
		UserID:           input.UserID,
		ProviderID:       input.ProviderID,
		ExternalClientID: input.ExternalClientID,
		Salt:             input.Salt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	_, err := r.pool.Exec(ctx, query,
		ac.ID, ac.UserID, ac.ProviderID, ac.ExternalClientID, ac.Salt, now,
	)
	if err != nil {
		return nil, classifyError(err)
	}
	return ac, nil
}
