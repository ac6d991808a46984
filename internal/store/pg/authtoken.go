// store/pg/authtoken.go — Implementación PostgreSQL de AuthTokenRepository.
// Los tokens del provider se sellan con secretbox antes de tocar la tabla
// y se abren al leer; en la DB nunca hay tokens en claro.
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/sesamo/internal/domain/repository"
	"github.com/dropDatabas3/sesamo/internal/security/secretbox"
)

type authTokenRepo struct {
	pool *pgxpool.Pool
}

func (r *authTokenRepo) Create(ctx context.Context, input repository.SaveAuthTokenInput) (*repository.AuthToken, error) {
	sealedAccess, sealedRefresh, err := sealProviderTokens(input)
	if err != nil {
		return nil, err
	}

	const query = `
		INSERT INTO auth_token
			(id, auth_client_id, provider_access_token, provider_refresh_token,
			 refresh_token_hash, revoked, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7, $7)
	`
	now := time.Now().UTC()
	at := &repository.AuthToken{
		ID:                   uuid.NewString(),
		AuthClientID:         input.AuthClientID,
		ProviderAccessToken:  input.ProviderAccessToken,
		ProviderRefreshToken: input.ProviderRefreshToken,
		RefreshTokenHash:     input.RefreshTokenHash,
		ExpiresAt:            input.ExpiresAt,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	_, err = r.pool.Exec(ctx, query,
		at.ID, at.AuthClientID, sealedAccess, sealedRefresh,
		at.RefreshTokenHash, at.ExpiresAt, now,
	)
	if err != nil {
		return nil, classifyError(err)
	}
	return at, nil
}

func (r *authTokenRepo) Upsert(ctx context.Context, input repository.SaveAuthTokenInput) (*repository.AuthToken, error) {
	sealedAccess, sealedRefresh, err := sealProviderTokens(input)
	if err != nil {
		return nil, err
	}

	// El re-login reemplaza el bundle entero y resetea revoked; nunca
	// quedan dos filas para el mismo auth_client.
	const query = `
		INSERT INTO auth_token
			(id, auth_client_id, provider_access_token, provider_refresh_token,
			 refresh_token_hash, revoked, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7, $7)
		ON CONFLICT (auth_client_id) DO UPDATE SET
			provider_access_token  = EXCLUDED.provider_access_token,
			provider_refresh_token = EXCLUDED.provider_refresh_token,
			refresh_token_hash     = EXCLUDED.refresh_token_hash,
			revoked                = FALSE,
			expires_at             = EXCLUDED.expires_at,
			updated_at             = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	now := time.Now().UTC()
	at := &repository.AuthToken{
		AuthClientID:         input.AuthClientID,
		ProviderAccessToken:  input.ProviderAccessToken,
		ProviderRefreshToken: input.ProviderRefreshToken,
		RefreshTokenHash:     input.RefreshTokenHash,
		ExpiresAt:            input.ExpiresAt,
		UpdatedAt:            now,
	}
	err = r.pool.QueryRow(ctx, query,
		uuid.NewString(), at.AuthClientID, sealedAccess, sealedRefresh,
		at.RefreshTokenHash, at.ExpiresAt, now,
	).Scan(&at.ID, &at.CreatedAt)
	if err != nil {
		return nil, classifyError(err)
	}
	return at, nil
}

func (r *authTokenRepo) Revoke(ctx context.Context, authClientID string) error {
	const query = `
		UPDATE auth_token
		SET revoked = TRUE, updated_at = $2
		WHERE auth_client_id = $1 AND revoked = FALSE
	`
	tag, err := r.pool.Exec(ctx, query, authClientID, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *authTokenRepo) GetByRefreshTokenHash(ctx context.Context, hash string) (*repository.AuthToken, error) {
	const query = `
		SELECT id, auth_client_id, provider_access_token, provider_refresh_token,
		       refresh_token_hash, revoked, expires_at, created_at, updated_at
		FROM auth_token
		WHERE refresh_token_hash = $1 AND revoked = FALSE
	`
	var at repository.AuthToken
	var sealedAccess, sealedRefresh string
	err := r.pool.QueryRow(ctx, query, hash).Scan(
		&at.ID, &at.AuthClientID, &sealedAccess, &sealedRefresh,
		&at.RefreshTokenHash, &at.Revoked, &at.ExpiresAt, &at.CreatedAt, &at.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if at.ProviderAccessToken, err = secretbox.Decrypt(sealedAccess); err != nil {
		return nil, fmt.Errorf("pg: open provider access token: %w", err)
	}
	if at.ProviderRefreshToken, err = secretbox.Decrypt(sealedRefresh); err != nil {
		return nil, fmt.Errorf("pg: open provider refresh token: %w", err)
	}
	return &at, nil
}

// sealProviderTokens cifra los tokens del provider antes de persistirlos.
func sealProviderTokens(input repository.SaveAuthTokenInput) (access, refresh string, err error) {
	if access, err = secretbox.Encrypt(input.ProviderAccessToken); err != nil {
		return "", "", fmt.Errorf("pg: seal provider access token: %w", err)
	}
	if refresh, err = secretbox.Encrypt(input.ProviderRefreshToken); err != nil {
		return "", "", fmt.Errorf("pg: seal provider refresh token: %w", err)
	}
	return access, refresh, nil
}
