package repository

import (
	"context"
	"time"
)

// AuthToken agrupa los tokens del provider y el refresh token propio para
// un AuthClient. A lo sumo un AuthToken activo (no revocado) por AuthClient;
// el re-login reemplaza, nunca agrega. Revoked=true es terminal.
type AuthToken struct {
	ID           string
	AuthClientID string
	// Tokens del provider sellados con secretbox antes de persistir.
	ProviderAccessToken  string
	ProviderRefreshToken string
	// RefreshToken propio, guardado como hash sha256 (nunca en claro).
	RefreshTokenHash string
	Revoked          bool
	ExpiresAt        time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SaveAuthTokenInput contiene los datos para crear o reemplazar el
// AuthToken de un AuthClient.
type SaveAuthTokenInput struct {
	AuthClientID         string
	ProviderAccessToken  string
	ProviderRefreshToken string
	RefreshTokenHash     string
	ExpiresAt            time.Time
}

// AuthTokenRepository define operaciones sobre los bundles de tokens.
type AuthTokenRepository interface {
	// Create inserta el primer AuthToken de un AuthClient.
	Create(ctx context.Context, input SaveAuthTokenInput) (*AuthToken, error)

	// Upsert crea o reemplaza el AuthToken del AuthClient: pisa tokens,
	// expiry y updatedAt, y resetea revoked a false.
	Upsert(ctx context.Context, input SaveAuthTokenInput) (*AuthToken, error)

	// Revoke marca el token activo del AuthClient como revocado.
	// Retorna ErrNotFound si no hay token activo.
	Revoke(ctx context.Context, authClientID string) error

	// GetByRefreshTokenHash busca el bundle activo por hash del refresh
	// token propio. Retorna ErrNotFound si no existe o está revocado.
	GetByRefreshTokenHash(ctx context.Context, hash string) (*AuthToken, error)
}
