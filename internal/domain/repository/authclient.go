package repository

import (
	"context"
	"time"
)

// AuthClient vincula un usuario interno con una identidad externa.
// El par (ProviderID, ExternalClientID) es único: a lo sumo un AuthClient
// por identidad externa.
type AuthClient struct {
	ID               string
	UserID           string
	ProviderID       string
	ExternalClientID string // ID del usuario en el provider
	Salt             string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CreateAuthClientInput contiene los datos para crear un AuthClient.
type CreateAuthClientInput struct {
	UserID           string
	ProviderID       string
	ExternalClientID string
	Salt             string
}

// AuthClientRepository define operaciones sobre vínculos usuario-identidad.
type AuthClientRepository interface {
	// GetByID busca el vínculo por su id interno.
	// Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*AuthClient, error)

	// GetByExternalID busca el vínculo por (providerID, externalClientID).
	// Retorna ErrNotFound si no existe.
	GetByExternalID(ctx context.Context, providerID, externalClientID string) (*AuthClient, error)

	// Create inserta un vínculo nuevo. Si otro proceso ya creó el mismo par
	// (providerID, externalClientID) retorna ErrConflict; el caller debe
	// re-resolver con GetByExternalID.
	Create(ctx context.Context, input CreateAuthClientInput) (*AuthClient, error)
}
