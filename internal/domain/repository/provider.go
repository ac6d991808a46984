package repository

import (
	"context"
	"time"
)

// AuthProvider es una fila del registro de providers sociales.
// Se siembra en el deploy; en login es de sólo lectura.
type AuthProvider struct {
	ID           string
	ProviderName string
	ImageURL     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProviderRepository define operaciones sobre el registro de providers.
type ProviderRepository interface {
	// GetByName busca un provider por nombre ("google", "github", "kakao").
	// Retorna ErrNotFound si no existe.
	GetByName(ctx context.Context, name string) (*AuthProvider, error)

	// List devuelve todos los providers registrados, ordenados por nombre.
	List(ctx context.Context) ([]AuthProvider, error)
}
