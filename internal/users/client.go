// Package users holds the client for the external Users service. The auth
// subsystem never owns user rows; it only resolves and creates them through
// this port.
package users

import (
	"context"
	"time"
)

// User is the subset of the Users service representation the login flow
// needs. The auth subsystem stores only the ID as a foreign reference.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Locale      string    `json:"locale"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateUserInput is the payload for provisioning a user during a
// first-time social login.
type CreateUserInput struct {
	Email       string `json:"email"`
	Locale      string `json:"locale"`
	DisplayName string `json:"displayName"`
}

// Client is the remote port to the Users service. Absence is reported as
// repository.ErrNotFound, never as (nil, nil).
type Client interface {
	// GetByID resolves a user by internal id.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail resolves a user by email, used for account linking when a
	// second provider carries an already-known email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Create provisions a new user.
	Create(ctx context.Context, input CreateUserInput) (*User, error)
}
