// Package social implements the service layer behind the social login
// endpoints: providers listing, flow start, callback processing, the
// one-shot code exchange and the direct server-to-server login.
package social

import "context"

// ProvidersService exposes the live provider list.
type ProvidersService interface {
	// List returns the providers that are both configured and registered,
	// in stable order.
	List(ctx context.Context) (*ProvidersResult, error)

	// Enabled reports whether the provider is configured, and the live
	// list for error details.
	Enabled(name string) (bool, []string)
}

// ProviderInfo is one entry of the providers listing.
type ProviderInfo struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// ProvidersResult is the providers listing response.
type ProvidersResult struct {
	Providers []ProviderInfo `json:"providers"`
}
