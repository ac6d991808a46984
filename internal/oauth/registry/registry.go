// Package registry builds the set of live social strategies from validated
// provider options. Only configured providers exist here; there is no
// zero-credential fallback entry for anything else.
package registry

import (
	"fmt"
	"sort"

	"github.com/dropDatabas3/sesamo/internal/config"
	"github.com/dropDatabas3/sesamo/internal/oauth"
	"github.com/dropDatabas3/sesamo/internal/oauth/github"
	"github.com/dropDatabas3/sesamo/internal/oauth/google"
	"github.com/dropDatabas3/sesamo/internal/oauth/kakao"
)

// Registry holds the configured strategies keyed by provider name.
// Immutable after construction, safe for concurrent reads.
type Registry struct {
	strategies map[string]oauth.Strategy
}

// Build constructs strategies for every entry in opts. The options map is
// already validated by config, so an unknown name here is a programming
// error, not a configuration one.
func Build(redirectBaseURL string, opts map[string]config.ProviderOptions) (*Registry, error) {
	r := &Registry{strategies: make(map[string]oauth.Strategy, len(opts))}
	for name, po := range opts {
		redirect := po.RedirectURL(redirectBaseURL)
		switch name {
		case "google":
			r.strategies[name] = google.New(po.ClientID, po.ClientSecret, redirect, po.Scopes)
		case "github":
			r.strategies[name] = github.New(po.ClientID, po.ClientSecret, redirect, po.Scopes)
		case "kakao":
			r.strategies[name] = kakao.New(po.ClientID, po.ClientSecret, redirect, po.Scopes)
		default:
			return nil, fmt.Errorf("registry: no strategy for provider %q", name)
		}
	}
	return r, nil
}

// Get returns the strategy for name, or false when the provider is not
// configured.
func (r *Registry) Get(name string) (oauth.Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// Names lists the configured providers in stable order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
