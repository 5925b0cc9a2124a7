package provider

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// Known provider names. These are persisted in token rows and appear in URL
// paths, so they must stay stable.
const (
	Spotify = "spotify"
	Strava  = "strava"
)

var (
	// ErrExchangeFailed indicates the provider rejected an authorization
	// code or refresh token, or returned a malformed token response.
	ErrExchangeFailed = errors.New("provider token exchange failed")
	// ErrProfileFetchFailed indicates the provider account identity could
	// not be determined after a successful exchange.
	ErrProfileFetchFailed = errors.New("provider profile fetch failed")
	// ErrMissingExternalID indicates the provider responded but its payload
	// carried no account identifier.
	ErrMissingExternalID = errors.New("provider response missing account id")
	// ErrUnknownProvider indicates a provider name outside the known set.
	ErrUnknownProvider = errors.New("unknown provider")
)

// Provider is the capability surface a single OAuth2 provider must expose.
// Implementations are stateless beyond their configuration; all network
// calls accept a context.
type Provider interface {
	// Name returns the stable provider name (e.g. "spotify").
	Name() string
	// AuthCodeURL builds the authorization redirect URL carrying state.
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for a token pair.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	// Refresh trades a refresh token for a new token pair. Providers may
	// omit the refresh token from the response when it is unchanged.
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	// Identity resolves the provider-assigned external ID for the account
	// behind the token. Depending on the provider this is read from the
	// exchange response itself or fetched from a profile endpoint.
	Identity(ctx context.Context, token *oauth2.Token) (string, error)
}

// Registry holds the configured providers keyed by name.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds a registry from the given providers.
func NewRegistry(providers ...Provider) *Registry {
	m := make(map[string]Provider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names returns the registered provider names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
