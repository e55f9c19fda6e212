// Package oauth orchestrates the authorization-code-with-PKCE flow: the
// start-of-flow handshake, the single-use state record carried across the
// provider redirect, and the callback reconciliation against local users.
package oauth

import (
	"context"

	"github.com/goliatone/go-identity"
)

// AuthorizationRequest carries the parameters a provider needs to build its
// authorization URL. CodeChallenge is the S256 digest of the PKCE verifier;
// plain challenges are not supported.
type AuthorizationRequest struct {
	RedirectURI   string
	State         string
	CodeChallenge string
	Nonce         string
}

// ProfileRequest carries the parameters for the code-for-profile exchange.
type ProfileRequest struct {
	Code         string
	RedirectURI  string
	CodeVerifier string
}

// Profile is the normalized identity a provider returns after a successful
// exchange.
type Profile struct {
	Provider       identity.ProviderCode
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
}

// Provider is the capability each provider adapter implements. Timeouts and
// retries for the outbound HTTP calls are the adapter's responsibility.
type Provider interface {
	Name() identity.ProviderCode
	BuildAuthorizationURL(ctx context.Context, req AuthorizationRequest) (string, error)
	FetchProfile(ctx context.Context, req ProfileRequest) (*Profile, error)
}

// Registry maps provider codes to configured adapters. It is built once at
// startup.
type Registry map[identity.ProviderCode]Provider

// NewRegistry indexes the given adapters by name.
func NewRegistry(providers ...Provider) Registry {
	registry := make(Registry, len(providers))
	for _, provider := range providers {
		if provider != nil {
			registry[provider.Name()] = provider
		}
	}
	return registry
}

// Resolve returns the adapter for a provider code, or nil when absent.
func (r Registry) Resolve(code identity.ProviderCode) Provider {
	return r[code]
}
