package gemini

import "context"

// PoolOption applies a configuration option to the Pool.
type PoolOption func(*Pool)

// WithFallbackCredential sets a credential used when callers supply none.
// Intended for single-tenant deployments; multi-tenant servers should leave
// it unset so that an absent credential fails fast.
func WithFallbackCredential(credential string) PoolOption {
	return func(p *Pool) {
		p.fallback = credential
	}
}

// WithClientFactory substitutes how handles are dialed. Tests use this to
// avoid touching the real backend.
func WithClientFactory(factory func(ctx context.Context, credential string) (Generator, error)) PoolOption {
	return func(p *Pool) {
		if factory != nil {
			p.factory = factory
		}
	}
}
