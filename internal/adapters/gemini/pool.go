package gemini

import (
	"context"
	"strings"
	"sync"
)

// Pool caches one reusable connection handle per caller-supplied credential.
// Concurrent callers using different credentials never observe each other's
// handle; an empty credential is rejected unless a fallback is configured.
//
// The pool is an explicit dependency passed into each pipeline invocation,
// never a process-global singleton, so cross-session isolation holds by
// construction in a multi-tenant deployment.
type Pool struct {
	mu       sync.Mutex
	handles  map[string]Generator
	fallback string
	factory  func(ctx context.Context, credential string) (Generator, error)
}

// NewPool creates a credentialed client pool with configuration options.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		handles: make(map[string]Generator),
		factory: func(ctx context.Context, credential string) (Generator, error) {
			return newClient(ctx, credential)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Acquire returns the cached handle for the credential, dialing one on first
// use. Two calls with the same credential return the same handle instance.
func (p *Pool) Acquire(ctx context.Context, credential string) (Generator, error) {
	cred := strings.TrimSpace(credential)
	if cred == "" {
		cred = p.fallback
	}
	if cred == "" {
		return nil, ErrMissingCredential
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if h, ok := p.handles[cred]; ok {
		return h, nil
	}
	h, err := p.factory(ctx, cred)
	if err != nil {
		return nil, err
	}
	p.handles[cred] = h
	return h, nil
}

// Release evicts the cached handle for the credential. It is used on
// credential rotation or detected authentication failure. Returns true if a
// handle was cached.
func (p *Pool) Release(_ context.Context, credential string) bool {
	cred := strings.TrimSpace(credential)
	if cred == "" {
		cred = p.fallback
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.handles[cred]; !ok {
		return false
	}
	delete(p.handles, cred)
	return true
}

// Size returns the number of cached handles.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handles)
}
