// Package pool manages one lazily created connection source per tenant.
// Sources are cached for the life of the process and drained on shutdown.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/catalogd/catalogd/internal/catalog"
	"github.com/catalogd/catalogd/internal/config"
	"github.com/catalogd/catalogd/internal/extract"
)

// CredentialResolver looks up connection settings for a tenant. Returns
// catalog.ErrNotFound when the tenant is unknown.
type CredentialResolver interface {
	Resolve(ctx context.Context, tenantID string) (*config.TenantConfig, error)
}

// ConfigResolver serves tenant credentials from the loaded config file.
type ConfigResolver struct {
	Tenants map[string]config.TenantConfig
}

func (r *ConfigResolver) Resolve(_ context.Context, tenantID string) (*config.TenantConfig, error) {
	tc, ok := r.Tenants[tenantID]
	if !ok {
		return nil, fmt.Errorf("%w: tenant %s", catalog.ErrNotFound, tenantID)
	}
	return &tc, nil
}

// ChainResolver tries each resolver in order, returning the first hit.
// Lookup misses fall through; any other error stops the chain.
type ChainResolver []CredentialResolver

func (c ChainResolver) Resolve(ctx context.Context, tenantID string) (*config.TenantConfig, error) {
	for _, r := range c {
		tc, err := r.Resolve(ctx, tenantID)
		if err == nil {
			return tc, nil
		}
		if !catalog.IsNotFound(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: tenant %s", catalog.ErrNotFound, tenantID)
}

// opener is swapped out in tests.
type opener func(cfg *config.TenantConfig) (extract.Source, error)

// Registry hands out pooled sessions keyed by tenant. The first Acquire for
// a tenant creates its source; later calls reuse it.
type Registry struct {
	resolver CredentialResolver
	logger   *slog.Logger
	open     opener

	mu      sync.Mutex
	sources map[string]extract.Source
	closed  bool
}

// NewRegistry creates an empty registry backed by the given resolver.
func NewRegistry(resolver CredentialResolver, logger *slog.Logger) *Registry {
	return &Registry{
		resolver: resolver,
		logger:   logger,
		open:     extract.Open,
		sources:  make(map[string]extract.Source),
	}
}

// Acquire checks a session out of the tenant's source, creating the source
// on first use. The caller must Release the session.
func (r *Registry) Acquire(ctx context.Context, tenantID string) (extract.Session, error) {
	src, err := r.source(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return src.Acquire(ctx)
}

// Ping verifies the tenant's database is reachable without holding a session.
func (r *Registry) Ping(ctx context.Context, tenantID string) error {
	src, err := r.source(ctx, tenantID)
	if err != nil {
		return err
	}
	return src.Ping(ctx)
}

func (r *Registry) source(ctx context.Context, tenantID string) (extract.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, fmt.Errorf("pool registry is shut down")
	}
	if src, ok := r.sources[tenantID]; ok {
		return src, nil
	}

	tc, err := r.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	src, err := r.open(tc)
	if err != nil {
		return nil, fmt.Errorf("opening source for tenant %s: %w", tenantID, err)
	}
	r.logger.Info("opened tenant source", "tenant", tenantID, "type", tc.Type, "host", tc.Host)
	r.sources[tenantID] = src
	return src, nil
}

// Evict closes and forgets a tenant's source, forcing the next Acquire to
// reopen with freshly resolved credentials.
func (r *Registry) Evict(tenantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if src, ok := r.sources[tenantID]; ok {
		src.Close()
		delete(r.sources, tenantID)
	}
}

// Shutdown closes every cached source. The registry rejects acquisitions
// afterwards.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for tenant, src := range r.sources {
		src.Close()
		r.logger.Info("closed tenant source", "tenant", tenant)
	}
	r.sources = make(map[string]extract.Source)
	r.closed = true
}
