package store

import (
	"context"
	"fmt"

	"github.com/catalogd/catalogd/internal/config"
)

// Resolver serves tenant credentials from persisted connection records,
// typically chained behind the static config resolver.
type Resolver struct {
	Store Store
}

func (r *Resolver) Resolve(ctx context.Context, tenantID string) (*config.TenantConfig, error) {
	rec, err := r.Store.GetConnection(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	tc := rec.TenantConfig()
	// Stored passwords may be secret references; config-file tenants get
	// this from config.Load.
	tc.Password, err = config.ResolveValue(tc.Password)
	if err != nil {
		return nil, fmt.Errorf("resolving password for tenant %s: %w", tenantID, err)
	}
	return tc, nil
}

// TenantConfig converts a stored connection back into connection settings.
// The password may still be a secret reference; resolve it before dialing.
func (r *ConnectionRecord) TenantConfig() *config.TenantConfig {
	return &config.TenantConfig{
		Type:           r.Type,
		Host:           r.Host,
		Port:           r.Port,
		Schema:         r.Schema,
		Username:       r.Username,
		Password:       r.Password,
		SSL:            r.SSL,
		MaxConnections: r.MaxConnections,
	}
}

// ConnectionRecordFrom builds the stored shape of a tenant's connection.
func ConnectionRecordFrom(tenant string, tc *config.TenantConfig) *ConnectionRecord {
	return &ConnectionRecord{
		Tenant:         tenant,
		Type:           tc.Type,
		Host:           tc.Host,
		Port:           tc.Port,
		Schema:         tc.Schema,
		Username:       tc.Username,
		Password:       tc.Password,
		SSL:            tc.SSL,
		MaxConnections: tc.MaxConnections,
	}
}
