// Package service contains the application services wiring ports together:
// tenant registry, identity resolution, conversation ledger, completion
// gateway, the webhook message pipeline, and the idle sweeper.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"

	"github.com/frontdeskhq/frontdesk/internal/domain"
	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
	"github.com/frontdeskhq/frontdesk/internal/port/cache"
	"github.com/frontdeskhq/frontdesk/internal/port/database"
)

// apiKeyPrefix marks frontdesk dashboard keys so leaked keys are
// recognizable in secret scanners.
const apiKeyPrefix = "fdk_"

// Registry is the tenant registry: provisioning, per-tenant channel and AI
// settings, API keys, and the cached lookup every webhook delivery hits.
type Registry struct {
	store    database.Store
	cache    cache.Cache
	cacheTTL time.Duration
	sf       singleflight.Group
}

// NewRegistry creates the tenant registry. cache may be nil to disable the
// lookup cache.
func NewRegistry(store database.Store, c cache.Cache, cacheTTL time.Duration) *Registry {
	return &Registry{store: store, cache: c, cacheTTL: cacheTTL}
}

// Create provisions a tenant and issues its dashboard API key. The plain
// key is returned exactly once; only the bcrypt hash is stored.
func (r *Registry) Create(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, string, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, "", fmt.Errorf("tenant name is required: %w", domain.ErrValidation)
	}

	t, err := r.store.CreateTenant(ctx, req)
	if err != nil {
		return nil, "", err
	}

	key, err := r.RotateAPIKey(ctx, t.ID)
	if err != nil {
		return nil, "", err
	}
	return t, key, nil
}

// cachedTenant is the cache wire form. The tenant's API-key hash is
// excluded from its public JSON, so the cache carries it alongside.
type cachedTenant struct {
	Tenant     tenant.Tenant `json:"tenant"`
	APIKeyHash string        `json:"api_key_hash"`
}

// Get returns a tenant by id, serving repeated lookups from the cache.
// Concurrent misses for the same tenant collapse into one store query.
func (r *Registry) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	if r.cache != nil {
		if data, ok, err := r.cache.Get(ctx, cacheKey(id)); err == nil && ok {
			var ct cachedTenant
			if err := json.Unmarshal(data, &ct); err == nil {
				ct.Tenant.APIKeyHash = ct.APIKeyHash
				return &ct.Tenant, nil
			}
		}
	}

	v, err, _ := r.sf.Do(id, func() (any, error) {
		t, err := r.store.GetTenant(ctx, id)
		if err != nil {
			return nil, err
		}
		if r.cache != nil {
			if data, err := json.Marshal(cachedTenant{Tenant: *t, APIKeyHash: t.APIKeyHash}); err == nil {
				_ = r.cache.Set(ctx, cacheKey(id), data, r.cacheTTL)
			}
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*tenant.Tenant), nil
}

// List returns all tenants.
func (r *Registry) List(ctx context.Context) ([]tenant.Tenant, error) {
	return r.store.ListTenants(ctx)
}

// UpdateChannel replaces one channel's credential bundle.
func (r *Registry) UpdateChannel(ctx context.Context, id string, req tenant.UpdateChannelRequest) error {
	if !req.Channel.Valid() {
		return fmt.Errorf("unknown channel %q: %w", req.Channel, domain.ErrValidation)
	}
	if err := r.store.UpdateTenantChannel(ctx, id, req.Channel, req.Config); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// UpdateAI replaces the tenant's completion settings.
func (r *Registry) UpdateAI(ctx context.Context, id string, ai tenant.AISettings) error {
	if err := r.store.UpdateTenantAI(ctx, id, ai); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// RotateAPIKey issues a fresh dashboard API key, invalidating the previous
// one. The plain key is returned exactly once.
func (r *Registry) RotateAPIKey(ctx context.Context, id string) (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	key := apiKeyPrefix + hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash api key: %w", err)
	}

	if err := r.store.UpdateTenantAPIKey(ctx, id, string(hash)); err != nil {
		return "", err
	}
	r.invalidate(ctx, id)
	return key, nil
}

// VerifyAPIKey checks a dashboard credential against the tenant's stored
// hash. Disabled tenants always fail.
func (r *Registry) VerifyAPIKey(ctx context.Context, tenantID, key string) error {
	t, err := r.Get(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("verify api key: %w", domain.ErrUnauthorized)
	}
	if !t.Enabled || t.APIKeyHash == "" {
		return fmt.Errorf("verify api key: %w", domain.ErrUnauthorized)
	}
	if bcrypt.CompareHashAndPassword([]byte(t.APIKeyHash), []byte(key)) != nil {
		return fmt.Errorf("verify api key: %w", domain.ErrUnauthorized)
	}
	return nil
}

// ChannelConfig resolves the credential bundle the webhook router needs.
// Unknown tenants, disabled tenants, and unconfigured channels are all
// ErrNotFound so the router leaks nothing about which case applied.
func (r *Registry) ChannelConfig(ctx context.Context, tenantID string, ch tenant.Channel) (*tenant.Tenant, tenant.ChannelConfig, error) {
	t, err := r.Get(ctx, tenantID)
	if err != nil {
		return nil, tenant.ChannelConfig{}, err
	}
	if !t.Enabled {
		return nil, tenant.ChannelConfig{}, fmt.Errorf("tenant %s disabled: %w", tenantID, domain.ErrNotFound)
	}
	cfg := t.Channels[ch]
	if !cfg.Configured(ch) {
		return nil, tenant.ChannelConfig{}, fmt.Errorf("tenant %s channel %s not configured: %w", tenantID, ch, domain.ErrNotFound)
	}
	return t, cfg, nil
}

func (r *Registry) invalidate(ctx context.Context, id string) {
	if r.cache != nil {
		_ = r.cache.Delete(ctx, cacheKey(id))
	}
}

func cacheKey(id string) string { return "tenant:" + id }
