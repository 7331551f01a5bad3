package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/frontdeskhq/frontdesk/internal/domain"
	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
)

func (s *Store) CreateTenant(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	var t tenant.Tenant
	var channelsJSON, aiJSON []byte
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tenants (name) VALUES ($1)
		 RETURNING id, name, enabled, channels, ai, coalesce(api_key_hash, ''), created_at, updated_at`,
		req.Name,
	).Scan(&t.ID, &t.Name, &t.Enabled, &channelsJSON, &aiJSON, &t.APIKeyHash, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	if err := unmarshalTenantJSON(&t, channelsJSON, aiJSON); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) GetTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	var t tenant.Tenant
	var channelsJSON, aiJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, enabled, channels, ai, coalesce(api_key_hash, ''), created_at, updated_at
		 FROM tenants WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Enabled, &channelsJSON, &aiJSON, &t.APIKeyHash, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get tenant %s", id)
	}
	if err := unmarshalTenantJSON(&t, channelsJSON, aiJSON); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, enabled, channels, ai, coalesce(api_key_hash, ''), created_at, updated_at
		 FROM tenants ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []tenant.Tenant
	for rows.Next() {
		var t tenant.Tenant
		var channelsJSON, aiJSON []byte
		if err := rows.Scan(&t.ID, &t.Name, &t.Enabled, &channelsJSON, &aiJSON, &t.APIKeyHash, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		if err := unmarshalTenantJSON(&t, channelsJSON, aiJSON); err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// UpdateTenantChannel replaces one channel's credential bundle. Last writer
// wins; credential rotation is a rare, human-driven action.
func (s *Store) UpdateTenantChannel(ctx context.Context, id string, ch tenant.Channel, cfg tenant.ChannelConfig) error {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal channel config: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants
		 SET channels = jsonb_set(coalesce(channels, '{}'::jsonb), ARRAY[$2], $3::jsonb),
		     updated_at = now()
		 WHERE id = $1`,
		id, string(ch), cfgJSON)
	if err != nil {
		return fmt.Errorf("update tenant %s channel %s: %w", id, ch, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update tenant %s channel %s: %w", id, ch, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) UpdateTenantAI(ctx context.Context, id string, ai tenant.AISettings) error {
	aiJSON, err := json.Marshal(ai)
	if err != nil {
		return fmt.Errorf("marshal ai settings: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET ai = $2, updated_at = now() WHERE id = $1`,
		id, aiJSON)
	if err != nil {
		return fmt.Errorf("update tenant %s ai: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update tenant %s ai: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) UpdateTenantAPIKey(ctx context.Context, id, keyHash string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET api_key_hash = $2, updated_at = now() WHERE id = $1`,
		id, keyHash)
	if err != nil {
		return fmt.Errorf("update tenant %s api key: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update tenant %s api key: %w", id, domain.ErrNotFound)
	}
	return nil
}

func unmarshalTenantJSON(t *tenant.Tenant, channelsJSON, aiJSON []byte) error {
	if channelsJSON != nil {
		if err := json.Unmarshal(channelsJSON, &t.Channels); err != nil {
			return fmt.Errorf("unmarshal tenant %s channels: %w", t.ID, err)
		}
	}
	if t.Channels == nil {
		t.Channels = make(map[tenant.Channel]tenant.ChannelConfig)
	}
	if aiJSON != nil {
		if err := json.Unmarshal(aiJSON, &t.AI); err != nil {
			return fmt.Errorf("unmarshal tenant %s ai: %w", t.ID, err)
		}
	}
	return nil
}
