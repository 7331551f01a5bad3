package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/frontdeskhq/frontdesk/internal/domain/customer"
)

// UpsertCustomer resolves (tenant, channel, external id) to a customer row,
// creating one if absent. The ON CONFLICT no-op update makes concurrent
// first-contact deliveries collapse to a single row while still returning it.
func (s *Store) UpsertCustomer(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	tid := tenantFromCtx(ctx)
	metaJSON, err := json.Marshal(c.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal customer metadata: %w", err)
	}

	var created customer.Customer
	var createdMeta []byte
	err = s.pool.QueryRow(ctx,
		`INSERT INTO customers (tenant_id, name, email, phone, channel, external_id, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (tenant_id, channel, external_id)
		 DO UPDATE SET metadata = customers.metadata || EXCLUDED.metadata
		 RETURNING id, tenant_id, coalesce(name, ''), coalesce(email, ''), coalesce(phone, ''),
		           channel, external_id, metadata, created_at`,
		tid, nullIfEmpty(c.Name), nullIfEmpty(c.Email), nullIfEmpty(c.Phone),
		c.Channel, c.ExternalID, metaJSON,
	).Scan(&created.ID, &created.TenantID, &created.Name, &created.Email, &created.Phone,
		&created.Channel, &created.ExternalID, &createdMeta, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert customer: %w", err)
	}
	if createdMeta != nil {
		if err := json.Unmarshal(createdMeta, &created.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal customer metadata: %w", err)
		}
	}
	return &created, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*customer.Customer, error) {
	var c customer.Customer
	var metaJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, coalesce(name, ''), coalesce(email, ''), coalesce(phone, ''),
		        channel, external_id, metadata, created_at
		 FROM customers WHERE id = $1 AND tenant_id = $2`,
		id, tenantFromCtx(ctx),
	).Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone,
		&c.Channel, &c.ExternalID, &metaJSON, &c.CreatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get customer %s", id)
	}
	if metaJSON != nil {
		if err := json.Unmarshal(metaJSON, &c.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal customer metadata: %w", err)
		}
	}
	return &c, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]customer.Customer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, coalesce(name, ''), coalesce(email, ''), coalesce(phone, ''),
		        channel, external_id, metadata, created_at
		 FROM customers WHERE tenant_id = $1 ORDER BY created_at DESC`,
		tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var result []customer.Customer
	for rows.Next() {
		var c customer.Customer
		var metaJSON []byte
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone,
			&c.Channel, &c.ExternalID, &metaJSON, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		if metaJSON != nil {
			if err := json.Unmarshal(metaJSON, &c.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal customer metadata: %w", err)
			}
		}
		result = append(result, c)
	}
	return orEmpty(result), rows.Err()
}
