// Package customer defines the customer aggregate: an end user chatting with
// a tenant through one of its channels.
package customer

import (
	"time"

	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
)

// Customer is a chat end user, created lazily on first inbound message and
// identified forever after by (tenant, channel, external id).
type Customer struct {
	ID         string            `json:"id"`
	TenantID   string            `json:"tenant_id"`
	Name       string            `json:"name,omitempty"`
	Email      string            `json:"email,omitempty"`
	Phone      string            `json:"phone,omitempty"`
	Channel    tenant.Channel    `json:"channel"`
	ExternalID string            `json:"external_id"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
