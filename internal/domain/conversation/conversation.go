// Package conversation defines the conversation and message aggregates.
package conversation

import (
	"encoding/json"
	"time"

	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
)

// Status is the lifecycle state of a conversation.
type Status string

// Conversation statuses. A closed conversation is never reopened; a later
// inbound message from the same identity opens a fresh conversation row.
const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Role identifies who authored a message.
type Role string

// Message sender roles.
const (
	RoleCustomer Role = "customer"
	RoleAI       Role = "ai"
	RoleAgent    Role = "agent"
)

// Conversation is a thread between one customer and one tenant on one channel.
// At most one active conversation exists per (tenant, customer, channel).
type Conversation struct {
	ID             string         `json:"id"`
	TenantID       string         `json:"tenant_id"`
	CustomerID     string         `json:"customer_id"`
	Channel        tenant.Channel `json:"channel"`
	Status         Status         `json:"status"`
	LastActivityAt time.Time      `json:"last_activity_at"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Message is a single immutable entry in a conversation. Messages are totally
// ordered by (created_at, id) within their conversation.
type Message struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	Role           Role            `json:"role"`
	Content        string          `json:"content"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
