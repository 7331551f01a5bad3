package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/frontdeskhq/frontdesk/internal/domain/conversation"
	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
)

// GetOrOpenConversation returns the active conversation for
// (tenant, customer, channel), opening one if none exists. The conflict
// target is the partial unique index on active conversations, so two
// racing opens for the same identity collapse to one row.
func (s *Store) GetOrOpenConversation(ctx context.Context, customerID string, ch tenant.Channel) (*conversation.Conversation, error) {
	tid := tenantFromCtx(ctx)
	var c conversation.Conversation
	err := s.pool.QueryRow(ctx,
		`INSERT INTO conversations (tenant_id, customer_id, channel, status)
		 VALUES ($1, $2, $3, 'active')
		 ON CONFLICT (tenant_id, customer_id, channel) WHERE status = 'active'
		 DO UPDATE SET status = conversations.status
		 RETURNING id, tenant_id, customer_id, channel, status, last_activity_at, created_at`,
		tid, customerID, ch,
	).Scan(&c.ID, &c.TenantID, &c.CustomerID, &c.Channel, &c.Status, &c.LastActivityAt, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get or open conversation: %w", err)
	}
	return &c, nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (*conversation.Conversation, error) {
	var c conversation.Conversation
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, customer_id, channel, status, last_activity_at, created_at
		 FROM conversations WHERE id = $1 AND tenant_id = $2`,
		id, tenantFromCtx(ctx),
	).Scan(&c.ID, &c.TenantID, &c.CustomerID, &c.Channel, &c.Status, &c.LastActivityAt, &c.CreatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get conversation %s", id)
	}
	return &c, nil
}

func (s *Store) ListConversations(ctx context.Context) ([]conversation.Conversation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, customer_id, channel, status, last_activity_at, created_at
		 FROM conversations WHERE tenant_id = $1 ORDER BY last_activity_at DESC`,
		tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var result []conversation.Conversation
	for rows.Next() {
		var c conversation.Conversation
		if err := rows.Scan(&c.ID, &c.TenantID, &c.CustomerID, &c.Channel, &c.Status, &c.LastActivityAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		result = append(result, c)
	}
	return orEmpty(result), rows.Err()
}

// CloseIdleConversations closes every active conversation (across tenants)
// whose last activity is older than the cutoff. Closing never reopens:
// a later inbound message opens a fresh row.
func (s *Store) CloseIdleConversations(ctx context.Context, cutoff time.Time) ([]conversation.Conversation, error) {
	rows, err := s.pool.Query(ctx,
		`UPDATE conversations SET status = 'closed'
		 WHERE status = 'active' AND last_activity_at < $1
		 RETURNING id, tenant_id, customer_id, channel, status, last_activity_at, created_at`,
		cutoff)
	if err != nil {
		return nil, fmt.Errorf("close idle conversations: %w", err)
	}
	defer rows.Close()

	var result []conversation.Conversation
	for rows.Next() {
		var c conversation.Conversation
		if err := rows.Scan(&c.ID, &c.TenantID, &c.CustomerID, &c.Channel, &c.Status, &c.LastActivityAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan closed conversation: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// AppendMessage inserts a message and bumps the parent conversation's
// last-activity timestamp in one statement, so the bump cannot be lost
// between the two writes.
func (s *Store) AppendMessage(ctx context.Context, m *conversation.Message) (*conversation.Message, error) {
	var created conversation.Message
	err := s.pool.QueryRow(ctx,
		`WITH ins AS (
		     INSERT INTO messages (conversation_id, role, content, metadata)
		     VALUES ($1, $2, $3, $4)
		     RETURNING id, conversation_id, role, content, metadata, created_at
		 ), bump AS (
		     UPDATE conversations SET last_activity_at = (SELECT created_at FROM ins)
		     WHERE id = $1
		 )
		 SELECT id, conversation_id, role, content, metadata, created_at FROM ins`,
		m.ConversationID, m.Role, m.Content, m.Metadata,
	).Scan(&created.ID, &created.ConversationID, &created.Role, &created.Content,
		&created.Metadata, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	return &created, nil
}

// ListMessages returns all messages of a conversation oldest-first. This is
// the exact sequence replayed to the completion gateway as history, so it
// orders by the insert sequence rather than created_at, which cannot break
// ties within one timestamp tick.
func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]conversation.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, conversation_id, role, content, metadata, created_at
		 FROM messages WHERE conversation_id = $1 ORDER BY seq ASC`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var result []conversation.Message
	for rows.Next() {
		var m conversation.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Metadata, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		result = append(result, m)
	}
	return orEmpty(result), rows.Err()
}
