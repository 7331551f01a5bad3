package service

import (
	"context"
	"encoding/json"

	"github.com/frontdeskhq/frontdesk/internal/domain/conversation"
	"github.com/frontdeskhq/frontdesk/internal/port/database"
)

// Ledger is the conversation ledger: the append-only message record and
// the history replayed to the completion gateway.
type Ledger struct {
	store database.Store
}

// NewLedger creates the conversation ledger.
func NewLedger(store database.Store) *Ledger {
	return &Ledger{store: store}
}

// Append records one message. The store bumps the conversation's
// last-activity timestamp atomically with the insert.
func (l *Ledger) Append(ctx context.Context, conversationID string, role conversation.Role, content string, metadata json.RawMessage) (*conversation.Message, error) {
	return l.store.AppendMessage(ctx, &conversation.Message{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Metadata:       metadata,
	})
}

// History returns the conversation's messages oldest-first, the exact
// sequence the completion gateway replays.
func (l *Ledger) History(ctx context.Context, conversationID string) ([]conversation.Message, error) {
	return l.store.ListMessages(ctx, conversationID)
}

// Conversations lists the tenant's conversations, most recently active first.
func (l *Ledger) Conversations(ctx context.Context) ([]conversation.Conversation, error) {
	return l.store.ListConversations(ctx)
}

// Conversation returns one conversation by id within the tenant scope.
func (l *Ledger) Conversation(ctx context.Context, id string) (*conversation.Conversation, error) {
	return l.store.GetConversation(ctx, id)
}
