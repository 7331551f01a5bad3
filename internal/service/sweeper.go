package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/frontdeskhq/frontdesk/internal/port/broadcast"
	"github.com/frontdeskhq/frontdesk/internal/port/database"
	"github.com/frontdeskhq/frontdesk/internal/port/outbox"
)

// Sweeper closes conversations that have been idle past the configured
// window. A closed conversation never reopens; the next inbound message
// from the same identity opens a fresh one.
type Sweeper struct {
	store       database.Store
	broadcaster broadcast.Broadcaster
	outbox      outbox.Publisher
	idleAfter   time.Duration
	interval    time.Duration
}

// NewSweeper creates the idle-conversation sweeper.
func NewSweeper(store database.Store, b broadcast.Broadcaster, o outbox.Publisher, idleAfter, interval time.Duration) *Sweeper {
	return &Sweeper{store: store, broadcaster: b, outbox: o, idleAfter: idleAfter, interval: interval}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep closes all idle conversations once and notifies each affected
// tenant's dashboard.
func (s *Sweeper) Sweep(ctx context.Context) {
	closed, err := s.store.CloseIdleConversations(ctx, time.Now().Add(-s.idleAfter))
	if err != nil {
		slog.Error("close idle conversations", "error", err)
		return
	}
	if len(closed) == 0 {
		return
	}

	slog.Info("closed idle conversations", "count", len(closed))
	for i := range closed {
		conv := &closed[i]
		event := broadcast.ConversationUpdateEvent{Conversation: conv}
		if s.broadcaster != nil {
			s.broadcaster.BroadcastEvent(ctx, conv.TenantID, broadcast.EventConversationUpdate, event)
		}
		if s.outbox != nil {
			if err := s.outbox.PublishConversationUpdated(ctx, conv.TenantID, event); err != nil {
				slog.Error("publish conversation closed", "conversation", conv.ID, "error", err)
			}
		}
	}
}
