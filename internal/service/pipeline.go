package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frontdeskhq/frontdesk/internal/adapter/otel"
	"github.com/frontdeskhq/frontdesk/internal/domain/booking"
	"github.com/frontdeskhq/frontdesk/internal/domain/conversation"
	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
	"github.com/frontdeskhq/frontdesk/internal/port/broadcast"
	"github.com/frontdeskhq/frontdesk/internal/port/channel"
	"github.com/frontdeskhq/frontdesk/internal/port/dedup"
	"github.com/frontdeskhq/frontdesk/internal/port/outbox"
)

// Pipeline runs one inbound message through the full flow: dedup, identity
// resolution, ledger append, completion, outbound send, and the side-effect
// fan-out. Side effects (dashboard push, event stream, outbound send) never
// fail the pipeline; the ledger is the source of truth.
type Pipeline struct {
	identity    *Identity
	ledger      *Ledger
	completion  *Completion
	bookings    *Bookings
	dedup       dedup.Deduper
	broadcaster broadcast.Broadcaster
	outbox      outbox.Publisher
	metrics     *otel.Metrics
}

// NewPipeline creates the message pipeline. dedup, broadcaster, outbox and
// metrics may be nil.
func NewPipeline(identity *Identity, ledger *Ledger, completion *Completion, bookings *Bookings,
	d dedup.Deduper, b broadcast.Broadcaster, o outbox.Publisher, m *otel.Metrics) *Pipeline {
	return &Pipeline{
		identity:    identity,
		ledger:      ledger,
		completion:  completion,
		bookings:    bookings,
		dedup:       d,
		broadcaster: b,
		outbox:      o,
		metrics:     m,
	}
}

// ProcessInbound handles one verified inbound message for the tenant and
// returns the assistant reply. ctx must carry the tenant scope. A duplicate
// provider delivery returns ("", nil) without touching the ledger.
func (p *Pipeline) ProcessInbound(ctx context.Context, t *tenant.Tenant, cfg tenant.ChannelConfig, adapter channel.Adapter, in *channel.Inbound) (string, error) {
	ch := adapter.Channel()

	if in.ProviderMessageID != "" && p.dedup != nil {
		first, err := p.dedup.FirstDelivery(ctx, deliveryKey(t.ID, ch, in.ProviderMessageID))
		if err != nil {
			// Dedup is an optimization; on store failure the delivery
			// proceeds and the idempotent upserts absorb most damage.
			slog.Warn("dedup check failed", "tenant", t.ID, "channel", ch, "error", err)
		} else if !first {
			slog.Info("duplicate delivery suppressed", "tenant", t.ID, "channel", ch, "provider_message_id", in.ProviderMessageID)
			if p.metrics != nil {
				p.metrics.WebhooksDeduped.Add(ctx, 1)
			}
			return "", nil
		}
	}

	_, conv, err := p.identity.Resolve(ctx, ch, in)
	if err != nil {
		return "", fmt.Errorf("resolve identity: %w", err)
	}

	var meta json.RawMessage
	if in.ProviderMessageID != "" {
		meta, _ = json.Marshal(map[string]string{"provider_message_id": in.ProviderMessageID})
	}
	custMsg, err := p.ledger.Append(ctx, conv.ID, conversation.RoleCustomer, in.Text, meta)
	if err != nil {
		return "", fmt.Errorf("append customer message: %w", err)
	}
	p.notifyConversation(ctx, conv, custMsg)

	history, err := p.ledger.History(ctx, conv.ID)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	compCtx, span := otel.StartCompletionSpan(ctx, conv.ID)
	reply, intent, err := p.completion.Reply(compCtx, t, history)
	span.End()
	if err != nil {
		slog.Error("completion failed, using fallback", "tenant", t.ID, "conversation", conv.ID, "error", err)
		reply, intent = FallbackReply, nil
	}

	aiMsg, err := p.ledger.Append(ctx, conv.ID, conversation.RoleAI, reply, nil)
	if err != nil {
		return "", fmt.Errorf("append ai message: %w", err)
	}
	p.notifyConversation(ctx, conv, aiMsg)

	if err := adapter.SendOutbound(ctx, cfg, in.ExternalID, reply); err != nil {
		slog.Error("outbound send failed", "tenant", t.ID, "channel", ch, "conversation", conv.ID, "error", err)
		if p.metrics != nil {
			p.metrics.SendsFailed.Add(ctx, 1)
		}
	}

	if intent != nil {
		if _, err := p.bookings.Create(ctx, &booking.Booking{
			TenantID:       t.ID,
			CustomerID:     conv.CustomerID,
			ConversationID: conv.ID,
			Service:        intent.Service,
			ScheduledAt:    intent.ScheduledAt(),
			Notes:          intent.Notes,
		}); err != nil {
			slog.Error("create booking from intent", "tenant", t.ID, "conversation", conv.ID, "error", err)
		}
	}

	return reply, nil
}

// notifyConversation pushes a conversation update to the dashboard and the
// event stream. Best-effort.
func (p *Pipeline) notifyConversation(ctx context.Context, conv *conversation.Conversation, msg *conversation.Message) {
	event := broadcast.ConversationUpdateEvent{Conversation: conv, Message: msg}
	if p.broadcaster != nil {
		p.broadcaster.BroadcastEvent(ctx, conv.TenantID, broadcast.EventConversationUpdate, event)
	}
	if p.outbox != nil {
		if err := p.outbox.PublishConversationUpdated(ctx, conv.TenantID, event); err != nil {
			slog.Error("publish conversation updated", "conversation", conv.ID, "error", err)
		}
	}
}

// deliveryKey builds the dedup key for a provider delivery. Characters
// outside the KV key alphabet are mapped to '_'.
func deliveryKey(tenantID string, ch tenant.Channel, providerMessageID string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '=', r == '.':
			return r
		}
		return '_'
	}, providerMessageID)
	return tenantID + "." + string(ch) + "." + sanitized
}
