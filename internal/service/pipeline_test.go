package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/frontdeskhq/frontdesk/internal/domain/booking"
	"github.com/frontdeskhq/frontdesk/internal/domain/conversation"
	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
	"github.com/frontdeskhq/frontdesk/internal/middleware"
	"github.com/frontdeskhq/frontdesk/internal/port/broadcast"
	"github.com/frontdeskhq/frontdesk/internal/port/channel"
	"github.com/frontdeskhq/frontdesk/internal/port/database/databasetest"
	"github.com/frontdeskhq/frontdesk/internal/resilience"
)

// pipelineHarness wires a pipeline over in-memory fakes.
type pipelineHarness struct {
	store       *databasetest.Store
	completer   *fakeCompleter
	adapter     *fakeAdapter
	deduper     *fakeDeduper
	broadcaster *recordBroadcaster
	outbox      *recordOutbox
	pipeline    *Pipeline
	tenant      *tenant.Tenant
	ctx         context.Context
}

func newPipelineHarness(t *testing.T) *pipelineHarness {
	t.Helper()

	store := databasetest.New()
	ten, err := store.CreateTenant(context.Background(), tenant.CreateRequest{Name: "Bella Salon"})
	if err != nil {
		t.Fatalf("seed tenant: %v", err)
	}

	completer := &fakeCompleter{reply: "Hello! How can I help?"}
	broadcaster := &recordBroadcaster{}
	outbox := &recordOutbox{}
	deduper := newFakeDeduper()

	h := &pipelineHarness{
		store:       store,
		completer:   completer,
		adapter:     &fakeAdapter{ch: tenant.ChannelTelegram},
		deduper:     deduper,
		broadcaster: broadcaster,
		outbox:      outbox,
		tenant:      ten,
		ctx:         middleware.WithTenantID(context.Background(), ten.ID),
	}

	completionGw := NewCompletion(completer, resilience.NewBreaker(3, time.Minute), time.Second, nil)
	bookings := NewBookings(store, broadcaster, outbox)
	h.pipeline = NewPipeline(
		NewIdentity(store),
		NewLedger(store),
		completionGw,
		bookings,
		deduper,
		broadcaster,
		outbox,
		nil,
	)
	return h
}

func (h *pipelineHarness) process(t *testing.T, in *channel.Inbound) string {
	t.Helper()
	reply, err := h.pipeline.ProcessInbound(h.ctx, h.tenant, tenant.ChannelConfig{}, h.adapter, in)
	if err != nil {
		t.Fatalf("ProcessInbound: %v", err)
	}
	return reply
}

func TestPipelineProcessInbound(t *testing.T) {
	h := newPipelineHarness(t)

	reply := h.process(t, &channel.Inbound{
		ExternalID:        "chat-42",
		Text:              "Hi, are you open today?",
		Name:              "Ada",
		ProviderMessageID: "m1",
	})
	if reply != "Hello! How can I help?" {
		t.Errorf("reply = %q", reply)
	}

	// One customer, one conversation, customer message then assistant reply.
	if n := len(h.store.Customers); n != 1 {
		t.Fatalf("customers = %d, want 1", n)
	}
	if n := len(h.store.Conversations); n != 1 {
		t.Fatalf("conversations = %d, want 1", n)
	}
	msgs, err := h.store.ListMessages(h.ctx, h.store.Conversations[0].ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[0].Role != conversation.RoleCustomer || msgs[0].Content != "Hi, are you open today?" {
		t.Errorf("first message = %s %q", msgs[0].Role, msgs[0].Content)
	}
	if msgs[1].Role != conversation.RoleAI || msgs[1].Content != reply {
		t.Errorf("second message = %s %q", msgs[1].Role, msgs[1].Content)
	}

	if len(h.adapter.sent) != 1 || h.adapter.sent[0] != "chat-42: "+reply {
		t.Errorf("sent = %v", h.adapter.sent)
	}

	updates := h.broadcaster.byType(broadcast.EventConversationUpdate)
	if len(updates) != 2 {
		t.Errorf("conversation:update events = %d, want 2", len(updates))
	}
	for _, e := range updates {
		if e.tenantID != h.tenant.ID {
			t.Errorf("event tenant = %q, want %q", e.tenantID, h.tenant.ID)
		}
	}
}

func TestPipelineDuplicateDeliverySuppressed(t *testing.T) {
	h := newPipelineHarness(t)
	in := &channel.Inbound{ExternalID: "chat-42", Text: "Hello?", ProviderMessageID: "m1"}

	if reply := h.process(t, in); reply == "" {
		t.Fatal("first delivery returned empty reply")
	}
	if reply := h.process(t, in); reply != "" {
		t.Fatalf("duplicate delivery reply = %q, want empty", reply)
	}

	msgs, err := h.store.ListMessages(h.ctx, h.store.Conversations[0].ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Errorf("messages after duplicate = %d, want 2", len(msgs))
	}
	if h.completer.calls != 1 {
		t.Errorf("completer calls = %d, want 1", h.completer.calls)
	}
}

func TestPipelineDedupFailureDoesNotBlockDelivery(t *testing.T) {
	h := newPipelineHarness(t)
	h.deduper.err = errors.New("kv unavailable")

	reply := h.process(t, &channel.Inbound{ExternalID: "chat-42", Text: "Hello?", ProviderMessageID: "m1"})
	if reply == "" {
		t.Fatal("delivery dropped on dedup failure")
	}
}

func TestPipelineResolvesSameSenderToOneConversation(t *testing.T) {
	h := newPipelineHarness(t)

	h.process(t, &channel.Inbound{ExternalID: "chat-42", Text: "First", ProviderMessageID: "m1"})
	h.process(t, &channel.Inbound{ExternalID: "chat-42", Text: "Second", ProviderMessageID: "m2"})

	if n := len(h.store.Customers); n != 1 {
		t.Errorf("customers = %d, want 1", n)
	}
	if n := len(h.store.Conversations); n != 1 {
		t.Errorf("conversations = %d, want 1", n)
	}
	msgs, _ := h.store.ListMessages(h.ctx, h.store.Conversations[0].ID)
	if len(msgs) != 4 {
		t.Errorf("messages = %d, want 4", len(msgs))
	}
}

func TestPipelineCompletionFailureFallsBack(t *testing.T) {
	h := newPipelineHarness(t)
	h.completer.err = errors.New("model unavailable")

	reply := h.process(t, &channel.Inbound{ExternalID: "chat-42", Text: "Hello?", ProviderMessageID: "m1"})
	if reply != FallbackReply {
		t.Fatalf("reply = %q, want fallback", reply)
	}

	// The fallback is persisted and delivered like any assistant turn.
	msgs, _ := h.store.ListMessages(h.ctx, h.store.Conversations[0].ID)
	if len(msgs) != 2 || msgs[1].Content != FallbackReply {
		t.Errorf("persisted messages = %+v", msgs)
	}
	if len(h.adapter.sent) != 1 {
		t.Errorf("sent = %v, want the fallback delivered", h.adapter.sent)
	}
	if len(h.store.Bookings) != 0 {
		t.Errorf("bookings = %d, want none on completion failure", len(h.store.Bookings))
	}
}

func TestPipelineSendFailureDoesNotFailDelivery(t *testing.T) {
	h := newPipelineHarness(t)
	h.adapter.sendErr = channel.ErrSendFailed

	reply := h.process(t, &channel.Inbound{ExternalID: "chat-42", Text: "Hello?", ProviderMessageID: "m1"})
	if reply == "" {
		t.Fatal("delivery failed on outbound send error")
	}

	// The assistant message stays in the ledger even though the send failed.
	msgs, _ := h.store.ListMessages(h.ctx, h.store.Conversations[0].ID)
	if len(msgs) != 2 {
		t.Errorf("messages = %d, want 2", len(msgs))
	}
}

func TestPipelineBookingIntentCreatesBooking(t *testing.T) {
	h := newPipelineHarness(t)
	h.completer.reply = `Booked! <booking>{"service":"haircut","time":"2026-08-24T14:00","notes":"window seat"}</booking>`

	reply := h.process(t, &channel.Inbound{ExternalID: "chat-42", Text: "Book me for 2pm tomorrow", ProviderMessageID: "m1"})
	if reply != "Booked!" {
		t.Errorf("reply = %q, want marker stripped", reply)
	}

	if len(h.store.Bookings) != 1 {
		t.Fatalf("bookings = %d, want 1", len(h.store.Bookings))
	}
	b := h.store.Bookings[0]
	if b.Status != booking.StatusPending {
		t.Errorf("status = %s, want pending", b.Status)
	}
	if b.Service != "haircut" || b.Notes != "window seat" {
		t.Errorf("booking = %+v", b)
	}
	if b.TenantID != h.tenant.ID {
		t.Errorf("booking tenant = %q, want %q", b.TenantID, h.tenant.ID)
	}
	if b.ConversationID != h.store.Conversations[0].ID {
		t.Errorf("booking conversation = %q, want %q", b.ConversationID, h.store.Conversations[0].ID)
	}
	want := time.Date(2026, 8, 24, 14, 0, 0, 0, time.UTC)
	if !b.ScheduledAt.Equal(want) {
		t.Errorf("scheduled at = %v, want %v", b.ScheduledAt, want)
	}

	if n := len(h.broadcaster.byType(broadcast.EventBookingNew)); n != 1 {
		t.Errorf("booking:new events = %d, want 1", n)
	}
}

func TestDeliveryKeySanitizesProviderIDs(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"wamid.ABGGF==", "ten-1.whatsapp.wamid.ABGGF=="},
		{"id with spaces", "ten-1.whatsapp.id_with_spaces"},
		{"weird/\\:*chars", "ten-1.whatsapp.weird____chars"},
	}
	for _, tt := range tests {
		if got := deliveryKey("ten-1", tenant.ChannelWhatsApp, tt.id); got != tt.want {
			t.Errorf("deliveryKey(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
