package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
	"github.com/frontdeskhq/frontdesk/internal/port/channel"
	"github.com/frontdeskhq/frontdesk/internal/port/completion"
)

// memCache is a TTL-less in-memory cache.Cache.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	return data, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// broadcastRecord is one captured BroadcastEvent call.
type broadcastRecord struct {
	tenantID  string
	eventType string
	payload   any
}

type recordBroadcaster struct {
	mu     sync.Mutex
	events []broadcastRecord
}

func (b *recordBroadcaster) BroadcastEvent(_ context.Context, tenantID, eventType string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastRecord{tenantID: tenantID, eventType: eventType, payload: payload})
}

func (b *recordBroadcaster) byType(eventType string) []broadcastRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []broadcastRecord
	for _, e := range b.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type recordOutbox struct {
	mu        sync.Mutex
	published []string
}

func (o *recordOutbox) record(kind, tenantID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.published = append(o.published, kind+":"+tenantID)
}

func (o *recordOutbox) PublishConversationUpdated(_ context.Context, tenantID string, _ any) error {
	o.record("conversation.updated", tenantID)
	return nil
}

func (o *recordOutbox) PublishBookingCreated(_ context.Context, tenantID string, _ any) error {
	o.record("booking.created", tenantID)
	return nil
}

func (o *recordOutbox) PublishBookingUpdated(_ context.Context, tenantID string, _ any) error {
	o.record("booking.updated", tenantID)
	return nil
}

// fakeDeduper remembers delivery keys in memory.
type fakeDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newFakeDeduper() *fakeDeduper {
	return &fakeDeduper{seen: make(map[string]bool)}
}

func (d *fakeDeduper) FirstDelivery(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

// fakeCompleter returns a canned reply or error and captures the prompt.
type fakeCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
	last  []completion.ChatMessage
}

func (c *fakeCompleter) CreateCompletion(_ context.Context, messages []completion.ChatMessage) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.last = messages
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

// fakeAdapter is a minimal channel.Adapter for pipeline tests.
type fakeAdapter struct {
	ch      tenant.Channel
	sendErr error

	mu   sync.Mutex
	sent []string
}

func (a *fakeAdapter) Channel() tenant.Channel { return a.ch }

func (a *fakeAdapter) Verify(tenant.ChannelConfig, *http.Request, []byte) bool { return true }

func (a *fakeAdapter) ExtractInbound([]byte) (*channel.Inbound, error) { return nil, nil }

func (a *fakeAdapter) SendOutbound(_ context.Context, _ tenant.ChannelConfig, externalID, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, externalID+": "+text)
	return a.sendErr
}
