// Package databasetest provides an in-memory database.Store for tests.
// Tenant-scoped methods read the tenant id from ctx exactly like the
// postgres store does. Fields are exported so tests can seed and inspect
// state directly; hold Mu when doing so.
package databasetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/frontdeskhq/frontdesk/internal/domain"
	"github.com/frontdeskhq/frontdesk/internal/domain/booking"
	"github.com/frontdeskhq/frontdesk/internal/domain/conversation"
	"github.com/frontdeskhq/frontdesk/internal/domain/customer"
	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
	"github.com/frontdeskhq/frontdesk/internal/middleware"
	"github.com/frontdeskhq/frontdesk/internal/port/database"
)

// Store is an in-memory database.Store.
type Store struct {
	Mu            sync.Mutex
	Seq           int
	Tenants       map[string]*tenant.Tenant
	Customers     []*customer.Customer
	Conversations []*conversation.Conversation
	Messages      []*conversation.Message
	Bookings      []*booking.Booking
}

var _ database.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{Tenants: make(map[string]*tenant.Tenant)}
}

func (s *Store) nextID(prefix string) string {
	s.Seq++
	return fmt.Sprintf("%s-%d", prefix, s.Seq)
}

func (s *Store) CreateTenant(_ context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	t := &tenant.Tenant{
		ID:        s.nextID("ten"),
		Name:      req.Name,
		Enabled:   true,
		Channels:  make(map[tenant.Channel]tenant.ChannelConfig),
		CreatedAt: time.Now(),
	}
	s.Tenants[t.ID] = t
	cp := *t
	return &cp, nil
}

func (s *Store) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	t, ok := s.Tenants[id]
	if !ok {
		return nil, fmt.Errorf("get tenant %s: %w", id, domain.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (s *Store) ListTenants(_ context.Context) ([]tenant.Tenant, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	out := make([]tenant.Tenant, 0, len(s.Tenants))
	for _, t := range s.Tenants {
		out = append(out, *t)
	}
	return out, nil
}

func (s *Store) UpdateTenantChannel(_ context.Context, id string, ch tenant.Channel, cfg tenant.ChannelConfig) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	t, ok := s.Tenants[id]
	if !ok {
		return fmt.Errorf("update tenant %s: %w", id, domain.ErrNotFound)
	}
	if t.Channels == nil {
		t.Channels = make(map[tenant.Channel]tenant.ChannelConfig)
	}
	t.Channels[ch] = cfg
	return nil
}

func (s *Store) UpdateTenantAI(_ context.Context, id string, ai tenant.AISettings) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	t, ok := s.Tenants[id]
	if !ok {
		return fmt.Errorf("update tenant %s: %w", id, domain.ErrNotFound)
	}
	t.AI = ai
	return nil
}

func (s *Store) UpdateTenantAPIKey(_ context.Context, id, keyHash string) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	t, ok := s.Tenants[id]
	if !ok {
		return fmt.Errorf("update tenant %s: %w", id, domain.ErrNotFound)
	}
	t.APIKeyHash = keyHash
	return nil
}

func (s *Store) UpsertCustomer(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	tid := middleware.TenantIDFromContext(ctx)
	for _, existing := range s.Customers {
		if existing.TenantID == tid && existing.Channel == c.Channel && existing.ExternalID == c.ExternalID {
			if c.Name != "" {
				existing.Name = c.Name
			}
			cp := *existing
			return &cp, nil
		}
	}

	created := &customer.Customer{
		ID:         s.nextID("cus"),
		TenantID:   tid,
		Name:       c.Name,
		Channel:    c.Channel,
		ExternalID: c.ExternalID,
		CreatedAt:  time.Now(),
	}
	s.Customers = append(s.Customers, created)
	cp := *created
	return &cp, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*customer.Customer, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	tid := middleware.TenantIDFromContext(ctx)
	for _, c := range s.Customers {
		if c.ID == id && c.TenantID == tid {
			cp := *c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get customer %s: %w", id, domain.ErrNotFound)
}

func (s *Store) ListCustomers(ctx context.Context) ([]customer.Customer, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	tid := middleware.TenantIDFromContext(ctx)
	out := []customer.Customer{}
	for _, c := range s.Customers {
		if c.TenantID == tid {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *Store) GetOrOpenConversation(ctx context.Context, customerID string, ch tenant.Channel) (*conversation.Conversation, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	tid := middleware.TenantIDFromContext(ctx)
	for _, c := range s.Conversations {
		if c.TenantID == tid && c.CustomerID == customerID && c.Channel == ch && c.Status == conversation.StatusActive {
			cp := *c
			return &cp, nil
		}
	}

	conv := &conversation.Conversation{
		ID:             s.nextID("con"),
		TenantID:       tid,
		CustomerID:     customerID,
		Channel:        ch,
		Status:         conversation.StatusActive,
		LastActivityAt: time.Now(),
		CreatedAt:      time.Now(),
	}
	s.Conversations = append(s.Conversations, conv)
	cp := *conv
	return &cp, nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (*conversation.Conversation, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	tid := middleware.TenantIDFromContext(ctx)
	for _, c := range s.Conversations {
		if c.ID == id && c.TenantID == tid {
			cp := *c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get conversation %s: %w", id, domain.ErrNotFound)
}

func (s *Store) ListConversations(ctx context.Context) ([]conversation.Conversation, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	tid := middleware.TenantIDFromContext(ctx)
	out := []conversation.Conversation{}
	for _, c := range s.Conversations {
		if c.TenantID == tid {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *Store) CloseIdleConversations(_ context.Context, cutoff time.Time) ([]conversation.Conversation, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	var closed []conversation.Conversation
	for _, c := range s.Conversations {
		if c.Status == conversation.StatusActive && c.LastActivityAt.Before(cutoff) {
			c.Status = conversation.StatusClosed
			closed = append(closed, *c)
		}
	}
	return closed, nil
}

func (s *Store) AppendMessage(_ context.Context, m *conversation.Message) (*conversation.Message, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	created := &conversation.Message{
		ID:             s.nextID("msg"),
		ConversationID: m.ConversationID,
		Role:           m.Role,
		Content:        m.Content,
		Metadata:       m.Metadata,
		CreatedAt:      time.Now(),
	}
	s.Messages = append(s.Messages, created)

	for _, c := range s.Conversations {
		if c.ID == m.ConversationID {
			c.LastActivityAt = created.CreatedAt
		}
	}
	cp := *created
	return &cp, nil
}

func (s *Store) ListMessages(_ context.Context, conversationID string) ([]conversation.Message, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	out := []conversation.Message{}
	for _, m := range s.Messages {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *Store) CreateBooking(ctx context.Context, b *booking.Booking) (*booking.Booking, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	created := &booking.Booking{
		ID:             s.nextID("bkg"),
		TenantID:       middleware.TenantIDFromContext(ctx),
		CustomerID:     b.CustomerID,
		ConversationID: b.ConversationID,
		Service:        b.Service,
		ScheduledAt:    b.ScheduledAt,
		Status:         booking.StatusPending,
		Notes:          b.Notes,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	s.Bookings = append(s.Bookings, created)
	cp := *created
	return &cp, nil
}

func (s *Store) GetBooking(ctx context.Context, id string) (*booking.Booking, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	tid := middleware.TenantIDFromContext(ctx)
	for _, b := range s.Bookings {
		if b.ID == id && b.TenantID == tid {
			cp := *b
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get booking %s: %w", id, domain.ErrNotFound)
}

func (s *Store) ListBookings(ctx context.Context) ([]booking.Booking, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	tid := middleware.TenantIDFromContext(ctx)
	out := []booking.Booking{}
	for _, b := range s.Bookings {
		if b.TenantID == tid {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *Store) UpdateBookingStatus(ctx context.Context, id string, req booking.UpdateStatusRequest) (*booking.Booking, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	tid := middleware.TenantIDFromContext(ctx)
	for _, b := range s.Bookings {
		if b.ID == id && b.TenantID == tid {
			b.Status = req.Status
			if req.Notes != "" {
				b.Notes = req.Notes
			}
			b.UpdatedAt = time.Now()
			cp := *b
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("update booking %s: %w", id, domain.ErrNotFound)
}
