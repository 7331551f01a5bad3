// Package database defines the database store port (interface).
package database

import (
	"context"
	"time"

	"github.com/frontdeskhq/frontdesk/internal/domain/booking"
	"github.com/frontdeskhq/frontdesk/internal/domain/conversation"
	"github.com/frontdeskhq/frontdesk/internal/domain/customer"
	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
)

// Store is the port interface for persistence. The routing core consumes it
// as a plain record store; the backing engine is an adapter concern.
type Store interface {
	// Tenants
	CreateTenant(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error)
	GetTenant(ctx context.Context, id string) (*tenant.Tenant, error)
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)
	UpdateTenantChannel(ctx context.Context, id string, ch tenant.Channel, cfg tenant.ChannelConfig) error
	UpdateTenantAI(ctx context.Context, id string, ai tenant.AISettings) error
	UpdateTenantAPIKey(ctx context.Context, id, keyHash string) error

	// Customers
	// UpsertCustomer returns the existing customer for
	// (tenant, channel, external id) or creates one atomically.
	UpsertCustomer(ctx context.Context, c *customer.Customer) (*customer.Customer, error)
	GetCustomer(ctx context.Context, id string) (*customer.Customer, error)
	ListCustomers(ctx context.Context) ([]customer.Customer, error)

	// Conversations
	// GetOrOpenConversation returns the active conversation for
	// (tenant, customer, channel) or opens one atomically.
	GetOrOpenConversation(ctx context.Context, customerID string, ch tenant.Channel) (*conversation.Conversation, error)
	GetConversation(ctx context.Context, id string) (*conversation.Conversation, error)
	ListConversations(ctx context.Context) ([]conversation.Conversation, error)
	// CloseIdleConversations closes active conversations whose last activity
	// is older than the cutoff and returns the conversations it closed.
	CloseIdleConversations(ctx context.Context, cutoff time.Time) ([]conversation.Conversation, error)

	// Messages
	AppendMessage(ctx context.Context, m *conversation.Message) (*conversation.Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]conversation.Message, error)

	// Bookings
	CreateBooking(ctx context.Context, b *booking.Booking) (*booking.Booking, error)
	GetBooking(ctx context.Context, id string) (*booking.Booking, error)
	ListBookings(ctx context.Context) ([]booking.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, req booking.UpdateStatusRequest) (*booking.Booking, error)
}
