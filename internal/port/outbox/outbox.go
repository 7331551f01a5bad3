// Package outbox defines the port for durable tenant event publication.
// Downstream services (booking approval workflow, analytics) consume these
// events from the stream; the core never waits on them.
package outbox

import "context"

// Publisher emits tenant-scoped domain events to the durable stream.
type Publisher interface {
	PublishConversationUpdated(ctx context.Context, tenantID string, payload any) error
	PublishBookingCreated(ctx context.Context, tenantID string, payload any) error
	PublishBookingUpdated(ctx context.Context, tenantID string, payload any) error
}
