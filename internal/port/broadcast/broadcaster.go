// Package broadcast defines the port for pushing real-time events to
// connected dashboard sessions.
package broadcast

import "context"

// Broadcaster fans a typed event out to every connected session of one
// tenant. Delivery is best-effort, at most once per connected client;
// events for tenants with no sessions are dropped.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, tenantID, eventType string, payload any)
}
