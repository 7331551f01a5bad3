package service

import (
	"context"

	"github.com/frontdeskhq/frontdesk/internal/domain/conversation"
	"github.com/frontdeskhq/frontdesk/internal/domain/customer"
	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
	"github.com/frontdeskhq/frontdesk/internal/port/channel"
	"github.com/frontdeskhq/frontdesk/internal/port/database"
)

// Identity resolves an inbound sender to a customer record and the active
// conversation for that customer on the channel. Both steps are idempotent
// upserts, so concurrent deliveries for the same sender converge on one
// customer and one active conversation.
type Identity struct {
	store database.Store
}

// NewIdentity creates the identity resolver.
func NewIdentity(store database.Store) *Identity {
	return &Identity{store: store}
}

// Resolve upserts the customer for (tenant, channel, external id) and
// returns it with the active conversation, opening one if needed. The
// tenant scope comes from ctx.
func (i *Identity) Resolve(ctx context.Context, ch tenant.Channel, in *channel.Inbound) (*customer.Customer, *conversation.Conversation, error) {
	cust, err := i.store.UpsertCustomer(ctx, &customer.Customer{
		Name:       in.Name,
		Channel:    ch,
		ExternalID: in.ExternalID,
	})
	if err != nil {
		return nil, nil, err
	}

	conv, err := i.store.GetOrOpenConversation(ctx, cust.ID, ch)
	if err != nil {
		return nil, nil, err
	}
	return cust, conv, nil
}
