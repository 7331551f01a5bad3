package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frontdeskhq/frontdesk/internal/domain"
	"github.com/frontdeskhq/frontdesk/internal/domain/booking"
	"github.com/frontdeskhq/frontdesk/internal/port/broadcast"
	"github.com/frontdeskhq/frontdesk/internal/port/database"
	"github.com/frontdeskhq/frontdesk/internal/port/outbox"
)

// Bookings manages the booking lifecycle: creation from completion side
// effects and the status changes driven by the approval workflow.
type Bookings struct {
	store       database.Store
	broadcaster broadcast.Broadcaster
	outbox      outbox.Publisher
}

// NewBookings creates the booking service. broadcaster and outbox may be
// nil in tests.
func NewBookings(store database.Store, b broadcast.Broadcaster, o outbox.Publisher) *Bookings {
	return &Bookings{store: store, broadcaster: b, outbox: o}
}

// Create records a pending booking and notifies the tenant's dashboard and
// the event stream. Notification failures never fail the create.
func (s *Bookings) Create(ctx context.Context, b *booking.Booking) (*booking.Booking, error) {
	created, err := s.store.CreateBooking(ctx, b)
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastEvent(ctx, created.TenantID, broadcast.EventBookingNew,
			broadcast.BookingEvent{Booking: created})
	}
	if s.outbox != nil {
		if err := s.outbox.PublishBookingCreated(ctx, created.TenantID, created); err != nil {
			slog.Error("publish booking created", "booking", created.ID, "error", err)
		}
	}
	return created, nil
}

// Get returns one booking within the tenant scope.
func (s *Bookings) Get(ctx context.Context, id string) (*booking.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

// List returns the tenant's bookings.
func (s *Bookings) List(ctx context.Context) ([]booking.Booking, error) {
	return s.store.ListBookings(ctx)
}

// UpdateStatus moves a booking to a new status and notifies the dashboard
// and the event stream.
func (s *Bookings) UpdateStatus(ctx context.Context, id string, req booking.UpdateStatusRequest) (*booking.Booking, error) {
	if !req.Status.Valid() {
		return nil, fmt.Errorf("unknown booking status %q: %w", req.Status, domain.ErrValidation)
	}

	updated, err := s.store.UpdateBookingStatus(ctx, id, req)
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastEvent(ctx, updated.TenantID, broadcast.EventBookingUpdate,
			broadcast.BookingEvent{Booking: updated})
	}
	if s.outbox != nil {
		if err := s.outbox.PublishBookingUpdated(ctx, updated.TenantID, updated); err != nil {
			slog.Error("publish booking updated", "booking", updated.ID, "error", err)
		}
	}
	return updated, nil
}
