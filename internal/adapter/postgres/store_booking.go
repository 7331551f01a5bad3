package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/frontdeskhq/frontdesk/internal/domain/booking"
)

func (s *Store) CreateBooking(ctx context.Context, b *booking.Booking) (*booking.Booking, error) {
	tid := tenantFromCtx(ctx)
	var created booking.Booking
	var scheduledAt *time.Time
	err := s.pool.QueryRow(ctx,
		`INSERT INTO bookings (tenant_id, customer_id, conversation_id, service, scheduled_at, status, notes)
		 VALUES ($1, $2, $3, $4, $5, 'pending', $6)
		 RETURNING id, tenant_id, customer_id, conversation_id, service, scheduled_at, status,
		           coalesce(notes, ''), created_at, updated_at`,
		tid, b.CustomerID, b.ConversationID, b.Service, nullTime(b.ScheduledAt), nullIfEmpty(b.Notes),
	).Scan(&created.ID, &created.TenantID, &created.CustomerID, &created.ConversationID,
		&created.Service, &scheduledAt, &created.Status, &created.Notes,
		&created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	if scheduledAt != nil {
		created.ScheduledAt = *scheduledAt
	}
	return &created, nil
}

func (s *Store) GetBooking(ctx context.Context, id string) (*booking.Booking, error) {
	var b booking.Booking
	var scheduledAt *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, customer_id, conversation_id, service, scheduled_at, status,
		        coalesce(notes, ''), created_at, updated_at
		 FROM bookings WHERE id = $1 AND tenant_id = $2`,
		id, tenantFromCtx(ctx),
	).Scan(&b.ID, &b.TenantID, &b.CustomerID, &b.ConversationID,
		&b.Service, &scheduledAt, &b.Status, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get booking %s", id)
	}
	if scheduledAt != nil {
		b.ScheduledAt = *scheduledAt
	}
	return &b, nil
}

func (s *Store) ListBookings(ctx context.Context) ([]booking.Booking, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, customer_id, conversation_id, service, scheduled_at, status,
		        coalesce(notes, ''), created_at, updated_at
		 FROM bookings WHERE tenant_id = $1 ORDER BY created_at DESC`,
		tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var result []booking.Booking
	for rows.Next() {
		var b booking.Booking
		var scheduledAt *time.Time
		if err := rows.Scan(&b.ID, &b.TenantID, &b.CustomerID, &b.ConversationID,
			&b.Service, &scheduledAt, &b.Status, &b.Notes, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		if scheduledAt != nil {
			b.ScheduledAt = *scheduledAt
		}
		result = append(result, b)
	}
	return orEmpty(result), rows.Err()
}

func (s *Store) UpdateBookingStatus(ctx context.Context, id string, req booking.UpdateStatusRequest) (*booking.Booking, error) {
	var b booking.Booking
	var scheduledAt *time.Time
	err := s.pool.QueryRow(ctx,
		`UPDATE bookings
		 SET status = $3, notes = coalesce(nullif($4, ''), notes), updated_at = now()
		 WHERE id = $1 AND tenant_id = $2
		 RETURNING id, tenant_id, customer_id, conversation_id, service, scheduled_at, status,
		           coalesce(notes, ''), created_at, updated_at`,
		id, tenantFromCtx(ctx), req.Status, req.Notes,
	).Scan(&b.ID, &b.TenantID, &b.CustomerID, &b.ConversationID,
		&b.Service, &scheduledAt, &b.Status, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "update booking %s", id)
	}
	if scheduledAt != nil {
		b.ScheduledAt = *scheduledAt
	}
	return &b, nil
}
