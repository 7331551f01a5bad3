// Package booking defines the booking aggregate produced as a completion
// side effect and later driven by the approval workflow.
package booking

import "time"

// Status is the lifecycle state of a booking.
type Status string

// Booking statuses. Bookings are created pending; the approval workflow
// moves them to one of the terminal states.
const (
	StatusPending             Status = "pending"
	StatusConfirmed           Status = "confirmed"
	StatusCancelled           Status = "cancelled"
	StatusRescheduleRequested Status = "reschedule_requested"
)

// Valid reports whether s is a known booking status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusRescheduleRequested:
		return true
	}
	return false
}

// Booking records a service appointment request extracted from a conversation.
type Booking struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	CustomerID     string    `json:"customer_id"`
	ConversationID string    `json:"conversation_id"`
	Service        string    `json:"service"`
	ScheduledAt    time.Time `json:"scheduled_at,omitempty"`
	Status         Status    `json:"status"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UpdateStatusRequest is the input for the approval workflow's status change.
type UpdateStatusRequest struct {
	Status Status `json:"status"`
	Notes  string `json:"notes,omitempty"`
}
