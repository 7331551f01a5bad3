package broadcast

import (
	"github.com/frontdeskhq/frontdesk/internal/domain/booking"
	"github.com/frontdeskhq/frontdesk/internal/domain/conversation"
)

// Event types pushed to dashboard sessions.
const (
	EventConversationUpdate = "conversation:update"
	EventBookingNew         = "booking:new"
	EventBookingUpdate      = "booking:update"
)

// ConversationUpdateEvent is pushed when a conversation gains a message or
// changes status.
type ConversationUpdateEvent struct {
	Conversation *conversation.Conversation `json:"conversation"`
	Message      *conversation.Message      `json:"message,omitempty"`
}

// BookingEvent is pushed when a booking is created or its status changes.
type BookingEvent struct {
	Booking *booking.Booking `json:"booking"`
}
