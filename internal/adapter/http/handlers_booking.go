package http

import (
	"net/http"

	"github.com/frontdeskhq/frontdesk/internal/domain/booking"
)

// ListBookings returns the tenant's bookings.
func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.List(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// GetBooking returns one booking within the tenant scope.
func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.bookings.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "booking not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// UpdateBookingStatus moves a booking through the approval workflow's
// status transitions and pushes the booking:update event.
func (h *Handlers) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[booking.UpdateStatusRequest](w, r)
	if !ok {
		return
	}

	b, err := h.bookings.UpdateStatus(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "booking not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}
