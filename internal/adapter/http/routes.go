package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/frontdeskhq/frontdesk/internal/middleware"
)

// MountRoutes registers the webhook router and the dashboard API.
// The webhook surface authenticates per delivery (adapter verification);
// the dashboard surface authenticates with the tenant API key.
func MountRoutes(r chi.Router, h *Handlers, verify middleware.VerifyKeyFunc) {
	r.Route("/hooks/{channel}/{tenantID}", func(r chi.Router) {
		r.Get("/", h.HandleWebhookHandshake)
		r.Post("/", h.HandleWebhook)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(verify))
		r.Use(middleware.RequireTenant)

		// Tenant settings
		r.Get("/tenant", h.GetTenant)
		r.Put("/tenant/channels", h.UpdateTenantChannel)
		r.Put("/tenant/ai", h.UpdateTenantAI)
		r.Post("/tenant/rotate-key", h.RotateTenantAPIKey)

		// Dashboard reads
		r.Get("/customers", h.ListCustomers)
		r.Get("/conversations", h.ListConversations)
		r.Get("/conversations/{id}", h.GetConversation)
		r.Get("/conversations/{id}/messages", h.ListConversationMessages)

		// Bookings
		r.Get("/bookings", h.ListBookings)
		r.Get("/bookings/{id}", h.GetBooking)
		r.Patch("/bookings/{id}", h.UpdateBookingStatus)
	})
}
