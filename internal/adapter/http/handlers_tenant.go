package http

import (
	"net/http"

	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
	"github.com/frontdeskhq/frontdesk/internal/middleware"
)

// GetTenant returns the authenticated tenant's own settings.
func (h *Handlers) GetTenant(w http.ResponseWriter, r *http.Request) {
	t, err := h.registry.Get(r.Context(), middleware.TenantIDFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// UpdateTenantChannel replaces one channel's credential bundle for the
// authenticated tenant.
func (h *Handlers) UpdateTenantChannel(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[tenant.UpdateChannelRequest](w, r)
	if !ok {
		return
	}

	id := middleware.TenantIDFromContext(r.Context())
	if err := h.registry.UpdateChannel(r.Context(), id, req); err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// UpdateTenantAI replaces the authenticated tenant's completion settings.
func (h *Handlers) UpdateTenantAI(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[tenant.AISettings](w, r)
	if !ok {
		return
	}

	id := middleware.TenantIDFromContext(r.Context())
	if err := h.registry.UpdateAI(r.Context(), id, req); err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// RotateTenantAPIKey issues a fresh dashboard key for the authenticated
// tenant. The response carries the plain key exactly once; the old key
// stops working immediately.
func (h *Handlers) RotateTenantAPIKey(w http.ResponseWriter, r *http.Request) {
	id := middleware.TenantIDFromContext(r.Context())
	key, err := h.registry.RotateAPIKey(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"api_key": key})
}

// ListCustomers returns the tenant's customers.
func (h *Handlers) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.store.ListCustomers(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}
