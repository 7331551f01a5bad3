package middleware

import (
	"context"
	"net/http"
)

// VerifyKeyFunc checks a tenant's dashboard API key.
type VerifyKeyFunc func(ctx context.Context, tenantID, key string) error

// APIKeyAuth authenticates dashboard requests from the X-Tenant-ID and
// X-API-Key headers and scopes the request context to the tenant. Failures
// are uniformly 401 so the response leaks nothing about which credential
// was wrong.
func APIKeyAuth(verify VerifyKeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := r.Header.Get("X-Tenant-ID")
			key := r.Header.Get("X-API-Key")
			if tenantID == "" || key == "" {
				unauthorized(w)
				return
			}
			if err := verify(r.Context(), tenantID, key); err != nil {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithTenantID(r.Context(), tenantID)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
}
