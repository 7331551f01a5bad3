// Package middleware provides HTTP middleware and request-context plumbing.
package middleware

import (
	"context"
	"net/http"
)

type tenantCtxKey struct{}

// WithTenantID returns a context carrying the given tenant ID. The webhook
// router and the API-key authenticator call this once the tenant is known;
// every tenant-scoped store query reads it back.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantCtxKey{}, tenantID)
}

// TenantIDFromContext returns the tenant ID stored in ctx, or "" if absent.
func TenantIDFromContext(ctx context.Context) string {
	if tid, ok := ctx.Value(tenantCtxKey{}).(string); ok {
		return tid
	}
	return ""
}

// RequireTenant rejects requests whose context carries no tenant ID.
// Mounted after the API-key authenticator on dashboard routes.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if TenantIDFromContext(r.Context()) == "" {
			http.Error(w, `{"error":"tenant not resolved"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
