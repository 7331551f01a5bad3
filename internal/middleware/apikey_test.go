package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPIKeyAuth(t *testing.T) {
	verify := func(_ context.Context, tenantID, key string) error {
		if tenantID == "ten-1" && key == "fdk_good" {
			return nil
		}
		return errors.New("unauthorized")
	}

	var gotTenant string
	handler := APIKeyAuth(verify)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTenant = TenantIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		tenantID   string
		key        string
		wantStatus int
	}{
		{"valid credentials", "ten-1", "fdk_good", http.StatusOK},
		{"wrong key", "ten-1", "fdk_bad", http.StatusUnauthorized},
		{"unknown tenant", "ten-2", "fdk_good", http.StatusUnauthorized},
		{"missing tenant header", "", "fdk_good", http.StatusUnauthorized},
		{"missing key header", "ten-1", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotTenant = ""
			req := httptest.NewRequest(http.MethodGet, "/api/v1/tenant", nil)
			if tt.tenantID != "" {
				req.Header.Set("X-Tenant-ID", tt.tenantID)
			}
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && gotTenant != tt.tenantID {
				t.Errorf("tenant in context = %q, want %q", gotTenant, tt.tenantID)
			}
			if tt.wantStatus != http.StatusOK && gotTenant != "" {
				t.Error("handler ran despite failed auth")
			}
		})
	}
}

func TestRequireTenant(t *testing.T) {
	handler := RequireTenant(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("without tenant", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("with tenant", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithTenantID(req.Context(), "ten-1"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}
