package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/frontdeskhq/frontdesk/internal/domain"
	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
	"github.com/frontdeskhq/frontdesk/internal/port/database/databasetest"
)

func TestRegistryCreateIssuesVerifiableKey(t *testing.T) {
	store := databasetest.New()
	registry := NewRegistry(store, nil, 0)

	created, key, err := registry.Create(context.Background(), tenant.CreateRequest{Name: "  Bella Salon  "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Name != "Bella Salon" {
		t.Errorf("name = %q, want trimmed %q", created.Name, "Bella Salon")
	}
	if !strings.HasPrefix(key, "fdk_") {
		t.Errorf("key = %q, want fdk_ prefix", key)
	}

	if err := registry.VerifyAPIKey(context.Background(), created.ID, key); err != nil {
		t.Errorf("VerifyAPIKey with issued key: %v", err)
	}
	if err := registry.VerifyAPIKey(context.Background(), created.ID, "fdk_wrong"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("VerifyAPIKey with wrong key = %v, want ErrUnauthorized", err)
	}
	if err := registry.VerifyAPIKey(context.Background(), "no-such-tenant", key); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("VerifyAPIKey with unknown tenant = %v, want ErrUnauthorized", err)
	}
}

func TestRegistryCreateRequiresName(t *testing.T) {
	registry := NewRegistry(databasetest.New(), nil, 0)

	if _, _, err := registry.Create(context.Background(), tenant.CreateRequest{Name: "   "}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Create with blank name = %v, want ErrValidation", err)
	}
}

func TestRegistryGetServesFromCache(t *testing.T) {
	store := databasetest.New()
	cache := newMemCache()
	registry := NewRegistry(store, cache, time.Minute)

	created, key, err := registry.Create(context.Background(), tenant.CreateRequest{Name: "Bella Salon"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Populate the cache, then change the store behind the registry's back.
	if _, err := registry.Get(context.Background(), created.ID); err != nil {
		t.Fatalf("Get: %v", err)
	}
	store.Mu.Lock()
	store.Tenants[created.ID].Name = "renamed directly"
	store.Mu.Unlock()

	got, err := registry.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get after store mutation: %v", err)
	}
	if got.Name != "Bella Salon" {
		t.Errorf("name = %q, want cached %q", got.Name, "Bella Salon")
	}

	// The cached entry must carry the key hash too or credential checks
	// would fail on every cache hit.
	if err := registry.VerifyAPIKey(context.Background(), created.ID, key); err != nil {
		t.Errorf("VerifyAPIKey on cache hit: %v", err)
	}
}

func TestRegistryUpdateChannelInvalidatesCache(t *testing.T) {
	store := databasetest.New()
	cache := newMemCache()
	registry := NewRegistry(store, cache, time.Minute)

	created, _, err := registry.Create(context.Background(), tenant.CreateRequest{Name: "Bella Salon"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := registry.Get(context.Background(), created.ID); err != nil {
		t.Fatalf("Get: %v", err)
	}

	cfg := tenant.ChannelConfig{BotToken: "bot-token", WebhookSecret: "hook-secret"}
	err = registry.UpdateChannel(context.Background(), created.ID, tenant.UpdateChannelRequest{
		Channel: tenant.ChannelTelegram,
		Config:  cfg,
	})
	if err != nil {
		t.Fatalf("UpdateChannel: %v", err)
	}

	got, err := registry.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if got.Channels[tenant.ChannelTelegram] != cfg {
		t.Errorf("channel config = %+v, want %+v", got.Channels[tenant.ChannelTelegram], cfg)
	}
}

func TestRegistryUpdateChannelRejectsUnknownChannel(t *testing.T) {
	registry := NewRegistry(databasetest.New(), nil, 0)

	err := registry.UpdateChannel(context.Background(), "ten-1", tenant.UpdateChannelRequest{Channel: "smoke-signals"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("UpdateChannel = %v, want ErrValidation", err)
	}
}

func TestRegistryRotateAPIKeyInvalidatesOldKey(t *testing.T) {
	store := databasetest.New()
	registry := NewRegistry(store, nil, 0)

	created, oldKey, err := registry.Create(context.Background(), tenant.CreateRequest{Name: "Bella Salon"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	newKey, err := registry.RotateAPIKey(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("RotateAPIKey: %v", err)
	}
	if newKey == oldKey {
		t.Fatal("rotation returned the same key")
	}

	if err := registry.VerifyAPIKey(context.Background(), created.ID, newKey); err != nil {
		t.Errorf("VerifyAPIKey with new key: %v", err)
	}
	if err := registry.VerifyAPIKey(context.Background(), created.ID, oldKey); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("VerifyAPIKey with old key = %v, want ErrUnauthorized", err)
	}
}

func TestRegistryChannelConfig(t *testing.T) {
	store := databasetest.New()
	registry := NewRegistry(store, nil, 0)

	created, _, err := registry.Create(context.Background(), tenant.CreateRequest{Name: "Bella Salon"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	telegramCfg := tenant.ChannelConfig{BotToken: "bot-token", WebhookSecret: "hook-secret"}
	if err := store.UpdateTenantChannel(context.Background(), created.ID, tenant.ChannelTelegram, telegramCfg); err != nil {
		t.Fatalf("UpdateTenantChannel: %v", err)
	}

	t.Run("configured channel", func(t *testing.T) {
		got, cfg, err := registry.ChannelConfig(context.Background(), created.ID, tenant.ChannelTelegram)
		if err != nil {
			t.Fatalf("ChannelConfig: %v", err)
		}
		if got.ID != created.ID {
			t.Errorf("tenant id = %q, want %q", got.ID, created.ID)
		}
		if cfg != telegramCfg {
			t.Errorf("config = %+v, want %+v", cfg, telegramCfg)
		}
	})

	t.Run("website needs no credentials", func(t *testing.T) {
		if _, _, err := registry.ChannelConfig(context.Background(), created.ID, tenant.ChannelWebsite); err != nil {
			t.Fatalf("ChannelConfig website: %v", err)
		}
	})

	t.Run("unknown tenant", func(t *testing.T) {
		_, _, err := registry.ChannelConfig(context.Background(), "no-such-tenant", tenant.ChannelTelegram)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("ChannelConfig = %v, want ErrNotFound", err)
		}
	})

	t.Run("unconfigured channel", func(t *testing.T) {
		_, _, err := registry.ChannelConfig(context.Background(), created.ID, tenant.ChannelWhatsApp)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("ChannelConfig = %v, want ErrNotFound", err)
		}
	})

	t.Run("disabled tenant", func(t *testing.T) {
		store.Mu.Lock()
		store.Tenants[created.ID].Enabled = false
		store.Mu.Unlock()

		_, _, err := registry.ChannelConfig(context.Background(), created.ID, tenant.ChannelTelegram)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("ChannelConfig = %v, want ErrNotFound", err)
		}
	})
}
