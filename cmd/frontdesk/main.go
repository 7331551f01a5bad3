// Command frontdesk runs the multi-tenant receptionist core: the webhook
// router, the dashboard API, and the live notifier. The admin subcommand
// provisions tenants.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	fdhttp "github.com/frontdeskhq/frontdesk/internal/adapter/http"
	fdnats "github.com/frontdeskhq/frontdesk/internal/adapter/nats"
	"github.com/frontdeskhq/frontdesk/internal/adapter/openai"
	"github.com/frontdeskhq/frontdesk/internal/adapter/otel"
	"github.com/frontdeskhq/frontdesk/internal/adapter/postgres"
	"github.com/frontdeskhq/frontdesk/internal/adapter/ristretto"
	"github.com/frontdeskhq/frontdesk/internal/adapter/ws"
	"github.com/frontdeskhq/frontdesk/internal/config"
	"github.com/frontdeskhq/frontdesk/internal/resilience"
	"github.com/frontdeskhq/frontdesk/internal/service"
)

// dedupFrontBytes sizes the in-process front of the dedup store. Entries
// are tiny (key + one byte), so a few MB holds a day of traffic.
const dedupFrontBytes = 8 << 20

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Logging.Level),
	})))

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Telemetry ---
	otelShutdown, err := otel.Setup(ctx, cfg.Telemetry, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelShutdown(shutdownCtx)
	}()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	queue, err := fdnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	tenantCache, err := ristretto.New(cfg.Cache.TenantMaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("tenant cache: %w", err)
	}
	defer tenantCache.Close()

	dedupFront, err := ristretto.New(dedupFrontBytes)
	if err != nil {
		return fmt.Errorf("dedup cache: %w", err)
	}
	defer dedupFront.Close()

	deduper, err := fdnats.NewDedup(ctx, queue, cfg.Dedup.Bucket, cfg.Dedup.TTL, dedupFront)
	if err != nil {
		return fmt.Errorf("dedup bucket: %w", err)
	}

	// --- Services ---
	store := postgres.NewStore(pool)
	registry := service.NewRegistry(store, tenantCache, cfg.Cache.TenantTTL)
	hub := ws.NewHub(registry.VerifyAPIKey)

	identity := service.NewIdentity(store)
	ledger := service.NewLedger(store)
	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	completionSvc := service.NewCompletion(openai.New(cfg.OpenAI), breaker, cfg.OpenAI.Timeout, metrics)
	bookings := service.NewBookings(store, hub, queue)
	pipeline := service.NewPipeline(identity, ledger, completionSvc, bookings, deduper, hub, queue, metrics)

	sweeper := service.NewSweeper(store, hub, queue, cfg.Sweeper.IdleAfter, cfg.Sweeper.Interval)
	go sweeper.Run(ctx)

	// --- HTTP ---
	handlers := fdhttp.NewHandlers(registry, pipeline, ledger, bookings, store, metrics, pool, queue)

	r := chi.NewRouter()
	r.Use(fdhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(fdhttp.Logger)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if cfg.Telemetry.Enabled {
		r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	}

	// WebSocket sessions are long-lived and must not inherit the request
	// timeout that bounds the rest of the API.
	r.Get("/ws", hub.HandleWS)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))
		r.Get("/health", handlers.Health)
		fdhttp.MountRoutes(r, handlers, registry.VerifyAPIKey)
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
