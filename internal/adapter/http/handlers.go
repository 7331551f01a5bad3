package http

import (
	"context"
	"net/http"

	"github.com/frontdeskhq/frontdesk/internal/adapter/otel"
	"github.com/frontdeskhq/frontdesk/internal/port/database"
	"github.com/frontdeskhq/frontdesk/internal/service"
)

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnChecker reports message-broker reachability.
type ConnChecker interface {
	IsConnected() bool
}

// Handlers bundles the services the HTTP surface dispatches into.
type Handlers struct {
	registry *service.Registry
	pipeline *service.Pipeline
	ledger   *service.Ledger
	bookings *service.Bookings
	store    database.Store
	metrics  *otel.Metrics

	db     Pinger
	broker ConnChecker
}

// NewHandlers creates the handler set. metrics, db and broker may be nil.
func NewHandlers(registry *service.Registry, pipeline *service.Pipeline, ledger *service.Ledger,
	bookings *service.Bookings, store database.Store, metrics *otel.Metrics,
	db Pinger, broker ConnChecker) *Handlers {
	return &Handlers{
		registry: registry,
		pipeline: pipeline,
		ledger:   ledger,
		bookings: bookings,
		store:    store,
		metrics:  metrics,
		db:       db,
		broker:   broker,
	}
}

// Health reports reachability of the backing services. Degraded
// dependencies turn the status to 503 so load balancers rotate the
// instance out.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	type health struct {
		Status   string `json:"status"`
		Postgres string `json:"postgres"`
		NATS     string `json:"nats"`
	}

	resp := health{Status: "ok", Postgres: "ok", NATS: "ok"}
	status := http.StatusOK

	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			resp.Postgres = "unreachable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	if h.broker != nil && !h.broker.IsConnected() {
		resp.NATS = "disconnected"
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}
