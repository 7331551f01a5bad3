package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/frontdeskhq/frontdesk/internal/adapter/otel"
	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
	"github.com/frontdeskhq/frontdesk/internal/middleware"
	"github.com/frontdeskhq/frontdesk/internal/port/channel"
)

// HandleWebhookHandshake answers provider GET verification handshakes
// (WhatsApp and Meta subscription challenges). Channels without a
// handshake respond 404.
func (h *Handlers) HandleWebhookHandshake(w http.ResponseWriter, r *http.Request) {
	ch := tenant.Channel(urlParam(r, "channel"))
	adapter, ok := channel.Lookup(ch)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown channel")
		return
	}
	hv, ok := adapter.(channel.HandshakeVerifier)
	if !ok {
		writeError(w, http.StatusNotFound, "channel has no handshake")
		return
	}

	_, cfg, err := h.registry.ChannelConfig(r.Context(), urlParam(r, "tenantID"), ch)
	if err != nil {
		writeDomainError(w, err, "unknown webhook endpoint")
		return
	}

	challenge, ok := hv.VerifyHandshake(cfg, r.URL.Query())
	if !ok {
		writeError(w, http.StatusForbidden, "verification failed")
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(challenge))
}

// HandleWebhook ingests one provider delivery. Unknown tenants and
// unconfigured channels are 404, failed verification is 401, everything
// after verification is 200: the provider must never retry because our
// pipeline hiccupped. The website channel runs the pipeline inline and
// returns the reply in the response body; all other channels process in
// the background.
func (h *Handlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ch := tenant.Channel(urlParam(r, "channel"))
	adapter, ok := channel.Lookup(ch)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown channel")
		return
	}

	t, cfg, err := h.registry.ChannelConfig(r.Context(), urlParam(r, "tenantID"), ch)
	if err != nil {
		writeDomainError(w, err, "unknown webhook endpoint")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if !adapter.Verify(cfg, r, body) {
		if h.metrics != nil {
			h.metrics.WebhooksRejected.Add(r.Context(), 1)
		}
		writeError(w, http.StatusUnauthorized, "verification failed")
		return
	}

	in, err := adapter.ExtractInbound(body)
	if err != nil || in == nil {
		// Unparseable or non-message payloads are acknowledged and dropped.
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if h.metrics != nil {
		h.metrics.WebhooksReceived.Add(r.Context(), 1)
	}

	ctx := middleware.WithTenantID(r.Context(), t.ID)

	if ch == tenant.ChannelWebsite {
		spanCtx, span := otel.StartPipelineSpan(ctx, t.ID, string(ch))
		reply, err := h.pipeline.ProcessInbound(spanCtx, t, cfg, adapter, in)
		span.End()
		if err != nil {
			writeInternalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
		return
	}

	go func() {
		bg, span := otel.StartPipelineSpan(context.WithoutCancel(ctx), t.ID, string(ch))
		defer span.End()
		if _, err := h.pipeline.ProcessInbound(bg, t, cfg, adapter, in); err != nil {
			slog.Error("webhook pipeline failed", "tenant", t.ID, "channel", ch, "error", err)
		}
	}()

	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}
