// Package website implements the channel adapter for the embedded website
// widget. The widget has no external provider: inbound arrives as an
// authenticated POST from the widget itself, and the reply travels back in
// the same HTTP response cycle.
package website

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
	"github.com/frontdeskhq/frontdesk/internal/port/channel"
)

func init() {
	channel.Register(New())
}

// Adapter is the website widget channel adapter.
type Adapter struct{}

// New creates a website adapter.
func New() *Adapter { return &Adapter{} }

func (a *Adapter) Channel() tenant.Channel { return tenant.ChannelWebsite }

// Verify always succeeds: the widget carries no per-tenant secret. The
// tenant id in the path is the only addressing, a documented tradeoff of
// the widget surface.
func (a *Adapter) Verify(_ tenant.ChannelConfig, _ *http.Request, _ []byte) bool {
	return true
}

// widgetMessage is the payload the dashboard widget posts.
type widgetMessage struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Name      string `json:"name"`
}

// ExtractInbound parses a widget message. Payloads without a session id or
// text yield (nil, nil). The widget supplies no message id, so these
// deliveries skip redelivery dedup.
func (a *Adapter) ExtractInbound(body []byte) (*channel.Inbound, error) {
	var m widgetMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("website: parse payload: %w", err)
	}
	if m.SessionID == "" || m.Text == "" {
		return nil, nil
	}
	return &channel.Inbound{
		ExternalID: m.SessionID,
		Text:       m.Text,
		Name:       m.Name,
	}, nil
}

// SendOutbound is a no-op: the widget receives the reply in the HTTP
// response of its own POST, not through a push API.
func (a *Adapter) SendOutbound(_ context.Context, _ tenant.ChannelConfig, _, _ string) error {
	return nil
}
