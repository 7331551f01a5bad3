// Package channel defines the channel adapter port and its registry.
// One adapter exists per messaging provider; adding a provider means
// registering one adapter implementation, not touching the router.
package channel

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
)

// ErrSendFailed wraps provider send-API failures so callers can log and
// continue without inspecting provider-specific errors.
var ErrSendFailed = errors.New("channel: send failed")

// Inbound is a normalized inbound message extracted from a provider payload.
type Inbound struct {
	// ExternalID is the provider-specific identifier of the chatting end
	// user (chat id, phone number, PSID).
	ExternalID string
	// Text is the message body.
	Text string
	// Name is the sender's display name when the payload carries one.
	Name string
	// ProviderMessageID is the provider's message identifier, used for
	// redelivery dedup. Empty when the provider supplies none.
	ProviderMessageID string
}

// Adapter is the capability set every provider implements.
type Adapter interface {
	// Channel returns the channel this adapter serves.
	Channel() tenant.Channel

	// Verify reports whether the request is an authentic webhook delivery
	// for the tenant's stored credentials. Secrets are per-tenant and
	// rotated from settings, so token comparison uses constant-time
	// equality but no signature scheme beyond what the provider offers.
	Verify(cfg tenant.ChannelConfig, r *http.Request, body []byte) bool

	// ExtractInbound parses the provider payload. It returns (nil, nil)
	// for payload shapes the adapter does not understand (read receipts,
	// delivery receipts, non-text messages): the pipeline then no-ops.
	ExtractInbound(body []byte) (*Inbound, error)

	// SendOutbound delivers text to the end user through the provider's
	// send API. Failures are reported, never raised past the pipeline;
	// the persisted assistant message is not rolled back on failure.
	SendOutbound(ctx context.Context, cfg tenant.ChannelConfig, externalID, text string) error
}

// HandshakeVerifier is implemented by adapters whose provider requires a
// GET subscription handshake (WhatsApp Cloud, Messenger, Instagram).
// VerifyHandshake returns the challenge to echo and whether the supplied
// verify token matched the tenant's stored one.
type HandshakeVerifier interface {
	VerifyHandshake(cfg tenant.ChannelConfig, query url.Values) (challenge string, ok bool)
}
