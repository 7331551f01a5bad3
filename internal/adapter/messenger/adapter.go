// Package messenger implements the channel adapters for Meta's Messenger
// platform. Facebook pages and Instagram professional accounts share one
// webhook payload shape and send API, so a single adapter serves both
// channels, registered once per channel.
package messenger

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
	"github.com/frontdeskhq/frontdesk/internal/port/channel"
)

const defaultAPIBase = "https://graph.facebook.com/v19.0"

func init() {
	channel.Register(New(tenant.ChannelFacebook))
	channel.Register(New(tenant.ChannelInstagram))
}

// Adapter serves one Meta messaging channel (facebook or instagram).
type Adapter struct {
	ch         tenant.Channel
	apiBase    string
	httpClient *http.Client
}

// New creates a Messenger-platform adapter for the given channel.
func New(ch tenant.Channel) *Adapter {
	return &Adapter{
		ch:         ch,
		apiBase:    defaultAPIBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *Adapter) Channel() tenant.Channel { return a.ch }

// VerifyHandshake answers the Graph API GET subscription handshake.
func (a *Adapter) VerifyHandshake(cfg tenant.ChannelConfig, query url.Values) (string, bool) {
	if query.Get("hub.mode") != "subscribe" {
		return "", false
	}
	token := query.Get("hub.verify_token")
	if cfg.VerifyToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(cfg.VerifyToken)) != 1 {
		return "", false
	}
	return query.Get("hub.challenge"), true
}

// Verify checks the X-Hub-Signature-256 HMAC against the tenant's app
// secret. Deliveries without a configured secret are accepted, matching
// the WhatsApp adapter's tradeoff.
func (a *Adapter) Verify(cfg tenant.ChannelConfig, r *http.Request, body []byte) bool {
	if cfg.WebhookSecret == "" {
		return true
	}

	sig := strings.TrimPrefix(r.Header.Get("X-Hub-Signature-256"), "sha256=")
	sigBytes, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(cfg.WebhookSecret))
	mac.Write(body)
	return hmac.Equal(sigBytes, mac.Sum(nil))
}

// payload is the subset of a Messenger-platform webhook event this adapter
// consumes. Read receipts, delivery receipts, and echoes carry no
// message.text and are skipped.
type payload struct {
	Object string `json:"object"`
	Entry  []struct {
		Messaging []struct {
			Sender struct {
				ID string `json:"id"`
			} `json:"sender"`
			Message *struct {
				MID    string `json:"mid"`
				Text   string `json:"text"`
				IsEcho bool   `json:"is_echo"`
			} `json:"message"`
		} `json:"messaging"`
	} `json:"entry"`
}

// ExtractInbound parses a Messenger-platform event. Events without a text
// message from an end user yield (nil, nil).
func (a *Adapter) ExtractInbound(body []byte) (*channel.Inbound, error) {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("messenger: parse payload: %w", err)
	}

	for _, entry := range p.Entry {
		for _, m := range entry.Messaging {
			if m.Message == nil || m.Message.Text == "" || m.Message.IsEcho || m.Sender.ID == "" {
				continue
			}
			return &channel.Inbound{
				ExternalID:        m.Sender.ID,
				Text:              m.Message.Text,
				ProviderMessageID: m.Message.MID,
			}, nil
		}
	}
	return nil, nil
}

// SendOutbound delivers text through the Send API on behalf of the page.
func (a *Adapter) SendOutbound(ctx context.Context, cfg tenant.ChannelConfig, externalID, text string) error {
	if cfg.AccessToken == "" {
		return fmt.Errorf("%w: %s access token not configured", channel.ErrSendFailed, a.ch)
	}

	body, err := json.Marshal(map[string]any{
		"recipient":      map[string]string{"id": externalID},
		"message":        map[string]string{"text": text},
		"messaging_type": "RESPONSE",
	})
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", channel.ErrSendFailed, err)
	}

	endpoint := fmt.Sprintf("%s/me/messages?access_token=%s", a.apiBase, url.QueryEscape(cfg.AccessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: request: %v", channel.ErrSendFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", channel.ErrSendFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s API %d: %s", channel.ErrSendFailed, a.ch, resp.StatusCode, string(respBody))
	}
	return nil
}
