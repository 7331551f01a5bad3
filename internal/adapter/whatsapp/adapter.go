// Package whatsapp implements the channel adapter for the WhatsApp Cloud API.
package whatsapp

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
	channel.Register(New())
}

// Adapter is the WhatsApp Cloud API channel adapter.
type Adapter struct {
	apiBase    string
	httpClient *http.Client
}

// New creates a WhatsApp adapter against the Graph API.
func New() *Adapter {
	return &Adapter{
		apiBase:    defaultAPIBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *Adapter) Channel() tenant.Channel { return tenant.ChannelWhatsApp }

// VerifyHandshake answers the Graph API GET subscription handshake: the
// challenge is echoed only when the query-supplied verify token matches
// the tenant's stored one.
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

// Verify checks the X-Hub-Signature-256 HMAC when the tenant has an app
// secret on file. Without one the delivery is accepted: the verify-token
// handshake already gated the subscription, a documented tradeoff for
// tenants that skip app-secret setup.
func (a *Adapter) Verify(cfg tenant.ChannelConfig, r *http.Request, body []byte) bool {
	if cfg.WebhookSecret == "" {
		return true
	}
	return verifySignature(body, r.Header.Get("X-Hub-Signature-256"), cfg.WebhookSecret)
}

// payload is the subset of a Cloud API webhook notification this adapter
// consumes. Status-only notifications carry no messages array.
type payload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Contacts []struct {
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
					WaID string `json:"wa_id"`
				} `json:"contacts"`
				Messages []struct {
					From string `json:"from"`
					ID   string `json:"id"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ExtractInbound parses a Cloud API notification. Delivery/read status
// notifications and non-text message types yield (nil, nil).
func (a *Adapter) ExtractInbound(body []byte) (*channel.Inbound, error) {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("whatsapp: parse payload: %w", err)
	}

	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			v := change.Value
			for _, m := range v.Messages {
				if m.Type != "text" || m.Text.Body == "" {
					continue
				}
				in := &channel.Inbound{
					ExternalID:        m.From,
					Text:              m.Text.Body,
					ProviderMessageID: m.ID,
				}
				if len(v.Contacts) > 0 {
					in.Name = v.Contacts[0].Profile.Name
				}
				return in, nil
			}
		}
	}
	return nil, nil
}

// SendOutbound delivers text through the Cloud API messages endpoint.
func (a *Adapter) SendOutbound(ctx context.Context, cfg tenant.ChannelConfig, externalID, text string) error {
	if cfg.AccessToken == "" || cfg.PhoneNumberID == "" {
		return fmt.Errorf("%w: whatsapp credentials not configured", channel.ErrSendFailed)
	}

	body, err := json.Marshal(map[string]any{
		"messaging_product": "whatsapp",
		"to":                externalID,
		"type":              "text",
		"text":              map[string]string{"body": text},
	})
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", channel.ErrSendFailed, err)
	}

	endpoint := fmt.Sprintf("%s/%s/messages", a.apiBase, cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: request: %v", channel.ErrSendFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.AccessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", channel.ErrSendFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: whatsapp API %d: %s", channel.ErrSendFailed, resp.StatusCode, string(respBody))
	}
	return nil
}

// verifySignature checks an HMAC-SHA256 signature in "sha256=<hex>" format.
func verifySignature(body []byte, signature, secret string) bool {
	sig := strings.TrimPrefix(signature, "sha256=")
	sigBytes, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(sigBytes, mac.Sum(nil))
}
