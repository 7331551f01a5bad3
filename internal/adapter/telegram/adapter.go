// Package telegram implements the channel adapter for Telegram Bot API webhooks.
package telegram

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
	"github.com/frontdeskhq/frontdesk/internal/port/channel"
)

// secretTokenHeader carries the webhook secret Telegram echoes back on
// every delivery when the webhook was registered with one.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

const defaultAPIBase = "https://api.telegram.org"

func init() {
	channel.Register(New())
}

// Adapter is the Telegram channel adapter.
type Adapter struct {
	apiBase    string
	httpClient *http.Client
}

// New creates a Telegram adapter against the public Bot API.
func New() *Adapter {
	return &Adapter{
		apiBase:    defaultAPIBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *Adapter) Channel() tenant.Channel { return tenant.ChannelTelegram }

// Verify compares the header-carried secret token against the tenant's
// stored one. The token is a per-tenant secret rotated from settings, so
// plain constant-time equality is the whole scheme; Telegram offers no
// payload signature.
func (a *Adapter) Verify(cfg tenant.ChannelConfig, r *http.Request, _ []byte) bool {
	if cfg.WebhookSecret == "" {
		return false
	}
	got := r.Header.Get(secretTokenHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(cfg.WebhookSecret)) == 1
}

// update is the subset of a Telegram Update this adapter consumes.
type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		MessageID int64 `json:"message_id"`
		From      *struct {
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Username  string `json:"username"`
		} `json:"from"`
		Chat struct {
			ID json.Number `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

// ExtractInbound parses a Telegram update. Edited messages, channel posts,
// callbacks, and non-text messages yield (nil, nil).
func (a *Adapter) ExtractInbound(body []byte) (*channel.Inbound, error) {
	var u update
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("telegram: parse update: %w", err)
	}
	if u.Message == nil || u.Message.Text == "" || u.Message.Chat.ID.String() == "" {
		return nil, nil
	}

	in := &channel.Inbound{
		ExternalID:        u.Message.Chat.ID.String(),
		Text:              u.Message.Text,
		ProviderMessageID: strconv.FormatInt(u.Message.MessageID, 10),
	}
	if u.Message.From != nil {
		in.Name = u.Message.From.FirstName
		if u.Message.From.LastName != "" {
			in.Name += " " + u.Message.From.LastName
		}
	}
	return in, nil
}

// SendOutbound delivers text through the Bot API sendMessage endpoint.
func (a *Adapter) SendOutbound(ctx context.Context, cfg tenant.ChannelConfig, externalID, text string) error {
	if cfg.BotToken == "" {
		return fmt.Errorf("%w: telegram bot token not configured", channel.ErrSendFailed)
	}

	payload, err := json.Marshal(map[string]string{
		"chat_id": externalID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", channel.ErrSendFailed, err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", a.apiBase, cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
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
		return fmt.Errorf("%w: telegram API %d: %s", channel.ErrSendFailed, resp.StatusCode, string(respBody))
	}
	return nil
}
