// Package tenant defines the tenant aggregate: a business account that owns
// channels, customers, conversations and bookings.
package tenant

import "time"

// Channel identifies a messaging surface a tenant can receive customers on.
type Channel string

// Supported channels.
const (
	ChannelWebsite   Channel = "website"
	ChannelTelegram  Channel = "telegram"
	ChannelWhatsApp  Channel = "whatsapp"
	ChannelFacebook  Channel = "facebook"
	ChannelInstagram Channel = "instagram"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelWebsite, ChannelTelegram, ChannelWhatsApp, ChannelFacebook, ChannelInstagram:
		return true
	}
	return false
}

// Tenant is a business account using the receptionist.
type Tenant struct {
	ID         string                    `json:"id"`
	Name       string                    `json:"name"`
	Enabled    bool                      `json:"enabled"`
	Channels   map[Channel]ChannelConfig `json:"channels"`
	AI         AISettings                `json:"ai"`
	APIKeyHash string                    `json:"-"`
	CreatedAt  time.Time                 `json:"created_at"`
	UpdatedAt  time.Time                 `json:"updated_at"`
}

// ChannelConfig is the per-channel credential bundle. Fields are
// provider-specific; unused fields stay empty for a given channel.
type ChannelConfig struct {
	// BotToken is the provider bot credential (Telegram).
	BotToken string `json:"bot_token,omitempty"`
	// WebhookSecret authenticates inbound webhook deliveries
	// (Telegram secret token header, Meta app secret for signatures).
	WebhookSecret string `json:"webhook_secret,omitempty"`
	// VerifyToken answers GET handshake challenges (WhatsApp, Meta).
	VerifyToken string `json:"verify_token,omitempty"`
	// AccessToken authorizes outbound send calls (WhatsApp, Meta).
	AccessToken string `json:"access_token,omitempty"`
	// PhoneNumberID addresses the WhatsApp Cloud API sender.
	PhoneNumberID string `json:"phone_number_id,omitempty"`
	// PageID addresses the Messenger/Instagram page.
	PageID string `json:"page_id,omitempty"`
}

// Configured reports whether the bundle carries the credentials the given
// channel requires before its adapter may be used.
func (c ChannelConfig) Configured(ch Channel) bool {
	switch ch {
	case ChannelWebsite:
		return true // no external provider, nothing to configure
	case ChannelTelegram:
		return c.BotToken != "" && c.WebhookSecret != ""
	case ChannelWhatsApp:
		return c.AccessToken != "" && c.PhoneNumberID != "" && c.VerifyToken != ""
	case ChannelFacebook, ChannelInstagram:
		return c.AccessToken != "" && c.PageID != "" && c.VerifyToken != ""
	}
	return false
}

// AISettings holds per-tenant customization of the completion step.
type AISettings struct {
	Language        string          `json:"language,omitempty"`
	PromptOverride  string          `json:"prompt_override,omitempty"`
	LanguageNotes   string          `json:"language_notes,omitempty"`
	TrainingEntries []TrainingEntry `json:"training_entries,omitempty"`
}

// TrainingEntry is a tenant-authored knowledge snippet injected into the
// system prompt, tagged by category (services, pricing, hours, ...).
type TrainingEntry struct {
	Category string `json:"category"`
	Content  string `json:"content"`
}

// CreateRequest is the input for provisioning a tenant.
type CreateRequest struct {
	Name string `json:"name"`
}

// UpdateChannelRequest replaces one channel's credential bundle.
type UpdateChannelRequest struct {
	Channel Channel       `json:"channel"`
	Config  ChannelConfig `json:"config"`
}
