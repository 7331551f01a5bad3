package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/frontdeskhq/frontdesk/internal/adapter/otel"
	"github.com/frontdeskhq/frontdesk/internal/domain/conversation"
	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
	"github.com/frontdeskhq/frontdesk/internal/port/completion"
	"github.com/frontdeskhq/frontdesk/internal/resilience"
)

// FallbackReply is sent to the customer when the completion call fails or
// the breaker is open. The conversation keeps flowing; a human follows up.
const FallbackReply = "Sorry, I'm having trouble responding right now. A team member will follow up with you shortly."

// bookingMarkerOpen/Close delimit the machine-readable booking intent the
// model appends when the customer agrees to an appointment.
const (
	bookingMarkerOpen  = "<booking>"
	bookingMarkerClose = "</booking>"
)

// BookingIntent is the structured appointment request parsed out of a reply.
type BookingIntent struct {
	Service string `json:"service"`
	Time    string `json:"time"`
	Notes   string `json:"notes,omitempty"`
}

// ScheduledAt parses the intent's time field. The zero time is returned
// when the model produced something unparseable; the booking is still
// created and staff resolve the time from the notes.
func (b *BookingIntent) ScheduledAt() time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, b.Time); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Completion is the completion gateway: it turns a conversation history
// plus the tenant's AI settings into one assistant reply, shielded by a
// circuit breaker and a per-call timeout.
type Completion struct {
	completer completion.Completer
	breaker   *resilience.Breaker
	timeout   time.Duration
	metrics   *otel.Metrics
}

// NewCompletion creates the completion gateway. metrics may be nil.
func NewCompletion(c completion.Completer, breaker *resilience.Breaker, timeout time.Duration, m *otel.Metrics) *Completion {
	return &Completion{completer: c, breaker: breaker, timeout: timeout, metrics: m}
}

// Reply generates the assistant reply for the conversation. A booking
// intent embedded in the raw reply is parsed out and stripped from the
// text the customer sees.
func (c *Completion) Reply(ctx context.Context, t *tenant.Tenant, history []conversation.Message) (string, *BookingIntent, error) {
	msgs := make([]completion.ChatMessage, 0, len(history)+1)
	msgs = append(msgs, completion.ChatMessage{Role: "system", Content: systemPrompt(t)})
	for _, m := range history {
		role := "assistant"
		if m.Role == conversation.RoleCustomer {
			role = "user"
		}
		msgs = append(msgs, completion.ChatMessage{Role: role, Content: m.Content})
	}

	var raw string
	start := time.Now()
	err := c.breaker.Execute(func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		out, err := c.completer.CreateCompletion(callCtx, msgs)
		if err != nil {
			return err
		}
		raw = out
		return nil
	})
	if c.metrics != nil {
		c.metrics.CompletionDuration.Record(ctx, time.Since(start).Seconds())
	}
	if err != nil {
		if c.metrics != nil {
			c.metrics.CompletionsFailed.Add(ctx, 1)
		}
		return "", nil, fmt.Errorf("completion: %w", err)
	}

	reply, intent := parseBookingIntent(raw)
	if reply == "" {
		reply = FallbackReply
	}
	return reply, intent, nil
}

// systemPrompt assembles the per-tenant system prompt. A prompt override
// replaces the stock persona; language, notes and training entries are
// always appended.
func systemPrompt(t *tenant.Tenant) string {
	var b strings.Builder

	if t.AI.PromptOverride != "" {
		b.WriteString(t.AI.PromptOverride)
	} else {
		fmt.Fprintf(&b, "You are the receptionist for %s. Answer customer questions briefly and helpfully. Offer to book an appointment when the customer wants one.", t.Name)
	}

	b.WriteString("\n\nWhen the customer confirms an appointment, append one final line of the exact form ")
	b.WriteString(bookingMarkerOpen)
	b.WriteString(`{"service":"...","time":"2006-01-02T15:04","notes":"..."}`)
	b.WriteString(bookingMarkerClose)
	b.WriteString(". Never mention this line to the customer.")

	if t.AI.Language != "" {
		fmt.Fprintf(&b, "\n\nAlways respond in %s.", t.AI.Language)
	}
	if t.AI.LanguageNotes != "" {
		b.WriteString("\n")
		b.WriteString(t.AI.LanguageNotes)
	}
	if len(t.AI.TrainingEntries) > 0 {
		b.WriteString("\n\nBusiness knowledge:")
		for _, e := range t.AI.TrainingEntries {
			fmt.Fprintf(&b, "\n- [%s] %s", e.Category, e.Content)
		}
	}
	return b.String()
}

// parseBookingIntent extracts and strips the booking marker from a raw
// reply. Malformed markers are stripped but yield no intent.
func parseBookingIntent(raw string) (string, *BookingIntent) {
	start := strings.Index(raw, bookingMarkerOpen)
	if start < 0 {
		return strings.TrimSpace(raw), nil
	}
	end := strings.Index(raw[start:], bookingMarkerClose)
	if end < 0 {
		return strings.TrimSpace(raw[:start]), nil
	}
	end += start

	payload := raw[start+len(bookingMarkerOpen) : end]
	cleaned := strings.TrimSpace(raw[:start] + raw[end+len(bookingMarkerClose):])

	var intent BookingIntent
	if err := json.Unmarshal([]byte(payload), &intent); err != nil || intent.Service == "" {
		return cleaned, nil
	}
	return cleaned, &intent
}
