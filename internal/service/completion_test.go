package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/frontdeskhq/frontdesk/internal/domain/conversation"
	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
	"github.com/frontdeskhq/frontdesk/internal/resilience"
)

func TestParseBookingIntent(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantReply  string
		wantIntent *BookingIntent
	}{
		{
			name:      "no marker",
			raw:       "We open at 9am.",
			wantReply: "We open at 9am.",
		},
		{
			name:      "valid marker",
			raw:       `You're booked! <booking>{"service":"haircut","time":"2026-09-01T14:30","notes":"first visit"}</booking>`,
			wantReply: "You're booked!",
			wantIntent: &BookingIntent{
				Service: "haircut",
				Time:    "2026-09-01T14:30",
				Notes:   "first visit",
			},
		},
		{
			name:      "marker mid-reply",
			raw:       `Booked. <booking>{"service":"massage","time":"2026-09-01"}</booking> See you then!`,
			wantReply: "Booked.  See you then!",
			wantIntent: &BookingIntent{
				Service: "massage",
				Time:    "2026-09-01",
			},
		},
		{
			name:      "malformed json stripped",
			raw:       `Booked. <booking>{"service":</booking>`,
			wantReply: "Booked.",
		},
		{
			name:      "empty service yields no intent",
			raw:       `Booked. <booking>{"service":"","time":"2026-09-01"}</booking>`,
			wantReply: "Booked.",
		},
		{
			name:      "unterminated marker stripped",
			raw:       `Booked. <booking>{"service":"haircut"`,
			wantReply: "Booked.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, intent := parseBookingIntent(tt.raw)
			if reply != tt.wantReply {
				t.Errorf("reply = %q, want %q", reply, tt.wantReply)
			}
			if tt.wantIntent == nil {
				if intent != nil {
					t.Fatalf("intent = %+v, want nil", intent)
				}
				return
			}
			if intent == nil {
				t.Fatal("intent = nil, want one")
			}
			if *intent != *tt.wantIntent {
				t.Errorf("intent = %+v, want %+v", *intent, *tt.wantIntent)
			}
		})
	}
}

func TestBookingIntentScheduledAt(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-09-01T14:30:00Z", time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC)},
		{"2026-09-01T14:30", time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC)},
		{"2026-09-01 14:30", time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC)},
		{"2026-09-01", time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)},
		{"tomorrow afternoon", time.Time{}},
		{"", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			intent := &BookingIntent{Time: tt.in}
			if got := intent.ScheduledAt(); !got.Equal(tt.want) {
				t.Errorf("ScheduledAt(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSystemPrompt(t *testing.T) {
	t.Run("stock persona", func(t *testing.T) {
		prompt := systemPrompt(&tenant.Tenant{Name: "Bella Salon"})
		if !strings.Contains(prompt, "receptionist for Bella Salon") {
			t.Errorf("prompt missing persona: %q", prompt)
		}
		if !strings.Contains(prompt, bookingMarkerOpen) {
			t.Errorf("prompt missing booking marker instruction: %q", prompt)
		}
	})

	t.Run("override replaces persona", func(t *testing.T) {
		prompt := systemPrompt(&tenant.Tenant{
			Name: "Bella Salon",
			AI:   tenant.AISettings{PromptOverride: "You are Bella, the salon's assistant."},
		})
		if strings.Contains(prompt, "receptionist for Bella Salon") {
			t.Error("override did not replace the stock persona")
		}
		if !strings.Contains(prompt, "You are Bella, the salon's assistant.") {
			t.Errorf("prompt missing override: %q", prompt)
		}
		if !strings.Contains(prompt, bookingMarkerOpen) {
			t.Error("booking marker instruction must survive the override")
		}
	})

	t.Run("language and training entries", func(t *testing.T) {
		prompt := systemPrompt(&tenant.Tenant{
			Name: "Bella Salon",
			AI: tenant.AISettings{
				Language: "Spanish",
				TrainingEntries: []tenant.TrainingEntry{
					{Category: "hours", Content: "Open 9-17 Mon-Sat"},
					{Category: "pricing", Content: "Haircut 30 EUR"},
				},
			},
		})
		for _, want := range []string{"Always respond in Spanish.", "[hours] Open 9-17 Mon-Sat", "[pricing] Haircut 30 EUR"} {
			if !strings.Contains(prompt, want) {
				t.Errorf("prompt missing %q", want)
			}
		}
	})
}

func TestCompletionReply(t *testing.T) {
	bella := &tenant.Tenant{ID: "ten-1", Name: "Bella Salon"}
	history := []conversation.Message{
		{Role: conversation.RoleCustomer, Content: "Can I book a haircut tomorrow?"},
		{Role: conversation.RoleAI, Content: "Of course, what time suits you?"},
		{Role: conversation.RoleCustomer, Content: "2pm works."},
	}

	t.Run("maps roles and strips intent", func(t *testing.T) {
		completer := &fakeCompleter{reply: `Booked for 2pm! <booking>{"service":"haircut","time":"2026-08-24T14:00"}</booking>`}
		gw := NewCompletion(completer, resilience.NewBreaker(3, time.Minute), time.Second, nil)

		reply, intent, err := gw.Reply(context.Background(), bella, history)
		if err != nil {
			t.Fatalf("Reply: %v", err)
		}
		if reply != "Booked for 2pm!" {
			t.Errorf("reply = %q", reply)
		}
		if intent == nil || intent.Service != "haircut" {
			t.Errorf("intent = %+v, want haircut", intent)
		}

		if len(completer.last) != len(history)+1 {
			t.Fatalf("prompt length = %d, want %d", len(completer.last), len(history)+1)
		}
		if completer.last[0].Role != "system" {
			t.Errorf("first prompt role = %q, want system", completer.last[0].Role)
		}
		wantRoles := []string{"user", "assistant", "user"}
		for i, want := range wantRoles {
			if got := completer.last[i+1].Role; got != want {
				t.Errorf("prompt[%d] role = %q, want %q", i+1, got, want)
			}
		}
	})

	t.Run("completer error propagates", func(t *testing.T) {
		completer := &fakeCompleter{err: errors.New("rate limited")}
		gw := NewCompletion(completer, resilience.NewBreaker(3, time.Minute), time.Second, nil)

		if _, _, err := gw.Reply(context.Background(), bella, history); err == nil {
			t.Fatal("Reply succeeded, want error")
		}
	})

	t.Run("breaker opens after repeated failures", func(t *testing.T) {
		completer := &fakeCompleter{err: errors.New("rate limited")}
		gw := NewCompletion(completer, resilience.NewBreaker(2, time.Minute), time.Second, nil)

		for i := 0; i < 2; i++ {
			_, _, _ = gw.Reply(context.Background(), bella, history)
		}
		_, _, err := gw.Reply(context.Background(), bella, history)
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			t.Fatalf("Reply = %v, want ErrCircuitOpen", err)
		}
		if completer.calls != 2 {
			t.Errorf("completer calls = %d, want 2 (third call rejected by breaker)", completer.calls)
		}
	})

	t.Run("empty reply becomes fallback", func(t *testing.T) {
		completer := &fakeCompleter{reply: `<booking>{"service":"haircut","time":"2026-08-24"}</booking>`}
		gw := NewCompletion(completer, resilience.NewBreaker(3, time.Minute), time.Second, nil)

		reply, intent, err := gw.Reply(context.Background(), bella, history)
		if err != nil {
			t.Fatalf("Reply: %v", err)
		}
		if reply != FallbackReply {
			t.Errorf("reply = %q, want fallback", reply)
		}
		if intent == nil {
			t.Error("intent lost when reply text was empty")
		}
	})
}
