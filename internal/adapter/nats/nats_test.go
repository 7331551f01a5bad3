package nats

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

// testConnect connects to NATS or skips the test if NATS_URL is not set.
func testConnect(t *testing.T) *Queue {
	t.Helper()

	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}

	q, err := Connect(context.Background(), url)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		if err := q.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return q
}

func TestQueue_PublishEvent(t *testing.T) {
	q := testConnect(t)
	ctx := context.Background()

	if err := q.PublishConversationUpdated(ctx, "tenant-1", map[string]string{"conversation_id": "c-1"}); err != nil {
		t.Fatalf("PublishConversationUpdated: %v", err)
	}
	if err := q.PublishBookingCreated(ctx, "tenant-1", map[string]string{"booking_id": "b-1"}); err != nil {
		t.Fatalf("PublishBookingCreated: %v", err)
	}
}

func TestQueue_PublishEventMarshalError(t *testing.T) {
	q := &Queue{}
	err := q.publishJSON(context.Background(), "frontdesk.t.conversation.updated", make(chan int))
	if err == nil || !strings.Contains(err.Error(), "marshal event") {
		t.Fatalf("expected marshal error, got %v", err)
	}
}

func TestDedup_FirstDelivery(t *testing.T) {
	q := testConnect(t)
	ctx := context.Background()

	d, err := NewDedup(ctx, q, "test-dedup-"+t.Name(), 30*time.Second, nil)
	if err != nil {
		t.Fatalf("NewDedup: %v", err)
	}

	key := "tenant-1.telegram.msg-" + t.Name()

	first, err := d.FirstDelivery(ctx, key)
	if err != nil {
		t.Fatalf("FirstDelivery: %v", err)
	}
	if !first {
		t.Fatal("expected first claim to win")
	}

	second, err := d.FirstDelivery(ctx, key)
	if err != nil {
		t.Fatalf("FirstDelivery redelivery: %v", err)
	}
	if second {
		t.Fatal("expected redelivery to be suppressed")
	}
}

func TestQueue_IsConnected(t *testing.T) {
	q := testConnect(t)

	if !q.IsConnected() {
		t.Error("IsConnected() = false after Connect, want true")
	}
}
