// Package nats implements the event outbox and the redelivery dedup store
// using NATS JetStream.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const streamName = "FRONTDESK"

// Queue holds the NATS connection and JetStream handle shared by the
// outbox and the dedup store.
type Queue struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect establishes a connection to NATS and ensures the JetStream
// stream capturing all tenant event subjects exists.
func Connect(ctx context.Context, url string) (*Queue, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"frontdesk.>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName)
	return &Queue{nc: nc, js: js}, nil
}

// Publish sends raw data to the given subject.
func (q *Queue) Publish(ctx context.Context, subject string, data []byte) error {
	_, err := q.js.Publish(ctx, subject, data)
	if err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// KeyValue returns the named KV bucket, creating it with the given TTL if
// it does not exist.
func (q *Queue) KeyValue(ctx context.Context, bucket string, ttl time.Duration) (jetstream.KeyValue, error) {
	kv, err := q.js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("nats kv bucket %s: %w", bucket, err)
	}
	return kv, nil
}

// IsConnected reports whether the underlying connection is up.
func (q *Queue) IsConnected() bool {
	return q.nc.IsConnected()
}

// Close shuts down the NATS connection.
func (q *Queue) Close() error {
	q.nc.Close()
	return nil
}

func (q *Queue) publishJSON(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", subject, err)
	}
	return q.Publish(ctx, subject, data)
}

// PublishConversationUpdated emits a conversation event on the tenant's subject.
func (q *Queue) PublishConversationUpdated(ctx context.Context, tenantID string, payload any) error {
	return q.publishJSON(ctx, fmt.Sprintf("frontdesk.%s.conversation.updated", tenantID), payload)
}

// PublishBookingCreated emits a booking-created event on the tenant's subject.
func (q *Queue) PublishBookingCreated(ctx context.Context, tenantID string, payload any) error {
	return q.publishJSON(ctx, fmt.Sprintf("frontdesk.%s.booking.created", tenantID), payload)
}

// PublishBookingUpdated emits a booking-updated event on the tenant's subject.
func (q *Queue) PublishBookingUpdated(ctx context.Context, tenantID string, payload any) error {
	return q.publishJSON(ctx, fmt.Sprintf("frontdesk.%s.booking.updated", tenantID), payload)
}
