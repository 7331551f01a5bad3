package nats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/frontdeskhq/frontdesk/internal/port/cache"
)

// seen is the value stored for every delivery key; only key presence matters.
var seen = []byte{1}

// Dedup implements the dedup port on a TTL-scoped JetStream KV bucket.
// An optional in-process cache fronts the bucket so redeliveries within
// one instance skip the round trip.
type Dedup struct {
	kv       jetstream.KeyValue
	front    cache.Cache
	frontTTL time.Duration
}

// NewDedup creates the dedup store on the named bucket. front may be nil.
func NewDedup(ctx context.Context, q *Queue, bucket string, ttl time.Duration, front cache.Cache) (*Dedup, error) {
	kv, err := q.KeyValue(ctx, bucket, ttl)
	if err != nil {
		return nil, err
	}
	return &Dedup{kv: kv, front: front, frontTTL: ttl}, nil
}

// FirstDelivery atomically claims the key. The KV create is the source of
// truth: the first writer wins, every later claim within the bucket TTL
// observes the existing revision.
func (d *Dedup) FirstDelivery(ctx context.Context, key string) (bool, error) {
	if d.front != nil {
		if _, ok, err := d.front.Get(ctx, key); err == nil && ok {
			return false, nil
		}
	}

	_, err := d.kv.Create(ctx, key, seen)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			d.remember(ctx, key)
			return false, nil
		}
		return false, fmt.Errorf("dedup claim %s: %w", key, err)
	}

	d.remember(ctx, key)
	return true, nil
}

func (d *Dedup) remember(ctx context.Context, key string) {
	if d.front != nil {
		_ = d.front.Set(ctx, key, seen, d.frontTTL)
	}
}
