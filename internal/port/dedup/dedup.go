// Package dedup defines the port for webhook redelivery suppression.
package dedup

import "context"

// Deduper records provider delivery keys. FirstDelivery returns true
// exactly once per key within the retention window; later calls with the
// same key return false.
type Deduper interface {
	FirstDelivery(ctx context.Context, key string) (bool, error)
}
