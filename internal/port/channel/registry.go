package channel

import (
	"fmt"
	"sync"

	"github.com/frontdeskhq/frontdesk/internal/domain/tenant"
)

var (
	mu       sync.RWMutex
	adapters = make(map[tenant.Channel]Adapter)
)

// Register makes an adapter available for its channel.
// It is typically called from an init() function in the adapter package.
func Register(a Adapter) {
	mu.Lock()
	defer mu.Unlock()

	ch := a.Channel()
	if _, exists := adapters[ch]; exists {
		panic(fmt.Sprintf("channel: duplicate registration for %q", ch))
	}
	adapters[ch] = a
}

// Lookup returns the adapter registered for the given channel.
func Lookup(ch tenant.Channel) (Adapter, bool) {
	mu.RLock()
	defer mu.RUnlock()

	a, ok := adapters[ch]
	return a, ok
}

// Available returns the channels with a registered adapter.
func Available() []tenant.Channel {
	mu.RLock()
	defer mu.RUnlock()

	chs := make([]tenant.Channel, 0, len(adapters))
	for ch := range adapters {
		chs = append(chs, ch)
	}
	return chs
}
