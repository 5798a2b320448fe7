package snapshots

import (
	"sync"
)

// Cache holds the most recent snapshot and fans it out to registered
// watchers. Watchers with a full buffer are skipped, not blocked on; they
// catch up on the next publish.
type Cache struct {
	mu       sync.RWMutex
	current  *Snapshot
	watchers map[uint64]chan Snapshot
	nextID   uint64
}

// NewCache returns an empty snapshot cache.
func NewCache() *Cache {
	return &Cache{watchers: make(map[uint64]chan Snapshot)}
}

// Current returns the latest applied snapshot, or nil before the first apply.
func (c *Cache) Current() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// ApplySnapshot replaces the cached state wholesale and notifies watchers.
func (c *Cache) ApplySnapshot(snap Snapshot) {
	c.mu.Lock()
	copied := snap
	c.current = &copied
	targets := make([]chan Snapshot, 0, len(c.watchers))
	for _, ch := range c.watchers {
		targets = append(targets, ch)
	}
	c.mu.Unlock()

	for _, ch := range targets {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Watch registers a watcher channel. The returned cancel func must be called
// when the consumer goes away. If a snapshot already exists it is delivered
// immediately so new consumers never start blank.
func (c *Cache) Watch() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 4)

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.watchers[id] = ch
	current := c.current
	c.mu.Unlock()

	if current != nil {
		ch <- *current
	}

	cancel := func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
	return ch, cancel
}

// WatcherCount reports the number of live watchers.
func (c *Cache) WatcherCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.watchers)
}
