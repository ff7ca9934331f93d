package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultMaxKeys = 10000
)

// WindowCounter implements core.WindowStore in process memory.
// Counts are lost on restart and are not shared between instances.
type WindowCounter struct {
	windows map[string]*window
	mu      sync.Mutex
	maxKeys int
	now     func() time.Time

	// counters
	increments int64
	resets     int64
	evictions  int64
}

type window struct {
	count     int64
	expiresAt time.Time
}

// Stats is a snapshot of WindowCounter activity.
type Stats struct {
	Increments int64
	Resets     int64
	Evictions  int64
	Size       int
}

// NewWindowCounter creates an in-memory counter holding at most maxKeys
// windows. A non-positive maxKeys uses the default.
func NewWindowCounter(maxKeys int) *WindowCounter {
	if maxKeys <= 0 {
		maxKeys = defaultMaxKeys
	}

	return &WindowCounter{
		windows: make(map[string]*window),
		maxKeys: maxKeys,
		now:     time.Now,
	}
}

// IncrementWindow adds one to key's counter, opening a new window when none is
// live, and returns the count and the time left in the window.
func (c *WindowCounter) IncrementWindow(_ context.Context, key string, ttl time.Duration) (int64, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	w, exists := c.windows[key]
	if !exists || !now.Before(w.expiresAt) {
		if exists {
			atomic.AddInt64(&c.resets, 1)
		} else if len(c.windows) >= c.maxKeys {
			c.evict(now)
		}
		w = &window{expiresAt: now.Add(ttl)}
		c.windows[key] = w
	}

	w.count++
	atomic.AddInt64(&c.increments, 1)

	return w.count, w.expiresAt.Sub(now), nil
}

// Reset forgets key's window.
func (c *WindowCounter) Reset(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.windows, key)
	return nil
}

// evict drops expired windows, or one arbitrary window when none has expired.
// Callers hold c.mu.
func (c *WindowCounter) evict(now time.Time) {
	removed := false
	for k, w := range c.windows {
		if !now.Before(w.expiresAt) {
			delete(c.windows, k)
			atomic.AddInt64(&c.evictions, 1)
			removed = true
		}
	}
	if removed {
		return
	}

	for k := range c.windows {
		delete(c.windows, k)
		atomic.AddInt64(&c.evictions, 1)
		break
	}
}

// Len returns the number of tracked windows, live or not
func (c *WindowCounter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.windows)
}

// Stats returns counter statistics
func (c *WindowCounter) Stats() Stats {
	return Stats{
		Increments: atomic.LoadInt64(&c.increments),
		Resets:     atomic.LoadInt64(&c.resets),
		Evictions:  atomic.LoadInt64(&c.evictions),
		Size:       c.Len(),
	}
}
