package worker

import (
	"sync"
	"time"
)

// Deduper remembers event keys for a fixed window. A key seen again inside
// the window is reported as a duplicate.
type Deduper struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
	calls  int
	now    func() time.Time
}

func NewDeduper(window time.Duration) *Deduper {
	return &Deduper{window: window, seen: make(map[string]time.Time), now: time.Now}
}

// Seen records key and reports whether it was already recorded within the window.
// A zero window disables deduplication.
func (d *Deduper) Seen(key string) bool {
	if d == nil || d.window <= 0 {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	d.calls++
	if d.calls%256 == 0 {
		for k, at := range d.seen {
			if now.Sub(at) >= d.window {
				delete(d.seen, k)
			}
		}
	}

	if at, ok := d.seen[key]; ok && now.Sub(at) < d.window {
		return true
	}
	d.seen[key] = now
	return false
}

// Len is the number of keys currently held.
func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
