package apicache

import (
	"sync"
	"time"
)

// Throttle enforces a minimum interval between requests made through a
// single client instance. It does not coordinate across processes, so
// with multiple instances it only prevents bursts from each one.
type Throttle struct {
	mu          sync.Mutex
	minInterval time.Duration
	last        time.Time
}

func NewThrottle(minInterval time.Duration) *Throttle {
	return &Throttle{minInterval: minInterval}
}

// Wait blocks until at least the minimum interval has elapsed since the
// previous call, then records the new request time and returns it.
func (t *Throttle) Wait() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if !t.last.IsZero() {
		if elapsed := now.Sub(t.last); elapsed < t.minInterval {
			time.Sleep(t.minInterval - elapsed)
			now = time.Now()
		}
	}
	t.last = now
	return now
}
