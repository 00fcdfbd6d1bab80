// Package inflight rejects a second submission for the same key while the
// first is still running.
package inflight

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBusy is returned when the key is already held.
var ErrBusy = errors.New("operation already in flight")

// DefaultTTL bounds how long a crashed holder can block a key.
const DefaultTTL = 2 * time.Minute

// Guard hands out per-key leases.
type Guard interface {
	// Acquire returns ErrBusy if key is held; release must be called when done.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// MemoryGuard is a process-local Guard.
type MemoryGuard struct {
	mu   sync.Mutex
	ttl  time.Duration
	held map[string]lease
	now  func() time.Time
	seq  uint64
}

type lease struct {
	id      uint64
	expires time.Time
}

func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryGuard{ttl: ttl, held: make(map[string]lease), now: time.Now}
}

func (g *MemoryGuard) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if cur, ok := g.held[key]; ok && now.Before(cur.expires) {
		return nil, ErrBusy
	}
	g.seq++
	id := g.seq
	g.held[key] = lease{id: id, expires: now.Add(g.ttl)}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			if cur, ok := g.held[key]; ok && cur.id == id {
				delete(g.held, key)
			}
		})
	}, nil
}
