// Package dedup keeps identical generation requests from running at the
// same time.
package dedup

import (
	"context"
	"sync"
)

// Guard admits at most one in-flight holder per key.
type Guard interface {
	// Admit atomically claims key. It returns false if key is already held.
	Admit(ctx context.Context, key string) bool

	// Release frees key. Releasing a key that is not held is a no-op.
	Release(ctx context.Context, key string)
}

// Acquire claims key on g and returns a function that releases it. The
// release function is safe to call more than once. When the key is already
// held, ok is false and release does nothing.
func Acquire(ctx context.Context, g Guard, key string) (release func(), ok bool) {
	if !g.Admit(ctx, key) {
		return func() {}, false
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may be cancelled by now; the key must
			// still be freed.
			g.Release(context.WithoutCancel(ctx), key)
		})
	}, true
}

// MemoryGuard is an in-process Guard.
type MemoryGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewMemoryGuard returns an empty MemoryGuard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{inFlight: make(map[string]struct{})}
}

func (g *MemoryGuard) Admit(_ context.Context, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, held := g.inFlight[key]; held {
		return false
	}
	g.inFlight[key] = struct{}{}
	return true
}

func (g *MemoryGuard) Release(_ context.Context, key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, key)
}

// Len returns the number of keys currently held.
func (g *MemoryGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inFlight)
}
