// Package barrier provides a reusable (cyclic) barrier for lock-stepping
// adjacent pipeline stages.
package barrier

import (
	"context"
	"fmt"
	"sync"
)

// Barrier blocks a fixed number of parties until all of them have called
// Wait, then releases them together and resets for the next round.
type Barrier struct {
	mu      sync.Mutex
	parties int
	waiting int
	round   uint64
	release chan struct{}
}

// New returns a barrier for the given number of parties.
func New(parties int) (*Barrier, error) {
	if parties < 1 {
		return nil, fmt.Errorf("barrier needs at least one party, got %d", parties)
	}
	return &Barrier{
		parties: parties,
		release: make(chan struct{}),
	}, nil
}

// Parties returns the number of parties the barrier waits for.
func (b *Barrier) Parties() int { return b.parties }

// Round returns how many times the barrier has tripped.
func (b *Barrier) Round() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.round
}

// Wait blocks until every party has arrived or ctx is done. A party that
// leaves through ctx leaves the barrier unusable for the current round;
// callers only cancel when the whole pipeline is aborting.
func (b *Barrier) Wait(ctx context.Context) error {
	b.mu.Lock()
	b.waiting++
	if b.waiting == b.parties {
		close(b.release)
		b.release = make(chan struct{})
		b.waiting = 0
		b.round++
		b.mu.Unlock()
		return nil
	}
	ch := b.release
	b.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
