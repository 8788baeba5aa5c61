package password

import (
	"context"
	"runtime"
)

// Hasher is what [Pool] schedules.
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, encodedHash string) (bool, error)
}

// Pool runs at most size hashes at a time.
type Pool struct {
	hasher Hasher
	slots  chan struct{}
}

// NewPool bounds h to size concurrent operations; size <= 0 means GOMAXPROCS.
func NewPool(h Hasher, size int) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &Pool{hasher: h, slots: make(chan struct{}, size)}
}

// Size returns the concurrency bound.
func (p *Pool) Size() int {
	return cap(p.slots)
}

// Hash waits for a slot, then hashes secret.
func (p *Pool) Hash(ctx context.Context, secret string) (string, error) {
	if err := p.acquire(ctx); err != nil {
		return "", err
	}
	defer p.release()
	return p.hasher.Hash(secret)
}

// Verify waits for a slot, then verifies secret against encodedHash.
func (p *Pool) Verify(ctx context.Context, secret, encodedHash string) (bool, error) {
	if err := p.acquire(ctx); err != nil {
		return false, err
	}
	defer p.release()
	return p.hasher.Verify(secret, encodedHash)
}

func (p *Pool) acquire(ctx context.Context) error {
	select {
	case p.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) release() {
	<-p.slots
}
