package password

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type slowHasher struct {
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (h *slowHasher) enter() {
	n := h.active.Add(1)
	for {
		m := h.maxSeen.Load()
		if n <= m || h.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	h.active.Add(-1)
}

func (h *slowHasher) Hash(secret string) (string, error) {
	h.enter()
	return "h:" + secret, nil
}

func (h *slowHasher) Verify(secret, encoded string) (bool, error) {
	h.enter()
	return encoded == "h:"+secret, nil
}

func TestPoolBoundsConcurrency(t *testing.T) {
	h := &slowHasher{}
	p := NewPool(h, 2)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Hash(context.Background(), "x"); err != nil {
				t.Errorf("hash: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := h.maxSeen.Load(); got > 2 {
		t.Fatalf("observed %d concurrent hashes, want <= 2", got)
	}
}

func TestPoolHonoursContext(t *testing.T) {
	p := NewPool(&slowHasher{}, 1)
	p.slots <- struct{}{} // occupy the only slot

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := p.Verify(ctx, "x", "h:x"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestPoolDefaultSize(t *testing.T) {
	if NewPool(&slowHasher{}, 0).Size() < 1 {
		t.Fatal("expected positive default size")
	}
}
