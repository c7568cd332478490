package infra

import (
	"context"
	"testing"
	"time"
)

func TestChanPool_AcquireUpToCapacity(t *testing.T) {
	p := NewChanPool(2)
	ctx := context.Background()

	r1, ok1 := p.Acquire(ctx)
	r2, ok2 := p.Acquire(ctx)
	if !ok1 || !ok2 {
		t.Fatalf("expected two slots")
	}
	if p.InUse() != 2 || p.Cap() != 2 {
		t.Fatalf("expected 2/2 in use, got %d/%d", p.InUse(), p.Cap())
	}

	full, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if _, ok := p.Acquire(full); ok {
		t.Fatalf("expected pool full")
	}

	r1()
	r2()
	if p.InUse() != 0 {
		t.Fatalf("expected all slots released, got %d", p.InUse())
	}
}

func TestChanPool_ReleaseIsIdempotent(t *testing.T) {
	p := NewChanPool(2)
	ctx := context.Background()

	r1, _ := p.Acquire(ctx)
	_, _ = p.Acquire(ctx)
	r1()
	r1()
	if p.InUse() != 1 {
		t.Fatalf("expected double release to free one slot, got %d in use", p.InUse())
	}
}

func TestChanPool_CanceledContextDoesNotAcquire(t *testing.T) {
	p := NewChanPool(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := p.Acquire(ctx); ok {
		t.Fatalf("expected canceled ctx to fail even with free slot")
	}
	if p.InUse() != 0 {
		t.Fatalf("expected no slot taken")
	}
}
