package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunProcessesAllChunks(t *testing.T) {
	var total int64
	p := New(4, func(ctx context.Context, primes []uint64) error {
		atomic.AddInt64(&total, int64(len(primes)))
		return nil
	})

	chunks := make(chan Chunk, 10)
	for i := 0; i < 10; i++ {
		chunks <- Chunk{Seq: uint64(i), Primes: []uint64{uint64(i * 2)}}
	}
	close(chunks)

	if err := p.Run(context.Background(), chunks); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if total != 10 {
		t.Fatalf("total = %d, want 10", total)
	}
}

func TestRunPropagatesFirstError(t *testing.T) {
	sentinel := errors.New("boom")
	p := New(2, func(ctx context.Context, primes []uint64) error {
		return sentinel
	})
	chunks := make(chan Chunk, 1)
	chunks <- Chunk{Seq: 1, Primes: []uint64{7}}
	close(chunks)

	err := p.Run(context.Background(), chunks)
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestWatermarkReducesToMinimum(t *testing.T) {
	p := New(2, func(ctx context.Context, primes []uint64) error {
		return nil
	})
	// Record one completed chunk per worker directly, so each worker is
	// known to hold its own watermark.
	p.recordWatermark(0, Chunk{Seq: 0, Primes: []uint64{10}})
	p.recordWatermark(1, Chunk{Seq: 1, Primes: []uint64{100}})

	wm, ok := p.Watermark()
	if !ok {
		t.Fatal("expected a watermark after completed chunks")
	}
	if wm != 10 {
		t.Fatalf("watermark = %d, want the minimum 10", wm)
	}
}

func TestRunRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	p := New(1, func(ctx context.Context, primes []uint64) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	chunks := make(chan Chunk, 1)
	chunks <- Chunk{Seq: 0, Primes: []uint64{2}}

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, chunks) }()

	<-started
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
