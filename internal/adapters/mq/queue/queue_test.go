package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jcortez/swinglab/internal/domain/pose"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	job := Job{Frames: []pose.RawFrame{{FrameIndex: 1}}}
	if !q.Enqueue(ctx, job) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if len(got.Frames) != 1 || got.Frames[0].FrameIndex != 1 {
		t.Errorf("unexpected job payload: %+v", got)
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Backpressure(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, Job{}) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, Job{}) {
		t.Error("expected enqueue to succeed")
	}

	// Full queue rejects rather than blocks.
	if q.Enqueue(ctx, Job{}) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, Job{}) {
		t.Error("expected enqueue to fail with cancelled context")
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	if !q.Enqueue(ctx, Job{Frames: []pose.RawFrame{{FrameIndex: 9}}}) {
		t.Error("expected enqueue to succeed")
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if q.Enqueue(ctx, Job{}) {
		t.Error("expected enqueue to fail after close")
	}
	// Close is idempotent.
	if err := q.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}

	// Buffered jobs still drain, then the channel closes.
	out := q.Dequeue(ctx)
	if job, ok := <-out; !ok || job.Frames[0].FrameIndex != 9 {
		t.Errorf("expected buffered job after close, got %+v (ok=%v)", job, ok)
	}
	select {
	case _, ok := <-out:
		if ok {
			t.Error("expected dequeue channel to close after drain")
		}
	case <-time.After(time.Second):
		t.Error("dequeue channel did not close after drain")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1000))
	ctx := context.Background()
	producers, perProducer := 10, 100

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				if !q.Enqueue(ctx, Job{}) {
					t.Error("expected enqueue to succeed")
					return
				}
			}
		}()
	}
	wg.Wait()

	if l := q.Len(); l != producers*perProducer {
		t.Errorf("expected %d queued jobs, got %d", producers*perProducer, l)
	}

	out := q.Dequeue(ctx)
	for i := 0; i < producers*perProducer; i++ {
		select {
		case <-out:
		case <-time.After(time.Second):
			t.Fatalf("timed out draining job %d", i)
		}
	}
}
