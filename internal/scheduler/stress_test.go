package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestEngineStressConcurrentCreateAndCancel(t *testing.T) {
	engine := NewEngine(4096, true)
	engine.Start()
	defer engine.Stop()
	ctx := context.Background()

	const workers = 8
	const perWorker = 200
	total := workers * perWorker

	now := time.Now().UTC()
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		w := w
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				delay := time.Duration((w+i)%50+10) * time.Millisecond
				tr := Trigger{
					ID:       fmt.Sprintf("w%d-%d", w, i),
					RecordID: fmt.Sprintf("med-%d", i),
					Kind:     KindPrimary,
					FireAt:   now.Add(delay),
				}
				if err := engine.CreateTrigger(ctx, tr); err != nil {
					t.Errorf("create failed: %v", err)
					return
				}
				// cancelling a missed follow-up that was never created must stay harmless
				if err := engine.Cancel(ctx, tr.ID+"-missed"); err != nil {
					t.Errorf("cancel failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	deadline := time.After(5 * time.Second)
	var received int64
	for atomic.LoadInt64(&received) < int64(total) {
		select {
		case <-deadline:
			t.Fatalf("timeout waiting triggers: received=%d total=%d dropped=%d", received, total, engine.Dropped())
		case <-engine.C():
			atomic.AddInt64(&received, 1)
		}
	}

	if got := int(received); got != total {
		t.Fatalf("unexpected received count: got=%d want=%d", got, total)
	}
	if engine.Dropped() != 0 {
		t.Fatalf("expected zero drops with active consumer, got=%d", engine.Dropped())
	}
}
