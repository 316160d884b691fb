package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fntelecomllc/zonepipe/internal/logging"
	"github.com/fntelecomllc/zonepipe/internal/orchestrator"
	"github.com/fntelecomllc/zonepipe/internal/zonefs"
)

type countingRunner struct {
	calls   int32
	release chan struct{}
}

func (r *countingRunner) Run(ctx context.Context, opts orchestrator.RunOptions) (orchestrator.RunReport, error) {
	atomic.AddInt32(&r.calls, 1)
	if r.release != nil {
		<-r.release
	}
	return orchestrator.RunReport{}, nil
}

func TestRunNowRejectsConcurrentRun(t *testing.T) {
	runner := &countingRunner{release: make(chan struct{})}
	s := New(zonefs.New(t.TempDir()), runner, logging.New(logging.LevelError))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.RunNow(context.Background())
	}()

	// give the first RunNow time to acquire the lock
	time.Sleep(50 * time.Millisecond)

	_, err := s.RunNow(context.Background())
	if err == nil {
		t.Fatal("RunNow() during an in-flight run should fail fast, got nil error")
	}

	close(runner.release)
	wg.Wait()

	if atomic.LoadInt32(&runner.calls) != 1 {
		t.Fatalf("runner invoked %d times, want exactly 1", runner.calls)
	}
}

func TestNotifyCoalescesWhileRunning(t *testing.T) {
	runner := &countingRunner{release: make(chan struct{})}
	s := New(zonefs.New(t.TempDir()), runner, logging.New(logging.LevelError))

	s.notify(context.Background(), "first")
	time.Sleep(50 * time.Millisecond)
	s.notify(context.Background(), "second") // should set pending, not spawn a second loop
	s.notify(context.Background(), "third")   // coalesced into the same pending flag

	close(runner.release) // let the first run finish; pending triggers exactly one more

	deadline := time.After(time.Second)
	for {
		if atomic.LoadInt32(&runner.calls) >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected a coalesced second run, got %d calls", runner.calls)
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}
