package remediate

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fntelecomllc/zonepipe/internal/credstore"
	"github.com/fntelecomllc/zonepipe/internal/health"
	"github.com/fntelecomllc/zonepipe/internal/logging"
	"github.com/fntelecomllc/zonepipe/internal/session"
)

type countingScheduler struct {
	notifications int32
}

func (s *countingScheduler) NotifyRemediation(ctx context.Context) {
	atomic.AddInt32(&s.notifications, 1)
}

type fakeAcquirer struct {
	calls int32
}

func (f *fakeAcquirer) Acquire(ctx context.Context, service, account string) (*session.Session, error) {
	atomic.AddInt32(&f.calls, 1)
	return &session.Session{Service: service, Account: account}, nil
}

func TestSweepRefreshesCredentialsAndTriggersRun(t *testing.T) {
	sched := &countingScheduler{}
	acq := &fakeAcquirer{}
	r := New(sched, acq, logging.New(logging.LevelError), time.Millisecond)

	snap := health.Snapshot{
		Services: []health.ServiceSnapshot{{
			Service: "acme",
			AutoActions: []health.AutoAction{
				{Type: health.ActionCookieRefresh, Service: "acme", Priority: health.PriorityHigh, Reason: string(credstore.StatusExpired)},
				{Type: health.ActionRunCleaners, Service: "acme", Priority: health.PriorityLow, Reason: "raw_newer_than_staging"},
			},
		}},
	}

	r.Sweep(context.Background(), snap)

	if atomic.LoadInt32(&acq.calls) != 1 {
		t.Fatalf("acquirer called %d times, want 1", acq.calls)
	}
	if atomic.LoadInt32(&sched.notifications) != 1 {
		t.Fatalf("scheduler notified %d times, want 1", sched.notifications)
	}
}

func TestSweepRateLimited(t *testing.T) {
	sched := &countingScheduler{}
	r := New(sched, nil, logging.New(logging.LevelError), time.Hour)

	snap := health.Snapshot{Services: []health.ServiceSnapshot{{
		Service:     "acme",
		AutoActions: []health.AutoAction{{Type: health.ActionRunCleaners, Service: "acme"}},
	}}}

	r.Sweep(context.Background(), snap)
	r.Sweep(context.Background(), snap)

	if atomic.LoadInt32(&sched.notifications) != 1 {
		t.Fatalf("scheduler notified %d times, want 1 (second sweep should be rate-limited)", sched.notifications)
	}
}
