package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTriggerFiresOnceAfterQuietPeriod(t *testing.T) {
	sched := NewManualScheduler()
	d := New(500*time.Millisecond, sched)

	var calls int32
	d.Trigger(func() { atomic.AddInt32(&calls, 1) })

	sched.Advance(499 * time.Millisecond)
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Fatalf("fired early: %d", n)
	}
	sched.Advance(time.Millisecond)
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected 1 call, got %d", n)
	}
	if d.Pending() {
		t.Fatalf("expected nothing pending after fire")
	}
}

func TestTriggerResetsWait(t *testing.T) {
	sched := NewManualScheduler()
	d := New(500*time.Millisecond, sched)

	var got []string
	d.Trigger(func() { got = append(got, "first") })
	sched.Advance(300 * time.Millisecond)
	d.Trigger(func() { got = append(got, "second") })

	sched.Advance(300 * time.Millisecond)
	if len(got) != 0 {
		t.Fatalf("expected no calls 300ms after the second trigger, got %v", got)
	}
	sched.Advance(200 * time.Millisecond)
	if len(got) != 1 || got[0] != "second" {
		t.Fatalf("expected only the latest action, got %v", got)
	}
	if sched.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", sched.Pending())
	}
}

func TestCancel(t *testing.T) {
	sched := NewManualScheduler()
	d := New(100*time.Millisecond, sched)

	fired := false
	d.Trigger(func() { fired = true })
	if !d.Pending() {
		t.Fatalf("expected pending action")
	}
	d.Cancel()
	sched.Advance(time.Second)
	if fired {
		t.Fatalf("cancelled action fired")
	}
}

func TestRealScheduler(t *testing.T) {
	d := New(10*time.Millisecond, nil)
	done := make(chan struct{})
	d.Trigger(func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("action never fired")
	}
}
