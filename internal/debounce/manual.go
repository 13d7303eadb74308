package debounce

import (
	"sort"
	"sync"
	"time"
)

// ManualScheduler is a Scheduler whose clock only moves when Advance is called.
// Actions run synchronously inside Advance.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	s     *ManualScheduler
	at    time.Duration
	f     func()
	done  bool
	order int
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

func NewManualScheduler() *ManualScheduler { return &ManualScheduler{} }

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTimer{s: s, at: s.now + d, f: f, order: s.seq}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward and runs every action that became due.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*manualTimer
	live := s.timers[:0]
	for _, t := range s.timers {
		switch {
		case t.done:
		case t.at <= s.now:
			t.done = true
			due = append(due, t)
		default:
			live = append(live, t)
		}
	}
	s.timers = live
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].order < due[j].order
	})
	for _, t := range due {
		t.f()
	}
}

// Pending counts scheduled actions that have neither fired nor been stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.done {
			n++
		}
	}
	return n
}
