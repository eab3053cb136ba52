package core

import (
	"sync"
	"time"
)

// lifecycleScheduler owns the destruction countdown timers for
// channels in their grace period. Timers never touch channel state
// directly: each tick is handed back to the hub actor through notify,
// so decrements stay inside the single mutation domain. Cancel is
// idempotent; a tick that fires while cancellation is in flight is
// discarded by the actor when the channel is no longer empty.
type lifecycleScheduler struct {
	mu       sync.Mutex
	interval time.Duration
	notify   func(channelID string)
	timers   map[string]*time.Timer
	stopped  bool
}

func newLifecycleScheduler(interval time.Duration, notify func(channelID string)) *lifecycleScheduler {
	return &lifecycleScheduler{
		interval: interval,
		notify:   notify,
		timers:   make(map[string]*time.Timer),
	}
}

// Schedule arms the next tick for a channel, replacing any pending one.
func (s *lifecycleScheduler) Schedule(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if t, ok := s.timers[channelID]; ok {
		t.Stop()
	}
	s.timers[channelID] = time.AfterFunc(s.interval, func() {
		s.fire(channelID)
	})
}

// Cancel disarms a channel's pending tick. Safe to call when no timer
// exists or when it already fired.
func (s *lifecycleScheduler) Cancel(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[channelID]; ok {
		t.Stop()
		delete(s.timers, channelID)
	}
}

// Stop disarms every timer. Used on hub shutdown.
func (s *lifecycleScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *lifecycleScheduler) fire(channelID string) {
	s.mu.Lock()
	delete(s.timers, channelID)
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return
	}
	s.notify(channelID)
}
