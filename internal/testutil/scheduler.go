// Package testutil provides shared helpers for tests: a virtual scheduler
// for deterministic timer behavior, record factories and database setup.
package testutil

import (
	"sync"
	"time"
)

type virtualTimer struct {
	due time.Duration
	fn  func()
}

// VirtualScheduler is a deterministic replacement for runtime timers.
// Callbacks fire synchronously from Advance, in due order, on the calling
// goroutine. Callbacks may schedule further timers; those fire in the same
// Advance call when they fall inside the advanced window.
type VirtualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []virtualTimer
}

// NewVirtualScheduler creates a scheduler at time zero.
func NewVirtualScheduler() *VirtualScheduler {
	return &VirtualScheduler{}
}

// AfterFunc schedules fn to run d after the current virtual time.
func (s *VirtualScheduler) AfterFunc(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers = append(s.timers, virtualTimer{due: s.now + d, fn: fn})
}

// Advance moves virtual time forward, firing every timer due in the window.
func (s *VirtualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	end := s.now + d
	for {
		idx := -1
		for i, t := range s.timers {
			if t.due <= end && (idx < 0 || t.due < s.timers[idx].due) {
				idx = i
			}
		}
		if idx < 0 {
			break
		}
		timer := s.timers[idx]
		s.timers = append(s.timers[:idx], s.timers[idx+1:]...)
		s.now = timer.due
		// Release the lock while firing: callbacks may schedule new timers.
		s.mu.Unlock()
		timer.fn()
		s.mu.Lock()
	}
	s.now = end
	s.mu.Unlock()
}

// PendingTimers reports how many timers are scheduled but not yet fired.
func (s *VirtualScheduler) PendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
