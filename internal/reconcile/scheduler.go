package reconcile

import "time"

// Scheduler defers a callback. The production implementation wraps the
// runtime timer; tests substitute a virtual scheduler so flash clears and
// pending retries run deterministically.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

// TimerScheduler schedules callbacks on real runtime timers.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}
