// internal/throttle/throttle.go
// Package throttle limits how often a function runs.
package throttle

import (
	"sync"
	"time"
)

// Timer is a pending deferred call. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler schedules on the runtime timer.
var RealScheduler Scheduler = realScheduler{}

// Throttle runs fn at most once per window. The first call after an idle
// period opens a window; calls inside it only replace the pending argument,
// and fn runs once at the end of the window with the last one.
type Throttle[T any] struct {
	mu      sync.Mutex
	fn      func(T)
	wait    time.Duration
	sched   Scheduler
	pending Timer
	arg     T
}

func New[T any](wait time.Duration, fn func(T), sched Scheduler) *Throttle[T] {
	if sched == nil {
		sched = RealScheduler
	}
	return &Throttle[T]{fn: fn, wait: wait, sched: sched}
}

func (t *Throttle[T]) Call(arg T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.arg = arg
	if t.pending == nil {
		t.pending = t.sched.AfterFunc(t.wait, t.fire)
	}
}

// Pending reports whether a call is waiting for the window to close.
func (t *Throttle[T]) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}

// Stop drops the pending call, if any.
func (t *Throttle[T]) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	var zero T
	t.arg = zero
}

func (t *Throttle[T]) fire() {
	t.mu.Lock()
	if t.pending == nil {
		t.mu.Unlock()
		return
	}
	arg := t.arg
	var zero T
	t.arg = zero
	t.pending = nil
	t.mu.Unlock()

	t.fn(arg)
}
