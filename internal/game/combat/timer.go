package combat

import (
	"context"
	"time"
)

// Pacer inserts the real-time pauses between scheduled steps.
type Pacer interface {
	// Wait blocks for d or until ctx is done.
	//
	// Postcondition: Returns ctx.Err() if ctx ended first; nil otherwise.
	Wait(ctx context.Context, d time.Duration) error
}

// SleepPacer waits on the wall clock.
type SleepPacer struct{}

// Wait blocks for d using a timer so cancellation is observed promptly.
func (SleepPacer) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoDelayPacer never blocks. Headless runs and tests use it.
type NoDelayPacer struct{}

// Wait returns immediately.
func (NoDelayPacer) Wait(ctx context.Context, _ time.Duration) error { return ctx.Err() }

type step struct {
	label string
	delay time.Duration
	fn    func()
}

// Scheduler is a single-threaded cooperative task queue. Each step waits its
// delay on the Pacer and then runs to completion before the next begins, so
// no two steps ever overlap.
//
// Scheduler is not safe for concurrent use; one encounter drives it.
type Scheduler struct {
	pacer   Pacer
	steps   []step
	running bool
	// insertAt is where the next Next() call lands while a step is running.
	insertAt int
	onStep   func(label string)
}

// NewScheduler creates an empty scheduler paced by pacer.
//
// Precondition: pacer must be non-nil.
func NewScheduler(pacer Pacer) *Scheduler {
	return &Scheduler{pacer: pacer}
}

// Enqueue appends a step to the tail of the queue.
func (s *Scheduler) Enqueue(label string, delay time.Duration, fn func()) {
	s.steps = append(s.steps, step{label: label, delay: delay, fn: fn})
}

// Next schedules a continuation of the running step. Continuations run
// immediately after the current step, ahead of anything enqueued earlier,
// and in the order Next was called. Outside Drain the step is prepended.
//
// Postcondition: the step runs before any step that was pending when the
// current step started.
func (s *Scheduler) Next(label string, delay time.Duration, fn func()) {
	st := step{label: label, delay: delay, fn: fn}
	at := 0
	if s.running {
		at = s.insertAt
		s.insertAt++
	}
	s.steps = append(s.steps, step{})
	copy(s.steps[at+1:], s.steps[at:])
	s.steps[at] = st
}

// OnStep registers fn to observe each step label just before it runs.
func (s *Scheduler) OnStep(fn func(label string)) { s.onStep = fn }

// Pending returns the number of steps not yet run.
func (s *Scheduler) Pending() int { return len(s.steps) }

// Clear drops every pending step.
func (s *Scheduler) Clear() {
	s.steps = nil
	s.insertAt = 0
}

// Drain runs steps until the queue is empty or ctx ends.
//
// Postcondition: Returns the number of steps run. On cancellation the
// remaining steps are dropped and ctx.Err() is returned.
func (s *Scheduler) Drain(ctx context.Context) (int, error) {
	ran := 0
	for len(s.steps) > 0 {
		st := s.steps[0]
		s.steps = s.steps[1:]
		if err := s.pacer.Wait(ctx, st.delay); err != nil {
			s.Clear()
			return ran, err
		}
		if s.onStep != nil {
			s.onStep(st.label)
		}
		s.running = true
		s.insertAt = 0
		st.fn()
		s.running = false
		ran++
	}
	return ran, nil
}
