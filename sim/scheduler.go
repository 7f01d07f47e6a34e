package sim

import (
	"context"
	"time"
)

// Limits bound a scheduled run. Zero values mean unbounded.
type Limits struct {
	MaxTicks       int
	MaxGenerations int // Completed generations
}

// Reached reports whether s has hit either limit.
func (l Limits) Reached(s Stats) bool {
	if l.MaxTicks > 0 && s.Tick >= l.MaxTicks {
		return true
	}
	if l.MaxGenerations > 0 && s.Generation-1 >= l.MaxGenerations {
		return true
	}
	return false
}

// Scheduler drives a Coordinator. Each update runs Speed() steps. With a
// positive rate, Run paces updates with a ticker; otherwise they run back
// to back.
type Scheduler struct {
	coord  *Coordinator
	rate   int
	limits Limits

	// BeforeStep, if set, runs before every step.
	BeforeStep func()
	// AfterStep, if set, runs after every step. An error stops the run.
	AfterStep func(Stats) error
}

// NewScheduler creates a scheduler running rate updates per second.
func NewScheduler(c *Coordinator, rate int, limits Limits) *Scheduler {
	return &Scheduler{coord: c, rate: rate, limits: limits}
}

// Update runs one batch of steps. done reports that a limit was reached.
func (s *Scheduler) Update() (done bool, err error) {
	for range s.coord.Speed() {
		if s.limits.Reached(s.coord.Stats()) {
			return true, nil
		}
		if s.BeforeStep != nil {
			s.BeforeStep()
		}
		if err := s.coord.Step(); err != nil {
			return false, err
		}
		if s.AfterStep != nil {
			if err := s.AfterStep(s.coord.Stats()); err != nil {
				return false, err
			}
		}
	}
	return s.limits.Reached(s.coord.Stats()), nil
}

// Run calls Update until a limit is reached, a step fails or ctx is
// cancelled. Cancellation is a normal stop and returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if s.rate > 0 {
		t := time.NewTicker(time.Second / time.Duration(s.rate))
		defer t.Stop()
		tick = t.C
	}

	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		done, err := s.Update()
		if err != nil || done {
			return err
		}
	}
}
