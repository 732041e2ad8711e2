package simulation

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// scheduler owns the single periodic loop of an Engine.
//
// Its fields are guarded by Engine.mu; the loop goroutine only touches the
// channels it was started with.
type scheduler struct {
	clock clockwork.Clock
	tick  func(ctx context.Context)

	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
	trigger  chan struct{}
}

func newScheduler(clock clockwork.Clock, tick func(ctx context.Context)) *scheduler {
	return &scheduler{clock: clock, tick: tick}
}

func (s *scheduler) running() bool {
	return s.cancel != nil
}

// start launches the loop with the given period.
func (s *scheduler) start(interval time.Duration) error {
	if s.running() {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	trigger := make(chan struct{}, 1)
	ticker := s.clock.NewTicker(interval)

	s.interval = interval
	s.cancel = cancel
	s.done = done
	s.trigger = trigger

	go s.loop(ctx, ticker, trigger, done)
	return nil
}

// stop cancels the loop and waits for it to exit. A tick that already
// fired runs to completion first.
func (s *scheduler) stop() error {
	if !s.running() {
		return ErrAlreadyStopped
	}

	s.cancel()
	<-s.done

	s.cancel = nil
	s.done = nil
	s.trigger = nil
	return nil
}

// restart replaces the loop with one at the new period.
func (s *scheduler) restart(interval time.Duration) {
	_ = s.stop()
	_ = s.start(interval)
}

// poke requests one immediate tick. Pending requests coalesce.
func (s *scheduler) poke() {
	if !s.running() {
		return
	}
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *scheduler) loop(ctx context.Context, ticker clockwork.Ticker, trigger <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
		case <-trigger:
		}

		// A fire racing with stop loses.
		if ctx.Err() != nil {
			return
		}
		s.tick(ctx)
	}
}
