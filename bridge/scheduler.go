package bridge

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

type schedulerKey struct{}

// Scheduler is a group of tasks sharing one context. It is active from
// creation until Wait returns.
type Scheduler struct {
	g      errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	idle    *sync.Cond
	running int
	closed  bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLimit bounds the number of tasks running at once. Go blocks while the
// limit is reached, so tasks must not start tasks under a limit of one.
func WithLimit(n int) Option {
	return func(s *Scheduler) { s.g.SetLimit(n) }
}

// NewScheduler creates an active scheduler whose context derives from parent.
func NewScheduler(parent context.Context, opts ...Option) *Scheduler {
	s := &Scheduler{}
	s.idle = sync.NewCond(&s.mu)
	ctx, cancel := context.WithCancel(parent)
	s.ctx = context.WithValue(ctx, schedulerKey{}, s)
	s.cancel = cancel
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromContext returns the scheduler bound to ctx.
func FromContext(ctx context.Context) (*Scheduler, bool) {
	s, ok := ctx.Value(schedulerKey{}).(*Scheduler)
	return s, ok
}

// Context returns the context tasks run with. It carries the scheduler.
func (s *Scheduler) Context() context.Context {
	return s.ctx
}

// Active reports whether Wait has not yet returned.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Go starts fn as a task and reports whether it did. Once Wait has seen every
// task finish, Go starts nothing and returns false. The first non-nil error
// is returned by Wait.
func (s *Scheduler) Go(fn func(ctx context.Context) error) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.running++
	s.mu.Unlock()

	s.g.Go(func() error {
		defer s.done()
		return fn(s.ctx)
	})
	return true
}

func (s *Scheduler) done() {
	s.mu.Lock()
	s.running--
	if s.running == 0 {
		s.idle.Broadcast()
	}
	s.mu.Unlock()
}

// Wait blocks until every task has returned, then deactivates the scheduler
// and cancels its context. Tasks started by running tasks are waited for too.
func (s *Scheduler) Wait() error {
	s.mu.Lock()
	for s.running > 0 {
		s.idle.Wait()
	}
	s.closed = true
	s.mu.Unlock()

	err := s.g.Wait()
	s.cancel()
	return err
}
