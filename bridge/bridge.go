// Package bridge runs one context-aware operation either blocking or as a
// future, depending on how the caller asks for it.
//
// A [Scheduler] is a group of tasks bound to a context. Code running as a
// task receives the scheduler's context and must not block on a fresh
// scheduler from there; [Block] reports [ErrConcurrencyMisuse] instead of
// running the operation. Such code uses [Go] and awaits the future, or
// [Call] with [ModeAuto], which picks the non-blocking path whenever the
// context carries an active scheduler.
package bridge

import (
	"context"
	"errors"
)

// ErrConcurrencyMisuse is returned by Block when called with the context of
// an active scheduler.
var ErrConcurrencyMisuse = errors.New("dine: blocking call from inside an active scheduler")

// Op is an operation the bridge can run.
type Op[T any] func(ctx context.Context) (T, error)

// Block runs op on a scheduler owned by this call and returns its result
// once the scheduler has drained. It fails with ErrConcurrencyMisuse, without
// running op, when ctx belongs to an active scheduler.
func Block[T any](ctx context.Context, op Op[T]) (T, error) {
	var zero T
	if s, ok := FromContext(ctx); ok && s.Active() {
		return zero, ErrConcurrencyMisuse
	}

	s := NewScheduler(ctx)
	f := Go(s.Context(), op)
	if err := s.Wait(); err != nil {
		return zero, err
	}
	return f.result()
}

// Go starts op and returns its future without waiting. The op runs as a task
// of the scheduler bound to ctx while that scheduler is active, otherwise on
// its own goroutine.
func Go[T any](ctx context.Context, op Op[T]) *Future[T] {
	f := newFuture[T]()
	if s, ok := FromContext(ctx); ok {
		started := s.Go(func(tctx context.Context) error {
			f.complete(op(tctx))
			return nil
		})
		if started {
			return f
		}
	}

	go func() {
		f.complete(op(ctx))
	}()
	return f
}

// Mode selects the path taken by Call.
type Mode uint8

const (
	// ModeAuto returns a pending result when ctx carries an active scheduler
	// and blocks otherwise.
	ModeAuto Mode = iota
	// ModeBlocking always blocks, as Block.
	ModeBlocking
	// ModeAsync never blocks, as Go.
	ModeAsync
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeBlocking:
		return "blocking"
	case ModeAsync:
		return "async"
	default:
		return "unknown"
	}
}

// Result is what Call returns: either a final value or a pending future.
type Result[T any] struct {
	value  T
	err    error
	future *Future[T]
}

// Pending reports whether the result still has to be awaited.
func (r Result[T]) Pending() bool { return r.future != nil }

// Future returns the pending future, or nil for final results.
func (r Result[T]) Future() *Future[T] { return r.future }

// Get returns the final value, awaiting the future first if the result is
// pending.
func (r Result[T]) Get(ctx context.Context) (T, error) {
	if r.future != nil {
		return r.future.Await(ctx)
	}
	return r.value, r.err
}

// Call runs op on the path selected by mode.
func Call[T any](ctx context.Context, mode Mode, op Op[T]) Result[T] {
	async := mode == ModeAsync
	if mode == ModeAuto {
		s, ok := FromContext(ctx)
		async = ok && s.Active()
	}

	if async {
		return Result[T]{future: Go(ctx, op)}
	}
	v, err := Block(ctx, op)
	return Result[T]{value: v, err: err}
}
