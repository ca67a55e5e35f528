// pattern: Functional Core
package effect

import (
	"context"
	"fmt"

	"github.com/pweiskircher/profile-sync/internal/outcome"
	"github.com/pweiskircher/profile-sync/internal/profilerr"
)

// Effect wraps a deferred fallible computation. Construction never executes
// the computation; every Run re-invokes it (no memoization). All combinators
// return a new Effect and never mutate the receiver.
type Effect[T any] struct {
	compute func(ctx context.Context) outcome.Outcome[T]
}

// Pure wraps an already-available value.
func Pure[T any](value T) Effect[T] {
	return Effect[T]{compute: func(context.Context) outcome.Outcome[T] {
		return outcome.Ok(value)
	}}
}

// FailWith wraps an already-known failure.
func FailWith[T any](err error) Effect[T] {
	return Effect[T]{compute: func(context.Context) outcome.Outcome[T] {
		return outcome.Fail[T](err)
	}}
}

// Lift wraps a fallible computation. A panic inside fn becomes a computation
// failure rather than escaping the pipeline.
func Lift[T any](fn func(ctx context.Context) (T, error)) Effect[T] {
	return Effect[T]{compute: func(ctx context.Context) outcome.Outcome[T] {
		var result outcome.Outcome[T]
		if err := capture(profilerr.CodeComputationFailed, func() {
			value, err := fn(ctx)
			if err != nil {
				result = outcome.Fail[T](err)
				return
			}
			result = outcome.Ok(value)
		}); err != nil {
			return outcome.Fail[T](err)
		}
		return result
	}}
}

// Run executes the underlying computation. Calling Run again re-executes it.
func (e Effect[T]) Run(ctx context.Context) outcome.Outcome[T] {
	if e.compute == nil {
		var zero T
		return outcome.Ok(zero)
	}
	return e.compute(ctx)
}

// UnsafeRun returns the bare value or panics with a fatal unwrap error.
func (e Effect[T]) UnsafeRun(ctx context.Context) T {
	return e.Run(ctx).MustGet()
}

// Map transforms the eventual success value. A panic inside transform becomes
// a computation failure; failures pass through untouched.
func Map[T, U any](e Effect[T], transform func(T) U) Effect[U] {
	return Effect[U]{compute: func(ctx context.Context) outcome.Outcome[U] {
		value, err := e.Run(ctx).Get()
		if err != nil {
			return outcome.Fail[U](err)
		}

		var result outcome.Outcome[U]
		if captureErr := capture(profilerr.CodeComputationFailed, func() {
			result = outcome.Ok(transform(value))
		}); captureErr != nil {
			return outcome.Fail[U](captureErr)
		}
		return result
	}}
}

// FlatMap sequences a dependent Effect. On failure the binder is never
// invoked. A panic inside the binder itself (not the inner Effect) becomes a
// flat-map failure.
func FlatMap[T, U any](e Effect[T], bind func(T) Effect[U]) Effect[U] {
	return Effect[U]{compute: func(ctx context.Context) outcome.Outcome[U] {
		value, err := e.Run(ctx).Get()
		if err != nil {
			return outcome.Fail[U](err)
		}

		var next Effect[U]
		if captureErr := capture(profilerr.CodeFlatMapFailed, func() {
			next = bind(value)
		}); captureErr != nil {
			return outcome.Fail[U](captureErr)
		}
		return next.Run(ctx)
	}}
}

// Tap runs observe for its side effect only. Panics from observe are
// swallowed: side effects must never break the success path.
func (e Effect[T]) Tap(observe func(T)) Effect[T] {
	return Effect[T]{compute: func(ctx context.Context) outcome.Outcome[T] {
		result := e.Run(ctx)
		if value, err := result.Get(); err == nil && observe != nil {
			_ = capture(profilerr.CodeComputationFailed, func() {
				observe(value)
			})
		}
		return result
	}}
}

// Recover replaces a failure with the handler's value. A handler that itself
// fails (returned error or panic) yields a recovery failure wrapping both the
// original and the recovery error.
func (e Effect[T]) Recover(handle func(err error) (T, error)) Effect[T] {
	return Effect[T]{compute: func(ctx context.Context) outcome.Outcome[T] {
		result := e.Run(ctx)
		original := result.Err()
		if original == nil || handle == nil {
			return result
		}

		var replacement T
		var handlerErr error
		if captureErr := capture(profilerr.CodeRecoveryFailed, func() {
			replacement, handlerErr = handle(original)
		}); captureErr != nil {
			handlerErr = captureErr
		}

		if handlerErr != nil {
			wrapped := profilerr.NewFatal(
				profilerr.CodeRecoveryFailed,
				fmt.Sprintf("recovery handler failed while handling: %v", original),
			).WithCause(handlerErr)
			return outcome.Fail[T](wrapped)
		}
		return outcome.Ok(replacement)
	}}
}

// All runs every effect in order. Every effect settles even after a failure;
// the first failure (lowest index) wins.
func All[T any](effects ...Effect[T]) Effect[[]T] {
	return Effect[[]T]{compute: func(ctx context.Context) outcome.Outcome[[]T] {
		values := make([]T, 0, len(effects))
		var firstErr error
		for _, entry := range effects {
			value, err := entry.Run(ctx).Get()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			values = append(values, value)
		}
		if firstErr != nil {
			return outcome.Fail[[]T](firstErr)
		}
		return outcome.Ok(values)
	}}
}

// Traverse maps every item to an Effect and joins the batch with All.
func Traverse[T, U any](items []T, fn func(T) Effect[U]) Effect[[]U] {
	effects := make([]Effect[U], 0, len(items))
	for _, item := range items {
		effects = append(effects, fn(item))
	}
	return All(effects...)
}

func capture(code profilerr.Code, fn func()) (failure error) {
	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		if err, ok := recovered.(error); ok {
			failure = profilerr.NewFatal(code, "callback panicked").WithCause(err)
			return
		}
		failure = profilerr.NewFatal(code, fmt.Sprintf("callback panicked: %v", recovered))
	}()

	fn()
	return nil
}
