// pattern: Functional Core
package outcome

import (
	"fmt"

	"github.com/pweiskircher/profile-sync/internal/profilerr"
)

// Outcome is a two-variant result: a success value or a failure error.
// Exactly one variant is inhabited; the zero value is a success holding the
// zero value of T.
type Outcome[T any] struct {
	value T
	err   error
}

func Ok[T any](value T) Outcome[T] {
	return Outcome[T]{value: value}
}

func Fail[T any](err error) Outcome[T] {
	if err == nil {
		err = profilerr.NewFatal(profilerr.CodeComputationFailed, "failure constructed with nil error")
	}
	return Outcome[T]{err: err}
}

func (o Outcome[T]) IsOk() bool {
	return o.err == nil
}

func (o Outcome[T]) Get() (T, error) {
	return o.value, o.err
}

func (o Outcome[T]) Err() error {
	return o.err
}

// GetOr returns the success value or the supplied fallback. Never panics.
func (o Outcome[T]) GetOr(fallback T) T {
	if o.err != nil {
		return fallback
	}
	return o.value
}

// MustGet returns the success value or panics with a fatal unwrap error
// wrapping the original failure. Unwrapping without checking is a programmer
// bug, not an expected failure path.
func (o Outcome[T]) MustGet() T {
	if o.err != nil {
		panic(profilerr.NewFatal(profilerr.CodeUnwrapFailed, "unwrapped a failed outcome").WithCause(o.err))
	}
	return o.value
}

// Map applies transform to the success value. A panic inside transform becomes
// a computation failure; failures pass through untouched.
func Map[T, U any](o Outcome[T], transform func(T) U) Outcome[U] {
	if o.err != nil {
		return Fail[U](o.err)
	}

	var result Outcome[U]
	if err := capture(func() {
		result = Ok(transform(o.value))
	}); err != nil {
		return Fail[U](err)
	}
	return result
}

// FlatMap chains a dependent computation. Failures short-circuit without
// invoking bind.
func FlatMap[T, U any](o Outcome[T], bind func(T) Outcome[U]) Outcome[U] {
	if o.err != nil {
		return Fail[U](o.err)
	}

	var result Outcome[U]
	if err := capture(func() {
		result = bind(o.value)
	}); err != nil {
		return Fail[U](err)
	}
	return result
}

// capture converts a panic in fn into a typed computation failure. A panic
// that already carries a typed error keeps it as the cause.
func capture(fn func()) (failure error) {
	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		if err, ok := recovered.(error); ok {
			failure = profilerr.NewFatal(profilerr.CodeComputationFailed, "callback panicked").WithCause(err)
			return
		}
		failure = profilerr.NewFatal(profilerr.CodeComputationFailed, fmt.Sprintf("callback panicked: %v", recovered))
	}()

	fn()
	return nil
}
