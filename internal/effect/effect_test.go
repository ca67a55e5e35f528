package effect

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/pweiskircher/profile-sync/internal/profilerr"
)

func TestPureIsLazyUntilRun(t *testing.T) {
	executed := false
	e := Lift(func(context.Context) (int, error) {
		executed = true
		return 42, nil
	})

	if executed {
		t.Fatal("construction must not execute the computation")
	}

	result := e.Run(context.Background())
	if !executed {
		t.Fatal("Run must execute the computation")
	}
	if value, err := result.Get(); err != nil || value != 42 {
		t.Fatalf("unexpected result: value=%d err=%v", value, err)
	}
}

func TestRunReExecutesEveryTime(t *testing.T) {
	invocations := 0
	e := Lift(func(context.Context) (int, error) {
		invocations++
		return invocations, nil
	})

	first := e.Run(context.Background()).GetOr(0)
	second := e.Run(context.Background()).GetOr(0)

	if first != 1 || second != 2 {
		t.Fatalf("Run must not memoize: first=%d second=%d", first, second)
	}
}

func TestMapCompositionLaw(t *testing.T) {
	double := func(value int) int { return value * 2 }
	render := func(value int) string { return strconv.Itoa(value) }

	chained := Map(Map(Pure(21), double), render).Run(context.Background())
	fused := Map(Pure(21), func(value int) string { return render(double(value)) }).Run(context.Background())

	if chained.GetOr("") != fused.GetOr("") {
		t.Fatalf("map composition broken: chained=%v fused=%v", chained, fused)
	}
	if chained.GetOr("") != "42" {
		t.Fatalf("unexpected value %q", chained.GetOr(""))
	}
}

func TestFlatMapShortCircuitsOnFailure(t *testing.T) {
	invoked := false
	failed := FailWith[int](errors.New("upstream failed"))

	result := FlatMap(failed, func(int) Effect[string] {
		invoked = true
		return Pure("unreachable")
	}).Run(context.Background())

	if invoked {
		t.Fatal("binder must not run after a failure")
	}
	if result.IsOk() {
		t.Fatal("failure must propagate")
	}
}

func TestFlatMapBinderPanicBecomesFlatMapFailure(t *testing.T) {
	result := FlatMap(Pure(1), func(int) Effect[int] {
		panic("binder exploded")
	}).Run(context.Background())

	if result.IsOk() {
		t.Fatal("panicking binder must fail the effect")
	}
	if !profilerr.IsCode(result.Err(), profilerr.CodeFlatMapFailed) {
		t.Fatalf("expected flat-map failure, got %v", result.Err())
	}
}

func TestMapPanicBecomesComputationFailure(t *testing.T) {
	result := Map(Pure(1), func(int) int { panic("transform exploded") }).Run(context.Background())
	if !profilerr.IsCode(result.Err(), profilerr.CodeComputationFailed) {
		t.Fatalf("expected computation failure, got %v", result.Err())
	}
}

func TestTapSwallowsPanicsAndPreservesSuccess(t *testing.T) {
	observed := 0
	e := Pure(7).Tap(func(value int) {
		observed = value
		panic("tap exploded")
	})

	result := e.Run(context.Background())
	if value, err := result.Get(); err != nil || value != 7 {
		t.Fatalf("tap must never break the success path: value=%d err=%v", value, err)
	}
	if observed != 7 {
		t.Fatalf("tap must observe the value, got %d", observed)
	}
}

func TestTapDoesNotRunOnFailure(t *testing.T) {
	invoked := false
	FailWith[int](errors.New("nope")).Tap(func(int) { invoked = true }).Run(context.Background())
	if invoked {
		t.Fatal("tap must not observe failures")
	}
}

func TestRecoverIsNoOpOnSuccess(t *testing.T) {
	invoked := false
	result := Pure(3).Recover(func(error) (int, error) {
		invoked = true
		return 0, nil
	}).Run(context.Background())

	if invoked {
		t.Fatal("recovery handler must not run on success")
	}
	if value := result.GetOr(0); value != 3 {
		t.Fatalf("unexpected value %d", value)
	}
}

func TestRecoverReplacesFailure(t *testing.T) {
	result := FailWith[int](errors.New("transient")).Recover(func(error) (int, error) {
		return 99, nil
	}).Run(context.Background())

	if value, err := result.Get(); err != nil || value != 99 {
		t.Fatalf("unexpected recovery result: value=%d err=%v", value, err)
	}
}

func TestFailedRecoveryWrapsBothErrors(t *testing.T) {
	original := errors.New("original failure")
	handlerErr := errors.New("recovery also failed")

	result := FailWith[int](original).Recover(func(error) (int, error) {
		return 0, handlerErr
	}).Run(context.Background())

	err := result.Err()
	if err == nil {
		t.Fatal("failed recovery must fail the effect")
	}
	if !profilerr.IsCode(err, profilerr.CodeRecoveryFailed) {
		t.Fatalf("expected recovery failure, got %v", err)
	}
	if !errors.Is(err, handlerErr) {
		t.Fatal("recovery failure must wrap the handler error")
	}
	typed := profilerr.As(err)
	if typed == nil || !strings.Contains(typed.Message, original.Error()) {
		t.Fatalf("recovery failure must mention the original error, got %v", err)
	}
}

func TestAllFirstFailureWinsButBatchSettles(t *testing.T) {
	settled := make([]bool, 3)
	first := errors.New("first failure")

	effects := []Effect[int]{
		Lift(func(context.Context) (int, error) { settled[0] = true; return 0, first }),
		Lift(func(context.Context) (int, error) { settled[1] = true; return 0, errors.New("second failure") }),
		Lift(func(context.Context) (int, error) { settled[2] = true; return 3, nil }),
	}

	result := All(effects...).Run(context.Background())
	if !errors.Is(result.Err(), first) {
		t.Fatalf("first failure must win, got %v", result.Err())
	}
	for index, ran := range settled {
		if !ran {
			t.Fatalf("effect %d did not settle", index)
		}
	}
}

func TestTraverse(t *testing.T) {
	result := Traverse([]int{1, 2, 3}, func(value int) Effect[int] {
		return Pure(value * 10)
	}).Run(context.Background())

	values := result.GetOr(nil)
	if len(values) != 3 || values[0] != 10 || values[2] != 30 {
		t.Fatalf("unexpected traverse values %v", values)
	}
}
