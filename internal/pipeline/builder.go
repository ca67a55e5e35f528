package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pweiskircher/profile-sync/internal/contracts"
	"github.com/pweiskircher/profile-sync/internal/effect"
	"github.com/pweiskircher/profile-sync/internal/profilerr"
)

type stageFunc func(ctx context.Context, pctx Context, state State) (State, error)

type stage struct {
	name contracts.StageName
	run  stageFunc
}

// Builder accumulates named stages and executes them in declaration
// order. The stage sequence is frozen once Run is invoked.
type Builder struct {
	pctx   Context
	stages []stage
	built  bool
}

func New(pctx Context) *Builder {
	return &Builder{pctx: pctx}
}

func (b *Builder) Compare(opts CompareOptions) *Builder {
	return b.append(contracts.StageCompare, func(ctx context.Context, pctx Context, state State) (State, error) {
		return runCompare(ctx, pctx, opts, state)
	})
}

func (b *Builder) Merge(opts MergeOptions) *Builder {
	return b.append(contracts.StageMerge, func(ctx context.Context, pctx Context, state State) (State, error) {
		return runMerge(ctx, pctx, opts, state)
	})
}

func (b *Builder) Validate(opts ValidateOptions) *Builder {
	return b.append(contracts.StageValidate, func(ctx context.Context, pctx Context, state State) (State, error) {
		return runValidate(ctx, pctx, opts, state)
	})
}

func (b *Builder) append(name contracts.StageName, run stageFunc) *Builder {
	if b == nil || b.built {
		return b
	}
	b.stages = append(b.stages, stage{name: name, run: run})
	return b
}

// Run executes the declared stages strictly sequentially, chaining
// them as effects. The first stage failure stops the run; later stages
// never execute.
func (b *Builder) Run(ctx context.Context) (State, error) {
	if b == nil {
		return State{}, profilerr.NewFatal(profilerr.CodePipelineStepFailed, "pipeline builder is nil")
	}
	if b.built {
		return State{}, profilerr.NewFatal(profilerr.CodePipelineStepFailed,
			"pipeline was already run; build a new pipeline per run")
	}
	b.built = true

	if len(b.stages) == 0 {
		return State{}, profilerr.NewUser(profilerr.CodePipelineStepFailed,
			"pipeline has no stages; declare at least one of compare, merge, validate")
	}

	logger := stageLogger(b.pctx)
	chained := effect.Pure(State{})
	for index, declared := range b.stages {
		index, declared := index, declared
		chained = effect.FlatMap(chained, func(state State) effect.Effect[State] {
			return b.stageEffect(index, declared, state, logger)
		})
	}

	result := chained.Run(ctx)
	if !result.IsOk() {
		return State{}, result.Err()
	}
	return result.Get()
}

func (b *Builder) stageEffect(index int, declared stage, state State, logger *zap.Logger) effect.Effect[State] {
	return effect.Lift(func(ctx context.Context) (State, error) {
		stageCtx := ctx
		cancel := func() {}
		if timeout := b.stageTimeout(); timeout > 0 {
			stageCtx, cancel = context.WithTimeout(ctx, timeout)
		}
		defer cancel()

		logger.Debug("stage starting",
			zap.String("stage", string(declared.name)),
			zap.Int("index", index))

		next, err := declared.run(stageCtx, b.pctx, state)
		if err == nil {
			return next, nil
		}

		if interrupted := AsInterrupted(err); interrupted != nil {
			return State{}, interrupted
		}
		if reason, interrupted := interruptReason(err); interrupted {
			return State{}, &InterruptedError{Stage: declared.name, Reason: reason, Err: err}
		}
		return State{}, &StepFailedError{Stage: declared.name, Index: index, Err: err}
	})
}

func (b *Builder) stageTimeout() time.Duration {
	if b.pctx.StageTimeout > 0 {
		return b.pctx.StageTimeout
	}
	return contracts.DefaultStageTimeout
}
