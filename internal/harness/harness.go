package harness

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rbolet/every-player/internal/engine"
	"github.com/rbolet/every-player/internal/model"
	"github.com/rbolet/every-player/internal/seed"
	"github.com/rbolet/every-player/internal/store"
	"github.com/rbolet/every-player/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock and sequential ids.
type Harness struct {
	engine *engine.Engine
	seq    *engine.Sequence
	logger *zap.Logger
}

// Option configures a run.
type Option func(*Harness)

// WithLogger sets the logger for harness progress and engine writes.
func WithLogger(l *zap.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
//  1. Create fresh in-memory database
//  2. Apply the seed dataset, if any
//  3. Execute setup steps (each must succeed)
//  4. Execute flow steps, checking expect clauses
//  5. Evaluate assertions against the trace and the final state
//
// The returned error reports a run that could not be carried out; failed
// expectations are recorded in Result.Errors.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{seq: engine.NewSequence(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	h.engine, err = engine.New(st,
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithIDGenerator(testutil.NewSequentialIDs("id")),
		engine.WithLogger(h.logger),
	)
	if err != nil {
		return nil, err
	}

	if err := h.applySeed(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to apply seed: %w", err)
	}

	result := NewResult()
	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	for _, msg := range EvaluateAssertions(ctx, h.engine, result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) applySeed(ctx context.Context, scenario *Scenario) error {
	var (
		ds  *seed.Dataset
		err error
	)
	switch {
	case scenario.Seed == "":
		return nil
	case scenario.Seed == SeedDefault:
		ds, err = seed.Default()
	default:
		ds, err = seed.Load(scenario.SeedPath())
	}
	if err != nil {
		return err
	}
	s, err := seed.Apply(ctx, h.engine, ds)
	if err != nil {
		return err
	}
	h.logger.Debug("seed applied", zap.String("seed", scenario.Seed), zap.Int("players", s.Players), zap.Int("slots", s.Slots))
	return nil
}

// executeSetup runs all setup steps. Setup steps are traced like flow
// steps but any rejection aborts the run.
func (h *Harness) executeSetup(ctx context.Context, setup []ActionStep, result *Result) error {
	for i, step := range setup {
		outcome, code, err := h.invoke(ctx, step.Action, step.Args, result)
		if err != nil {
			return fmt.Errorf("setup step %d (%s): %w", i, step.Action, err)
		}
		if outcome != CaseSuccess {
			return fmt.Errorf("setup step %d (%s): %s %s", i, step.Action, outcome, code)
		}
	}
	return nil
}

// executeFlow runs all flow steps and checks their outcomes.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		outcome, code, err := h.invoke(ctx, step.Invoke, step.Args, result)
		if err != nil {
			return fmt.Errorf("flow step %d (%s): %w", i, step.Invoke, err)
		}

		want := ExpectClause{Case: CaseSuccess}
		if step.Expect != nil {
			want = *step.Expect
		}
		if outcome != want.Case || (want.Code != "" && code != want.Code) {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected %s, got %s",
				i, step.Invoke, describe(want.Case, want.Code), describe(outcome, code)))
		}

		h.logger.Debug("flow step completed",
			zap.Int("step", i),
			zap.String("action", step.Invoke),
			zap.String("case", outcome),
			zap.String("code", code),
		)
	}
	return nil
}

// invoke traces and runs one action. Errors outside the taxonomy are
// returned; taxonomy errors become the outcome.
func (h *Harness) invoke(ctx context.Context, action string, args map[string]any, result *Result) (string, string, error) {
	fn, ok := actions[action]
	if !ok {
		return "", "", fmt.Errorf("unknown action %q", action)
	}
	result.AddInvocationTrace(action, args, h.seq.Next())

	outcome, code, err := classify(fn(ctx, h.engine, args))
	if err != nil {
		return "", "", err
	}
	result.AddCompletionTrace(outcome, code, h.seq.Next())
	return outcome, code, nil
}

// classify maps an engine error onto an outcome case and code.
func classify(err error) (string, string, error) {
	if err == nil {
		return CaseSuccess, "", nil
	}
	var (
		ce *model.ConflictError
		ve *model.ValidationError
		re *model.ReferentialIntegrityError
	)
	switch {
	case errors.As(err, &ce):
		return CaseConflict, string(ce.Code), nil
	case errors.As(err, &ve):
		return CaseValidation, ve.Code, nil
	case errors.As(err, &re):
		return CaseReferential, re.Entity, nil
	}
	return "", "", err
}

func describe(outcome, code string) string {
	if code == "" {
		return outcome
	}
	return outcome + " " + code
}
