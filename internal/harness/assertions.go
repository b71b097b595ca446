package harness

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/rbolet/every-player/internal/engine"
	"github.com/rbolet/every-player/internal/model"
	"github.com/rbolet/every-player/internal/rules"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			if event.Type == "invocation" {
				fmt.Fprintf(&buf, "  [%d] %s %v\n", i+1, event.Action, event.Args)
			}
		}
	}
	return buf.String()
}

// assertTraceContains checks if the trace contains an invocation matching
// the specified action and args (subset match).
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Type == "invocation" && event.Action == assertion.Action && matchArgs(event.Args, assertion.Args) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("action %s with args %v", assertion.Action, assertion.Args),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if actions appear in the specified order.
// Actions don't need to be consecutive (intervening actions are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	// First position of each expected action, 1-indexed
	positions := make(map[string]int)
	for i, event := range trace {
		if event.Type != "invocation" {
			continue
		}
		for _, expected := range assertion.Actions {
			if event.Action == expected && positions[expected] == 0 {
				positions[expected] = i + 1
			}
		}
	}

	for _, action := range assertion.Actions {
		if positions[action] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all actions present: %v", assertion.Actions),
				Actual:   fmt.Sprintf("missing action: %s", action),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Actions); i++ {
		prev, curr := assertion.Actions[i-1], assertion.Actions[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("actions in order: %v", assertion.Actions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks if the action appears exactly the specified number
// of times. Args, when given, narrow the match.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type == "invocation" && event.Action == assertion.Action && matchArgs(event.Args, assertion.Args) {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Action),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertLineup reads a period's lineup and compares its positions, bench,
// empty and absent rows.
func assertLineup(ctx context.Context, e *engine.Engine, assertion Assertion) error {
	p, err := e.ResolvePeriod(ctx, assertion.Period)
	if err != nil {
		return lineupFailure(assertion, "period "+assertion.Period, err.Error())
	}
	l, err := e.Lineup(ctx, p.ID)
	if err != nil {
		return lineupFailure(assertion, "lineup of "+assertion.Period, err.Error())
	}

	held := make(map[string]string, len(l.Field))
	for _, slot := range l.Field {
		if slot.Assignment != nil && slot.Assignment.PlayerID != nil {
			held[slot.Position.ID] = *slot.Assignment.PlayerID
		}
	}
	for _, posID := range sortedKeys(assertion.Positions) {
		want := assertion.Positions[posID]
		if got := held[posID]; got != want {
			return lineupFailure(assertion,
				fmt.Sprintf("%s held by %q", posID, want),
				fmt.Sprintf("%s held by %q", posID, got))
		}
	}

	if assertion.Bench != nil {
		if want, got := sortedCopy(assertion.Bench), playerIDs(l.Bench); !reflect.DeepEqual(want, got) {
			return lineupFailure(assertion, fmt.Sprintf("bench %v", want), fmt.Sprintf("bench %v", got))
		}
	}
	if assertion.Absent != nil {
		if want, got := sortedCopy(assertion.Absent), playerIDs(l.Absent); !reflect.DeepEqual(want, got) {
			return lineupFailure(assertion, fmt.Sprintf("absent %v", want), fmt.Sprintf("absent %v", got))
		}
	}
	if assertion.Empty != nil && *assertion.Empty != len(l.Empty) {
		return lineupFailure(assertion,
			fmt.Sprintf("%d empty rows", *assertion.Empty),
			fmt.Sprintf("%d empty rows", len(l.Empty)))
	}
	return nil
}

func lineupFailure(assertion Assertion, expected, actual string) error {
	return &AssertionError{
		Type:     AssertLineup,
		Expected: fmt.Sprintf("%s: %s", assertion.Period, expected),
		Actual:   actual,
	}
}

// assertPlaytime reads a game or team report and compares one player's row.
func assertPlaytime(ctx context.Context, e *engine.Engine, assertion Assertion) error {
	var (
		report engine.PlayingTimeReport
		err    error
		scope  = assertion.Game
	)
	if assertion.Game != "" {
		report, err = e.GameReport(ctx, assertion.Game)
	} else {
		scope = assertion.Team
		report, err = e.TeamReport(ctx, assertion.Team)
	}
	fail := func(expected, actual string) error {
		return &AssertionError{
			Type:     AssertPlaytime,
			Expected: fmt.Sprintf("%s/%s: %s", scope, assertion.Player, expected),
			Actual:   actual,
		}
	}
	if err != nil {
		return fail("a report", err.Error())
	}

	var row *engine.PlayerTime
	for i := range report.Players {
		if report.Players[i].PlayerID == assertion.Player {
			row = &report.Players[i]
			break
		}
	}
	if row == nil {
		return fail("a row for the player", "player not on the report")
	}

	if assertion.Played != nil && *assertion.Played != row.Played {
		return fail(fmt.Sprintf("played %d", *assertion.Played), fmt.Sprintf("played %d", row.Played))
	}
	if assertion.BenchPeriods != nil && *assertion.BenchPeriods != row.Bench {
		return fail(fmt.Sprintf("bench %d", *assertion.BenchPeriods), fmt.Sprintf("bench %d", row.Bench))
	}
	if assertion.TotalPeriods != nil && *assertion.TotalPeriods != row.TotalPeriods {
		return fail(fmt.Sprintf("total periods %d", *assertion.TotalPeriods), fmt.Sprintf("total periods %d", row.TotalPeriods))
	}
	if assertion.PercentageBasisPoints != nil {
		got := rules.PercentageBasisPoints(row.Played, row.TotalPeriods)
		if *assertion.PercentageBasisPoints != got {
			return fail(fmt.Sprintf("%d basis points", *assertion.PercentageBasisPoints), fmt.Sprintf("%d basis points", got))
		}
	}
	if assertion.IsAbsent != nil {
		got := row.Absent || row.AbsentGames > 0
		if *assertion.IsAbsent != got {
			return fail(fmt.Sprintf("absent %t", *assertion.IsAbsent), fmt.Sprintf("absent %t", got))
		}
	}
	return nil
}

func playerIDs(rows []model.GamePlayerAssignment) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.PlayerID != nil {
			ids = append(ids, *r.PlayerID)
		}
	}
	sort.Strings(ids)
	return ids
}

func sortedCopy(s []string) []string {
	out := append([]string{}, s...)
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// matchArgs checks if actual args contain all expected args (subset match).
// Extra keys in actual are ignored.
func matchArgs(actual, expected map[string]any) bool {
	for key, expectedVal := range expected {
		actualVal, exists := actual[key]
		if !exists || !reflect.DeepEqual(actualVal, expectedVal) {
			return false
		}
	}
	return true
}

// EvaluateAssertions evaluates all assertions against the result and the
// engine's final state. Returns a slice of error messages for failed
// assertions.
func EvaluateAssertions(ctx context.Context, e *engine.Engine, result *Result, assertions []Assertion) []string {
	var errs []string
	for i, assertion := range assertions {
		var err error
		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertLineup:
			err = assertLineup(ctx, e, assertion)
		case AssertPlaytime:
			err = assertPlaytime(ctx, e, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}
