package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/rbolet/every-player/internal/model"
)

// goldenDir holds one trace per scenario under testdata/scenarios.
const goldenDir = "testdata/golden"

// canonical returns ev as a map for canonical JSON, leaving out the fields
// its type does not carry.
func (ev TraceEvent) canonical() map[string]any {
	m := map[string]any{"type": ev.Type, "seq": ev.Seq}
	for key, value := range map[string]string{"action": ev.Action, "case": ev.Case, "code": ev.Code} {
		if value != "" {
			m[key] = value
		}
	}
	if ev.Args != nil {
		m["args"] = ev.Args
	}
	return m
}

// CanonicalTrace renders a run's trace, setup included, as the canonical
// JSON document {"scenario_name": ..., "trace": [...]}. Golden files hold
// exactly these bytes.
func CanonicalTrace(scenarioName string, result *Result) ([]byte, error) {
	events := make([]any, len(result.Trace))
	for i, ev := range result.Trace {
		events[i] = ev.canonical()
	}
	return model.MarshalCanonical(map[string]any{
		"scenario_name": scenarioName,
		"trace":         events,
	})
}

// RunWithGolden runs s and checks its trace against
// testdata/golden/<s.Name>.golden. Regenerate with
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, s *Scenario, opts ...Option) *Result {
	t.Helper()

	result, err := Run(context.Background(), s, opts...)
	require.NoError(t, err, "scenario %s", s.Name)
	AssertGolden(t, s.Name, result)
	return result
}

// AssertGolden checks an existing result's trace against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	trace, err := CanonicalTrace(scenarioName, result)
	require.NoError(t, err)
	goldie.New(t, goldie.WithFixtureDir(goldenDir), goldie.WithNameSuffix(".golden")).
		Assert(t, scenarioName, trace)
}
