package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "lineup_assign.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "lineup_assign", s.Name)
	assert.Equal(t, SeedDefault, s.Seed)
	assert.Empty(t, s.SeedPath())
	require.Len(t, s.Flow, 7)
	assert.Equal(t, "assign", s.Flow[0].Invoke)
	assert.Equal(t, "player_emma", s.Flow[0].Args["player"])
	assert.Nil(t, s.Flow[0].Expect)
	require.NotNil(t, s.Flow[1].Expect)
	assert.Equal(t, CaseConflict, s.Flow[1].Expect.Case)
	assert.Equal(t, "PLAYER_DOUBLE_BOOKED", s.Flow[1].Expect.Code)

	require.Len(t, s.Assertions, 4)
	lineup := s.Assertions[0]
	assert.Equal(t, AssertLineup, lineup.Type)
	assert.Equal(t, map[string]string{"pos_gk": "", "pos_def_1": "player_emma", "pos_fwd": "player_olivia"}, lineup.Positions)
	require.NotNil(t, lineup.Empty)
	assert.Equal(t, 7, *lineup.Empty)
	assert.NotNil(t, s.Assertions[1].Bench, "an explicit empty bench is kept")
}

func TestLoadScenario_SeedPathRelativeToFile(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "small_division.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "datasets", "u6.yaml"), s.SeedPath())
}

func TestLoadScenario_MissingSeed(t *testing.T) {
	path := writeScenario(t, `
name: missing_seed
description: seed file does not exist
seed: nowhere.yaml
flow:
  - invoke: create_player
    args: {name: Zoe, birthdate: "2016-01-02"}
assertions:
  - {type: trace_count, action: create_player, count: 1}
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed dataset not found")
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join("testdata", "scenarios", "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: assertion instead of assertions
flow:
  - invoke: create_player
    args: {}
assertion:
  - {type: trace_count, action: create_player, count: 1}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	base := func(flow, assertions string) string {
		return "name: bad\ndescription: bad\nflow:\n" + flow + "assertions:\n" + assertions
	}
	okFlow := "  - {invoke: create_player, args: {}}\n"
	okAssert := "  - {type: trace_count, action: create_player, count: 1}\n"

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no name", "description: x\nflow:\n" + okFlow + "assertions:\n" + okAssert, "name is required"},
		{"no description", "name: x\nflow:\n" + okFlow + "assertions:\n" + okAssert, "description is required"},
		{"no flow", "name: x\ndescription: x\nassertions:\n" + okAssert, "flow list is required"},
		{"no assertions", "name: x\ndescription: x\nflow:\n" + okFlow, "assertions list is required"},
		{"unknown action", base("  - {invoke: teleport, args: {}}\n", okAssert), `unknown action "teleport"`},
		{"missing args", base("  - {invoke: create_player}\n", okAssert), "args is required"},
		{"unknown case", base("  - {invoke: create_player, args: {}, expect: {case: Maybe}}\n", okAssert), `unknown case "Maybe"`},
		{"empty case", base("  - {invoke: create_player, args: {}, expect: {code: DUPLICATE}}\n", okAssert), "case is required"},
		{"unknown setup action", "name: x\ndescription: x\nsetup:\n  - {action: teleport, args: {}}\nflow:\n" + okFlow + "assertions:\n" + okAssert, `setup[0]: unknown action`},
		{"unknown assertion", base(okFlow, "  - {type: final_state}\n"), `unknown assertion type "final_state"`},
		{"lineup without period", base(okFlow, "  - {type: lineup, empty: 3}\n"), "period is required"},
		{"playtime with game and team", base(okFlow, "  - {type: playtime, game: g, team: t, player: p}\n"), "exactly one of game and team"},
		{"playtime without player", base(okFlow, "  - {type: playtime, game: g}\n"), "player is required"},
		{"negative count", base(okFlow, "  - {type: trace_count, action: x, count: -1}\n"), "count must be non-negative"},
		{"order without actions", base(okFlow, "  - {type: trace_order}\n"), "actions list is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTestdataScenarios_AllLoad(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	for _, path := range paths {
		_, err := LoadScenario(path)
		assert.NoError(t, err, path)
	}
}

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
