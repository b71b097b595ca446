package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbolet/every-player/internal/model"
)

var kickoff = time.Date(2025, 11, 15, 10, 0, 0, 0, time.UTC)

func TestCreateGame_OpponentRule(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	seedCatalog(t, e)
	seedRoster(t, e)

	_, err := e.CreateTeam(ctx, TeamInput{ID: "team_violet", SeasonID: fxSeason, Name: "Violet Vampires", Color: "purple", DefaultFormationID: fxFormation})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   GameInput
	}{
		{"neither", GameInput{HomeTeamID: fxTeam, DateTime: kickoff}},
		{"both", GameInput{HomeTeamID: fxTeam, AwayTeamID: model.Ptr("team_violet"), OpponentName: model.Ptr("Violet Vampires"), DateTime: kickoff}},
		{"plays itself", GameInput{HomeTeamID: fxTeam, AwayTeamID: model.Ptr(fxTeam), DateTime: kickoff}},
		{"blank opponent", GameInput{HomeTeamID: fxTeam, OpponentName: model.Ptr(" "), DateTime: kickoff}},
		{"no kickoff", GameInput{HomeTeamID: fxTeam, OpponentName: model.Ptr("Violet Vampires")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.CreateGame(ctx, tt.in)
			assert.True(t, model.IsValidation(err), "got %v", err)
		})
	}

	g, err := e.CreateGame(ctx, GameInput{HomeTeamID: fxTeam, AwayTeamID: model.Ptr("team_violet"), DateTime: kickoff})
	require.NoError(t, err)
	assert.Equal(t, 4, g.PlannedPeriods)
	assert.Equal(t, model.GameProjected, g.Status)
	assert.Nil(t, g.OpponentName)

	games, err := e.ListGames(ctx, "team_violet")
	require.NoError(t, err)
	require.Len(t, games, 1, "away games are listed for the away team")
	assert.Equal(t, g.ID, games[0].ID)
}

func TestCreateGame_FormationOverride(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	seedCatalog(t, e)
	seedRoster(t, e)

	_, err := e.CreateFormation(ctx, FormationInput{ID: "formation_9", Name: "3-3-2", PlayersCount: 9})
	require.NoError(t, err)

	_, err = e.CreateGame(ctx, GameInput{
		HomeTeamID: fxTeam, OpponentName: model.Ptr("X"), DateTime: kickoff, FormationID: model.Ptr("formation_9"),
	})
	assert.True(t, model.IsConflictCode(err, model.ConflictFormationMismatch), "got %v", err)

	_, err = e.CreateGame(ctx, GameInput{HomeTeamID: "team_missing", OpponentName: model.Ptr("X"), DateTime: kickoff})
	assert.True(t, model.IsReferential(err), "got %v", err)
}

func TestCreatePeriods_Idempotent(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	require.Len(t, f.periods, 4)
	for i, p := range f.periods {
		assert.Equal(t, i+1, p.PeriodNumber)
		assert.Equal(t, model.GameProjected, p.Status)
	}

	again, err := f.e.CreatePeriods(ctx, fxGame)
	require.NoError(t, err)
	assert.Equal(t, f.periods, again)
}

func TestAddPeriod(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	_, err := f.e.AddPeriod(ctx, fxGame, 2)
	assert.True(t, model.IsConflictCode(err, model.ConflictDuplicate), "got %v", err)

	_, err = f.e.AddPeriod(ctx, fxGame, 0)
	assert.True(t, model.IsValidation(err), "got %v", err)

	ot, err := f.e.AddPeriod(ctx, fxGame, 5)
	require.NoError(t, err, "overtime periods are allowed")
	assert.Equal(t, 5, ot.PeriodNumber)

	periods, err := f.e.ListPeriods(ctx, fxGame)
	require.NoError(t, err)
	assert.Len(t, periods, 5)
}

// Four periods get ten empty slots each, and topping up again adds nothing.
func TestCreateEmptySlots_FillsBudget(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	for n := 1; n <= 4; n++ {
		rows, err := f.e.CreateEmptySlots(ctx, f.period(n))
		require.NoError(t, err)
		require.Len(t, rows, 10)
		for _, r := range rows {
			assert.True(t, r.IsEmpty(), "row %s", r.ID)
			assert.Equal(t, model.AssignmentProjected, r.Status)
		}
	}

	l, err := f.e.Lineup(ctx, f.period(1))
	require.NoError(t, err)
	assert.Equal(t, 10, l.Budget)
	assert.Len(t, l.Empty, 10)
	assert.Len(t, l.Field, 7)
	assert.Zero(t, l.Filled())
}

func TestStatusTransitions(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	g, err := f.e.SetGameStatus(ctx, fxGame, model.GameActual)
	require.NoError(t, err)
	assert.Equal(t, model.GameActual, g.Status)

	_, err = f.e.SetGameStatus(ctx, fxGame, model.GameActual)
	assert.NoError(t, err, "repeating the current status is a no-op")

	_, err = f.e.SetGameStatus(ctx, fxGame, model.GameProjected)
	assert.True(t, model.IsConflictCode(err, model.ConflictStatusTransition), "got %v", err)

	_, err = f.e.SetGameStatus(ctx, fxGame, model.GameStatus("FINAL"))
	assert.True(t, model.IsValidation(err), "got %v", err)

	_, err = f.e.SetPeriodStatus(ctx, f.period(1), model.GameActual)
	require.NoError(t, err)
	_, err = f.e.SetPeriodStatus(ctx, f.period(1), model.GameProjected)
	assert.True(t, model.IsConflictCode(err, model.ConflictStatusTransition), "got %v", err)
}

func TestSetPeriodStatus_FinalizesLineup(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	gk := f.assign(t, f.period(1), "player_emma", "pos_gk")
	bench := f.assign(t, f.period(1), "player_olivia", "")

	_, err := f.e.SetPeriodStatus(ctx, f.period(1), model.GameActual)
	require.NoError(t, err)

	l, err := f.e.Lineup(ctx, f.period(1))
	require.NoError(t, err)
	assert.Equal(t, model.GameActual, l.Period.Status)
	require.NotNil(t, l.Field[0].Assignment)
	assert.Equal(t, gk.ID, l.Field[0].Assignment.ID)
	assert.Equal(t, model.AssignmentActual, l.Field[0].Assignment.Status)
	require.Len(t, l.Bench, 1)
	assert.Equal(t, bench.ID, l.Bench[0].ID)
	assert.Equal(t, model.AssignmentActual, l.Bench[0].Status)
	for _, r := range l.Empty {
		assert.Equal(t, model.AssignmentProjected, r.Status, "empty slots stay projected")
	}
}

func TestMarkAbsent_FlipsEveryPeriod(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	f.assign(t, f.period(1), "player_emma", "pos_gk")
	f.assign(t, f.period(2), "player_emma", "")
	f.assign(t, f.period(3), "player_olivia", "pos_gk")

	_, err := f.e.MarkAbsent(ctx, fxGame, "player_emma")
	require.NoError(t, err)

	for n, wantAbsent := range map[int]bool{1: true, 2: true, 3: false, 4: false} {
		l, err := f.e.Lineup(ctx, f.period(n))
		require.NoError(t, err)
		if !wantAbsent {
			assert.Empty(t, l.Absent, "period %d", n)
			continue
		}
		require.Len(t, l.Absent, 1, "period %d", n)
		assert.Equal(t, "player_emma", *l.Absent[0].PlayerID)
		assert.Nil(t, l.Absent[0].PositionID, "absent rows release their position")
	}

	l, err := f.e.Lineup(ctx, f.period(1))
	require.NoError(t, err)
	assert.Nil(t, l.Field[0].Assignment, "the goalkeeper slot is open again")

	_, err = f.e.MarkAbsent(ctx, fxGame, "player_emma")
	assert.True(t, model.IsConflictCode(err, model.ConflictDuplicate), "got %v", err)

	absences, err := f.e.ListAbsences(ctx, fxGame)
	require.NoError(t, err)
	assert.Len(t, absences, 1)
}

func TestMarkAbsent_NotOnRoster(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	_, err := f.e.CreatePlayer(ctx, PlayerInput{ID: "player_guest", Name: "Guest", Birthdate: date(2016, 1, 1)})
	require.NoError(t, err)
	_, err = f.e.MarkAbsent(ctx, fxGame, "player_guest")
	assert.True(t, model.IsConflictCode(err, model.ConflictNotOnRoster), "got %v", err)

	_, err = f.e.MarkAbsent(ctx, "game_missing", "player_emma")
	assert.True(t, model.IsReferential(err), "got %v", err)
}

func TestClearAbsence_KeepsAbsentRows(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	f.assign(t, f.period(1), "player_emma", "pos_gk")
	_, err := f.e.MarkAbsent(ctx, fxGame, "player_emma")
	require.NoError(t, err)
	require.NoError(t, f.e.ClearAbsence(ctx, fxGame, "player_emma"))

	l, err := f.e.Lineup(ctx, f.period(1))
	require.NoError(t, err)
	require.Len(t, l.Absent, 1)

	a := f.assign(t, f.period(1), "player_emma", "pos_fwd")
	assert.Equal(t, l.Absent[0].ID, a.ID, "the player's own row is reused")
	assert.Equal(t, model.AssignmentProjected, a.Status)

	err = f.e.ClearAbsence(ctx, fxGame, "player_emma")
	assert.True(t, model.IsReferential(err), "got %v", err)
}

func TestSetGameFormation(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	_, err := f.e.CreateFormation(ctx, FormationInput{ID: "formation_3_2_1", Name: "3-2-1", PlayersCount: 7})
	require.NoError(t, err)
	for i, p := range []string{"pos_gk", "pos_def_1", "pos_def_2", fxSweeper, "pos_mid_1", "pos_mid_2", "pos_fwd"} {
		_, err := f.e.AttachPosition(ctx, "formation_3_2_1", p, i+1)
		require.NoError(t, err)
	}

	emma := f.assign(t, f.period(2), "player_emma", "pos_mid_3")
	_, err = f.e.SetGameFormation(ctx, fxGame, model.Ptr("formation_3_2_1"))
	assert.True(t, model.IsConflictCode(err, model.ConflictFormationMismatch), "M3 is not in 3-2-1: %v", err)

	_, err = f.e.Assign(ctx, AssignInput{
		PeriodID: f.period(2), AssignmentID: emma.ID, PlayerID: model.Ptr("player_emma"), PositionID: model.Ptr("pos_mid_1"),
	})
	require.NoError(t, err)
	g, err := f.e.SetGameFormation(ctx, fxGame, model.Ptr("formation_3_2_1"))
	require.NoError(t, err)
	assert.Equal(t, "formation_3_2_1", *g.FormationID)

	f.assign(t, f.period(1), "player_olivia", fxSweeper)

	_, err = f.e.SetGameFormation(ctx, fxGame, nil)
	assert.True(t, model.IsConflictCode(err, model.ConflictFormationMismatch), "sweeper is not in the team default: %v", err)
}
