package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbolet/every-player/internal/model"
)

func TestAssign_FillsOldestEmptySlot(t *testing.T) {
	f := seedWorld(t)

	before, err := f.e.Lineup(context.Background(), f.period(1))
	require.NoError(t, err)

	a := f.assign(t, f.period(1), "player_emma", "pos_gk")
	assert.Equal(t, before.Empty[0].ID, a.ID)
	assert.Equal(t, model.AssignmentProjected, a.Status)

	b := f.assign(t, f.period(1), "player_olivia", "")
	assert.Equal(t, before.Empty[1].ID, b.ID)
	assert.True(t, b.OnBench())
}

func TestAssign_SamePlayerTwoPositions(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	f.assign(t, f.period(1), "player_emma", "pos_gk")
	_, err := f.e.Assign(ctx, AssignInput{PeriodID: f.period(1), PlayerID: model.Ptr("player_emma"), PositionID: model.Ptr("pos_fwd")})
	require.Error(t, err)
	assert.Equal(t, model.ConflictPlayerDoubleBooked, conflictCode(t, err))

	var ce *model.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, f.period(1), ce.PeriodID)
	assert.Contains(t, ce.IDs, "player_emma")

	l, err := f.e.Lineup(ctx, f.period(1))
	require.NoError(t, err)
	assert.Equal(t, 1, l.Filled(), "the rejected write changed nothing")
	assert.Len(t, l.Empty, 9)
}

func TestAssign_PeriodsAreIndependent(t *testing.T) {
	f := seedWorld(t)

	for n := 1; n <= 4; n++ {
		f.assign(t, f.period(n), "player_emma", "pos_gk")
	}
	for n := 1; n <= 4; n++ {
		l, err := f.e.Lineup(context.Background(), f.period(n))
		require.NoError(t, err)
		require.NotNil(t, l.Field[0].Assignment)
		assert.Equal(t, "player_emma", *l.Field[0].Assignment.PlayerID)
	}
}

func TestAssign_ReplacesPositionOccupant(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	gk := f.assign(t, f.period(1), "player_emma", "pos_gk")
	replaced := f.assign(t, f.period(1), "player_olivia", "pos_gk")
	assert.Equal(t, gk.ID, replaced.ID, "the row holding the position is reused")

	l, err := f.e.Lineup(ctx, f.period(1))
	require.NoError(t, err)
	assert.Equal(t, "player_olivia", *l.Field[0].Assignment.PlayerID)
	assert.Len(t, l.Empty, 9, "emma left the period entirely")
}

func TestAssign_PromotesBenchPlayer(t *testing.T) {
	f := seedWorld(t)

	bench := f.assign(t, f.period(1), "player_ava", "")
	promoted := f.assign(t, f.period(1), "player_ava", "pos_mid_2")
	assert.Equal(t, bench.ID, promoted.ID)
	assert.Equal(t, "pos_mid_2", *promoted.PositionID)
}

func TestAssign_ByAssignmentID(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	a := f.assign(t, f.period(1), "player_emma", "pos_gk")
	moved, err := f.e.Assign(ctx, AssignInput{
		PeriodID: f.period(1), AssignmentID: a.ID, PlayerID: model.Ptr("player_emma"), PositionID: model.Ptr("pos_fwd"),
	})
	require.NoError(t, err)
	assert.Equal(t, a.ID, moved.ID)

	cleared, err := f.e.Assign(ctx, AssignInput{PeriodID: f.period(1), AssignmentID: a.ID})
	require.NoError(t, err)
	assert.True(t, cleared.IsEmpty())

	other := f.assign(t, f.period(2), "player_olivia", "")
	_, err = f.e.Assign(ctx, AssignInput{PeriodID: f.period(1), AssignmentID: other.ID, PlayerID: model.Ptr("player_olivia")})
	assert.True(t, model.IsReferential(err), "rows of another period are not addressable: %v", err)
}

func TestAssign_Rejections(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	_, err := f.e.CreatePlayer(ctx, PlayerInput{ID: "player_guest", Name: "Guest", Birthdate: date(2016, 1, 1)})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   AssignInput
		code model.ConflictCode
	}{
		{
			name: "not on roster",
			in:   AssignInput{PlayerID: model.Ptr("player_guest"), PositionID: model.Ptr("pos_gk")},
			code: model.ConflictNotOnRoster,
		},
		{
			name: "position outside formation",
			in:   AssignInput{PlayerID: model.Ptr("player_emma"), PositionID: model.Ptr(fxSweeper)},
			code: model.ConflictFormationMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.PeriodID = f.period(1)
			_, err := f.e.Assign(ctx, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.code, conflictCode(t, err))
		})
	}

	_, err = f.e.Assign(ctx, AssignInput{PeriodID: f.period(1), PlayerID: model.Ptr("player_nobody")})
	assert.True(t, model.IsReferential(err), "got %v", err)

	_, err = f.e.Assign(ctx, AssignInput{PeriodID: f.period(1), PlayerID: model.Ptr("player_emma"), Status: "INJURED"})
	assert.True(t, model.IsValidation(err), "got %v", err)

	_, err = f.e.Assign(ctx, AssignInput{PeriodID: f.period(1), Status: model.AssignmentAbsent})
	assert.True(t, model.IsValidation(err), "ABSENT needs a player: %v", err)

	_, err = f.e.Assign(ctx, AssignInput{PeriodID: "period_missing", PlayerID: model.Ptr("player_emma")})
	assert.True(t, model.IsReferential(err), "got %v", err)
}

func TestAssign_SlotBudget(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	for i, p := range fxPlayers {
		pos := ""
		if i < len(fxPositions) {
			pos = fxPositions[i].id
		}
		f.assign(t, f.period(1), p.id, pos)
	}

	l, err := f.e.Lineup(ctx, f.period(1))
	require.NoError(t, err)
	assert.Equal(t, 7, l.Filled())
	assert.Len(t, l.Bench, 3)
	assert.Empty(t, l.Empty)

	_, err = f.e.Assign(ctx, AssignInput{PeriodID: f.period(1)})
	assert.Equal(t, model.ConflictSlotBudget, conflictCode(t, err))
}

func TestAssign_AbsentPlayer(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	_, err := f.e.MarkAbsent(ctx, fxGame, "player_mia")
	require.NoError(t, err)

	_, err = f.e.Assign(ctx, AssignInput{PeriodID: f.period(1), PlayerID: model.Ptr("player_mia"), PositionID: model.Ptr("pos_gk")})
	assert.Equal(t, model.ConflictPlayerAbsent, conflictCode(t, err))

	a, err := f.e.Assign(ctx, AssignInput{
		PeriodID: f.period(1), PlayerID: model.Ptr("player_mia"), PositionID: model.Ptr("pos_gk"), Status: model.AssignmentAbsent,
	})
	require.NoError(t, err, "an absent player may hold an ABSENT row")
	assert.Nil(t, a.PositionID, "ABSENT rows drop the position")
	assert.Equal(t, model.AssignmentAbsent, a.Status)

	b := f.assign(t, f.period(1), "player_emma", "pos_gk")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestAssign_ActualPeriodRowsAreFinal(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	a := f.assign(t, f.period(1), "player_emma", "pos_gk")
	_, err := f.e.SetPeriodStatus(ctx, f.period(1), model.GameActual)
	require.NoError(t, err)

	_, err = f.e.Assign(ctx, AssignInput{
		PeriodID: f.period(1), AssignmentID: a.ID, PlayerID: model.Ptr("player_emma"), PositionID: model.Ptr("pos_fwd"),
	})
	assert.Equal(t, model.ConflictStatusTransition, conflictCode(t, err))

	corrected, err := f.e.Assign(ctx, AssignInput{
		PeriodID: f.period(1), AssignmentID: a.ID, PlayerID: model.Ptr("player_emma"),
		PositionID: model.Ptr("pos_fwd"), Status: model.AssignmentActual,
	})
	require.NoError(t, err, "an ACTUAL row may be corrected in place")
	assert.Equal(t, "pos_fwd", *corrected.PositionID)
}

func TestSwapPlayers(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	gk := f.assign(t, f.period(1), "player_emma", "pos_gk")
	bench := f.assign(t, f.period(1), "player_olivia", "")

	a, b, err := f.e.SwapPlayers(ctx, f.period(1), gk.ID, bench.ID)
	require.NoError(t, err)
	assert.Equal(t, "player_olivia", *a.PlayerID)
	assert.Equal(t, "pos_gk", *a.PositionID, "positions stay with their rows")
	assert.Equal(t, "player_emma", *b.PlayerID)
	assert.Nil(t, b.PositionID)

	l, err := f.e.Lineup(ctx, f.period(1))
	require.NoError(t, err)
	assert.Equal(t, "player_olivia", *l.Field[0].Assignment.PlayerID)
	require.Len(t, l.Bench, 1)
	assert.Equal(t, "player_emma", *l.Bench[0].PlayerID)
}

func TestSwapPlayers_WithEmptySlot(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	before, err := f.e.Lineup(ctx, f.period(1))
	require.NoError(t, err)
	gk := f.assign(t, f.period(1), "player_emma", "pos_gk")
	empty := before.Empty[len(before.Empty)-1]

	a, b, err := f.e.SwapPlayers(ctx, f.period(1), gk.ID, empty.ID)
	require.NoError(t, err)
	assert.Nil(t, a.PlayerID)
	assert.Equal(t, "player_emma", *b.PlayerID)
}

func TestSwapPlayers_Rejections(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	gk := f.assign(t, f.period(1), "player_emma", "pos_gk")
	other := f.assign(t, f.period(2), "player_olivia", "pos_gk")

	_, _, err := f.e.SwapPlayers(ctx, f.period(1), gk.ID, gk.ID)
	assert.True(t, model.IsValidation(err), "got %v", err)

	_, _, err = f.e.SwapPlayers(ctx, f.period(1), gk.ID, other.ID)
	assert.True(t, model.IsReferential(err), "cross-period swaps are rejected: %v", err)

	_, err = f.e.MarkAbsent(ctx, fxGame, "player_ava")
	require.NoError(t, err)
	absent, err := f.e.Assign(ctx, AssignInput{PeriodID: f.period(1), PlayerID: model.Ptr("player_ava"), Status: model.AssignmentAbsent})
	require.NoError(t, err)

	_, _, err = f.e.SwapPlayers(ctx, f.period(1), gk.ID, absent.ID)
	assert.Equal(t, model.ConflictPlayerAbsent, conflictCode(t, err), "ava cannot take the goalkeeper row")
}

func TestSwapPlayers_AbsentRowStays(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	bench := f.assign(t, f.period(1), "player_emma", "")
	absent := f.assign(t, f.period(1), "player_ava", "")
	_, err := f.e.MarkAbsent(ctx, fxGame, "player_ava")
	require.NoError(t, err)
	require.NoError(t, f.e.ClearAbsence(ctx, fxGame, "player_ava"))

	_, _, err = f.e.SwapPlayers(ctx, f.period(1), bench.ID, absent.ID)
	assert.Equal(t, model.ConflictPlayerAbsent, conflictCode(t, err))

	l, err := f.e.Lineup(ctx, f.period(1))
	require.NoError(t, err)
	require.Len(t, l.Bench, 1)
	assert.Equal(t, "player_emma", *l.Bench[0].PlayerID)
	require.Len(t, l.Absent, 1)
	assert.Equal(t, "player_ava", *l.Absent[0].PlayerID)
}

// Concurrent writers to one period never break its occupancy rules.
func TestAssign_ConcurrentSamePosition(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, len(fxPlayers))
	for i, p := range fxPlayers {
		wg.Add(1)
		go func(i int, playerID string) {
			defer wg.Done()
			_, errs[i] = f.e.Assign(ctx, AssignInput{
				PeriodID: f.period(1), PlayerID: model.Ptr(playerID), PositionID: model.Ptr("pos_gk"),
			})
		}(i, p.id)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err, "each write replaces the goalkeeper")
	}
	l, err := f.e.Lineup(ctx, f.period(1))
	require.NoError(t, err)
	assert.Equal(t, 1, l.Filled())
	assert.Len(t, l.Empty, 9)
}

func TestAssign_ConcurrentSamePlayer(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, len(fxPositions))
	for i, p := range fxPositions {
		wg.Add(1)
		go func(i int, positionID string) {
			defer wg.Done()
			_, errs[i] = f.e.Assign(ctx, AssignInput{
				PeriodID: f.period(1), PlayerID: model.Ptr("player_emma"), PositionID: model.Ptr(positionID),
			})
		}(i, p.id)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, model.IsConflictCode(err, model.ConflictPlayerDoubleBooked), "got %v", err)
	}
	assert.Equal(t, 1, ok, "exactly one position wins")

	l, err := f.e.Lineup(ctx, f.period(1))
	require.NoError(t, err)
	assert.Equal(t, 1, l.Filled())
}
