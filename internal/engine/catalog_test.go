package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbolet/every-player/internal/model"
)

func TestCreateDivision_Validation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    DivisionInput
		field string
	}{
		{"blank name", DivisionInput{Name: "  ", PlayersCount: 7, RosterMax: 10}, "name"},
		{"zero players", DivisionInput{Name: "U6", RosterMax: 10}, "playersCount"},
		{"roster below field size", DivisionInput{Name: "U10", PlayersCount: 7, RosterMax: 6}, "rosterMax"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.CreateDivision(ctx, tt.in)
			require.Error(t, err)
			var ve *model.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}

	divs, err := e.ListDivisions(ctx)
	require.NoError(t, err)
	assert.Empty(t, divs, "rejected inputs write nothing")
}

func TestCreateDivision_GeneratesID(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	d, err := e.CreateDivision(ctx, DivisionInput{Name: " U8 ", PlayersCount: 5, RosterMax: 8, NoGK: true})
	require.NoError(t, err)
	assert.Equal(t, "id-0001", d.ID)
	assert.Equal(t, "U8", d.Name)
	assert.Equal(t, 3, d.BenchCapacity())

	got, err := e.GetDivision(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestCreateLeague_UnknownDivision(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.CreateLeague(context.Background(), LeagueInput{DivisionID: "missing", Name: "X"})
	assert.True(t, model.IsReferential(err), "got %v", err)
}

func TestCreatePosition_Validation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreatePosition(ctx, PositionInput{Name: "Libero", Abbreviation: "L", Type: "SWEEPER", DisplayOrder: 1})
	assert.True(t, model.IsValidation(err), "unknown type: %v", err)

	_, err = e.CreatePosition(ctx, PositionInput{Name: "Keeper", Abbreviation: "GK", Type: "GK", DisplayOrder: 1})
	require.NoError(t, err)
	_, err = e.CreatePosition(ctx, PositionInput{Name: "Goalie", Abbreviation: "GK", Type: "GK", DisplayOrder: 2})
	assert.True(t, model.IsConflict(err), "abbreviations are unique: %v", err)
}

func TestCreateFormation_DuplicateAfterNormalization(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	first, err := e.CreateFormation(ctx, FormationInput{Name: "Diamond", PlayersCount: 7})
	require.NoError(t, err)

	_, err = e.CreateFormation(ctx, FormationInput{Name: "  Diamond ", PlayersCount: 7})
	require.Error(t, err)
	assert.Equal(t, model.ConflictDuplicate, conflictCode(t, err))
	var ce *model.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{first.ID}, ce.IDs)

	_, err = e.CreateFormation(ctx, FormationInput{Name: "Diamond", PlayersCount: 7, NoGK: true})
	assert.NoError(t, err, "a different shape is a different formation")
	_, err = e.CreateFormation(ctx, FormationInput{Name: "Diamond", PlayersCount: 9})
	assert.NoError(t, err)
}

func TestCreateFormation_NFCNames(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreateFormation(ctx, FormationInput{Name: "Caf\u00e9", PlayersCount: 7})
	require.NoError(t, err)
	_, err = e.CreateFormation(ctx, FormationInput{Name: "Cafe\u0301", PlayersCount: 7})
	assert.True(t, model.IsConflictCode(err, model.ConflictDuplicate), "got %v", err)
}

func TestAttachPosition_Rules(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	seedCatalog(t, e)

	small, err := e.CreateFormation(ctx, FormationInput{ID: "formation_small", Name: "1-1", PlayersCount: 2})
	require.NoError(t, err)
	noGK, err := e.CreateFormation(ctx, FormationInput{ID: "formation_nogk", Name: "2-2", PlayersCount: 4, NoGK: true})
	require.NoError(t, err)

	_, err = e.AttachPosition(ctx, small.ID, "pos_def_1", 1)
	require.NoError(t, err)

	t.Run("display order taken", func(t *testing.T) {
		_, err := e.AttachPosition(ctx, small.ID, "pos_fwd", 1)
		assert.True(t, model.IsValidation(err), "got %v", err)
	})
	t.Run("position already attached", func(t *testing.T) {
		_, err := e.AttachPosition(ctx, small.ID, "pos_def_1", 2)
		assert.True(t, model.IsValidation(err), "got %v", err)
	})
	t.Run("formation full", func(t *testing.T) {
		_, err := e.AttachPosition(ctx, small.ID, "pos_fwd", 2)
		require.NoError(t, err)
		_, err = e.AttachPosition(ctx, small.ID, "pos_mid_1", 3)
		assert.True(t, model.IsValidation(err), "got %v", err)
	})
	t.Run("goalkeeper on noGk formation", func(t *testing.T) {
		_, err := e.AttachPosition(ctx, noGK.ID, "pos_gk", 1)
		assert.True(t, model.IsValidation(err), "got %v", err)
	})
	t.Run("unknown position", func(t *testing.T) {
		_, err := e.AttachPosition(ctx, noGK.ID, "pos_missing", 1)
		assert.True(t, model.IsReferential(err), "got %v", err)
	})
	t.Run("zero display order", func(t *testing.T) {
		_, err := e.AttachPosition(ctx, noGK.ID, "pos_fwd", 0)
		assert.True(t, model.IsValidation(err), "got %v", err)
	})
}

func TestIsFormationComplete(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	seedCatalog(t, e)

	complete, err := e.IsFormationComplete(ctx, fxFormation)
	require.NoError(t, err)
	assert.True(t, complete)

	require.NoError(t, e.DetachPosition(ctx, fxFormation, "pos_fwd"))
	complete, err = e.IsFormationComplete(ctx, fxFormation)
	require.NoError(t, err)
	assert.False(t, complete)

	fps, err := e.ListFormationPositions(ctx, fxFormation)
	require.NoError(t, err)
	require.Len(t, fps, 6)
	assert.Equal(t, "pos_gk", fps[0].PositionID)
}

func TestListCompatibleFormations(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	seedCatalog(t, e)

	_, err := e.CreateFormation(ctx, FormationInput{ID: "formation_nogk", Name: "2-3-2", PlayersCount: 7, NoGK: true})
	require.NoError(t, err)
	_, err = e.CreateFormation(ctx, FormationInput{ID: "formation_9", Name: "3-3-2", PlayersCount: 9})
	require.NoError(t, err)

	got, err := e.ListCompatibleFormations(ctx, fxDivision)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, fxFormation, got[0].ID)
}

func TestDetachPosition_PlacedPosition(t *testing.T) {
	f := seedWorld(t)
	ctx := context.Background()

	f.assign(t, f.period(1), "player_emma", "pos_gk")

	err := f.e.DetachPosition(ctx, fxFormation, "pos_gk")
	assert.Equal(t, model.ConflictInUse, conflictCode(t, err))

	slots, err := f.e.ListFormationPositions(ctx, fxFormation)
	require.NoError(t, err)
	assert.Len(t, slots, 7)

	require.NoError(t, f.e.DetachPosition(ctx, fxFormation, "pos_mid_3"))
	f.assign(t, f.period(1), "player_olivia", "pos_fwd")

	l, err := f.e.Lineup(ctx, f.period(1))
	require.NoError(t, err)
	assert.Len(t, l.Field, 6)
	assert.Equal(t, 2, l.Filled())
}
