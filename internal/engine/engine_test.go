package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rbolet/every-player/internal/model"
	"github.com/rbolet/every-player/internal/store"
	"github.com/rbolet/every-player/internal/testutil"
)

func TestNew_ResumesSequenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "everyplayer.db")
	ctx := context.Background()

	s, err := store.Open(path)
	require.NoError(t, err)
	e, err := New(s, WithClock(testutil.NewDeterministicClock()))
	require.NoError(t, err)
	seedCatalog(t, e)
	seedRoster(t, e)
	g, err := e.CreateGame(ctx, GameInput{HomeTeamID: fxTeam, OpponentName: model.Ptr("Violet Vampires"), DateTime: kickoff})
	require.NoError(t, err)
	periods, err := e.CreatePeriods(ctx, g.ID)
	require.NoError(t, err)
	_, err = e.CreateEmptySlots(ctx, periods[0].ID)
	require.NoError(t, err)
	last := e.seq.Current()
	require.Equal(t, int64(10), last)
	require.NoError(t, s.Close())

	s, err = store.Open(path)
	require.NoError(t, err)
	defer s.Close()
	e, err = New(s)
	require.NoError(t, err)
	assert.Equal(t, last, e.seq.Current(), "sequence resumes from the stored maximum")

	rows, err := e.CreateEmptySlots(ctx, periods[1].ID)
	require.NoError(t, err)
	require.Len(t, rows, 10)
	assert.Equal(t, last+1, rows[0].Seq)
}

func TestEngine_LogsRejections(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e, err := New(testutil.NewStore(t),
		WithClock(testutil.NewDeterministicClock()),
		WithIDGenerator(testutil.NewSequentialIDs("id")),
		WithLogger(zap.New(core)),
	)
	require.NoError(t, err)
	seedCatalog(t, e)

	_, err = e.CreateFormation(context.Background(), FormationInput{Name: "2-3-1", PlayersCount: 7})
	require.Error(t, err)

	rejected := logs.FilterMessage("create formation rejected").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, zapcore.InfoLevel, rejected[0].Level)
	fields := rejected[0].ContextMap()
	assert.Equal(t, "conflict", fields["kind"])
	assert.Equal(t, "DUPLICATE", fields["code"])

	assert.NotEmpty(t, logs.FilterMessage("create division").FilterLevelExact(zapcore.DebugLevel).All())
}

func TestWithLogger_IgnoresNil(t *testing.T) {
	e, err := New(testutil.NewStore(t), WithLogger(nil))
	require.NoError(t, err)
	assert.NotNil(t, e.log)
}

func TestEngine_CanceledContext(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.CreateDivision(ctx, DivisionInput{Name: "U10", PlayersCount: 7, RosterMax: 10})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, model.Kind(err))
}
