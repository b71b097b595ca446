package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbolet/every-player/internal/model"
	"github.com/rbolet/every-player/internal/testutil"
)

const (
	fxDivision  = "div_u10"
	fxLeague    = "league_u10_girls"
	fxSeason    = "season_fall_2025"
	fxFormation = "formation_2_3_1"
	fxTeam      = "team_teal_penguins"
	fxGame      = "game_future_1"
	fxSweeper   = "pos_sweeper"
)

// fxPositions are the 2-3-1 positions in display order.
var fxPositions = []struct {
	id, abbr string
	typ      model.PositionType
}{
	{"pos_gk", "GK", model.PositionGK},
	{"pos_def_1", "D", model.PositionDEF},
	{"pos_def_2", "D2", model.PositionDEF},
	{"pos_mid_1", "M", model.PositionMID},
	{"pos_mid_2", "M2", model.PositionMID},
	{"pos_mid_3", "M3", model.PositionMID},
	{"pos_fwd", "F", model.PositionFWD},
}

// fxPlayers are in jersey order: fxPlayers[i] wears i+2.
var fxPlayers = []struct {
	id, name  string
	birthdate time.Time
}{
	{"player_emma", "Emma Thompson", date(2016, 3, 15)},
	{"player_olivia", "Olivia Martinez", date(2016, 7, 22)},
	{"player_ava", "Ava Johnson", date(2016, 11, 8)},
	{"player_sophia", "Sophia Davis", date(2017, 1, 30)},
	{"player_isabella", "Isabella Garcia", date(2017, 5, 12)},
	{"player_mia", "Mia Rodriguez", date(2016, 9, 25)},
	{"player_charlotte", "Charlotte Wilson", date(2016, 12, 3)},
	{"player_amelia", "Amelia Brown", date(2017, 4, 17)},
	{"player_harper", "Harper Lee", date(2016, 8, 9)},
	{"player_evelyn", "Evelyn Taylor", date(2017, 2, 28)},
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(testutil.NewStore(t),
		WithClock(testutil.NewDeterministicClock()),
		WithIDGenerator(testutil.NewSequentialIDs("id")),
	)
	require.NoError(t, err)
	return e
}

// fixture is the seeded U10 world.
type fixture struct {
	e       *Engine
	periods []model.GamePeriod
}

func (f *fixture) period(n int) string {
	return f.periods[n-1].ID
}

// seedCatalog creates the division, league, season, positions and a
// complete 2-3-1 formation.
func seedCatalog(t *testing.T, e *Engine) {
	t.Helper()
	ctx := context.Background()

	_, err := e.CreateDivision(ctx, DivisionInput{ID: fxDivision, Name: "U10", PlayersCount: 7, RosterMax: 10})
	require.NoError(t, err)
	_, err = e.CreateLeague(ctx, LeagueInput{ID: fxLeague, DivisionID: fxDivision, Name: "U10 Girls"})
	require.NoError(t, err)
	_, err = e.CreateSeason(ctx, SeasonInput{ID: fxSeason, LeagueID: fxLeague, Name: "Fall 2025"})
	require.NoError(t, err)

	for i, p := range fxPositions {
		_, err := e.CreatePosition(ctx, PositionInput{
			ID: p.id, Name: p.abbr, Abbreviation: p.abbr, Type: string(p.typ), DisplayOrder: i + 1,
		})
		require.NoError(t, err)
	}
	_, err = e.CreatePosition(ctx, PositionInput{ID: fxSweeper, Name: "Sweeper", Abbreviation: "SW", Type: "DEF", DisplayOrder: 8})
	require.NoError(t, err)

	_, err = e.CreateFormation(ctx, FormationInput{ID: fxFormation, Name: "2-3-1", PlayersCount: 7})
	require.NoError(t, err)
	for i, p := range fxPositions {
		_, err := e.AttachPosition(ctx, fxFormation, p.id, i+1)
		require.NoError(t, err)
	}
}

// seedRoster creates the team and its ten numbered players.
func seedRoster(t *testing.T, e *Engine) {
	t.Helper()
	ctx := context.Background()

	_, err := e.CreateTeam(ctx, TeamInput{
		ID: fxTeam, SeasonID: fxSeason, Name: "Teal Penguins", Color: "cyan", DefaultFormationID: fxFormation,
	})
	require.NoError(t, err)
	for i, p := range fxPlayers {
		_, err := e.CreatePlayer(ctx, PlayerInput{ID: p.id, Name: p.name, Birthdate: p.birthdate})
		require.NoError(t, err)
		_, err = e.AddPlayerToTeam(ctx, fxTeam, p.id, model.Ptr(i+2))
		require.NoError(t, err)
	}
}

// seedWorld builds the catalog, roster, one game against an external
// opponent and its four periods, each topped up with empty slots.
func seedWorld(t *testing.T) *fixture {
	t.Helper()
	e := newTestEngine(t)
	seedCatalog(t, e)
	seedRoster(t, e)

	ctx := context.Background()
	_, err := e.CreateGame(ctx, GameInput{
		ID:           fxGame,
		HomeTeamID:   fxTeam,
		OpponentName: model.Ptr("Violet Vampires"),
		DateTime:     time.Date(2025, 11, 15, 10, 0, 0, 0, time.UTC),
		Location:     "Field 3",
	})
	require.NoError(t, err)
	periods, err := e.CreatePeriods(ctx, fxGame)
	require.NoError(t, err)
	for _, p := range periods {
		_, err := e.CreateEmptySlots(ctx, p.ID)
		require.NoError(t, err)
	}
	return &fixture{e: e, periods: periods}
}

func (f *fixture) assign(t *testing.T, periodID, playerID, positionID string) model.GamePlayerAssignment {
	t.Helper()
	in := AssignInput{PeriodID: periodID, PlayerID: model.Ptr(playerID)}
	if positionID != "" {
		in.PositionID = model.Ptr(positionID)
	}
	a, err := f.e.Assign(context.Background(), in)
	require.NoError(t, err)
	return a
}

// playPeriod places field[i] at the i-th formation position, puts bench on
// the bench and finalizes the period.
func (f *fixture) playPeriod(t *testing.T, n int, field, bench []string) {
	t.Helper()
	for i, id := range field {
		f.assign(t, f.period(n), id, fxPositions[i].id)
	}
	for _, id := range bench {
		f.assign(t, f.period(n), id, "")
	}
	_, err := f.e.SetPeriodStatus(context.Background(), f.period(n), model.GameActual)
	require.NoError(t, err)
}

func conflictCode(t *testing.T, err error) model.ConflictCode {
	t.Helper()
	var ce *model.ConflictError
	require.ErrorAs(t, err, &ce)
	return ce.Code
}
