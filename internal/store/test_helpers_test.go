package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbolet/every-player/internal/model"
)

var testNow = time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func update(t *testing.T, s *Store, fn func(*Tx) error) error {
	t.Helper()
	return s.Update(context.Background(), fn)
}

func mustUpdate(t *testing.T, s *Store, fn func(*Tx) error) {
	t.Helper()
	require.NoError(t, update(t, s, fn))
}

// fixture ids of seedFixture.
const (
	fxDivision  = "div_u10"
	fxLeague    = "league_u10"
	fxSeason    = "season_fall"
	fxFormation = "formation_2_3_1"
	fxTeam      = "team_home"
	fxAway      = "team_away"
	fxPlayer    = "player_1"
	fxPlayer2   = "player_2"
	fxPosition  = "pos_gk"
	fxPosition2 = "pos_d"
	fxGame      = "game_1"
	fxPeriod    = "period_1"
)

// seedFixture inserts one row of each entity, wired together.
func seedFixture(t *testing.T, s *Store) {
	t.Helper()
	c, u := testNow, testNow
	mustUpdate(t, s, func(tx *Tx) error {
		steps := []func() error{
			func() error {
				return tx.InsertDivision(model.Division{ID: fxDivision, Name: "U10", PlayersCount: 7, RosterMax: 10, CreatedAt: c, UpdatedAt: u})
			},
			func() error {
				return tx.InsertLeague(model.League{ID: fxLeague, DivisionID: fxDivision, Name: "U10 Girls", CreatedAt: c, UpdatedAt: u})
			},
			func() error {
				return tx.InsertSeason(model.Season{ID: fxSeason, LeagueID: fxLeague, Name: "Fall", CreatedAt: c, UpdatedAt: u})
			},
			func() error {
				return tx.InsertFormation(model.Formation{ID: fxFormation, Name: "2-3-1", PlayersCount: 7, CreatedAt: c, UpdatedAt: u}, "2-3-1")
			},
			func() error {
				return tx.InsertPosition(model.Position{ID: fxPosition, Name: "Goalkeeper", Abbreviation: "GK", Type: model.PositionGK, DisplayOrder: 1, CreatedAt: c, UpdatedAt: u})
			},
			func() error {
				return tx.InsertPosition(model.Position{ID: fxPosition2, Name: "Defender", Abbreviation: "D", Type: model.PositionDEF, DisplayOrder: 2, CreatedAt: c, UpdatedAt: u})
			},
			func() error {
				return tx.InsertFormationPosition(model.FormationPosition{ID: "fp_1", FormationID: fxFormation, PositionID: fxPosition, DisplayOrder: 1, CreatedAt: c, UpdatedAt: u})
			},
			func() error {
				return tx.InsertTeam(model.Team{ID: fxTeam, SeasonID: fxSeason, Name: "Teal Penguins", Color: "cyan", DefaultFormationID: fxFormation, CreatedAt: c, UpdatedAt: u})
			},
			func() error {
				return tx.InsertTeam(model.Team{ID: fxAway, SeasonID: fxSeason, Name: "Violet Vampires", Color: "violet", DefaultFormationID: fxFormation, CreatedAt: c, UpdatedAt: u})
			},
			func() error {
				return tx.InsertPlayer(model.Player{ID: fxPlayer, Name: "Emma Thompson", Birthdate: time.Date(2016, 3, 15, 0, 0, 0, 0, time.UTC), CreatedAt: c, UpdatedAt: u})
			},
			func() error {
				return tx.InsertPlayer(model.Player{ID: fxPlayer2, Name: "Olivia Martinez", Birthdate: time.Date(2016, 7, 22, 0, 0, 0, 0, time.UTC), CreatedAt: c, UpdatedAt: u})
			},
			func() error {
				return tx.InsertTeamPlayer(model.TeamPlayer{TeamID: fxTeam, PlayerID: fxPlayer, JerseyNumber: model.Ptr(2), CreatedAt: c, UpdatedAt: u})
			},
			func() error {
				return tx.InsertTeamPlayer(model.TeamPlayer{TeamID: fxTeam, PlayerID: fxPlayer2, CreatedAt: c, UpdatedAt: u})
			},
			func() error {
				return tx.InsertGame(model.Game{ID: fxGame, HomeTeamID: fxTeam, AwayTeamID: model.Ptr(fxAway), PlannedPeriods: 4, DateTime: testNow, Status: model.GameProjected, CreatedAt: c, UpdatedAt: u})
			},
			func() error {
				return tx.InsertPeriod(model.GamePeriod{ID: fxPeriod, GameID: fxGame, PeriodNumber: 1, Status: model.GameProjected, CreatedAt: c, UpdatedAt: u})
			},
			func() error {
				return tx.InsertAbsence(model.GamePlayerAbsence{ID: "abs_1", GameID: fxGame, PlayerID: fxPlayer2, CreatedAt: c, UpdatedAt: u})
			},
			func() error {
				return tx.InsertAssignment(model.GamePlayerAssignment{ID: "asg_1", GamePeriodID: fxPeriod, PlayerID: model.Ptr(fxPlayer), PositionID: model.Ptr(fxPosition), Status: model.AssignmentProjected, Seq: 1, CreatedAt: c, UpdatedAt: u})
			},
			func() error {
				return tx.InsertAssignment(model.GamePlayerAssignment{ID: "asg_2", GamePeriodID: fxPeriod, PlayerID: model.Ptr(fxPlayer2), Status: model.AssignmentAbsent, Seq: 2, CreatedAt: c, UpdatedAt: u})
			},
			func() error {
				return tx.InsertAssignment(model.GamePlayerAssignment{ID: "asg_3", GamePeriodID: fxPeriod, Status: model.AssignmentProjected, Seq: 3, CreatedAt: c, UpdatedAt: u})
			},
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
}

func count(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
