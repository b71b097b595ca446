package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rbolet/every-player/internal/engine"
	"github.com/rbolet/every-player/internal/model"
)

const dateLayout = "2006-01-02"

// Summary counts what Apply created.
type Summary struct {
	Divisions  int `json:"divisions"`
	Leagues    int `json:"leagues"`
	Seasons    int `json:"seasons"`
	Positions  int `json:"positions"`
	Formations int `json:"formations"`
	Players    int `json:"players"`
	Teams      int `json:"teams"`
	Members    int `json:"members"`
	Games      int `json:"games"`
	Periods    int `json:"periods"`
	Slots      int `json:"slots"`
	Absences   int `json:"absences"`
}

// Apply creates every entry of ds through e, parents first. Each entry is
// its own write: on error, the entries before it stay committed and the
// returned Summary counts them.
func Apply(ctx context.Context, e *engine.Engine, ds *Dataset) (Summary, error) {
	var s Summary

	for _, d := range ds.Divisions {
		_, err := e.CreateDivision(ctx, engine.DivisionInput{
			ID: d.ID, Name: d.Name, Description: optional(d.Description),
			PlayersCount: d.PlayersCount, RosterMax: d.RosterMax, NoGK: d.NoGK,
		})
		if err != nil {
			return s, fmt.Errorf("division %s: %w", d.ID, err)
		}
		s.Divisions++
	}
	for _, l := range ds.Leagues {
		_, err := e.CreateLeague(ctx, engine.LeagueInput{
			ID: l.ID, DivisionID: l.Division, Name: l.Name, Description: optional(l.Description),
		})
		if err != nil {
			return s, fmt.Errorf("league %s: %w", l.ID, err)
		}
		s.Leagues++
	}
	for _, ss := range ds.Seasons {
		_, err := e.CreateSeason(ctx, engine.SeasonInput{
			ID: ss.ID, LeagueID: ss.League, Name: ss.Name, Description: optional(ss.Description),
		})
		if err != nil {
			return s, fmt.Errorf("season %s: %w", ss.ID, err)
		}
		s.Seasons++
	}
	for _, p := range ds.Positions {
		_, err := e.CreatePosition(ctx, engine.PositionInput{
			ID: p.ID, Name: p.Name, Abbreviation: p.Abbreviation, Type: p.Type, DisplayOrder: p.DisplayOrder,
		})
		if err != nil {
			return s, fmt.Errorf("position %s: %w", p.ID, err)
		}
		s.Positions++
	}
	for _, f := range ds.Formations {
		_, err := e.CreateFormation(ctx, engine.FormationInput{
			ID: f.ID, Name: f.Name, Description: optional(f.Description),
			PlayersCount: f.PlayersCount, NoGK: f.NoGK,
		})
		if err != nil {
			return s, fmt.Errorf("formation %s: %w", f.ID, err)
		}
		for i, pos := range f.Positions {
			if _, err := e.AttachPosition(ctx, f.ID, pos, i+1); err != nil {
				return s, fmt.Errorf("formation %s: %w", f.ID, err)
			}
		}
		s.Formations++
	}
	for _, p := range ds.Players {
		bd, err := time.Parse(dateLayout, p.Birthdate)
		if err != nil {
			return s, fmt.Errorf("player %s: %w", p.ID, model.NewValidationError("birthdate", "want YYYY-MM-DD, got %q", p.Birthdate))
		}
		if _, err := e.CreatePlayer(ctx, engine.PlayerInput{ID: p.ID, Name: p.Name, Birthdate: bd}); err != nil {
			return s, fmt.Errorf("player %s: %w", p.ID, err)
		}
		s.Players++
	}
	for _, t := range ds.Teams {
		_, err := e.CreateTeam(ctx, engine.TeamInput{
			ID: t.ID, SeasonID: t.Season, Name: t.Name, Description: optional(t.Description),
			Color: t.Color, DefaultFormationID: t.DefaultFormation,
		})
		if err != nil {
			return s, fmt.Errorf("team %s: %w", t.ID, err)
		}
		s.Teams++
		for _, m := range t.Roster {
			if _, err := e.AddPlayerToTeam(ctx, t.ID, m.Player, m.Jersey); err != nil {
				return s, fmt.Errorf("team %s: %w", t.ID, err)
			}
			s.Members++
		}
	}
	for _, g := range ds.Games {
		if err := applyGame(ctx, e, g, &s); err != nil {
			return s, fmt.Errorf("game %s: %w", g.ID, err)
		}
	}
	return s, nil
}

func applyGame(ctx context.Context, e *engine.Engine, g Game, s *Summary) error {
	at, err := time.Parse(time.RFC3339, g.DateTime)
	if err != nil {
		return model.NewValidationError("dateTime", "want RFC 3339, got %q", g.DateTime)
	}
	if _, err := e.CreateGame(ctx, engine.GameInput{
		ID:             g.ID,
		HomeTeamID:     g.HomeTeam,
		AwayTeamID:     optional(g.AwayTeam),
		OpponentName:   optional(g.Opponent),
		FormationID:    optional(g.Formation),
		PlannedPeriods: g.PlannedPeriods,
		DateTime:       at,
		Location:       g.Location,
		Status:         model.GameStatus(g.Status),
	}); err != nil {
		return err
	}
	s.Games++

	periods, err := e.CreatePeriods(ctx, g.ID)
	if err != nil {
		return err
	}
	s.Periods += len(periods)

	for _, playerID := range g.Absent {
		if _, err := e.MarkAbsent(ctx, g.ID, playerID); err != nil {
			return err
		}
		s.Absences++
	}
	if !g.EmptySlots {
		return nil
	}
	for _, p := range periods {
		rows, err := e.CreateEmptySlots(ctx, p.ID)
		if err != nil {
			return err
		}
		s.Slots += len(rows)
	}
	return nil
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
