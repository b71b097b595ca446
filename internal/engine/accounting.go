package engine

import (
	"context"
	"fmt"

	"github.com/rbolet/every-player/internal/model"
	"github.com/rbolet/every-player/internal/rules"
	"github.com/rbolet/every-player/internal/store"
)

// PlayerTime is one player's playing time over a game or a set of games.
type PlayerTime struct {
	PlayerID     string
	Name         string
	JerseyNumber *int
	Played       int
	Bench        int

	// Absent is set in a game report when the player is marked absent.
	Absent bool

	// AbsentGames counts absences in a team report.
	AbsentGames int

	TotalPeriods int
	Percentage   float64
}

// PlayingTimeReport lists playing time per rostered home player, in roster
// order.
type PlayingTimeReport struct {
	// GameID is empty for team reports.
	GameID       string
	TeamID       string
	Games        int
	TotalPeriods int
	Players      []PlayerTime
}

// GameReport computes playing time for one game. Played counts ACTUAL rows
// with a position; bench rows are counted separately. TotalPeriods is the
// game's planned periods, so overtime can push a percentage past 100.
func (e *Engine) GameReport(ctx context.Context, gameID string) (PlayingTimeReport, error) {
	var r PlayingTimeReport
	err := e.view(ctx, func(tx *store.Tx) error {
		g, err := tx.GetGame(gameID)
		if err != nil {
			return err
		}
		roster, err := tx.ListRoster(g.HomeTeamID)
		if err != nil {
			return err
		}
		r = PlayingTimeReport{GameID: g.ID, TeamID: g.HomeTeamID, Games: 1, TotalPeriods: g.PlannedPeriods}
		tallies, absent, err := gameTallies(tx, g.ID)
		if err != nil {
			return err
		}
		for _, entry := range roster {
			t := tallies[entry.Player.ID]
			r.Players = append(r.Players, PlayerTime{
				PlayerID:     entry.Player.ID,
				Name:         entry.Player.Name,
				JerseyNumber: entry.JerseyNumber,
				Played:       t.Played,
				Bench:        t.Bench,
				Absent:       absent[entry.Player.ID],
				TotalPeriods: g.PlannedPeriods,
				Percentage:   rules.CalculatePlayingTimePercentage(t.Played, g.PlannedPeriods),
			})
		}
		return nil
	})
	if err != nil {
		return PlayingTimeReport{}, fmt.Errorf("game report: %w", err)
	}
	return r, nil
}

// TeamReport aggregates playing time across the ACTUAL games the team
// hosted.
func (e *Engine) TeamReport(ctx context.Context, teamID string) (PlayingTimeReport, error) {
	var r PlayingTimeReport
	err := e.view(ctx, func(tx *store.Tx) error {
		if _, err := tx.GetTeam(teamID); err != nil {
			return err
		}
		roster, err := tx.ListRoster(teamID)
		if err != nil {
			return err
		}
		games, err := tx.ListHomeGames(teamID, model.GameActual)
		if err != nil {
			return err
		}
		r = PlayingTimeReport{TeamID: teamID, Games: len(games)}

		sum := make(map[string]rules.Tally)
		absentGames := make(map[string]int)
		for _, g := range games {
			r.TotalPeriods += g.PlannedPeriods
			tallies, absent, err := gameTallies(tx, g.ID)
			if err != nil {
				return err
			}
			for id, t := range tallies {
				s := sum[id]
				s.Played += t.Played
				s.Bench += t.Bench
				s.Absent += t.Absent
				sum[id] = s
			}
			for id := range absent {
				absentGames[id]++
			}
		}
		for _, entry := range roster {
			t := sum[entry.Player.ID]
			r.Players = append(r.Players, PlayerTime{
				PlayerID:     entry.Player.ID,
				Name:         entry.Player.Name,
				JerseyNumber: entry.JerseyNumber,
				Played:       t.Played,
				Bench:        t.Bench,
				AbsentGames:  absentGames[entry.Player.ID],
				TotalPeriods: r.TotalPeriods,
				Percentage:   rules.CalculatePlayingTimePercentage(t.Played, r.TotalPeriods),
			})
		}
		return nil
	})
	if err != nil {
		return PlayingTimeReport{}, fmt.Errorf("team report: %w", err)
	}
	return r, nil
}

// gameTallies counts each player's rows across all periods of a game and
// returns the set of absent players.
func gameTallies(tx *store.Tx, gameID string) (map[string]rules.Tally, map[string]bool, error) {
	rows, err := tx.ListGameAssignments(gameID)
	if err != nil {
		return nil, nil, err
	}
	byPlayer := make(map[string][]model.GamePlayerAssignment)
	for _, row := range rows {
		if row.PlayerID != nil {
			byPlayer[*row.PlayerID] = append(byPlayer[*row.PlayerID], row)
		}
	}
	tallies := make(map[string]rules.Tally, len(byPlayer))
	for id, rs := range byPlayer {
		tallies[id] = rules.Count(rs)
	}

	absences, err := tx.ListAbsences(gameID)
	if err != nil {
		return nil, nil, err
	}
	absent := make(map[string]bool, len(absences))
	for _, a := range absences {
		absent[a.PlayerID] = true
	}
	return tallies, absent, nil
}

// CanonicalJSON renders the report as canonical JSON. Percentages appear
// both as basis points and as a two-decimal string.
func (r PlayingTimeReport) CanonicalJSON() ([]byte, error) {
	players := make([]map[string]any, 0, len(r.Players))
	for _, p := range r.Players {
		bp := rules.PercentageBasisPoints(p.Played, p.TotalPeriods)
		m := map[string]any{
			"playerId":              p.PlayerID,
			"name":                  p.Name,
			"played":                p.Played,
			"bench":                 p.Bench,
			"totalPeriods":          p.TotalPeriods,
			"percentageBasisPoints": bp,
			"percentage":            fmt.Sprintf("%d.%02d", bp/100, bp%100),
		}
		if p.JerseyNumber != nil {
			m["jerseyNumber"] = *p.JerseyNumber
		}
		if r.GameID != "" {
			m["absent"] = p.Absent
		} else {
			m["absentGames"] = p.AbsentGames
		}
		players = append(players, m)
	}
	doc := map[string]any{
		"teamId":       r.TeamID,
		"games":        r.Games,
		"totalPeriods": r.TotalPeriods,
		"players":      players,
	}
	if r.GameID != "" {
		doc["gameId"] = r.GameID
	}
	return model.MarshalCanonical(doc)
}
