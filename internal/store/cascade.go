package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/rbolet/every-player/internal/model"
)

// Kind names a deletable entity.
type Kind string

const (
	KindDivision  Kind = "division"
	KindLeague    Kind = "league"
	KindSeason    Kind = "season"
	KindTeam      Kind = "team"
	KindPlayer    Kind = "player"
	KindPosition  Kind = "position"
	KindFormation Kind = "formation"
	KindGame      Kind = "game"
	KindPeriod    Kind = "period"
)

// Kinds lists every deletable entity kind.
var Kinds = []Kind{
	KindDivision, KindLeague, KindSeason, KindTeam, KindPlayer,
	KindPosition, KindFormation, KindGame, KindPeriod,
}

// ParseKind converts s into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entity kind: %q", s)
}

// cascadePeriodQueries selects the periods whose assignment rows a delete
// of each kind would touch.
var cascadePeriodQueries = map[Kind]string{
	KindDivision: `
		SELECT p.id FROM game_periods p
		JOIN games g ON g.id = p.game_id
		JOIN teams t ON t.id = g.home_team_id OR t.id = g.away_team_id
		JOIN seasons s ON s.id = t.season_id
		JOIN leagues l ON l.id = s.league_id
		WHERE l.division_id = ?`,
	KindLeague: `
		SELECT p.id FROM game_periods p
		JOIN games g ON g.id = p.game_id
		JOIN teams t ON t.id = g.home_team_id OR t.id = g.away_team_id
		JOIN seasons s ON s.id = t.season_id
		WHERE s.league_id = ?`,
	KindSeason: `
		SELECT p.id FROM game_periods p
		JOIN games g ON g.id = p.game_id
		JOIN teams t ON t.id = g.home_team_id OR t.id = g.away_team_id
		WHERE t.season_id = ?`,
	KindTeam: `
		SELECT p.id FROM game_periods p
		JOIN games g ON g.id = p.game_id
		WHERE g.home_team_id = ?1 OR g.away_team_id = ?1`,
	KindPlayer: `
		SELECT DISTINCT game_period_id FROM game_player_assignments WHERE player_id = ?`,
	KindPosition: `
		SELECT DISTINCT game_period_id FROM game_player_assignments WHERE position_id = ?`,
	KindGame: `
		SELECT id FROM game_periods WHERE game_id = ?`,
	KindPeriod: `
		SELECT id FROM game_periods WHERE id = ?`,
}

// CascadePeriodIDs returns, in ascending order, the ids of the periods a
// Delete of (kind, id) would modify. Callers lock these before deleting.
func (t *Tx) CascadePeriodIDs(kind Kind, id string) ([]string, error) {
	q, ok := cascadePeriodQueries[kind]
	if !ok {
		return []string{}, nil
	}
	rows, err := t.query(q, id)
	if err != nil {
		return nil, fmt.Errorf("cascade periods for %s: %w", kind, err)
	}
	ids, err := collect(rows, "period ids", func(s scanner) (string, error) {
		var pid string
		err := s.Scan(&pid)
		return pid, err
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return dedupe(ids), nil
}

// Delete removes (kind, id) and everything it owns.
func (t *Tx) Delete(kind Kind, id string, now time.Time) error {
	switch kind {
	case KindDivision:
		return t.DeleteDivision(id)
	case KindLeague:
		return t.DeleteLeague(id)
	case KindSeason:
		return t.DeleteSeason(id)
	case KindTeam:
		return t.DeleteTeam(id)
	case KindPlayer:
		return t.DeletePlayer(id, now)
	case KindPosition:
		return t.DeletePosition(id, now)
	case KindFormation:
		return t.DeleteFormation(id)
	case KindGame:
		return t.DeleteGame(id)
	case KindPeriod:
		return t.DeletePeriod(id)
	}
	return fmt.Errorf("unknown entity kind: %q", kind)
}

// DeleteDivision removes a division and its leagues.
func (t *Tx) DeleteDivision(id string) error {
	if _, err := t.GetDivision(id); err != nil {
		return err
	}
	leagues, err := t.childIDs(`SELECT id FROM leagues WHERE division_id = ?`, id)
	if err != nil {
		return err
	}
	for _, lid := range leagues {
		if err := t.DeleteLeague(lid); err != nil {
			return fmt.Errorf("delete division %s: %w", id, err)
		}
	}
	return t.execOne("division", id, `DELETE FROM divisions WHERE id = ?`, id)
}

// DeleteLeague removes a league and its seasons.
func (t *Tx) DeleteLeague(id string) error {
	if _, err := t.GetLeague(id); err != nil {
		return err
	}
	seasons, err := t.childIDs(`SELECT id FROM seasons WHERE league_id = ?`, id)
	if err != nil {
		return err
	}
	for _, sid := range seasons {
		if err := t.DeleteSeason(sid); err != nil {
			return fmt.Errorf("delete league %s: %w", id, err)
		}
	}
	return t.execOne("league", id, `DELETE FROM leagues WHERE id = ?`, id)
}

// DeleteSeason removes a season and its teams.
func (t *Tx) DeleteSeason(id string) error {
	if _, err := t.GetSeason(id); err != nil {
		return err
	}
	teams, err := t.childIDs(`SELECT id FROM teams WHERE season_id = ?`, id)
	if err != nil {
		return err
	}
	for _, tid := range teams {
		if err := t.DeleteTeam(tid); err != nil {
			return fmt.Errorf("delete season %s: %w", id, err)
		}
	}
	return t.execOne("season", id, `DELETE FROM seasons WHERE id = ?`, id)
}

// DeleteTeam removes a team, its roster, and every game it plays in.
func (t *Tx) DeleteTeam(id string) error {
	if _, err := t.GetTeam(id); err != nil {
		return err
	}
	if _, err := t.exec(`DELETE FROM team_players WHERE team_id = ?`, id); err != nil {
		return fmt.Errorf("delete team %s roster: %w", id, err)
	}
	games, err := t.childIDs(`SELECT id FROM games WHERE home_team_id = ?1 OR away_team_id = ?1`, id)
	if err != nil {
		return err
	}
	for _, gid := range games {
		if err := t.DeleteGame(gid); err != nil {
			return fmt.Errorf("delete team %s: %w", id, err)
		}
	}
	return t.execOne("team", id, `DELETE FROM teams WHERE id = ?`, id)
}

// DeleteGame removes a game, its periods with their assignments, and its
// absences.
func (t *Tx) DeleteGame(id string) error {
	if _, err := t.GetGame(id); err != nil {
		return err
	}
	periods, err := t.childIDs(`SELECT id FROM game_periods WHERE game_id = ?`, id)
	if err != nil {
		return err
	}
	for _, pid := range periods {
		if err := t.DeletePeriod(pid); err != nil {
			return fmt.Errorf("delete game %s: %w", id, err)
		}
	}
	if _, err := t.exec(`DELETE FROM game_player_absences WHERE game_id = ?`, id); err != nil {
		return fmt.Errorf("delete game %s absences: %w", id, err)
	}
	return t.execOne("game", id, `DELETE FROM games WHERE id = ?`, id)
}

// DeletePeriod removes a period and its assignment rows.
func (t *Tx) DeletePeriod(id string) error {
	if _, err := t.exec(`DELETE FROM game_player_assignments WHERE game_period_id = ?`, id); err != nil {
		return fmt.Errorf("delete period %s assignments: %w", id, err)
	}
	return t.execOne("period", id, `DELETE FROM game_periods WHERE id = ?`, id)
}

// DeletePlayer removes a player with its memberships and absences. Its
// assignment rows survive as slots with no player; ABSENT rows fall back
// to empty PROJECTED slots.
func (t *Tx) DeletePlayer(id string, now time.Time) error {
	if _, err := t.GetPlayer(id); err != nil {
		return err
	}
	ms := toMillis(now)
	stmts := []struct {
		query string
		args  []any
	}{
		{`DELETE FROM team_players WHERE player_id = ?`, []any{id}},
		{`DELETE FROM game_player_absences WHERE player_id = ?`, []any{id}},
		{`UPDATE game_player_assignments
		  SET player_id = NULL, position_id = NULL, status = 'PROJECTED', updated_at = ?
		  WHERE player_id = ? AND status = 'ABSENT'`, []any{ms, id}},
		{`UPDATE game_player_assignments SET player_id = NULL, updated_at = ? WHERE player_id = ?`, []any{ms, id}},
	}
	for _, stmt := range stmts {
		if _, err := t.exec(stmt.query, stmt.args...); err != nil {
			return fmt.Errorf("delete player %s: %w", id, mapConstraintError("player", err))
		}
	}
	return t.execOne("player", id, `DELETE FROM players WHERE id = ?`, id)
}

// DeletePosition removes a position from every formation and clears it
// from assignment rows.
func (t *Tx) DeletePosition(id string, now time.Time) error {
	if _, err := t.GetPosition(id); err != nil {
		return err
	}
	if _, err := t.exec(`DELETE FROM formation_positions WHERE position_id = ?`, id); err != nil {
		return fmt.Errorf("delete position %s: %w", id, err)
	}
	if _, err := t.exec(`
		UPDATE game_player_assignments SET position_id = NULL, updated_at = ? WHERE position_id = ?
	`, toMillis(now), id); err != nil {
		return fmt.Errorf("delete position %s: %w", id, mapConstraintError("position", err))
	}
	return t.execOne("position", id, `DELETE FROM positions WHERE id = ?`, id)
}

// DeleteFormation removes an unreferenced formation and its position links.
// A formation still used by a team or game yields a ConflictError.
func (t *Tx) DeleteFormation(id string) error {
	if _, err := t.GetFormation(id); err != nil {
		return err
	}
	users, err := t.childIDs(`
		SELECT id FROM teams WHERE default_formation_id = ?1
		UNION ALL
		SELECT id FROM games WHERE formation_id = ?1
		ORDER BY 1
	`, id)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return &model.ConflictError{
			Code:    model.ConflictInUse,
			Message: fmt.Sprintf("formation %s is still referenced", id),
			IDs:     users,
		}
	}
	if _, err := t.exec(`DELETE FROM formation_positions WHERE formation_id = ?`, id); err != nil {
		return fmt.Errorf("delete formation %s: %w", id, err)
	}
	return t.execOne("formation", id, `DELETE FROM formations WHERE id = ?`, id)
}

func (t *Tx) childIDs(query string, args ...any) ([]string, error) {
	rows, err := t.query(query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, "child ids", func(s scanner) (string, error) {
		var id string
		err := s.Scan(&id)
		return id, err
	})
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}
