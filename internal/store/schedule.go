package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rbolet/every-player/internal/model"
)

// Games

func (t *Tx) InsertGame(g model.Game) error {
	_, err := t.exec(`
		INSERT INTO games
		(id, home_team_id, away_team_id, opponent_name, formation_id, planned_periods,
		 date_time, location, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, g.ID, g.HomeTeamID, nullString(g.AwayTeamID), nullString(g.OpponentName), nullString(g.FormationID),
		g.PlannedPeriods, toMillis(g.DateTime), g.Location, string(g.Status),
		toMillis(g.CreatedAt), toMillis(g.UpdatedAt))
	if err != nil {
		return mapConstraintError("game", err)
	}
	return nil
}

const gameColumns = `id, home_team_id, away_team_id, opponent_name, formation_id, planned_periods,
	date_time, location, status, created_at, updated_at`

func scanGame(s scanner) (model.Game, error) {
	var (
		g                         model.Game
		away, opponent, formation sql.NullString
		status                    string
		at, created, updated      int64
	)
	if err := s.Scan(&g.ID, &g.HomeTeamID, &away, &opponent, &formation, &g.PlannedPeriods,
		&at, &g.Location, &status, &created, &updated); err != nil {
		return model.Game{}, err
	}
	g.AwayTeamID, g.OpponentName, g.FormationID = stringPtr(away), stringPtr(opponent), stringPtr(formation)
	g.DateTime = fromMillis(at)
	g.Status = model.GameStatus(status)
	g.CreatedAt, g.UpdatedAt = fromMillis(created), fromMillis(updated)
	return g, nil
}

func (t *Tx) GetGame(id string) (model.Game, error) {
	return one(t.queryRow(`SELECT `+gameColumns+` FROM games WHERE id = ?`, id), "game", id, scanGame)
}

// ListGames returns the games teamID plays in, home or away, by kickoff.
func (t *Tx) ListGames(teamID string) ([]model.Game, error) {
	rows, err := t.query(`
		SELECT `+gameColumns+` FROM games
		WHERE home_team_id = ? OR away_team_id = ?
		ORDER BY date_time, id
	`, teamID, teamID)
	if err != nil {
		return nil, err
	}
	return collect(rows, "games", scanGame)
}

// formationGames selects the games whose active formation is ?1: their
// own override, or the home team's default when they have none.
const formationGames = `SELECT id FROM games
	WHERE formation_id = ?1
	   OR (formation_id IS NULL AND home_team_id IN (SELECT id FROM teams WHERE default_formation_id = ?1))`

// ListFormationGames returns the games currently played in formationID.
func (t *Tx) ListFormationGames(formationID string) ([]model.Game, error) {
	rows, err := t.query(`
		SELECT `+gameColumns+` FROM games WHERE id IN (`+formationGames+`)
		ORDER BY date_time, id
	`, formationID)
	if err != nil {
		return nil, err
	}
	return collect(rows, "games", scanGame)
}

// FormationPeriodIDs returns, in ascending order, the periods of the games
// currently played in formationID.
func (t *Tx) FormationPeriodIDs(formationID string) ([]string, error) {
	return t.periodIDs(`
		SELECT id FROM game_periods WHERE game_id IN (`+formationGames+`) ORDER BY id
	`, formationID)
}

// DefaultFormationPeriodIDs returns, in ascending order, the periods of
// teamID's home games that follow the team's default formation.
func (t *Tx) DefaultFormationPeriodIDs(teamID string) ([]string, error) {
	return t.periodIDs(`
		SELECT p.id FROM game_periods p
		JOIN games g ON g.id = p.game_id
		WHERE g.home_team_id = ? AND g.formation_id IS NULL
		ORDER BY p.id
	`, teamID)
}

func (t *Tx) periodIDs(query string, args ...any) ([]string, error) {
	rows, err := t.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("period ids: %w", err)
	}
	return collect(rows, "period ids", func(s scanner) (string, error) {
		var id string
		err := s.Scan(&id)
		return id, err
	})
}

// ListHomeGames returns the games hosted by teamID with the given status.
func (t *Tx) ListHomeGames(teamID string, status model.GameStatus) ([]model.Game, error) {
	rows, err := t.query(`
		SELECT `+gameColumns+` FROM games
		WHERE home_team_id = ? AND status = ?
		ORDER BY date_time, id
	`, teamID, string(status))
	if err != nil {
		return nil, err
	}
	return collect(rows, "games", scanGame)
}

// SetGameStatus updates a game's status.
func (t *Tx) SetGameStatus(gameID string, status model.GameStatus, now time.Time) error {
	return t.execOne("game", gameID,
		`UPDATE games SET status = ?, updated_at = ? WHERE id = ?`, string(status), toMillis(now), gameID)
}

// SetGameFormation overrides or clears the game's formation.
func (t *Tx) SetGameFormation(gameID string, formationID *string, now time.Time) error {
	return t.execOne("game", gameID,
		`UPDATE games SET formation_id = ?, updated_at = ? WHERE id = ?`, nullString(formationID), toMillis(now), gameID)
}

// Periods

func (t *Tx) InsertPeriod(p model.GamePeriod) error {
	_, err := t.exec(`
		INSERT INTO game_periods (id, game_id, period_number, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.GameID, p.PeriodNumber, string(p.Status), toMillis(p.CreatedAt), toMillis(p.UpdatedAt))
	if err != nil {
		return mapConstraintError("period", err)
	}
	return nil
}

const periodColumns = `id, game_id, period_number, status, created_at, updated_at`

func scanPeriod(s scanner) (model.GamePeriod, error) {
	var (
		p                model.GamePeriod
		status           string
		created, updated int64
	)
	if err := s.Scan(&p.ID, &p.GameID, &p.PeriodNumber, &status, &created, &updated); err != nil {
		return model.GamePeriod{}, err
	}
	p.Status = model.GameStatus(status)
	p.CreatedAt, p.UpdatedAt = fromMillis(created), fromMillis(updated)
	return p, nil
}

func (t *Tx) GetPeriod(id string) (model.GamePeriod, error) {
	return one(t.queryRow(`SELECT `+periodColumns+` FROM game_periods WHERE id = ?`, id), "period", id, scanPeriod)
}

// ListPeriods returns a game's periods by number.
func (t *Tx) ListPeriods(gameID string) ([]model.GamePeriod, error) {
	rows, err := t.query(`SELECT `+periodColumns+` FROM game_periods WHERE game_id = ? ORDER BY period_number, id`, gameID)
	if err != nil {
		return nil, err
	}
	return collect(rows, "periods", scanPeriod)
}

// SetPeriodStatus updates a period's status.
func (t *Tx) SetPeriodStatus(periodID string, status model.PeriodStatus, now time.Time) error {
	return t.execOne("period", periodID,
		`UPDATE game_periods SET status = ?, updated_at = ? WHERE id = ?`, string(status), toMillis(now), periodID)
}

// Absences

func (t *Tx) InsertAbsence(a model.GamePlayerAbsence) error {
	_, err := t.exec(`
		INSERT INTO game_player_absences (id, game_id, player_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.ID, a.GameID, a.PlayerID, toMillis(a.CreatedAt), toMillis(a.UpdatedAt))
	if err != nil {
		return mapConstraintError("absence", err)
	}
	return nil
}

// ListAbsences returns a game's absences ordered by player id.
func (t *Tx) ListAbsences(gameID string) ([]model.GamePlayerAbsence, error) {
	rows, err := t.query(`
		SELECT id, game_id, player_id, created_at, updated_at
		FROM game_player_absences WHERE game_id = ?
		ORDER BY player_id, id
	`, gameID)
	if err != nil {
		return nil, err
	}
	return collect(rows, "absences", func(s scanner) (model.GamePlayerAbsence, error) {
		var (
			a                model.GamePlayerAbsence
			created, updated int64
		)
		if err := s.Scan(&a.ID, &a.GameID, &a.PlayerID, &created, &updated); err != nil {
			return model.GamePlayerAbsence{}, err
		}
		a.CreatedAt, a.UpdatedAt = fromMillis(created), fromMillis(updated)
		return a, nil
	})
}

// IsAbsent reports whether playerID is marked absent for gameID.
func (t *Tx) IsAbsent(gameID, playerID string) (bool, error) {
	var n int
	err := t.queryRow(`SELECT COUNT(*) FROM game_player_absences WHERE game_id = ? AND player_id = ?`,
		gameID, playerID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check absence: %w", err)
	}
	return n > 0, nil
}

// DeleteAbsence removes the absence row for (gameID, playerID).
func (t *Tx) DeleteAbsence(gameID, playerID string) error {
	return t.execOne("absence", gameID+"/"+playerID,
		`DELETE FROM game_player_absences WHERE game_id = ? AND player_id = ?`, gameID, playerID)
}
