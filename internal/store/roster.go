package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rbolet/every-player/internal/model"
)

// Teams

func (t *Tx) InsertTeam(tm model.Team) error {
	_, err := t.exec(`
		INSERT INTO teams
		(id, season_id, name, description, color, default_formation_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, tm.ID, tm.SeasonID, tm.Name, nullString(tm.Description), tm.Color, tm.DefaultFormationID,
		toMillis(tm.CreatedAt), toMillis(tm.UpdatedAt))
	if err != nil {
		return mapConstraintError("team", err)
	}
	return nil
}

const teamColumns = `id, season_id, name, description, color, default_formation_id, created_at, updated_at`

func scanTeam(s scanner) (model.Team, error) {
	var (
		tm               model.Team
		desc             sql.NullString
		created, updated int64
	)
	if err := s.Scan(&tm.ID, &tm.SeasonID, &tm.Name, &desc, &tm.Color, &tm.DefaultFormationID, &created, &updated); err != nil {
		return model.Team{}, err
	}
	tm.Description = stringPtr(desc)
	tm.CreatedAt, tm.UpdatedAt = fromMillis(created), fromMillis(updated)
	return tm, nil
}

func (t *Tx) GetTeam(id string) (model.Team, error) {
	return one(t.queryRow(`SELECT `+teamColumns+` FROM teams WHERE id = ?`, id), "team", id, scanTeam)
}

// ListTeams returns the teams of a season ordered by name.
func (t *Tx) ListTeams(seasonID string) ([]model.Team, error) {
	rows, err := t.query(`SELECT `+teamColumns+` FROM teams WHERE season_id = ? ORDER BY name, id`, seasonID)
	if err != nil {
		return nil, err
	}
	return collect(rows, "teams", scanTeam)
}

// SetTeamDefaultFormation points the team at a new default formation.
func (t *Tx) SetTeamDefaultFormation(teamID, formationID string, now time.Time) error {
	return t.execOne("team", teamID,
		`UPDATE teams SET default_formation_id = ?, updated_at = ? WHERE id = ?`,
		formationID, toMillis(now), teamID)
}

// Players

func (t *Tx) InsertPlayer(p model.Player) error {
	_, err := t.exec(`
		INSERT INTO players (id, name, birthdate, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Birthdate.Format(dateLayout), toMillis(p.CreatedAt), toMillis(p.UpdatedAt))
	if err != nil {
		return mapConstraintError("player", err)
	}
	return nil
}

const playerColumns = `id, name, birthdate, created_at, updated_at`

func scanPlayer(s scanner) (model.Player, error) {
	var (
		p                model.Player
		birth            string
		created, updated int64
	)
	if err := s.Scan(&p.ID, &p.Name, &birth, &created, &updated); err != nil {
		return model.Player{}, err
	}
	bd, err := time.Parse(dateLayout, birth)
	if err != nil {
		return model.Player{}, fmt.Errorf("player %s birthdate: %w", p.ID, err)
	}
	p.Birthdate = bd
	p.CreatedAt, p.UpdatedAt = fromMillis(created), fromMillis(updated)
	return p, nil
}

func (t *Tx) GetPlayer(id string) (model.Player, error) {
	return one(t.queryRow(`SELECT `+playerColumns+` FROM players WHERE id = ?`, id), "player", id, scanPlayer)
}

// ListPlayers returns every player ordered by name.
func (t *Tx) ListPlayers() ([]model.Player, error) {
	rows, err := t.query(`SELECT ` + playerColumns + ` FROM players ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, "players", scanPlayer)
}

// Team membership

func (t *Tx) InsertTeamPlayer(tp model.TeamPlayer) error {
	_, err := t.exec(`
		INSERT INTO team_players (team_id, player_id, jersey_number, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, tp.TeamID, tp.PlayerID, nullInt(tp.JerseyNumber), toMillis(tp.CreatedAt), toMillis(tp.UpdatedAt))
	if err != nil {
		return mapConstraintError("team player", err)
	}
	return nil
}

func scanTeamPlayer(s scanner) (model.TeamPlayer, error) {
	var (
		tp               model.TeamPlayer
		jersey           sql.NullInt64
		created, updated int64
	)
	if err := s.Scan(&tp.TeamID, &tp.PlayerID, &jersey, &created, &updated); err != nil {
		return model.TeamPlayer{}, err
	}
	tp.JerseyNumber = intPtr(jersey)
	tp.CreatedAt, tp.UpdatedAt = fromMillis(created), fromMillis(updated)
	return tp, nil
}

// GetTeamPlayer returns the membership row for (teamID, playerID).
func (t *Tx) GetTeamPlayer(teamID, playerID string) (model.TeamPlayer, error) {
	row := t.queryRow(`
		SELECT team_id, player_id, jersey_number, created_at, updated_at
		FROM team_players WHERE team_id = ? AND player_id = ?
	`, teamID, playerID)
	return one(row, "team player", teamID+"/"+playerID, scanTeamPlayer)
}

// IsOnRoster reports whether playerID is a member of teamID.
func (t *Tx) IsOnRoster(teamID, playerID string) (bool, error) {
	var n int
	err := t.queryRow(`SELECT COUNT(*) FROM team_players WHERE team_id = ? AND player_id = ?`, teamID, playerID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check roster: %w", err)
	}
	return n > 0, nil
}

// CountRoster returns the number of players on teamID.
func (t *Tx) CountRoster(teamID string) (int, error) {
	var n int
	if err := t.queryRow(`SELECT COUNT(*) FROM team_players WHERE team_id = ?`, teamID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count roster: %w", err)
	}
	return n, nil
}

// JerseyHolder returns the player wearing number on teamID, or "" if free.
func (t *Tx) JerseyHolder(teamID string, number int) (string, error) {
	rows, err := t.query(`SELECT player_id FROM team_players WHERE team_id = ? AND jersey_number = ?`, teamID, number)
	if err != nil {
		return "", err
	}
	ids, err := collect(rows, "jersey holder", func(s scanner) (string, error) {
		var id string
		err := s.Scan(&id)
		return id, err
	})
	if err != nil || len(ids) == 0 {
		return "", err
	}
	return ids[0], nil
}

// ListRoster returns teamID's players ordered by jersey number with
// unnumbered players last, then by name.
func (t *Tx) ListRoster(teamID string) ([]model.RosterEntry, error) {
	rows, err := t.query(`
		SELECT p.id, p.name, p.birthdate, p.created_at, p.updated_at, tp.jersey_number
		FROM team_players tp
		JOIN players p ON p.id = tp.player_id
		WHERE tp.team_id = ?
		ORDER BY tp.jersey_number IS NULL, tp.jersey_number, p.name, p.id
	`, teamID)
	if err != nil {
		return nil, err
	}
	return collect(rows, "roster", func(s scanner) (model.RosterEntry, error) {
		var (
			e                model.RosterEntry
			birth            string
			created, updated int64
			jersey           sql.NullInt64
		)
		if err := s.Scan(&e.Player.ID, &e.Player.Name, &birth, &created, &updated, &jersey); err != nil {
			return model.RosterEntry{}, err
		}
		bd, err := time.Parse(dateLayout, birth)
		if err != nil {
			return model.RosterEntry{}, fmt.Errorf("player %s birthdate: %w", e.Player.ID, err)
		}
		e.Player.Birthdate = bd
		e.Player.CreatedAt, e.Player.UpdatedAt = fromMillis(created), fromMillis(updated)
		e.JerseyNumber = intPtr(jersey)
		return e, nil
	})
}

// SetJersey changes or clears a player's jersey number on teamID.
func (t *Tx) SetJersey(teamID, playerID string, number *int, now time.Time) error {
	return t.execOne("team player", teamID+"/"+playerID, `
		UPDATE team_players SET jersey_number = ?, updated_at = ?
		WHERE team_id = ? AND player_id = ?
	`, nullInt(number), toMillis(now), teamID, playerID)
}

// DeleteTeamPlayer removes playerID from teamID and releases the player's
// rows in the team's home games: ABSENT rows fall back to empty PROJECTED
// slots, the rest keep their position with no player. The player's
// absences from those games go too.
func (t *Tx) DeleteTeamPlayer(teamID, playerID string, now time.Time) error {
	if err := t.execOne("team player", teamID+"/"+playerID,
		`DELETE FROM team_players WHERE team_id = ? AND player_id = ?`, teamID, playerID); err != nil {
		return err
	}
	const homePeriods = `SELECT p.id FROM game_periods p
		JOIN games g ON g.id = p.game_id WHERE g.home_team_id = ?`
	ms := toMillis(now)
	stmts := []struct {
		query string
		args  []any
	}{
		{`DELETE FROM game_player_absences
		  WHERE player_id = ? AND game_id IN (SELECT id FROM games WHERE home_team_id = ?)`,
			[]any{playerID, teamID}},
		{`UPDATE game_player_assignments
		  SET player_id = NULL, position_id = NULL, status = 'PROJECTED', updated_at = ?
		  WHERE player_id = ? AND status = 'ABSENT' AND game_period_id IN (` + homePeriods + `)`,
			[]any{ms, playerID, teamID}},
		{`UPDATE game_player_assignments SET player_id = NULL, updated_at = ?
		  WHERE player_id = ? AND game_period_id IN (` + homePeriods + `)`,
			[]any{ms, playerID, teamID}},
	}
	for _, stmt := range stmts {
		if _, err := t.exec(stmt.query, stmt.args...); err != nil {
			return fmt.Errorf("release player %s from team %s: %w", playerID, teamID, mapConstraintError("team player", err))
		}
	}
	return nil
}

// TeamPlayerPeriodIDs returns, in ascending order, the periods of teamID's
// home games in which playerID holds a row.
func (t *Tx) TeamPlayerPeriodIDs(teamID, playerID string) ([]string, error) {
	return t.periodIDs(`
		SELECT DISTINCT a.game_period_id FROM game_player_assignments a
		JOIN game_periods p ON p.id = a.game_period_id
		JOIN games g ON g.id = p.game_id
		WHERE g.home_team_id = ? AND a.player_id = ?
		ORDER BY 1
	`, teamID, playerID)
}
