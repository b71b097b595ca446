package store

import (
	"database/sql"

	"github.com/rbolet/every-player/internal/model"
)

func (t *Tx) InsertAssignment(a model.GamePlayerAssignment) error {
	_, err := t.exec(`
		INSERT INTO game_player_assignments
		(id, game_period_id, player_id, position_id, status, seq, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.GamePeriodID, nullString(a.PlayerID), nullString(a.PositionID), string(a.Status), a.Seq,
		toMillis(a.CreatedAt), toMillis(a.UpdatedAt))
	if err != nil {
		return mapConstraintError("assignment", err)
	}
	return nil
}

// UpdateAssignment rewrites the player, position, status and updated_at of
// an existing row. Seq and created_at are immutable.
func (t *Tx) UpdateAssignment(a model.GamePlayerAssignment) error {
	return t.execOne("assignment", a.ID, `
		UPDATE game_player_assignments
		SET player_id = ?, position_id = ?, status = ?, updated_at = ?
		WHERE id = ?
	`, nullString(a.PlayerID), nullString(a.PositionID), string(a.Status), toMillis(a.UpdatedAt), a.ID)
}

const assignmentColumns = `a.id, a.game_period_id, a.player_id, a.position_id, a.status, a.seq, a.created_at, a.updated_at`

func scanAssignment(s scanner) (model.GamePlayerAssignment, error) {
	var (
		a                model.GamePlayerAssignment
		player, position sql.NullString
		status           string
		created, updated int64
	)
	if err := s.Scan(&a.ID, &a.GamePeriodID, &player, &position, &status, &a.Seq, &created, &updated); err != nil {
		return model.GamePlayerAssignment{}, err
	}
	a.PlayerID, a.PositionID = stringPtr(player), stringPtr(position)
	a.Status = model.AssignmentStatus(status)
	a.CreatedAt, a.UpdatedAt = fromMillis(created), fromMillis(updated)
	return a, nil
}

func (t *Tx) GetAssignment(id string) (model.GamePlayerAssignment, error) {
	row := t.queryRow(`SELECT `+assignmentColumns+` FROM game_player_assignments a WHERE a.id = ?`, id)
	return one(row, "assignment", id, scanAssignment)
}

// ListAssignments returns a period's rows ordered by seq, then id.
func (t *Tx) ListAssignments(periodID string) ([]model.GamePlayerAssignment, error) {
	rows, err := t.query(`
		SELECT `+assignmentColumns+` FROM game_player_assignments a
		WHERE a.game_period_id = ?
		ORDER BY a.seq ASC, a.id COLLATE BINARY ASC
	`, periodID)
	if err != nil {
		return nil, err
	}
	return collect(rows, "assignments", scanAssignment)
}

// ListGameAssignments returns every row of every period of gameID, grouped
// by period number and ordered by seq, then id within a period.
func (t *Tx) ListGameAssignments(gameID string) ([]model.GamePlayerAssignment, error) {
	rows, err := t.query(`
		SELECT `+assignmentColumns+` FROM game_player_assignments a
		JOIN game_periods p ON p.id = a.game_period_id
		WHERE p.game_id = ?
		ORDER BY p.period_number, a.seq ASC, a.id COLLATE BINARY ASC
	`, gameID)
	if err != nil {
		return nil, err
	}
	return collect(rows, "assignments", scanAssignment)
}

// ListPlayerGameAssignments returns playerID's rows across all periods of gameID.
func (t *Tx) ListPlayerGameAssignments(gameID, playerID string) ([]model.GamePlayerAssignment, error) {
	rows, err := t.query(`
		SELECT `+assignmentColumns+` FROM game_player_assignments a
		JOIN game_periods p ON p.id = a.game_period_id
		WHERE p.game_id = ? AND a.player_id = ?
		ORDER BY p.period_number, a.seq ASC, a.id COLLATE BINARY ASC
	`, gameID, playerID)
	if err != nil {
		return nil, err
	}
	return collect(rows, "assignments", scanAssignment)
}

// MaxAssignmentSeq returns the highest seq stored, or 0 for an empty table.
func (t *Tx) MaxAssignmentSeq() (int64, error) {
	var seq sql.NullInt64
	if err := t.queryRow(`SELECT MAX(seq) FROM game_player_assignments`).Scan(&seq); err != nil {
		return 0, err
	}
	return seq.Int64, nil
}
