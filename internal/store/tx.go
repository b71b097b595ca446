package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/rbolet/every-player/internal/model"
)

// Tx is a unit of work against the store. It is only valid inside the
// View or Update callback that produced it.
type Tx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *Tx) exec(query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(t.ctx, query, args...)
}

func (t *Tx) query(query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(t.ctx, query, args...)
}

func (t *Tx) queryRow(query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(t.ctx, query, args...)
}

// execOne runs a write that must touch exactly one row. A zero-row result
// becomes a not-found error for entity/id.
func (t *Tx) execOne(entity, id, query string, args ...any) error {
	res, err := t.exec(query, args...)
	if err != nil {
		return mapConstraintError(entity, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.NotFound(entity, id)
	}
	return nil
}

// uniqueCodes maps the column list SQLite reports in a UNIQUE failure to
// the conflict code the engine would have raised for the same violation.
var uniqueCodes = map[string]model.ConflictCode{
	"team_players.team_id, team_players.jersey_number":                            model.ConflictJerseyTaken,
	"team_players.team_id, team_players.player_id":                                model.ConflictAlreadyOnTeam,
	"game_player_assignments.game_period_id, game_player_assignments.player_id":   model.ConflictPlayerDoubleBooked,
	"game_player_assignments.game_period_id, game_player_assignments.position_id": model.ConflictPositionTaken,
}

// mapConstraintError translates SQLite constraint failures into the model
// error taxonomy. Any other error is returned unchanged.
func mapConstraintError(entity string, err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrConstraint {
		return err
	}

	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintForeignKey:
		return &model.ReferentialIntegrityError{
			Entity:  entity,
			Message: "references a missing or still-referenced row",
		}
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		msg := sqliteErr.Error()
		cols := msg
		if i := strings.Index(msg, "failed: "); i >= 0 {
			cols = msg[i+len("failed: "):]
		}
		code, ok := uniqueCodes[cols]
		if !ok {
			code = model.ConflictDuplicate
		}
		return &model.ConflictError{
			Code:    code,
			Message: fmt.Sprintf("%s already exists (%s)", entity, cols),
		}
	case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
		return &model.ValidationError{
			Code:    model.ValidationInvalidInput,
			Message: fmt.Sprintf("%s: %s", entity, sqliteErr.Error()),
		}
	}
	return err
}

// Column codecs. Timestamps are unix milliseconds; birthdates are
// calendar dates.

const dateLayout = "2006-01-02"

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	n := int(ni.Int64)
	return &n
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// scanner is the subset of *sql.Row and *sql.Rows used by scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

// collect drains rows through scan. It returns an empty slice, not nil,
// when there are no rows.
func collect[T any](rows *sql.Rows, what string, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return out, nil
}

// one scans a single row, mapping sql.ErrNoRows to a not-found error.
func one[T any](row *sql.Row, entity, id string, scan func(scanner) (T, error)) (T, error) {
	v, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, model.NotFound(entity, id)
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("get %s: %w", entity, err)
	}
	return v, nil
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
