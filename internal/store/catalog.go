package store

import (
	"database/sql"

	"github.com/rbolet/every-player/internal/model"
)

// Divisions

func (t *Tx) InsertDivision(d model.Division) error {
	_, err := t.exec(`
		INSERT INTO divisions
		(id, name, description, players_count, roster_max, no_gk, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Name, nullString(d.Description), d.PlayersCount, d.RosterMax, boolInt(d.NoGK),
		toMillis(d.CreatedAt), toMillis(d.UpdatedAt))
	if err != nil {
		return mapConstraintError("division", err)
	}
	return nil
}

const divisionColumns = `id, name, description, players_count, roster_max, no_gk, created_at, updated_at`

func scanDivision(s scanner) (model.Division, error) {
	var (
		d                model.Division
		desc             sql.NullString
		created, updated int64
	)
	if err := s.Scan(&d.ID, &d.Name, &desc, &d.PlayersCount, &d.RosterMax, &d.NoGK, &created, &updated); err != nil {
		return model.Division{}, err
	}
	d.Description = stringPtr(desc)
	d.CreatedAt, d.UpdatedAt = fromMillis(created), fromMillis(updated)
	return d, nil
}

func (t *Tx) GetDivision(id string) (model.Division, error) {
	return one(t.queryRow(`SELECT `+divisionColumns+` FROM divisions WHERE id = ?`, id), "division", id, scanDivision)
}

// ListDivisions returns all divisions ordered by name.
func (t *Tx) ListDivisions() ([]model.Division, error) {
	rows, err := t.query(`SELECT ` + divisionColumns + ` FROM divisions ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, "divisions", scanDivision)
}

// Leagues

func (t *Tx) InsertLeague(l model.League) error {
	_, err := t.exec(`
		INSERT INTO leagues (id, division_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, l.ID, l.DivisionID, l.Name, nullString(l.Description), toMillis(l.CreatedAt), toMillis(l.UpdatedAt))
	if err != nil {
		return mapConstraintError("league", err)
	}
	return nil
}

const leagueColumns = `id, division_id, name, description, created_at, updated_at`

func scanLeague(s scanner) (model.League, error) {
	var (
		l                model.League
		desc             sql.NullString
		created, updated int64
	)
	if err := s.Scan(&l.ID, &l.DivisionID, &l.Name, &desc, &created, &updated); err != nil {
		return model.League{}, err
	}
	l.Description = stringPtr(desc)
	l.CreatedAt, l.UpdatedAt = fromMillis(created), fromMillis(updated)
	return l, nil
}

func (t *Tx) GetLeague(id string) (model.League, error) {
	return one(t.queryRow(`SELECT `+leagueColumns+` FROM leagues WHERE id = ?`, id), "league", id, scanLeague)
}

// ListLeagues returns the leagues of a division ordered by name.
func (t *Tx) ListLeagues(divisionID string) ([]model.League, error) {
	rows, err := t.query(`SELECT `+leagueColumns+` FROM leagues WHERE division_id = ? ORDER BY name, id`, divisionID)
	if err != nil {
		return nil, err
	}
	return collect(rows, "leagues", scanLeague)
}

// Seasons

func (t *Tx) InsertSeason(s model.Season) error {
	_, err := t.exec(`
		INSERT INTO seasons (id, league_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.ID, s.LeagueID, s.Name, nullString(s.Description), toMillis(s.CreatedAt), toMillis(s.UpdatedAt))
	if err != nil {
		return mapConstraintError("season", err)
	}
	return nil
}

const seasonColumns = `id, league_id, name, description, created_at, updated_at`

func scanSeason(sc scanner) (model.Season, error) {
	var (
		s                model.Season
		desc             sql.NullString
		created, updated int64
	)
	if err := sc.Scan(&s.ID, &s.LeagueID, &s.Name, &desc, &created, &updated); err != nil {
		return model.Season{}, err
	}
	s.Description = stringPtr(desc)
	s.CreatedAt, s.UpdatedAt = fromMillis(created), fromMillis(updated)
	return s, nil
}

func (t *Tx) GetSeason(id string) (model.Season, error) {
	return one(t.queryRow(`SELECT `+seasonColumns+` FROM seasons WHERE id = ?`, id), "season", id, scanSeason)
}

// ListSeasons returns the seasons of a league ordered by name.
func (t *Tx) ListSeasons(leagueID string) ([]model.Season, error) {
	rows, err := t.query(`SELECT `+seasonColumns+` FROM seasons WHERE league_id = ? ORDER BY name, id`, leagueID)
	if err != nil {
		return nil, err
	}
	return collect(rows, "seasons", scanSeason)
}

// DivisionForSeason resolves the division a season belongs to.
func (t *Tx) DivisionForSeason(seasonID string) (model.Division, error) {
	row := t.queryRow(`
		SELECT d.id, d.name, d.description, d.players_count, d.roster_max, d.no_gk, d.created_at, d.updated_at
		FROM seasons s
		JOIN leagues l ON l.id = s.league_id
		JOIN divisions d ON d.id = l.division_id
		WHERE s.id = ?
	`, seasonID)
	return one(row, "season", seasonID, scanDivision)
}

// Formations

// InsertFormation stores f. normalizedName is the key used for the
// (name, playersCount, noGk) uniqueness check.
func (t *Tx) InsertFormation(f model.Formation, normalizedName string) error {
	_, err := t.exec(`
		INSERT INTO formations
		(id, name, normalized_name, description, players_count, no_gk, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, f.ID, f.Name, normalizedName, nullString(f.Description), f.PlayersCount, boolInt(f.NoGK),
		toMillis(f.CreatedAt), toMillis(f.UpdatedAt))
	if err != nil {
		return mapConstraintError("formation", err)
	}
	return nil
}

const formationColumns = `id, name, description, players_count, no_gk, created_at, updated_at`

func scanFormation(s scanner) (model.Formation, error) {
	var (
		f                model.Formation
		desc             sql.NullString
		created, updated int64
	)
	if err := s.Scan(&f.ID, &f.Name, &desc, &f.PlayersCount, &f.NoGK, &created, &updated); err != nil {
		return model.Formation{}, err
	}
	f.Description = stringPtr(desc)
	f.CreatedAt, f.UpdatedAt = fromMillis(created), fromMillis(updated)
	return f, nil
}

func (t *Tx) GetFormation(id string) (model.Formation, error) {
	return one(t.queryRow(`SELECT `+formationColumns+` FROM formations WHERE id = ?`, id), "formation", id, scanFormation)
}

// FindFormation looks a formation up by its uniqueness triple. ok is false
// when none exists.
func (t *Tx) FindFormation(normalizedName string, shape model.Shape) (f model.Formation, ok bool, err error) {
	rows, err := t.query(`
		SELECT `+formationColumns+` FROM formations
		WHERE normalized_name = ? AND players_count = ? AND no_gk = ?
	`, normalizedName, shape.PlayersCount, boolInt(shape.NoGK))
	if err != nil {
		return model.Formation{}, false, err
	}
	found, err := collect(rows, "formations", scanFormation)
	if err != nil || len(found) == 0 {
		return model.Formation{}, false, err
	}
	return found[0], true, nil
}

// ListFormations returns all formations ordered by players count, then name.
func (t *Tx) ListFormations() ([]model.Formation, error) {
	rows, err := t.query(`SELECT ` + formationColumns + ` FROM formations ORDER BY players_count, name, id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, "formations", scanFormation)
}

// ListFormationsByShape returns the formations matching shape.
func (t *Tx) ListFormationsByShape(shape model.Shape) ([]model.Formation, error) {
	rows, err := t.query(`
		SELECT `+formationColumns+` FROM formations
		WHERE players_count = ? AND no_gk = ?
		ORDER BY name, id
	`, shape.PlayersCount, boolInt(shape.NoGK))
	if err != nil {
		return nil, err
	}
	return collect(rows, "formations", scanFormation)
}

// Positions

func (t *Tx) InsertPosition(p model.Position) error {
	_, err := t.exec(`
		INSERT INTO positions (id, name, abbreviation, type, display_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Abbreviation, string(p.Type), p.DisplayOrder, toMillis(p.CreatedAt), toMillis(p.UpdatedAt))
	if err != nil {
		return mapConstraintError("position", err)
	}
	return nil
}

const positionColumns = `id, name, abbreviation, type, display_order, created_at, updated_at`

func scanPosition(s scanner) (model.Position, error) {
	var (
		p                model.Position
		typ              string
		created, updated int64
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Abbreviation, &typ, &p.DisplayOrder, &created, &updated); err != nil {
		return model.Position{}, err
	}
	p.Type = model.PositionType(typ)
	p.CreatedAt, p.UpdatedAt = fromMillis(created), fromMillis(updated)
	return p, nil
}

func (t *Tx) GetPosition(id string) (model.Position, error) {
	return one(t.queryRow(`SELECT `+positionColumns+` FROM positions WHERE id = ?`, id), "position", id, scanPosition)
}

// ListPositions returns all positions in display order.
func (t *Tx) ListPositions() ([]model.Position, error) {
	rows, err := t.query(`SELECT ` + positionColumns + ` FROM positions ORDER BY display_order, id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, "positions", scanPosition)
}

// Formation positions

func (t *Tx) InsertFormationPosition(fp model.FormationPosition) error {
	_, err := t.exec(`
		INSERT INTO formation_positions
		(id, formation_id, position_id, display_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, fp.ID, fp.FormationID, fp.PositionID, fp.DisplayOrder, toMillis(fp.CreatedAt), toMillis(fp.UpdatedAt))
	if err != nil {
		return mapConstraintError("formation position", err)
	}
	return nil
}

func scanFormationPosition(s scanner) (model.FormationPosition, error) {
	var (
		fp               model.FormationPosition
		created, updated int64
	)
	if err := s.Scan(&fp.ID, &fp.FormationID, &fp.PositionID, &fp.DisplayOrder, &created, &updated); err != nil {
		return model.FormationPosition{}, err
	}
	fp.CreatedAt, fp.UpdatedAt = fromMillis(created), fromMillis(updated)
	return fp, nil
}

// ListFormationPositions returns formation's positions in display order.
func (t *Tx) ListFormationPositions(formationID string) ([]model.FormationPosition, error) {
	rows, err := t.query(`
		SELECT id, formation_id, position_id, display_order, created_at, updated_at
		FROM formation_positions
		WHERE formation_id = ?
		ORDER BY display_order, id
	`, formationID)
	if err != nil {
		return nil, err
	}
	return collect(rows, "formation positions", scanFormationPosition)
}

// DeleteFormationPosition detaches positionID from formationID.
func (t *Tx) DeleteFormationPosition(formationID, positionID string) error {
	return t.execOne("formation position", formationID+"/"+positionID,
		`DELETE FROM formation_positions WHERE formation_id = ? AND position_id = ?`, formationID, positionID)
}
