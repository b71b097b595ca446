package engine

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/rbolet/every-player/internal/model"
	"github.com/rbolet/every-player/internal/store"
)

// DivisionInput describes a new division. ID is generated when empty.
type DivisionInput struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	PlayersCount int     `json:"playersCount"`
	RosterMax    int     `json:"rosterMax"`
	NoGK         bool    `json:"noGk"`
}

// Validate implements validation.Validatable.
func (in *DivisionInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Name, validation.Required, notBlank),
		validation.Field(&in.PlayersCount, validation.Required, validation.Min(1)),
		validation.Field(&in.RosterMax, validation.Required, validation.Min(1), validation.Min(in.PlayersCount)),
	)
}

// CreateDivision stores a new division. rosterMax must be at least
// playersCount.
func (e *Engine) CreateDivision(ctx context.Context, in DivisionInput) (model.Division, error) {
	if err := validateInput("division", &in); err != nil {
		return model.Division{}, err
	}
	now := e.now()
	d := model.Division{
		ID:           e.newID(in.ID),
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		PlayersCount: in.PlayersCount,
		RosterMax:    in.RosterMax,
		NoGK:         in.NoGK,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := e.update(ctx, "create division", []zap.Field{zap.String("division_id", d.ID)}, func(tx *store.Tx) error {
		return tx.InsertDivision(d)
	})
	if err != nil {
		return model.Division{}, fmt.Errorf("create division: %w", err)
	}
	return d, nil
}

// LeagueInput describes a new league.
type LeagueInput struct {
	ID          string  `json:"id"`
	DivisionID  string  `json:"divisionId"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// Validate implements validation.Validatable.
func (in *LeagueInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.DivisionID, validation.Required),
		validation.Field(&in.Name, validation.Required, notBlank),
	)
}

// CreateLeague stores a new league under an existing division.
func (e *Engine) CreateLeague(ctx context.Context, in LeagueInput) (model.League, error) {
	if err := validateInput("league", &in); err != nil {
		return model.League{}, err
	}
	now := e.now()
	l := model.League{
		ID:          e.newID(in.ID),
		DivisionID:  in.DivisionID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := e.update(ctx, "create league", []zap.Field{zap.String("league_id", l.ID)}, func(tx *store.Tx) error {
		if _, err := tx.GetDivision(l.DivisionID); err != nil {
			return err
		}
		return tx.InsertLeague(l)
	})
	if err != nil {
		return model.League{}, fmt.Errorf("create league: %w", err)
	}
	return l, nil
}

// SeasonInput describes a new season.
type SeasonInput struct {
	ID          string  `json:"id"`
	LeagueID    string  `json:"leagueId"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// Validate implements validation.Validatable.
func (in *SeasonInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.LeagueID, validation.Required),
		validation.Field(&in.Name, validation.Required, notBlank),
	)
}

// CreateSeason stores a new season under an existing league.
func (e *Engine) CreateSeason(ctx context.Context, in SeasonInput) (model.Season, error) {
	if err := validateInput("season", &in); err != nil {
		return model.Season{}, err
	}
	now := e.now()
	s := model.Season{
		ID:          e.newID(in.ID),
		LeagueID:    in.LeagueID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := e.update(ctx, "create season", []zap.Field{zap.String("season_id", s.ID)}, func(tx *store.Tx) error {
		if _, err := tx.GetLeague(s.LeagueID); err != nil {
			return err
		}
		return tx.InsertSeason(s)
	})
	if err != nil {
		return model.Season{}, fmt.Errorf("create season: %w", err)
	}
	return s, nil
}

// PositionInput describes a new position.
type PositionInput struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Type         string `json:"type"`
	DisplayOrder int    `json:"displayOrder"`
}

// Validate implements validation.Validatable.
func (in *PositionInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Name, validation.Required, notBlank),
		validation.Field(&in.Abbreviation, validation.Required, notBlank),
		validation.Field(&in.Type, validation.Required, validation.In("GK", "DEF", "MID", "FWD")),
		validation.Field(&in.DisplayOrder, validation.Required, validation.Min(1)),
	)
}

// CreatePosition stores a new position. Abbreviations are globally unique.
func (e *Engine) CreatePosition(ctx context.Context, in PositionInput) (model.Position, error) {
	if err := validateInput("position", &in); err != nil {
		return model.Position{}, err
	}
	typ, err := model.ParsePositionType(in.Type)
	if err != nil {
		return model.Position{}, model.NewValidationError("type", "%v", err)
	}
	now := e.now()
	p := model.Position{
		ID:           e.newID(in.ID),
		Name:         strings.TrimSpace(in.Name),
		Abbreviation: strings.TrimSpace(in.Abbreviation),
		Type:         typ,
		DisplayOrder: in.DisplayOrder,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = e.update(ctx, "create position", []zap.Field{zap.String("position_id", p.ID)}, func(tx *store.Tx) error {
		return tx.InsertPosition(p)
	})
	if err != nil {
		return model.Position{}, fmt.Errorf("create position: %w", err)
	}
	return p, nil
}

// FormationInput describes a new formation.
type FormationInput struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	PlayersCount int     `json:"playersCount"`
	NoGK         bool    `json:"noGk"`
}

// Validate implements validation.Validatable.
func (in *FormationInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Name, validation.Required, notBlank),
		validation.Field(&in.PlayersCount, validation.Required, validation.Min(1)),
	)
}

// CreateFormation stores a new formation. The triple (name, playersCount,
// noGk) is unique; names compare after trimming and NFC normalization.
func (e *Engine) CreateFormation(ctx context.Context, in FormationInput) (model.Formation, error) {
	if err := validateInput("formation", &in); err != nil {
		return model.Formation{}, err
	}
	now := e.now()
	f := model.Formation{
		ID:           e.newID(in.ID),
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		PlayersCount: in.PlayersCount,
		NoGK:         in.NoGK,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	key := model.NormalizeName(in.Name)
	err := e.update(ctx, "create formation", []zap.Field{zap.String("formation_id", f.ID)}, func(tx *store.Tx) error {
		existing, ok, err := tx.FindFormation(key, f.Shape())
		if err != nil {
			return err
		}
		if ok {
			return model.NewConflictError(model.ConflictDuplicate,
				fmt.Sprintf("formation %q with %d players (noGk=%t) already exists", f.Name, f.PlayersCount, f.NoGK),
				existing.ID)
		}
		return tx.InsertFormation(f, key)
	})
	if err != nil {
		return model.Formation{}, fmt.Errorf("create formation: %w", err)
	}
	return f, nil
}

// AttachPosition adds positionID to formationID at displayOrder.
//
// Fails with a ValidationError when the display order is taken, the
// position is already attached, the formation is full, or a GK position is
// attached to a noGk formation.
func (e *Engine) AttachPosition(ctx context.Context, formationID, positionID string, displayOrder int) (model.FormationPosition, error) {
	if displayOrder <= 0 {
		return model.FormationPosition{}, model.NewValidationError("displayOrder", "must be greater than 0")
	}
	now := e.now()
	fp := model.FormationPosition{
		ID:           e.newID(""),
		FormationID:  formationID,
		PositionID:   positionID,
		DisplayOrder: displayOrder,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	fields := []zap.Field{zap.String("formation_id", formationID), zap.String("position_id", positionID)}
	err := e.update(ctx, "attach position", fields, func(tx *store.Tx) error {
		f, err := tx.GetFormation(formationID)
		if err != nil {
			return err
		}
		p, err := tx.GetPosition(positionID)
		if err != nil {
			return err
		}
		if f.NoGK && p.Type == model.PositionGK {
			return model.NewValidationError("positionId", "formation %s has no goalkeeper; cannot attach %s", f.Name, p.Abbreviation)
		}
		attached, err := tx.ListFormationPositions(formationID)
		if err != nil {
			return err
		}
		for _, a := range attached {
			if a.DisplayOrder == displayOrder {
				return model.NewValidationError("displayOrder", "display order %d already used by position %s", displayOrder, a.PositionID)
			}
			if a.PositionID == positionID {
				return model.NewValidationError("positionId", "position %s already attached", positionID)
			}
		}
		if len(attached)+1 > f.PlayersCount {
			return model.NewValidationError("positionId", "formation %s already has %d of %d positions", f.Name, len(attached), f.PlayersCount)
		}
		return tx.InsertFormationPosition(fp)
	})
	if err != nil {
		return model.FormationPosition{}, fmt.Errorf("attach position: %w", err)
	}
	return fp, nil
}

// DetachPosition removes positionID from formationID. It fails with IN_USE
// while a game played in the formation still has the position placed.
func (e *Engine) DetachPosition(ctx context.Context, formationID, positionID string) error {
	var periodIDs []string
	err := e.view(ctx, func(tx *store.Tx) (err error) {
		periodIDs, err = tx.FormationPeriodIDs(formationID)
		return err
	})
	if err != nil {
		return fmt.Errorf("detach position: %w", err)
	}
	unlock := e.locks.LockAll(periodIDs)
	defer unlock()

	fields := []zap.Field{zap.String("formation_id", formationID), zap.String("position_id", positionID)}
	err = e.update(ctx, "detach position", fields, func(tx *store.Tx) error {
		games, err := tx.ListFormationGames(formationID)
		if err != nil {
			return err
		}
		for _, g := range games {
			rows, err := tx.ListGameAssignments(g.ID)
			if err != nil {
				return err
			}
			for _, r := range rows {
				if r.Status == model.AssignmentAbsent || model.Deref(r.PositionID) != positionID {
					continue
				}
				return &model.ConflictError{
					Code:     model.ConflictInUse,
					Message:  fmt.Sprintf("position %s is placed in game %s", positionID, g.ID),
					PeriodID: r.GamePeriodID,
					IDs:      []string{r.ID, positionID},
				}
			}
		}
		return tx.DeleteFormationPosition(formationID, positionID)
	})
	if err != nil {
		return fmt.Errorf("detach position: %w", err)
	}
	return nil
}

// IsFormationComplete reports whether the formation has exactly as many
// positions as players. GK positions do not count toward a noGk formation.
func (e *Engine) IsFormationComplete(ctx context.Context, formationID string) (bool, error) {
	var complete bool
	err := e.view(ctx, func(tx *store.Tx) error {
		f, err := tx.GetFormation(formationID)
		if err != nil {
			return err
		}
		attached, err := tx.ListFormationPositions(formationID)
		if err != nil {
			return err
		}
		n := 0
		for _, a := range attached {
			if f.NoGK {
				p, err := tx.GetPosition(a.PositionID)
				if err != nil {
					return err
				}
				if p.Type == model.PositionGK {
					continue
				}
			}
			n++
		}
		complete = n == f.PlayersCount
		return nil
	})
	return complete, err
}

// GetDivision returns a division by id.
func (e *Engine) GetDivision(ctx context.Context, id string) (model.Division, error) {
	var d model.Division
	err := e.view(ctx, func(tx *store.Tx) (err error) {
		d, err = tx.GetDivision(id)
		return err
	})
	return d, err
}

// ListDivisions returns all divisions.
func (e *Engine) ListDivisions(ctx context.Context) ([]model.Division, error) {
	var out []model.Division
	err := e.view(ctx, func(tx *store.Tx) (err error) {
		out, err = tx.ListDivisions()
		return err
	})
	return out, err
}

// ListLeagues returns the leagues of a division.
func (e *Engine) ListLeagues(ctx context.Context, divisionID string) ([]model.League, error) {
	var out []model.League
	err := e.view(ctx, func(tx *store.Tx) (err error) {
		out, err = tx.ListLeagues(divisionID)
		return err
	})
	return out, err
}

// ListSeasons returns the seasons of a league.
func (e *Engine) ListSeasons(ctx context.Context, leagueID string) ([]model.Season, error) {
	var out []model.Season
	err := e.view(ctx, func(tx *store.Tx) (err error) {
		out, err = tx.ListSeasons(leagueID)
		return err
	})
	return out, err
}

// GetFormation returns a formation by id.
func (e *Engine) GetFormation(ctx context.Context, id string) (model.Formation, error) {
	var f model.Formation
	err := e.view(ctx, func(tx *store.Tx) (err error) {
		f, err = tx.GetFormation(id)
		return err
	})
	return f, err
}

// ListFormations returns all formations.
func (e *Engine) ListFormations(ctx context.Context) ([]model.Formation, error) {
	var out []model.Formation
	err := e.view(ctx, func(tx *store.Tx) (err error) {
		out, err = tx.ListFormations()
		return err
	})
	return out, err
}

// ListCompatibleFormations returns the formations whose shape matches the
// division's.
func (e *Engine) ListCompatibleFormations(ctx context.Context, divisionID string) ([]model.Formation, error) {
	var out []model.Formation
	err := e.view(ctx, func(tx *store.Tx) error {
		d, err := tx.GetDivision(divisionID)
		if err != nil {
			return err
		}
		out, err = tx.ListFormationsByShape(d.Shape())
		return err
	})
	return out, err
}

// ListFormationPositions returns a formation's positions in display order.
func (e *Engine) ListFormationPositions(ctx context.Context, formationID string) ([]model.FormationPosition, error) {
	var out []model.FormationPosition
	err := e.view(ctx, func(tx *store.Tx) error {
		if _, err := tx.GetFormation(formationID); err != nil {
			return err
		}
		var err error
		out, err = tx.ListFormationPositions(formationID)
		return err
	})
	return out, err
}

// ListPositions returns all positions in display order.
func (e *Engine) ListPositions(ctx context.Context) ([]model.Position, error) {
	var out []model.Position
	err := e.view(ctx, func(tx *store.Tx) (err error) {
		out, err = tx.ListPositions()
		return err
	})
	return out, err
}

// checkShape returns a FORMATION_MISMATCH conflict when f does not fit d.
func checkShape(d model.Division, f model.Formation) error {
	if d.Shape() == f.Shape() {
		return nil
	}
	return model.NewConflictError(model.ConflictFormationMismatch,
		fmt.Sprintf("formation %s (%d players, noGk=%t) does not fit division %s (%d players, noGk=%t)",
			f.Name, f.PlayersCount, f.NoGK, d.Name, d.PlayersCount, d.NoGK),
		f.ID, d.ID)
}
