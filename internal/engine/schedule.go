package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/rbolet/every-player/internal/model"
	"github.com/rbolet/every-player/internal/rules"
	"github.com/rbolet/every-player/internal/store"
)

// GameInput describes a new game. Exactly one of AwayTeamID and
// OpponentName must be set. PlannedPeriods defaults to 4.
type GameInput struct {
	ID             string           `json:"id"`
	HomeTeamID     string           `json:"homeTeamId"`
	AwayTeamID     *string          `json:"awayTeamId"`
	OpponentName   *string          `json:"opponentName"`
	FormationID    *string          `json:"formationId"`
	PlannedPeriods int              `json:"plannedPeriods"`
	DateTime       time.Time        `json:"dateTime"`
	Location       string           `json:"location"`
	Status         model.GameStatus `json:"status"`
}

// Validate implements validation.Validatable.
func (in *GameInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.HomeTeamID, validation.Required),
		validation.Field(&in.OpponentName, notBlankIfSet),
		validation.Field(&in.PlannedPeriods, validation.Min(0)),
		validation.Field(&in.DateTime, validation.Required),
		validation.Field(&in.Status, validation.In(model.GameProjected, model.GameActual)),
	)
}

// CreateGame stores a new game after checking the opponent rule, that the
// teams exist, and that the active formation fits the home team's division.
func (e *Engine) CreateGame(ctx context.Context, in GameInput) (model.Game, error) {
	if err := validateInput("game", &in); err != nil {
		return model.Game{}, err
	}
	hasAway := in.AwayTeamID != nil && *in.AwayTeamID != ""
	hasOpponent := in.OpponentName != nil
	if hasAway == hasOpponent {
		return model.Game{}, model.NewValidationError("opponent", "exactly one of awayTeamId and opponentName must be set")
	}
	if hasAway && *in.AwayTeamID == in.HomeTeamID {
		return model.Game{}, model.NewValidationError("awayTeamId", "a team cannot play itself")
	}

	now := e.now()
	g := model.Game{
		ID:             e.newID(in.ID),
		HomeTeamID:     in.HomeTeamID,
		FormationID:    in.FormationID,
		PlannedPeriods: in.PlannedPeriods,
		DateTime:       in.DateTime.UTC(),
		Location:       strings.TrimSpace(in.Location),
		Status:         in.Status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if hasAway {
		g.AwayTeamID = in.AwayTeamID
	} else {
		g.OpponentName = model.Ptr(strings.TrimSpace(*in.OpponentName))
	}
	if g.PlannedPeriods == 0 {
		g.PlannedPeriods = rules.DefaultPeriodsPerGame
	}
	if g.Status == "" {
		g.Status = model.GameProjected
	}

	err := e.update(ctx, "create game", []zap.Field{zap.String("game_id", g.ID)}, func(tx *store.Tx) error {
		home, err := tx.GetTeam(g.HomeTeamID)
		if err != nil {
			return err
		}
		if hasAway {
			if _, err := tx.GetTeam(*g.AwayTeamID); err != nil {
				return err
			}
		}
		if g.FormationID != nil {
			if err := checkGameFormation(tx, home, *g.FormationID); err != nil {
				return err
			}
		}
		return tx.InsertGame(g)
	})
	if err != nil {
		return model.Game{}, fmt.Errorf("create game: %w", err)
	}
	return g, nil
}

func checkGameFormation(tx *store.Tx, home model.Team, formationID string) error {
	d, err := tx.DivisionForSeason(home.SeasonID)
	if err != nil {
		return err
	}
	f, err := tx.GetFormation(formationID)
	if err != nil {
		return err
	}
	return checkShape(d, f)
}

// SetGameFormation overrides the game's formation, or clears the override
// when formationID is nil. Every period's placed positions must belong to
// the new active formation.
func (e *Engine) SetGameFormation(ctx context.Context, gameID string, formationID *string) (model.Game, error) {
	periodIDs, err := e.gamePeriodIDs(ctx, gameID)
	if err != nil {
		return model.Game{}, fmt.Errorf("set game formation: %w", err)
	}
	unlock := e.locks.LockAll(periodIDs)
	defer unlock()

	var g model.Game
	fields := []zap.Field{zap.String("game_id", gameID)}
	err = e.update(ctx, "set game formation", fields, func(tx *store.Tx) error {
		var err error
		g, err = tx.GetGame(gameID)
		if err != nil {
			return err
		}
		home, err := tx.GetTeam(g.HomeTeamID)
		if err != nil {
			return err
		}
		active := home.DefaultFormationID
		if formationID != nil {
			if err := checkGameFormation(tx, home, *formationID); err != nil {
				return err
			}
			active = *formationID
		}
		allowed, err := formationPositionSet(tx, active)
		if err != nil {
			return err
		}
		if err := checkPlacements(tx, gameID, active, allowed); err != nil {
			return err
		}
		now := e.now()
		if err := tx.SetGameFormation(gameID, formationID, now); err != nil {
			return err
		}
		g.FormationID, g.UpdatedAt = formationID, now
		return nil
	})
	if err != nil {
		return model.Game{}, fmt.Errorf("set game formation: %w", err)
	}
	return g, nil
}

// checkPlacements rejects a formation change that would strand a placed
// row of gameID outside the allowed positions.
func checkPlacements(tx *store.Tx, gameID, formationID string, allowed map[string]bool) error {
	rows, err := tx.ListGameAssignments(gameID)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if r.PositionID != nil && r.Status != model.AssignmentAbsent && !allowed[*r.PositionID] {
			return &model.ConflictError{
				Code:     model.ConflictFormationMismatch,
				Message:  fmt.Sprintf("position %s is placed but not in formation %s", *r.PositionID, formationID),
				PeriodID: r.GamePeriodID,
				IDs:      []string{r.ID, *r.PositionID},
			}
		}
	}
	return nil
}

// AddPeriod adds period number n to a game. Numbers above the game's
// planned periods are overtime.
func (e *Engine) AddPeriod(ctx context.Context, gameID string, n int) (model.GamePeriod, error) {
	if n <= 0 {
		return model.GamePeriod{}, model.NewValidationError("periodNumber", "must be greater than 0")
	}
	now := e.now()
	p := model.GamePeriod{
		ID:           e.newID(""),
		GameID:       gameID,
		PeriodNumber: n,
		Status:       model.GameProjected,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	fields := []zap.Field{zap.String("game_id", gameID), zap.Int("period_number", n)}
	err := e.update(ctx, "add period", fields, func(tx *store.Tx) error {
		if _, err := tx.GetGame(gameID); err != nil {
			return err
		}
		existing, err := tx.ListPeriods(gameID)
		if err != nil {
			return err
		}
		for _, ep := range existing {
			if ep.PeriodNumber == n {
				return model.NewConflictError(model.ConflictDuplicate,
					fmt.Sprintf("game %s already has period %d", gameID, n), ep.ID)
			}
		}
		return tx.InsertPeriod(p)
	})
	if err != nil {
		return model.GamePeriod{}, fmt.Errorf("add period: %w", err)
	}
	return p, nil
}

// CreatePeriods creates the planned periods 1..plannedPeriods that do not
// exist yet and returns all of the game's periods.
func (e *Engine) CreatePeriods(ctx context.Context, gameID string) ([]model.GamePeriod, error) {
	var out []model.GamePeriod
	err := e.update(ctx, "create periods", []zap.Field{zap.String("game_id", gameID)}, func(tx *store.Tx) error {
		g, err := tx.GetGame(gameID)
		if err != nil {
			return err
		}
		existing, err := tx.ListPeriods(gameID)
		if err != nil {
			return err
		}
		have := make(map[int]bool, len(existing))
		for _, p := range existing {
			have[p.PeriodNumber] = true
		}
		now := e.now()
		for n := 1; n <= g.PlannedPeriods; n++ {
			if have[n] {
				continue
			}
			p := model.GamePeriod{
				ID:           e.newID(""),
				GameID:       gameID,
				PeriodNumber: n,
				Status:       model.GameProjected,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.InsertPeriod(p); err != nil {
				return err
			}
		}
		out, err = tx.ListPeriods(gameID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create periods: %w", err)
	}
	return out, nil
}

// checkStatusTransition allows PROJECTED → ACTUAL and no-op writes.
// ACTUAL is terminal.
func checkStatusTransition(what, id string, from, to model.GameStatus) error {
	if !to.Valid() {
		return model.NewValidationError("status", "invalid status %q", to)
	}
	if from == model.GameActual && to == model.GameProjected {
		return model.NewConflictError(model.ConflictStatusTransition,
			fmt.Sprintf("%s %s is ACTUAL and cannot return to PROJECTED", what, id), id)
	}
	return nil
}

// SetGameStatus moves a game from PROJECTED to ACTUAL.
func (e *Engine) SetGameStatus(ctx context.Context, gameID string, status model.GameStatus) (model.Game, error) {
	var g model.Game
	fields := []zap.Field{zap.String("game_id", gameID), zap.String("status", string(status))}
	err := e.update(ctx, "set game status", fields, func(tx *store.Tx) error {
		var err error
		g, err = tx.GetGame(gameID)
		if err != nil {
			return err
		}
		if err := checkStatusTransition("game", gameID, g.Status, status); err != nil {
			return err
		}
		if g.Status == status {
			return nil
		}
		now := e.now()
		if err := tx.SetGameStatus(gameID, status, now); err != nil {
			return err
		}
		g.Status, g.UpdatedAt = status, now
		return nil
	})
	if err != nil {
		return model.Game{}, fmt.Errorf("set game status: %w", err)
	}
	return g, nil
}

// SetPeriodStatus moves a period from PROJECTED to ACTUAL. Finalizing a
// period also finalizes its lineup: every PROJECTED row holding a player
// becomes ACTUAL. Empty slots stay PROJECTED.
func (e *Engine) SetPeriodStatus(ctx context.Context, periodID string, status model.PeriodStatus) (model.GamePeriod, error) {
	unlock := e.locks.Lock(periodID)
	defer unlock()

	var p model.GamePeriod
	fields := []zap.Field{zap.String("period_id", periodID), zap.String("status", string(status))}
	err := e.update(ctx, "set period status", fields, func(tx *store.Tx) error {
		var err error
		p, err = tx.GetPeriod(periodID)
		if err != nil {
			return err
		}
		if err := checkStatusTransition("period", periodID, p.Status, status); err != nil {
			return err
		}
		if p.Status == status {
			return nil
		}
		now := e.now()
		if err := tx.SetPeriodStatus(periodID, status, now); err != nil {
			return err
		}
		rows, err := tx.ListAssignments(periodID)
		if err != nil {
			return err
		}
		for _, r := range rows {
			if r.Status != model.AssignmentProjected || r.PlayerID == nil {
				continue
			}
			r.Status, r.UpdatedAt = model.AssignmentActual, now
			if err := tx.UpdateAssignment(r); err != nil {
				return err
			}
		}
		p.Status, p.UpdatedAt = status, now
		return nil
	})
	if err != nil {
		return model.GamePeriod{}, fmt.Errorf("set period status: %w", err)
	}
	return p, nil
}

// CreateEmptySlots tops a period up to its slot budget with empty
// PROJECTED rows and returns the period's rows.
func (e *Engine) CreateEmptySlots(ctx context.Context, periodID string) ([]model.GamePlayerAssignment, error) {
	unlock := e.locks.Lock(periodID)
	defer unlock()

	var out []model.GamePlayerAssignment
	err := e.update(ctx, "create empty slots", []zap.Field{zap.String("period_id", periodID)}, func(tx *store.Tx) error {
		pc, err := loadPeriodContext(tx, periodID)
		if err != nil {
			return err
		}
		now := e.now()
		for i := len(pc.rows); i < pc.budget; i++ {
			a := model.GamePlayerAssignment{
				ID:           e.newID(""),
				GamePeriodID: periodID,
				Status:       model.AssignmentProjected,
				Seq:          e.seq.Next(),
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.InsertAssignment(a); err != nil {
				return err
			}
		}
		out, err = tx.ListAssignments(periodID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create empty slots: %w", err)
	}
	return out, nil
}

// MarkAbsent records that playerID misses gameID and, in the same
// transaction, turns every row of that player in the game into an ABSENT
// row with no position. All of the game's periods are locked for the write.
func (e *Engine) MarkAbsent(ctx context.Context, gameID, playerID string) (model.GamePlayerAbsence, error) {
	periodIDs, err := e.gamePeriodIDs(ctx, gameID)
	if err != nil {
		return model.GamePlayerAbsence{}, fmt.Errorf("mark absent: %w", err)
	}
	unlock := e.locks.LockAll(periodIDs)
	defer unlock()

	now := e.now()
	a := model.GamePlayerAbsence{ID: e.newID(""), GameID: gameID, PlayerID: playerID, CreatedAt: now, UpdatedAt: now}
	fields := []zap.Field{zap.String("game_id", gameID), zap.String("player_id", playerID)}
	err = e.update(ctx, "mark absent", fields, func(tx *store.Tx) error {
		g, err := tx.GetGame(gameID)
		if err != nil {
			return err
		}
		if _, err := tx.GetPlayer(playerID); err != nil {
			return err
		}
		on, err := tx.IsOnRoster(g.HomeTeamID, playerID)
		if err != nil {
			return err
		}
		if !on {
			return model.NewConflictError(model.ConflictNotOnRoster,
				fmt.Sprintf("player %s is not on team %s", playerID, g.HomeTeamID), playerID, g.HomeTeamID)
		}
		absent, err := tx.IsAbsent(gameID, playerID)
		if err != nil {
			return err
		}
		if absent {
			return model.NewConflictError(model.ConflictDuplicate,
				fmt.Sprintf("player %s is already absent from game %s", playerID, gameID), playerID, gameID)
		}
		if err := tx.InsertAbsence(a); err != nil {
			return err
		}
		rows, err := tx.ListPlayerGameAssignments(gameID, playerID)
		if err != nil {
			return err
		}
		for _, r := range rows {
			if r.Status == model.AssignmentAbsent && r.PositionID == nil {
				continue
			}
			r.Status, r.PositionID, r.UpdatedAt = model.AssignmentAbsent, nil, now
			if err := tx.UpdateAssignment(r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.GamePlayerAbsence{}, fmt.Errorf("mark absent: %w", err)
	}
	return a, nil
}

// ClearAbsence removes the absence record. ABSENT rows are kept; moving a
// player back into the lineup is a normal Assign.
func (e *Engine) ClearAbsence(ctx context.Context, gameID, playerID string) error {
	fields := []zap.Field{zap.String("game_id", gameID), zap.String("player_id", playerID)}
	err := e.update(ctx, "clear absence", fields, func(tx *store.Tx) error {
		return tx.DeleteAbsence(gameID, playerID)
	})
	if err != nil {
		return fmt.Errorf("clear absence: %w", err)
	}
	return nil
}

func (e *Engine) gamePeriodIDs(ctx context.Context, gameID string) ([]string, error) {
	var ids []string
	err := e.view(ctx, func(tx *store.Tx) (err error) {
		ids, err = tx.CascadePeriodIDs(store.KindGame, gameID)
		return err
	})
	return ids, err
}

// GetGame returns a game by id.
func (e *Engine) GetGame(ctx context.Context, id string) (model.Game, error) {
	var g model.Game
	err := e.view(ctx, func(tx *store.Tx) (err error) {
		g, err = tx.GetGame(id)
		return err
	})
	return g, err
}

// ListGames returns the games a team plays, home or away.
func (e *Engine) ListGames(ctx context.Context, teamID string) ([]model.Game, error) {
	var out []model.Game
	err := e.view(ctx, func(tx *store.Tx) (err error) {
		out, err = tx.ListGames(teamID)
		return err
	})
	return out, err
}

// GetPeriod returns a period by id.
func (e *Engine) GetPeriod(ctx context.Context, id string) (model.GamePeriod, error) {
	var p model.GamePeriod
	err := e.view(ctx, func(tx *store.Tx) (err error) {
		p, err = tx.GetPeriod(id)
		return err
	})
	return p, err
}

// ListPeriods returns a game's periods by number.
func (e *Engine) ListPeriods(ctx context.Context, gameID string) ([]model.GamePeriod, error) {
	var out []model.GamePeriod
	err := e.view(ctx, func(tx *store.Tx) (err error) {
		out, err = tx.ListPeriods(gameID)
		return err
	})
	return out, err
}

// ListAbsences returns a game's absence records.
func (e *Engine) ListAbsences(ctx context.Context, gameID string) ([]model.GamePlayerAbsence, error) {
	var out []model.GamePlayerAbsence
	err := e.view(ctx, func(tx *store.Tx) (err error) {
		out, err = tx.ListAbsences(gameID)
		return err
	})
	return out, err
}
