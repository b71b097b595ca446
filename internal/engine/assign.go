package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rbolet/every-player/internal/model"
	"github.com/rbolet/every-player/internal/store"
)

// AssignInput is a constrained upsert of one period row.
//
// The chosen row ends up holding exactly PlayerID, PositionID and Status.
// ABSENT rows never hold a position; a PositionID given with ABSENT is
// dropped.
type AssignInput struct {
	PeriodID     string
	AssignmentID string
	PlayerID     *string
	PositionID   *string
	Status       model.AssignmentStatus
}

// Assign writes one row of a period after validating the period's proposed
// full set of rows. The target row is, in order:
//  1. AssignmentID, when given (it must belong to the period)
//  2. the non-ABSENT row holding PositionID (its occupant is replaced)
//  3. the player's row, when it has no position and PositionID is given
//  4. the oldest empty row, when a player or position is given
//  5. a new row, within the slot budget
//
// A violation returns a ConflictError and writes nothing. Other periods
// are never touched.
func (e *Engine) Assign(ctx context.Context, in AssignInput) (model.GamePlayerAssignment, error) {
	if in.Status == "" {
		in.Status = model.AssignmentProjected
	}
	if !in.Status.Valid() {
		return model.GamePlayerAssignment{}, model.NewValidationError("status", "invalid assignment status %q", in.Status)
	}
	if in.Status == model.AssignmentAbsent {
		if in.PlayerID == nil {
			return model.GamePlayerAssignment{}, model.NewValidationError("playerId", "ABSENT assignments must name a player")
		}
		in.PositionID = nil
	}

	unlock := e.locks.Lock(in.PeriodID)
	defer unlock()

	var out model.GamePlayerAssignment
	fields := []zap.Field{zap.String("period_id", in.PeriodID)}
	if in.PlayerID != nil {
		fields = append(fields, zap.String("player_id", *in.PlayerID))
	}
	if in.PositionID != nil {
		fields = append(fields, zap.String("position_id", *in.PositionID))
	}
	err := e.update(ctx, "assign", fields, func(tx *store.Tx) error {
		pc, err := loadPeriodContext(tx, in.PeriodID)
		if err != nil {
			return err
		}
		if err := checkReferences(tx, pc, in.PlayerID, in.PositionID); err != nil {
			return err
		}

		idx, err := pc.selectTarget(in)
		if err != nil {
			return err
		}

		now := e.now()
		proposed := append([]model.GamePlayerAssignment(nil), pc.rows...)
		var row model.GamePlayerAssignment
		if idx >= 0 {
			row = proposed[idx]
			if err := pc.checkRowTransition(row, in.Status); err != nil {
				return err
			}
		} else {
			row = model.GamePlayerAssignment{
				ID:           e.newID(""),
				GamePeriodID: in.PeriodID,
				CreatedAt:    now,
			}
		}
		row.PlayerID, row.PositionID, row.Status, row.UpdatedAt = in.PlayerID, in.PositionID, in.Status, now
		if idx >= 0 {
			proposed[idx] = row
		} else {
			proposed = append(proposed, row)
		}

		if err := pc.validateOccupancy(proposed); err != nil {
			return err
		}

		if idx >= 0 {
			if err := tx.UpdateAssignment(row); err != nil {
				return err
			}
		} else {
			row.Seq = e.seq.Next()
			if err := tx.InsertAssignment(row); err != nil {
				return err
			}
		}
		out = row
		return nil
	})
	if err != nil {
		return model.GamePlayerAssignment{}, fmt.Errorf("assign: %w", err)
	}
	return out, nil
}

// checkReferences resolves the player and position of a write: both must
// exist, and the player must be on the home team's roster.
func checkReferences(tx *store.Tx, pc *periodContext, playerID, positionID *string) error {
	if playerID != nil {
		if _, err := tx.GetPlayer(*playerID); err != nil {
			return err
		}
		on, err := tx.IsOnRoster(pc.team.ID, *playerID)
		if err != nil {
			return err
		}
		if !on {
			return &model.ConflictError{
				Code:     model.ConflictNotOnRoster,
				Message:  fmt.Sprintf("player %s is not on team %s", *playerID, pc.team.Name),
				PeriodID: pc.period.ID,
				IDs:      []string{*playerID, pc.team.ID},
			}
		}
	}
	if positionID != nil {
		if _, err := tx.GetPosition(*positionID); err != nil {
			return err
		}
	}
	return nil
}

// selectTarget returns the index into pc.rows of the row to overwrite, or
// -1 for a new row.
func (pc *periodContext) selectTarget(in AssignInput) (int, error) {
	if in.AssignmentID != "" {
		for i, r := range pc.rows {
			if r.ID == in.AssignmentID {
				return i, nil
			}
		}
		return -1, &model.ReferentialIntegrityError{
			Entity:  "assignment",
			ID:      in.AssignmentID,
			Message: "not found in period " + pc.period.ID,
		}
	}

	if in.PositionID != nil {
		for i, r := range pc.rows {
			if r.Status != model.AssignmentAbsent && model.EqualPtr(r.PositionID, in.PositionID) {
				return i, nil
			}
		}
	}

	if in.PlayerID != nil && in.PositionID != nil {
		for i, r := range pc.rows {
			if model.EqualPtr(r.PlayerID, in.PlayerID) && r.PositionID == nil {
				return i, nil
			}
		}
	}

	if in.PlayerID != nil || in.PositionID != nil {
		for i, r := range pc.rows {
			if r.IsEmpty() {
				return i, nil
			}
		}
	}

	return -1, nil
}

// checkRowTransition rejects moving a terminal row back to PROJECTED once
// the period itself is ACTUAL.
func (pc *periodContext) checkRowTransition(row model.GamePlayerAssignment, to model.AssignmentStatus) error {
	if pc.period.Status == model.GameActual && row.Status.Terminal() && to == model.AssignmentProjected {
		return &model.ConflictError{
			Code:     model.ConflictStatusTransition,
			Message:  fmt.Sprintf("row %s is %s in an ACTUAL period", row.ID, row.Status),
			PeriodID: pc.period.ID,
			IDs:      []string{row.ID},
		}
	}
	return nil
}

// SwapPlayers exchanges the players of two rows of the same period in one
// transaction. Positions and statuses stay with their rows, so a row
// tagged ABSENT cannot take part.
func (e *Engine) SwapPlayers(ctx context.Context, periodID, assignmentA, assignmentB string) (model.GamePlayerAssignment, model.GamePlayerAssignment, error) {
	if assignmentA == assignmentB {
		return model.GamePlayerAssignment{}, model.GamePlayerAssignment{},
			model.NewValidationError("assignmentId", "cannot swap a row with itself")
	}

	unlock := e.locks.Lock(periodID)
	defer unlock()

	var a, b model.GamePlayerAssignment
	fields := []zap.Field{zap.String("period_id", periodID), zap.String("a", assignmentA), zap.String("b", assignmentB)}
	err := e.update(ctx, "swap players", fields, func(tx *store.Tx) error {
		pc, err := loadPeriodContext(tx, periodID)
		if err != nil {
			return err
		}
		ia, ib := -1, -1
		for i, r := range pc.rows {
			switch r.ID {
			case assignmentA:
				ia = i
			case assignmentB:
				ib = i
			}
		}
		for _, missing := range []struct {
			idx int
			id  string
		}{{ia, assignmentA}, {ib, assignmentB}} {
			if missing.idx < 0 {
				return &model.ReferentialIntegrityError{
					Entity:  "assignment",
					ID:      missing.id,
					Message: "not found in period " + periodID,
				}
			}
		}

		for _, r := range []model.GamePlayerAssignment{pc.rows[ia], pc.rows[ib]} {
			if r.Status == model.AssignmentAbsent {
				return &model.ConflictError{
					Code:     model.ConflictPlayerAbsent,
					Message:  fmt.Sprintf("row %s is ABSENT and cannot be swapped", r.ID),
					PeriodID: periodID,
					IDs:      []string{r.ID, model.Deref(r.PlayerID)},
				}
			}
		}

		proposed := append([]model.GamePlayerAssignment(nil), pc.rows...)
		now := e.now()
		a, b = proposed[ia], proposed[ib]
		a.PlayerID, b.PlayerID = b.PlayerID, a.PlayerID
		a.UpdatedAt, b.UpdatedAt = now, now
		proposed[ia], proposed[ib] = a, b

		for _, r := range []model.GamePlayerAssignment{a, b} {
			if r.PlayerID == nil {
				continue
			}
			on, err := tx.IsOnRoster(pc.team.ID, *r.PlayerID)
			if err != nil {
				return err
			}
			if !on {
				return &model.ConflictError{
					Code:     model.ConflictNotOnRoster,
					Message:  fmt.Sprintf("player %s is not on team %s", *r.PlayerID, pc.team.Name),
					PeriodID: periodID,
					IDs:      []string{*r.PlayerID, pc.team.ID},
				}
			}
		}
		if err := pc.validateOccupancy(proposed); err != nil {
			return err
		}

		// Park a's player first so the per-period player index never
		// sees the same player on both rows.
		parked := pc.rows[ia]
		parked.PlayerID, parked.UpdatedAt = nil, now
		if err := tx.UpdateAssignment(parked); err != nil {
			return err
		}
		if err := tx.UpdateAssignment(b); err != nil {
			return err
		}
		return tx.UpdateAssignment(a)
	})
	if err != nil {
		return model.GamePlayerAssignment{}, model.GamePlayerAssignment{}, fmt.Errorf("swap players: %w", err)
	}
	return a, b, nil
}
