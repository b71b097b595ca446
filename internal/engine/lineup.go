package engine

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rbolet/every-player/internal/model"
	"github.com/rbolet/every-player/internal/store"
)

// periodContext is everything needed to validate a write to one period.
type periodContext struct {
	period    model.GamePeriod
	game      model.Game
	team      model.Team
	division  model.Division
	formation model.Formation
	slots     []model.FormationPosition
	allowed   map[string]bool
	absent    map[string]bool
	budget    int
	rows      []model.GamePlayerAssignment
}

// activeFormationID is the game's override, else the home team default.
func activeFormationID(g model.Game, home model.Team) string {
	if g.FormationID != nil {
		return *g.FormationID
	}
	return home.DefaultFormationID
}

func loadPeriodContext(tx *store.Tx, periodID string) (*periodContext, error) {
	pc := &periodContext{}
	var err error
	if pc.period, err = tx.GetPeriod(periodID); err != nil {
		return nil, err
	}
	if pc.game, err = tx.GetGame(pc.period.GameID); err != nil {
		return nil, err
	}
	if pc.team, err = tx.GetTeam(pc.game.HomeTeamID); err != nil {
		return nil, err
	}
	if pc.division, err = tx.DivisionForSeason(pc.team.SeasonID); err != nil {
		return nil, err
	}
	if pc.formation, err = tx.GetFormation(activeFormationID(pc.game, pc.team)); err != nil {
		return nil, err
	}
	if pc.slots, err = tx.ListFormationPositions(pc.formation.ID); err != nil {
		return nil, err
	}
	pc.allowed = make(map[string]bool, len(pc.slots))
	for _, s := range pc.slots {
		pc.allowed[s.PositionID] = true
	}
	absences, err := tx.ListAbsences(pc.game.ID)
	if err != nil {
		return nil, err
	}
	pc.absent = make(map[string]bool, len(absences))
	for _, a := range absences {
		pc.absent[a.PlayerID] = true
	}
	pc.budget = pc.formation.PlayersCount + pc.division.BenchCapacity()
	if pc.rows, err = tx.ListAssignments(periodID); err != nil {
		return nil, err
	}
	return pc, nil
}

func formationPositionSet(tx *store.Tx, formationID string) (map[string]bool, error) {
	slots, err := tx.ListFormationPositions(formationID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(slots))
	for _, s := range slots {
		set[s.PositionID] = true
	}
	return set, nil
}

// validateOccupancy checks the proposed full set of a period's rows.
func (pc *periodContext) validateOccupancy(proposed []model.GamePlayerAssignment) error {
	periodID := pc.period.ID
	conflict := func(code model.ConflictCode, msg string, ids ...string) error {
		return &model.ConflictError{Code: code, Message: msg, PeriodID: periodID, IDs: ids}
	}

	if len(proposed) > pc.budget {
		return conflict(model.ConflictSlotBudget,
			fmt.Sprintf("period would hold %d rows; budget is %d", len(proposed), pc.budget))
	}

	byPosition := make(map[string]string)
	byPlayer := make(map[string]string)
	for _, r := range proposed {
		if r.Status == model.AssignmentAbsent {
			if r.PlayerID == nil {
				return &model.ValidationError{
					Code:    model.ValidationInvalidInput,
					Field:   "playerId",
					Message: fmt.Sprintf("ABSENT row %s must name a player", r.ID),
				}
			}
		} else if r.PositionID != nil {
			pos := *r.PositionID
			if other, ok := byPosition[pos]; ok {
				return conflict(model.ConflictPositionTaken,
					fmt.Sprintf("position %s is held by two rows", pos), other, r.ID, pos)
			}
			byPosition[pos] = r.ID
			if !pc.allowed[pos] {
				return conflict(model.ConflictFormationMismatch,
					fmt.Sprintf("position %s is not in formation %s", pos, pc.formation.Name), r.ID, pos)
			}
		}

		if r.PlayerID == nil {
			continue
		}
		player := *r.PlayerID
		if other, ok := byPlayer[player]; ok {
			return conflict(model.ConflictPlayerDoubleBooked,
				fmt.Sprintf("player %s appears in two rows", player), other, r.ID, player)
		}
		byPlayer[player] = r.ID
		if pc.absent[player] && r.Status != model.AssignmentAbsent {
			return conflict(model.ConflictPlayerAbsent,
				fmt.Sprintf("player %s is absent from game %s", player, pc.game.ID), r.ID, player)
		}
	}
	return nil
}

// FieldSlot is one formation position and the row holding it, if any.
type FieldSlot struct {
	Position     model.Position
	DisplayOrder int
	Assignment   *model.GamePlayerAssignment
}

// Lineup is the read model of one period.
type Lineup struct {
	Period    model.GamePeriod
	Game      model.Game
	Formation model.Formation
	Budget    int

	// Field lists the active formation's positions in display order.
	Field []FieldSlot

	// Bench, Empty and Absent partition the rows without a position.
	Bench  []model.GamePlayerAssignment
	Empty  []model.GamePlayerAssignment
	Absent []model.GamePlayerAssignment

	// Players maps every rostered player id to its roster entry.
	Players map[string]model.RosterEntry
}

// Filled returns the number of field slots with a player.
func (l Lineup) Filled() int {
	n := 0
	for _, s := range l.Field {
		if s.Assignment != nil && s.Assignment.PlayerID != nil {
			n++
		}
	}
	return n
}

// Lineup returns the formation slots with their occupants and the bench,
// empty and absent rows of a period.
func (e *Engine) Lineup(ctx context.Context, periodID string) (Lineup, error) {
	var l Lineup
	err := e.view(ctx, func(tx *store.Tx) error {
		pc, err := loadPeriodContext(tx, periodID)
		if err != nil {
			return err
		}
		l = Lineup{Period: pc.period, Game: pc.game, Formation: pc.formation, Budget: pc.budget}

		held := make(map[string]*model.GamePlayerAssignment)
		for i := range pc.rows {
			r := &pc.rows[i]
			switch {
			case r.Status == model.AssignmentAbsent:
				l.Absent = append(l.Absent, *r)
			case r.PositionID != nil:
				held[*r.PositionID] = r
			case r.PlayerID != nil:
				l.Bench = append(l.Bench, *r)
			default:
				l.Empty = append(l.Empty, *r)
			}
		}
		for _, s := range pc.slots {
			pos, err := tx.GetPosition(s.PositionID)
			if err != nil {
				return err
			}
			l.Field = append(l.Field, FieldSlot{Position: pos, DisplayOrder: s.DisplayOrder, Assignment: held[s.PositionID]})
		}
		sort.SliceStable(l.Field, func(i, j int) bool { return l.Field[i].DisplayOrder < l.Field[j].DisplayOrder })

		roster, err := tx.ListRoster(pc.team.ID)
		if err != nil {
			return err
		}
		l.Players = make(map[string]model.RosterEntry, len(roster))
		for _, r := range roster {
			l.Players[r.Player.ID] = r
		}
		return nil
	})
	if err != nil {
		return Lineup{}, fmt.Errorf("lineup: %w", err)
	}
	return l, nil
}

// ResolvePeriod looks up a period by id or by "<gameId>/<periodNumber>".
func (e *Engine) ResolvePeriod(ctx context.Context, ref string) (model.GamePeriod, error) {
	var p model.GamePeriod
	err := e.view(ctx, func(tx *store.Tx) error {
		gameID, num, ok := strings.Cut(ref, "/")
		if !ok {
			var err error
			p, err = tx.GetPeriod(ref)
			return err
		}
		n, err := strconv.Atoi(num)
		if err != nil || n <= 0 {
			return model.NewValidationError("period", "bad period number in %q", ref)
		}
		if _, err := tx.GetGame(gameID); err != nil {
			return err
		}
		periods, err := tx.ListPeriods(gameID)
		if err != nil {
			return err
		}
		for _, candidate := range periods {
			if candidate.PeriodNumber == n {
				p = candidate
				return nil
			}
		}
		return model.NotFound("period", ref)
	})
	return p, err
}

// AssignmentFor returns playerID's row in periodID.
func (e *Engine) AssignmentFor(ctx context.Context, periodID, playerID string) (model.GamePlayerAssignment, error) {
	var a model.GamePlayerAssignment
	err := e.view(ctx, func(tx *store.Tx) error {
		rows, err := tx.ListAssignments(periodID)
		if err != nil {
			return err
		}
		for _, r := range rows {
			if r.PlayerID != nil && *r.PlayerID == playerID {
				a = r
				return nil
			}
		}
		return &model.ReferentialIntegrityError{
			Entity:  "assignment",
			ID:      playerID,
			Message: "player has no row in period " + periodID,
		}
	})
	return a, err
}
