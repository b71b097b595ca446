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

// TeamInput describes a new team.
type TeamInput struct {
	ID                 string  `json:"id"`
	SeasonID           string  `json:"seasonId"`
	Name               string  `json:"name"`
	Description        *string `json:"description"`
	Color              string  `json:"color"`
	DefaultFormationID string  `json:"defaultFormationId"`
}

// Validate implements validation.Validatable.
func (in *TeamInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.SeasonID, validation.Required),
		validation.Field(&in.Name, validation.Required, notBlank),
		validation.Field(&in.Color, validation.Required, notBlank),
		validation.Field(&in.DefaultFormationID, validation.Required),
	)
}

// CreateTeam stores a new team. The default formation must have the same
// shape as the season's division.
func (e *Engine) CreateTeam(ctx context.Context, in TeamInput) (model.Team, error) {
	if err := validateInput("team", &in); err != nil {
		return model.Team{}, err
	}
	now := e.now()
	t := model.Team{
		ID:                 e.newID(in.ID),
		SeasonID:           in.SeasonID,
		Name:               strings.TrimSpace(in.Name),
		Description:        in.Description,
		Color:              strings.TrimSpace(in.Color),
		DefaultFormationID: in.DefaultFormationID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	err := e.update(ctx, "create team", []zap.Field{zap.String("team_id", t.ID)}, func(tx *store.Tx) error {
		d, err := tx.DivisionForSeason(t.SeasonID)
		if err != nil {
			return err
		}
		f, err := tx.GetFormation(t.DefaultFormationID)
		if err != nil {
			return err
		}
		if err := checkShape(d, f); err != nil {
			return err
		}
		return tx.InsertTeam(t)
	})
	if err != nil {
		return model.Team{}, fmt.Errorf("create team: %w", err)
	}
	return t, nil
}

// SetDefaultFormation changes a team's default formation, re-checking that
// its shape matches the team's division. Home games without an override
// switch with it, so their placed positions must belong to the new one.
func (e *Engine) SetDefaultFormation(ctx context.Context, teamID, formationID string) (model.Team, error) {
	var periodIDs []string
	err := e.view(ctx, func(tx *store.Tx) (err error) {
		periodIDs, err = tx.DefaultFormationPeriodIDs(teamID)
		return err
	})
	if err != nil {
		return model.Team{}, fmt.Errorf("set default formation: %w", err)
	}
	unlock := e.locks.LockAll(periodIDs)
	defer unlock()

	var t model.Team
	fields := []zap.Field{zap.String("team_id", teamID), zap.String("formation_id", formationID)}
	err = e.update(ctx, "set default formation", fields, func(tx *store.Tx) error {
		var err error
		t, err = tx.GetTeam(teamID)
		if err != nil {
			return err
		}
		d, err := tx.DivisionForSeason(t.SeasonID)
		if err != nil {
			return err
		}
		f, err := tx.GetFormation(formationID)
		if err != nil {
			return err
		}
		if err := checkShape(d, f); err != nil {
			return err
		}
		allowed, err := formationPositionSet(tx, formationID)
		if err != nil {
			return err
		}
		games, err := tx.ListGames(teamID)
		if err != nil {
			return err
		}
		for _, g := range games {
			if g.HomeTeamID != teamID || g.FormationID != nil {
				continue
			}
			if err := checkPlacements(tx, g.ID, formationID, allowed); err != nil {
				return err
			}
		}
		now := e.now()
		if err := tx.SetTeamDefaultFormation(teamID, formationID, now); err != nil {
			return err
		}
		t.DefaultFormationID, t.UpdatedAt = formationID, now
		return nil
	})
	if err != nil {
		return model.Team{}, fmt.Errorf("set default formation: %w", err)
	}
	return t, nil
}

// PlayerInput describes a new player.
type PlayerInput struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Birthdate time.Time `json:"birthdate"`
}

// Validate implements validation.Validatable.
func (in *PlayerInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Name, validation.Required, notBlank),
		validation.Field(&in.Birthdate, validation.Required),
	)
}

// CreatePlayer stores a new player, independent of any team.
func (e *Engine) CreatePlayer(ctx context.Context, in PlayerInput) (model.Player, error) {
	if err := validateInput("player", &in); err != nil {
		return model.Player{}, err
	}
	now := e.now()
	p := model.Player{
		ID:        e.newID(in.ID),
		Name:      strings.TrimSpace(in.Name),
		Birthdate: in.Birthdate.UTC().Truncate(24 * time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := e.update(ctx, "create player", []zap.Field{zap.String("player_id", p.ID)}, func(tx *store.Tx) error {
		return tx.InsertPlayer(p)
	})
	if err != nil {
		return model.Player{}, fmt.Errorf("create player: %w", err)
	}
	return p, nil
}

// AddPlayerToTeam puts playerID on teamID's roster with an optional jersey.
//
// Conflicts: ALREADY_ON_TEAM, JERSEY_TAKEN, and ROSTER_FULL when the roster
// would exceed the division's rosterMax.
func (e *Engine) AddPlayerToTeam(ctx context.Context, teamID, playerID string, jersey *int) (model.TeamPlayer, error) {
	if jersey != nil && *jersey <= 0 {
		return model.TeamPlayer{}, model.NewValidationError("jerseyNumber", "must be greater than 0")
	}
	now := e.now()
	tp := model.TeamPlayer{TeamID: teamID, PlayerID: playerID, JerseyNumber: jersey, CreatedAt: now, UpdatedAt: now}
	fields := []zap.Field{zap.String("team_id", teamID), zap.String("player_id", playerID)}
	err := e.update(ctx, "add player to team", fields, func(tx *store.Tx) error {
		t, err := tx.GetTeam(teamID)
		if err != nil {
			return err
		}
		if _, err := tx.GetPlayer(playerID); err != nil {
			return err
		}
		on, err := tx.IsOnRoster(teamID, playerID)
		if err != nil {
			return err
		}
		if on {
			return model.NewConflictError(model.ConflictAlreadyOnTeam,
				fmt.Sprintf("player %s is already on team %s", playerID, teamID), teamID, playerID)
		}
		if err := checkJerseyFree(tx, teamID, playerID, jersey); err != nil {
			return err
		}
		d, err := tx.DivisionForSeason(t.SeasonID)
		if err != nil {
			return err
		}
		n, err := tx.CountRoster(teamID)
		if err != nil {
			return err
		}
		if !rules.ValidateRosterSize(n+1, d.RosterMax) {
			return model.NewConflictError(model.ConflictRosterFull,
				fmt.Sprintf("team %s already has %d of %d players", t.Name, n, d.RosterMax), teamID)
		}
		return tx.InsertTeamPlayer(tp)
	})
	if err != nil {
		return model.TeamPlayer{}, fmt.Errorf("add player to team: %w", err)
	}
	return tp, nil
}

// ChangeJersey sets or clears a rostered player's jersey number. Clearing
// always succeeds.
func (e *Engine) ChangeJersey(ctx context.Context, teamID, playerID string, jersey *int) (model.TeamPlayer, error) {
	if jersey != nil && *jersey <= 0 {
		return model.TeamPlayer{}, model.NewValidationError("jerseyNumber", "must be greater than 0")
	}
	var tp model.TeamPlayer
	fields := []zap.Field{zap.String("team_id", teamID), zap.String("player_id", playerID)}
	err := e.update(ctx, "change jersey", fields, func(tx *store.Tx) error {
		var err error
		tp, err = tx.GetTeamPlayer(teamID, playerID)
		if err != nil {
			return err
		}
		if err := checkJerseyFree(tx, teamID, playerID, jersey); err != nil {
			return err
		}
		now := e.now()
		if err := tx.SetJersey(teamID, playerID, jersey, now); err != nil {
			return err
		}
		tp.JerseyNumber, tp.UpdatedAt = jersey, now
		return nil
	})
	if err != nil {
		return model.TeamPlayer{}, fmt.Errorf("change jersey: %w", err)
	}
	return tp, nil
}

func checkJerseyFree(tx *store.Tx, teamID, playerID string, jersey *int) error {
	if jersey == nil {
		return nil
	}
	holder, err := tx.JerseyHolder(teamID, *jersey)
	if err != nil {
		return err
	}
	if holder != "" && holder != playerID {
		return model.NewConflictError(model.ConflictJerseyTaken,
			fmt.Sprintf("jersey %d is taken on team %s", *jersey, teamID), teamID, holder)
	}
	return nil
}

// RemovePlayerFromTeam drops playerID from teamID's roster. The player's
// rows in the team's home games stay behind as slots with no player, and
// the player's absences from those games are cleared.
func (e *Engine) RemovePlayerFromTeam(ctx context.Context, teamID, playerID string) error {
	var periodIDs []string
	err := e.view(ctx, func(tx *store.Tx) (err error) {
		periodIDs, err = tx.TeamPlayerPeriodIDs(teamID, playerID)
		return err
	})
	if err != nil {
		return fmt.Errorf("remove player from team: %w", err)
	}
	unlock := e.locks.LockAll(periodIDs)
	defer unlock()

	fields := []zap.Field{zap.String("team_id", teamID), zap.String("player_id", playerID)}
	err = e.update(ctx, "remove player from team", fields, func(tx *store.Tx) error {
		return tx.DeleteTeamPlayer(teamID, playerID, e.now())
	})
	if err != nil {
		return fmt.Errorf("remove player from team: %w", err)
	}
	return nil
}

// GetTeam returns a team by id.
func (e *Engine) GetTeam(ctx context.Context, id string) (model.Team, error) {
	var t model.Team
	err := e.view(ctx, func(tx *store.Tx) (err error) {
		t, err = tx.GetTeam(id)
		return err
	})
	return t, err
}

// ListTeams returns the teams of a season.
func (e *Engine) ListTeams(ctx context.Context, seasonID string) ([]model.Team, error) {
	var out []model.Team
	err := e.view(ctx, func(tx *store.Tx) (err error) {
		out, err = tx.ListTeams(seasonID)
		return err
	})
	return out, err
}

// ListRoster returns a team's players ordered by jersey (unnumbered last),
// then name.
func (e *Engine) ListRoster(ctx context.Context, teamID string) ([]model.RosterEntry, error) {
	var out []model.RosterEntry
	err := e.view(ctx, func(tx *store.Tx) error {
		if _, err := tx.GetTeam(teamID); err != nil {
			return err
		}
		var err error
		out, err = tx.ListRoster(teamID)
		return err
	})
	return out, err
}

// GetPlayer returns a player by id.
func (e *Engine) GetPlayer(ctx context.Context, id string) (model.Player, error) {
	var p model.Player
	err := e.view(ctx, func(tx *store.Tx) (err error) {
		p, err = tx.GetPlayer(id)
		return err
	})
	return p, err
}

// ListPlayers returns every player.
func (e *Engine) ListPlayers(ctx context.Context) ([]model.Player, error) {
	var out []model.Player
	err := e.view(ctx, func(tx *store.Tx) (err error) {
		out, err = tx.ListPlayers()
		return err
	})
	return out, err
}
