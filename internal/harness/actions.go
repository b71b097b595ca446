package harness

import (
	"bytes"
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/rbolet/every-player/internal/engine"
	"github.com/rbolet/every-player/internal/model"
	"github.com/rbolet/every-player/internal/seed"
	"github.com/rbolet/every-player/internal/store"
)

// actionFunc runs one scenario action. The returned error is the engine's
// outcome; its taxonomy kind becomes the completion case.
type actionFunc func(ctx context.Context, e *engine.Engine, args map[string]any) error

// actions maps scenario action names to engine operations. Catalog and
// registry creation reuse the seed dataset shapes, so scenario args match
// dataset entries field for field.
var actions = map[string]actionFunc{
	"create_division":  createOne(func(v seed.Division) seed.Dataset { return seed.Dataset{Divisions: []seed.Division{v}} }),
	"create_league":    createOne(func(v seed.League) seed.Dataset { return seed.Dataset{Leagues: []seed.League{v}} }),
	"create_season":    createOne(func(v seed.Season) seed.Dataset { return seed.Dataset{Seasons: []seed.Season{v}} }),
	"create_position":  createOne(func(v seed.Position) seed.Dataset { return seed.Dataset{Positions: []seed.Position{v}} }),
	"create_formation": createOne(func(v seed.Formation) seed.Dataset { return seed.Dataset{Formations: []seed.Formation{v}} }),
	"create_player":    createOne(func(v seed.Player) seed.Dataset { return seed.Dataset{Players: []seed.Player{v}} }),
	"create_team":      createOne(func(v seed.Team) seed.Dataset { return seed.Dataset{Teams: []seed.Team{v}} }),
	"create_game":      createOne(func(v seed.Game) seed.Dataset { return seed.Dataset{Games: []seed.Game{v}} }),

	"attach_position":       attachPosition,
	"detach_position":       detachPosition,
	"set_default_formation": setDefaultFormation,
	"add_player":            addPlayer,
	"change_jersey":         changeJersey,
	"remove_player":         removePlayer,
	"create_periods":        createPeriods,
	"add_period":            addPeriod,
	"create_empty_slots":    createEmptySlots,
	"set_game_status":       setGameStatus,
	"set_period_status":     setPeriodStatus,
	"set_game_formation":    setGameFormation,
	"mark_absent":           markAbsent,
	"clear_absence":         clearAbsence,
	"assign":                assign,
	"swap":                  swap,
	"delete":                deleteEntity,
}

// decodeArgs converts YAML-parsed args into v, rejecting unknown keys.
func decodeArgs(args map[string]any, v any) error {
	data, err := yaml.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode args: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return model.NewValidationError("args", "%v", err)
	}
	return nil
}

func createOne[T any](wrap func(T) seed.Dataset) actionFunc {
	return func(ctx context.Context, e *engine.Engine, args map[string]any) error {
		var v T
		if err := decodeArgs(args, &v); err != nil {
			return err
		}
		ds := wrap(v)
		_, err := seed.Apply(ctx, e, &ds)
		return err
	}
}

type formationPositionArgs struct {
	Formation    string `yaml:"formation"`
	Position     string `yaml:"position"`
	DisplayOrder int    `yaml:"displayOrder"`
}

func attachPosition(ctx context.Context, e *engine.Engine, args map[string]any) error {
	var a formationPositionArgs
	if err := decodeArgs(args, &a); err != nil {
		return err
	}
	_, err := e.AttachPosition(ctx, a.Formation, a.Position, a.DisplayOrder)
	return err
}

func detachPosition(ctx context.Context, e *engine.Engine, args map[string]any) error {
	var a formationPositionArgs
	if err := decodeArgs(args, &a); err != nil {
		return err
	}
	return e.DetachPosition(ctx, a.Formation, a.Position)
}

func setDefaultFormation(ctx context.Context, e *engine.Engine, args map[string]any) error {
	var a struct {
		Team      string `yaml:"team"`
		Formation string `yaml:"formation"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return err
	}
	_, err := e.SetDefaultFormation(ctx, a.Team, a.Formation)
	return err
}

type memberArgs struct {
	Team   string `yaml:"team"`
	Player string `yaml:"player"`
	Jersey *int   `yaml:"jersey"`
}

func addPlayer(ctx context.Context, e *engine.Engine, args map[string]any) error {
	var a memberArgs
	if err := decodeArgs(args, &a); err != nil {
		return err
	}
	_, err := e.AddPlayerToTeam(ctx, a.Team, a.Player, a.Jersey)
	return err
}

func changeJersey(ctx context.Context, e *engine.Engine, args map[string]any) error {
	var a memberArgs
	if err := decodeArgs(args, &a); err != nil {
		return err
	}
	_, err := e.ChangeJersey(ctx, a.Team, a.Player, a.Jersey)
	return err
}

func removePlayer(ctx context.Context, e *engine.Engine, args map[string]any) error {
	var a memberArgs
	if err := decodeArgs(args, &a); err != nil {
		return err
	}
	return e.RemovePlayerFromTeam(ctx, a.Team, a.Player)
}

type gameArgs struct {
	Game      string  `yaml:"game"`
	Player    string  `yaml:"player"`
	Number    int     `yaml:"number"`
	Status    string  `yaml:"status"`
	Formation *string `yaml:"formation"`
}

func createPeriods(ctx context.Context, e *engine.Engine, args map[string]any) error {
	var a gameArgs
	if err := decodeArgs(args, &a); err != nil {
		return err
	}
	_, err := e.CreatePeriods(ctx, a.Game)
	return err
}

func addPeriod(ctx context.Context, e *engine.Engine, args map[string]any) error {
	var a gameArgs
	if err := decodeArgs(args, &a); err != nil {
		return err
	}
	_, err := e.AddPeriod(ctx, a.Game, a.Number)
	return err
}

func setGameStatus(ctx context.Context, e *engine.Engine, args map[string]any) error {
	var a gameArgs
	if err := decodeArgs(args, &a); err != nil {
		return err
	}
	_, err := e.SetGameStatus(ctx, a.Game, model.GameStatus(a.Status))
	return err
}

// setGameFormation clears the override when formation is omitted.
func setGameFormation(ctx context.Context, e *engine.Engine, args map[string]any) error {
	var a gameArgs
	if err := decodeArgs(args, &a); err != nil {
		return err
	}
	_, err := e.SetGameFormation(ctx, a.Game, a.Formation)
	return err
}

func markAbsent(ctx context.Context, e *engine.Engine, args map[string]any) error {
	var a gameArgs
	if err := decodeArgs(args, &a); err != nil {
		return err
	}
	_, err := e.MarkAbsent(ctx, a.Game, a.Player)
	return err
}

func clearAbsence(ctx context.Context, e *engine.Engine, args map[string]any) error {
	var a gameArgs
	if err := decodeArgs(args, &a); err != nil {
		return err
	}
	return e.ClearAbsence(ctx, a.Game, a.Player)
}

type periodArgs struct {
	Period string `yaml:"period"`
	Status string `yaml:"status"`
}

func createEmptySlots(ctx context.Context, e *engine.Engine, args map[string]any) error {
	var a periodArgs
	if err := decodeArgs(args, &a); err != nil {
		return err
	}
	p, err := e.ResolvePeriod(ctx, a.Period)
	if err != nil {
		return err
	}
	_, err = e.CreateEmptySlots(ctx, p.ID)
	return err
}

func setPeriodStatus(ctx context.Context, e *engine.Engine, args map[string]any) error {
	var a periodArgs
	if err := decodeArgs(args, &a); err != nil {
		return err
	}
	p, err := e.ResolvePeriod(ctx, a.Period)
	if err != nil {
		return err
	}
	_, err = e.SetPeriodStatus(ctx, p.ID, model.PeriodStatus(a.Status))
	return err
}

// assignArgs names rows by player: Row is the player whose current row is
// rewritten. Without Row the engine picks the target row.
type assignArgs struct {
	Period   string `yaml:"period"`
	Player   string `yaml:"player"`
	Position string `yaml:"position"`
	Row      string `yaml:"row"`
	Status   string `yaml:"status"`
}

func assign(ctx context.Context, e *engine.Engine, args map[string]any) error {
	var a assignArgs
	if err := decodeArgs(args, &a); err != nil {
		return err
	}
	p, err := e.ResolvePeriod(ctx, a.Period)
	if err != nil {
		return err
	}
	in := engine.AssignInput{
		PeriodID:   p.ID,
		PlayerID:   optional(a.Player),
		PositionID: optional(a.Position),
		Status:     model.AssignmentStatus(a.Status),
	}
	if a.Row != "" {
		row, err := e.AssignmentFor(ctx, p.ID, a.Row)
		if err != nil {
			return err
		}
		in.AssignmentID = row.ID
	}
	_, err = e.Assign(ctx, in)
	return err
}

func swap(ctx context.Context, e *engine.Engine, args map[string]any) error {
	var a struct {
		Period string `yaml:"period"`
		A      string `yaml:"a"`
		B      string `yaml:"b"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return err
	}
	p, err := e.ResolvePeriod(ctx, a.Period)
	if err != nil {
		return err
	}
	rowA, err := e.AssignmentFor(ctx, p.ID, a.A)
	if err != nil {
		return err
	}
	rowB, err := e.AssignmentFor(ctx, p.ID, a.B)
	if err != nil {
		return err
	}
	_, _, err = e.SwapPlayers(ctx, p.ID, rowA.ID, rowB.ID)
	return err
}

func deleteEntity(ctx context.Context, e *engine.Engine, args map[string]any) error {
	var a struct {
		Kind string `yaml:"kind"`
		ID   string `yaml:"id"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return err
	}
	kind, err := store.ParseKind(a.Kind)
	if err != nil {
		return model.NewValidationError("kind", "%v", err)
	}
	return e.Delete(ctx, kind, a.ID)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
