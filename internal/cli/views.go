package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/rbolet/every-player/internal/engine"
	"github.com/rbolet/every-player/internal/model"
	"github.com/rbolet/every-player/internal/rules"
	"github.com/rbolet/every-player/internal/seed"
)

// The views below are what commands hand to OutputFormatter.Success: JSON
// through their field tags, text through String.

type messageView struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

func (v messageView) String() string { return v.Message }

type seedView struct {
	Source  string       `json:"source"`
	Summary seed.Summary `json:"summary"`
}

func (v seedView) String() string {
	s := v.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "Seeded from %s\n", v.Source)
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, row := range []struct {
		name string
		n    int
	}{
		{"divisions", s.Divisions}, {"leagues", s.Leagues}, {"seasons", s.Seasons},
		{"positions", s.Positions}, {"formations", s.Formations}, {"players", s.Players},
		{"teams", s.Teams}, {"roster entries", s.Members}, {"games", s.Games},
		{"periods", s.Periods}, {"slots", s.Slots}, {"absences", s.Absences},
	} {
		fmt.Fprintf(tw, "  %s\t%d\n", row.name, row.n)
	}
	tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

type rosterLine struct {
	PlayerID     string `json:"playerId"`
	Name         string `json:"name"`
	JerseyNumber *int   `json:"jerseyNumber,omitempty"`
	Birthdate    string `json:"birthdate"`
}

type rosterView struct {
	TeamID  string       `json:"teamId"`
	Team    string       `json:"team"`
	Players []rosterLine `json:"players"`
}

func newRosterView(team model.Team, entries []model.RosterEntry) rosterView {
	v := rosterView{TeamID: team.ID, Team: team.Name, Players: make([]rosterLine, 0, len(entries))}
	for _, e := range entries {
		v.Players = append(v.Players, rosterLine{
			PlayerID:     e.Player.ID,
			Name:         e.Player.Name,
			JerseyNumber: e.JerseyNumber,
			Birthdate:    e.Player.Birthdate.Format("2006-01-02"),
		})
	}
	return v
}

func (v rosterView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d players)\n", v.Team, len(v.Players))
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tPLAYER\tBORN")
	for _, p := range v.Players {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", jersey(p.JerseyNumber), p.Name, p.PlayerID, p.Birthdate)
	}
	tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

type rowLine struct {
	AssignmentID string  `json:"assignmentId"`
	PositionID   *string `json:"positionId,omitempty"`
	Position     string  `json:"position,omitempty"`
	PlayerID     *string `json:"playerId,omitempty"`
	Player       string  `json:"player,omitempty"`
	Status       string  `json:"status,omitempty"`
}

type lineupView struct {
	PeriodID     string    `json:"periodId"`
	GameID       string    `json:"gameId"`
	PeriodNumber int       `json:"periodNumber"`
	Status       string    `json:"status"`
	Formation    string    `json:"formation"`
	Budget       int       `json:"budget"`
	Filled       int       `json:"filled"`
	Field        []rowLine `json:"field"`
	Bench        []rowLine `json:"bench"`
	Empty        []string  `json:"empty"`
	Absent       []rowLine `json:"absent"`
}

func newLineupView(l engine.Lineup) lineupView {
	v := lineupView{
		PeriodID:     l.Period.ID,
		GameID:       l.Game.ID,
		PeriodNumber: l.Period.PeriodNumber,
		Status:       string(l.Period.Status),
		Formation:    l.Formation.Name,
		Budget:       l.Budget,
		Filled:       l.Filled(),
		Field:        []rowLine{},
		Bench:        []rowLine{},
		Empty:        []string{},
		Absent:       []rowLine{},
	}
	player := func(id *string) string {
		if id == nil {
			return ""
		}
		if e, ok := l.Players[*id]; ok {
			return e.Player.Name
		}
		return *id
	}
	for _, s := range l.Field {
		s := s // per-iteration copy; go 1.21 loop vars are shared and &s is kept below
		line := rowLine{PositionID: &s.Position.ID, Position: s.Position.Abbreviation}
		if a := s.Assignment; a != nil {
			line.AssignmentID = a.ID
			line.PlayerID = a.PlayerID
			line.Player = player(a.PlayerID)
			line.Status = string(a.Status)
		}
		v.Field = append(v.Field, line)
	}
	for _, a := range l.Bench {
		v.Bench = append(v.Bench, rowLine{AssignmentID: a.ID, PlayerID: a.PlayerID, Player: player(a.PlayerID), Status: string(a.Status)})
	}
	for _, a := range l.Empty {
		v.Empty = append(v.Empty, a.ID)
	}
	for _, a := range l.Absent {
		v.Absent = append(v.Absent, rowLine{AssignmentID: a.ID, PlayerID: a.PlayerID, Player: player(a.PlayerID), Status: string(a.Status)})
	}
	return v
}

func (v lineupView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s period %d (%s), formation %s: %d/%d on field, budget %d\n",
		v.GameID, v.PeriodNumber, v.Status, v.Formation, v.Filled, len(v.Field), v.Budget)
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, f := range v.Field {
		name := f.Player
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.Position, name, f.Status)
	}
	tw.Flush()
	fmt.Fprintf(&b, "bench: %s\n", names(v.Bench))
	fmt.Fprintf(&b, "absent: %s\n", names(v.Absent))
	fmt.Fprintf(&b, "empty slots: %d", len(v.Empty))
	return b.String()
}

type assignmentView struct {
	AssignmentID string  `json:"assignmentId"`
	PeriodID     string  `json:"periodId"`
	PlayerID     *string `json:"playerId,omitempty"`
	PositionID   *string `json:"positionId,omitempty"`
	Status       string  `json:"status"`
	Seq          int64   `json:"seq"`
}

func newAssignmentView(a model.GamePlayerAssignment) assignmentView {
	return assignmentView{
		AssignmentID: a.ID,
		PeriodID:     a.GamePeriodID,
		PlayerID:     a.PlayerID,
		PositionID:   a.PositionID,
		Status:       string(a.Status),
		Seq:          a.Seq,
	}
}

func (v assignmentView) String() string {
	where := "bench"
	if v.PositionID != nil {
		where = *v.PositionID
	}
	who := "(empty)"
	if v.PlayerID != nil {
		who = *v.PlayerID
	}
	return fmt.Sprintf("%s -> %s (%s) row %s", who, where, v.Status, v.AssignmentID)
}

type swapView struct {
	A assignmentView `json:"a"`
	B assignmentView `json:"b"`
}

func (v swapView) String() string {
	return "swapped\n  " + v.A.String() + "\n  " + v.B.String()
}

// playtimeView renders a report as its canonical JSON document.
type playtimeView struct {
	report engine.PlayingTimeReport
}

func (v playtimeView) MarshalJSON() ([]byte, error) {
	data, err := v.report.CanonicalJSON()
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func (v playtimeView) String() string {
	r := v.report
	var b strings.Builder
	if r.GameID != "" {
		fmt.Fprintf(&b, "Game %s, %d planned periods\n", r.GameID, r.TotalPeriods)
	} else {
		fmt.Fprintf(&b, "Team %s, %d games, %d periods\n", r.TeamID, r.Games, r.TotalPeriods)
	}
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tNAME\tPLAYED\tBENCH\tPCT\tABSENT\t")
	for _, p := range r.Players {
		bp := rules.PercentageBasisPoints(p.Played, p.TotalPeriods)
		absent := ""
		switch {
		case r.GameID != "" && p.Absent:
			absent = "yes"
		case r.GameID == "" && p.AbsentGames > 0:
			absent = fmt.Sprint(p.AbsentGames)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%d\t%d.%02d%%\t%s\t\n",
			jersey(p.JerseyNumber), p.Name, p.Played, p.TotalPeriods, p.Bench, bp/100, bp%100, absent)
	}
	tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

func jersey(n *int) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprint(*n)
}

func names(rows []rowLine) string {
	if len(rows) == 0 {
		return "-"
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Player
	}
	return strings.Join(out, ", ")
}
