package model

import "fmt"

// PositionType classifies a field position.
type PositionType string

const (
	PositionGK  PositionType = "GK"
	PositionDEF PositionType = "DEF"
	PositionMID PositionType = "MID"
	PositionFWD PositionType = "FWD"
)

// PositionTypes lists the valid position types in field order.
var PositionTypes = []PositionType{PositionGK, PositionDEF, PositionMID, PositionFWD}

// Valid reports whether t is one of PositionTypes.
func (t PositionType) Valid() bool {
	switch t {
	case PositionGK, PositionDEF, PositionMID, PositionFWD:
		return true
	}
	return false
}

// ParsePositionType converts s into a PositionType. Matching is case-sensitive.
func ParsePositionType(s string) (PositionType, error) {
	t := PositionType(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid position type: %q", s)
	}
	return t, nil
}

// GameStatus is the lifecycle state of a game or a period.
type GameStatus string

const (
	GameProjected GameStatus = "PROJECTED"
	GameActual    GameStatus = "ACTUAL"
)

// Valid reports whether s is PROJECTED or ACTUAL.
func (s GameStatus) Valid() bool {
	return s == GameProjected || s == GameActual
}

// ParseGameStatus converts s into a GameStatus. Matching is case-sensitive.
func ParseGameStatus(s string) (GameStatus, error) {
	st := GameStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("invalid game status: %q", s)
	}
	return st, nil
}

// PeriodStatus shares the game status domain.
type PeriodStatus = GameStatus

// AssignmentStatus is the per-record state of a GamePlayerAssignment.
//
// PROJECTED is the only initial state. ABSENT means the player will not play
// that period. ACTUAL records what happened once the period is played.
type AssignmentStatus string

const (
	AssignmentProjected AssignmentStatus = "PROJECTED"
	AssignmentActual    AssignmentStatus = "ACTUAL"
	AssignmentAbsent    AssignmentStatus = "ABSENT"
)

// Valid reports whether s is a known assignment status.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentProjected, AssignmentActual, AssignmentAbsent:
		return true
	}
	return false
}

// Terminal reports whether s is ACTUAL or ABSENT.
func (s AssignmentStatus) Terminal() bool {
	return s == AssignmentActual || s == AssignmentAbsent
}

// ParseAssignmentStatus converts s into an AssignmentStatus. Matching is case-sensitive.
func ParseAssignmentStatus(s string) (AssignmentStatus, error) {
	st := AssignmentStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("invalid assignment status: %q", s)
	}
	return st, nil
}
