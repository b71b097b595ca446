package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports input that is malformed regardless of stored state.
type ValidationError struct {
	// Code identifies the failing rule, e.g. "INVALID_INPUT".
	Code string

	// Field names the offending input field when there is exactly one.
	Field string

	// Message is a human-readable description.
	Message string

	// Fields maps input field names to per-field messages.
	Fields map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + e.Fields[k]
		}
		return fmt.Sprintf("validation: %s (%s)", e.Message, strings.Join(parts, "; "))
	}
	if e.Field != "" {
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
	}
	return "validation: " + e.Message
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Code:    ValidationInvalidInput,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// ValidationInvalidInput is the default ValidationError code.
const ValidationInvalidInput = "INVALID_INPUT"

// ConflictCode names the invariant a write would break.
type ConflictCode string

const (
	// ConflictPositionTaken: two non-ABSENT rows in one period share a position.
	ConflictPositionTaken ConflictCode = "POSITION_TAKEN"

	// ConflictPlayerDoubleBooked: two rows in one period share a player.
	ConflictPlayerDoubleBooked ConflictCode = "PLAYER_DOUBLE_BOOKED"

	// ConflictFormationMismatch: a position or formation does not fit the shape in force.
	ConflictFormationMismatch ConflictCode = "FORMATION_MISMATCH"

	// ConflictPlayerAbsent: an absent player was given a non-ABSENT row.
	ConflictPlayerAbsent ConflictCode = "PLAYER_ABSENT"

	// ConflictNotOnRoster: the player is not on the home team.
	ConflictNotOnRoster ConflictCode = "NOT_ON_ROSTER"

	// ConflictSlotBudget: a period would hold more rows than its slot budget.
	ConflictSlotBudget ConflictCode = "SLOT_BUDGET"

	// ConflictStatusTransition: a terminal record or period would move backwards.
	ConflictStatusTransition ConflictCode = "STATUS_TRANSITION"

	// ConflictDuplicate: a unique key already exists.
	ConflictDuplicate ConflictCode = "DUPLICATE"

	// ConflictJerseyTaken: the jersey number is in use on the team.
	ConflictJerseyTaken ConflictCode = "JERSEY_TAKEN"

	// ConflictAlreadyOnTeam: the player is already rostered on the team.
	ConflictAlreadyOnTeam ConflictCode = "ALREADY_ON_TEAM"

	// ConflictRosterFull: the team is at its division's roster cap.
	ConflictRosterFull ConflictCode = "ROSTER_FULL"

	// ConflictInUse: the row is still referenced and cannot be deleted.
	ConflictInUse ConflictCode = "IN_USE"
)

// ConflictError reports a write that would violate a uniqueness or
// consistency invariant against current state.
type ConflictError struct {
	Code    ConflictCode
	Message string

	// PeriodID is set for occupancy conflicts.
	PeriodID string

	// IDs lists the conflicting row or entity ids.
	IDs []string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if e.PeriodID != "" {
		fmt.Fprintf(&b, " (period=%s)", e.PeriodID)
	}
	if len(e.IDs) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.IDs, ", "))
	}
	return b.String()
}

// NewConflictError returns a ConflictError with the given code and ids.
func NewConflictError(code ConflictCode, message string, ids ...string) *ConflictError {
	return &ConflictError{Code: code, Message: message, IDs: ids}
}

// ReferentialIntegrityError reports a reference to a row that does not exist.
type ReferentialIntegrityError struct {
	// Entity is the referenced table's entity name, e.g. "team".
	Entity string

	// ID is the missing identifier, when known.
	ID string

	Message string
}

// Error implements the error interface.
func (e *ReferentialIntegrityError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "not found"
	}
	if e.ID != "" {
		return fmt.Sprintf("referential integrity: %s %q %s", e.Entity, e.ID, msg)
	}
	return fmt.Sprintf("referential integrity: %s %s", e.Entity, msg)
}

// NotFound returns a ReferentialIntegrityError for a missing entity.
func NotFound(entity, id string) *ReferentialIntegrityError {
	return &ReferentialIntegrityError{Entity: entity, ID: id, Message: "not found"}
}

// IsValidation returns true if err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict returns true if err is or wraps a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsConflictCode returns true if err is or wraps a ConflictError with code.
func IsConflictCode(err error, code ConflictCode) bool {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsReferential returns true if err is or wraps a ReferentialIntegrityError.
func IsReferential(err error) bool {
	var re *ReferentialIntegrityError
	return errors.As(err, &re)
}

// Kind returns the taxonomy name of err: "validation", "conflict",
// "referential", or "" for anything else.
func Kind(err error) string {
	switch {
	case IsValidation(err):
		return "validation"
	case IsConflict(err):
		return "conflict"
	case IsReferential(err):
		return "referential"
	}
	return ""
}
