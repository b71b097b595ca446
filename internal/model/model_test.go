package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatuses(t *testing.T) {
	st, err := ParseAssignmentStatus("ABSENT")
	require.NoError(t, err)
	assert.Equal(t, AssignmentAbsent, st)
	assert.True(t, st.Terminal())

	_, err = ParseAssignmentStatus("absent")
	assert.Error(t, err, "matching is case-sensitive")

	gs, err := ParseGameStatus("ACTUAL")
	require.NoError(t, err)
	assert.Equal(t, GameActual, gs)
	_, err = ParseGameStatus("DONE")
	assert.Error(t, err)

	pt, err := ParsePositionType("GK")
	require.NoError(t, err)
	assert.Equal(t, PositionGK, pt)
	_, err = ParsePositionType("STRIKER")
	assert.Error(t, err)
}

func TestErrorHelpers_Wrapped(t *testing.T) {
	ce := NewConflictError(ConflictJerseyTaken, "jersey 5 is taken", "team_1", "player_2")
	wrapped := fmt.Errorf("add player: %w", ce)

	assert.True(t, IsConflict(wrapped))
	assert.True(t, IsConflictCode(wrapped, ConflictJerseyTaken))
	assert.False(t, IsConflictCode(wrapped, ConflictRosterFull))
	assert.False(t, IsValidation(wrapped))
	assert.Equal(t, "conflict", Kind(wrapped))
	assert.Contains(t, ce.Error(), "JERSEY_TAKEN")
	assert.Contains(t, ce.Error(), "team_1, player_2")

	ve := NewValidationError("name", "must not be empty")
	assert.True(t, IsValidation(fmt.Errorf("x: %w", ve)))
	assert.Equal(t, "validation: name: must not be empty", ve.Error())

	re := NotFound("team", "t1")
	assert.True(t, IsReferential(re))
	assert.Equal(t, "referential", Kind(re))
	assert.Equal(t, "", Kind(errors.New("plain")))
}

func TestValidationError_FieldsSorted(t *testing.T) {
	ve := &ValidationError{
		Code:    ValidationInvalidInput,
		Message: "invalid division",
		Fields:  map[string]string{"rosterMax": "too small", "name": "required"},
	}
	assert.Equal(t, "validation: invalid division (name: required; rosterMax: too small)", ve.Error())
}

func TestMarshalCanonical(t *testing.T) {
	v := map[string]any{
		"zeta":  1,
		"alpha": "a<b>&c",
		"list":  []any{true, int64(2), "x"},
		"rows":  []map[string]any{{"b": 1, "a": 2}},
	}
	got, err := MarshalCanonical(v)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":"a<b>&c","list":[true,2,"x"],"rows":[{"a":2,"b":1}],"zeta":1}`, string(got))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	// "e" + combining acute normalizes to a single precomposed rune.
	got, err := MarshalCanonical("Zoe\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"Zo\u00e9\"", string(got))
}

func TestMarshalCanonical_Rejects(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"x": 1.5})
	assert.Error(t, err)
	_, err = MarshalCanonical(nil)
	assert.Error(t, err)
	_, err = MarshalCanonical(struct{}{})
	assert.Error(t, err)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, NormalizeName("  2-3-1 "), NormalizeName("2-3-1"))
	assert.Equal(t, NormalizeName("Ste\u0301"), NormalizeName("St\u00e9"))
}

func TestPointerHelpers(t *testing.T) {
	assert.True(t, EqualPtr[string](nil, nil))
	assert.False(t, EqualPtr(Ptr("a"), nil))
	assert.True(t, EqualPtr(Ptr("a"), Ptr("a")))
	assert.Equal(t, 0, Deref[int](nil))
	assert.Equal(t, 7, Deref(Ptr(7)))
}
