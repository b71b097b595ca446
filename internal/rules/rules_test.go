package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rbolet/every-player/internal/model"
)

func TestValidateRosterSize(t *testing.T) {
	tests := []struct {
		count, max int
		want       bool
	}{
		{0, 10, false},
		{1, 10, true},
		{10, 10, true},
		{11, 10, false},
		{-1, 10, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateRosterSize(tt.count, tt.max), "count=%d max=%d", tt.count, tt.max)
	}
}

func TestCalculatePlayingTimePercentage(t *testing.T) {
	tests := []struct {
		played, total int
		want          float64
	}{
		{0, 4, 0},
		{4, 4, 100},
		{1, 3, 33.333333},
		{5, 0, 0},
		{5, 4, 125},
	}
	for _, tt := range tests {
		got := CalculatePlayingTimePercentage(tt.played, tt.total)
		assert.InDelta(t, tt.want, got, 0.001, "played=%d total=%d", tt.played, tt.total)
	}
}

func TestClampPercentage(t *testing.T) {
	assert.Equal(t, 100.0, ClampPercentage(125))
	assert.Equal(t, 0.0, ClampPercentage(-3))
	assert.Equal(t, 50.0, ClampPercentage(50))
}

func TestPercentageBasisPoints(t *testing.T) {
	assert.Equal(t, int64(3333), PercentageBasisPoints(1, 3))
	assert.Equal(t, int64(6667), PercentageBasisPoints(2, 3))
	assert.Equal(t, int64(12500), PercentageBasisPoints(5, 4))
	assert.Equal(t, int64(0), PercentageBasisPoints(5, 0))
}

func TestCount(t *testing.T) {
	pos := model.Ptr("pos_gk")
	rows := []model.GamePlayerAssignment{
		{Status: model.AssignmentActual, PositionID: pos},
		{Status: model.AssignmentActual, PositionID: pos},
		{Status: model.AssignmentActual},
		{Status: model.AssignmentAbsent},
		{Status: model.AssignmentProjected, PositionID: pos},
	}
	assert.Equal(t, Tally{Played: 2, Bench: 1, Absent: 1}, Count(rows))
}
