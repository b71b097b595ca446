// Package rules holds the pure, storage-free rules of youth-soccer roster
// management: roster size limits and playing-time arithmetic.
package rules

import "github.com/rbolet/every-player/internal/model"

const (
	// DefaultPlayersOnField is the field size used when none is configured.
	DefaultPlayersOnField = 7

	// DefaultPeriodsPerGame is the number of periods a game plans for.
	DefaultPeriodsPerGame = 4
)

// ValidateRosterSize reports whether a roster of count players fits under
// maxRosterSize. An empty roster is never valid.
func ValidateRosterSize(count, maxRosterSize int) bool {
	return count > 0 && count <= maxRosterSize
}

// CalculatePlayingTimePercentage returns 100 * periodsPlayed / totalPeriods.
// It returns 0 when totalPeriods is 0 and is not capped at 100: overtime
// periods can push a player past it.
func CalculatePlayingTimePercentage(periodsPlayed, totalPeriods int) float64 {
	if totalPeriods <= 0 {
		return 0
	}
	return 100 * float64(periodsPlayed) / float64(totalPeriods)
}

// ClampPercentage limits p to [0, 100] for display.
func ClampPercentage(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// PercentageBasisPoints returns the playing-time percentage in hundredths
// of a percent, rounded half up. 1 of 3 periods is 3333.
func PercentageBasisPoints(periodsPlayed, totalPeriods int) int64 {
	if totalPeriods <= 0 {
		return 0
	}
	return (int64(periodsPlayed)*10000*2 + int64(totalPeriods)) / (int64(totalPeriods) * 2)
}

// Tally is one player's period counts within a game or across games.
type Tally struct {
	Played int
	Bench  int
	Absent int
}

// Count classifies a player's assignment rows. Only ACTUAL rows count:
// with a position they are played periods, without one bench periods.
// ABSENT rows are tallied separately; PROJECTED rows are ignored.
func Count(rows []model.GamePlayerAssignment) Tally {
	var t Tally
	for _, r := range rows {
		switch r.Status {
		case model.AssignmentActual:
			if r.PositionID != nil {
				t.Played++
			} else {
				t.Bench++
			}
		case model.AssignmentAbsent:
			t.Absent++
		}
	}
	return t
}
