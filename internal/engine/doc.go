// Package engine implements roster management, lineup assignment and
// playing-time accounting on top of the store.
//
// COMPONENTS:
//
//   - Reference catalog (catalog.go): divisions, leagues, seasons,
//     positions, formations and their positions
//   - Roster registry (registry.go): teams, players, membership, jerseys
//   - Game and period store (schedule.go): games, periods, empty slots,
//     absences, status changes
//   - Assignment engine (assign.go, lineup.go): Assign, SwapPlayers, the
//     Lineup read model and occupancy validation
//   - Playing-time accountant (accounting.go): game and team reports
//
// CONSISTENCY:
//
// Every write is one store transaction. Writes affecting a period first take
// that period's lock from the PeriodLocker, then read the period, build the
// proposed full set of its rows, validate it, and only then write. A failed
// validation writes nothing. Multi-period writes (MarkAbsent, Delete,
// SetGameFormation) lock every affected period in ascending id order so two
// such writes can never deadlock.
//
// Occupancy rules checked on the proposed set of a period:
//   - No two non-ABSENT rows share a position
//   - No two rows share a player
//   - Every placed position belongs to the active formation
//   - A player marked absent for the game has only ABSENT rows
//   - Row count stays within the slot budget
//
// The active formation of a game is its own formation override, else the
// home team's default. The slot budget is the formation's player count plus
// the division's bench capacity (rosterMax - playersCount).
//
// ERRORS:
//
// Operations return model.ValidationError, model.ConflictError and
// model.ReferentialIntegrityError, possibly wrapped with the operation name.
// Test with model.IsValidation, model.IsConflict and model.IsReferential.
package engine
