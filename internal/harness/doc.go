// Package harness runs lineup scenarios against the engine.
//
// A scenario seeds a fresh in-memory database, runs setup actions, runs a
// flow of actions with expected outcomes, and checks assertions on the
// resulting trace and final state.
//
// # Scenario Format
//
//	name: double_booking
//	description: "A player cannot hold two positions in one period"
//	seed: default
//	setup:
//	  - action: assign
//	    args: {period: game_future_1/1, player: player_emma, position: pos_gk}
//	flow:
//	  - invoke: assign
//	    args: {period: game_future_1/1, player: player_emma, position: pos_fwd}
//	    expect: {case: Conflict, code: PLAYER_DOUBLE_BOOKED}
//	assertions:
//	  - type: lineup
//	    period: game_future_1/1
//	    positions: {pos_gk: player_emma, pos_fwd: ""}
//	  - type: trace_count
//	    action: assign
//	    count: 2
//
// Periods are named by id or as "<gameId>/<n>". Rows are named by the
// player holding them: assign takes "row", swap takes players "a" and "b".
//
// # Outcomes
//
// Every action completes with one of Success, Validation, Conflict or
// Referential. The code is the conflict code, the validation code, or the
// missing entity. Errors outside that taxonomy abort the run.
//
// # Assertion Types
//
//   - trace_contains: an invocation of action with matching args
//   - trace_order: actions appear in the given order
//   - trace_count: action appears exactly count times
//   - lineup: a period's positions, bench, empty and absent rows
//   - playtime: one player's row of a game or team report
//
// # Deterministic Testing
//
// Every run uses a fresh DeterministicClock, sequential ids and a trace
// sequence starting at 1, so the same scenario always yields a
// byte-identical canonical trace for golden comparison.
package harness
