package model

import "time"

// Division is an age group with a field size and a roster cap.
type Division struct {
	ID           string
	Name         string
	Description  *string
	PlayersCount int
	RosterMax    int
	NoGK         bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BenchCapacity is the number of rostered players who can sit out a period.
func (d Division) BenchCapacity() int {
	return d.RosterMax - d.PlayersCount
}

// League belongs to exactly one Division.
type League struct {
	ID          string
	DivisionID  string
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Season belongs to exactly one League.
type Season struct {
	ID          string
	LeagueID    string
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Formation is a named field shape: a player count, a goalkeeper flag and
// an ordered set of positions.
type Formation struct {
	ID           string
	Name         string
	Description  *string
	PlayersCount int
	NoGK         bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Shape is the (playersCount, noGk) pair compared against a Division.
type Shape struct {
	PlayersCount int
	NoGK         bool
}

// Shape returns the formation's shape.
func (f Formation) Shape() Shape {
	return Shape{PlayersCount: f.PlayersCount, NoGK: f.NoGK}
}

// Shape returns the division's shape.
func (d Division) Shape() Shape {
	return Shape{PlayersCount: d.PlayersCount, NoGK: d.NoGK}
}

// Position is a field role. Abbreviations are globally unique.
type Position struct {
	ID           string
	Name         string
	Abbreviation string
	Type         PositionType
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FormationPosition links a Position into a Formation at a display slot.
type FormationPosition struct {
	ID           string
	FormationID  string
	PositionID   string
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Team plays in one Season with a default Formation.
type Team struct {
	ID                 string
	SeasonID           string
	Name               string
	Description        *string
	Color              string
	DefaultFormationID string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Player exists independently of any team.
type Player struct {
	ID        string
	Name      string
	Birthdate time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TeamPlayer is roster membership. JerseyNumber is nil when unassigned.
type TeamPlayer struct {
	TeamID       string
	PlayerID     string
	JerseyNumber *int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RosterEntry is a TeamPlayer joined with its Player.
type RosterEntry struct {
	Player       Player
	JerseyNumber *int
}

// Game is hosted by HomeTeamID against either another team or a named
// opponent, never both.
type Game struct {
	ID             string
	HomeTeamID     string
	AwayTeamID     *string
	OpponentName   *string
	FormationID    *string
	PlannedPeriods int
	DateTime       time.Time
	Location       string
	Status         GameStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// GamePeriod is one numbered period of a Game.
type GamePeriod struct {
	ID           string
	GameID       string
	PeriodNumber int
	Status       PeriodStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GamePlayerAbsence records that a player will miss a whole game.
type GamePlayerAbsence struct {
	ID        string
	GameID    string
	PlayerID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GamePlayerAssignment is one slot of a period.
//
// A row with a player and a position is on the field. A row with a player
// and no position is on the bench. A row with neither is an empty slot.
// Seq orders rows within a period; ties break on ID.
type GamePlayerAssignment struct {
	ID           string
	GamePeriodID string
	PlayerID     *string
	PositionID   *string
	Status       AssignmentStatus
	Seq          int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsEmpty reports whether the row holds neither a player nor a position.
func (a GamePlayerAssignment) IsEmpty() bool {
	return a.PlayerID == nil && a.PositionID == nil
}

// OnBench reports whether the row holds a player without a position.
func (a GamePlayerAssignment) OnBench() bool {
	return a.PlayerID != nil && a.PositionID == nil
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns *p, or the zero value when p is nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// EqualPtr reports whether both pointers are nil or both point at equal values.
func EqualPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
