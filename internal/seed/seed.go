// Package seed loads roster datasets and applies them through the engine.
//
// A dataset lists divisions, leagues, seasons, positions, formations,
// players, teams with their rosters, and games. Datasets are written in YAML
// or CUE; both are checked against the embedded CUE schema (schema.cue)
// before anything is written. The default dataset (default.yaml) is the
// U10 girls fall season used by `everyplayer seed` with no arguments.
package seed

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Dataset is a complete seed document. References between entries use ids.
type Dataset struct {
	Divisions  []Division  `yaml:"divisions,omitempty" json:"divisions,omitempty"`
	Leagues    []League    `yaml:"leagues,omitempty" json:"leagues,omitempty"`
	Seasons    []Season    `yaml:"seasons,omitempty" json:"seasons,omitempty"`
	Positions  []Position  `yaml:"positions,omitempty" json:"positions,omitempty"`
	Formations []Formation `yaml:"formations,omitempty" json:"formations,omitempty"`
	Players    []Player    `yaml:"players,omitempty" json:"players,omitempty"`
	Teams      []Team      `yaml:"teams,omitempty" json:"teams,omitempty"`
	Games      []Game      `yaml:"games,omitempty" json:"games,omitempty"`
}

// Division is an age group and its field size.
type Division struct {
	ID           string `yaml:"id" json:"id"`
	Name         string `yaml:"name" json:"name"`
	Description  string `yaml:"description,omitempty" json:"description,omitempty"`
	PlayersCount int    `yaml:"playersCount" json:"playersCount"`
	RosterMax    int    `yaml:"rosterMax" json:"rosterMax"`
	NoGK         bool   `yaml:"noGk,omitempty" json:"noGk,omitempty"`
}

// League belongs to the division named by Division.
type League struct {
	ID          string `yaml:"id" json:"id"`
	Division    string `yaml:"division" json:"division"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Season belongs to the league named by League.
type Season struct {
	ID          string `yaml:"id" json:"id"`
	League      string `yaml:"league" json:"league"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Position is a field role shared by formations.
type Position struct {
	ID           string `yaml:"id" json:"id"`
	Name         string `yaml:"name" json:"name"`
	Abbreviation string `yaml:"abbreviation" json:"abbreviation"`
	Type         string `yaml:"type" json:"type"`
	DisplayOrder int    `yaml:"displayOrder" json:"displayOrder"`
}

// Formation lists its position ids in display order.
type Formation struct {
	ID           string   `yaml:"id" json:"id"`
	Name         string   `yaml:"name" json:"name"`
	Description  string   `yaml:"description,omitempty" json:"description,omitempty"`
	PlayersCount int      `yaml:"playersCount" json:"playersCount"`
	NoGK         bool     `yaml:"noGk,omitempty" json:"noGk,omitempty"`
	Positions    []string `yaml:"positions,omitempty" json:"positions,omitempty"`
}

// Player birthdates are "YYYY-MM-DD".
type Player struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	Birthdate string `yaml:"birthdate" json:"birthdate"`
}

// Team plays one season; Roster lists its members.
type Team struct {
	ID               string   `yaml:"id" json:"id"`
	Season           string   `yaml:"season" json:"season"`
	Name             string   `yaml:"name" json:"name"`
	Description      string   `yaml:"description,omitempty" json:"description,omitempty"`
	Color            string   `yaml:"color" json:"color"`
	DefaultFormation string   `yaml:"defaultFormation" json:"defaultFormation"`
	Roster           []Member `yaml:"roster,omitempty" json:"roster,omitempty"`
}

// Member is one roster entry. Jersey is optional.
type Member struct {
	Player string `yaml:"player" json:"player"`
	Jersey *int   `yaml:"jersey,omitempty" json:"jersey,omitempty"`
}

// Game names exactly one of AwayTeam and Opponent. DateTime is RFC 3339.
// EmptySlots tops every planned period up to its slot budget.
type Game struct {
	ID             string   `yaml:"id" json:"id"`
	HomeTeam       string   `yaml:"homeTeam" json:"homeTeam"`
	AwayTeam       string   `yaml:"awayTeam,omitempty" json:"awayTeam,omitempty"`
	Opponent       string   `yaml:"opponent,omitempty" json:"opponent,omitempty"`
	Formation      string   `yaml:"formation,omitempty" json:"formation,omitempty"`
	PlannedPeriods int      `yaml:"plannedPeriods,omitempty" json:"plannedPeriods,omitempty"`
	DateTime       string   `yaml:"dateTime" json:"dateTime"`
	Location       string   `yaml:"location,omitempty" json:"location,omitempty"`
	Status         string   `yaml:"status,omitempty" json:"status,omitempty"`
	EmptySlots     bool     `yaml:"emptySlots,omitempty" json:"emptySlots,omitempty"`
	Absent         []string `yaml:"absent,omitempty" json:"absent,omitempty"`
}

// Default returns the embedded U10 dataset.
func Default() (*Dataset, error) {
	return ParseYAML(defaultYAML, "default.yaml")
}

// Load reads a dataset from path. Files ending in .yaml or .yml are YAML,
// files ending in .cue are CUE, and a directory is loaded as one CUE
// package.
func Load(path string) (*Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("dataset not found: %s", path)}
	}
	if info.IsDir() {
		return LoadCUEDir(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data, path)
	case ".cue":
		return ParseCUE(data, path)
	}
	return nil, &LoadError{Code: ErrCodeFormat, Message: fmt.Sprintf("unsupported dataset format: %s", path)}
}

// ParseYAML decodes a YAML dataset, rejecting unknown fields, and checks it
// against the schema.
func ParseYAML(data []byte, name string) (*Dataset, error) {
	var ds Dataset
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&ds); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("%s: %v", name, err)}
	}
	if err := checkSchema(&ds); err != nil {
		return nil, err
	}
	return &ds, nil
}
