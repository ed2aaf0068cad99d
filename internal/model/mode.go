package model

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	personalKey   = "individual"
	teamKeyPrefix = "team:"
)

// Mode is the context progress is tracked under: Personal or Team.
// The set of implementations is closed.
type Mode interface {
	isMode()
}

// Personal is individual reading.
type Personal struct{}

// Team is reading as a member of a team.
type Team struct {
	ID   int
	Name string
}

func (Personal) isMode() {}
func (Team) isMode()     {}

// ModeKey derives the storage key for a mode.
func ModeKey(m Mode) string {
	switch m := m.(type) {
	case Personal:
		return personalKey
	case Team:
		return teamKeyPrefix + strconv.Itoa(m.ID)
	default:
		panic(fmt.Sprintf("model: unknown mode %T", m))
	}
}

// ModeString is the mode name used by the remote API.
func ModeString(m Mode) string {
	switch m.(type) {
	case Personal:
		return "personal"
	case Team:
		return "team"
	default:
		panic(fmt.Sprintf("model: unknown mode %T", m))
	}
}

// ModeDisplayName returns a label for headers.
func ModeDisplayName(m Mode) string {
	switch m := m.(type) {
	case Personal:
		return "개인"
	case Team:
		if m.Name == "" {
			return fmt.Sprintf("팀 %d", m.ID)
		}
		return m.Name
	default:
		panic(fmt.Sprintf("model: unknown mode %T", m))
	}
}

// TeamID returns the team id and true for team modes.
func TeamID(m Mode) (int, bool) {
	switch m := m.(type) {
	case Personal:
		return 0, false
	case Team:
		return m.ID, true
	default:
		panic(fmt.Sprintf("model: unknown mode %T", m))
	}
}

// ParseModeKey is the inverse of ModeKey. Team names are not part of the key.
func ParseModeKey(key string) (Mode, error) {
	if key == personalKey {
		return Personal{}, nil
	}
	if rest, ok := strings.CutPrefix(key, teamKeyPrefix); ok {
		id, err := strconv.Atoi(rest)
		if err != nil {
			return nil, fmt.Errorf("invalid team mode key %q: %w", key, err)
		}
		return Team{ID: id}, nil
	}
	return nil, fmt.Errorf("unknown mode key %q", key)
}
