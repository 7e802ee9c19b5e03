package pet

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/moorebrett0/regenmon/internal/species"
)

const (
	XPPerLevel = 100

	DefaultName      = "Regenmon"
	DefaultHappiness = 100
	DefaultHunger    = 50
	MaxNameLength    = 20
)

// State is the persisted record for one player's Regenmon.
type State struct {
	Name        string `json:"name"`
	Level       int    `json:"level"`
	Happiness   int    `json:"happiness"`
	Hunger      int    `json:"hunger"`
	XP          int    `json:"xp"`
	Type        string `json:"type,omitempty"`
	Personality string `json:"personality,omitempty"`
	CreatedAt   int64  `json:"createdAt"` // unix ms
}

// Snapshot is a read-only copy of the pet for use outside the lock.
type Snapshot struct {
	Name        string
	Level       int
	Happiness   int
	Hunger      int
	HasHunger   bool // false: hunger is not modeled and always satisfied
	XP          int
	XPToNext    int
	Type        *species.Type
	Personality *species.Personality
	CreatedAt   time.Time

	Evolution   string
	Sprite      string
	Mood        Mood
	Cooldown    bool
	Celebrating bool
}

// TypeLabel returns the player-facing type label, or "" when untyped.
func (s Snapshot) TypeLabel() string {
	if s.Type == nil {
		return ""
	}
	return s.Type.Label
}

// TypeID returns the type ID, or "" when untyped.
func (s Snapshot) TypeID() string {
	if s.Type == nil {
		return ""
	}
	return s.Type.ID
}

// PersonalityID returns the personality ID, or "" when unset.
func (s Snapshot) PersonalityID() string {
	if s.Personality == nil {
		return ""
	}
	return s.Personality.ID
}

func defaultState(now time.Time) State {
	return State{
		Name:      DefaultName,
		Level:     1,
		Happiness: DefaultHappiness,
		Hunger:    DefaultHunger,
		XP:        0,
		CreatedAt: now.UnixMilli(),
	}
}

// decodeState merges a saved blob over the defaults, so fields missing from
// older saves (hunger in particular) take their default value. Out-of-range
// values are pulled back inside the invariants.
func decodeState(data []byte, now time.Time) (State, error) {
	st := defaultState(now)
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, err
	}
	st.normalize()
	return st, nil
}

func (st *State) normalize() {
	st.Name = strings.TrimSpace(st.Name)
	if st.Name == "" {
		st.Name = DefaultName
	}
	st.Name = truncate(st.Name, MaxNameLength)
	if st.Level < 1 {
		st.Level = 1
	}
	st.Happiness = clamp(st.Happiness)
	st.Hunger = clamp(st.Hunger)
	st.XP = clampXP(st.XP)
	if _, ok := species.Types[st.Type]; !ok {
		st.Type = ""
	}
	if _, ok := species.Personalities[st.Personality]; !ok {
		st.Personality = ""
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampXP(v int) int {
	if v < 0 {
		return 0
	}
	if v >= XPPerLevel {
		return XPPerLevel - 1
	}
	return v
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
