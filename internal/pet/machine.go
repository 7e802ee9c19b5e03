// Package pet implements the Regenmon state machine: care actions with a
// shared cooldown, leveling, passive decay and best-effort persistence.
package pet

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/moorebrett0/regenmon/internal/clock"
	"github.com/moorebrett0/regenmon/internal/random"
	"github.com/moorebrett0/regenmon/internal/species"
	"github.com/moorebrett0/regenmon/internal/storage"
)

const (
	CooldownDuration       = 3 * time.Second
	CelebrationDelay       = 100 * time.Millisecond
	CelebrationDuration    = 1200 * time.Millisecond
	HappinessDecayInterval = 10 * time.Second
	HungerDecayInterval    = 15 * time.Second
	HappinessDecayAmount   = 1
	HungerDecayAmount      = 2
)

// Effect is a (happiness, xp, hunger) change.
type Effect struct {
	Happiness int
	XP        int
	Hunger    int
}

// BaseEffects are the unmodified gains of each care action.
var BaseEffects = map[species.Action]Effect{
	species.Feed:  {Happiness: 20, XP: 5, Hunger: -30},
	species.Play:  {Happiness: 15, XP: 10, Hunger: 5},
	species.Train: {Happiness: 5, XP: 20, Hunger: 10},
}

// Options configures a Machine. Store and Clock are required; a nil Rand
// uses a crypto-seeded source.
type Options struct {
	Store  storage.Store
	Clock  clock.Clock
	Rand   random.Source
	Logger *slog.Logger

	// Scope identifies the player. Blank is the anonymous local player.
	Scope string

	// HungerModel enables the hunger stat and its decay.
	HungerModel bool

	// CreatorFlow leaves the pet absent until Create is called, instead of
	// defaulting one on first load or reset.
	CreatorFlow bool

	// OnLevelUp runs after an action levels the pet up, outside the lock.
	OnLevelUp func(Snapshot)
}

// CreateConfig selects the immutable traits of a new Regenmon.
type CreateConfig struct {
	Type        string
	Personality string
	Name        string
}

// Result describes an applied care action.
type Result struct {
	Action    species.Action
	Gains     Effect // effective gains after bonuses, before clamping
	LeveledUp bool
	Bonus     bool // the random personality bonus was granted
}

// Machine owns one player's pet. It is safe for concurrent use; timer
// callbacks run on clock goroutines.
type Machine struct {
	mu   sync.Mutex
	opts Options
	log  *slog.Logger
	rand random.Source

	state       *State
	cooling     bool
	celebrating bool
	closed      bool

	// gen is bumped whenever the state is replaced or torn down so that
	// callbacks scheduled for an earlier state become no-ops.
	gen uint64

	cooldownTimer  clock.Timer
	celebrateTimer clock.Timer
	happinessTimer clock.Timer
	hungerTimer    clock.Timer
}

// New builds a Machine. Call Load before use.
func New(opts Options) *Machine {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	src := opts.Rand
	if src == nil {
		src = random.NewSeeded()
	}
	return &Machine{
		opts: opts,
		log:  log.With("scope", opts.Scope),
		rand: src,
	}
}

// Load reads the saved pet. Missing or unreadable saves fall back to the
// default pet (or no pet in creator-flow mode); errors are logged, never
// returned. Decay starts if a pet is present.
func (m *Machine) Load(ctx context.Context) {
	now := m.opts.Clock.Now()
	var loaded *State

	data, err := m.opts.Store.Get(ctx, storage.PetKey(m.opts.Scope))
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		m.log.Warn("pet: load failed, using defaults", "err", err)
	default:
		st, err := decodeState(data, now)
		if err != nil {
			m.log.Warn("pet: corrupt save, using defaults", "err", err)
		} else {
			loaded = &st
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopTimersLocked()
	m.gen++
	if loaded == nil && !m.opts.CreatorFlow {
		st := defaultState(now)
		loaded = &st
	}
	m.state = loaded
	if m.state != nil {
		m.startDecayLocked()
	}
}

// Feed applies the feed action. It returns false during cooldown or when
// no pet exists.
func (m *Machine) Feed() bool {
	_, ok := m.Apply(species.Feed)
	return ok
}

// Play applies the play action.
func (m *Machine) Play() bool {
	_, ok := m.Apply(species.Play)
	return ok
}

// Train applies the train action.
func (m *Machine) Train() bool {
	_, ok := m.Apply(species.Train)
	return ok
}

// Apply runs one care action. Calls during cooldown are silent no-ops and
// do not restart the cooldown.
func (m *Machine) Apply(action species.Action) (Result, bool) {
	base, known := BaseEffects[action]

	m.mu.Lock()
	if !known || m.state == nil || m.closed || m.cooling {
		m.mu.Unlock()
		return Result{}, false
	}

	typ := species.Types[m.state.Type]
	pers := species.Personalities[m.state.Personality]

	m.startCooldownLocked(typ)

	res := Result{Action: action}
	res.Gains, res.Bonus = m.gains(action, base, typ, pers)

	st := m.state
	st.Happiness = clamp(st.Happiness + res.Gains.Happiness)
	if m.opts.HungerModel {
		st.Hunger = clamp(st.Hunger + res.Gains.Hunger)
	}

	// One level per call, however far xp overflows.
	st.XP += res.Gains.XP
	if st.XP >= XPPerLevel {
		st.XP -= XPPerLevel
		st.Level++
		res.LeveledUp = true
		m.celebrateLocked()
	}
	st.XP = clampXP(st.XP)

	m.persistLocked()
	snap := m.snapshotLocked()
	hook := m.opts.OnLevelUp
	m.mu.Unlock()

	if res.LeveledUp {
		m.log.Info("pet: level up", "level", snap.Level, "name", snap.Name)
		if hook != nil {
			hook(snap)
		}
	}
	return res, true
}

// gains computes type bonuses first, then personality bonuses, including
// the random roll. The roll consumes one value from the random source.
func (m *Machine) gains(action species.Action, base Effect, typ *species.Type, pers *species.Personality) (Effect, bool) {
	g := base
	if typ != nil {
		g.Happiness = scale(g.Happiness, typ.HappinessMult)
		g.XP = scale(g.XP, typ.XPMult)
		if b, ok := typ.ActionBonus[action]; ok {
			g.Happiness += b.Happiness
			g.XP += b.XP
		}
	}
	if pers == nil {
		return g, false
	}
	if b, ok := pers.ActionBonus[action]; ok {
		g.Happiness += b.Happiness
		g.XP += b.XP
	}
	if pers.RandomChance > 0 && m.rand.Float64() < pers.RandomChance {
		g.Happiness += pers.RandomBonus.Happiness
		g.XP += pers.RandomBonus.XP
		return g, true
	}
	return g, false
}

func scale(v int, mult float64) int {
	if mult == 0 || mult == 1 {
		return v
	}
	return int(math.Round(float64(v) * mult))
}

// SetName renames the pet. Blank names are ignored; long names are cut to
// MaxNameLength runes.
func (m *Machine) SetName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil || m.closed {
		return false
	}
	m.state.Name = truncate(name, MaxNameLength)
	m.persistLocked()
	return true
}

// Create hatches a new pet with the given traits. Unknown or blank type or
// personality is a silent no-op, as is creating over a pet that already
// has a type.
func (m *Machine) Create(cfg CreateConfig) bool {
	typ, ok := species.LookupType(cfg.Type)
	if !ok {
		return false
	}
	pers, ok := species.LookupPersonality(cfg.Personality)
	if !ok {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || (m.state != nil && m.state.Type != "") {
		return false
	}

	st := defaultState(m.opts.Clock.Now())
	st.Type = typ.ID
	st.Personality = pers.ID
	if name := strings.TrimSpace(cfg.Name); name != "" {
		st.Name = truncate(name, MaxNameLength)
	}

	m.stopTimersLocked()
	m.gen++
	m.cooling = false
	m.celebrating = false
	m.state = &st
	m.persistLocked()
	m.startDecayLocked()
	m.log.Info("pet: created", "type", st.Type, "personality", st.Personality)
	return true
}

// Adjust applies a stat change that bypasses the cooldown, used for
// training results.
func (m *Machine) Adjust(happiness, hunger int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil || m.closed {
		return false
	}
	m.state.Happiness = clamp(m.state.Happiness + happiness)
	if m.opts.HungerModel {
		m.state.Hunger = clamp(m.state.Hunger + hunger)
	}
	m.persistLocked()
	return true
}

// Reset replaces the pet with a fresh default (or removes it in
// creator-flow mode), cancels every pending timer and clears the scope's
// chat and memory storage.
func (m *Machine) Reset(ctx context.Context) {
	m.mu.Lock()
	m.stopTimersLocked()
	m.gen++
	m.cooling = false
	m.celebrating = false
	if m.opts.CreatorFlow {
		m.state = nil
	} else {
		st := defaultState(m.opts.Clock.Now())
		m.state = &st
	}
	present := m.state != nil
	if present {
		m.persistLocked()
		m.startDecayLocked()
	}
	m.mu.Unlock()

	keys := []string{storage.ChatKey(m.opts.Scope), storage.MemoryKey(m.opts.Scope)}
	if !present {
		keys = append(keys, storage.PetKey(m.opts.Scope))
	}
	for _, key := range keys {
		if err := m.opts.Store.Remove(ctx, key); err != nil {
			m.log.Warn("pet: reset cleanup failed", "key", key, "err", err)
		}
	}
	m.log.Info("pet: reset")
}

// Snapshot returns a copy of the pet. The bool is false when no pet exists.
func (m *Machine) Snapshot() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return Snapshot{}, false
	}
	return m.snapshotLocked(), true
}

// Exists reports whether a pet is present.
func (m *Machine) Exists() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state != nil
}

// Cooldown reports whether care actions are currently gated.
func (m *Machine) Cooldown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cooling
}

// Celebrating reports whether the level-up celebration is showing.
func (m *Machine) Celebrating() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.celebrating
}

// Scope returns the player scope this machine belongs to.
func (m *Machine) Scope() string { return m.opts.Scope }

// Close stops every timer. The machine ignores all calls afterwards.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimersLocked()
	m.gen++
	m.closed = true
	m.cooling = false
	m.celebrating = false
}

func (m *Machine) snapshotLocked() Snapshot {
	st := m.state
	typ := species.Types[st.Type]
	snap := Snapshot{
		Name:        st.Name,
		Level:       st.Level,
		Happiness:   st.Happiness,
		HasHunger:   m.opts.HungerModel,
		XP:          st.XP,
		XPToNext:    XPPerLevel - st.XP,
		Type:        typ,
		Personality: species.Personalities[st.Personality],
		CreatedAt:   time.UnixMilli(st.CreatedAt),
		Evolution:   species.EvolutionName(st.Level),
		Sprite:      typ.Sprite(st.Level),
		Cooldown:    m.cooling,
		Celebrating: m.celebrating,
	}
	if snap.HasHunger {
		snap.Hunger = st.Hunger
	}
	snap.Mood = DetermineMood(snap.Happiness, snap.Hunger, snap.HasHunger)
	return snap
}

// persistLocked writes the state best-effort; failures are logged and the
// in-memory state stays authoritative.
func (m *Machine) persistLocked() {
	if m.state == nil {
		return
	}
	if err := storage.SetJSON(context.Background(), m.opts.Store, storage.PetKey(m.opts.Scope), m.state); err != nil {
		m.log.Warn("pet: persist failed", "err", err)
	}
}
