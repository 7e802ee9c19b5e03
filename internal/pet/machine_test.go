package pet

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moorebrett0/regenmon/internal/clock"
	"github.com/moorebrett0/regenmon/internal/random"
	"github.com/moorebrett0/regenmon/internal/species"
	"github.com/moorebrett0/regenmon/internal/storage"
)

var epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store *storage.Memory
	clock *clock.Fake
	m     *Machine
}

func newFixture(t *testing.T, mutate func(*Options)) *fixture {
	t.Helper()
	f := &fixture{store: storage.NewMemory(), clock: clock.NewFake(epoch)}
	opts := Options{
		Store:       f.store,
		Clock:       f.clock,
		Rand:        random.NewScripted([]float64{0.99}, nil),
		Scope:       "u1",
		HungerModel: true,
	}
	if mutate != nil {
		mutate(&opts)
	}
	f.m = New(opts)
	t.Cleanup(f.m.Close)
	return f
}

func (f *fixture) save(t *testing.T, st State) {
	t.Helper()
	require.NoError(t, storage.SetJSON(context.Background(), f.store, storage.PetKey("u1"), st))
}

func (f *fixture) load() { f.m.Load(context.Background()) }

func (f *fixture) snap(t *testing.T) Snapshot {
	t.Helper()
	s, ok := f.m.Snapshot()
	require.True(t, ok, "pet should exist")
	return s
}

func TestLoadDefaults(t *testing.T) {
	f := newFixture(t, nil)
	f.load()

	s := f.snap(t)
	assert.Equal(t, DefaultName, s.Name)
	assert.Equal(t, 1, s.Level)
	assert.Equal(t, 100, s.Happiness)
	assert.Equal(t, 50, s.Hunger)
	assert.Equal(t, 0, s.XP)
	assert.Equal(t, "Eggmon", s.Evolution)
	assert.True(t, epoch.Equal(s.CreatedAt))
}

func TestLoadCorruptSaveFallsBack(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.store.Set(context.Background(), storage.PetKey("u1"), []byte("{not json")))
	f.load()

	s := f.snap(t)
	assert.Equal(t, DefaultName, s.Name)
	assert.Equal(t, 100, s.Happiness)
}

func TestLoadLegacySaveWithoutHunger(t *testing.T) {
	f := newFixture(t, nil)
	blob := `{"name":"Pip","level":3,"happiness":70,"xp":40}`
	require.NoError(t, f.store.Set(context.Background(), storage.PetKey("u1"), []byte(blob)))
	f.load()

	s := f.snap(t)
	assert.Equal(t, "Pip", s.Name)
	assert.Equal(t, 3, s.Level)
	assert.Equal(t, DefaultHunger, s.Hunger)
	assert.Nil(t, s.Type)
}

func TestLoadNormalizesOutOfRange(t *testing.T) {
	f := newFixture(t, nil)
	blob := `{"name":"  ","level":0,"happiness":250,"hunger":-4,"xp":180,"type":"lava","personality":"calm"}`
	require.NoError(t, f.store.Set(context.Background(), storage.PetKey("u1"), []byte(blob)))
	f.load()

	s := f.snap(t)
	assert.Equal(t, DefaultName, s.Name)
	assert.Equal(t, 1, s.Level)
	assert.Equal(t, 100, s.Happiness)
	assert.Equal(t, 0, s.Hunger)
	assert.Equal(t, XPPerLevel-1, s.XP)
	assert.Nil(t, s.Type)
	assert.Equal(t, "calm", s.PersonalityID())
}

func TestHungerNotModeled(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.HungerModel = false })
	f.load()
	require.True(t, f.m.Play())

	s := f.snap(t)
	assert.False(t, s.HasHunger)
	assert.Equal(t, 0, s.Hunger)
	assert.NotEqual(t, MoodHungry, s.Mood)
}

func TestActionEffects(t *testing.T) {
	tests := []struct {
		name      string
		typ, pers string
		action    species.Action
		want      Effect
		cooldown  time.Duration
	}{
		{"feed untyped", "", "", species.Feed, Effect{20, 5, -30}, 3 * time.Second},
		{"water play", "water", "calm", species.Play, Effect{22, 10, 5}, 3 * time.Second},
		{"plant feed", "plant", "calm", species.Feed, Effect{30, 5, -30}, 3 * time.Second},
		{"fire train", "fire", "calm", species.Train, Effect{5, 30, 10}, 3 * time.Second},
		{"fire brave train", "fire", "brave", species.Train, Effect{5, 35, 10}, 3 * time.Second},
		{"shadow train", "shadow", "calm", species.Train, Effect{5, 23, 10}, 3 * time.Second},
		{"cosmic feed", "cosmic", "calm", species.Feed, Effect{22, 6, -30}, 3 * time.Second},
		{"cosmic mischievous play", "cosmic", "mischievous", species.Play, Effect{22, 11, 5}, 3 * time.Second},
		{"electric play", "electric", "calm", species.Play, Effect{15, 10, 5}, 1500 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			if tt.typ != "" {
				f.save(t, State{Name: "X", Level: 1, Happiness: 50, Hunger: 50, Type: tt.typ, Personality: tt.pers})
			}
			f.load()

			res, ok := f.m.Apply(tt.action)
			require.True(t, ok)
			assert.Equal(t, tt.want, res.Gains)
			assert.False(t, res.Bonus)

			f.clock.Advance(tt.cooldown - time.Millisecond)
			assert.True(t, f.m.Cooldown())
			f.clock.Advance(time.Millisecond)
			assert.False(t, f.m.Cooldown())
		})
	}
}

func TestCooldownCallsAreNoOps(t *testing.T) {
	f := newFixture(t, nil)
	f.load()

	require.True(t, f.m.Feed())
	before := f.snap(t)

	f.clock.Advance(2 * time.Second)
	assert.False(t, f.m.Play())
	assert.False(t, f.m.Train())
	after := f.snap(t)
	assert.Equal(t, before.Happiness, after.Happiness)
	assert.Equal(t, before.XP, after.XP)
	assert.Equal(t, before.Hunger, after.Hunger)

	// The rejected calls did not extend the original 3s window.
	f.clock.Advance(time.Second)
	assert.False(t, f.m.Cooldown())
	assert.True(t, f.m.Play())
}

func TestWaterBravePlayScenario(t *testing.T) {
	f := newFixture(t, nil)
	f.save(t, State{Name: "Nami", Level: 1, Happiness: 100, Hunger: 50, XP: 0, Type: "water", Personality: "brave"})
	f.load()

	for i := 0; i < 4; i++ {
		res, ok := f.m.Apply(species.Play)
		require.True(t, ok, "play %d", i)
		assert.Equal(t, 22, res.Gains.Happiness)
		if i < 3 {
			f.clock.Advance(CooldownDuration)
		}
	}

	s := f.snap(t)
	assert.Equal(t, 100, s.Happiness)
	assert.Equal(t, 40, s.XP)
	assert.Equal(t, 1, s.Level)
}

func TestLevelUpOncePerCall(t *testing.T) {
	var leveled []Snapshot
	f := newFixture(t, func(o *Options) {
		o.OnLevelUp = func(s Snapshot) { leveled = append(leveled, s) }
	})
	f.save(t, State{Name: "Pip", Level: 4, Happiness: 50, Hunger: 50, XP: 95, Type: "fire", Personality: "brave"})
	f.load()

	res, ok := f.m.Apply(species.Train)
	require.True(t, ok)
	assert.True(t, res.LeveledUp)

	s := f.snap(t)
	assert.Equal(t, 5, s.Level)
	assert.Equal(t, 30, s.XP) // 95 + 35 - 100
	assert.Equal(t, "Chickenmon", s.Evolution)
	assert.Equal(t, species.Types["fire"].Evolutions[1], s.Sprite)
	require.Len(t, leveled, 1)
	assert.Equal(t, 5, leveled[0].Level)
}

func TestCelebrationTiming(t *testing.T) {
	f := newFixture(t, nil)
	f.save(t, State{Name: "Pip", Level: 1, Happiness: 50, Hunger: 50, XP: 90})
	f.load()

	require.True(t, f.m.Train())
	assert.False(t, f.m.Celebrating())

	f.clock.Advance(CelebrationDelay)
	assert.True(t, f.m.Celebrating())

	f.clock.Advance(CelebrationDuration - time.Millisecond)
	assert.True(t, f.m.Celebrating())
	f.clock.Advance(time.Millisecond)
	assert.False(t, f.m.Celebrating())
}

func TestInvariantsHoldForRandomSequences(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			rng := random.New(seed)
			f := newFixture(t, func(o *Options) { o.Rand = rng })
			typ := species.TypeIDs[rng.Intn(len(species.TypeIDs))]
			pers := species.PersonalityIDs[rng.Intn(len(species.PersonalityIDs))]
			f.save(t, State{Name: "R", Level: 1, Happiness: 60, Hunger: 50, Type: typ, Personality: pers})
			f.load()

			actions := []species.Action{species.Feed, species.Play, species.Train}
			level := 1
			for i := 0; i < 300; i++ {
				res, ok := f.m.Apply(actions[rng.Intn(len(actions))])
				s := f.snap(t)
				require.GreaterOrEqual(t, s.Happiness, 0)
				require.LessOrEqual(t, s.Happiness, 100)
				require.GreaterOrEqual(t, s.Hunger, 0)
				require.LessOrEqual(t, s.Hunger, 100)
				require.GreaterOrEqual(t, s.XP, 0)
				require.Less(t, s.XP, XPPerLevel)
				if ok && res.LeveledUp {
					level++
				}
				require.Equal(t, level, s.Level)
				f.clock.Advance(time.Duration(rng.Intn(4000)) * time.Millisecond)
			}
		})
	}
}

func TestMysteriousBonusForcedBranches(t *testing.T) {
	hit := newFixture(t, func(o *Options) { o.Rand = random.NewScripted([]float64{0.1}, nil) })
	hit.save(t, State{Name: "M", Level: 1, Happiness: 10, Hunger: 50, Personality: "mysterious"})
	hit.load()
	res, ok := hit.m.Apply(species.Play)
	require.True(t, ok)
	assert.True(t, res.Bonus)
	assert.Equal(t, Effect{20, 15, 5}, res.Gains)

	miss := newFixture(t, func(o *Options) { o.Rand = random.NewScripted([]float64{0.5}, nil) })
	miss.save(t, State{Name: "M", Level: 1, Happiness: 10, Hunger: 50, Personality: "mysterious"})
	miss.load()
	res, ok = miss.m.Apply(species.Play)
	require.True(t, ok)
	assert.False(t, res.Bonus)
	assert.Equal(t, Effect{15, 10, 5}, res.Gains)
}

func TestMysteriousBonusRate(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Rand = random.New(7) })
	f.save(t, State{Name: "M", Level: 1, Happiness: 50, Hunger: 50, Personality: "mysterious"})
	f.load()

	const trials = 2000
	bonuses := 0
	for i := 0; i < trials; i++ {
		res, ok := f.m.Apply(species.Feed)
		require.True(t, ok)
		if res.Bonus {
			bonuses++
		}
		f.clock.Advance(CooldownDuration)
	}
	rate := float64(bonuses) / trials
	assert.InDelta(t, 0.5, rate, 0.06)
}

func TestHappinessDecay(t *testing.T) {
	f := newFixture(t, nil)
	f.load()

	f.clock.Advance(HappinessDecayInterval - time.Millisecond)
	assert.Equal(t, 100, f.snap(t).Happiness)
	f.clock.Advance(time.Millisecond)
	assert.Equal(t, 99, f.snap(t).Happiness)
	f.clock.Advance(5 * HappinessDecayInterval)
	assert.Equal(t, 94, f.snap(t).Happiness)
}

func TestCalmDecaysHalfAsFast(t *testing.T) {
	f := newFixture(t, nil)
	f.save(t, State{Name: "Zen", Level: 1, Happiness: 80, Hunger: 50, Personality: "calm"})
	f.load()

	f.clock.Advance(HappinessDecayInterval)
	assert.Equal(t, 80, f.snap(t).Happiness)
	f.clock.Advance(HappinessDecayInterval)
	assert.Equal(t, 79, f.snap(t).Happiness)
}

func TestHungerDecay(t *testing.T) {
	f := newFixture(t, nil)
	f.load()

	f.clock.Advance(HungerDecayInterval)
	assert.Equal(t, 52, f.snap(t).Hunger)
	f.clock.Advance(30 * HungerDecayInterval)
	assert.Equal(t, 100, f.snap(t).Hunger)
}

func TestDecayPersists(t *testing.T) {
	f := newFixture(t, nil)
	f.load()
	f.clock.Advance(HappinessDecayInterval)

	var st State
	require.NoError(t, storage.GetJSON(context.Background(), f.store, storage.PetKey("u1"), &st))
	assert.Equal(t, 99, st.Happiness)
}

func TestNoDecayWithoutPet(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.CreatorFlow = true })
	f.load()

	_, ok := f.m.Snapshot()
	assert.False(t, ok)
	assert.Equal(t, 0, f.clock.Pending())
	assert.False(t, f.m.Feed())
}

func TestCloseStopsTimers(t *testing.T) {
	f := newFixture(t, nil)
	f.load()
	require.True(t, f.m.Feed())
	before := f.snap(t)

	f.m.Close()
	assert.Equal(t, 0, f.clock.Pending())
	f.clock.Advance(time.Minute)
	after := f.snap(t)
	assert.Equal(t, before.Happiness, after.Happiness)
	assert.False(t, f.m.Play())
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.save(t, State{Name: "Old", Level: 7, Happiness: 30, Hunger: 90, XP: 55, Type: "fire", Personality: "brave"})
	require.NoError(t, f.store.Set(ctx, storage.ChatKey("u1"), []byte(`[]`)))
	require.NoError(t, f.store.Set(ctx, storage.MemoryKey("u1"), []byte(`[]`)))
	require.NoError(t, f.store.Set(ctx, storage.ChatKey("other"), []byte(`[]`)))
	f.load()
	require.True(t, f.m.Train())

	f.m.Reset(ctx)

	s := f.snap(t)
	assert.Equal(t, DefaultName, s.Name)
	assert.Equal(t, 1, s.Level)
	assert.Equal(t, 100, s.Happiness)
	assert.Equal(t, 50, s.Hunger)
	assert.Equal(t, 0, s.XP)
	assert.Nil(t, s.Type)
	assert.Nil(t, s.Personality)
	assert.False(t, s.Cooldown)
	assert.False(t, s.Celebrating)

	_, err := f.store.Get(ctx, storage.ChatKey("u1"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = f.store.Get(ctx, storage.MemoryKey("u1"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = f.store.Get(ctx, storage.ChatKey("other"))
	assert.NoError(t, err)

	// Only the fresh decay loops remain.
	assert.Equal(t, 2, f.clock.Pending())
	assert.True(t, f.m.Feed())
}

func TestResetCreatorFlowRemovesPet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(o *Options) { o.CreatorFlow = true })
	f.save(t, State{Name: "Old", Level: 2, Happiness: 30, Hunger: 50, Type: "water", Personality: "calm"})
	f.load()

	f.m.Reset(ctx)
	assert.False(t, f.m.Exists())
	_, err := f.store.Get(ctx, storage.PetKey("u1"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 0, f.clock.Pending())
}

func TestCreate(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.CreatorFlow = true })
	f.load()

	assert.False(t, f.m.Create(CreateConfig{Type: "", Personality: "brave", Name: "X"}))
	assert.False(t, f.m.Create(CreateConfig{Type: "fuego", Personality: "", Name: "X"}))
	assert.False(t, f.m.Exists())

	require.True(t, f.m.Create(CreateConfig{Type: "Fuego", Personality: "valiente", Name: "  Chispa  "}))
	s := f.snap(t)
	assert.Equal(t, "Chispa", s.Name)
	assert.Equal(t, "fire", s.TypeID())
	assert.Equal(t, "brave", s.PersonalityID())
	assert.Equal(t, 100, s.Happiness)

	assert.False(t, f.m.Create(CreateConfig{Type: "agua", Personality: "calm"}), "traits are immutable")
	assert.Equal(t, "fire", f.snap(t).TypeID())
}

func TestSetName(t *testing.T) {
	f := newFixture(t, nil)
	f.load()

	assert.False(t, f.m.SetName("   "))
	assert.Equal(t, DefaultName, f.snap(t).Name)

	assert.True(t, f.m.SetName(" Pikachu "))
	assert.Equal(t, "Pikachu", f.snap(t).Name)

	assert.True(t, f.m.SetName("abcdefghijklmnopqrstuvwxyz"))
	assert.Equal(t, "abcdefghijklmnopqrst", f.snap(t).Name)

	// Renaming is not gated by the cooldown.
	require.True(t, f.m.Feed())
	assert.True(t, f.m.SetName("Luz"))
}

func TestAdjustBypassesCooldown(t *testing.T) {
	f := newFixture(t, nil)
	f.load()
	require.True(t, f.m.Feed())
	require.True(t, f.m.Cooldown())

	assert.True(t, f.m.Adjust(-150, 15))
	s := f.snap(t)
	assert.Equal(t, 0, s.Happiness)
	assert.Equal(t, 35, s.Hunger) // 50 - 30 + 15
}

func TestPersistFailureIsSwallowed(t *testing.T) {
	f := newFixture(t, nil)
	f.load()
	f.store.FailWrites = true

	require.True(t, f.m.Play())
	assert.Equal(t, 10, f.snap(t).XP)
}
