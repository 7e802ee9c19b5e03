package game

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moorebrett0/regenmon/internal/chat"
	"github.com/moorebrett0/regenmon/internal/clock"
	"github.com/moorebrett0/regenmon/internal/economy"
	"github.com/moorebrett0/regenmon/internal/hub"
	"github.com/moorebrett0/regenmon/internal/pet"
	"github.com/moorebrett0/regenmon/internal/random"
	"github.com/moorebrett0/regenmon/internal/storage"
	"github.com/moorebrett0/regenmon/internal/training"
)

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type echoCompanion struct{ answer string }

func (e echoCompanion) Reply(context.Context, pet.Snapshot, []chat.Message, []chat.Memory) (string, error) {
	return e.answer, nil
}

type fixedVision struct{ answer string }

func (v fixedVision) Evaluate(context.Context, string, string, training.Image) (string, error) {
	return v.answer, nil
}

type countingObserver struct {
	mu      sync.Mutex
	actions map[string]int
}

func (o *countingObserver) Action(action, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.actions == nil {
		o.actions = map[string]int{}
	}
	o.actions[action+":"+outcome]++
}
func (o *countingObserver) ChatReply(bool)       {}
func (o *countingObserver) CoinsChanged(int)     {}
func (o *countingObserver) Evaluation(int, bool) {}

func (o *countingObserver) count(key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.actions[key]
}

type fixture struct {
	store *storage.Memory
	clock *clock.Fake
	deps  Deps
}

func newFixture(mutate func(*Deps)) *fixture {
	f := &fixture{store: storage.NewMemory(), clock: clock.NewFake(epoch)}
	f.deps = Deps{
		Store:       f.store,
		Clock:       f.clock,
		Rand:        random.NewScripted([]float64{0.99}, []int{1}),
		HungerModel: true,
		ChatMode:    chat.ModeLLM,
		Companion:   echoCompanion{answer: "Hola!"},
	}
	if mutate != nil {
		mutate(&f.deps)
	}
	return f
}

func (f *fixture) session(t *testing.T) *Session {
	t.Helper()
	s := NewSession("u1", f.deps)
	s.Load(context.Background())
	t.Cleanup(s.Close)
	return s
}

func TestFeedCostsCoinsAndRespectsCooldown(t *testing.T) {
	obs := &countingObserver{}
	f := newFixture(func(d *Deps) { d.Observer = obs })
	s := f.session(t)

	_, err := s.Feed()
	require.NoError(t, err)
	assert.Equal(t, economy.DefaultBalance-economy.FeedCost, s.Coins().Balance())

	_, err = s.Feed()
	require.ErrorIs(t, err, ErrCooldown)
	_, err = s.Play()
	require.ErrorIs(t, err, ErrCooldown)
	assert.Equal(t, economy.DefaultBalance-economy.FeedCost, s.Coins().Balance())

	f.clock.Advance(3 * time.Second)
	_, err = s.Play()
	require.NoError(t, err)

	entries := s.History().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, LabelPlay, entries[0].Action)
	assert.Equal(t, Entry{Action: LabelFeed, Coins: -economy.FeedCost, Timestamp: epoch.UnixMilli()}, entries[1])
	assert.Equal(t, 1, obs.count("feed:ok"))
	assert.Equal(t, 2, obs.count("feed:cooldown")+obs.count("play:cooldown"))
}

func TestFeedRejectedWhenBroke(t *testing.T) {
	f := newFixture(nil)
	require.NoError(t, storage.SetJSON(context.Background(), f.store, storage.CoinsKey("u1"), 9))
	s := f.session(t)

	snap, _ := s.Pet().Snapshot()

	_, err := s.Feed()
	require.ErrorIs(t, err, ErrCannotAfford)
	after, _ := s.Pet().Snapshot()
	assert.Equal(t, snap.Hunger, after.Hunger)
	assert.False(t, s.Pet().Cooldown())
	assert.Equal(t, 9, s.Coins().Balance())
}

func TestCreatorFlowRequiresPet(t *testing.T) {
	f := newFixture(func(d *Deps) { d.CreatorFlow = true })
	s := f.session(t)

	_, err := s.Play()
	require.ErrorIs(t, err, ErrNoPet)
	_, err = s.Chat(context.Background(), "hola")
	require.ErrorIs(t, err, ErrNoPet)
	require.ErrorIs(t, s.Rename("Chispa"), ErrNoPet)

	require.True(t, s.Create(pet.CreateConfig{Type: "fuego", Personality: "valiente", Name: "Chispa"}))
	require.False(t, s.Create(pet.CreateConfig{Type: "agua", Personality: "calm"}))

	res, err := s.Train()
	require.NoError(t, err)
	assert.Equal(t, 35, res.Gains.XP)
}

func TestChatRewardsCoins(t *testing.T) {
	f := newFixture(func(d *Deps) {
		d.Rand = random.NewScripted([]float64{0.0}, []int{1})
	})
	s := f.session(t)

	reply, err := s.Chat(context.Background(), "me llamo Ana")
	require.NoError(t, err)
	assert.Equal(t, "Hola!", reply.Message.Text)
	assert.False(t, reply.Offline)
	assert.Equal(t, 3, reply.Earned)
	assert.Equal(t, economy.DefaultBalance+3, s.Coins().Balance())

	entries := s.History().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, Entry{Action: LabelChat, Coins: 3, Timestamp: epoch.UnixMilli()}, entries[0])
	assert.Len(t, s.Conversation().Messages(), 2)
}

func TestEvaluateAppliesEffects(t *testing.T) {
	f := newFixture(func(d *Deps) { d.Vision = fixedVision{answer: "Score: 85/100. Muy buen trabajo"} })
	s := f.session(t)

	_, err := s.Evaluate(context.Background(), training.Image{Data: []byte("hola")}, "codigo")
	require.ErrorIs(t, err, training.ErrNotImage)

	res, err := s.Evaluate(context.Background(), training.Image{Data: pngHeader}, "  Diseno ")
	require.NoError(t, err)
	assert.Equal(t, training.CategoryDesign, res.Category)
	assert.Equal(t, 85, res.Evaluation.Score)
	assert.Equal(t, "Muy buen trabajo", res.Evaluation.Feedback)
	assert.Equal(t, 42, res.Earned)
	assert.Equal(t, training.Outcome{TotalPoints: 85, Stage: 1}, res.Outcome)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 100, snap.Happiness)
	assert.Equal(t, pet.DefaultHunger+15, snap.Hunger)
	assert.Equal(t, economy.DefaultBalance+42, s.Coins().Balance())
	assert.Equal(t, LabelTraining, s.History().Entries()[0].Action)
}

func TestEvaluateWithoutVisionFallsBack(t *testing.T) {
	f := newFixture(nil)
	s := f.session(t)

	res, err := s.Evaluate(context.Background(), training.Image{Data: pngHeader}, "otra cosa")
	require.NoError(t, err)
	assert.True(t, res.Evaluation.Fallback)
	assert.Equal(t, training.CategoryCode, res.Category)
	assert.Equal(t, 41, res.Evaluation.Score)
}

func TestResetKeepsCoins(t *testing.T) {
	f := newFixture(func(d *Deps) { d.Vision = fixedVision{answer: "Score: 60/100. ok"} })
	s := f.session(t)
	ctx := context.Background()

	_, err := s.Chat(ctx, "hola")
	require.NoError(t, err)
	_, err = s.Evaluate(ctx, training.Image{Data: pngHeader}, "proyecto")
	require.NoError(t, err)
	require.NoError(t, s.Rename("Chispa"))
	balance := s.Coins().Balance()

	s.Reset(ctx)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, pet.DefaultName, snap.Name)
	assert.Empty(t, s.Conversation().Messages())
	assert.Equal(t, training.Progress{Stage: 1}, s.Training().Progress())
	assert.Equal(t, balance, s.Coins().Balance())
	assert.NotEmpty(t, s.History().Entries())

	_, err = f.store.Get(ctx, storage.ChatKey("u1"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLevelUpAnnouncesEvolution(t *testing.T) {
	var got []LevelUp
	f := newFixture(func(d *Deps) {
		d.OnLevelUp = func(scope string, ev LevelUp) {
			assert.Equal(t, "u1", scope)
			got = append(got, ev)
		}
	})
	require.NoError(t, storage.SetJSON(context.Background(), f.store, storage.PetKey("u1"),
		pet.State{Name: "Chispa", Level: 4, Happiness: 50, Hunger: 10, XP: 90, CreatedAt: epoch.UnixMilli()}))
	s := f.session(t)

	res, err := s.Train()
	require.NoError(t, err)
	require.True(t, res.LeveledUp)
	require.Len(t, got, 1)
	assert.True(t, got[0].Evolved)
	assert.Equal(t, 5, got[0].Snapshot.Level)
	assert.Equal(t, "Eggmon", got[0].From)
	assert.Equal(t, "Chickenmon", got[0].Snapshot.Evolution)

	f.clock.Advance(3 * time.Second)
	for i := 0; i < 4; i++ {
		_, err = s.Train()
		require.NoError(t, err)
		f.clock.Advance(3 * time.Second)
	}
	require.Len(t, got, 1, "80 more xp stays inside level 5")
}

func TestHistoryMigratesAndCaps(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	require.NoError(t, storage.SetJSON(ctx, store, storage.HistoryKey(""), []Entry{{Action: LabelPlay, Timestamp: 1}}))

	h := NewHistory(store, "u9", func() time.Time { return epoch }, nil)
	h.Load(ctx)
	require.Len(t, h.Entries(), 1)

	other := NewHistory(store, "u10", func() time.Time { return epoch }, nil)
	other.Load(ctx)
	assert.Empty(t, other.Entries(), "the local log moves to one scope only")

	for i := 0; i < 15; i++ {
		h.Log(LabelFeed, -10)
	}
	entries := h.Entries()
	require.Len(t, entries, MaxHistory)
	assert.Equal(t, LabelFeed, entries[MaxHistory-1].Action)

	reloaded := NewHistory(store, "u9", func() time.Time { return epoch }, nil)
	reloaded.Load(ctx)
	assert.Equal(t, entries, reloaded.Entries())
}

func TestTimeAgo(t *testing.T) {
	now := epoch
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "ahora"},
		{5 * time.Minute, "hace 5m"},
		{3 * time.Hour, "hace 3h"},
		{50 * time.Hour, "hace 2d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimeAgo(now.Add(-tt.ago).UnixMilli(), now))
	}
}

func TestSyncHub(t *testing.T) {
	var got hub.SyncRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/register":
			_, _ = w.Write([]byte(`{"success":true,"data":{"id":"rg-7","balance":20}}`))
		case "/sync":
			_ = json.NewDecoder(r.Body).Decode(&got)
			_, _ = w.Write([]byte(`{"data":{"balance":25,"tokensEarned":5,"totalPoints":60}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	f := newFixture(func(d *Deps) {
		d.Hub = hub.New(hub.Options{BaseURL: srv.URL, RetryWait: time.Millisecond})
		d.Vision = fixedVision{answer: "Score: 60/100. bien"}
	})
	s := f.session(t)
	ctx := context.Background()

	_, err := s.SyncHub(ctx)
	require.ErrorIs(t, err, hub.ErrNotRegistered)

	_, err = s.RegisterHub(ctx, "Ana", "", "https://example.test")
	require.NoError(t, err)
	_, err = s.Evaluate(ctx, training.Image{Data: pngHeader}, "codigo")
	require.NoError(t, err)

	res, err := s.SyncHub(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, res.TokensEarned)
	assert.Equal(t, "rg-7", got.RegenmonID)
	assert.Equal(t, HubEnergy, got.Stats.Energy)
	assert.Equal(t, 60, got.TotalPoints)
	require.Len(t, got.TrainingHistory, 1)
	assert.Equal(t, 25, s.Hub().Registration().Balance)
}

func TestSessionWithoutHub(t *testing.T) {
	s := newFixture(nil).session(t)
	assert.Nil(t, s.Hub())
	_, err := s.SyncHub(context.Background())
	assert.ErrorIs(t, err, ErrNoHub)
}

func TestManagerReusesSessions(t *testing.T) {
	m := NewManager(newFixture(nil).deps)
	t.Cleanup(m.Close)
	ctx := context.Background()

	a := m.Get(ctx, "u1")
	assert.Same(t, a, m.Get(ctx, " u1 "))
	m.Get(ctx, "u0")

	_, ok := m.Peek("u2")
	assert.False(t, ok)
	sessions := m.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, "u0", sessions[0].Scope())
}
