package proactive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moorebrett0/regenmon/internal/clock"
	"github.com/moorebrett0/regenmon/internal/game"
	"github.com/moorebrett0/regenmon/internal/hub"
	"github.com/moorebrett0/regenmon/internal/pet"
	"github.com/moorebrett0/regenmon/internal/random"
	"github.com/moorebrett0/regenmon/internal/storage"
)

var epoch = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

type nudge struct {
	scope  string
	reason Reason
}

type recordingNotifier struct {
	mu     sync.Mutex
	nudges []nudge
}

func (r *recordingNotifier) Nudge(_ context.Context, scope string, _ pet.Snapshot, reason Reason) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nudges = append(r.nudges, nudge{scope, reason})
	return nil
}

func (r *recordingNotifier) all() []nudge {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]nudge(nil), r.nudges...)
}

func TestDistress(t *testing.T) {
	tests := []struct {
		name string
		snap pet.Snapshot
		want Reason
		ok   bool
	}{
		{"fine", pet.Snapshot{Happiness: 60, Hunger: 40, HasHunger: true}, "", false},
		{"hungry", pet.Snapshot{Happiness: 60, Hunger: 81, HasHunger: true}, ReasonHungry, true},
		{"hunger not modeled", pet.Snapshot{Happiness: 60, Hunger: 95}, "", false},
		{"sad", pet.Snapshot{Happiness: 19, Hunger: 10, HasHunger: true}, ReasonSad, true},
		{"both prefers hunger", pet.Snapshot{Happiness: 5, Hunger: 90, HasHunger: true}, ReasonHungry, true},
		{"boundaries", pet.Snapshot{Happiness: 20, Hunger: 80, HasHunger: true}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Distress(tt.snap)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newManager(t *testing.T, clk *clock.Fake, hubClient *hub.Client) (*game.Manager, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	m := game.NewManager(game.Deps{
		Store:       store,
		Clock:       clk,
		Rand:        random.NewScripted([]float64{0.99}, []int{0}),
		HungerModel: true,
		Hub:         hubClient,
	})
	t.Cleanup(m.Close)
	return m, store
}

func TestNudgeOncePerCooldown(t *testing.T) {
	clk := clock.NewFake(epoch)
	m, store := newManager(t, clk, nil)
	ctx := context.Background()
	require.NoError(t, storage.SetJSON(ctx, store, storage.PetKey("sad"),
		pet.State{Name: "Gris", Level: 1, Happiness: 10, Hunger: 10, CreatedAt: epoch.UnixMilli()}))
	m.Get(ctx, "sad")
	m.Get(ctx, "ok")

	n := &recordingNotifier{}
	s := New(m, n, clk, nil, nil, Config{CheckInterval: time.Minute, DistressCooldown: 30 * time.Minute})

	s.Check(ctx)
	s.Check(ctx)
	require.Equal(t, []nudge{{"sad", ReasonSad}}, n.all())

	// Half an hour of hunger decay leaves both pets starving.
	clk.Advance(31 * time.Minute)
	s.Check(ctx)
	assert.Equal(t, []nudge{{"sad", ReasonSad}, {"ok", ReasonHungry}, {"sad", ReasonHungry}}, n.all())
}

func TestSyncsRegisteredSessions(t *testing.T) {
	var syncs atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/sync" {
			syncs.Add(1)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"rg-1","balance":10}}`))
	}))
	t.Cleanup(srv.Close)

	clk := clock.NewFake(epoch)
	m, _ := newManager(t, clk, hub.New(hub.Options{BaseURL: srv.URL, RetryWait: time.Millisecond}))
	ctx := context.Background()

	registered := m.Get(ctx, "u1")
	_, err := registered.RegisterHub(ctx, "Ana", "", "")
	require.NoError(t, err)
	m.Get(ctx, "u2")

	s := New(m, nil, clk, nil, nil, Config{CheckInterval: time.Minute, SyncInterval: 5 * time.Minute})
	s.Check(ctx)
	s.Check(ctx)
	assert.Equal(t, int32(1), syncs.Load())

	clk.Advance(5 * time.Minute)
	s.Check(ctx)
	assert.Equal(t, int32(2), syncs.Load())
}
