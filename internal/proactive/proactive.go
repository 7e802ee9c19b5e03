// Package proactive checks loaded pets on a timer: it nudges players whose
// Regenmon is in distress and keeps registered pets synced with the HUB.
package proactive

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/moorebrett0/regenmon/internal/clock"
	"github.com/moorebrett0/regenmon/internal/game"
	"github.com/moorebrett0/regenmon/internal/pet"
)

// Distress thresholds.
const (
	SadBelow    = 20
	HungryAbove = 80
)

// Reason is why a pet needs attention.
type Reason string

const (
	ReasonHungry Reason = "hungry"
	ReasonSad    Reason = "sad"
)

// Notifier delivers a distress nudge to the player who owns scope.
type Notifier interface {
	Nudge(ctx context.Context, scope string, snap pet.Snapshot, reason Reason) error
}

// Sessions lists the sessions currently in memory.
type Sessions interface {
	Sessions() []*game.Session
}

// Observer receives scheduler counters. metrics.Recorder implements it.
type Observer interface {
	Nudge()
	HubSync(err error)
	Sessions(n int)
}

type nopObserver struct{}

func (nopObserver) Nudge()        {}
func (nopObserver) HubSync(error) {}
func (nopObserver) Sessions(int)  {}

// Config for the scheduler.
type Config struct {
	CheckInterval    time.Duration
	DistressCooldown time.Duration
	SyncInterval     time.Duration // zero disables HUB sync
}

// Scheduler runs the periodic checks.
type Scheduler struct {
	sessions Sessions
	notifier Notifier
	clock    clock.Clock
	obs      Observer
	log      *slog.Logger
	cfg      Config

	mu           sync.Mutex
	lastDistress map[string]time.Time
	lastSync     map[string]time.Time
}

// New creates a scheduler. A nil observer records nothing.
func New(sessions Sessions, notifier Notifier, clk clock.Clock, obs Observer, log *slog.Logger, cfg Config) *Scheduler {
	if obs == nil {
		obs = nopObserver{}
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Minute
	}
	return &Scheduler{
		sessions:     sessions,
		notifier:     notifier,
		clock:        clk,
		obs:          obs,
		log:          log,
		cfg:          cfg,
		lastDistress: make(map[string]time.Time),
		lastSync:     make(map[string]time.Time),
	}
}

// Run starts the tick loop. Blocks until context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	s.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

// Check runs one pass over every loaded session.
func (s *Scheduler) Check(ctx context.Context) {
	sessions := s.sessions.Sessions()
	s.obs.Sessions(len(sessions))
	for _, sess := range sessions {
		if ctx.Err() != nil {
			return
		}
		snap, err := sess.Snapshot()
		if err != nil {
			continue
		}
		s.checkDistress(ctx, sess.Scope(), snap)
		s.syncHub(ctx, sess)
	}
}

func (s *Scheduler) checkDistress(ctx context.Context, scope string, snap pet.Snapshot) {
	reason, ok := Distress(snap)
	if !ok || s.notifier == nil {
		return
	}
	now := s.clock.Now()

	s.mu.Lock()
	last, seen := s.lastDistress[scope]
	if seen && now.Sub(last) < s.cfg.DistressCooldown {
		s.mu.Unlock()
		return
	}
	s.lastDistress[scope] = now
	s.mu.Unlock()

	if err := s.notifier.Nudge(ctx, scope, snap, reason); err != nil {
		s.log.Warn("proactive: nudge failed", "scope", scope, "err", err)
		return
	}
	s.obs.Nudge()
}

func (s *Scheduler) syncHub(ctx context.Context, sess *game.Session) {
	acct := sess.Hub()
	if s.cfg.SyncInterval <= 0 || acct == nil || !acct.Registration().Active() {
		return
	}
	now := s.clock.Now()
	scope := sess.Scope()

	s.mu.Lock()
	last, seen := s.lastSync[scope]
	if seen && now.Sub(last) < s.cfg.SyncInterval {
		s.mu.Unlock()
		return
	}
	s.lastSync[scope] = now
	s.mu.Unlock()

	_, err := sess.SyncHub(ctx)
	s.obs.HubSync(err)
	if err != nil && !errors.Is(err, game.ErrNoPet) {
		s.log.Debug("proactive: hub sync failed", "scope", scope, "err", err)
	}
}

// Distress reports whether the pet needs attention. Hunger wins over sadness.
func Distress(snap pet.Snapshot) (Reason, bool) {
	if snap.HasHunger && snap.Hunger > HungryAbove {
		return ReasonHungry, true
	}
	if snap.Happiness < SadBelow {
		return ReasonSad, true
	}
	return "", false
}
