// Package economy keeps a player's coin balance.
package economy

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/moorebrett0/regenmon/internal/clock"
	"github.com/moorebrett0/regenmon/internal/random"
	"github.com/moorebrett0/regenmon/internal/storage"
)

const (
	DefaultBalance = 100
	FeedCost       = 10

	// DeltaDisplay is how long a balance-change notification stays visible.
	DeltaDisplay = 1500 * time.Millisecond

	// chatRewardCeiling is the balance at which the chat reward chance
	// bottoms out at chatRewardFloor.
	chatRewardCeiling = 120
	chatRewardFloor   = 0.1
	chatRewardMin     = 2
	chatRewardMax     = 5
)

// Delta is a transient balance-change notification.
type Delta struct {
	Amount int    // signed
	ID     uint64 // increases with every emission
}

// Options configures a Ledger. Store and Clock are required.
type Options struct {
	Store  storage.Store
	Clock  clock.Clock
	Rand   random.Source
	Logger *slog.Logger
	Scope  string

	// OnDelta is called outside the lock for every balance change.
	OnDelta func(Delta)
}

// Ledger is the coin balance for one player scope. Balance never goes
// below zero.
type Ledger struct {
	mu      sync.Mutex
	opts    Options
	log     *slog.Logger
	rand    random.Source
	balance int

	delta      *Delta
	deltaSeq   uint64
	deltaTimer clock.Timer
}

func New(opts Options) *Ledger {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	src := opts.Rand
	if src == nil {
		src = random.NewSeeded()
	}
	return &Ledger{
		opts:    opts,
		log:     log.With("scope", opts.Scope),
		rand:    src,
		balance: DefaultBalance,
	}
}

// Load reads the saved balance, first moving the anonymous local
// balance into the scope if the scope has none. Failures fall back to
// DefaultBalance.
func (l *Ledger) Load(ctx context.Context) {
	key := storage.CoinsKey(l.opts.Scope)
	if l.opts.Scope != "" {
		if moved, err := storage.Migrate(ctx, l.opts.Store, storage.CoinsKey(""), key); err != nil {
			l.log.Warn("economy: migrate local coins failed", "err", err)
		} else if moved {
			l.log.Info("economy: migrated local coins")
		}
	}

	balance := DefaultBalance
	var saved int
	err := storage.GetJSON(ctx, l.opts.Store, key, &saved)
	switch {
	case err == nil && saved >= 0:
		balance = saved
	case err == nil:
		l.log.Warn("economy: negative saved balance, using default", "saved", saved)
	case !errors.Is(err, storage.ErrNotFound):
		l.log.Warn("economy: load failed, using default", "err", err)
	}

	l.mu.Lock()
	l.balance = balance
	l.mu.Unlock()
}

// Balance returns the current coin count.
func (l *Ledger) Balance() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// CanAfford reports whether amount can be spent.
func (l *Ledger) CanAfford(amount int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance >= amount
}

// Spend deducts amount. It returns false, leaving the balance unchanged,
// when amount exceeds the balance or is negative.
func (l *Ledger) Spend(amount int) bool {
	if amount < 0 {
		return false
	}
	l.mu.Lock()
	if amount > l.balance {
		l.mu.Unlock()
		return false
	}
	l.balance -= amount
	d := l.changedLocked(-amount)
	l.mu.Unlock()

	l.notify(d)
	return true
}

// Earn adds amount. Negative amounts are ignored.
func (l *Ledger) Earn(amount int) {
	if amount < 0 {
		return
	}
	l.mu.Lock()
	l.balance += amount
	d := l.changedLocked(amount)
	l.mu.Unlock()

	l.notify(d)
}

// TryEarnFromChat rolls for a chat reward. The chance is
// max(0.1, 1 - balance/120); a win pays 2 to 5 coins. It returns the
// amount earned, or 0.
func (l *Ledger) TryEarnFromChat() int {
	l.mu.Lock()
	p := RewardChance(l.balance)
	if l.rand.Float64() > p {
		l.mu.Unlock()
		return 0
	}
	amount := l.rand.Intn(chatRewardMax-chatRewardMin+1) + chatRewardMin
	l.balance += amount
	d := l.changedLocked(amount)
	l.mu.Unlock()

	l.notify(d)
	return amount
}

// RewardChance is the probability that a chat message pays out at the
// given balance.
func RewardChance(balance int) float64 {
	return math.Max(chatRewardFloor, 1-float64(balance)/chatRewardCeiling)
}

// Delta returns the most recent balance change while it is still showing.
func (l *Ledger) Delta() (Delta, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.delta == nil {
		return Delta{}, false
	}
	return *l.delta, true
}

// Close cancels the pending delta clear.
func (l *Ledger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.deltaTimer != nil {
		l.deltaTimer.Stop()
		l.deltaTimer = nil
	}
	l.delta = nil
}

// changedLocked persists the balance and emits a delta that clears itself
// after DeltaDisplay. A newer delta replaces an older one still showing.
func (l *Ledger) changedLocked(amount int) Delta {
	if err := storage.SetJSON(context.Background(), l.opts.Store, storage.CoinsKey(l.opts.Scope), l.balance); err != nil {
		l.log.Warn("economy: persist failed", "err", err)
	}

	l.deltaSeq++
	d := Delta{Amount: amount, ID: l.deltaSeq}
	l.delta = &d
	if l.deltaTimer != nil {
		l.deltaTimer.Stop()
	}
	id := d.ID
	l.deltaTimer = l.opts.Clock.AfterFunc(DeltaDisplay, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.delta != nil && l.delta.ID == id {
			l.delta = nil
			l.deltaTimer = nil
		}
	})
	return d
}

func (l *Ledger) notify(d Delta) {
	if l.opts.OnDelta != nil {
		l.opts.OnDelta(d)
	}
}
