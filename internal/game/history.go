package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/moorebrett0/regenmon/internal/storage"
)

// MaxHistory is how many actions a player's history keeps.
const MaxHistory = 10

// Action labels recorded in the history.
const (
	LabelFeed     = "Alimentar"
	LabelPlay     = "Jugar"
	LabelTrain    = "Entrenar"
	LabelChat     = "Chat"
	LabelTraining = "Entrenamiento"
)

// Entry is one logged action with its coin change.
type Entry struct {
	Action    string `json:"action"`
	Coins     int    `json:"coins"`
	Timestamp int64  `json:"timestamp"` // unix ms
}

// History is the newest-first action log for one player scope.
type History struct {
	mu      sync.Mutex
	store   storage.Store
	scope   string
	now     func() time.Time
	log     *slog.Logger
	entries []Entry
}

func NewHistory(store storage.Store, scope string, now func() time.Time, log *slog.Logger) *History {
	if log == nil {
		log = slog.Default()
	}
	return &History{store: store, scope: scope, now: now, log: log.With("scope", scope)}
}

// Load reads the saved log, taking over the anonymous local log when the scope
// has none yet.
func (h *History) Load(ctx context.Context) {
	key := storage.HistoryKey(h.scope)
	if h.scope != "" {
		if _, err := storage.Migrate(ctx, h.store, storage.HistoryKey(""), key); err != nil {
			h.log.Warn("history: migrate local history failed", "err", err)
		}
	}

	var entries []Entry
	if err := storage.GetJSON(ctx, h.store, key, &entries); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			h.log.Warn("history: load failed", "err", err)
		}
		entries = nil
	}
	if len(entries) > MaxHistory {
		entries = entries[:MaxHistory]
	}

	h.mu.Lock()
	h.entries = entries
	h.mu.Unlock()
}

// Log prepends an entry, dropping the oldest beyond MaxHistory.
func (h *History) Log(action string, coins int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e := Entry{Action: action, Coins: coins, Timestamp: h.now().UnixMilli()}
	entries := append([]Entry{e}, h.entries...)
	if len(entries) > MaxHistory {
		entries = entries[:MaxHistory]
	}
	h.entries = entries
	if err := storage.SetJSON(context.Background(), h.store, storage.HistoryKey(h.scope), h.entries); err != nil {
		h.log.Warn("history: persist failed", "err", err)
	}
}

func (h *History) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Entry(nil), h.entries...)
}

// TimeAgo renders how long ago ts (unix ms) was, in Spanish shorthand.
func TimeAgo(ts int64, now time.Time) string {
	seconds := int(now.Sub(time.UnixMilli(ts)).Seconds())
	if seconds < 60 {
		return "ahora"
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("hace %dm", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("hace %dh", hours)
	}
	return fmt.Sprintf("hace %dd", hours/24)
}
