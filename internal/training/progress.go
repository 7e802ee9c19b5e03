package training

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/moorebrett0/regenmon/internal/storage"
)

// MaxHistory is how many training entries are kept, newest first.
const MaxHistory = 20

// StageThresholds are the cumulative points at which stages 1, 2 and 3 begin.
var StageThresholds = [3]int{0, 500, 1500}

// Entry is one scored submission.
type Entry struct {
	Score     int    `json:"score"`
	Category  string `json:"category"`
	Timestamp int64  `json:"timestamp"` // unix ms
}

// Progress is the persisted training record.
type Progress struct {
	TotalPoints int     `json:"totalPoints"`
	Stage       int     `json:"stage"`
	History     []Entry `json:"trainingHistory"`
}

// Outcome reports the effect of one training result.
type Outcome struct {
	TotalPoints int
	Stage       int
	Evolved     bool // a stage boundary was crossed
}

// StageForPoints returns the stage (1..3) reached with points.
func StageForPoints(points int) int {
	switch {
	case points >= StageThresholds[2]:
		return 3
	case points >= StageThresholds[1]:
		return 2
	default:
		return 1
	}
}

// NextStageThreshold returns the points needed to leave stage. The final
// stage reports its own threshold.
func NextStageThreshold(stage int) int {
	switch stage {
	case 1:
		return StageThresholds[1]
	default:
		return StageThresholds[2]
	}
}

// Tracker accumulates training results for one player scope.
type Tracker struct {
	mu    sync.Mutex
	store storage.Store
	scope string
	log   *slog.Logger
	now   func() time.Time
	data  Progress
}

func NewTracker(store storage.Store, scope string, now func() time.Time, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		store: store,
		scope: scope,
		log:   log.With("scope", scope),
		now:   now,
		data:  Progress{Stage: 1},
	}
}

// Load reads saved progress, merging it over the defaults.
func (t *Tracker) Load(ctx context.Context) {
	data := Progress{Stage: 1}
	if err := storage.GetJSON(ctx, t.store, storage.TrainingKey(t.scope), &data); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			t.log.Warn("training: load failed, starting fresh", "err", err)
		}
		data = Progress{Stage: 1}
	}
	if data.TotalPoints < 0 {
		data.TotalPoints = 0
	}
	if s := StageForPoints(data.TotalPoints); data.Stage < s || data.Stage > 3 {
		data.Stage = s
	}
	if len(data.History) > MaxHistory {
		data.History = data.History[:MaxHistory]
	}

	t.mu.Lock()
	t.data = data
	t.mu.Unlock()
}

// Add records a score. The stage only ever moves forward.
func (t *Tracker) Add(score int, category string) Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.data.Stage
	t.data.TotalPoints += score
	stage := StageForPoints(t.data.TotalPoints)
	if stage < prev {
		stage = prev
	}
	t.data.Stage = stage

	entry := Entry{Score: score, Category: category, Timestamp: t.now().UnixMilli()}
	history := append([]Entry{entry}, t.data.History...)
	if len(history) > MaxHistory {
		history = history[:MaxHistory]
	}
	t.data.History = history

	if err := storage.SetJSON(context.Background(), t.store, storage.TrainingKey(t.scope), t.data); err != nil {
		t.log.Warn("training: persist failed", "err", err)
	}

	return Outcome{TotalPoints: t.data.TotalPoints, Stage: stage, Evolved: stage > prev}
}

// Progress returns a copy of the training record.
func (t *Tracker) Progress() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.data
	p.History = append([]Entry(nil), t.data.History...)
	return p
}

// Reset clears the record.
func (t *Tracker) Reset(ctx context.Context) {
	t.mu.Lock()
	t.data = Progress{Stage: 1}
	t.mu.Unlock()
	if err := t.store.Remove(ctx, storage.TrainingKey(t.scope)); err != nil {
		t.log.Warn("training: reset failed", "err", err)
	}
}
