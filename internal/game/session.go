// Package game composes the per-player pieces (pet, coins, training, chat,
// action history and HUB account) into a Session and keeps one Session per
// player scope.
package game

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/moorebrett0/regenmon/internal/chat"
	"github.com/moorebrett0/regenmon/internal/clock"
	"github.com/moorebrett0/regenmon/internal/economy"
	"github.com/moorebrett0/regenmon/internal/hub"
	"github.com/moorebrett0/regenmon/internal/pet"
	"github.com/moorebrett0/regenmon/internal/random"
	"github.com/moorebrett0/regenmon/internal/species"
	"github.com/moorebrett0/regenmon/internal/storage"
	"github.com/moorebrett0/regenmon/internal/training"
)

var (
	ErrNoPet        = errors.New("game: no regenmon yet")
	ErrCooldown     = errors.New("game: action on cooldown")
	ErrCannotAfford = errors.New("game: not enough coins")
	ErrNoHub        = errors.New("game: hub disabled")
	ErrInvalidName  = errors.New("game: blank name")
)

// HubEnergy is the energy reported to the HUB; energy is not modeled locally.
const HubEnergy = 100

// LevelUp is emitted when a care action raises the pet's level.
type LevelUp struct {
	Snapshot pet.Snapshot
	Evolved  bool   // the level crossed an evolution stage
	From     string // evolution name before the level-up
}

// Observer receives gameplay counters. metrics.Recorder implements it.
type Observer interface {
	Action(action, outcome string)
	ChatReply(offline bool)
	CoinsChanged(amount int)
	Evaluation(score int, fallback bool)
}

type nopObserver struct{}

func (nopObserver) Action(string, string) {}
func (nopObserver) ChatReply(bool)        {}
func (nopObserver) CoinsChanged(int)      {}
func (nopObserver) Evaluation(int, bool)  {}

// Deps are shared by every Session a Manager creates. Store and Clock are
// required.
type Deps struct {
	Store  storage.Store
	Clock  clock.Clock
	Rand   random.Source
	Logger *slog.Logger

	HungerModel bool
	CreatorFlow bool

	ChatMode    chat.Mode
	Companion   chat.Companion
	MinDelay    time.Duration
	MaxDelay    time.Duration
	MaxMessages int

	Vision training.Vision

	// Hub is nil when the HUB integration is off.
	Hub *hub.Client

	Observer Observer

	// OnLevelUp runs outside any lock after a level-up.
	OnLevelUp func(scope string, ev LevelUp)
}

// Session is one player's game. Its methods are safe for concurrent use.
type Session struct {
	mu    sync.Mutex // serializes care actions
	scope string
	deps  Deps
	log   *slog.Logger
	obs   Observer

	pet      *pet.Machine
	coins    *economy.Ledger
	progress *training.Tracker
	scorer   *training.Scorer
	convo    *chat.Conversation
	history  *History
	account  *hub.Account
}

// NewSession wires a Session for scope. Call Load before use.
func NewSession(scope string, deps Deps) *Session {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	obs := deps.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	s := &Session{scope: scope, deps: deps, log: log.With("scope", scope), obs: obs}

	s.pet = pet.New(pet.Options{
		Store:       deps.Store,
		Clock:       deps.Clock,
		Rand:        deps.Rand,
		Logger:      log,
		Scope:       scope,
		HungerModel: deps.HungerModel,
		CreatorFlow: deps.CreatorFlow,
		OnLevelUp:   s.leveledUp,
	})
	s.coins = economy.New(economy.Options{
		Store:   deps.Store,
		Clock:   deps.Clock,
		Rand:    deps.Rand,
		Logger:  log,
		Scope:   scope,
		OnDelta: func(d economy.Delta) { obs.CoinsChanged(d.Amount) },
	})
	s.progress = training.NewTracker(deps.Store, scope, deps.Clock.Now, log)
	s.scorer = training.NewScorer(deps.Vision, deps.Rand, log)
	s.convo = chat.NewConversation(chat.Options{
		Store:       deps.Store,
		Clock:       deps.Clock,
		Rand:        deps.Rand,
		Logger:      log,
		Scope:       scope,
		Mode:        deps.ChatMode,
		Companion:   deps.Companion,
		MinDelay:    deps.MinDelay,
		MaxDelay:    deps.MaxDelay,
		MaxMessages: deps.MaxMessages,
	})
	s.history = NewHistory(deps.Store, scope, deps.Clock.Now, log)
	if deps.Hub != nil {
		s.account = hub.NewAccount(deps.Hub, deps.Store, scope, log)
	}
	return s
}

// Load reads every component's saved state.
func (s *Session) Load(ctx context.Context) {
	s.pet.Load(ctx)
	s.coins.Load(ctx)
	s.progress.Load(ctx)
	s.convo.Load(ctx)
	s.history.Load(ctx)
	if s.account != nil {
		s.account.Load(ctx)
	}
}

func (s *Session) Scope() string                    { return s.scope }
func (s *Session) Pet() *pet.Machine                { return s.pet }
func (s *Session) Coins() *economy.Ledger           { return s.coins }
func (s *Session) Training() *training.Tracker      { return s.progress }
func (s *Session) Conversation() *chat.Conversation { return s.convo }
func (s *Session) History() *History                { return s.history }

// Hub returns the HUB account, or nil when the HUB is off.
func (s *Session) Hub() *hub.Account { return s.account }

// Snapshot returns the pet, or ErrNoPet.
func (s *Session) Snapshot() (pet.Snapshot, error) {
	snap, ok := s.pet.Snapshot()
	if !ok {
		return pet.Snapshot{}, ErrNoPet
	}
	return snap, nil
}

// Create hatches the pet. It reports false for unknown traits or when a
// typed pet already exists.
func (s *Session) Create(cfg pet.CreateConfig) bool {
	ok := s.pet.Create(cfg)
	if ok {
		s.obs.Action("create", "ok")
	}
	return ok
}

// Feed costs economy.FeedCost coins.
func (s *Session) Feed() (pet.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(species.Feed); err != nil {
		return pet.Result{}, err
	}
	if !s.coins.CanAfford(economy.FeedCost) {
		s.obs.Action(string(species.Feed), "poor")
		return pet.Result{}, ErrCannotAfford
	}
	res, ok := s.pet.Apply(species.Feed)
	if !ok {
		s.obs.Action(string(species.Feed), "cooldown")
		return pet.Result{}, ErrCooldown
	}
	s.coins.Spend(economy.FeedCost)
	s.history.Log(LabelFeed, -economy.FeedCost)
	s.obs.Action(string(species.Feed), "ok")
	return res, nil
}

func (s *Session) Play() (pet.Result, error)  { return s.free(species.Play, LabelPlay) }
func (s *Session) Train() (pet.Result, error) { return s.free(species.Train, LabelTrain) }

func (s *Session) free(action species.Action, label string) (pet.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(action); err != nil {
		return pet.Result{}, err
	}
	res, ok := s.pet.Apply(action)
	if !ok {
		s.obs.Action(string(action), "cooldown")
		return pet.Result{}, ErrCooldown
	}
	s.history.Log(label, 0)
	s.obs.Action(string(action), "ok")
	return res, nil
}

func (s *Session) readyLocked(action species.Action) error {
	if !s.pet.Exists() {
		s.obs.Action(string(action), "nopet")
		return ErrNoPet
	}
	if s.pet.Cooldown() {
		s.obs.Action(string(action), "cooldown")
		return ErrCooldown
	}
	return nil
}

// Rename sets the pet's name.
func (s *Session) Rename(name string) error {
	if !s.pet.Exists() {
		return ErrNoPet
	}
	if !s.pet.SetName(name) {
		return ErrInvalidName
	}
	return nil
}

// ChatReply is the pet's answer plus any coins the message earned.
type ChatReply struct {
	chat.Reply
	Earned int
}

// Chat sends text to the pet. Every delivered reply rolls for a coin reward.
func (s *Session) Chat(ctx context.Context, text string) (ChatReply, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return ChatReply{}, err
	}
	reply, err := s.convo.Send(ctx, snap, text)
	if err != nil {
		return ChatReply{}, err
	}
	s.obs.ChatReply(reply.Offline)

	out := ChatReply{Reply: reply}
	if out.Earned = s.coins.TryEarnFromChat(); out.Earned > 0 {
		s.history.Log(LabelChat, out.Earned)
	}
	return out, nil
}

// TrainingResult is a scored submission and what it did to the game.
type TrainingResult struct {
	Evaluation training.Evaluation
	Outcome    training.Outcome
	Effects    training.StatEffects
	Category   string
	Earned     int
}

// Evaluate scores an image of the player's work. The score becomes
// training points, its stat effects are applied to the pet and half of it
// is paid out in coins.
func (s *Session) Evaluate(ctx context.Context, img training.Image, category string) (TrainingResult, error) {
	if !s.pet.Exists() {
		return TrainingResult{}, ErrNoPet
	}
	if err := img.Validate(); err != nil {
		return TrainingResult{}, err
	}
	category = NormalizeCategory(category)

	eval := s.scorer.Score(ctx, img, category)
	s.obs.Evaluation(eval.Score, eval.Fallback)

	res := TrainingResult{
		Evaluation: eval,
		Outcome:    s.progress.Add(eval.Points, category),
		Effects:    training.Effects(eval.Score),
		Category:   category,
		Earned:     eval.Tokens,
	}
	s.pet.Adjust(res.Effects.Happiness, res.Effects.Hunger)
	if res.Earned > 0 {
		s.coins.Earn(res.Earned)
	}
	s.history.Log(LabelTraining, res.Earned)
	return res, nil
}

// NormalizeCategory maps free-form input to a known category, defaulting
// to code.
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	c = strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u").Replace(c)
	for _, known := range training.Categories {
		if c == known || strings.EqualFold(c, training.CategoryLabels[known]) {
			return known
		}
	}
	return training.CategoryCode
}

// Reset starts over with a fresh pet. Chat and training progress go with
// the old pet; coins, action history and the HUB registration stay.
func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convo.Reset()
	s.pet.Reset(ctx)
	s.progress.Reset(ctx)
	s.obs.Action("reset", "ok")
}

// RegisterHub enrolls the pet in the HUB under ownerName.
func (s *Session) RegisterHub(ctx context.Context, ownerName, ownerEmail, appURL string) (hub.RegisterResponse, error) {
	if s.account == nil {
		return hub.RegisterResponse{}, ErrNoHub
	}
	snap, err := s.Snapshot()
	if err != nil {
		return hub.RegisterResponse{}, err
	}
	return s.account.Register(ctx, hub.RegisterRequest{
		Name:       snap.Name,
		OwnerName:  ownerName,
		OwnerEmail: ownerEmail,
		AppURL:     appURL,
		Sprite:     hub.SpriteURL(snap.Sprite),
	})
}

// SyncHub pushes the pet's stats and training points to the HUB.
func (s *Session) SyncHub(ctx context.Context) (hub.SyncResult, error) {
	if s.account == nil {
		return hub.SyncResult{}, ErrNoHub
	}
	snap, err := s.Snapshot()
	if err != nil {
		return hub.SyncResult{}, err
	}
	p := s.progress.Progress()
	records := make([]hub.TrainingRecord, 0, len(p.History))
	for _, e := range p.History {
		records = append(records, hub.TrainingRecord{
			Score:     e.Score,
			Category:  e.Category,
			Points:    e.Score,
			Timestamp: e.Timestamp,
		})
	}
	stats := hub.Stats{Happiness: snap.Happiness, Energy: HubEnergy, Hunger: snap.Hunger}
	return s.account.Sync(ctx, stats, p.TotalPoints, records)
}

// Close stops the session's timers and drops pending chat replies.
func (s *Session) Close() {
	s.convo.Close()
	s.pet.Close()
	s.coins.Close()
}

func (s *Session) leveledUp(snap pet.Snapshot) {
	from := species.EvolutionName(snap.Level - 1)
	ev := LevelUp{
		Snapshot: snap,
		Evolved:  species.EvolutionIndex(snap.Level) != species.EvolutionIndex(snap.Level-1),
		From:     from,
	}
	s.log.Info("game: level up", "level", snap.Level, "evolved", ev.Evolved)
	if s.deps.OnLevelUp != nil {
		s.deps.OnLevelUp(s.scope, ev)
	}
}
