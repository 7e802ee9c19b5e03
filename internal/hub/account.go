package hub

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/moorebrett0/regenmon/internal/storage"
)

// AnonymousOwner signs wall messages when no owner name was given.
const AnonymousOwner = "Anonimo"

// GiftAmounts are the gift sizes players may send.
var GiftAmounts = []int{5, 10, 25}

var (
	ErrNotRegistered = errors.New("hub: not registered")
	ErrInsufficient  = errors.New("hub: insufficient hub balance")
	ErrMissingOwner  = errors.New("hub: missing owner name")
)

// Registration is the HUB enrollment a player scope keeps between runs.
type Registration struct {
	ID         string `json:"hubRegenmonId"`
	Registered bool   `json:"isRegisteredInHub"`
	Balance    int    `json:"hubBalance"`
	OwnerName  string `json:"ownerName,omitempty"`
}

// Active reports whether the registration can be used for HUB calls.
func (r Registration) Active() bool { return r.Registered && r.ID != "" }

// Account binds a Client to one player's persisted Registration and keeps
// the HUB balance current from every response that reports it.
type Account struct {
	mu     sync.Mutex
	client *Client
	store  storage.Store
	scope  string
	log    *slog.Logger
	reg    Registration
}

func NewAccount(client *Client, store storage.Store, scope string, log *slog.Logger) *Account {
	if log == nil {
		log = slog.Default()
	}
	return &Account{
		client: client,
		store:  store,
		scope:  scope,
		log:    log.With("scope", scope),
	}
}

// Load reads the saved registration. A missing or corrupt record leaves the
// account unregistered.
func (a *Account) Load(ctx context.Context) {
	var reg Registration
	err := storage.GetJSON(ctx, a.store, storage.HubKey(a.scope), &reg)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		a.log.Warn("hub: load registration failed", "err", err)
		reg = Registration{}
	}
	a.mu.Lock()
	a.reg = reg
	a.mu.Unlock()
}

func (a *Account) Registration() Registration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reg
}

// Register enrolls the pet. The owner name is remembered for wall messages.
func (a *Account) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	req.OwnerName = strings.TrimSpace(req.OwnerName)
	if req.OwnerName == "" {
		return RegisterResponse{}, ErrMissingOwner
	}
	req.OwnerEmail = strings.TrimSpace(req.OwnerEmail)

	res, err := a.client.Register(ctx, req)
	if err != nil {
		return RegisterResponse{}, err
	}

	a.mu.Lock()
	a.reg = Registration{
		ID:         res.Data.ID,
		Registered: true,
		Balance:    res.Data.Balance,
		OwnerName:  req.OwnerName,
	}
	a.persistLocked(ctx)
	a.mu.Unlock()
	return res, nil
}

// Sync pushes stats. The HUB balance is updated when the response carries one.
func (a *Account) Sync(ctx context.Context, stats Stats, totalPoints int, history []TrainingRecord) (SyncResult, error) {
	id, err := a.activeID()
	if err != nil {
		return SyncResult{}, err
	}
	res, err := a.client.Sync(ctx, SyncRequest{
		RegenmonID:      id,
		Stats:           stats,
		TotalPoints:     totalPoints,
		TrainingHistory: history,
	})
	if err != nil {
		return SyncResult{}, err
	}
	a.setBalance(ctx, res.Balance)
	return res, nil
}

// Feed feeds another Regenmon. It needs at least FeedCost on the HUB balance.
func (a *Account) Feed(ctx context.Context, targetID string) (FeedResult, error) {
	id, err := a.activeID()
	if err != nil {
		return FeedResult{}, err
	}
	if a.Registration().Balance < FeedCost {
		return FeedResult{}, ErrInsufficient
	}
	res, err := a.client.Feed(ctx, targetID, id)
	if err != nil {
		return FeedResult{}, err
	}
	a.setBalance(ctx, res.SenderBalance)
	return res, nil
}

func (a *Account) Gift(ctx context.Context, targetID string, amount int) (GiftResult, error) {
	id, err := a.activeID()
	if err != nil {
		return GiftResult{}, err
	}
	if amount <= 0 {
		return GiftResult{}, ErrInvalidAmount
	}
	if a.Registration().Balance < amount {
		return GiftResult{}, ErrInsufficient
	}
	res, err := a.client.Gift(ctx, targetID, id, amount)
	if err != nil {
		return GiftResult{}, err
	}
	a.setBalance(ctx, res.SenderBalance)
	return res, nil
}

// SendMessage posts to the target's wall signed with the owner name.
func (a *Account) SendMessage(ctx context.Context, targetID, message string) error {
	id, err := a.activeID()
	if err != nil {
		return err
	}
	from := a.Registration().OwnerName
	if from == "" {
		from = AnonymousOwner
	}
	return a.client.SendMessage(ctx, targetID, id, from, message)
}

// Activity returns the account's own recent HUB activity.
func (a *Account) Activity(ctx context.Context, limit int) ([]Activity, error) {
	id, err := a.activeID()
	if err != nil {
		return nil, err
	}
	return a.client.Activity(ctx, id, limit)
}

func (a *Account) Client() *Client { return a.client }

func (a *Account) activeID() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.reg.Active() {
		return "", ErrNotRegistered
	}
	return a.reg.ID, nil
}

func (a *Account) setBalance(ctx context.Context, balance *int) {
	if balance == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reg.Balance = *balance
	a.persistLocked(ctx)
}

func (a *Account) persistLocked(ctx context.Context) {
	if err := storage.SetJSON(ctx, a.store, storage.HubKey(a.scope), a.reg); err != nil {
		a.log.Warn("hub: persist registration failed", "err", err)
	}
}
