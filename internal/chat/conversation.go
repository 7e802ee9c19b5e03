package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/moorebrett0/regenmon/internal/clock"
	"github.com/moorebrett0/regenmon/internal/pet"
	"github.com/moorebrett0/regenmon/internal/random"
	"github.com/moorebrett0/regenmon/internal/storage"
)

// ErrDiscarded is returned when a pending reply was dropped because the
// conversation was reset or closed while it was being prepared.
var ErrDiscarded = errors.New("chat: reply discarded")

// ErrEmpty is returned for blank messages.
var ErrEmpty = errors.New("chat: empty message")

// Mode selects which responder answers.
type Mode string

const (
	// ModeAuto uses the companion when one is configured, rules otherwise.
	ModeAuto Mode = "auto"
	// ModeLLM always tries the companion first.
	ModeLLM Mode = "llm"
	// ModeRules never calls the companion.
	ModeRules Mode = "rules"
)

// ParseMode validates a mode string. Blank means ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeLLM:
		return ModeLLM, nil
	case ModeRules:
		return ModeRules, nil
	default:
		return "", fmt.Errorf("unknown chat mode %q", s)
	}
}

// Companion is a hosted language model that can speak as the pet.
type Companion interface {
	Reply(ctx context.Context, snap pet.Snapshot, history []Message, memories []Memory) (string, error)
}

// Default thinking delay of the offline responder.
const (
	DefaultMinDelay = 600 * time.Millisecond
	DefaultMaxDelay = 1800 * time.Millisecond
)

// Options configures a Conversation. Store and Clock are required.
type Options struct {
	Store     storage.Store
	Clock     clock.Clock
	Rand      random.Source
	Logger    *slog.Logger
	Scope     string
	Mode      Mode
	Companion Companion

	MinDelay    time.Duration
	MaxDelay    time.Duration
	MaxMessages int
}

// Reply is the outcome of Send.
type Reply struct {
	Message  Message
	Intent   Intent // set when the offline responder answered
	Offline  bool   // answered by the rule-based responder
	Memories []Memory
}

// Conversation is the chat log and memory for one player scope.
type Conversation struct {
	mu        sync.Mutex
	opts      Options
	log       *slog.Logger
	rand      random.Source
	responder *Responder

	messages []Message
	memories []Memory
	replies  int // assistant replies so far, drives the fallback rotation

	// gen and cancel invalidate replies that are still being prepared
	// when the conversation is reset.
	gen    uint64
	cancel chan struct{}
	closed bool
}

func NewConversation(opts Options) *Conversation {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	src := opts.Rand
	if src == nil {
		src = random.NewSeeded()
	}
	if opts.Mode == "" {
		opts.Mode = ModeAuto
	}
	if opts.MaxDelay <= 0 {
		opts.MinDelay, opts.MaxDelay = DefaultMinDelay, DefaultMaxDelay
	}
	if opts.MinDelay > opts.MaxDelay {
		opts.MinDelay = opts.MaxDelay
	}
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = MaxMessages
	}
	return &Conversation{
		opts:      opts,
		log:       log.With("scope", opts.Scope),
		rand:      src,
		responder: NewResponder(src),
		cancel:    make(chan struct{}),
	}
}

// Load reads the saved log and memories. Failures leave them empty.
func (c *Conversation) Load(ctx context.Context) {
	var msgs []Message
	if err := storage.GetJSON(ctx, c.opts.Store, storage.ChatKey(c.opts.Scope), &msgs); err != nil && !errors.Is(err, storage.ErrNotFound) {
		c.log.Warn("chat: load messages failed", "err", err)
		msgs = nil
	}
	var mems []Memory
	if err := storage.GetJSON(ctx, c.opts.Store, storage.MemoryKey(c.opts.Scope), &mems); err != nil && !errors.Is(err, storage.ErrNotFound) {
		c.log.Warn("chat: load memories failed", "err", err)
		mems = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = tail(msgs, c.opts.MaxMessages)
	c.memories = tail(mems, MaxMemories)
	c.replies = 0
	for _, m := range c.messages {
		if m.Role == RoleAssistant {
			c.replies++
		}
	}
}

// Messages returns a copy of the chat log, oldest first.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// Memories returns a copy of what the pet remembers about the player.
func (c *Conversation) Memories() []Memory {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Memory(nil), c.memories...)
}

// Mode returns the configured responder mode.
func (c *Conversation) Mode() Mode { return c.opts.Mode }

// Send records the player's text, picks up memories and produces the pet's
// reply. It blocks for the companion call or the offline thinking delay,
// and returns ErrDiscarded if the conversation is reset meanwhile.
func (c *Conversation) Send(ctx context.Context, snap pet.Snapshot, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrEmpty
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Reply{}, ErrDiscarded
	}
	now := c.opts.Clock.Now()
	c.appendLocked(NewMessage(RoleUser, text, now))
	c.memories = DetectMemories(text, c.memories, now)
	c.persistLocked()
	gen, cancel := c.gen, c.cancel
	history := append([]Message(nil), c.messages...)
	memories := append([]Memory(nil), c.memories...)
	index := c.replies
	c.mu.Unlock()

	reply := Reply{Memories: memories}
	answer, ok := c.askCompanion(ctx, snap, history, memories)
	if !ok {
		if err := c.think(ctx, cancel); err != nil {
			return Reply{}, err
		}
		answer, reply.Intent = c.responder.respond(snap, text, memories, index)
		reply.Offline = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.closed {
		return Reply{}, ErrDiscarded
	}
	reply.Message = NewMessage(RoleAssistant, answer, c.opts.Clock.Now())
	c.appendLocked(reply.Message)
	c.replies++
	c.persistLocked()
	return reply, nil
}

// askCompanion returns the companion's answer, or false when the offline
// responder should answer instead.
func (c *Conversation) askCompanion(ctx context.Context, snap pet.Snapshot, history []Message, memories []Memory) (string, bool) {
	if c.opts.Mode == ModeRules {
		return "", false
	}
	if c.opts.Companion == nil {
		if c.opts.Mode == ModeLLM {
			c.log.Warn("chat: llm mode without a companion, using rules")
		}
		return "", false
	}
	answer, err := c.opts.Companion.Reply(ctx, snap, history, memories)
	if err != nil {
		c.log.Warn("chat: companion failed, using rules", "err", err)
		return "", false
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", false
	}
	return answer, true
}

// think waits a random thinking delay on the clock.
func (c *Conversation) think(ctx context.Context, cancel <-chan struct{}) error {
	delay := c.opts.MinDelay
	if span := c.opts.MaxDelay - c.opts.MinDelay; span > 0 {
		delay += time.Duration(c.rand.Intn(int(span/time.Millisecond)+1)) * time.Millisecond
	}

	done := make(chan struct{})
	timer := c.opts.Clock.AfterFunc(delay, func() { close(done) })
	select {
	case <-done:
		return nil
	case <-cancel:
		timer.Stop()
		return ErrDiscarded
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	}
}

// Reset forgets the log and memories in memory and drops any pending
// reply. Stored copies are removed by the pet reset.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
	c.memories = nil
	c.replies = 0
	c.gen++
	close(c.cancel)
	c.cancel = make(chan struct{})
}

// Close drops any pending reply; later sends fail with ErrDiscarded.
func (c *Conversation) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.gen++
	close(c.cancel)
	c.cancel = make(chan struct{})
}

func (c *Conversation) appendLocked(m Message) {
	c.messages = tail(append(c.messages, m), c.opts.MaxMessages)
}

func (c *Conversation) persistLocked() {
	ctx := context.Background()
	if err := storage.SetJSON(ctx, c.opts.Store, storage.ChatKey(c.opts.Scope), c.messages); err != nil {
		c.log.Warn("chat: persist messages failed", "err", err)
	}
	if err := storage.SetJSON(ctx, c.opts.Store, storage.MemoryKey(c.opts.Scope), c.memories); err != nil {
		c.log.Warn("chat: persist memories failed", "err", err)
	}
}

func tail[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return append([]T(nil), s[len(s)-n:]...)
}
