// Package brain lets a hosted model (Claude or Gemini) speak as the pet
// and grade training images.
package brain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/moorebrett0/regenmon/internal/chat"
	"github.com/moorebrett0/regenmon/internal/pet"
	"github.com/moorebrett0/regenmon/internal/training"
)

// ErrRateLimited is returned when too many requests arrive inside the
// rate window. Callers fall back to the offline responder.
var ErrRateLimited = errors.New("brain: rate limited")

// ErrToolLoop is returned when the model keeps calling tools past MaxTools.
var ErrToolLoop = errors.New("brain: too many tool calls")

// Brain wraps an AI provider with system prompt building and tool-use loop.
type Brain struct {
	provider   Provider
	maxTools   int
	maxHistory int
	now        func() time.Time

	// Sliding-window rate limiter
	mu      sync.Mutex
	window  []time.Time
	rateMax int
	rateDur time.Duration
}

var (
	_ chat.Companion  = (*Brain)(nil)
	_ training.Vision = (*Brain)(nil)
)

// Config for creating a Brain.
type Config struct {
	// Claude
	ClaudeAPIKey string
	ClaudeModel  string

	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// Which provider to force ("claude", "gemini", or "" for auto-detect)
	Provider string

	MaxTokens  int64
	MaxTools   int
	MaxHistory int // chat turns sent to the model
	RateLimit  int
	RateWindow time.Duration
}

// New creates a Brain. Returns nil if no API key is configured.
func New(ctx context.Context, cfg Config) *Brain {
	provider := newProvider(ctx, cfg)
	if provider == nil {
		slog.Info("brain: no API key configured, AI features disabled")
		return nil
	}
	return NewWithProvider(provider, cfg)
}

// NewWithProvider builds a Brain around an existing provider.
func NewWithProvider(p Provider, cfg Config) *Brain {
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = chat.MaxMessages
	}
	return &Brain{
		provider:   p,
		maxTools:   cfg.MaxTools,
		maxHistory: cfg.MaxHistory,
		now:        time.Now,
		rateMax:    cfg.RateLimit,
		rateDur:    cfg.RateWindow,
	}
}

// newProvider auto-detects or forces the AI provider.
func newProvider(ctx context.Context, cfg Config) Provider {
	pick := cfg.Provider

	// Auto-detect if not forced
	if pick == "" {
		switch {
		case cfg.ClaudeAPIKey != "":
			pick = "claude"
		case cfg.GeminiAPIKey != "":
			pick = "gemini"
		}
	}

	switch pick {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			slog.Error("brain: AI_PROVIDER=claude but ANTHROPIC_API_KEY is not set")
			return nil
		}
		slog.Info("brain: using claude", "model", cfg.ClaudeModel)
		return newClaudeProvider(cfg.ClaudeAPIKey, cfg.ClaudeModel, cfg.MaxTokens)
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			slog.Error("brain: AI_PROVIDER=gemini but GOOGLE_API_KEY is not set")
			return nil
		}
		slog.Info("brain: using gemini", "model", cfg.GeminiModel)
		p, err := newGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxTokens)
		if err != nil {
			slog.Error("brain: failed to create gemini provider", "err", err)
			return nil
		}
		return p
	default:
		return nil
	}
}

// Reply speaks as the pet. history ends with the player's latest message.
// It handles the tool-use loop internally.
func (b *Brain) Reply(ctx context.Context, snap pet.Snapshot, history []chat.Message, memories []chat.Memory) (string, error) {
	if !b.rateAllow() {
		return "", ErrRateLimited
	}

	systemPrompt := buildSystemPrompt(snap, memories)
	msgs := toMessages(history, b.maxHistory)
	if len(msgs) == 0 {
		return "", errors.New("brain: empty conversation")
	}

	// Tool-use loop
	for i := 0; i <= b.maxTools; i++ {
		resp, err := b.provider.Send(ctx, systemPrompt, msgs, petTools)
		if err != nil {
			slog.Error("brain: AI API error", "err", err)
			return "", fmt.Errorf("AI API error: %w", err)
		}

		if resp.Done {
			return resp.Text, nil
		}

		msgs = append(msgs, Message{
			Role:      "assistant",
			Text:      resp.Text,
			ToolCalls: resp.ToolCalls,
		})

		var results []ToolResult
		for _, tc := range resp.ToolCalls {
			content, isError := executeTool(tc.Name, snap, memories)
			results = append(results, ToolResult{
				ID:      tc.ID,
				Name:    tc.Name,
				Content: content,
				IsError: isError,
			})
		}

		msgs = append(msgs, Message{
			Role:        "user",
			ToolResults: results,
		})
	}

	slog.Warn("brain: hit max tool iterations", "max", b.maxTools)
	return "", ErrToolLoop
}

// Evaluate shows img to the model with the grading prompt and returns its
// raw answer.
func (b *Brain) Evaluate(ctx context.Context, systemPrompt, prompt string, img training.Image) (string, error) {
	if !b.rateAllow() {
		return "", ErrRateLimited
	}
	resp, err := b.provider.Send(ctx, systemPrompt, []Message{{
		Role:   "user",
		Text:   prompt,
		Images: []Image{{Data: img.Data, MediaType: img.MediaType}},
	}}, nil)
	if err != nil {
		slog.Error("brain: evaluation API error", "err", err)
		return "", fmt.Errorf("AI API error: %w", err)
	}
	return resp.Text, nil
}

func toMessages(history []chat.Message, limit int) []Message {
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	var out []Message
	for _, m := range history {
		role := "user"
		if m.Role == chat.RoleAssistant {
			role = "assistant"
		}
		// Both providers require the conversation to open with the user.
		if len(out) == 0 && role != "user" {
			continue
		}
		out = append(out, Message{Role: role, Text: m.Text})
	}
	return out
}

// --- Tools ---

var petTools = []Tool{
	{Name: "consultar_estado", Description: "Devuelve tus estadisticas actuales en JSON: nivel, felicidad, hambre, XP, tipo, personalidad y evolucion."},
	{Name: "consultar_recuerdos", Description: "Devuelve lo que recuerdas de tu entrenador (nombre, gustos, origen) en JSON."},
}

type statusView struct {
	Name        string `json:"nombre"`
	Level       int    `json:"nivel"`
	Happiness   int    `json:"felicidad"`
	Hunger      *int   `json:"hambre,omitempty"`
	XP          int    `json:"xp"`
	XPToNext    int    `json:"xp_para_subir"`
	Type        string `json:"tipo,omitempty"`
	Personality string `json:"personalidad,omitempty"`
	Evolution   string `json:"evolucion"`
	Mood        string `json:"animo"`
}

func executeTool(name string, snap pet.Snapshot, memories []chat.Memory) (string, bool) {
	switch name {
	case "consultar_estado":
		v := statusView{
			Name:      snap.Name,
			Level:     snap.Level,
			Happiness: snap.Happiness,
			XP:        snap.XP,
			XPToNext:  snap.XPToNext,
			Type:      snap.TypeLabel(),
			Evolution: snap.Evolution,
			Mood:      snap.Mood.Label(),
		}
		if snap.HasHunger {
			h := snap.Hunger
			v.Hunger = &h
		}
		if snap.Personality != nil {
			v.Personality = snap.Personality.Label
		}
		raw, _ := json.Marshal(v)
		return string(raw), false

	case "consultar_recuerdos":
		if len(memories) == 0 {
			return "[]", false
		}
		raw, _ := json.Marshal(memories)
		return string(raw), false

	default:
		return fmt.Sprintf("unknown tool: %s", name), true
	}
}

// --- Sliding-window rate limiter ---

func (b *Brain) rateAllow() bool {
	if b.rateMax <= 0 {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	cutoff := now.Add(-b.rateDur)

	// Remove expired entries
	valid := b.window[:0]
	for _, t := range b.window {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	b.window = valid

	if len(b.window) >= b.rateMax {
		return false
	}

	b.window = append(b.window, now)
	return true
}
