package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/moorebrett0/regenmon/internal/brain"
	"github.com/moorebrett0/regenmon/internal/chat"
	"github.com/moorebrett0/regenmon/internal/clock"
	"github.com/moorebrett0/regenmon/internal/config"
	"github.com/moorebrett0/regenmon/internal/game"
	"github.com/moorebrett0/regenmon/internal/hub"
	"github.com/moorebrett0/regenmon/internal/random"
	"github.com/moorebrett0/regenmon/internal/storage"
)

// app holds the process-wide dependencies built from config.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	store  storage.Store
	closer io.Closer
	brain  *brain.Brain // nil when no provider key is set
	hub    *hub.Client  // nil when the HUB is off
	mode   chat.Mode
}

func wireApp(ctx context.Context, flags *rootFlags) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	mode, err := chat.ParseMode(cfg.Chat.Mode)
	if err != nil {
		return nil, err
	}
	store, closer, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	a := &app{cfg: cfg, log: slog.Default(), store: store, closer: closer, mode: mode}
	a.brain = brain.New(ctx, brain.Config{
		ClaudeAPIKey: cfg.Claude.APIKey,
		ClaudeModel:  cfg.Claude.Model,
		GeminiAPIKey: cfg.Gemini.APIKey,
		GeminiModel:  cfg.Gemini.Model,
		Provider:     cfg.AI.Provider,
		MaxTokens:    cfg.Claude.MaxTokens,
		MaxTools:     cfg.Claude.MaxTools,
		MaxHistory:   cfg.Chat.MaxMessages,
		RateLimit:    cfg.Claude.RateLimit,
		RateWindow:   cfg.Claude.RateWindow,
	})
	if cfg.Hub.Enabled {
		a.hub = hub.New(hub.Options{
			BaseURL:   cfg.Hub.BaseURL,
			Timeout:   cfg.Hub.Timeout,
			RetryWait: cfg.Hub.RetryWait,
			Logger:    a.log,
		})
	}
	return a, nil
}

// deps builds the session dependencies. A nil *brain.Brain must not end up
// inside the Companion or Vision interfaces.
func (a *app) deps() game.Deps {
	d := game.Deps{
		Store:       a.store,
		Clock:       clock.Real{},
		Rand:        random.NewSeeded(),
		Logger:      a.log,
		HungerModel: a.cfg.Pet.HungerModel,
		CreatorFlow: a.cfg.Pet.CreatorFlow,
		ChatMode:    a.mode,
		MinDelay:    a.cfg.Chat.MinDelay,
		MaxDelay:    a.cfg.Chat.MaxDelay,
		MaxMessages: a.cfg.Chat.MaxMessages,
		Hub:         a.hub,
	}
	if a.brain != nil {
		d.Companion = a.brain
		d.Vision = a.brain
	}
	return d
}

func (a *app) Close() {
	if err := a.closer.Close(); err != nil {
		a.log.Warn("storage: close failed", "err", err)
	}
}
