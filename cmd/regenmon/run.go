package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/moorebrett0/regenmon/internal/clock"
	"github.com/moorebrett0/regenmon/internal/discord"
	"github.com/moorebrett0/regenmon/internal/game"
	"github.com/moorebrett0/regenmon/internal/metrics"
	"github.com/moorebrett0/regenmon/internal/onboarding"
	"github.com/moorebrett0/regenmon/internal/pet"
	"github.com/moorebrett0/regenmon/internal/proactive"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the Discord bot, proactive scheduler and metrics endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := wireApp(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.cfg.ValidateDiscord(); err != nil {
				return err
			}
			return runBot(ctx, a)
		},
	}
}

func runBot(ctx context.Context, a *app) error {
	bot, err := discord.NewBot(discord.Options{
		Token:          a.cfg.Discord.BotToken,
		GuildID:        a.cfg.Discord.GuildID,
		ConnectRetries: a.cfg.Discord.ConnectRetries,
		Logger:         a.log,
	})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rec := metrics.Recorder{}
	deps := a.deps()
	deps.Observer = rec
	deps.OnLevelUp = bot.AnnounceLevelUp
	games := game.NewManager(deps)
	defer games.Close()

	bot.SetRouter(discord.NewRouter(discord.RouterOptions{
		Games:  games,
		Hub:    a.hub,
		AppURL: a.cfg.Hub.AppURL,
		Clock:  deps.Clock,
		Logger: a.log,
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := metrics.Serve(ctx, a.cfg.Metrics.Addr, a.log); err != nil {
			a.log.Error("metrics: server failed", "err", err)
		}
	}()
	if a.cfg.Proactive.Enabled {
		cfg := proactive.Config{
			CheckInterval:    a.cfg.Proactive.CheckInterval,
			DistressCooldown: a.cfg.Proactive.DistressCooldown,
		}
		if a.hub != nil {
			cfg.SyncInterval = a.cfg.Hub.SyncInterval
		}
		sched := proactive.New(games, bot, clock.Real{}, rec, a.log, cfg)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sched.Run(ctx)
		}()
	}

	onboarding.PrintStartup(os.Stdout, pet.DefaultName, a.brain != nil, true, a.hub != nil)
	err = bot.Start(ctx)
	cancel()
	wg.Wait()
	return err
}
