package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/moorebrett0/regenmon/internal/game"
	"github.com/moorebrett0/regenmon/internal/onboarding"
	"github.com/moorebrett0/regenmon/internal/pet"
	"github.com/moorebrett0/regenmon/internal/species"
	"github.com/moorebrett0/regenmon/internal/training"
)

// hatchDelay paces the hatching text.
const hatchDelay = 25 * time.Millisecond

// localSession opens the scope's session for a one-shot terminal command.
func localSession(cmd *cobra.Command, flags *rootFlags, scope string, run func(*game.Session) error) error {
	a, err := wireApp(cmd.Context(), flags)
	if err != nil {
		return err
	}
	defer a.Close()

	games := game.NewManager(a.deps())
	defer games.Close()
	return run(games.Get(cmd.Context(), scope))
}

func newHatchCmd(flags *rootFlags) *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "hatch",
		Short: "Create a Regenmon in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return localSession(cmd, flags, scope, func(s *game.Session) error {
				creator := onboarding.New(cmd.InOrStdin(), cmd.OutOrStdout(), hatchDelay)
				_, err := creator.Run(s)
				if errors.Is(err, onboarding.ErrAlreadyHatched) {
					return fmt.Errorf("%w (use `regenmon reset` to start over)", err)
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "Player scope (default: the local player)")
	return cmd
}

func newStatusCmd(flags *rootFlags) *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a Regenmon's stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return localSession(cmd, flags, scope, func(s *game.Session) error {
				snap, err := s.Snapshot()
				if err != nil {
					return fmt.Errorf("%w (run `regenmon hatch` first)", err)
				}
				printStatus(cmd.OutOrStdout(), snap, s.Coins().Balance(), s.Training().Progress())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "Player scope (default: the local player)")
	return cmd
}

func newResetCmd(flags *rootFlags) *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Start over with a fresh Regenmon",
		Long:  "reset forgets the pet, its chat, memories and training progress. Coins and the action history stay.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return localSession(cmd, flags, scope, func(s *game.Session) error {
				s.Reset(cmd.Context())
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "  tu Regenmon se fue a dormir. usa `regenmon hatch` para empezar de nuevo.")
				return err
			})
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "Player scope (default: the local player)")
	return cmd
}

func printStatus(out io.Writer, snap pet.Snapshot, coins int, progress training.Progress) {
	fmt.Fprintf(out, "\n  %s %s  nivel %d  %s %s\n", snap.Sprite, snap.Name, snap.Level, snap.Mood.Emoji(), snap.Mood.Label())
	if snap.Type != nil && snap.Personality != nil {
		fmt.Fprintf(out, "  %s %s | %s %s\n", snap.Type.Emoji, snap.Type.Label, snap.Personality.Emoji, snap.Personality.Label)
	}
	fmt.Fprintf(out, "  felicidad %3d%%\n", snap.Happiness)
	if snap.HasHunger {
		fmt.Fprintf(out, "  hambre    %3d%%\n", snap.Hunger)
	}
	fmt.Fprintf(out, "  xp        %3d  (faltan %d)\n", snap.XP, snap.XPToNext)
	evolution := snap.Evolution
	if next := species.NextEvolutionLevel(snap.Level); next > 0 {
		evolution += fmt.Sprintf(" -> nivel %d", next)
	}
	fmt.Fprintf(out, "  evolucion %s\n", evolution)
	fmt.Fprintf(out, "  monedas   %d\n", coins)
	fmt.Fprintf(out, "  entrenamiento etapa %d, %d pts\n\n", progress.Stage, progress.TotalPoints)
}
