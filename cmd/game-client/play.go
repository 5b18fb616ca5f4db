package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cheildo/game-of-three/internal/autoplay"
	"github.com/cheildo/game-of-three/internal/client"
)

var automaticCmd = &cobra.Command{
	Use:   "automatic",
	Short: "Play without human input",
	RunE:  runAutomatic,
}

var manualCmd = &cobra.Command{
	Use:   "manual",
	Short: "Play with moves typed on standard input",
	Long: `Play with moves typed on standard input, one integer per line.
The first move of a game is the starting number, every later move is the
value added to the current number: -1, 0 or 1.`,
	RunE: runManual,
}

func init() {
	for _, cmd := range []*cobra.Command{automaticCmd, manualCmd} {
		cmd.Flags().Int("games", 1, "number of games to play, 0 plays until interrupted")
		rootCmd.AddCommand(cmd)
	}
}

func runAutomatic(cmd *cobra.Command, args []string) error {
	querier, release, err := newQuerier(viper.GetViper())
	if err != nil {
		return err
	}
	defer release()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Automatic game mode selected")
	listener := client.NewAutomatic(out, querier, autoplay.NewPlayer(nil))
	return play(cmd, listener)
}

func runManual(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	cmd.SetContext(ctx)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Manual game mode selected")
	listener := client.NewManual(cmd.InOrStdin(), out, cancel)
	return play(cmd, listener)
}

func play(cmd *cobra.Command, listener client.Listener) error {
	games, err := cmd.Flags().GetInt("games")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(slog.Default(), clientConfig(viper.GetViper()), listener)
	for played := 0; games == 0 || played < games; played++ {
		if err := c.Play(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Game ended.")
	}
	return nil
}
