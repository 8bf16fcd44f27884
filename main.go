package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := rootCmd(&cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bcibridge",
		Short: "Forward classified BCI mental commands to a local game",
		Long: `bcibridge receives classified mental commands (left, right, lift, push, pull)
from a headset pipeline and forwards them to a game listening on HTTP,
dropping weak, neutral and repeated commands and backing off while the
game is not running.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			level, _ := cfg.slogLevel()
			setupLogging(cmd.ErrOrStderr(), level)
			return nil
		},
	}
	cfg.BindFlags(cmd)

	cmd.AddCommand(serveCmd(cfg))
	cmd.AddCommand(sendCmd(cfg))
	cmd.AddCommand(statusCmd(cfg))
	cmd.AddCommand(historyCmd(cfg))
	cmd.AddCommand(mockConsumerCmd())
	return cmd
}

func setupLogging(w io.Writer, level slog.Level) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
