package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nicebartender/bci-bridge/bridge"
)

func sendCmd(cfg *Config) *cobra.Command {
	var repeat int
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "send <command> <strength>",
		Short: "Run one command through the bridge, as if the classifier produced it",
		Example: `  bcibridge send left 0.8
  bcibridge send push 0.6 --repeat 5 --interval 50ms`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			strength, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid strength %q: %w", args[1], err)
			}
			kind, err := bridge.ParseKind(args[0])
			if err != nil {
				return err
			}
			if repeat < 1 {
				repeat = 1
			}

			b := bridge.NewHTTP(cfg.ConsumerURL, cfg.Policy())
			var last bridge.Result
			for i := 0; i < repeat; i++ {
				if i > 0 {
					time.Sleep(interval)
				}
				c, err := bridge.NewCommand(kind, strength, time.Now())
				if err != nil {
					return err
				}
				last = b.Submit(context.Background(), c)
				printResult(cmd.OutOrStdout(), last)
			}
			if last.Outcome == bridge.OutcomeFailed {
				return last.Reason
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&repeat, "repeat", 1, "Number of times to send the command")
	cmd.Flags().DurationVar(&interval, "interval", 100*time.Millisecond, "Delay between repeats")
	return cmd
}

func printResult(w io.Writer, res bridge.Result) {
	switch res.Outcome {
	case bridge.OutcomeDelivered:
		fmt.Fprintf(w, "%s %s sent as %.2f\n",
			color.New(color.FgGreen).Sprint("DELIVERED"), res.Command, res.SentStrength)
	case bridge.OutcomeRejected:
		fmt.Fprintf(w, "%s %s: %s\n",
			color.New(color.FgYellow).Sprint("REJECTED "), res.Command, res.ReasonText())
	default:
		fmt.Fprintf(w, "%s %s: %s\n",
			color.New(color.FgRed).Sprint("FAILED   "), res.Command, res.ReasonText())
	}
}
