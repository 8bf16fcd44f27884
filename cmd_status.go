package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nicebartender/bci-bridge/consumer"
)

func statusCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Probe the consumer once and report whether it is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ProbeTimeout)
			defer cancel()

			c := consumer.NewClient(cfg.ConsumerURL)
			out := cmd.OutOrStdout()
			if err := c.Status(ctx); err != nil {
				fmt.Fprintf(out, "consumer %s: %s (%v)\n", c.BaseURL(), color.New(color.FgRed).Sprint("UNREACHABLE"), err)
				return fmt.Errorf("consumer unreachable")
			}
			fmt.Fprintf(out, "consumer %s: %s\n", c.BaseURL(), color.New(color.FgGreen).Sprint("OK"))
			return nil
		},
	}
}
