package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nicebartender/bci-bridge/db"
)

func historyCmd(cfg *Config) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent deliveries from the dispatch log",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DBPath == "" {
				return fmt.Errorf("dispatch log disabled (no --db path)")
			}
			database, err := db.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer database.Close()

			ctx := context.Background()
			dispatches, err := database.RecentDispatches(ctx, limit)
			if err != nil {
				return fmt.Errorf("read dispatches: %w", err)
			}
			counts, err := database.DispatchCounts(ctx)
			if err != nil {
				return fmt.Errorf("count dispatches: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(dispatches) == 0 {
				fmt.Fprintln(out, "No dispatches recorded.")
				return nil
			}
			for _, d := range dispatches {
				fmt.Fprintf(out, "%s  %-9s %-7s %.2f -> %.2f  %s\n",
					d.CreatedAt.Local().Format("2006-01-02 15:04:05.000"),
					statusLabel(d.Status), d.Command, d.Strength, d.SentStrength, d.Reason)
			}

			statuses := make([]string, 0, len(counts))
			for s := range counts {
				statuses = append(statuses, s)
			}
			sort.Strings(statuses)
			fmt.Fprintln(out)
			for _, s := range statuses {
				fmt.Fprintf(out, "%s: %d\n", s, counts[s])
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}

func statusLabel(status string) string {
	switch status {
	case "delivered":
		return color.New(color.FgGreen).Sprint(status)
	case "failed":
		return color.New(color.FgRed).Sprint(status)
	default:
		return color.New(color.FgYellow).Sprint(status)
	}
}
