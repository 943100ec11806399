// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/tvorozhniki/tracker"
)

// CampaignGoal is the vote count the campaign is aiming for.
const CampaignGoal = 10000

// DefaultWatchInterval matches how often the campaign page refreshed.
const DefaultWatchInterval = 30 * time.Second

func statsCommand() *cobra.Command {
	var watch bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the campaign results",
		Long: "Show the campaign results from the aggregator, or from the votes cast\n" +
			"on this device when the aggregator cannot be reached.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(c *client) error {
				w := cmd.OutOrStdout()
				if !watch {
					renderStats(w, c.reconciler.Statistics(cmd.Context()))
					return nil
				}

				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				return watchStats(ctx, w, c, interval)
			})
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep printing results as they change")
	cmd.Flags().DurationVar(&interval, "interval", DefaultWatchInterval, "refresh interval with --watch")
	return cmd
}

// watchStats prints every update until ctx is done. Queued votes are
// retried on the client's flush schedule meanwhile.
func watchStats(ctx context.Context, w io.Writer, c *client, interval time.Duration) error {
	if err := c.flusher.Start(c.cfg.FlushSchedule); err != nil {
		return err
	}
	defer c.flusher.Stop()

	updates := c.reconciler.Subscribe(ctx)

	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		go func() {
			for {
				select {
				case <-ticker.C:
					c.reconciler.Refresh()
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for st := range updates {
		renderStats(w, st)
		fmt.Fprintln(w)
	}
	slog.Debug("stopped watching statistics")
	return nil
}

func renderStats(w io.Writer, st tracker.Statistics) {
	total := st.TotalVotes

	fmt.Fprintf(w, "Total votes: %s", humanize.Comma(int64(total)))
	if st.Source == tracker.SourceLocal {
		fmt.Fprint(w, " (this device only, aggregator unreachable)")
	}
	fmt.Fprintln(w)

	for _, row := range []struct {
		label string
		votes int
	}{
		{"tvorozhniki", st.TvorozhnikiVotes},
		{"syrniki", st.SyrnikiVotes},
	} {
		fmt.Fprintf(w, "  %-12s %8s  %5.1f%%  %s\n",
			row.label, humanize.Comma(int64(row.votes)), percent(row.votes, total), bar(row.votes, total, 20))
	}

	fmt.Fprintf(w, "Goal: %s of %s (%.1f%%)\n",
		humanize.Comma(int64(total)), humanize.Comma(CampaignGoal), goalProgress(total))

	if len(st.TopCities) > 0 {
		fmt.Fprintln(w, "Top cities:")
		for i, c := range st.TopCities {
			fmt.Fprintf(w, "  %-5s %-20s %s (tvorozhniki %d, syrniki %d)\n",
				humanize.Ordinal(i+1), c.City, humanize.Comma(int64(c.Votes)), c.Tvorozhniki, c.Syrniki)
		}
	}

	if len(st.RecentVotes) > 0 {
		fmt.Fprintln(w, "Recent votes:")
		for _, v := range st.RecentVotes {
			fmt.Fprintf(w, "  %s from %s voted %s, %s\n", v.Name, v.City, v.Choice, v.TimeAgo)
		}
	}
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}

// goalProgress is capped at 100.
func goalProgress(total int) float64 {
	p := percent(total, CampaignGoal)
	if p > 100 {
		return 100
	}
	return p
}

func bar(n, total, width int) string {
	filled := 0
	if total > 0 {
		filled = n * width / total
	}
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
}
