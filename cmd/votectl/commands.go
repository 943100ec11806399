// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/tvorozhniki/models"
	"github.com/danielhkuo/tvorozhniki/tracker"
)

// withClient opens the client for the duration of fn.
func withClient(cmd *cobra.Command, fn func(c *client) error) error {
	c, err := openClient(configFrom(cmd.Context()))
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

func voteCommand() *cobra.Command {
	var data tracker.VoteData
	var choice string

	cmd := &cobra.Command{
		Use:   "vote",
		Short: "Cast this device's vote",
		Long: "Cast this device's vote. With a valid --email the vote waits for the\n" +
			"confirmation code sent to that address (see verify).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data.Choice = models.Choice(choice)
			return withClient(cmd, func(c *client) error {
				out, err := c.tracker.Submit(cmd.Context(), data)
				if errors.Is(err, tracker.ErrAlreadyVoted) {
					return errors.New("this device has already voted")
				}
				if err != nil {
					return err
				}
				printOutcome(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&choice, "choice", "c", "", "tvorozhniki or syrniki")
	cmd.Flags().StringVarP(&data.Name, "name", "n", "", "your name")
	cmd.Flags().StringVar(&data.City, "city", "", "your city")
	cmd.Flags().StringVarP(&data.Email, "email", "e", "", "email for a confirmed vote (optional)")
	cmd.MarkFlagRequired("choice")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("city")
	return cmd
}

func verifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify CODE",
		Short: "Confirm the pending vote with the mailed code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(c *client) error {
				out, err := c.tracker.Verify(cmd.Context(), args[0])
				switch {
				case errors.Is(err, tracker.ErrNoPendingVote):
					return errors.New("no vote is waiting for confirmation")
				case errors.Is(err, tracker.ErrExpiredCode):
					return errors.New("the code has expired, vote again to get a new one")
				case errors.Is(err, tracker.ErrInvalidCode):
					return errors.New("wrong code, try again")
				case errors.Is(err, tracker.ErrAlreadyVoted):
					return errors.New("this device has already voted; the pending vote was discarded")
				case err != nil:
					return err
				}
				printOutcome(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether this device has voted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(c *client) error {
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Fingerprint: %s\n", c.tracker.Fingerprint())

				st := c.tracker.HasVoted()
				if st.Voted {
					fmt.Fprintln(w, "Voted:       yes")
				} else {
					fmt.Fprintln(w, "Voted:       no")
				}
				if st.LastRecord != nil {
					r := st.LastRecord
					fmt.Fprintf(w, "Last vote:   %s by %s from %s, %s\n",
						r.Choice, r.Name, r.City, humanize.Time(r.Timestamp))
				}

				names := make([]string, 0, len(st.Signals))
				for name := range st.Signals {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintf(w, "  %-12s %t\n", name, st.Signals[name])
				}

				if pv := c.tracker.Pending(); pv != nil {
					fmt.Fprintf(w, "Pending:     %s for %s, expires %s\n",
						pv.Data.Choice, pv.Data.Email, humanize.Time(pv.ExpiresAt))
				}
				if n, err := c.state.Outbox.Len(); err == nil && n > 0 {
					fmt.Fprintf(w, "Queued:      %d vote(s) waiting for the aggregator\n", n)
				}
				return nil
			})
		},
	}
}

func flushCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Send queued votes to the aggregator now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(c *client) error {
				n, err := c.flusher.Flush(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "Sent %d queued vote(s)\n", n)
				if err != nil {
					return fmt.Errorf("aggregator unreachable: %w", err)
				}
				return nil
			})
		},
	}
}

func resetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget every local trace of voting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(c *client) error {
				if err := c.tracker.Reset(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Local vote data cleared")
				return nil
			})
		},
	}
}

func printOutcome(w io.Writer, out tracker.Outcome) {
	switch out.Status {
	case tracker.StatusRecorded:
		fmt.Fprintf(w, "Vote recorded (id %s)\n", out.Record.ID)
	case tracker.StatusLocal:
		fmt.Fprintln(w, "Aggregator unreachable; vote saved locally and queued for retry")
	case tracker.StatusDuplicate:
		fmt.Fprintln(w, "The aggregator already has a vote from this device")
	case tracker.StatusPending:
		ttl := out.Pending.ExpiresAt.Sub(out.Pending.CreatedAt)
		fmt.Fprintf(w, "Confirmation code sent to %s; run `%s verify CODE` within %d minutes\n",
			out.Pending.Data.Email, programName, int(ttl/time.Minute))
	}
}
