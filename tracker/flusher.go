// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron"

	"github.com/danielhkuo/tvorozhniki/ledger"
	"github.com/danielhkuo/tvorozhniki/models"
	"github.com/danielhkuo/tvorozhniki/remote"
)

// DefaultFlushSchedule is the cron spec used when none is configured.
const DefaultFlushSchedule = "@every 1m"

// Submitter sends one vote upstream.
type Submitter interface {
	Submit(ctx context.Context, req models.CreateVoteRequest) (models.CreateVoteResponse, error)
}

// Flusher resends queued votes. Resending is safe because the aggregator
// rejects a second vote for the same fingerprint.
type Flusher struct {
	sync.Mutex // one pass at a time

	outbox  *ledger.Outbox
	remote  Submitter
	timeout time.Duration
	cron    *cron.Cron

	// OnSent is called after a pass that removed at least one entry.
	OnSent func()
}

func NewFlusher(outbox *ledger.Outbox, s Submitter) *Flusher {
	return &Flusher{
		outbox:  outbox,
		remote:  s,
		timeout: remote.DefaultTimeout,
	}
}

// Flush makes one pass over the outbox, oldest first. Accepted and duplicate
// entries are removed. The pass stops at the first transient failure and
// returns it.
func (f *Flusher) Flush(ctx context.Context) (int, error) {
	f.Lock()
	defer f.Unlock()

	entries, err := f.outbox.List()
	if err != nil {
		return 0, fmt.Errorf("failed to read outbox: %w", err)
	}

	removed := 0
	defer func() {
		if removed > 0 && f.OnSent != nil {
			f.OnSent()
		}
	}()

	for _, e := range entries {
		rctx, cancel := context.WithTimeout(ctx, f.timeout)
		resp, err := f.remote.Submit(rctx, requestFor(e.Record))
		cancel()

		switch {
		case err == nil:
			slog.Info("queued vote delivered", "local_id", e.Record.ID, "id", resp.ID)
		case errors.Is(err, remote.ErrDuplicateVote):
			slog.Info("queued vote already known upstream", "local_id", e.Record.ID)
		default:
			return removed, err
		}

		if err := f.outbox.Remove(e.Key); err != nil {
			return removed, fmt.Errorf("failed to dequeue vote: %w", err)
		}
		removed++
	}
	return removed, nil
}

// Start runs Flush on schedule until Stop. Starting again replaces the
// running schedule.
func (f *Flusher) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultFlushSchedule
	}

	c := cron.New()
	err := c.AddFunc(schedule, func() {
		n, err := f.Flush(context.Background())
		if err != nil {
			slog.Warn("outbox flush stopped", "sent", n, "error", err)
			return
		}
		if n > 0 {
			slog.Info("outbox flushed", "sent", n)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid flush schedule %q: %w", schedule, err)
	}

	f.Stop()
	f.cron = c
	f.cron.Start()
	return nil
}

func (f *Flusher) Stop() {
	if f.cron != nil {
		f.cron.Stop()
		f.cron = nil
	}
}
