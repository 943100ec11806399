// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/danielhkuo/tvorozhniki/ledger"
	"github.com/danielhkuo/tvorozhniki/models"
	"github.com/danielhkuo/tvorozhniki/remote"
	"github.com/danielhkuo/tvorozhniki/tally"
)

// Source says where statistics came from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Statistics is a Stats value tagged with its source.
type Statistics struct {
	models.Stats
	Source Source
}

// StatsSource fetches authoritative statistics.
type StatsSource interface {
	Stats(ctx context.Context) (models.Stats, error)
}

// Reconciler serves statistics from the aggregator and falls back to the
// votes visible in the local ledger.
type Reconciler struct {
	remote  StatsSource
	ledger  *ledger.Ledger
	now     func() time.Time
	timeout time.Duration

	mu     sync.Mutex
	nextID int
	subs   map[int]chan struct{}
}

func NewReconciler(src StatsSource, l *ledger.Ledger) *Reconciler {
	return &Reconciler{
		remote:  src,
		ledger:  l,
		now:     time.Now,
		timeout: remote.DefaultTimeout,
		subs:    make(map[int]chan struct{}),
	}
}

// Statistics never fails: any remote error yields the local computation.
func (r *Reconciler) Statistics(ctx context.Context) Statistics {
	if r.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, r.timeout)
		stats, err := r.remote.Stats(rctx)
		cancel()
		if err == nil {
			return Statistics{Stats: stats, Source: SourceRemote}
		}
		slog.Warn("failed to fetch statistics, using local votes", "error", err)
	}

	stats := tally.Compute(r.ledger.Records(), r.now(), tally.LocalLimits)
	return Statistics{Stats: stats, Source: SourceLocal}
}

// Subscribe delivers statistics now, after every recorded vote and on every
// Refresh, until ctx is done. The channel is then closed. Refreshes that
// arrive while a result is undelivered are coalesced.
func (r *Reconciler) Subscribe(ctx context.Context) <-chan Statistics {
	out := make(chan Statistics)
	trigger := make(chan struct{}, 1)

	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = trigger
	r.mu.Unlock()

	go func() {
		defer close(out)
		defer func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
		}()

		for {
			stats := r.Statistics(ctx)
			if ctx.Err() != nil {
				return
			}
			select {
			case out <- stats:
			case <-ctx.Done():
				return
			}

			select {
			case <-trigger:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Refresh asks every subscriber for a new value.
func (r *Reconciler) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, trigger := range r.subs {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}
}
