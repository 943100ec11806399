// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"errors"
	"fmt"

	"github.com/danielhkuo/tvorozhniki/cliparse"
	"github.com/danielhkuo/tvorozhniki/ledger"
	"github.com/danielhkuo/tvorozhniki/mailer"
	"github.com/danielhkuo/tvorozhniki/remote"
	"github.com/danielhkuo/tvorozhniki/tracker"
)

// client bundles the pieces every command works with.
type client struct {
	cfg        *cliparse.ClientConfig
	state      *ledger.State
	remote     *remote.Client
	reconciler *tracker.Reconciler
	tracker    *tracker.Tracker
	flusher    *tracker.Flusher
}

func openClient(cfg *cliparse.ClientConfig) (*client, error) {
	if cfg == nil {
		return nil, errors.New("no config found in context")
	}

	state, err := ledger.Open(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open local state: %w", err)
	}

	sender, err := mailer.New(cfg.SMTPHost, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	if err != nil {
		state.Close()
		return nil, fmt.Errorf("failed to configure mail: %w", err)
	}

	rc := remote.NewClient(cfg.ServerURL, remote.WithTimeout(cfg.Timeout))
	reconciler := tracker.NewReconciler(rc, state.Ledger)

	t := tracker.New(tracker.Config{
		Ledger:     state.Ledger,
		Outbox:     state.Outbox,
		Remote:     rc,
		Pending:    tracker.NewPendingFile(state.Path(ledger.PendingFileName)),
		Mailer:     sender,
		Reconciler: reconciler,
		Timeout:    cfg.Timeout,
	})

	flusher := tracker.NewFlusher(state.Outbox, rc)
	flusher.OnSent = reconciler.Refresh

	return &client{
		cfg:        cfg,
		state:      state,
		remote:     rc,
		reconciler: reconciler,
		tracker:    t,
		flusher:    flusher,
	}, nil
}

func (c *client) Close() error {
	c.flusher.Stop()
	return c.state.Close()
}
