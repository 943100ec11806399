// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"fmt"
	"os"
	"path/filepath"
)

// State file names inside a client state directory.
const (
	FlagFileName        = "voted.json"
	FingerprintFileName = "fingerprints.json"
	StoreDirName        = "votes.ldb"
	PendingFileName     = "pending.json"
)

// State is the client's opened state directory.
type State struct {
	Dir    string
	Ledger *Ledger
	Outbox *Outbox
	store  *Store
}

// Open opens the standard ledger in dir: durable flag, session flag,
// fingerprint set and embedded store, plus the outbox.
func Open(dir string) (*State, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}

	store, err := OpenStore(filepath.Join(dir, StoreDirName), DefaultStoreLimit)
	if err != nil {
		return nil, err
	}

	return &State{
		Dir: dir,
		Ledger: New(
			NewFlagFile(filepath.Join(dir, FlagFileName)),
			NewSessionFlag(),
			NewFingerprintSet(filepath.Join(dir, FingerprintFileName)),
			store,
		),
		Outbox: NewOutbox(store, DefaultOutboxLimit),
		store:  store,
	}, nil
}

// Path joins name onto the state directory.
func (s *State) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

func (s *State) Close() error {
	return s.store.Close()
}
