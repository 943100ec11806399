// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tracker

import (
	"sync"
	"time"

	"github.com/danielhkuo/tvorozhniki/ledger"
)

// CodeTTL is how long a confirmation code stays valid.
const CodeTTL = 10 * time.Minute

// PendingVote is a vote waiting for its emailed code.
type PendingVote struct {
	Data      VoteData  `json:"data"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the code can no longer be used at now.
func (p PendingVote) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// PendingFile persists the single pending vote of a client.
type PendingFile struct {
	mu   sync.Mutex
	file ledger.JSONFile
}

func NewPendingFile(path string) *PendingFile {
	return &PendingFile{file: ledger.JSONFile(path)}
}

// Load returns the pending vote, or nil when there is none.
func (p *PendingFile) Load() (*PendingVote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var pv PendingVote
	ok, err := p.file.Read(&pv)
	if err != nil || !ok {
		return nil, err
	}
	return &pv, nil
}

// Save replaces any previous pending vote.
func (p *PendingFile) Save(pv PendingVote) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.file.Write(pv)
}

func (p *PendingFile) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.file.Remove()
}
