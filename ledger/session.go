// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"sync"

	"github.com/danielhkuo/tvorozhniki/models"
)

// SessionFlag is the session-scoped "voted" flag. It lives as long as the
// process does.
type SessionFlag struct {
	mu  sync.Mutex
	rec *models.VoteRecord
}

func NewSessionFlag() *SessionFlag {
	return &SessionFlag{}
}

func (s *SessionFlag) Name() string { return "session" }

func (s *SessionFlag) Has(string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec != nil, nil
}

func (s *SessionFlag) Mark(rec models.VoteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = &rec
	return nil
}

func (s *SessionFlag) List() ([]models.VoteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return nil, nil
	}
	return []models.VoteRecord{*s.rec}, nil
}

func (s *SessionFlag) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = nil
	return nil
}
