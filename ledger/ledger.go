// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/tvorozhniki/models"
)

// Backend is one mechanism able to answer "has this client voted".
type Backend interface {
	Name() string
	Has(fingerprint string) (bool, error)
	Mark(rec models.VoteRecord) error
	List() ([]models.VoteRecord, error)
	Reset() error
}

// Status is the result of a HasVoted check. Signals holds one entry per
// backend, keyed by backend name.
type Status struct {
	Voted      bool
	LastRecord *models.VoteRecord
	Signals    map[string]bool
}

// Ledger composes several backends with OR-of-signals semantics.
type Ledger struct {
	backends []Backend
}

func New(backends ...Backend) *Ledger {
	return &Ledger{backends: backends}
}

// Backends returns the composed backends in evaluation order.
func (l *Ledger) Backends() []Backend {
	return l.backends
}

// HasVoted evaluates every backend; one positive signal marks the client as
// voted. A backend that fails to answer counts as a negative signal.
func (l *Ledger) HasVoted(fingerprint string) Status {
	st := Status{Signals: make(map[string]bool, len(l.backends))}

	for _, b := range l.backends {
		has, err := b.Has(fingerprint)
		if err != nil {
			slog.Warn("ledger check failed", "backend", b.Name(), "error", err)
			has = false
		}
		st.Signals[b.Name()] = has
		st.Voted = st.Voted || has

		if has && st.LastRecord == nil {
			recs, err := b.List()
			if err != nil {
				slog.Warn("ledger list failed", "backend", b.Name(), "error", err)
				continue
			}
			if len(recs) > 0 {
				last := recs[len(recs)-1]
				st.LastRecord = &last
			}
		}
	}

	return st
}

// Mark writes rec to every backend. Each write is attempted regardless of
// earlier failures; all failures are logged and joined.
func (l *Ledger) Mark(rec models.VoteRecord) error {
	var errs []error
	for _, b := range l.backends {
		if err := b.Mark(rec); err != nil {
			slog.Warn("ledger write failed", "backend", b.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Records returns every record visible to any backend, in backend order.
// The same vote usually appears several times.
func (l *Ledger) Records() []models.VoteRecord {
	var out []models.VoteRecord
	for _, b := range l.backends {
		recs, err := b.List()
		if err != nil {
			slog.Warn("ledger list failed", "backend", b.Name(), "error", err)
			continue
		}
		out = append(out, recs...)
	}
	return out
}

// Reset clears every backend.
func (l *Ledger) Reset() error {
	var errs []error
	for _, b := range l.backends {
		if err := b.Reset(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
		}
	}
	return errors.Join(errs...)
}
