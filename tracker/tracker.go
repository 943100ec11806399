// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/tvorozhniki/auth"
	"github.com/danielhkuo/tvorozhniki/fingerprint"
	"github.com/danielhkuo/tvorozhniki/ledger"
	"github.com/danielhkuo/tvorozhniki/mailer"
	"github.com/danielhkuo/tvorozhniki/models"
	"github.com/danielhkuo/tvorozhniki/remote"
)

// VoteData is what the voter typed in. Fingerprint is filled in by the
// tracker when empty.
type VoteData struct {
	Choice      models.Choice `json:"choice"`
	Name        string        `json:"name"`
	City        string        `json:"city"`
	Email       string        `json:"email,omitempty"`
	Fingerprint string        `json:"fingerprint,omitempty"`
}

// Validate checks required fields.
func (d VoteData) Validate() error {
	switch {
	case !d.Choice.Valid():
		return fmt.Errorf("%w: unknown choice %q", ErrValidation, d.Choice)
	case strings.TrimSpace(d.Name) == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case strings.TrimSpace(d.City) == "":
		return fmt.Errorf("%w: city is required", ErrValidation)
	}
	return nil
}

var emailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// LooksLikeEmail is a permissive shape check: local@domain.tld.
func LooksLikeEmail(s string) bool {
	return emailRE.MatchString(s)
}

// Status is how a submission ended.
type Status string

const (
	StatusRecorded  Status = "recorded"
	StatusLocal     Status = "recorded-locally"
	StatusDuplicate Status = "duplicate"
	StatusPending   Status = "pending"
)

// Outcome carries the record for every status except pending, and the
// pending vote (with its code) for pending.
type Outcome struct {
	Status  Status
	Record  *models.VoteRecord
	Pending *PendingVote
}

// Aggregator is the subset of the remote API the tracker needs.
type Aggregator interface {
	Submit(ctx context.Context, req models.CreateVoteRequest) (models.CreateVoteResponse, error)
	Stats(ctx context.Context) (models.Stats, error)
}

// Config wires a Tracker. Ledger and Remote are required.
type Config struct {
	Ledger      *ledger.Ledger
	Outbox      *ledger.Outbox
	Remote      Aggregator
	Pending     *PendingFile
	Mailer      mailer.Sender
	Reconciler  *Reconciler
	Fingerprint func() string
	Now         func() time.Time
	Timeout     time.Duration
}

// Tracker records votes for one client.
type Tracker struct {
	mu sync.Mutex

	ledger      *ledger.Ledger
	outbox      *ledger.Outbox
	remote      Aggregator
	pending     *PendingFile
	mailer      mailer.Sender
	reconciler  *Reconciler
	fingerprint func() string
	now         func() time.Time
	timeout     time.Duration
}

func New(cfg Config) *Tracker {
	t := &Tracker{
		ledger:      cfg.Ledger,
		outbox:      cfg.Outbox,
		remote:      cfg.Remote,
		pending:     cfg.Pending,
		mailer:      cfg.Mailer,
		reconciler:  cfg.Reconciler,
		fingerprint: cfg.Fingerprint,
		now:         cfg.Now,
		timeout:     cfg.Timeout,
	}
	if t.fingerprint == nil {
		t.fingerprint = sync.OnceValue(fingerprint.Generate)
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.timeout <= 0 {
		t.timeout = remote.DefaultTimeout
	}
	if t.mailer == nil {
		t.mailer = mailer.Log{}
	}
	return t
}

// Fingerprint returns this client's current fingerprint.
func (t *Tracker) Fingerprint() string {
	return t.fingerprint()
}

// HasVoted checks the ledger for this client.
func (t *Tracker) HasVoted() ledger.Status {
	return t.ledger.HasVoted(t.fingerprint())
}

// Submit is the voting entry point: a well-formed email starts the
// confirmation flow, anything else is recorded at once.
func (t *Tracker) Submit(ctx context.Context, data VoteData) (Outcome, error) {
	if err := data.Validate(); err != nil {
		return Outcome{}, err
	}

	fp := data.Fingerprint
	if fp == "" {
		fp = t.fingerprint()
	}
	if t.ledger.HasVoted(fp).Voted {
		return Outcome{}, ErrAlreadyVoted
	}

	if data.Email != "" && LooksLikeEmail(data.Email) {
		pv, err := t.Begin(ctx, data)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Status: StatusPending, Pending: &pv}, nil
	}
	return t.Record(ctx, data)
}

// Record writes the vote to every ledger backend and then sends it to the
// aggregator. Only validation errors are returned; storage and network
// failures show up in the outcome status.
func (t *Tracker) Record(ctx context.Context, data VoteData) (Outcome, error) {
	if err := data.Validate(); err != nil {
		return Outcome{}, err
	}

	rec := models.VoteRecord{
		ID:          "local-" + uuid.NewString(),
		Choice:      data.Choice,
		Name:        data.Name,
		City:        data.City,
		Email:       data.Email,
		Fingerprint: data.Fingerprint,
		Timestamp:   t.now().UTC(),
	}
	if rec.Fingerprint == "" {
		rec.Fingerprint = t.fingerprint()
	}

	if err := t.ledger.Mark(rec); err != nil {
		slog.Debug("vote only partly stored", "id", rec.ID, "error", err)
	}

	out := t.send(ctx, rec)
	if t.reconciler != nil {
		t.reconciler.Refresh()
	}
	return out, nil
}

func (t *Tracker) send(ctx context.Context, rec models.VoteRecord) Outcome {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.remote.Submit(ctx, requestFor(rec))
	switch {
	case err == nil:
		accepted := rec
		accepted.ID = strconv.FormatInt(resp.ID, 10)
		accepted.Authoritative = true
		// Flags keep the latest snapshot; the set and store already hold rec.
		if err := t.ledger.Mark(accepted); err != nil {
			slog.Debug("accepted vote only partly stored", "id", accepted.ID, "error", err)
		}
		slog.Info("vote recorded", "id", accepted.ID, "choice", accepted.Choice)
		return Outcome{Status: StatusRecorded, Record: &accepted}

	case errors.Is(err, remote.ErrDuplicateVote):
		slog.Info("aggregator already holds a vote for this fingerprint", "fingerprint", rec.Fingerprint)
		return Outcome{Status: StatusDuplicate, Record: &rec}

	default:
		slog.Warn("failed to send vote, queued for retry", "id", rec.ID, "error", err)
		if t.outbox != nil {
			if err := t.outbox.Enqueue(rec); err != nil {
				slog.Warn("failed to queue vote", "id", rec.ID, "error", err)
			}
		}
		return Outcome{Status: StatusLocal, Record: &rec}
	}
}

func requestFor(rec models.VoteRecord) models.CreateVoteRequest {
	return models.CreateVoteRequest{
		Choice:      rec.Choice,
		Name:        rec.Name,
		City:        rec.City,
		Email:       rec.Email,
		Fingerprint: rec.Fingerprint,
	}
}

// Begin stores data as the pending vote, replacing any earlier one, and
// mails the code. The returned value is the only place the code lives
// besides the pending file.
func (t *Tracker) Begin(ctx context.Context, data VoteData) (PendingVote, error) {
	if err := data.Validate(); err != nil {
		return PendingVote{}, err
	}
	if t.pending == nil {
		return PendingVote{}, errors.New("pending votes are not configured")
	}

	code, err := auth.GenerateVerificationCode()
	if err != nil {
		return PendingVote{}, fmt.Errorf("failed to generate code: %w", err)
	}

	now := t.now().UTC()
	pv := PendingVote{
		Data:      data,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(CodeTTL),
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.pending.Save(pv); err != nil {
		return PendingVote{}, fmt.Errorf("failed to store pending vote: %w", err)
	}
	if err := t.mailer.SendCode(ctx, data.Email, code); err != nil {
		slog.Warn("failed to send confirmation code", "to", data.Email, "error", err)
	}
	return pv, nil
}

// Verify confirms the pending vote with input. A wrong code keeps the vote
// for another try; an expired one discards it.
func (t *Tracker) Verify(ctx context.Context, input string) (Outcome, error) {
	if t.pending == nil {
		return Outcome{}, ErrNoPendingVote
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	pv, err := t.pending.Load()
	if err != nil {
		slog.Warn("failed to read pending vote", "error", err)
		return Outcome{}, ErrNoPendingVote
	}
	if pv == nil {
		return Outcome{}, ErrNoPendingVote
	}

	if pv.Expired(t.now()) {
		if err := t.pending.Clear(); err != nil {
			slog.Warn("failed to clear pending vote", "error", err)
		}
		return Outcome{}, ErrExpiredCode
	}

	if !auth.MatchCode(input, pv.Code) {
		return Outcome{}, ErrInvalidCode
	}

	fp := pv.Data.Fingerprint
	if fp == "" {
		fp = t.fingerprint()
	}
	if t.ledger.HasVoted(fp).Voted {
		if err := t.pending.Clear(); err != nil {
			slog.Warn("failed to clear pending vote", "error", err)
		}
		return Outcome{}, ErrAlreadyVoted
	}

	out, err := t.Record(ctx, pv.Data)
	if err != nil {
		return Outcome{}, err
	}
	if err := t.pending.Clear(); err != nil {
		slog.Warn("failed to clear pending vote", "error", err)
	}
	return out, nil
}

// Pending returns the vote awaiting confirmation, or nil.
func (t *Tracker) Pending() *PendingVote {
	if t.pending == nil {
		return nil
	}
	pv, err := t.pending.Load()
	if err != nil {
		slog.Warn("failed to read pending vote", "error", err)
		return nil
	}
	return pv
}

// Reset forgets every local trace of voting, pending votes included.
func (t *Tracker) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.ledger.Reset()
	if t.pending != nil {
		err = errors.Join(err, t.pending.Clear())
	}
	if t.reconciler != nil {
		t.reconciler.Refresh()
	}
	return err
}
