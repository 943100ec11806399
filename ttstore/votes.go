// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package ttstore keeps votes in Tarantool.
package ttstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tarantool/go-tarantool/v2"

	"github.com/danielhkuo/tvorozhniki/models"
	"github.com/danielhkuo/tvorozhniki/tally"
)

const (
	voteSpace = "votes"
)

// Schema creates the votes space when it is missing. The primary index is
// backed by a sequence so inserts may leave the id nil.
const Schema = `
box.schema.sequence.create('votes_id', {if_not_exists = true})
local s = box.schema.space.create('votes', {
    if_not_exists = true,
    format = {
        {name = 'id', type = 'unsigned'},
        {name = 'choice', type = 'string'},
        {name = 'name', type = 'string'},
        {name = 'city', type = 'string'},
        {name = 'city_key', type = 'string'},
        {name = 'email', type = 'string'},
        {name = 'fingerprint', type = 'string'},
        {name = 'timestamp', type = 'integer'},
    },
})
s:create_index('primary', {if_not_exists = true, sequence = 'votes_id', parts = {'id'}})
s:create_index('fingerprint', {if_not_exists = true, unique = false, parts = {'fingerprint'}})
s:create_index('timestamp', {if_not_exists = true, unique = false, parts = {'timestamp'}})
`

type VoteStore struct {
	conn *tarantool.Connection
	mu   sync.Mutex
	now  func() time.Time
}

func NewVoteStore(conn *tarantool.Connection) *VoteStore {
	return &VoteStore{
		conn: conn,
		now:  time.Now,
	}
}

// EnsureSchema evaluates Schema on the server.
func (s *VoteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.conn.Do(
		tarantool.NewEvalRequest(Schema).
			Context(ctx),
	).Get(); err != nil {
		return fmt.Errorf("could not create votes space: %w", err)
	}
	return nil
}

// CreateVote inserts v unless its fingerprint is already stored.
func (s *VoteStore) CreateVote(ctx context.Context, v models.NewVote) (int64, error) {
	if v.Timestamp.IsZero() {
		v.Timestamp = s.now()
	}

	// The fingerprint index is not unique; serialize check and insert
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing []voteModel
	if err := s.conn.Do(
		tarantool.NewSelectRequest(voteSpace).
			Context(ctx).
			Index("fingerprint").
			Limit(1).
			Key(tarantool.StringKey{S: v.Fingerprint}),
	).GetTyped(&existing); err != nil {
		return 0, fmt.Errorf("could not select vote by fingerprint in tarantool: %w", err)
	}
	if len(existing) > 0 {
		return 0, models.ErrDuplicateVote
	}

	var inserted []voteModel
	if err := s.conn.Do(
		tarantool.NewInsertRequest(voteSpace).
			Context(ctx).
			Tuple(newVoteModel(v)),
	).GetTyped(&inserted); err != nil {
		return 0, fmt.Errorf("could not insert vote in tarantool: %w", err)
	}
	if len(inserted) == 0 {
		return 0, fmt.Errorf("tarantool returned no tuple for inserted vote")
	}
	return int64(inserted[0].ID), nil
}

// GetStats aggregates every stored vote in insertion order.
func (s *VoteStore) GetStats(ctx context.Context, limits tally.Limits) (models.Stats, error) {
	var all []voteModel
	if err := s.conn.Do(
		tarantool.NewSelectRequest(voteSpace).
			Context(ctx).
			Index("primary").
			Iterator(tarantool.IterAll),
	).GetTyped(&all); err != nil {
		return models.Stats{}, fmt.Errorf("could not select votes in tarantool: %w", err)
	}

	records := make([]models.VoteRecord, len(all))
	for i := range all {
		records[i] = all[i].toRecord()
	}
	return tally.Compute(records, s.now(), limits), nil
}

// GetRecent returns up to limit votes, newest first.
func (s *VoteStore) GetRecent(ctx context.Context, limit int) ([]models.RecentVote, error) {
	var res []voteModel
	if err := s.conn.Do(
		tarantool.NewSelectRequest(voteSpace).
			Context(ctx).
			Index("timestamp").
			Iterator(tarantool.IterReq).
			Limit(uint32(limit)),
	).GetTyped(&res); err != nil {
		return nil, fmt.Errorf("could not select recent votes in tarantool: %w", err)
	}

	recent := make([]models.RecentVote, len(res))
	for i := range res {
		recent[i] = res[i].toRecent()
	}
	return recent, nil
}
