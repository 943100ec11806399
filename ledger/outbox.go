// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/danielhkuo/tvorozhniki/models"
)

// OutboxEntry is a queued vote together with its storage key.
type OutboxEntry struct {
	Key    string
	Record models.VoteRecord
}

// Outbox is the bounded queue of votes the aggregator has not accepted yet.
// It shares the Store's database under its own key prefix.
type Outbox struct {
	store *Store
	limit int
}

func NewOutbox(store *Store, limit int) *Outbox {
	if limit <= 0 {
		limit = DefaultOutboxLimit
	}
	return &Outbox{store: store, limit: limit}
}

// Enqueue appends rec, dropping the oldest entries beyond the limit.
func (o *Outbox) Enqueue(rec models.VoteRecord) error {
	o.store.Lock()
	defer o.store.Unlock()

	entries, err := o.store.entries(outboxPrefix)
	if err != nil {
		return err
	}

	b, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	batch.Put(entryKey(outboxPrefix, rec.Timestamp, rec.ID), b)
	for i := 0; i <= len(entries)-o.limit; i++ {
		batch.Delete(entries[i].key)
	}
	return o.store.db.Write(batch, nil)
}

// List returns queued entries oldest first.
func (o *Outbox) List() ([]OutboxEntry, error) {
	o.store.Lock()
	defer o.store.Unlock()

	entries, err := o.store.entries(outboxPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]OutboxEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, OutboxEntry{Key: string(e.key), Record: e.rec})
	}
	return out, nil
}

func (o *Outbox) Remove(key string) error {
	o.store.Lock()
	defer o.store.Unlock()
	return o.store.db.Delete([]byte(key), nil)
}

func (o *Outbox) Len() (int, error) {
	o.store.Lock()
	defer o.store.Unlock()

	entries, err := o.store.entries(outboxPrefix)
	return len(entries), err
}
