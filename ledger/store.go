// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/danielhkuo/tvorozhniki/models"
)

const (
	votePrefix   = "vote/"
	outboxPrefix = "outbox/"

	// DefaultStoreLimit bounds the embedded vote store; oldest votes go first.
	DefaultStoreLimit = 1000

	// DefaultOutboxLimit bounds the retry queue; oldest entries go first.
	DefaultOutboxLimit = 100
)

// Store is the embedded per-client vote store backed by leveldb. All calls
// are serialized.
type Store struct {
	sync.Mutex
	db    *leveldb.DB
	limit int
}

// OpenStore opens (or creates) the leveldb database at path.
func OpenStore(path string, limit int) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open vote store: %w", err)
	}
	if limit <= 0 {
		limit = DefaultStoreLimit
	}
	return &Store{db: db, limit: limit}, nil
}

func (s *Store) Close() error {
	s.Lock()
	defer s.Unlock()
	return s.db.Close()
}

func (s *Store) Name() string { return "store" }

func (s *Store) Has(fingerprint string) (bool, error) {
	recs, err := s.List()
	if err != nil {
		return false, err
	}
	for _, r := range recs {
		if r.Fingerprint == fingerprint {
			return true, nil
		}
	}
	return false, nil
}

// Mark appends rec. A record whose fingerprint is already stored is skipped.
func (s *Store) Mark(rec models.VoteRecord) error {
	s.Lock()
	defer s.Unlock()

	entries, err := s.entries(votePrefix)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if rec.Fingerprint != "" && e.rec.Fingerprint == rec.Fingerprint {
			return nil
		}
	}

	b, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	batch.Put(entryKey(votePrefix, rec.Timestamp, rec.ID), b)
	for i := 0; i <= len(entries)-s.limit; i++ {
		batch.Delete(entries[i].key)
	}
	return s.db.Write(batch, nil)
}

// List returns stored votes oldest first.
func (s *Store) List() ([]models.VoteRecord, error) {
	s.Lock()
	defer s.Unlock()

	entries, err := s.entries(votePrefix)
	if err != nil {
		return nil, err
	}
	out := make([]models.VoteRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.rec)
	}
	return out, nil
}

// Reset removes every vote and outbox entry.
func (s *Store) Reset() error {
	s.Lock()
	defer s.Unlock()

	batch := new(leveldb.Batch)
	for _, prefix := range []string{votePrefix, outboxPrefix} {
		iter := s.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
		for iter.Next() {
			batch.Delete(append([]byte(nil), iter.Key()...))
		}
		iter.Release()
		if err := iter.Error(); err != nil {
			return err
		}
	}
	return s.db.Write(batch, nil)
}

type entry struct {
	key []byte
	rec models.VoteRecord
}

// entries reads every record under prefix in key order. Undecodable values
// are skipped. Callers hold the lock.
func (s *Store) entries(prefix string) ([]entry, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()

	var out []entry
	for iter.Next() {
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			slog.Warn("skipping undecodable record", "key", string(iter.Key()), "error", err)
			continue
		}
		out = append(out, entry{
			key: append([]byte(nil), iter.Key()...),
			rec: rec,
		})
	}
	return out, iter.Error()
}

// entryKey orders entries chronologically; the id keeps equal times apart.
func entryKey(prefix string, t time.Time, id string) []byte {
	var ns int64
	if !t.IsZero() {
		ns = t.UnixNano()
	}
	return []byte(fmt.Sprintf("%s%020d/%s", prefix, ns, id))
}
