// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ttstore

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/danielhkuo/tvorozhniki/models"
	"github.com/danielhkuo/tvorozhniki/tally"
)

const voteModelFields = 8

// voteModel is one tuple of the votes space:
// [id, choice, name, city, city_key, email, fingerprint, timestamp].
// A zero ID is sent as nil so the space sequence assigns one.
type voteModel struct {
	ID          uint64
	Choice      string
	Name        string
	City        string
	CityKey     string
	Email       string
	Fingerprint string
	Timestamp   int64 // unix nanoseconds, UTC
}

func newVoteModel(v models.NewVote) *voteModel {
	return &voteModel{
		Choice:      string(v.Choice),
		Name:        v.Name,
		City:        v.City,
		CityKey:     tally.CityKey(v.City),
		Email:       v.Email,
		Fingerprint: v.Fingerprint,
		Timestamp:   v.Timestamp.UTC().UnixNano(),
	}
}

func (m *voteModel) time() time.Time {
	return time.Unix(0, m.Timestamp).UTC()
}

func (m *voteModel) toRecord() models.VoteRecord {
	return models.VoteRecord{
		ID:            fmt.Sprint(m.ID),
		Authoritative: true,
		Choice:        models.Choice(m.Choice),
		Name:          m.Name,
		City:          m.City,
		Email:         m.Email,
		Fingerprint:   m.Fingerprint,
		Timestamp:     m.time(),
	}
}

func (m *voteModel) toRecent() models.RecentVote {
	return models.RecentVote{
		Name:      m.Name,
		City:      m.City,
		Choice:    models.Choice(m.Choice),
		Timestamp: m.time(),
	}
}

func (m *voteModel) EncodeMsgpack(e *msgpack.Encoder) error {
	if err := e.EncodeArrayLen(voteModelFields); err != nil {
		return err
	}
	if m.ID == 0 {
		if err := e.EncodeNil(); err != nil {
			return err
		}
	} else if err := e.EncodeUint(m.ID); err != nil {
		return err
	}
	for _, s := range []string{m.Choice, m.Name, m.City, m.CityKey, m.Email, m.Fingerprint} {
		if err := e.EncodeString(s); err != nil {
			return err
		}
	}
	return e.EncodeInt(m.Timestamp)
}

func (m *voteModel) DecodeMsgpack(d *msgpack.Decoder) error {
	var err error
	var l int
	if l, err = d.DecodeArrayLen(); err != nil {
		return err
	}
	if l != voteModelFields {
		return fmt.Errorf("array len doesn't match: %d", l)
	}
	if m.ID, err = d.DecodeUint64(); err != nil {
		return err
	}
	for _, s := range []*string{&m.Choice, &m.Name, &m.City, &m.CityKey, &m.Email, &m.Fingerprint} {
		if *s, err = d.DecodeString(); err != nil {
			return err
		}
	}
	if m.Timestamp, err = d.DecodeInt64(); err != nil {
		return err
	}
	return nil
}
