// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/danielhkuo/tvorozhniki/models"
)

// recordModel is the on-disk form of a VoteRecord in the embedded store.
type recordModel struct {
	ID            string
	Authoritative bool
	Choice        string
	Name          string
	City          string
	Email         string
	Fingerprint   string
	Timestamp     int64 // unix nanoseconds, 0 when unset
}

const recordModelFields = 8

func newRecordModel(rec models.VoteRecord) *recordModel {
	m := &recordModel{
		ID:            rec.ID,
		Authoritative: rec.Authoritative,
		Choice:        string(rec.Choice),
		Name:          rec.Name,
		City:          rec.City,
		Email:         rec.Email,
		Fingerprint:   rec.Fingerprint,
	}
	if !rec.Timestamp.IsZero() {
		m.Timestamp = rec.Timestamp.UnixNano()
	}
	return m
}

func (m *recordModel) toRecord() models.VoteRecord {
	rec := models.VoteRecord{
		ID:            m.ID,
		Authoritative: m.Authoritative,
		Choice:        models.Choice(m.Choice),
		Name:          m.Name,
		City:          m.City,
		Email:         m.Email,
		Fingerprint:   m.Fingerprint,
	}
	if m.Timestamp != 0 {
		rec.Timestamp = time.Unix(0, m.Timestamp).UTC()
	}
	return rec
}

func (m *recordModel) EncodeMsgpack(e *msgpack.Encoder) error {
	if err := e.EncodeArrayLen(recordModelFields); err != nil {
		return err
	}
	if err := e.EncodeString(m.ID); err != nil {
		return err
	}
	if err := e.EncodeBool(m.Authoritative); err != nil {
		return err
	}
	for _, s := range []string{m.Choice, m.Name, m.City, m.Email, m.Fingerprint} {
		if err := e.EncodeString(s); err != nil {
			return err
		}
	}
	return e.EncodeInt(m.Timestamp)
}

func (m *recordModel) DecodeMsgpack(d *msgpack.Decoder) error {
	var err error
	var l int
	if l, err = d.DecodeArrayLen(); err != nil {
		return err
	}
	if l != recordModelFields {
		return fmt.Errorf("array len doesn't match: %d", l)
	}
	if m.ID, err = d.DecodeString(); err != nil {
		return err
	}
	if m.Authoritative, err = d.DecodeBool(); err != nil {
		return err
	}
	for _, dst := range []*string{&m.Choice, &m.Name, &m.City, &m.Email, &m.Fingerprint} {
		if *dst, err = d.DecodeString(); err != nil {
			return err
		}
	}
	if m.Timestamp, err = d.DecodeInt64(); err != nil {
		return err
	}
	return nil
}

func encodeRecord(rec models.VoteRecord) ([]byte, error) {
	return msgpack.Marshal(newRecordModel(rec))
}

func decodeRecord(b []byte) (models.VoteRecord, error) {
	var m recordModel
	if err := msgpack.Unmarshal(b, &m); err != nil {
		return models.VoteRecord{}, err
	}
	return m.toRecord(), nil
}
