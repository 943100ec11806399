// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/danielhkuo/tvorozhniki/models"
)

var testTime = time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

func testRecord(id, fp string) models.VoteRecord {
	return models.VoteRecord{
		ID:          id,
		Choice:      models.ChoiceTvorozhniki,
		Name:        "Ann",
		City:        "Moscow",
		Fingerprint: fp,
		Timestamp:   testTime,
	}
}

func openTestState(t *testing.T) *State {
	t.Helper()
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// failingBackend refuses every operation.
type failingBackend struct {
	marks int
}

var errBroken = errors.New("storage disabled")

func (f *failingBackend) Name() string                       { return "broken" }
func (f *failingBackend) Has(string) (bool, error)           { return false, errBroken }
func (f *failingBackend) List() ([]models.VoteRecord, error) { return nil, errBroken }
func (f *failingBackend) Reset() error                       { return errBroken }
func (f *failingBackend) Mark(models.VoteRecord) error {
	f.marks++
	return errBroken
}

func TestHasVotedFresh(t *testing.T) {
	st := openTestState(t)

	status := st.Ledger.HasVoted("f1")
	if status.Voted {
		t.Error("HasVoted() on empty ledger = true")
	}
	if status.LastRecord != nil {
		t.Errorf("LastRecord = %+v, want nil", status.LastRecord)
	}
	want := map[string]bool{"durable": false, "session": false, "fingerprint": false, "store": false}
	if diff := cmp.Diff(want, status.Signals); diff != "" {
		t.Errorf("Signals mismatch (-want +got):\n%s", diff)
	}
}

func TestHasVotedIdempotent(t *testing.T) {
	st := openTestState(t)
	if err := st.Ledger.Mark(testRecord("local-1", "f1")); err != nil {
		t.Fatalf("Mark() error = %v", err)
	}

	first := st.Ledger.HasVoted("f1")
	second := st.Ledger.HasVoted("f1")
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("HasVoted() not idempotent (-first +second):\n%s", diff)
	}
}

func TestMarkSetsAllSignals(t *testing.T) {
	st := openTestState(t)
	rec := testRecord("local-1", "f1")

	if err := st.Ledger.Mark(rec); err != nil {
		t.Fatalf("Mark() error = %v", err)
	}

	status := st.Ledger.HasVoted("f1")
	if !status.Voted {
		t.Fatal("HasVoted() after Mark = false")
	}
	for name, signal := range status.Signals {
		if !signal {
			t.Errorf("signal %q = false after Mark", name)
		}
	}
	if status.LastRecord == nil {
		t.Fatal("LastRecord = nil after Mark")
	}
	if diff := cmp.Diff(rec, *status.LastRecord); diff != "" {
		t.Errorf("LastRecord mismatch (-want +got):\n%s", diff)
	}
}

func TestHasVotedOtherFingerprint(t *testing.T) {
	st := openTestState(t)
	if err := st.Ledger.Mark(testRecord("local-1", "f1")); err != nil {
		t.Fatalf("Mark() error = %v", err)
	}

	// Flags are per client, so a new fingerprint still reads as voted.
	status := st.Ledger.HasVoted("f2")
	if !status.Voted {
		t.Error("HasVoted(f2) = false, want true from the flags")
	}
	if status.Signals["fingerprint"] || status.Signals["store"] {
		t.Errorf("fingerprint-keyed signals = %v, want false for f2", status.Signals)
	}
	if !status.Signals["durable"] || !status.Signals["session"] {
		t.Errorf("flag signals = %v, want true", status.Signals)
	}
}

func TestMarkContinuesPastFailures(t *testing.T) {
	broken := &failingBackend{}
	session := NewSessionFlag()
	set := NewFingerprintSet(filepath.Join(t.TempDir(), FingerprintFileName))
	l := New(broken, session, set)

	err := l.Mark(testRecord("local-1", "f1"))
	if !errors.Is(err, errBroken) {
		t.Errorf("Mark() error = %v, want %v", err, errBroken)
	}
	if broken.marks != 1 {
		t.Errorf("broken backend marks = %d, want 1", broken.marks)
	}

	status := l.HasVoted("f1")
	if !status.Voted {
		t.Error("HasVoted() = false, want true from working backends")
	}
	if status.Signals["broken"] {
		t.Error("failing backend reported a positive signal")
	}
	if !status.Signals["session"] || !status.Signals["fingerprint"] {
		t.Errorf("Signals = %v, want session and fingerprint set", status.Signals)
	}
}

func TestFingerprintSetRejectsEmpty(t *testing.T) {
	set := NewFingerprintSet(filepath.Join(t.TempDir(), FingerprintFileName))
	if err := set.Mark(testRecord("local-1", "")); err == nil {
		t.Error("Mark() with empty fingerprint error = nil")
	}
}

func TestFingerprintSetCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FingerprintFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	set := NewFingerprintSet(path)

	if _, err := set.Has("f1"); err == nil {
		t.Error("Has() on corrupt file error = nil")
	}
	if err := set.Mark(testRecord("local-1", "f1")); err != nil {
		t.Fatalf("Mark() over corrupt file error = %v", err)
	}
	fps, err := set.Fingerprints()
	if err != nil {
		t.Fatalf("Fingerprints() error = %v", err)
	}
	if diff := cmp.Diff([]string{"f1"}, fps); diff != "" {
		t.Errorf("Fingerprints() mismatch (-want +got):\n%s", diff)
	}
}

func TestFlagFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), FlagFileName)
	rec := testRecord("42", "f1")
	rec.Authoritative = true

	if err := NewFlagFile(path).Mark(rec); err != nil {
		t.Fatalf("Mark() error = %v", err)
	}

	reopened := NewFlagFile(path)
	recs, err := reopened.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if diff := cmp.Diff([]models.VoteRecord{rec}, recs); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}

	if err := reopened.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if has, _ := reopened.Has(""); has {
		t.Error("Has() after Reset = true")
	}
}

func TestStoreEvictsOldest(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), StoreDirName), 3)
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	defer store.Close()

	for i, fp := range []string{"f1", "f2", "f3", "f4"} {
		rec := testRecord("local-"+fp, fp)
		rec.Timestamp = testTime.Add(time.Duration(i) * time.Minute)
		if err := store.Mark(rec); err != nil {
			t.Fatalf("Mark(%s) error = %v", fp, err)
		}
	}

	recs, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var got []string
	for _, r := range recs {
		got = append(got, r.Fingerprint)
	}
	if diff := cmp.Diff([]string{"f2", "f3", "f4"}, got); diff != "" {
		t.Errorf("stored fingerprints mismatch (-want +got):\n%s", diff)
	}
	if has, _ := store.Has("f1"); has {
		t.Error("evicted fingerprint still present")
	}
}

func TestStoreSkipsKnownFingerprint(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), StoreDirName), 0)
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	defer store.Close()

	first := testRecord("local-1", "f1")
	second := testRecord("local-2", "f1")
	second.Timestamp = testTime.Add(time.Hour)

	for _, rec := range []models.VoteRecord{first, second} {
		if err := store.Mark(rec); err != nil {
			t.Fatalf("Mark() error = %v", err)
		}
	}

	recs, _ := store.List()
	if len(recs) != 1 || recs[0].ID != "local-1" {
		t.Errorf("List() = %+v, want only the first record", recs)
	}
}

func TestOutboxBounded(t *testing.T) {
	st := openTestState(t)
	ob := NewOutbox(st.store, 2)

	for i, id := range []string{"local-a", "local-b", "local-c"} {
		rec := testRecord(id, "f"+id)
		rec.Timestamp = testTime.Add(time.Duration(i) * time.Second)
		if err := ob.Enqueue(rec); err != nil {
			t.Fatalf("Enqueue(%s) error = %v", id, err)
		}
	}

	entries, err := ob.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var ids []string
	for _, e := range entries {
		ids = append(ids, e.Record.ID)
	}
	if diff := cmp.Diff([]string{"local-b", "local-c"}, ids); diff != "" {
		t.Errorf("outbox ids mismatch (-want +got):\n%s", diff)
	}

	if err := ob.Remove(entries[0].Key); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if n, _ := ob.Len(); n != 1 {
		t.Errorf("Len() = %d, want 1", n)
	}

	// Outbox entries never count as stored votes.
	if recs, _ := st.store.List(); len(recs) != 0 {
		t.Errorf("store List() = %d records, want 0", len(recs))
	}
}

func TestResetClearsEverything(t *testing.T) {
	st := openTestState(t)
	rec := testRecord("local-1", "f1")
	if err := st.Ledger.Mark(rec); err != nil {
		t.Fatalf("Mark() error = %v", err)
	}
	if err := st.Outbox.Enqueue(rec); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	if err := st.Ledger.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	if st.Ledger.HasVoted("f1").Voted {
		t.Error("HasVoted() after Reset = true")
	}
	if n, _ := st.Outbox.Len(); n != 0 {
		t.Errorf("outbox Len() after Reset = %d, want 0", n)
	}
	if recs := st.Ledger.Records(); len(recs) != 0 {
		t.Errorf("Records() after Reset = %d, want 0", len(recs))
	}
}

func TestRecordCodecRoundTrip(t *testing.T) {
	rec := testRecord("17", "f1")
	rec.Authoritative = true
	rec.Email = "a@b.co"

	b, err := encodeRecord(rec)
	if err != nil {
		t.Fatalf("encodeRecord() error = %v", err)
	}
	got, err := decodeRecord(b)
	if err != nil {
		t.Fatalf("decodeRecord() error = %v", err)
	}
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	if _, err := decodeRecord([]byte{0x91, 0x01}); err == nil {
		t.Error("decodeRecord() on short array error = nil")
	}
}
