// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/danielhkuo/tvorozhniki/models"
)

// FlagFile is the durable "voted" flag. It holds the last recorded vote.
type FlagFile struct {
	mu   sync.Mutex
	path string
}

func NewFlagFile(path string) *FlagFile {
	return &FlagFile{path: path}
}

func (f *FlagFile) Name() string { return "durable" }

func (f *FlagFile) Has(string) (bool, error) {
	rec, err := f.read()
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

func (f *FlagFile) Mark(rec models.VoteRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return writeJSONFile(f.path, rec)
}

func (f *FlagFile) List() ([]models.VoteRecord, error) {
	rec, err := f.read()
	if err != nil || rec == nil {
		return nil, err
	}
	return []models.VoteRecord{*rec}, nil
}

func (f *FlagFile) Reset() error {
	return removeFile(f.path)
}

func (f *FlagFile) read() (*models.VoteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var rec models.VoteRecord
	ok, err := readJSONFile(f.path, &rec)
	if err != nil || !ok {
		return nil, err
	}
	return &rec, nil
}

// FingerprintSet is the durable set of fingerprints that have voted here.
type FingerprintSet struct {
	mu   sync.Mutex
	path string
}

func NewFingerprintSet(path string) *FingerprintSet {
	return &FingerprintSet{path: path}
}

func (s *FingerprintSet) Name() string { return "fingerprint" }

func (s *FingerprintSet) Has(fingerprint string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.load()
	if err != nil {
		return false, err
	}
	return slices.Contains(set, fingerprint), nil
}

func (s *FingerprintSet) Mark(rec models.VoteRecord) error {
	if rec.Fingerprint == "" {
		return errors.New("record has no fingerprint")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.load()
	if err != nil {
		// A corrupt set is replaced rather than blocking new marks
		set = nil
	}
	if slices.Contains(set, rec.Fingerprint) {
		return nil
	}
	return writeJSONFile(s.path, append(set, rec.Fingerprint))
}

// List returns nothing: the set holds no vote content.
func (s *FingerprintSet) List() ([]models.VoteRecord, error) {
	return nil, nil
}

func (s *FingerprintSet) Reset() error {
	return removeFile(s.path)
}

// Fingerprints returns the stored set.
func (s *FingerprintSet) Fingerprints() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FingerprintSet) load() ([]string, error) {
	var set []string
	if _, err := readJSONFile(s.path, &set); err != nil {
		return nil, err
	}
	return set, nil
}

// JSONFile is a JSON document that is replaced whole on every write.
type JSONFile string

func (f JSONFile) Read(v any) (bool, error) { return readJSONFile(string(f), v) }
func (f JSONFile) Write(v any) error       { return writeJSONFile(string(f), v) }
func (f JSONFile) Remove() error           { return removeFile(string(f)) }

// readJSONFile decodes path into v. A missing file is not an error; ok
// reports whether anything was read.
func readJSONFile(path string, v any) (ok bool, err error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

// writeJSONFile replaces path atomically.
func writeJSONFile(path string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func removeFile(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
