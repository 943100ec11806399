// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/tvorozhniki/models"
	"github.com/danielhkuo/tvorozhniki/tally"
)

// VoteStore keeps votes in a SQL database. The same queries run on
// PostgreSQL and SQLite.
type VoteStore struct {
	db *sql.DB
}

func NewVoteStore(db *sql.DB) *VoteStore {
	return &VoteStore{db: db}
}

// CreateVote inserts v unless a vote with the same fingerprint exists, in
// which case models.ErrDuplicateVote is returned.
func (s *VoteStore) CreateVote(ctx context.Context, v models.NewVote) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM votes WHERE fingerprint = $1 LIMIT 1
	`, v.Fingerprint).Scan(&existing)
	if err == nil {
		return 0, models.ErrDuplicateVote
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to check fingerprint: %w", err)
	}

	ts := v.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	email := sql.NullString{String: v.Email, Valid: v.Email != ""}

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO votes (choice, name, city, city_key, email, fingerprint, "timestamp")
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, string(v.Choice), v.Name, v.City, tally.CityKey(v.City), email, v.Fingerprint, ts.UTC()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert vote: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit vote: %w", err)
	}
	return id, nil
}

// GetStats returns totals, the busiest cities and the newest votes. TimeAgo
// is left empty.
func (s *VoteStore) GetStats(ctx context.Context, limits tally.Limits) (models.Stats, error) {
	stats := models.Stats{
		TopCities:   []models.CityStats{},
		RecentVotes: []models.RecentVote{},
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN choice = $1 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN choice = $2 THEN 1 ELSE 0 END), 0)
		FROM votes
	`, string(models.ChoiceTvorozhniki), string(models.ChoiceSyrniki)).Scan(
		&stats.TotalVotes, &stats.TvorozhnikiVotes, &stats.SyrnikiVotes,
	)
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to count votes: %w", err)
	}

	cities, err := s.topCities(ctx, limits.TopCities)
	if err != nil {
		return models.Stats{}, err
	}
	stats.TopCities = cities

	recent, err := s.GetRecent(ctx, limits.RecentVotes)
	if err != nil {
		return models.Stats{}, err
	}
	stats.RecentVotes = recent

	return stats, nil
}

// topCities groups by the normalized city; the label is the city as first
// submitted.
func (s *VoteStore) topCities(ctx context.Context, limit int) ([]models.CityStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT (SELECT f.city FROM votes f WHERE f.city_key = v.city_key ORDER BY f.id LIMIT 1),
		       COUNT(*),
		       SUM(CASE WHEN v.choice = $1 THEN 1 ELSE 0 END),
		       SUM(CASE WHEN v.choice = $2 THEN 1 ELSE 0 END)
		FROM votes v
		GROUP BY v.city_key
		ORDER BY COUNT(*) DESC, MIN(v.id)
		LIMIT $3
	`, string(models.ChoiceTvorozhniki), string(models.ChoiceSyrniki), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cities: %w", err)
	}
	defer rows.Close()

	cities := []models.CityStats{}
	for rows.Next() {
		var c models.CityStats
		if err := rows.Scan(&c.City, &c.Votes, &c.Tvorozhniki, &c.Syrniki); err != nil {
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		c.City = strings.TrimSpace(c.City)
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cities: %w", err)
	}
	return cities, nil
}

// GetRecent returns up to limit votes, newest first. TimeAgo is left empty.
func (s *VoteStore) GetRecent(ctx context.Context, limit int) ([]models.RecentVote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, city, choice, "timestamp"
		FROM votes
		ORDER BY "timestamp" DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent votes: %w", err)
	}
	defer rows.Close()

	recent := []models.RecentVote{}
	for rows.Next() {
		var rv models.RecentVote
		var choice string
		if err := rows.Scan(&rv.Name, &rv.City, &choice, &rv.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		rv.Choice = models.Choice(choice)
		rv.Timestamp = rv.Timestamp.UTC()
		recent = append(recent, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recent votes: %w", err)
	}
	return recent, nil
}
