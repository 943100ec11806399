// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// Dialect names a supported SQL engine. The values double as database/sql
// driver names.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect accepts the DATABASE_TYPE spellings.
func ParseDialect(s string) (Dialect, error) {
	switch s {
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "sqlite", "sqlite3", "":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported database type %q", s)
}

// CreateSchema creates the votes table and its indexes.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, d Dialect) error {
	schema := sqliteSchema
	if d == Postgres {
		schema = postgresSchema
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS votes (
    id BIGSERIAL PRIMARY KEY,
    choice TEXT NOT NULL CHECK (choice IN ('tvorozhniki', 'syrniki')),
    name TEXT NOT NULL,
    city TEXT NOT NULL,
    city_key TEXT NOT NULL,
    email TEXT,
    fingerprint TEXT NOT NULL,
    "timestamp" TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_fingerprint ON votes(fingerprint);
CREATE INDEX IF NOT EXISTS idx_timestamp ON votes("timestamp" DESC);
CREATE INDEX IF NOT EXISTS idx_city_key ON votes(city_key);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS votes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    choice TEXT NOT NULL CHECK (choice IN ('tvorozhniki', 'syrniki')),
    name TEXT NOT NULL,
    city TEXT NOT NULL,
    city_key TEXT NOT NULL,
    email TEXT,
    fingerprint TEXT NOT NULL,
    "timestamp" TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_fingerprint ON votes(fingerprint);
CREATE INDEX IF NOT EXISTS idx_timestamp ON votes("timestamp" DESC);
CREATE INDEX IF NOT EXISTS idx_city_key ON votes(city_key);
`
