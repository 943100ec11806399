// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db is the SQL vote store.

# Schema Creation

CreateSchema creates the votes table for the given dialect:

	if err := db.CreateSchema(conn, db.SQLite); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for the table and indexes.

# Table

	votes(id, choice, name, city, city_key, email, fingerprint, "timestamp")

city_key is the trimmed lower-cased city, computed in Go so grouping behaves
the same on PostgreSQL and SQLite. Indexes cover fingerprint, "timestamp" DESC
and city_key.

# Queries

VoteStore uses $N placeholders, which both lib/pq and modernc.org/sqlite
accept. CreateVote checks the fingerprint and inserts inside one transaction.
Two concurrent first votes from one fingerprint can still both land; the
table has no unique constraint on fingerprint.
*/
package db
