// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the ТВОРОЖНИКИ.РФ vote aggregator.

The campaign asks one question, tvorozhniki or syrniki, and the aggregator
keeps one vote per client fingerprint. The voting client lives in
cmd/votectl.

# Starting the Server

With no configuration the server stores votes in ./votes.db:

	go run .

Or with flags:

	go run . -p 3000 -t postgres -d "postgres://..."
	TT_USER=votes TT_PASSWORD=... go run . -t tarantool -d 127.0.0.1:3301

A .env file in the working directory is loaded first.

# Configuration

  - PORT (-p): Server port (default: 3000)
  - DATABASE_TYPE (-t): sqlite, postgres or tarantool (default: sqlite)
  - DATABASE_URL (-d): SQLite path, PostgreSQL URL or Tarantool address
  - TT_USER, TT_PASSWORD: Tarantool credentials

# Architecture

  - handlers: vote, statistics and root handlers over a VoteStore
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - db: SQL VoteStore (PostgreSQL, SQLite)
  - ttstore: Tarantool VoteStore
  - metrics: Prometheus counters served on /metrics
  - cliparse: Configuration parsing

Client side packages:

  - fingerprint, auth: client identifier and verification codes
  - ledger: local record of votes cast from this client
  - remote: HTTP client for the aggregator
  - tracker: vote recording, email verification, statistics and retries
  - mailer: verification mail
  - tally: statistics shared by the local fallback and the Tarantool store

See package documentation for each component.
*/
package main
