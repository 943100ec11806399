// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP handlers of the vote aggregator.

VoteHandler wraps a VoteStore, which is implemented by db.VoteStore (PostgreSQL
or SQLite) and ttstore.VoteStore (Tarantool):

	h := handlers.NewVoteHandler(store, metrics)

	POST /api/votes        → CreateVote
	GET  /api/votes/stats  → GetStats
	GET  /api/votes/recent → GetRecent
	GET  /                 → Root

# Responses

CreateVote answers 201 with {id, message}. Failures use {"error": "..."}:

  - 400 for invalid JSON, a missing field or an unknown choice
  - 409 when the fingerprint has already voted
  - 500 when the store fails

Stores leave RecentVote.TimeAgo empty; the handlers fill it relative to the
server clock.
*/
package handlers
