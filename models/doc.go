// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types shared by the
server and the client.

# Request Types

  - CreateVoteRequest: choice, name, city, email (optional), fingerprint

# Response Types

  - CreateVoteResponse: id, message
  - RootResponse: message, timestamp
  - Stats: totalVotes, per-choice totals, topCities, recentVotes
  - ErrorResponse: error

# Domain Types

  - VoteRecord: an immutable vote, authoritative or provisional
  - NewVote: the storable subset of a vote
  - CityStats, RecentVote: statistics rows

# Constants

Choices:

	ChoiceTvorozhniki = "tvorozhniki"
	ChoiceSyrniki     = "syrniki"
*/
package models
