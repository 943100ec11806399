// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"time"
)

// Choice is one of the two campaign options.
type Choice string

// Choice constants
const (
	ChoiceTvorozhniki Choice = "tvorozhniki"
	ChoiceSyrniki     Choice = "syrniki"
)

// Choices lists every valid choice in display order.
var Choices = []Choice{ChoiceTvorozhniki, ChoiceSyrniki}

// Valid reports whether c is a known option.
func (c Choice) Valid() bool {
	switch c {
	case ChoiceTvorozhniki, ChoiceSyrniki:
		return true
	}
	return false
}

// ErrDuplicateVote is returned by vote stores when the fingerprint was already seen.
var ErrDuplicateVote = errors.New("vote already recorded for this fingerprint")

// Request types

type CreateVoteRequest struct {
	Choice      Choice `json:"choice"`
	Name        string `json:"name"`
	City        string `json:"city"`
	Email       string `json:"email,omitempty"`
	Fingerprint string `json:"fingerprint"`
}

// Response types

type CreateVoteResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type RootResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Domain types

// VoteRecord is the unit of truth. Values are never edited in place.
//
// ID is the aggregator's id when Authoritative is set; otherwise it is a
// provisional local id that is never sent upstream.
type VoteRecord struct {
	ID            string    `json:"id"`
	Authoritative bool      `json:"authoritative"`
	Choice        Choice    `json:"choice"`
	Name          string    `json:"name"`
	City          string    `json:"city"`
	Email         string    `json:"email,omitempty"`
	Fingerprint   string    `json:"fingerprint"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewVote is what a store persists; the store assigns the id.
type NewVote struct {
	Choice      Choice
	Name        string
	City        string
	Email       string
	Fingerprint string
	Timestamp   time.Time
}

// Statistics types

type CityStats struct {
	City        string `json:"city"`
	Votes       int    `json:"votes"`
	Tvorozhniki int    `json:"tvorozhniki"`
	Syrniki     int    `json:"syrniki"`
}

type RecentVote struct {
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Choice    Choice    `json:"choice"`
	Timestamp time.Time `json:"timestamp"`
	TimeAgo   string    `json:"timeAgo"`
}

// Stats is the aggregate view shared by the server and the local fallback.
// The JSON keys match what the campaign page has always consumed.
type Stats struct {
	TotalVotes       int          `json:"totalVotes"`
	TvorozhnikiVotes int          `json:"tvorozhnikisVotes"`
	SyrnikiVotes     int          `json:"syrnikisVotes"`
	TopCities        []CityStats  `json:"topCities"`
	RecentVotes      []RecentVote `json:"recentVotes"`
}

// CountByChoice returns the per-option totals.
func (s Stats) CountByChoice() map[Choice]int {
	return map[Choice]int{
		ChoiceTvorozhniki: s.TvorozhnikiVotes,
		ChoiceSyrniki:     s.SyrnikiVotes,
	}
}

// Error response

type ErrorResponse struct {
	Error string `json:"error"`
}
