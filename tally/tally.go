// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/danielhkuo/tvorozhniki/models"
)

// Limits bounds the list sections of a Stats value.
type Limits struct {
	TopCities   int
	RecentVotes int
}

// ServerLimits are the limits the aggregator answers with.
var ServerLimits = Limits{TopCities: 10, RecentVotes: 10}

// LocalLimits are used when statistics are computed on the client.
var LocalLimits = Limits{TopCities: 5, RecentVotes: 10}

// CityKey normalizes a city name for grouping.
func CityKey(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// Dedupe keeps the first record seen for each fingerprint. An empty
// fingerprint is a key like any other.
func Dedupe(records []models.VoteRecord) []models.VoteRecord {
	seen := make(map[string]bool, len(records))
	out := make([]models.VoteRecord, 0, len(records))
	for _, r := range records {
		if seen[r.Fingerprint] {
			continue
		}
		seen[r.Fingerprint] = true
		out = append(out, r)
	}
	return out
}

// Compute aggregates records into a Stats value.
func Compute(records []models.VoteRecord, now time.Time, limits Limits) models.Stats {
	votes := Dedupe(records)

	stats := models.Stats{
		TopCities:   []models.CityStats{},
		RecentVotes: []models.RecentVote{},
	}

	cities := make(map[string]int) // key -> index into order
	var order []models.CityStats

	for _, v := range votes {
		stats.TotalVotes++
		switch v.Choice {
		case models.ChoiceTvorozhniki:
			stats.TvorozhnikiVotes++
		case models.ChoiceSyrniki:
			stats.SyrnikiVotes++
		}

		key := CityKey(v.City)
		if key == "" {
			continue
		}
		idx, ok := cities[key]
		if !ok {
			idx = len(order)
			cities[key] = idx
			order = append(order, models.CityStats{City: strings.TrimSpace(v.City)})
		}
		order[idx].Votes++
		switch v.Choice {
		case models.ChoiceTvorozhniki:
			order[idx].Tvorozhniki++
		case models.ChoiceSyrniki:
			order[idx].Syrniki++
		}
	}

	// Stable sort keeps first-seen order for equal counts
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Votes > order[j].Votes
	})
	if len(order) > limits.TopCities {
		order = order[:limits.TopCities]
	}
	stats.TopCities = append(stats.TopCities, order...)

	recent := make([]models.VoteRecord, 0, len(votes))
	for _, v := range votes {
		if !v.Timestamp.IsZero() {
			recent = append(recent, v)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp)
	})
	if len(recent) > limits.RecentVotes {
		recent = recent[:limits.RecentVotes]
	}
	for _, v := range recent {
		stats.RecentVotes = append(stats.RecentVotes, models.RecentVote{
			Name:      v.Name,
			City:      v.City,
			Choice:    v.Choice,
			Timestamp: v.Timestamp,
			TimeAgo:   TimeAgo(v.Timestamp, now),
		})
	}

	return stats
}

// TimeAgo renders the elapsed time between t and now as a short label.
func TimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return "recently"
	}

	diff := now.Sub(t)
	minutes := int(diff / time.Minute)
	hours := int(diff / time.Hour)
	days := int(diff / (24 * time.Hour))

	switch {
	case minutes < 1:
		return "just now"
	case minutes < 60:
		return fmt.Sprintf("%d min ago", minutes)
	case hours < 24:
		return fmt.Sprintf("%d h ago", hours)
	case days == 1:
		return "yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	}
	return t.In(now.Location()).Format("2 Jan")
}
