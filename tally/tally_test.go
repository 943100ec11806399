// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/danielhkuo/tvorozhniki/models"
)

var now = time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

func vote(fp string, choice models.Choice, city string, ago time.Duration) models.VoteRecord {
	return models.VoteRecord{
		ID:          "local-" + fp,
		Choice:      choice,
		Name:        "Voter " + fp,
		City:        city,
		Fingerprint: fp,
		Timestamp:   now.Add(-ago),
	}
}

func TestComputeDedupesByFingerprint(t *testing.T) {
	records := []models.VoteRecord{
		vote("f1", models.ChoiceTvorozhniki, "Moscow", time.Minute),
		vote("f1", models.ChoiceTvorozhniki, "Moscow", time.Hour),
	}

	stats := Compute(records, now, LocalLimits)
	if stats.TotalVotes != 1 {
		t.Errorf("TotalVotes = %d, want 1", stats.TotalVotes)
	}
	if len(stats.RecentVotes) != 1 {
		t.Errorf("len(RecentVotes) = %d, want 1", len(stats.RecentVotes))
	}
}

func TestComputeMergesMissingFingerprints(t *testing.T) {
	records := []models.VoteRecord{
		vote("", models.ChoiceSyrniki, "Kazan", time.Hour),
		vote("", models.ChoiceTvorozhniki, "Moscow", time.Minute),
	}

	stats := Compute(records, now, LocalLimits)
	if stats.TotalVotes != 1 || stats.SyrnikiVotes != 1 {
		t.Errorf("counts = %v, want one syrniki vote", stats.CountByChoice())
	}
}

func TestComputeFirstSeenWins(t *testing.T) {
	first := vote("f1", models.ChoiceSyrniki, "Kazan", time.Hour)
	second := vote("f1", models.ChoiceTvorozhniki, "Moscow", time.Minute)

	stats := Compute([]models.VoteRecord{first, second}, now, LocalLimits)
	if stats.SyrnikiVotes != 1 || stats.TvorozhnikiVotes != 0 {
		t.Errorf("counts = %v, want first record's choice to win", stats.CountByChoice())
	}
}

func TestComputeTwoDistinctVotes(t *testing.T) {
	records := []models.VoteRecord{
		vote("f1", models.ChoiceTvorozhniki, "Moscow", 2*time.Minute),
		vote("f2", models.ChoiceSyrniki, "Kazan", 30*time.Second),
	}

	got := Compute(records, now, LocalLimits)
	want := models.Stats{
		TotalVotes:       2,
		TvorozhnikiVotes: 1,
		SyrnikiVotes:     1,
		TopCities: []models.CityStats{
			{City: "Moscow", Votes: 1, Tvorozhniki: 1},
			{City: "Kazan", Votes: 1, Syrniki: 1},
		},
		RecentVotes: []models.RecentVote{
			{Name: "Voter f2", City: "Kazan", Choice: models.ChoiceSyrniki, Timestamp: now.Add(-30 * time.Second), TimeAgo: "just now"},
			{Name: "Voter f1", City: "Moscow", Choice: models.ChoiceTvorozhniki, Timestamp: now.Add(-2 * time.Minute), TimeAgo: "2 min ago"},
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Compute() mismatch (-want +got):\n%s", diff)
	}
	if c := got.CountByChoice(); c[models.ChoiceTvorozhniki] != 1 || c[models.ChoiceSyrniki] != 1 {
		t.Errorf("CountByChoice() = %v", c)
	}
}

func TestComputeCityGrouping(t *testing.T) {
	records := []models.VoteRecord{
		vote("a", models.ChoiceTvorozhniki, "Kazan", time.Minute),
		vote("b", models.ChoiceTvorozhniki, " moscow ", time.Minute),
		vote("c", models.ChoiceSyrniki, "Moscow", time.Minute),
		vote("d", models.ChoiceTvorozhniki, "MOSCOW", time.Minute),
		vote("e", models.ChoiceSyrniki, "Omsk", time.Minute),
	}

	stats := Compute(records, now, Limits{TopCities: 2, RecentVotes: 10})

	want := []models.CityStats{
		{City: "moscow", Votes: 3, Tvorozhniki: 2, Syrniki: 1},
		{City: "Kazan", Votes: 1, Tvorozhniki: 1},
	}
	if diff := cmp.Diff(want, stats.TopCities); diff != "" {
		t.Errorf("TopCities mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeRecentLimitAndOrder(t *testing.T) {
	var records []models.VoteRecord
	for i := 0; i < 15; i++ {
		fp := string(rune('a' + i))
		records = append(records, vote(fp, models.ChoiceSyrniki, "Tver", time.Duration(i)*time.Minute))
	}
	// Undated records are counted but never listed as recent
	records = append(records, models.VoteRecord{Fingerprint: "z", Choice: models.ChoiceSyrniki})

	stats := Compute(records, now, LocalLimits)
	if stats.TotalVotes != 16 {
		t.Errorf("TotalVotes = %d, want 16", stats.TotalVotes)
	}
	if len(stats.RecentVotes) != 10 {
		t.Fatalf("len(RecentVotes) = %d, want 10", len(stats.RecentVotes))
	}
	for i := 1; i < len(stats.RecentVotes); i++ {
		if stats.RecentVotes[i].Timestamp.After(stats.RecentVotes[i-1].Timestamp) {
			t.Errorf("RecentVotes not newest first at %d", i)
		}
	}
}

func TestComputeEmpty(t *testing.T) {
	stats := Compute(nil, now, ServerLimits)
	if stats.TotalVotes != 0 || stats.TopCities == nil || stats.RecentVotes == nil {
		t.Errorf("Compute(nil) = %+v, want zero totals and empty slices", stats)
	}
}

func TestTimeAgo(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, "recently"},
		{"seconds", now.Add(-59 * time.Second), "just now"},
		{"minutes", now.Add(-5 * time.Minute), "5 min ago"},
		{"hours", now.Add(-3 * time.Hour), "3 h ago"},
		{"one day", now.Add(-25 * time.Hour), "yesterday"},
		{"days", now.Add(-3 * 24 * time.Hour), "3 days ago"},
		{"calendar fallback", time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC), "1 Feb"},
		{"clock skew", now.Add(time.Minute), "just now"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimeAgo(tt.t, now); got != tt.want {
				t.Errorf("TimeAgo() = %q, want %q", got, tt.want)
			}
		})
	}
}
