// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/tvorozhniki/db"
	"github.com/danielhkuo/tvorozhniki/metrics"
	"github.com/danielhkuo/tvorozhniki/models"
	"github.com/danielhkuo/tvorozhniki/tally"
	"github.com/danielhkuo/tvorozhniki/testutil"
	"github.com/prometheus/client_golang/prometheus/testutil/promlint"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// stubStore returns canned results and remembers what it was given.
type stubStore struct {
	created   []models.NewVote
	createErr error
	stats     models.Stats
	statsErr  error
	recent    []models.RecentVote
	recentErr error
	limits    tally.Limits
	limit     int
}

func (s *stubStore) CreateVote(_ context.Context, v models.NewVote) (int64, error) {
	if s.createErr != nil {
		return 0, s.createErr
	}
	s.created = append(s.created, v)
	return int64(len(s.created)), nil
}

func (s *stubStore) GetStats(_ context.Context, limits tally.Limits) (models.Stats, error) {
	s.limits = limits
	return s.stats, s.statsErr
}

func (s *stubStore) GetRecent(_ context.Context, limit int) ([]models.RecentVote, error) {
	s.limit = limit
	return s.recent, s.recentErr
}

func newTestHandler(store VoteStore) *VoteHandler {
	h := NewVoteHandler(store, nil)
	h.now = func() time.Time { return fixedNow }
	return h
}

func TestCreateVote(t *testing.T) {
	valid := map[string]string{
		"choice":      "tvorozhniki",
		"name":        "Anna",
		"city":        "Moscow",
		"fingerprint": "fp-1",
	}
	with := func(key, value string) map[string]string {
		m := map[string]string{}
		for k, v := range valid {
			m[k] = v
		}
		m[key] = value
		return m
	}

	tests := []struct {
		name       string
		body       string
		createErr  error
		wantStatus int
		wantError  string
	}{
		{"invalid JSON", `{not json`, nil, http.StatusBadRequest, "Invalid JSON"},
		{"missing name", "", nil, http.StatusBadRequest, "Missing required fields: choice, name, city, fingerprint"},
		{"unknown choice", "", nil, http.StatusBadRequest, "choice must be tvorozhniki or syrniki"},
		{"duplicate fingerprint", "", models.ErrDuplicateVote, http.StatusConflict, "Vote already recorded for this device/browser"},
		{"storage failure", "", errors.New("disk full"), http.StatusInternalServerError, "Failed to record vote"},
	}
	bodies := map[string]any{
		"missing name":          with("name", "  "),
		"unknown choice":        with("choice", "blini"),
		"duplicate fingerprint": valid,
		"storage failure":       valid,
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubStore{createErr: tt.createErr}
			h := newTestHandler(store)

			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest("POST", "/api/votes", strings.NewReader(tt.body))
			} else {
				req = testutil.MakeRequest("POST", "/api/votes", bodies[tt.name], nil)
			}
			w := httptest.NewRecorder()

			h.CreateVote(w, req)

			testutil.AssertStatus(t, w, tt.wantStatus)
			var resp models.ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Error != tt.wantError {
				t.Errorf("Expected error %q, got %q", tt.wantError, resp.Error)
			}
		})
	}
}

func TestCreateVote_Success(t *testing.T) {
	store := &stubStore{}
	h := newTestHandler(store)

	body := models.CreateVoteRequest{
		Choice:      models.ChoiceSyrniki,
		Name:        "Boris",
		City:        "Kazan",
		Email:       "boris@example.com",
		Fingerprint: "fp-2",
	}
	w := httptest.NewRecorder()
	h.CreateVote(w, testutil.MakeRequest("POST", "/api/votes", body, nil))

	testutil.AssertStatus(t, w, http.StatusCreated)
	var resp models.CreateVoteResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.ID != 1 || resp.Message != "Vote recorded successfully" {
		t.Errorf("Unexpected response: %+v", resp)
	}

	if len(store.created) != 1 {
		t.Fatalf("Expected one stored vote, got %d", len(store.created))
	}
	got := store.created[0]
	if got.Email != "boris@example.com" || got.Fingerprint != "fp-2" {
		t.Errorf("Stored vote lost fields: %+v", got)
	}
	if !got.Timestamp.Equal(fixedNow) {
		t.Errorf("Expected server timestamp %v, got %v", fixedNow, got.Timestamp)
	}
}

func TestCreateVote_CountsMetrics(t *testing.T) {
	m := metrics.New()
	store := &stubStore{}
	h := NewVoteHandler(store, m)

	body := models.CreateVoteRequest{Choice: models.ChoiceTvorozhniki, Name: "A", City: "B", Fingerprint: "f"}
	h.CreateVote(httptest.NewRecorder(), testutil.MakeRequest("POST", "/api/votes", body, nil))

	store.createErr = models.ErrDuplicateVote
	h.CreateVote(httptest.NewRecorder(), testutil.MakeRequest("POST", "/api/votes", body, nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	out := rec.Body.String()
	for _, want := range []string{
		`tvorozhniki_votes_recorded_total{choice="tvorozhniki"} 1`,
		`tvorozhniki_votes_duplicate_total 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected metrics output to contain %q", want)
		}
	}

	problems, err := promlint.New(strings.NewReader(out)).Lint()
	if err != nil {
		t.Fatalf("Lint() error = %v", err)
	}
	for _, p := range problems {
		if strings.HasPrefix(p.Metric, "tvorozhniki_") {
			t.Errorf("metric %s: %s", p.Metric, p.Text)
		}
	}
}

func TestGetStats(t *testing.T) {
	store := &stubStore{stats: models.Stats{
		TotalVotes:       3,
		TvorozhnikiVotes: 2,
		SyrnikiVotes:     1,
		RecentVotes: []models.RecentVote{
			{Name: "A", City: "Moscow", Choice: models.ChoiceSyrniki, Timestamp: fixedNow.Add(-5 * time.Minute)},
			{Name: "B", City: "Kazan", Choice: models.ChoiceTvorozhniki, Timestamp: fixedNow.Add(-26 * time.Hour)},
		},
	}}
	h := newTestHandler(store)

	w := httptest.NewRecorder()
	h.GetStats(w, httptest.NewRequest("GET", "/api/votes/stats", nil))

	testutil.AssertStatus(t, w, http.StatusOK)
	if store.limits != tally.ServerLimits {
		t.Errorf("Expected server limits, got %+v", store.limits)
	}

	var resp models.Stats
	testutil.AssertJSON(t, w, &resp)
	if resp.TotalVotes != 3 || resp.TvorozhnikiVotes != 2 || resp.SyrnikiVotes != 1 {
		t.Errorf("Unexpected totals: %+v", resp)
	}
	if resp.TopCities == nil {
		t.Error("Expected topCities to encode as an empty array")
	}
	if len(resp.RecentVotes) != 2 {
		t.Fatalf("Expected 2 recent votes, got %d", len(resp.RecentVotes))
	}
	if resp.RecentVotes[0].TimeAgo != "5 min ago" || resp.RecentVotes[1].TimeAgo != "yesterday" {
		t.Errorf("Unexpected timeAgo labels: %q, %q", resp.RecentVotes[0].TimeAgo, resp.RecentVotes[1].TimeAgo)
	}
}

func TestGetStats_StoreError(t *testing.T) {
	h := newTestHandler(&stubStore{statsErr: errors.New("boom")})

	w := httptest.NewRecorder()
	h.GetStats(w, httptest.NewRequest("GET", "/api/votes/stats", nil))

	testutil.AssertStatus(t, w, http.StatusInternalServerError)
}

func TestGetRecent(t *testing.T) {
	store := &stubStore{recent: []models.RecentVote{
		{Name: "A", City: "Omsk", Choice: models.ChoiceSyrniki, Timestamp: fixedNow.Add(-30 * time.Second)},
	}}
	h := newTestHandler(store)

	w := httptest.NewRecorder()
	h.GetRecent(w, httptest.NewRequest("GET", "/api/votes/recent", nil))

	testutil.AssertStatus(t, w, http.StatusOK)
	if store.limit != RecentLimit {
		t.Errorf("Expected limit %d, got %d", RecentLimit, store.limit)
	}
	var resp []models.RecentVote
	testutil.AssertJSON(t, w, &resp)
	if len(resp) != 1 || resp[0].TimeAgo != "just now" {
		t.Errorf("Unexpected recent votes: %+v", resp)
	}
}

func TestGetRecent_StoreError(t *testing.T) {
	h := newTestHandler(&stubStore{recentErr: errors.New("boom")})

	w := httptest.NewRecorder()
	h.GetRecent(w, httptest.NewRequest("GET", "/api/votes/recent", nil))

	testutil.AssertStatus(t, w, http.StatusInternalServerError)
}

func TestRoot(t *testing.T) {
	h := newTestHandler(&stubStore{})

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"root", "GET", "/", http.StatusOK},
		{"unknown path", "GET", "/api/unknown", http.StatusNotFound},
		{"post to root", "POST", "/", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Root(w, httptest.NewRequest(tt.method, tt.path, nil))
			testutil.AssertStatus(t, w, tt.wantStatus)

			if tt.wantStatus == http.StatusOK {
				var resp models.RootResponse
				testutil.AssertJSON(t, w, &resp)
				if !strings.Contains(resp.Message, "Vote API is running") || !resp.Timestamp.Equal(fixedNow) {
					t.Errorf("Unexpected root response: %+v", resp)
				}
				return
			}
			var resp models.ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Error != "Endpoint not found" {
				t.Errorf("Expected 'Endpoint not found', got %q", resp.Error)
			}
		})
	}
}

// Against a real database: second vote from the same fingerprint is a 409
// and leaves the totals alone.
func TestCreateVote_SQLiteDuplicate(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	h := newTestHandler(db.NewVoteStore(conn))

	body := models.CreateVoteRequest{Choice: models.ChoiceTvorozhniki, Name: "Anna", City: "Moscow", Fingerprint: "same"}

	w := httptest.NewRecorder()
	h.CreateVote(w, testutil.MakeRequest("POST", "/api/votes", body, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)

	body.Choice = models.ChoiceSyrniki
	w = httptest.NewRecorder()
	h.CreateVote(w, testutil.MakeRequest("POST", "/api/votes", body, nil))
	testutil.AssertStatus(t, w, http.StatusConflict)

	w = httptest.NewRecorder()
	h.GetStats(w, httptest.NewRequest("GET", "/api/votes/stats", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var stats models.Stats
	testutil.AssertJSON(t, w, &stats)
	if stats.TotalVotes != 1 || stats.TvorozhnikiVotes != 1 || stats.SyrnikiVotes != 0 {
		t.Errorf("Expected a single tvorozhniki vote, got %+v", stats)
	}
	if len(stats.TopCities) != 1 || stats.TopCities[0].City != "Moscow" {
		t.Errorf("Unexpected top cities: %+v", stats.TopCities)
	}
}

func TestGetRecent_SQLite(t *testing.T) {
	store := db.NewVoteStore(testutil.SetupTestDB(t))
	testutil.CreateTestVote(t, store, models.ChoiceSyrniki, "Anna", "Moscow", "fp-1", fixedNow.Add(-2*time.Hour))
	testutil.CreateTestVote(t, store, models.ChoiceTvorozhniki, "Boris", "Kazan", "fp-2", fixedNow.Add(-30*time.Second))

	h := newTestHandler(store)
	w := httptest.NewRecorder()
	h.GetRecent(w, httptest.NewRequest("GET", "/api/votes/recent", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var recent []models.RecentVote
	testutil.AssertJSON(t, w, &recent)
	if len(recent) != 2 {
		t.Fatalf("Expected 2 votes, got %d", len(recent))
	}
	if recent[0].Name != "Boris" || recent[1].Name != "Anna" {
		t.Errorf("Expected newest first, got %q then %q", recent[0].Name, recent[1].Name)
	}
}
