// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/tvorozhniki/handlers"
	"github.com/danielhkuo/tvorozhniki/metrics"
	"github.com/danielhkuo/tvorozhniki/middleware"
)

func NewRouter(store handlers.VoteStore, m *metrics.VoteMetrics) *http.ServeMux {
	mux := http.NewServeMux()

	voteHandler := handlers.NewVoteHandler(store, m)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", m.Handler())

	// Votes
	mux.HandleFunc("POST /api/votes", middleware.WithLogging("/api/votes", m, voteHandler.CreateVote))
	mux.HandleFunc("GET /api/votes/stats", middleware.WithLogging("/api/votes/stats", m, voteHandler.GetStats))
	mux.HandleFunc("GET /api/votes/recent", middleware.WithLogging("/api/votes/recent", m, voteHandler.GetRecent))

	// Root and everything unmatched
	mux.HandleFunc("/", middleware.WithLogging("/", m, voteHandler.Root))

	return mux
}
