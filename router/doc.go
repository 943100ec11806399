// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the vote aggregator.

	mux := router.NewRouter(store, metrics.New())

# Endpoints

	POST /api/votes        - Record a vote
	GET  /api/votes/stats  - Totals, top cities, recent votes
	GET  /api/votes/recent - Last 20 votes
	GET  /health           - Liveness ("OK")
	GET  /metrics          - Prometheus exposition
	GET  /                 - API banner

Any other path answers 404 {"error": "Endpoint not found"}. Vote routes are
wrapped with middleware.WithLogging and report to the metrics registry.
A nil *metrics.VoteMetrics is accepted; /metrics then answers 404.
*/
package router
