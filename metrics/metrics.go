// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics exposes aggregator counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// VoteMetrics counts votes and requests. The zero value and a nil pointer
// are usable and record nothing until Register is called.
type VoteMetrics struct {
	votesCounter      *prometheus.CounterVec
	duplicatesCounter prometheus.Counter
	requestsCounter   *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec

	gatherer     prometheus.Gatherer
	registerOnce sync.Once
}

// New registers a VoteMetrics on a fresh registry that also carries the Go
// and process collectors.
func New() *VoteMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := &VoteMetrics{}
	m.Register(reg, reg)
	return m
}

// Register creates the collectors on registry. Calling it again is a no-op.
func (m *VoteMetrics) Register(registry prometheus.Registerer, gatherer prometheus.Gatherer) {
	if m == nil || registry == nil {
		return
	}

	m.registerOnce.Do(func() {
		factory := promauto.With(registry)
		m.gatherer = gatherer

		m.votesCounter = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tvorozhniki_votes_recorded_total",
			Help: "Total number of votes accepted, by choice",
		}, []string{"choice"})

		m.duplicatesCounter = factory.NewCounter(prometheus.CounterOpts{
			Name: "tvorozhniki_votes_duplicate_total",
			Help: "Total number of votes rejected because the fingerprint was known",
		})

		m.requestsCounter = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tvorozhniki_http_requests_total",
			Help: "Total number of API requests, by route and status code",
		}, []string{"route", "code"})

		m.requestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tvorozhniki_http_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"})
	})
}

// IncVote counts an accepted vote.
func (m *VoteMetrics) IncVote(choice string) {
	if m == nil || m.votesCounter == nil {
		return
	}
	m.votesCounter.WithLabelValues(choice).Inc()
}

// IncDuplicate counts a vote rejected as a duplicate.
func (m *VoteMetrics) IncDuplicate() {
	if m == nil || m.duplicatesCounter == nil {
		return
	}
	m.duplicatesCounter.Inc()
}

// ObserveRequest records one finished request.
func (m *VoteMetrics) ObserveRequest(route string, code int, d time.Duration) {
	if m == nil || m.requestsCounter == nil {
		return
	}
	m.requestsCounter.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Handler serves the exposition format. Without a registry it answers 404.
func (m *VoteMetrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
