// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tier-app/tier/internal/auth"
)

// NewRegistry returns a registry preloaded with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Metrics holds the application metrics. It implements auth.Recorder.
type Metrics struct {
	AuthAttempts   *prometheus.CounterVec
	HashDuration   *prometheus.HistogramVec
	HashQueueDepth prometheus.Gauge
	HTTPRequests   *prometheus.CounterVec
}

// NewMetrics creates the application metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tier_auth_attempts_total",
				Help: "Register and login attempts by flow and outcome",
			},
			[]string{"flow", "outcome"},
		),
		HashDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tier_password_hash_duration_seconds",
				Help:    "Time from submitting a hash or verify job to its result, queue wait included",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"op", "result"},
		),
		HashQueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tier_password_hash_queue_depth",
				Help: "Hash jobs waiting for a worker",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tier_http_requests_total",
				Help: "HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
	}

	reg.MustRegister(m.AuthAttempts, m.HashDuration, m.HashQueueDepth, m.HTTPRequests)
	return m
}

// RecordAuth implements auth.Recorder.
func (m *Metrics) RecordAuth(flow, outcome string) {
	m.AuthAttempts.WithLabelValues(flow, outcome).Inc()
}

// ObserveHash implements auth.Recorder.
func (m *Metrics) ObserveHash(op string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.HashDuration.WithLabelValues(op, result).Observe(d.Seconds())
}

// SetHashQueueDepth implements auth.Recorder.
func (m *Metrics) SetHashQueueDepth(n int) {
	m.HashQueueDepth.Set(float64(n))
}

// ObserveRequest counts one served HTTP request. route is the matched
// pattern, not the raw path.
func (m *Metrics) ObserveRequest(route, method string, status int) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

var _ auth.Recorder = (*Metrics)(nil)
