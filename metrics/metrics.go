// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

// Package metrics holds the prometheus collectors updated by traceroute runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Run outcomes used as the "outcome" label.
const (
	OutcomeReached   = "reached"
	OutcomeUnreached = "unreached"
	OutcomeError     = "error"
)

// Metrics is safe to use as a nil pointer, in which case nothing is recorded.
type Metrics struct {
	registry *prometheus.Registry

	runs   *prometheus.CounterVec
	hops   prometheus.Counter
	rtt    prometheus.Histogram
	errors *prometheus.CounterVec
}

// New creates the collectors and registers them, along with the go and
// process collectors, on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geotrace_runs_total",
				Help: "Total number of traceroute runs by outcome.",
			},
			[]string{"outcome"},
		),
		hops: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "geotrace_hops_total",
				Help: "Total number of hops that answered a probe.",
			},
		),
		rtt: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "geotrace_hop_rtt_seconds",
				Help:    "Round trip time of answered probes in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geotrace_errors_total",
				Help: "Total number of failed traceroute runs by error code.",
			},
			[]string{"code"},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.registry.MustRegister(m.GetCollectors()...)
	return m
}

// Registry returns the registry served on /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// GetCollectors returns the geotrace collectors only.
func (m *Metrics) GetCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.runs,
		m.hops,
		m.rtt,
		m.errors,
	}
}

func (m *Metrics) ObserveRun(outcome string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveHop(rtt time.Duration) {
	if m == nil {
		return
	}
	m.hops.Inc()
	m.rtt.Observe(rtt.Seconds())
}

func (m *Metrics) ObserveError(code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(code).Inc()
}
