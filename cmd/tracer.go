// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package cmd

import (
	"context"
	"fmt"

	"github.com/DataDog/datadog-geotrace/config"
	"github.com/DataDog/datadog-geotrace/geo"
	"github.com/DataDog/datadog-geotrace/log"
	"github.com/DataDog/datadog-geotrace/metrics"
	"github.com/DataDog/datadog-geotrace/result"
	"github.com/DataDog/datadog-geotrace/traceroute"
)

// tracer is the part of *traceroute.Traceroute the commands use.
type tracer interface {
	RunTraceroute(ctx context.Context, params traceroute.TracerouteParams) (*result.Results, error)
	Stream(ctx context.Context, params traceroute.TracerouteParams, fn traceroute.HopFunc) (*result.Results, error)
}

// newTracerFn is swapped in tests.
var newTracerFn = newTracer

func newTracer(cfg *config.Config, m *metrics.Metrics) (tracer, func(), error) {
	locator, closeFn, err := newLocator(cfg)
	if err != nil {
		return nil, nil, err
	}
	opts := []traceroute.Option{traceroute.WithLocator(locator)}
	if m != nil {
		opts = append(opts, traceroute.WithMetrics(m))
	}
	return traceroute.NewTraceroute(opts...), closeFn, nil
}

// newLocator returns the HTTP locator behind a cache, preceded by the
// GeoLite2 database when one is configured.
func newLocator(cfg *config.Config) (geo.Locator, func(), error) {
	remote := geo.NewCachedLocator(geo.NewIPAPILocator(geo.WithBaseURL(cfg.GeoURL)), 0)
	if cfg.GeoDB == "" {
		return remote, func() {}, nil
	}

	db, err := geo.OpenGeoLite2(cfg.GeoDB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open geolocation database: %w", err)
	}
	closeFn := func() {
		if err := db.Close(); err != nil {
			log.Debugf("failed to close %s: %s", cfg.GeoDB, err)
		}
	}
	return geo.Chain(db, remote), closeFn, nil
}
