// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

// Package geo turns hop addresses into coordinates so a route can be drawn
// on a map.
package geo

import (
	"context"
	"net"
	"strings"

	"github.com/pkg/errors"

	"github.com/DataDog/datadog-geotrace/log"
)

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// Locator resolves a host to a coordinate. found is false when the provider
// knows nothing about the host, which is not an error.
type Locator interface {
	Locate(ctx context.Context, host string) (coord Coordinate, found bool, err error)
}

// StripPort drops a trailing port from host ("1.2.3.4:80", "[::1]:80").
// Anything that does not split cleanly is returned unchanged.
func StripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.Trim(host, "[]")
}

// Chain asks each locator in turn and returns the first hit. Errors are
// logged and the next locator is tried; the last error is returned when no
// locator found the host.
func Chain(locators ...Locator) Locator {
	return chain(locators)
}

type chain []Locator

func (c chain) Locate(ctx context.Context, host string) (Coordinate, bool, error) {
	var lastErr error
	for _, l := range c {
		coord, found, err := l.Locate(ctx, host)
		if err != nil {
			log.Debugf("geolocation of %s failed with %T: %s", host, l, err)
			lastErr = err
			continue
		}
		if found {
			return coord, true, nil
		}
	}
	if lastErr != nil {
		return Coordinate{}, false, errors.Wrapf(lastErr, "no locator could place %s", host)
	}
	return Coordinate{}, false, nil
}
