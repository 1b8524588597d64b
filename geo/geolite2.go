// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package geo

import (
	"context"
	"net"

	"github.com/oschwald/geoip2-golang"
	"github.com/pkg/errors"
)

// GeoLite2Locator reads a MaxMind City database. Lookups never leave the host.
type GeoLite2Locator struct {
	db *geoip2.Reader
}

func OpenGeoLite2(path string) (*GeoLite2Locator, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open GeoLite2 database %s", path)
	}
	return &GeoLite2Locator{db: db}, nil
}

func NewGeoLite2FromBytes(b []byte) (*GeoLite2Locator, error) {
	db, err := geoip2.FromBytes(b)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open GeoLite2 database")
	}
	return &GeoLite2Locator{db: db}, nil
}

// Locate only accepts IP literals; the database has no notion of hostnames.
func (g *GeoLite2Locator) Locate(_ context.Context, host string) (Coordinate, bool, error) {
	ip := net.ParseIP(StripPort(host))
	if ip == nil {
		return Coordinate{}, false, errors.Errorf("failed to parse IP address %s", host)
	}
	city, err := g.db.City(ip)
	if err != nil {
		return Coordinate{}, false, errors.Wrap(err, "failed to resolve IP")
	}
	loc := city.Location
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return Coordinate{}, false, nil
	}
	return Coordinate{Latitude: loc.Latitude, Longitude: loc.Longitude}, true, nil
}

func (g *GeoLite2Locator) Close() error {
	return g.db.Close()
}
