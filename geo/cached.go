// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package geo

import (
	"context"
	"time"

	"github.com/DataDog/datadog-geotrace/cache"
)

const (
	defaultCacheExpiration = 24 * time.Hour
	defaultCachePurge      = 10 * time.Minute
)

type cachedLocation struct {
	coord Coordinate
	found bool
}

// CachedLocator remembers answers, misses included, so a route that crosses
// the same backbone routers run after run does not hit the provider again.
type CachedLocator struct {
	next  Locator
	store *cache.Cache[cachedLocation]
	ttl   time.Duration
}

func NewCachedLocator(next Locator, ttl time.Duration) *CachedLocator {
	if ttl <= 0 {
		ttl = defaultCacheExpiration
	}
	return &CachedLocator{
		next:  next,
		store: cache.New[cachedLocation](ttl, defaultCachePurge),
		ttl:   ttl,
	}
}

func (c *CachedLocator) Locate(ctx context.Context, host string) (Coordinate, bool, error) {
	key := StripPort(host)
	loc, err := c.store.GetOrCompute(key, c.ttl, func() (cachedLocation, error) {
		coord, found, err := c.next.Locate(ctx, key)
		return cachedLocation{coord: coord, found: found}, err
	})
	if err != nil {
		return Coordinate{}, false, err
	}
	return loc.coord, loc.found, nil
}
