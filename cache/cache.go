// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package cache keeps lookups that are slow or rate limited (public IP,
// geolocation) in memory between traceroute runs.
package cache

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	defaultExpire = 5 * time.Minute
	defaultPurge  = 30 * time.Second

	// NoExpiration keeps an entry until the process exits or it is deleted.
	NoExpiration = cache.NoExpiration
	// DefaultExpiration uses the expiration the cache was created with.
	DefaultExpiration = cache.DefaultExpiration
)

// Cache is a typed view over a go-cache store.
type Cache[T any] struct {
	store *cache.Cache
}

// New returns a cache whose entries expire after expire unless set otherwise.
func New[T any](expire, purge time.Duration) *Cache[T] {
	return &Cache[T]{store: cache.New(expire, purge)}
}

func (c *Cache[T]) Get(key string) (T, bool) {
	if x, found := c.store.Get(key); found {
		if v, ok := x.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func (c *Cache[T]) Set(key string, value T, expire time.Duration) {
	c.store.Set(key, value, expire)
}

func (c *Cache[T]) Delete(key string) {
	c.store.Delete(key)
}

func (c *Cache[T]) Flush() {
	c.store.Flush()
}

func (c *Cache[T]) Len() int {
	return c.store.ItemCount()
}

// GetOrCompute returns the cached value for key, or calls cb and caches its
// result for expire. Errors are not cached.
func (c *Cache[T]) GetOrCompute(key string, expire time.Duration, cb func() (T, error)) (T, error) {
	if v, found := c.Get(key); found {
		return v, nil
	}
	res, err := cb()
	if err == nil {
		c.Set(key, res, expire)
	}
	return res, err
}

// shared backs the package level helpers.
var shared = New[any](defaultExpire, defaultPurge)

// GetWithExpiration is GetOrCompute on the process wide cache.
func GetWithExpiration[T any](key string, cb func() (T, error), expire time.Duration) (T, error) {
	if x, found := shared.Get(key); found {
		if v, ok := x.(T); ok {
			return v, nil
		}
	}
	res, err := cb()
	if err == nil {
		shared.Set(key, res, expire)
	}
	return res, err
}

// FlushShared empties the process wide cache.
func FlushShared() {
	shared.Flush()
}
