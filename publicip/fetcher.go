// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

// Package publicip discovers the address the host is seen as from the
// internet, used to geolocate the start of a traced path.
package publicip

//go:generate mockgen -source=fetcher.go -destination=mock_fetcher.go -package=publicip

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/DataDog/datadog-geotrace/cache"
	"github.com/DataDog/datadog-geotrace/log"
)

const defaultPublicIPCacheExpiration = 2 * time.Hour

const cacheKey = "source_public_ip"

// Fetcher returns the public IP of the host.
type Fetcher interface {
	GetIP(ctx context.Context) (net.IP, error)
}

type PublicIPFetcher struct {
	client    *http.Client
	checkers  []string
	maxTries  uint
	backOff   func() backoff.BackOff
	consensus func(ctx context.Context) (net.IP, error)
	cache     *cache.Cache[net.IP]
}

type Option func(*PublicIPFetcher)

// WithCheckers replaces the list of plain text IP checkers.
func WithCheckers(urls ...string) Option {
	return func(p *PublicIPFetcher) { p.checkers = urls }
}

func WithHTTPClient(c *http.Client) Option {
	return func(p *PublicIPFetcher) { p.client = c }
}

// WithoutConsensus disables the go-external-ip fallback.
func WithoutConsensus() Option {
	return func(p *PublicIPFetcher) { p.consensus = nil }
}

func withBackOff(f func() backoff.BackOff) Option {
	return func(p *PublicIPFetcher) { p.backOff = f }
}

func withCache(c *cache.Cache[net.IP]) Option {
	return func(p *PublicIPFetcher) { p.cache = c }
}

func NewPublicIPFetcher(opts ...Option) *PublicIPFetcher {
	p := &PublicIPFetcher{
		client:    &http.Client{Timeout: 5 * time.Second},
		checkers:  ipCheckers,
		maxTries:  MaxTries,
		backOff:   newBackOff,
		consensus: consensusIP,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetIP returns the cached public IP, fetching it when the entry is missing
// or older than two hours.
func (p *PublicIPFetcher) GetIP(ctx context.Context) (net.IP, error) {
	fetch := func() (net.IP, error) {
		ip, err := p.fetch(ctx)
		if err != nil {
			return nil, err
		}
		log.Debugf("Public IP fetched: %s", ip.String())
		return ip, nil
	}
	if p.cache != nil {
		return p.cache.GetOrCompute(cacheKey, defaultPublicIPCacheExpiration, fetch)
	}
	return cache.GetWithExpiration(cacheKey, fetch, defaultPublicIPCacheExpiration)
}

func (p *PublicIPFetcher) fetch(ctx context.Context) (net.IP, error) {
	ip, err := getPublicIP(ctx, p.client, p.checkers, p.maxTries, p.backOff)
	if err == nil {
		return ip, nil
	}
	if p.consensus == nil || !errors.Is(err, ErrNoIP) {
		return nil, err
	}
	log.Debugf("all IP checkers failed, asking the consensus")
	return p.consensus(ctx)
}
