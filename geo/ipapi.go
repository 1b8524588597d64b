// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/DataDog/datadog-geotrace/log"
)

// DefaultIPAPIURL is the free ip-api.com endpoint. It only speaks plain HTTP.
const DefaultIPAPIURL = "http://ip-api.com"

const ipAPIFields = "status,message,lat,lon"

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// IPAPILocator queries ip-api.com, retrying transient failures with
// exponential backoff.
type IPAPILocator struct {
	client   *resty.Client
	baseURL  string
	maxTries uint
	backoff  func() backoff.BackOff
}

type IPAPIOption func(*IPAPILocator)

// WithBaseURL points the locator at another ip-api compatible endpoint.
func WithBaseURL(u string) IPAPIOption {
	return func(l *IPAPILocator) { l.baseURL = u }
}

// WithMaxTries bounds the attempts per lookup.
func WithMaxTries(n uint) IPAPIOption {
	return func(l *IPAPILocator) { l.maxTries = n }
}

// WithHTTPClient replaces the underlying resty client.
func WithHTTPClient(c *resty.Client) IPAPIOption {
	return func(l *IPAPILocator) { l.client = c }
}

func withBackOff(fn func() backoff.BackOff) IPAPIOption {
	return func(l *IPAPILocator) { l.backoff = fn }
}

func NewIPAPILocator(opts ...IPAPIOption) *IPAPILocator {
	l := &IPAPILocator{
		client:   resty.New().SetTimeout(5 * time.Second),
		baseURL:  DefaultIPAPIURL,
		maxTries: 3,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 3 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Client exposes the resty client, mostly so tests can mock its transport.
func (l *IPAPILocator) Client() *resty.Client {
	return l.client
}

func (l *IPAPILocator) Locate(ctx context.Context, host string) (Coordinate, bool, error) {
	host = StripPort(host)
	if host == "" {
		return Coordinate{}, false, errors.New("empty host")
	}

	operation := func() (ipAPIResponse, error) {
		resp, err := l.client.R().SetContext(ctx).
			SetQueryParam("fields", ipAPIFields).
			SetPathParam("host", host).
			Get(l.baseURL + "/json/{host}")
		if err != nil {
			if ctx.Err() != nil {
				return ipAPIResponse{}, backoff.Permanent(ctx.Err())
			}
			return ipAPIResponse{}, errors.Wrap(err, "failed to query ip-api")
		}

		switch code := resp.StatusCode(); {
		case code == http.StatusTooManyRequests:
			// ip-api reports the seconds until the rate limit window resets
			if secs, err := strconv.Atoi(resp.Header().Get("X-Ttl")); err == nil && secs > 0 {
				return ipAPIResponse{}, backoff.RetryAfter(secs)
			}
			return ipAPIResponse{}, errors.New("rate limited by ip-api")
		case code >= 400 && code < 500:
			return ipAPIResponse{}, backoff.Permanent(errors.Errorf("ip-api answered %d", code))
		case code >= 500:
			return ipAPIResponse{}, errors.Errorf("ip-api answered %d", code)
		}

		var out ipAPIResponse
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return ipAPIResponse{}, backoff.Permanent(errors.Wrap(err, "failed to decode ip-api response"))
		}
		return out, nil
	}

	out, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(l.backoff()),
		backoff.WithMaxTries(l.maxTries),
	)
	if err != nil {
		return Coordinate{}, false, errors.Wrapf(err, "geolocation of %s", host)
	}
	if out.Status != "success" {
		log.Tracef("ip-api has no location for %s: %s", host, out.Message)
		return Coordinate{}, false, nil
	}
	return Coordinate{Latitude: out.Lat, Longitude: out.Lon}, true, nil
}
