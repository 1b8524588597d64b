// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package publicip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/DataDog/datadog-geotrace/log"
)

// ipCheckers list of reliable public IP checkers
var ipCheckers = []string{
	"https://icanhazip.com/",         // owned by cloudflare
	"https://ipinfo.io/ip",           // GeoIP info provider
	"https://checkip.amazonaws.com/", // Amazon
	"https://api.ipify.org/",         // Dedicated Public IP info and GeoIP info provider
	"https://whatismyip.akamai.com/", // Akamai is a CDN Provider
}

// ErrNoIP is returned when no checker produced an address.
var ErrNoIP = errors.New("no IP found")

func newBackOff() backoff.BackOff {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 500 * time.Millisecond
	expBackoff.MaxInterval = 3 * time.Second
	return expBackoff
}

// getPublicIP asks each checker in turn and returns the first valid answer.
func getPublicIP(ctx context.Context, client *http.Client, checkers []string, maxTries uint, newBO func() backoff.BackOff) (net.IP, error) {
	for _, ipChecker := range checkers {
		ip, err := getPublicIPUsingIPChecker(ctx, client, ipChecker, maxTries, newBO())
		if err != nil {
			log.Debugf("error fetching: %s, %s", ipChecker, err.Error())
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		return ip, nil
	}
	return nil, ErrNoIP
}

func getPublicIPUsingIPChecker(ctx context.Context, client *http.Client, dest string, maxTries uint, bo backoff.BackOff) (net.IP, error) {
	operation := func() (net.IP, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, dest, nil)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to create new request: %w", err))
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch req: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if err != nil {
			return nil, fmt.Errorf("failed to read content: %w", err)
		}

		// Client errors are not worth retrying.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, backoff.Permanent(fmt.Errorf("checker answered %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("checker answered %d", resp.StatusCode)
		}

		tb := strings.TrimSpace(string(body))
		ip := net.ParseIP(tb)
		if ip == nil {
			return nil, backoff.Permanent(fmt.Errorf("IP address not valid: %q", tb))
		}
		return ip, nil
	}
	result, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(maxTries))
	if err != nil {
		return nil, fmt.Errorf("backoff retry error: %w", err)
	}
	return result, nil
}
