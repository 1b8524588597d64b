// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

// Package reversedns resolves PTR names for hop addresses.
package reversedns

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"
)

const reverseDnsDefaultTimeout = 5 * time.Second

// LookupAddrFn is defined as variable to ease testing
var LookupAddrFn = defaultLookupAddr

// GetReverseDnsForIP returns the PTR names of addr with trailing dots removed.
func GetReverseDnsForIP(ctx context.Context, addr netip.Addr) ([]string, error) {
	if !addr.IsValid() {
		return nil, errors.New("invalid IP address")
	}
	return GetReverseDns(ctx, addr.String())
}

// GetReverseDns is GetReverseDnsForIP for a textual address. The lookup is
// capped at five seconds regardless of ctx.
func GetReverseDns(ctx context.Context, ipAddr string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, reverseDnsDefaultTimeout)
	defer cancel()
	rawNames, err := LookupAddrFn(ctx, ipAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to get reverse dns: %w", err)
	}

	names := make([]string, 0, len(rawNames))
	for _, name := range rawNames {
		names = append(names, strings.TrimRight(name, "."))
	}
	return names, nil
}
