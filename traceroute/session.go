// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package traceroute

import (
	"context"
	"net/netip"
	"time"

	"github.com/DataDog/datadog-geotrace/icmpecho"
)

// hopSource is the part of icmpecho.Session the orchestrator drives.
type hopSource interface {
	Target() netip.Addr
	NextContext(ctx context.Context) (icmpecho.Hop, error)
	Close() error
}

type newSessionFnType func(ctx context.Context, target string, timeout time.Duration, maxTTL int) (hopSource, error)

// newSessionFn is declared for testing purpose (to be replaced by mock impl during tests)
var newSessionFn newSessionFnType = newICMPSession

func newICMPSession(ctx context.Context, target string, timeout time.Duration, maxTTL int) (hopSource, error) {
	s, err := icmpecho.NewSession(ctx, target, timeout, icmpecho.WithMaxTTL(maxTTL))
	if err != nil {
		return nil, err
	}
	return s, nil
}
