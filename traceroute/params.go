// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package traceroute

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DataDog/datadog-geotrace/common"
	"github.com/DataDog/datadog-geotrace/icmpecho"
)

type TracerouteParams struct {
	// Hostname is a name or an IPv4 address, optionally with a port which is ignored
	Hostname string
	// Timeout is how long each probe waits for an answer
	Timeout               time.Duration
	MaxTTL                int
	ReverseDns            bool
	Geolocate             bool
	CollectSourcePublicIP bool
	SkipPrivateHops       bool
}

// withDefaults fills zero values with the common defaults.
func (p TracerouteParams) withDefaults() TracerouteParams {
	if p.Timeout == 0 {
		p.Timeout = common.DefaultTimeoutMs * time.Millisecond
	}
	if p.MaxTTL == 0 {
		p.MaxTTL = common.DefaultMaxTTL
	}
	p.Hostname = strings.TrimSpace(p.Hostname)
	return p
}

// Validate checks the parameters after defaults were applied.
func (p TracerouteParams) Validate() error {
	if p.Hostname == "" {
		return &InvalidTargetError{Err: errors.New("empty hostname")}
	}
	if p.Timeout < 0 {
		return &InvalidTargetError{Err: fmt.Errorf("timeout must be positive, got %s", p.Timeout)}
	}
	if p.MaxTTL < 1 || p.MaxTTL > icmpecho.DefaultMaxTTL {
		return &InvalidTargetError{Err: fmt.Errorf("max TTL must be within [1, %d], got %d", icmpecho.DefaultMaxTTL, p.MaxTTL)}
	}
	return nil
}
