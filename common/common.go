// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

// Package common contains defaults and helpers shared by the CLI, the HTTP
// server and the traceroute orchestrator.
package common

import (
	"net/netip"
)

const (
	DefaultTimeoutMs             = 1000
	DefaultMaxTTL                = 30
	DefaultReverseDns            = false
	DefaultGeolocate             = false
	DefaultCollectSourcePublicIP = false
	DefaultSkipPrivateHops       = false
	DefaultServerAddr            = ":3765"
	DefaultLogLevel              = "info"
	DefaultEnrichConcurrency     = 8
)

// UnmappedAddrFromSlice is the same as netip.AddrFromSlice but it also gets rid of mapped ipv6 addresses.
func UnmappedAddrFromSlice(slice []byte) (netip.Addr, bool) {
	addr, ok := netip.AddrFromSlice(slice)
	return addr.Unmap(), ok
}
