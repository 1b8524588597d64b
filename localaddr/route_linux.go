// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

//go:build linux

package localaddr

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/vishvananda/netlink"

	"github.com/DataDog/datadog-geotrace/common"
)

var routeGet = netlink.RouteGet

func lookupOutboundRoute(dest netip.Addr) (netip.Addr, error) {
	routes, err := routeGet(net.IP(dest.AsSlice()))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("netlink route lookup failed: %w", err)
	}
	for _, r := range routes {
		if len(r.Src) == 0 {
			continue
		}
		if src, ok := common.UnmappedAddrFromSlice(r.Src); ok {
			return src, nil
		}
	}
	return netip.Addr{}, fmt.Errorf("no route with a preferred source found for %s", dest)
}
