// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

// Package localaddr finds the source address the kernel would use to reach a
// destination, which is reported as the origin of a traceroute.
package localaddr

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"syscall"

	"github.com/DataDog/datadog-geotrace/log"
)

// probePort is only used to let the kernel pick a route; nothing is sent.
const probePort = 33434

// dialFn is swapped in tests.
var dialFn = func(dest netip.Addr) (netip.Addr, error) {
	conn, err := net.DialUDP("udp", nil, net.UDPAddrFromAddrPort(netip.AddrPortFrom(dest, probePort)))
	if err != nil {
		return netip.Addr{}, err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).AddrPort().Addr().Unmap(), nil
}

// SourceFor returns the local address used to reach dest. The netlink route
// table is consulted first on linux; otherwise a connected UDP socket is
// used to ask the kernel.
func SourceFor(dest netip.Addr) (netip.Addr, error) {
	if !dest.IsValid() {
		return netip.Addr{}, errors.New("invalid destination address")
	}
	dest = dest.Unmap()

	if src, err := lookupOutboundRoute(dest); err == nil {
		return normalizeLoopbackSource(dest, src), nil
	} else {
		log.Tracef("route lookup for %s failed, falling back to dial: %s", dest, err)
	}

	src, err := dialFn(dest)
	if err != nil {
		if !isNetlinkOverflowError(err) {
			return netip.Addr{}, fmt.Errorf("failed to find source address for %s: %w", dest, err)
		}
		log.Debugf("route lookup failed with netlink overflow error for %s, using interface enumeration fallback", dest)
		src, err = sourceFromInterfaces(dest)
		if err != nil {
			return netip.Addr{}, err
		}
	}
	return normalizeLoopbackSource(dest, src), nil
}

// On macOS, dialing a loopback destination may report a non-loopback source.
func normalizeLoopbackSource(dest, src netip.Addr) netip.Addr {
	if dest.IsLoopback() && !src.IsLoopback() {
		if dest.Is4() {
			return netip.AddrFrom4([4]byte{127, 0, 0, 1})
		}
		return netip.IPv6Loopback()
	}
	return src
}

// isNetlinkOverflowError matches the ERANGE returned for interfaces with very
// large indices, as created by WireGuard.
func isNetlinkOverflowError(err error) bool {
	if err == nil {
		return false
	}
	if strings.Contains(err.Error(), "numerical result out of range") {
		return true
	}
	return errors.Is(err, syscall.ERANGE)
}

var interfaceAddrsFn = net.InterfaceAddrs

// sourceFromInterfaces picks an address of the same family as dest, preferring
// one whose subnet contains it. Loopback and link-local addresses only serve
// destinations of the same scope.
func sourceFromInterfaces(dest netip.Addr) (netip.Addr, error) {
	addrs, err := interfaceAddrsFn()
	if err != nil {
		return netip.Addr{}, fmt.Errorf("failed to enumerate interfaces: %w", err)
	}

	var fallback netip.Addr
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		prefix, err := netip.ParsePrefix(ipNet.String())
		if err != nil {
			continue
		}
		addr := prefix.Addr().Unmap()
		if addr.Is4() != dest.Is4() {
			continue
		}
		if addr.IsLoopback() && !dest.IsLoopback() {
			continue
		}
		// a link-local source cannot reach beyond its link
		if addr.IsLinkLocalUnicast() && !dest.IsLinkLocalUnicast() {
			continue
		}
		if prefix.Contains(dest) {
			return addr, nil
		}
		if !fallback.IsValid() {
			fallback = addr
		}
	}
	if !fallback.IsValid() {
		return netip.Addr{}, fmt.Errorf("no suitable network interface found for destination %s", dest)
	}
	return fallback, nil
}
