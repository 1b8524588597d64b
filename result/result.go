// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

// Package result holds the JSON document produced by a traceroute run.
package result

import (
	"net/netip"
	"slices"
)

type (
	// Results of a single traceroute toward one destination.
	Results struct {
		TracerouteID string           `json:"traceroute_id"`
		Protocol     string           `json:"protocol"`
		Params       Params           `json:"params"`
		Source       Source           `json:"source"`
		Destination  Destination      `json:"destination"`
		Hops         []*TracerouteHop `json:"hops"`
		Stats        Stats            `json:"stats"`
		Tags         []string         `json:"tags,omitempty"`
	}

	// Params echoes the request that produced the results.
	Params struct {
		Hostname  string `json:"hostname"`
		TimeoutMs int64  `json:"timeout_ms"`
		MaxTTL    int    `json:"max_ttl"`
	}

	// Location is a WGS84 coordinate.
	Location struct {
		Latitude  float64 `json:"lat"`
		Longitude float64 `json:"lon"`
	}

	Source struct {
		IP       netip.Addr `json:"ip"`
		PublicIP string     `json:"public_ip,omitempty"`
		Location *Location  `json:"location,omitempty"`
	}

	Destination struct {
		Hostname   string     `json:"hostname"`
		IP         netip.Addr `json:"ip"`
		Reached    bool       `json:"reached"`
		ReverseDns []string   `json:"reverse_dns,omitempty"`
		Location   *Location  `json:"location,omitempty"`
	}

	// TracerouteHop is a router or the destination that answered a probe.
	TracerouteHop struct {
		TTL        int        `json:"ttl"`
		IP         netip.Addr `json:"ip"`
		RTT        float64    `json:"rtt_ms"`
		ReverseDns []string   `json:"reverse_dns,omitempty"`
		Location   *Location  `json:"location,omitempty"`
		IsDest     bool       `json:"is_dest"`
	}

	RTTStats struct {
		Avg float64 `json:"avg"`
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	}

	// Stats is computed by Normalize over every hop that answered. Only
	// HopCount follows a later RemovePrivateHops.
	Stats struct {
		HopCount         int      `json:"hop_count"`
		UnresponsiveTTLs int      `json:"unresponsive_ttls"`
		RTT              RTTStats `json:"rtt_ms"`
	}
)

// NewResults starts a result document with a fresh ID.
func NewResults(protocol string, params Params) *Results {
	return &Results{
		TracerouteID: newBase64UUID(),
		Protocol:     protocol,
		Params:       params,
		Destination:  Destination{Hostname: params.Hostname},
	}
}

// Normalize sorts hops by TTL and computes Stats. TTLs below the last hop
// that produced no answer are counted as unresponsive.
func (r *Results) Normalize() {
	slices.SortStableFunc(r.Hops, func(a, b *TracerouteHop) int {
		return a.TTL - b.TTL
	})

	var stats Stats
	stats.HopCount = len(r.Hops)
	if len(r.Hops) > 0 {
		stats.UnresponsiveTTLs = r.Hops[len(r.Hops)-1].TTL - len(r.Hops)

		var total float64
		stats.RTT.Min = r.Hops[0].RTT
		for _, hop := range r.Hops {
			total += hop.RTT
			stats.RTT.Min = min(stats.RTT.Min, hop.RTT)
			stats.RTT.Max = max(stats.RTT.Max, hop.RTT)
		}
		stats.RTT.Avg = total / float64(len(r.Hops))
	}
	r.Stats = stats
}

// DestinationHop returns the hop that answered from the destination address.
func (r *Results) DestinationHop() *TracerouteHop {
	for _, hop := range r.Hops {
		if hop.IsDest {
			return hop
		}
	}
	return nil
}

// RemovePrivateHops drops hops answering from private, loopback or link-local
// addresses. The destination hop is always kept. Stats.HopCount is updated
// to the remaining hops.
func (r *Results) RemovePrivateHops() {
	r.Hops = slices.DeleteFunc(r.Hops, func(hop *TracerouteHop) bool {
		if hop.IsDest {
			return false
		}
		return isPrivate(hop.IP)
	})
	r.Stats.HopCount = len(r.Hops)
}

func isPrivate(addr netip.Addr) bool {
	return addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast() || isSharedAddressSpace(addr)
}

// 100.64.0.0/10, carrier-grade NAT
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

func isSharedAddressSpace(addr netip.Addr) bool {
	return sharedAddressSpace.Contains(addr)
}

// Path lists the known coordinates in encounter order, starting with the
// source when it has been located. Hops without a location are skipped.
func (r *Results) Path() []Location {
	var path []Location
	if r.Source.Location != nil {
		path = append(path, *r.Source.Location)
	}
	for _, hop := range r.Hops {
		if hop.Location != nil {
			path = append(path, *hop.Location)
		}
	}
	return path
}
