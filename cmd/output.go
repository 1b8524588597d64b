// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/DataDog/datadog-geotrace/result"
	"github.com/DataDog/datadog-geotrace/traceroute"
)

func printHeader(w io.Writer, params traceroute.TracerouteParams) {
	fmt.Fprintf(w, "traceroute to %s, %d hops max, %s per probe\n", params.Hostname, params.MaxTTL, params.Timeout)
}

// formatHop renders one line of the hop table. Enrichment is not known yet
// when hops are streamed, so only the TTL, address and RTT appear.
func formatHop(hop result.TracerouteHop) string {
	line := fmt.Sprintf("%3d  %-15s  %8.3f ms", hop.TTL, hop.IP, hop.RTT)
	if len(hop.ReverseDns) > 0 {
		line += "  " + strings.Join(hop.ReverseDns, ", ")
	}
	return line
}

func printSummary(w io.Writer, r *result.Results) {
	status := "reached"
	if !r.Destination.Reached {
		status = "not reached"
	}
	fmt.Fprintf(w, "\n%s (%s) %s: %d hops answered, %d silent",
		r.Destination.Hostname, r.Destination.IP, status, r.Stats.HopCount, r.Stats.UnresponsiveTTLs)
	if r.Stats.HopCount > 0 {
		fmt.Fprintf(w, ", rtt min/avg/max %.3f/%.3f/%.3f ms", r.Stats.RTT.Min, r.Stats.RTT.Avg, r.Stats.RTT.Max)
	}
	fmt.Fprintln(w)

	for _, hop := range r.Hops {
		if len(hop.ReverseDns) == 0 && hop.Location == nil {
			continue
		}
		fmt.Fprintf(w, "%3d  %-15s", hop.TTL, hop.IP)
		if hop.Location != nil {
			fmt.Fprintf(w, "  (%.4f, %.4f)", hop.Location.Latitude, hop.Location.Longitude)
		}
		if len(hop.ReverseDns) > 0 {
			fmt.Fprintf(w, "  %s", strings.Join(hop.ReverseDns, ", "))
		}
		fmt.Fprintln(w)
	}
}

func printJSON(w io.Writer, r *result.Results) error {
	jsonStr, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("JSON marshalling failed: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonStr))
	return err
}
