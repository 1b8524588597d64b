// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package common

import (
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Public IPs arrive as net.IP from the fetcher and route sources as raw
// netlink bytes. Both must come out as plain addresses usable for lookups.
func TestUnmappedAddrFromSlice(t *testing.T) {
	tests := []struct {
		name   string
		input  []byte
		want   netip.Addr
		wantOK bool
	}{
		{
			name:   "parsed public IPv4 is unmapped",
			input:  net.ParseIP("203.0.113.7"),
			want:   netip.MustParseAddr("203.0.113.7"),
			wantOK: true,
		},
		{
			name:   "four byte route source",
			input:  net.ParseIP("192.0.2.20").To4(),
			want:   netip.MustParseAddr("192.0.2.20"),
			wantOK: true,
		},
		{
			name:   "public IPv6 kept as is",
			input:  net.ParseIP("2001:4860:4860::8888"),
			want:   netip.MustParseAddr("2001:4860:4860::8888"),
			wantOK: true,
		},
		{
			name: "empty fetcher body",
			want: netip.Addr{},
		},
		{
			name:  "truncated address",
			input: []byte{203, 0, 113},
			want:  netip.Addr{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := UnmappedAddrFromSlice(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			if ok {
				assert.False(t, got.Is4In6(), "%s still mapped", got)
			}
		})
	}
}
