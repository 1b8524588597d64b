// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package reversedns

import (
	"context"
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubLookup(t *testing.T, names []string, err error) *[]string {
	var queried []string
	LookupAddrFn = func(_ context.Context, addr string) ([]string, error) {
		queried = append(queried, addr)
		return names, err
	}
	t.Cleanup(func() { LookupAddrFn = defaultLookupAddr })
	return &queried
}

func TestGetReverseDnsForIP(t *testing.T) {
	tests := []struct {
		name      string
		addr      netip.Addr
		names     []string
		lookupErr error
		want      []string
		wantErr   string
	}{
		{
			name:  "trailing dots are trimmed",
			addr:  netip.MustParseAddr("1.1.1.1"),
			names: []string{"one.one.one.one."},
			want:  []string{"one.one.one.one"},
		},
		{
			name:  "several names",
			addr:  netip.MustParseAddr("8.8.8.8"),
			names: []string{"dns.google.", "google-public-dns-a.google.com"},
			want:  []string{"dns.google", "google-public-dns-a.google.com"},
		},
		{
			name:  "no names",
			addr:  netip.MustParseAddr("192.0.2.1"),
			names: nil,
			want:  []string{},
		},
		{
			name:      "lookup error",
			addr:      netip.MustParseAddr("192.0.2.1"),
			lookupErr: errors.New("no such host"),
			wantErr:   "failed to get reverse dns: no such host",
		},
		{
			name:    "invalid address",
			addr:    netip.Addr{},
			wantErr: "invalid IP address",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queried := stubLookup(t, tt.names, tt.lookupErr)

			got, err := GetReverseDnsForIP(context.Background(), tt.addr)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []string{tt.addr.String()}, *queried)
		})
	}
}

func TestGetReverseDnsHasDeadline(t *testing.T) {
	var deadline time.Time
	LookupAddrFn = func(ctx context.Context, _ string) ([]string, error) {
		deadline, _ = ctx.Deadline()
		return nil, nil
	}
	t.Cleanup(func() { LookupAddrFn = defaultLookupAddr })

	_, err := GetReverseDns(context.Background(), "1.1.1.1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(reverseDnsDefaultTimeout), deadline, time.Second)
}
