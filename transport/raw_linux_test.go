// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

//go:build test && linux

package transport

import (
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/datadog-geotrace/packets"
	"github.com/DataDog/datadog-geotrace/testutils"
)

func TestRawConnLoopbackEcho(t *testing.T) {
	ns := testutils.LoopbackNS(t)
	loopback := netip.MustParseAddr("127.0.0.1")

	err := testutils.WithNS(ns, func() error {
		conn, err := NewRawConn()
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.SetTTL(64))
		require.NoError(t, conn.SetReceiveTimeout(time.Second))

		probe := packets.BuildProbe(0x5151, 1)
		n, err := conn.SendTo(probe[:], loopback)
		require.NoError(t, err)
		require.Equal(t, packets.ProbeLen, n)

		// the kernel loops our own request back before answering it
		for i := 0; i < 4; i++ {
			from, buf, err := conn.Receive(4096)
			require.NoError(t, err)
			body, err := packets.StripIPv4Header(buf)
			require.NoError(t, err)
			msg, err := packets.ParseICMPMessage(body)
			require.NoError(t, err)
			if reply, ok := msg.(*packets.EchoReply); ok {
				assert.Equal(t, loopback, from)
				assert.Equal(t, packets.ProbeToken(probe), reply.Token())
				return nil
			}
		}
		return errors.New("no echo reply received")
	})
	require.NoError(t, err)
}

func TestRawConnReceiveTimeout(t *testing.T) {
	ns := testutils.LoopbackNS(t)

	err := testutils.WithNS(ns, func() error {
		conn, err := NewRawConn()
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.SetReceiveTimeout(20*time.Millisecond))
		start := time.Now()
		_, _, err = conn.Receive(4096)
		assert.ErrorIs(t, err, ErrWouldBlock)
		assert.Less(t, time.Since(start), time.Second)
		return nil
	})
	require.NoError(t, err)
}
