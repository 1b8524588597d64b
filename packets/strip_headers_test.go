// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package packets

import (
	"testing"

	"github.com/google/gopacket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripIPv4Header(t *testing.T) {
	t.Run("empty buffer", func(t *testing.T) {
		_, err := StripIPv4Header(nil)
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("ihl below 20 bytes", func(t *testing.T) {
		buf := make([]byte, 40)
		buf[0] = 0x44
		_, err := StripIPv4Header(buf)
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("ihl beyond buffer", func(t *testing.T) {
		// IHL=15 declares 60 bytes
		buf := make([]byte, 40)
		buf[0] = 0x4f
		_, err := StripIPv4Header(buf)
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("header only", func(t *testing.T) {
		buf := make([]byte, 20)
		buf[0] = 0x45
		payload, err := StripIPv4Header(buf)
		require.NoError(t, err)
		assert.Empty(t, payload)
	})

	t.Run("with options", func(t *testing.T) {
		buf := make([]byte, 28)
		buf[0] = 0x46
		buf[24] = 0xaa
		payload, err := StripIPv4Header(buf)
		require.NoError(t, err)
		assert.Equal(t, []byte{0xaa, 0, 0, 0}, payload)
	})

	t.Run("serialized datagram", func(t *testing.T) {
		buf := serialize(t, ipv4Layer("10.0.0.1", "10.0.0.2"), gopacket.Payload{1, 2, 3})
		payload, err := StripIPv4Header(buf)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, payload)
	})
}
