// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

// Package packets builds ICMP Echo probes and decodes the ICMP messages that
// come back on a raw IPv4 socket.
package packets

// Checksum computes the RFC 1071 Internet checksum of buf. Words are read
// big-endian and an odd trailing byte is treated as the high byte of a final
// word. Running it over a message that already carries a valid checksum
// yields 0.
func Checksum(buf []byte) uint16 {
	var sum uint32
	n := len(buf)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(buf[i])<<8 | uint32(buf[i+1])
	}
	if n%2 == 1 {
		sum += uint32(buf[n-1]) << 8
	}
	for sum>>16 != 0 {
		sum = (sum & 0xffff) + (sum >> 16)
	}
	return ^uint16(sum)
}
