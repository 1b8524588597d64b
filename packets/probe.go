// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package packets

import (
	"encoding/binary"

	"golang.org/x/net/ipv4"
)

// ProbeLen is the size of an Echo Request probe, which carries no payload.
const ProbeLen = 8

// Token is the identifier and sequence number of an ICMP Echo message as it
// appears on the wire (bytes 4 to 7). Replies are matched on it.
type Token [4]byte

// NewToken encodes an identifier and sequence number.
func NewToken(id, seq uint16) Token {
	var t Token
	binary.BigEndian.PutUint16(t[0:2], id)
	binary.BigEndian.PutUint16(t[2:4], seq)
	return t
}

func (t Token) ID() uint16 {
	return binary.BigEndian.Uint16(t[0:2])
}

func (t Token) Seq() uint16 {
	return binary.BigEndian.Uint16(t[2:4])
}

// BuildProbe serializes an ICMP Echo Request with the given identifier and
// sequence number and fills in its checksum.
func BuildProbe(id, seq uint16) [ProbeLen]byte {
	var probe [ProbeLen]byte
	probe[0] = byte(ipv4.ICMPTypeEcho)
	probe[1] = 0
	token := NewToken(id, seq)
	copy(probe[4:8], token[:])
	binary.BigEndian.PutUint16(probe[2:4], Checksum(probe[:]))
	return probe
}

// ProbeToken returns the correlation token carried by a probe.
func ProbeToken(probe [ProbeLen]byte) Token {
	var t Token
	copy(t[:], probe[4:8])
	return t
}
