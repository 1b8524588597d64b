// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package packets

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/net/ipv4"
)

// ICMPHeaderLen is the fixed part of every ICMP message.
const ICMPHeaderLen = 8

// ICMPHeader is the first 8 bytes of an ICMP message. Data holds bytes 4 to 7,
// which for Echo messages is the identifier and sequence number.
type ICMPHeader struct {
	Type     uint8
	Code     uint8
	Checksum uint16
	Data     Token
}

// ParseICMPHeader reads the fixed header. The checksum is not verified.
func ParseICMPHeader(buf []byte) (ICMPHeader, error) {
	if len(buf) < ICMPHeaderLen {
		return ICMPHeader{}, fmt.Errorf("parseICMPHeader: need %d bytes, got %d: %w", ICMPHeaderLen, len(buf), ErrMalformed)
	}
	h := ICMPHeader{
		Type:     buf[0],
		Code:     buf[1],
		Checksum: binary.BigEndian.Uint16(buf[2:4]),
	}
	copy(h.Data[:], buf[4:8])
	return h, nil
}

// ICMPMessage is one of *EchoReply, *TimeExceeded or *Unknown.
type ICMPMessage interface {
	ICMPHeader() ICMPHeader
	isICMPMessage()
}

// EchoReply answers one of our probes once the target is reached.
type EchoReply struct {
	Header   ICMPHeader
	Trailing []byte
}

// TimeExceeded is sent by a router that dropped a probe whose TTL expired.
// Original is the quoted datagram with its IP header already removed, so it
// starts at the ICMP header of the probe that triggered the error.
type TimeExceeded struct {
	Header   ICMPHeader
	Original []byte
}

// Unknown is any other ICMP type. It is never correlated to a probe.
type Unknown struct {
	Header ICMPHeader
}

func (m *EchoReply) ICMPHeader() ICMPHeader    { return m.Header }
func (m *TimeExceeded) ICMPHeader() ICMPHeader { return m.Header }
func (m *Unknown) ICMPHeader() ICMPHeader      { return m.Header }

func (*EchoReply) isICMPMessage()    {}
func (*TimeExceeded) isICMPMessage() {}
func (*Unknown) isICMPMessage()      {}

// Token returns the identifier and sequence number echoed back.
func (m *EchoReply) Token() Token {
	return m.Header.Data
}

// OriginalToken returns the identifier and sequence number of the probe that
// expired, if enough of it was quoted.
func (m *TimeExceeded) OriginalToken() (Token, bool) {
	var t Token
	if len(m.Original) < ICMPHeaderLen {
		return t, false
	}
	copy(t[:], m.Original[4:8])
	return t, true
}

// ParseICMPMessage classifies an ICMP message whose outer IP header has
// already been stripped. A Time Exceeded whose quoted datagram has an invalid
// IP header is reported as malformed.
func ParseICMPMessage(buf []byte) (ICMPMessage, error) {
	header, err := ParseICMPHeader(buf)
	if err != nil {
		return nil, err
	}
	payload := buf[ICMPHeaderLen:]

	switch ipv4.ICMPType(header.Type) {
	case ipv4.ICMPTypeEchoReply:
		return &EchoReply{Header: header, Trailing: payload}, nil
	case ipv4.ICMPTypeTimeExceeded:
		original, err := StripIPv4Header(payload)
		if err != nil {
			return nil, fmt.Errorf("time exceeded quotes an invalid datagram: %w", err)
		}
		return &TimeExceeded{Header: header, Original: original}, nil
	default:
		return &Unknown{Header: header}, nil
	}
}
