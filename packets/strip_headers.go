// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package packets

import (
	"errors"
	"fmt"

	"golang.org/x/net/ipv4"
)

// ErrMalformed is returned for datagrams too short to hold the headers they
// declare. Callers drop such packets and keep reading.
var ErrMalformed = errors.New("malformed packet")

// StripIPv4Header removes the IPv4 header from buf using the header length in
// the IHL nibble. The buffer may be truncated after the header, which is the
// case for the original datagram quoted inside ICMP errors.
func StripIPv4Header(buf []byte) ([]byte, error) {
	if len(buf) < 1 {
		return nil, fmt.Errorf("stripIPv4Header: empty buffer: %w", ErrMalformed)
	}
	hdrLen := int(buf[0]&0x0f) * 4
	if hdrLen < ipv4.HeaderLen {
		return nil, fmt.Errorf("stripIPv4Header: header length %d below minimum %d: %w", hdrLen, ipv4.HeaderLen, ErrMalformed)
	}
	if hdrLen > len(buf) {
		return nil, fmt.Errorf("stripIPv4Header: header length %d exceeds buffer of %d bytes: %w", hdrLen, len(buf), ErrMalformed)
	}
	return buf[hdrLen:], nil
}
