// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

// Package transport wraps the raw ICMP socket used to send probes and read
// the replies they provoke.
package transport

//go:generate mockgen -source=transport.go -destination=mock_conn.go -package=transport

import (
	"errors"
	"fmt"
	"net/netip"
	"time"
)

// ErrWouldBlock is returned by Receive when the receive timeout elapsed with
// no datagram available.
var ErrWouldBlock = errors.New("receive timed out")

// ErrUnsupported is returned by NewRawConn on platforms without raw ICMP sockets.
var ErrUnsupported = errors.New("raw ICMP sockets are not supported on this platform")

// PermissionError means the process lacks the privilege to open a raw socket
// (root or CAP_NET_RAW on linux). It is never worth retrying.
type PermissionError struct {
	Err error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("opening a raw ICMP socket requires elevated privileges: %s", e.Err)
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}

// Conn is a raw, unbound IPv4 ICMP socket. Datagrams returned by Receive
// start at the IPv4 header.
type Conn interface {
	// SendTo writes an ICMP message to dest and returns the number of bytes sent.
	SendTo(probe []byte, dest netip.Addr) (int, error)
	// SetTTL sets the IP TTL of subsequent outgoing datagrams.
	SetTTL(ttl uint8) error
	// SetReceiveTimeout bounds how long the next Receive may block.
	SetReceiveTimeout(d time.Duration) error
	// Receive reads one datagram of at most bufSize bytes.
	Receive(bufSize int) (netip.Addr, []byte, error)
	Close() error
}

// minReceiveTimeout keeps tiny budgets from rounding down to a zero timeval,
// which the kernel treats as "block forever".
const minReceiveTimeout = time.Microsecond

func clampReceiveTimeout(d time.Duration) time.Duration {
	if d < minReceiveTimeout {
		return minReceiveTimeout
	}
	return d
}
