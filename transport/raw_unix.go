// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

//go:build linux || darwin

package transport

import (
	"errors"
	"fmt"
	"net/netip"
	"time"

	"golang.org/x/sys/unix"

	"github.com/DataDog/datadog-geotrace/log"
)

type rawConn struct {
	fd int
}

var _ Conn = &rawConn{}

// NewRawConn opens an unbound AF_INET/SOCK_RAW/IPPROTO_ICMP socket.
func NewRawConn() (Conn, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_RAW, unix.IPPROTO_ICMP)
	if err != nil {
		if errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES) {
			return nil, &PermissionError{Err: err}
		}
		return nil, fmt.Errorf("failed to create raw socket: %w", err)
	}
	unix.CloseOnExec(fd)

	if err := attachFilter(fd, echoReplyFilter); err != nil {
		log.Debugf("continuing without socket filter: %s", err)
	}
	return &rawConn{fd: fd}, nil
}

func (c *rawConn) SendTo(probe []byte, dest netip.Addr) (int, error) {
	if !dest.Is4() {
		return 0, fmt.Errorf("SendTo: %s is not an IPv4 address", dest)
	}
	sa := &unix.SockaddrInet4{Addr: dest.As4()}
	for {
		n, err := unix.SendmsgN(c.fd, probe, nil, sa, 0)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return n, fmt.Errorf("failed to send probe to %s: %w", dest, err)
		}
		return n, nil
	}
}

func (c *rawConn) SetTTL(ttl uint8) error {
	if err := unix.SetsockoptInt(c.fd, unix.IPPROTO_IP, unix.IP_TTL, int(ttl)); err != nil {
		return fmt.Errorf("failed to set IP_TTL=%d: %w", ttl, err)
	}
	return nil
}

func (c *rawConn) SetReceiveTimeout(d time.Duration) error {
	tv := unix.NsecToTimeval(clampReceiveTimeout(d).Nanoseconds())
	if err := unix.SetsockoptTimeval(c.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		return fmt.Errorf("failed to set SO_RCVTIMEO=%s: %w", d, err)
	}
	return nil
}

func (c *rawConn) Receive(bufSize int) (netip.Addr, []byte, error) {
	buf := make([]byte, bufSize)
	for {
		n, from, err := unix.Recvfrom(c.fd, buf, 0)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EWOULDBLOCK):
			return netip.Addr{}, nil, ErrWouldBlock
		case err != nil:
			return netip.Addr{}, nil, fmt.Errorf("failed to receive: %w", err)
		}

		var addr netip.Addr
		if sa, ok := from.(*unix.SockaddrInet4); ok {
			addr = netip.AddrFrom4(sa.Addr)
		}
		return addr, buf[:n], nil
	}
}

func (c *rawConn) Close() error {
	if c.fd < 0 {
		return nil
	}
	err := unix.Close(c.fd)
	c.fd = -1
	return err
}
