// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

// Package icmpecho runs an ICMP Echo traceroute one TTL at a time over a raw
// IPv4 socket and hands back the discovered hops lazily.
package icmpecho

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/netip"
	"time"

	"github.com/DataDog/datadog-geotrace/log"
	"github.com/DataDog/datadog-geotrace/transport"
)

// DefaultMaxTTL is the largest TTL an IPv4 header can carry.
const DefaultMaxTTL = 255

const recvBufSize = 4096

var (
	// ErrInvalidInput is returned for a non-positive timeout, a bad max TTL or
	// a target that does not resolve to an IPv4 address.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTransport wraps any failure of the raw socket. It ends the session.
	ErrTransport = errors.New("transport error")
	// ErrTooManyHops ends a session whose TTL reached the maximum without an
	// Echo Reply from the target.
	ErrTooManyHops = errors.New("too many hops")
	// ErrDone is returned by Next once the session is finished.
	ErrDone = errors.New("traceroute session is done")
)

// Hop is one router (or the target) that answered a probe.
type Hop struct {
	TTL  uint8
	Host netip.Addr
	RTT  time.Duration
	// Reached is set when the hop answered with an Echo Reply.
	Reached bool
}

type sessionState int

const (
	stateActive sessionState = iota
	stateDone
)

// Session is a single traceroute toward one target. It is not safe for
// concurrent use.
type Session struct {
	target     netip.Addr
	identifier uint16
	ttl        uint8
	seq        uint16
	timeout    time.Duration
	maxTTL     uint8

	conn  transport.Conn
	state sessionState
	now   func() time.Time
}

// Option customizes a Session.
type Option func(*sessionConfig)

type sessionConfig struct {
	maxTTL     int
	conn       transport.Conn
	identifier *uint16
	now        func() time.Time
}

// WithMaxTTL stops the session with ErrTooManyHops once this TTL has been probed.
func WithMaxTTL(maxTTL int) Option {
	return func(c *sessionConfig) { c.maxTTL = maxTTL }
}

// WithConn makes the session use conn instead of opening a raw socket. The
// session takes ownership and closes it when done.
func WithConn(conn transport.Conn) Option {
	return func(c *sessionConfig) { c.conn = conn }
}

// WithIdentifier fixes the ICMP identifier instead of drawing a random one.
func WithIdentifier(id uint16) Option {
	return func(c *sessionConfig) { c.identifier = &id }
}

// WithClock replaces time.Now for deadline and RTT computation.
func WithClock(now func() time.Time) Option {
	return func(c *sessionConfig) { c.now = now }
}

var openConn = transport.NewRawConn

var lookupIPv4 = func(ctx context.Context, host string) ([]netip.Addr, error) {
	return net.DefaultResolver.LookupNetIP(ctx, "ip4", host)
}

// NewSession validates its inputs, resolves target to an IPv4 address and
// opens the raw socket. target may carry a port, which is ignored. ctx only
// bounds name resolution. A connection supplied with WithConn is closed when
// NewSession fails.
func NewSession(ctx context.Context, target string, timeout time.Duration, opts ...Option) (*Session, error) {
	cfg := sessionConfig{maxTTL: DefaultMaxTTL, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	fail := func(err error) (*Session, error) {
		if cfg.conn != nil {
			if closeErr := cfg.conn.Close(); closeErr != nil {
				log.Debugf("failed to close supplied connection: %s", closeErr)
			}
		}
		return nil, err
	}

	if timeout <= 0 {
		return fail(fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidInput, timeout))
	}
	if cfg.maxTTL < 1 || cfg.maxTTL > DefaultMaxTTL {
		return fail(fmt.Errorf("%w: max TTL must be within [1, %d], got %d", ErrInvalidInput, DefaultMaxTTL, cfg.maxTTL))
	}

	addr, err := resolveTarget(ctx, target)
	if err != nil {
		return fail(err)
	}

	conn := cfg.conn
	if conn == nil {
		conn, err = openConn()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransport, err)
		}
	}

	id := uint16(rand.Uint32())
	if cfg.identifier != nil {
		id = *cfg.identifier
	}

	log.Debugf("starting ICMP traceroute to %s (%s) identifier=%d timeout=%s max_ttl=%d", target, addr, id, timeout, cfg.maxTTL)
	return &Session{
		target:     addr,
		identifier: id,
		timeout:    timeout,
		maxTTL:     uint8(cfg.maxTTL),
		conn:       conn,
		state:      stateActive,
		now:        cfg.now,
	}, nil
}

// Target is the resolved destination address.
func (s *Session) Target() netip.Addr {
	return s.target
}

// Identifier is the ICMP identifier stamped on every probe of this session.
func (s *Session) Identifier() uint16 {
	return s.identifier
}

// TTL is the TTL of the last probe sent, 0 before the first one.
func (s *Session) TTL() uint8 {
	return s.ttl
}

// Done reports whether the session has reached its terminal state.
func (s *Session) Done() bool {
	return s.state == stateDone
}

func resolveTarget(ctx context.Context, target string) (netip.Addr, error) {
	host := target
	if h, _, err := net.SplitHostPort(target); err == nil {
		host = h
	}
	if host == "" {
		return netip.Addr{}, fmt.Errorf("%w: empty target", ErrInvalidInput)
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		addr = addr.Unmap()
		if !addr.Is4() {
			return netip.Addr{}, fmt.Errorf("%w: %s is not an IPv4 address", ErrInvalidInput, addr)
		}
		return addr, nil
	}

	addrs, err := lookupIPv4(ctx, host)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: could not resolve %q: %w", ErrInvalidInput, host, err)
	}
	for _, addr := range addrs {
		if addr = addr.Unmap(); addr.Is4() {
			return addr, nil
		}
	}
	return netip.Addr{}, fmt.Errorf("%w: %q has no IPv4 address", ErrInvalidInput, host)
}
