// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package icmpecho

import (
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/datadog-geotrace/packets"
	"github.com/DataDog/datadog-geotrace/transport"
)

const testIdentifier = 0x6461

var (
	localIP  = netip.MustParseAddr("192.0.2.1")
	targetIP = netip.MustParseAddr("203.0.113.50")
)

func routerIP(ttl uint8) netip.Addr {
	return netip.AddrFrom4([4]byte{198, 51, 100, ttl})
}

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// reply is delivered by scriptedConn after delay has elapsed on the clock.
type reply struct {
	from  netip.Addr
	buf   []byte
	err   error
	delay time.Duration
}

// scriptedConn plays back replies keyed by the TTL currently set. When the
// script for a TTL is exhausted, Receive burns the whole receive timeout.
type scriptedConn struct {
	clock   *fakeClock
	script  map[uint8][]reply
	ttl     uint8
	timeout time.Duration

	probes  [][]byte
	ttls    []uint8
	dests   []netip.Addr
	closed  int
	sendErr error
}

var _ transport.Conn = &scriptedConn{}

func newScriptedConn(clock *fakeClock) *scriptedConn {
	return &scriptedConn{clock: clock, script: map[uint8][]reply{}}
}

func (c *scriptedConn) on(ttl uint8, r ...reply) *scriptedConn {
	c.script[ttl] = append(c.script[ttl], r...)
	return c
}

func (c *scriptedConn) SendTo(probe []byte, dest netip.Addr) (int, error) {
	if c.sendErr != nil {
		return 0, c.sendErr
	}
	c.probes = append(c.probes, append([]byte(nil), probe...))
	c.dests = append(c.dests, dest)
	return len(probe), nil
}

func (c *scriptedConn) SetTTL(ttl uint8) error {
	c.ttl = ttl
	c.ttls = append(c.ttls, ttl)
	return nil
}

func (c *scriptedConn) SetReceiveTimeout(d time.Duration) error {
	c.timeout = d
	return nil
}

func (c *scriptedConn) Receive(int) (netip.Addr, []byte, error) {
	queue := c.script[c.ttl]
	if len(queue) == 0 {
		c.clock.Advance(c.timeout)
		return netip.Addr{}, nil, transport.ErrWouldBlock
	}
	r := queue[0]
	c.script[c.ttl] = queue[1:]
	c.clock.Advance(r.delay)
	return r.from, r.buf, r.err
}

func (c *scriptedConn) Close() error {
	c.closed++
	return nil
}

func serializeLayers(t *testing.T, ls ...gopacket.SerializableLayer) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, ls...))
	return buf.Bytes()
}

func ipLayer(src, dst netip.Addr) *layers.IPv4 {
	return &layers.IPv4{
		Version:  4,
		TTL:      42,
		Id:       1234,
		Protocol: layers.IPProtocolICMPv4,
		SrcIP:    net.IP(src.AsSlice()),
		DstIP:    net.IP(dst.AsSlice()),
	}
}

func mockEchoReply(t *testing.T, from netip.Addr, id, seq uint16) []byte {
	return serializeLayers(t,
		ipLayer(from, localIP),
		&layers.ICMPv4{
			TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoReply, 0),
			Id:       id,
			Seq:      seq,
		},
	)
}

func mockTTLExceeded(t *testing.T, from netip.Addr, id, seq uint16) []byte {
	probe := packets.BuildProbe(id, seq)
	return serializeLayers(t,
		ipLayer(from, localIP),
		&layers.ICMPv4{
			TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeTimeExceeded, layers.ICMPv4CodeTTLExceeded),
		},
		ipLayer(localIP, targetIP),
		gopacket.Payload(probe[:]),
	)
}

func newTestSession(t *testing.T, conn transport.Conn, clock *fakeClock, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{
		WithConn(conn),
		WithIdentifier(testIdentifier),
		WithClock(clock.Now),
	}, opts...)
	s, err := NewSession(t.Context(), targetIP.String(), time.Second, opts...)
	require.NoError(t, err)
	return s
}

func collect(s *Session) ([]Hop, error) {
	var hops []Hop
	for hop, err := range s.Hops() {
		if err != nil {
			return hops, err
		}
		hops = append(hops, hop)
	}
	return hops, nil
}

func mockUnreachable() *layers.ICMPv4 {
	return &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeDestinationUnreachable, layers.ICMPv4CodePort),
	}
}
