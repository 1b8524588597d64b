// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package icmpecho

import (
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/DataDog/datadog-geotrace/log"
	"github.com/DataDog/datadog-geotrace/packets"
	"github.com/DataDog/datadog-geotrace/transport"
)

type stepOutcome int

const (
	// no reply before the deadline, the TTL is skipped
	outcomeSilent stepOutcome = iota
	// a router answered with Time Exceeded
	outcomeHop
	// the target answered with Echo Reply
	outcomeReached
)

type probeData struct {
	sendTime time.Time
	ttl      uint8
	token    packets.Token
}

// step sends one probe with the next TTL and waits up to the session timeout
// for a reply that carries its token.
func (s *Session) step() (Hop, stepOutcome, error) {
	s.seq++
	s.ttl++

	probe := packets.BuildProbe(s.identifier, s.seq)
	if err := s.conn.SetTTL(s.ttl); err != nil {
		return Hop{}, outcomeSilent, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	n, err := s.conn.SendTo(probe[:], s.target)
	if err != nil {
		return Hop{}, outcomeSilent, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if n != len(probe) {
		return Hop{}, outcomeSilent, fmt.Errorf("%w: short write, sent %d of %d bytes", ErrTransport, n, len(probe))
	}

	sent := probeData{
		sendTime: s.now(),
		ttl:      s.ttl,
		token:    packets.ProbeToken(probe),
	}
	log.Tracef("sent ICMP probe ttl=%d id=%d seq=%d", s.ttl, s.identifier, s.seq)

	deadline := sent.sendTime.Add(s.timeout)
	for {
		remaining := deadline.Sub(s.now())
		if remaining <= 0 {
			break
		}
		if err := s.conn.SetReceiveTimeout(remaining); err != nil {
			return Hop{}, outcomeSilent, fmt.Errorf("%w: %w", ErrTransport, err)
		}
		from, buf, err := s.conn.Receive(recvBufSize)
		if errors.Is(err, transport.ErrWouldBlock) {
			continue
		}
		if err != nil {
			return Hop{}, outcomeSilent, fmt.Errorf("%w: %w", ErrTransport, err)
		}

		outcome := s.handleReply(from, buf, sent)
		switch outcome {
		case outcomeReached:
			hop := s.makeHop(from, sent)
			hop.Reached = true
			return hop, outcomeReached, nil
		case outcomeHop:
			if s.ttl >= s.maxTTL {
				return Hop{}, outcomeSilent, fmt.Errorf("%w: no reply from %s within %d hops", ErrTooManyHops, s.target, s.maxTTL)
			}
			return s.makeHop(from, sent), outcomeHop, nil
		}
	}

	log.Tracef("no reply for ttl=%d within %s", s.ttl, s.timeout)
	if s.ttl >= s.maxTTL {
		return Hop{}, outcomeSilent, fmt.Errorf("%w: no reply from %s within %d hops", ErrTooManyHops, s.target, s.maxTTL)
	}
	return Hop{}, outcomeSilent, nil
}

func (s *Session) makeHop(from netip.Addr, sent probeData) Hop {
	return Hop{
		TTL:  sent.ttl,
		Host: from,
		RTT:  s.now().Sub(sent.sendTime),
	}
}

// handleReply classifies one datagram read from the raw socket. Malformed and
// foreign packets are dropped with outcomeSilent. Reply checksums are not
// verified.
func (s *Session) handleReply(from netip.Addr, buf []byte, sent probeData) stepOutcome {
	log.TraceFunc(func() string {
		return fmt.Sprintf("received %d bytes from %s:\n%s", len(buf), from, packets.DumpIPv4(buf))
	})

	body, err := packets.StripIPv4Header(buf)
	if err != nil {
		log.Tracef("dropping datagram from %s: %s", from, err)
		return outcomeSilent
	}
	msg, err := packets.ParseICMPMessage(body)
	if err != nil {
		log.Tracef("dropping ICMP message from %s: %s", from, err)
		return outcomeSilent
	}

	switch m := msg.(type) {
	case *packets.EchoReply:
		if m.Token() != sent.token {
			log.Tracef("ignored Echo Reply from %s with mismatched token: expected id=%d seq=%d, actual id=%d seq=%d",
				from, sent.token.ID(), sent.token.Seq(), m.Token().ID(), m.Token().Seq())
			return outcomeSilent
		}
		return outcomeReached
	case *packets.TimeExceeded:
		tok, ok := m.OriginalToken()
		if !ok || tok != sent.token {
			log.Tracef("ignored Time Exceeded from %s not quoting ttl=%d probe", from, sent.ttl)
			return outcomeSilent
		}
		return outcomeHop
	default:
		log.Tracef("ignored ICMP type=%d code=%d from %s", m.ICMPHeader().Type, m.ICMPHeader().Code, from)
		return outcomeSilent
	}
}
