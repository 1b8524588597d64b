// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package icmpecho

import (
	"context"
	"errors"
	"iter"

	"github.com/DataDog/datadog-geotrace/log"
)

// Next probes successive TTLs until one yields a hop or the session ends.
// Unresponsive TTLs are skipped silently. A terminal error (ErrTransport or
// ErrTooManyHops) is returned exactly once; every later call returns ErrDone.
// After an Echo Reply from the target the session is done as well.
func (s *Session) Next() (Hop, error) {
	return s.NextContext(context.Background())
}

// NextContext is Next with ctx checked before each TTL is sent.
// A cancelled ctx ends the session and its error is returned once.
func (s *Session) NextContext(ctx context.Context) (Hop, error) {
	for s.state == stateActive {
		if err := ctx.Err(); err != nil {
			s.finish()
			return Hop{}, err
		}
		hop, outcome, err := s.step()
		if err != nil {
			s.finish()
			return Hop{}, err
		}
		switch outcome {
		case outcomeReached:
			s.finish()
			return hop, nil
		case outcomeHop:
			return hop, nil
		}
	}
	return Hop{}, ErrDone
}

// Hops ranges over the remaining hops. The session is closed when the loop
// ends, including on break. A terminal error is yielded as the last item.
func (s *Session) Hops() iter.Seq2[Hop, error] {
	return func(yield func(Hop, error) bool) {
		defer s.Close()
		for {
			hop, err := s.Next()
			if errors.Is(err, ErrDone) {
				return
			}
			if !yield(hop, err) || err != nil {
				return
			}
		}
	}
}

// Close ends the session and releases its socket. It is safe to call twice.
func (s *Session) Close() error {
	if s.state == stateDone {
		return nil
	}
	s.state = stateDone
	return s.conn.Close()
}

func (s *Session) finish() {
	if err := s.Close(); err != nil {
		log.Debugf("failed to close raw socket: %s", err)
	}
}
