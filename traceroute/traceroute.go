// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

// Package traceroute drives an ICMP traceroute session to completion and
// enriches the hops with reverse DNS names, coordinates and the public
// address of the source.
package traceroute

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/DataDog/datadog-geotrace/common"
	"github.com/DataDog/datadog-geotrace/geo"
	"github.com/DataDog/datadog-geotrace/icmpecho"
	"github.com/DataDog/datadog-geotrace/localaddr"
	"github.com/DataDog/datadog-geotrace/log"
	"github.com/DataDog/datadog-geotrace/metrics"
	"github.com/DataDog/datadog-geotrace/publicip"
	"github.com/DataDog/datadog-geotrace/result"
	"github.com/DataDog/datadog-geotrace/reversedns"
)

const (
	protocolICMP = "icmp"
	tracerName   = "github.com/DataDog/datadog-geotrace/traceroute"
)

// HopFunc receives every hop as soon as it is discovered, before any
// enrichment. Returning an error stops the run.
type HopFunc func(hop result.TracerouteHop) error

type Traceroute struct {
	publicIPFetcher publicip.Fetcher
	locator         geo.Locator
	metrics         *metrics.Metrics
	tracer          trace.Tracer
	concurrency     int
	sourceFor       func(netip.Addr) (netip.Addr, error)
}

type Option func(*Traceroute)

// WithLocator enables geolocation through l for runs asking for it.
func WithLocator(l geo.Locator) Option {
	return func(t *Traceroute) { t.locator = l }
}

func WithPublicIPFetcher(f publicip.Fetcher) Option {
	return func(t *Traceroute) { t.publicIPFetcher = f }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Traceroute) { t.metrics = m }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(t *Traceroute) { t.tracer = tp.Tracer(tracerName) }
}

// WithEnrichConcurrency bounds the lookups running at the same time.
func WithEnrichConcurrency(n int) Option {
	return func(t *Traceroute) { t.concurrency = n }
}

func NewTraceroute(opts ...Option) *Traceroute {
	t := &Traceroute{
		publicIPFetcher: publicip.NewPublicIPFetcher(),
		concurrency:     common.DefaultEnrichConcurrency,
		sourceFor:       localaddr.SourceFor,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.tracer == nil {
		t.tracer = otel.Tracer(tracerName)
	}
	if t.concurrency < 1 {
		t.concurrency = 1
	}
	return t
}

// RunTraceroute traces the route to params.Hostname and returns the
// normalized results. Reaching the max TTL without an answer from the
// target is not an error: Destination.Reached is false instead.
func (t *Traceroute) RunTraceroute(ctx context.Context, params TracerouteParams) (*result.Results, error) {
	return t.Stream(ctx, params, nil)
}

// Stream is RunTraceroute with fn called for each hop as it arrives.
func (t *Traceroute) Stream(ctx context.Context, params TracerouteParams, fn HopFunc) (*result.Results, error) {
	params = params.withDefaults()

	ctx, span := t.tracer.Start(ctx, "traceroute.run", trace.WithAttributes(
		attribute.String("traceroute.target.hostname", params.Hostname),
		attribute.Int("traceroute.options.max_hops", params.MaxTTL),
		attribute.Stringer("traceroute.options.timeout", params.Timeout),
	))
	defer span.End()

	results, err := t.run(ctx, params, fn)
	if err != nil {
		code := ClassifyError(err).Code
		t.metrics.ObserveRun(metrics.OutcomeError)
		t.metrics.ObserveError(string(code))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(code))
		return nil, err
	}

	outcome := metrics.OutcomeUnreached
	if results.Destination.Reached {
		outcome = metrics.OutcomeReached
	}
	t.metrics.ObserveRun(outcome)
	span.SetAttributes(
		attribute.Bool("traceroute.target.reached", results.Destination.Reached),
		attribute.Int("traceroute.hops.count", results.Stats.HopCount),
	)
	return results, nil
}

func (t *Traceroute) run(ctx context.Context, params TracerouteParams, fn HopFunc) (*result.Results, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	sess, err := newSessionFn(ctx, params.Hostname, params.Timeout, params.MaxTTL)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
			return nil, &DNSError{Host: params.Hostname, Err: err}
		}
		return nil, err
	}
	defer sess.Close()

	target := sess.Target()
	results := result.NewResults(protocolICMP, result.Params{
		Hostname:  params.Hostname,
		TimeoutMs: params.Timeout.Milliseconds(),
		MaxTTL:    params.MaxTTL,
	})
	results.Destination.IP = target
	if src, err := t.sourceFor(target); err == nil {
		results.Source.IP = src
	} else {
		log.Debugf("could not determine source address for %s: %s", target, err)
	}

	// Enrichment overlaps with probing. Lookups never fail the run, the
	// group only propagates cancellation.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	var mu sync.Mutex

	if params.CollectSourcePublicIP && t.publicIPFetcher != nil {
		g.Go(func() error {
			t.enrichSource(gctx, &mu, results, params.Geolocate)
			return nil
		})
	}

	probeErr := t.probe(ctx, sess, params, results, fn, func(hop *result.TracerouteHop) {
		if !params.ReverseDns && !params.Geolocate {
			return
		}
		g.Go(func() error {
			t.enrichHop(gctx, hop, params)
			return nil
		})
	})
	if err := g.Wait(); err != nil && probeErr == nil {
		probeErr = err
	}
	if probeErr != nil {
		return nil, probeErr
	}

	t.finishDestination(ctx, results, params)
	results.Normalize()
	if params.SkipPrivateHops {
		results.RemovePrivateHops()
	}
	return results, nil
}

// probe pulls hops until the target answers, the session ends or ctx is done.
func (t *Traceroute) probe(ctx context.Context, sess hopSource, params TracerouteParams, results *result.Results, fn HopFunc, enrich func(*result.TracerouteHop)) error {
	span := trace.SpanFromContext(ctx)
	target := sess.Target()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hop, err := sess.NextContext(ctx)
		// a max TTL stop that raced with cancellation is still a cancellation
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		switch {
		case errors.Is(err, icmpecho.ErrDone):
			return nil
		case errors.Is(err, icmpecho.ErrTooManyHops):
			log.Debugf("traceroute to %s stopped at max TTL %d", target, params.MaxTTL)
			return nil
		case err != nil:
			return fmt.Errorf("traceroute to %s failed: %w", target, err)
		}

		trHop := &result.TracerouteHop{
			TTL:    int(hop.TTL),
			IP:     hop.Host,
			RTT:    result.DurationToMs(hop.RTT),
			IsDest: hop.Reached || hop.Host == target,
		}
		results.Hops = append(results.Hops, trHop)
		t.metrics.ObserveHop(hop.RTT)
		span.AddEvent("hop", trace.WithAttributes(
			attribute.Int("traceroute.hop.ttl", trHop.TTL),
			attribute.Stringer("traceroute.hop.ip", hop.Host),
			attribute.Float64("traceroute.hop.rtt_ms", trHop.RTT),
		))
		log.Debugf("hop %d: %s %.3fms", trHop.TTL, trHop.IP, trHop.RTT)

		if fn != nil {
			if err := fn(*trHop); err != nil {
				return err
			}
		}
		enrich(trHop)

		if trHop.IsDest {
			results.Destination.Reached = true
			return nil
		}
	}
}

func (t *Traceroute) enrichHop(ctx context.Context, hop *result.TracerouteHop, params TracerouteParams) {
	if params.ReverseDns {
		names, err := reversedns.GetReverseDnsForIP(ctx, hop.IP)
		if err != nil {
			log.Debugf("reverse DNS for %s failed: %s", hop.IP, err)
		} else if len(names) > 0 {
			hop.ReverseDns = names
		}
	}
	if params.Geolocate {
		hop.Location = t.locate(ctx, hop.IP)
	}
}

func (t *Traceroute) enrichSource(ctx context.Context, mu *sync.Mutex, results *result.Results, geolocate bool) {
	ip, err := t.publicIPFetcher.GetIP(ctx)
	if err != nil {
		log.Debugf("Error getting IP: %s", err)
		return
	}
	var loc *result.Location
	if geolocate {
		if addr, ok := common.UnmappedAddrFromSlice(ip); ok {
			loc = t.locate(ctx, addr)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	results.Source.PublicIP = ip.String()
	results.Source.Location = loc
}

// finishDestination copies what is known about the target hop onto the
// destination, looking it up when the target never answered.
func (t *Traceroute) finishDestination(ctx context.Context, results *result.Results, params TracerouteParams) {
	dest := &results.Destination
	if hop := results.DestinationHop(); hop != nil {
		dest.ReverseDns = hop.ReverseDns
		dest.Location = hop.Location
		return
	}
	if params.ReverseDns {
		if names, err := reversedns.GetReverseDnsForIP(ctx, dest.IP); err == nil && len(names) > 0 {
			dest.ReverseDns = names
		}
	}
	if params.Geolocate {
		dest.Location = t.locate(ctx, dest.IP)
	}
}

func (t *Traceroute) locate(ctx context.Context, addr netip.Addr) *result.Location {
	if t.locator == nil || !addr.IsValid() || !isRoutable(addr) {
		return nil
	}
	coord, found, err := t.locator.Locate(ctx, addr.String())
	if err != nil {
		log.Debugf("geolocation of %s failed: %s", addr, err)
		return nil
	}
	if !found {
		return nil
	}
	return &result.Location{Latitude: coord.Latitude, Longitude: coord.Longitude}
}

// Private and local addresses have no meaningful location.
func isRoutable(addr netip.Addr) bool {
	return !(addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast() || addr.IsUnspecified())
}
