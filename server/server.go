// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

// Package server exposes traceroute runs and their metrics over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DataDog/datadog-geotrace/common"
	"github.com/DataDog/datadog-geotrace/log"
	"github.com/DataDog/datadog-geotrace/metrics"
	"github.com/DataDog/datadog-geotrace/result"
	"github.com/DataDog/datadog-geotrace/traceroute"
)

const (
	shutdownTimeout = 10 * time.Second
	maxTTLLimit     = 255
)

// Runner runs one traceroute. *traceroute.Traceroute implements it.
type Runner interface {
	RunTraceroute(ctx context.Context, params traceroute.TracerouteParams) (*result.Results, error)
}

// Server is the HTTP server for the traceroute API
type Server struct {
	tr      Runner
	metrics *metrics.Metrics
	started time.Time
	router  chi.Router
}

type Option func(*Server)

func WithRunner(r Runner) Option {
	return func(s *Server) { s.tr = r }
}

// WithMetrics serves m on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// NewServer creates a new HTTP server. Without WithRunner, a default
// Traceroute reporting to the server metrics is used.
func NewServer(opts ...Option) *Server {
	s := &Server{started: time.Now()}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.tr == nil {
		s.tr = traceroute.NewTraceroute(traceroute.WithMetrics(s.metrics))
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/traceroute", s.TracerouteHandler)
	r.Get("/health", s.HealthHandler)
	r.Head("/health", s.HealthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	return r
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// TracerouteHandler handles GET /traceroute requests
func (s *Server) TracerouteHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params, err := parseTracerouteParams(r)
	if err != nil {
		writeError(w, &traceroute.InvalidTargetError{Err: err})
		return
	}

	log.Debugf("traceroute request for %q (request id %s)", params.Hostname, middleware.GetReqID(r.Context()))
	results, err := s.tr.RunTraceroute(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
}

// HealthHandler handles GET and HEAD /health requests
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.started).Round(time.Second).String(),
	})
}

// parseTracerouteParams extracts and validates query parameters from the HTTP request
func parseTracerouteParams(r *http.Request) (traceroute.TracerouteParams, error) {
	query := r.URL.Query()

	hostname := getStringParam(query, "target", "")
	if hostname == "" {
		return traceroute.TracerouteParams{}, errors.New("missing required parameter: target")
	}

	var errs []error
	timeoutMs, err := getIntParam(query, "timeout", common.DefaultTimeoutMs)
	errs = append(errs, err)
	maxTTL, err := getIntParam(query, "max-ttl", common.DefaultMaxTTL)
	errs = append(errs, err)
	reverseDns, err := getBoolParam(query, "reverse-dns", common.DefaultReverseDns)
	errs = append(errs, err)
	geolocate, err := getBoolParam(query, "geo", common.DefaultGeolocate)
	errs = append(errs, err)
	skipPrivateHops, err := getBoolParam(query, "skip-private-hops", common.DefaultSkipPrivateHops)
	errs = append(errs, err)
	collectSourcePublicIP, err := getBoolParam(query, "source-public-ip", common.DefaultCollectSourcePublicIP)
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return traceroute.TracerouteParams{}, err
	}

	if timeoutMs <= 0 {
		return traceroute.TracerouteParams{}, fmt.Errorf("timeout must be positive, got %d", timeoutMs)
	}
	if maxTTL < 1 || maxTTL > maxTTLLimit {
		return traceroute.TracerouteParams{}, fmt.Errorf("max-ttl must be within [1, %d], got %d", maxTTLLimit, maxTTL)
	}

	return traceroute.TracerouteParams{
		Hostname:              hostname,
		Timeout:               time.Duration(timeoutMs) * time.Millisecond,
		MaxTTL:                maxTTL,
		ReverseDns:            reverseDns,
		Geolocate:             geolocate,
		CollectSourcePublicIP: collectSourcePublicIP,
		SkipPrivateHops:       skipPrivateHops,
	}, nil
}

// statusFor maps an error code to the HTTP status of the response.
func statusFor(code traceroute.ErrorCode) int {
	if code == traceroute.ErrCodeInvalidRequest {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	trErr := traceroute.ClassifyError(err)
	log.Debugf("traceroute request failed with %s: %s", trErr.Code, trErr.Message)
	writeJSON(w, statusFor(trErr.Code), traceroute.ErrorResponse{
		Code:    trErr.Code,
		Message: trErr.Message,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Debugf("failed to encode response: %s", err)
	}
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Debugf("Starting HTTP server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown http server: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
