// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package traceroute

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/datadog-geotrace/icmpecho"
	"github.com/DataDog/datadog-geotrace/transport"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode ErrorCode
	}{
		{
			name:         "nil error",
			err:          nil,
			expectedCode: "",
		},
		{
			name:         "DNSError type",
			err:          &DNSError{Host: "bad.host", Err: fmt.Errorf("no such host")},
			expectedCode: ErrCodeDNS,
		},
		{
			name:         "wrapped DNSError",
			err:          fmt.Errorf("traceroute failed: %w", &DNSError{Host: "bad.host", Err: fmt.Errorf("no such host")}),
			expectedCode: ErrCodeDNS,
		},
		{
			name:         "InvalidTargetError",
			err:          &InvalidTargetError{Err: fmt.Errorf("invalid port: abc")},
			expectedCode: ErrCodeInvalidRequest,
		},
		{
			name:         "wrapped InvalidTargetError",
			err:          fmt.Errorf("bad config: %w", &InvalidTargetError{Err: fmt.Errorf("invalid port")}),
			expectedCode: ErrCodeInvalidRequest,
		},
		{
			name:         "context deadline exceeded",
			err:          context.DeadlineExceeded,
			expectedCode: ErrCodeTimeout,
		},
		{
			name:         "wrapped context deadline exceeded",
			err:          fmt.Errorf("operation failed: %w", context.DeadlineExceeded),
			expectedCode: ErrCodeTimeout,
		},
		{
			name:         "context canceled",
			err:          context.Canceled,
			expectedCode: ErrCodeTimeout,
		},
		{
			name: "net.DNSError",
			err: &net.DNSError{
				Err:  "no such host",
				Name: "bad.host",
			},
			expectedCode: ErrCodeDNS,
		},
		{
			name: "net.DNSError timeout",
			err: &net.DNSError{
				Err:       "i/o timeout",
				Name:      "slow.host",
				IsTimeout: true,
			},
			expectedCode: ErrCodeTimeout,
		},
		{
			name: "EHOSTUNREACH via net.OpError",
			err: &net.OpError{
				Op:  "dial",
				Net: "ip4:icmp",
				Err: &net.AddrError{Err: syscall.EHOSTUNREACH.Error()},
			},
			expectedCode: ErrCodeUnknown, // AddrError doesn't wrap syscall.Errno
		},
		{
			name:         "wrapped EHOSTUNREACH",
			err:          fmt.Errorf("%w: sendmsg: %w", icmpecho.ErrTransport, syscall.EHOSTUNREACH),
			expectedCode: ErrCodeHostUnreach,
		},
		{
			name:         "permission error from socket",
			err:          fmt.Errorf("%w: %w", icmpecho.ErrTransport, &transport.PermissionError{Err: syscall.EPERM}),
			expectedCode: ErrCodeDenied,
		},
		{
			name:         "unsupported platform",
			err:          fmt.Errorf("%w: %w", icmpecho.ErrTransport, transport.ErrUnsupported),
			expectedCode: ErrCodeDenied,
		},
		{
			name:         "session input error",
			err:          fmt.Errorf("%w: timeout must be positive", icmpecho.ErrInvalidInput),
			expectedCode: ErrCodeInvalidRequest,
		},
		{
			name:         "session resolution error",
			err:          fmt.Errorf("%w: could not resolve: %w", icmpecho.ErrInvalidInput, &net.DNSError{Err: "no such host", Name: "x.invalid", IsNotFound: true}),
			expectedCode: ErrCodeDNS,
		},
		{
			name:         "too many hops",
			err:          icmpecho.ErrTooManyHops,
			expectedCode: ErrCodeTooManyHops,
		},
		{
			name:         "transport error",
			err:          fmt.Errorf("%w: %w", icmpecho.ErrTransport, errors.New("short write")),
			expectedCode: ErrCodeTransport,
		},
		{
			name:         "transport error with unmapped errno",
			err:          fmt.Errorf("%w: %w", icmpecho.ErrTransport, syscall.EBADF),
			expectedCode: ErrCodeTransport,
		},
		{
			name:         "EHOSTUNREACH",
			err:          syscall.EHOSTUNREACH,
			expectedCode: ErrCodeHostUnreach,
		},
		{
			name:         "ENETUNREACH",
			err:          syscall.ENETUNREACH,
			expectedCode: ErrCodeNetUnreach,
		},
		{
			name:         "EACCES",
			err:          syscall.EACCES,
			expectedCode: ErrCodeDenied,
		},
		{
			name:         "EPERM",
			err:          syscall.EPERM,
			expectedCode: ErrCodeDenied,
		},
		{
			name:         "ETIMEDOUT",
			err:          syscall.ETIMEDOUT,
			expectedCode: ErrCodeTimeout,
		},
		{
			name:         "unknown error",
			err:          errors.New("something went wrong"),
			expectedCode: ErrCodeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ClassifyError(tt.err)
			if tt.err == nil {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.Equal(t, tt.expectedCode, result.Code)
			assert.NotEmpty(t, result.Message)
		})
	}
}

func TestTracerouteError(t *testing.T) {
	inner := fmt.Errorf("root cause")
	trErr := &TracerouteError{
		Code:    ErrCodeDNS,
		Message: "failed to resolve host",
		Err:     inner,
	}

	assert.Equal(t, "failed to resolve host", trErr.Error())
	assert.ErrorIs(t, trErr, inner)
}

func TestDNSError(t *testing.T) {
	inner := fmt.Errorf("no such host")
	dnsErr := &DNSError{Host: "bad.example.com", Err: inner}

	assert.Contains(t, dnsErr.Error(), "bad.example.com")
	assert.Contains(t, dnsErr.Error(), "no such host")
	assert.ErrorIs(t, dnsErr, inner)
}

func TestInvalidTargetError(t *testing.T) {
	inner := fmt.Errorf("invalid port: abc")
	targetErr := &InvalidTargetError{Err: inner}

	assert.Contains(t, targetErr.Error(), "invalid target")
	assert.Contains(t, targetErr.Error(), "invalid port: abc")
	assert.ErrorIs(t, targetErr, inner)
}

func TestSessionErrorsAreClassified(t *testing.T) {
	restore := newSessionFn
	defer func() { newSessionFn = restore }()

	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{
			name:     "dns failure",
			err:      fmt.Errorf("%w: could not resolve: %w", icmpecho.ErrInvalidInput, &net.DNSError{Err: "no such host", Name: "bad.example", IsNotFound: true}),
			wantCode: ErrCodeDNS,
		},
		{
			name:     "no privilege",
			err:      fmt.Errorf("%w: %w", icmpecho.ErrTransport, &transport.PermissionError{Err: syscall.EPERM}),
			wantCode: ErrCodeDenied,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newSessionFn = func(context.Context, string, time.Duration, int) (hopSource, error) {
				return nil, tt.err
			}
			_, err := NewTraceroute().RunTraceroute(context.Background(), TracerouteParams{Hostname: "bad.example"})
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, ClassifyError(err).Code)
		})
	}
}

func TestInvalidParamsAreInvalidRequests(t *testing.T) {
	_, err := NewTraceroute().RunTraceroute(context.Background(), TracerouteParams{Hostname: "example.com", MaxTTL: 300})
	require.Error(t, err)
	var targetErr *InvalidTargetError
	assert.True(t, errors.As(err, &targetErr), "expected InvalidTargetError, got %T: %v", err, err)
	assert.Equal(t, ErrCodeInvalidRequest, ClassifyError(err).Code)
}
