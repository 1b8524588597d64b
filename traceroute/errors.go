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

	"github.com/DataDog/datadog-geotrace/icmpecho"
	"github.com/DataDog/datadog-geotrace/transport"
)

// ErrorCode is the machine readable cause of a failed traceroute.
type ErrorCode string

const (
	// ErrCodeDNS indicates a DNS resolution failure.
	ErrCodeDNS ErrorCode = "DNS"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeHostUnreach indicates the target host is unreachable.
	ErrCodeHostUnreach ErrorCode = "HOSTUNREACH"
	// ErrCodeNetUnreach indicates the target network is unreachable.
	ErrCodeNetUnreach ErrorCode = "NETUNREACH"
	// ErrCodeDenied indicates a permission error or unsupported configuration.
	ErrCodeDenied ErrorCode = "DENIED"
	// ErrCodeInvalidRequest indicates bad parameters from the caller.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	// ErrCodeTooManyHops indicates the max TTL was probed without reaching the target.
	ErrCodeTooManyHops ErrorCode = "TOO_MANY_HOPS"
	// ErrCodeTransport indicates the raw socket failed while probing.
	ErrCodeTransport ErrorCode = "TRANSPORT"
	// ErrCodeUnknown is the catch-all for unclassified errors.
	ErrCodeUnknown ErrorCode = "UNKNOWN"
)

// TracerouteError is a classified error from a traceroute operation.
type TracerouteError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *TracerouteError) Error() string {
	return e.Message
}

func (e *TracerouteError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the JSON body returned on error from the HTTP API.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// DNSError is a sentinel wrapper for DNS resolution failures
// so they can be classified at the HTTP boundary.
type DNSError struct {
	Host string
	Err  error
}

func (e *DNSError) Error() string {
	return fmt.Sprintf("failed to resolve host %q: %s", e.Host, e.Err)
}

func (e *DNSError) Unwrap() error {
	return e.Err
}

// InvalidTargetError represents a target or request parameter that cannot be traced.
type InvalidTargetError struct {
	Err error
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid target: %s", e.Err)
}

func (e *InvalidTargetError) Unwrap() error {
	return e.Err
}

// ClassifyError inspects an error chain and returns a TracerouteError with the appropriate code.
func ClassifyError(err error) *TracerouteError {
	if err == nil {
		return nil
	}

	// Check for our own typed errors first
	var dnsErr *DNSError
	if errors.As(err, &dnsErr) {
		return newTracerouteError(ErrCodeDNS, err)
	}

	var invalidTargetErr *InvalidTargetError
	if errors.As(err, &invalidTargetErr) {
		return newTracerouteError(ErrCodeInvalidRequest, err)
	}

	var permErr *transport.PermissionError
	if errors.As(err, &permErr) || errors.Is(err, transport.ErrUnsupported) {
		return newTracerouteError(ErrCodeDenied, err)
	}

	// Check for context errors (timeout / cancellation)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return newTracerouteError(ErrCodeTimeout, err)
	}

	// Check for net.DNSError (from standard library DNS resolution)
	var netDNSErr *net.DNSError
	if errors.As(err, &netDNSErr) {
		if netDNSErr.IsTimeout {
			return newTracerouteError(ErrCodeTimeout, err)
		}
		return newTracerouteError(ErrCodeDNS, err)
	}

	if errors.Is(err, icmpecho.ErrInvalidInput) {
		return newTracerouteError(ErrCodeInvalidRequest, err)
	}
	if errors.Is(err, icmpecho.ErrTooManyHops) {
		return newTracerouteError(ErrCodeTooManyHops, err)
	}

	// Check for net.OpError with syscall errors
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		var sysErr *syscall.Errno
		if errors.As(opErr.Err, &sysErr) {
			return classifySyscallError(*sysErr, err)
		}
		// net.OpError wrapping a timeout
		if opErr.Timeout() {
			return newTracerouteError(ErrCodeTimeout, err)
		}
	}

	// Check for raw syscall.Errno anywhere in the chain
	var errno syscall.Errno
	if errors.As(err, &errno) {
		if te := classifySyscallError(errno, err); te.Code != ErrCodeUnknown {
			return te
		}
	}

	if errors.Is(err, icmpecho.ErrTransport) {
		return newTracerouteError(ErrCodeTransport, err)
	}

	return newTracerouteError(ErrCodeUnknown, err)
}

func newTracerouteError(code ErrorCode, err error) *TracerouteError {
	return &TracerouteError{Code: code, Message: err.Error(), Err: err}
}

func classifySyscallError(errno syscall.Errno, original error) *TracerouteError {
	switch errno {
	case syscall.EHOSTUNREACH:
		return newTracerouteError(ErrCodeHostUnreach, original)
	case syscall.ENETUNREACH:
		return newTracerouteError(ErrCodeNetUnreach, original)
	case syscall.EACCES, syscall.EPERM:
		return newTracerouteError(ErrCodeDenied, original)
	case syscall.ETIMEDOUT:
		return newTracerouteError(ErrCodeTimeout, original)
	default:
		return newTracerouteError(ErrCodeUnknown, original)
	}
}
