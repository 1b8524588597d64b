// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package config

import "errors"

var (
	// ErrInvalidTimeout is returned when the per-probe timeout is not positive
	ErrInvalidTimeout = errors.New("invalid timeout")
	// ErrInvalidMaxTTL is returned when the max TTL is outside [1, 255]
	ErrInvalidMaxTTL = errors.New("invalid max TTL")
	// ErrInvalidLogLevel is returned for an unknown log level name
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidServerAddr is returned when the listen address cannot be parsed
	ErrInvalidServerAddr = errors.New("invalid server address")
	// ErrInvalidGeoURL is returned when the geolocation endpoint is not a URL
	ErrInvalidGeoURL = errors.New("invalid geolocation url")
)
