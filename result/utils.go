// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package result

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// encode UUID with base64 for shorter UUID
func newBase64UUID() string {
	id := uuid.New()
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// DurationToMs converts a duration to fractional milliseconds.
func DurationToMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
