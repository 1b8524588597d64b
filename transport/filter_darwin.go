// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

//go:build darwin

package transport

import "golang.org/x/net/bpf"

// darwin has no socket filters on raw sockets; the session ignores foreign
// ICMP traffic on its own.
func attachFilter(_ int, _ []bpf.RawInstruction) error {
	return nil
}
