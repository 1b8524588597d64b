// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

//go:build test && linux

// Package testutils holds helpers for tests that need real raw sockets. They
// require root and are only compiled with -tags test.
package testutils

import (
	"os"
	"runtime"
	"testing"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
)

// RequireRoot skips the test when raw sockets cannot be opened.
func RequireRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() != 0 {
		t.Skip("raw ICMP sockets need root")
	}
}

// WithNS runs fn inside ns on a locked OS thread, then switches back.
func WithNS(ns netns.NsHandle, fn func() error) error {
	if ns == netns.None() {
		return fn()
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	prev, err := netns.Get()
	if err != nil {
		return err
	}
	defer prev.Close()

	if ns.Equal(prev) {
		return fn()
	}
	if err := netns.Set(ns); err != nil {
		return err
	}

	fnErr := fn()
	if err := netns.Set(prev); err != nil {
		return err
	}
	return fnErr
}

// LoopbackNS creates a throwaway network namespace whose only usable
// interface is an up loopback. Probes sent to 127.0.0.1 inside it are
// answered by the kernel and nothing else arrives on a raw ICMP socket.
func LoopbackNS(t *testing.T) netns.NsHandle {
	t.Helper()
	RequireRoot(t)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	prev, err := netns.Get()
	if err != nil {
		t.Fatalf("get current netns: %s", err)
	}
	defer prev.Close()

	// netns.New switches the calling thread into the new namespace
	ns, err := netns.New()
	if err != nil {
		t.Fatalf("create netns: %s", err)
	}
	defer func() {
		if err := netns.Set(prev); err != nil {
			t.Fatalf("restore netns: %s", err)
		}
	}()
	t.Cleanup(func() { ns.Close() })

	lo, err := netlink.LinkByName("lo")
	if err != nil {
		t.Fatalf("find lo: %s", err)
	}
	if err := netlink.LinkSetUp(lo); err != nil {
		t.Fatalf("bring lo up: %s", err)
	}
	return ns
}
