// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package transport

import (
	"golang.org/x/net/bpf"
	"golang.org/x/net/ipv4"
)

const bpfMaxPacketLen = 0x40000

// echoReplyFilter runs on datagrams delivered to a raw IPPROTO_ICMP socket,
// which start at the IPv4 header. It keeps Echo Reply and Time Exceeded and
// drops every other ICMP type before it reaches userspace.
var echoReplyFilter = mustAssemble([]bpf.Instruction{
	// x = ip header length
	bpf.LoadMemShift{Off: 0},
	// a = icmp type
	bpf.LoadIndirect{Size: 1, Off: 0},
	bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(ipv4.ICMPTypeEchoReply), SkipTrue: 1},
	bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(ipv4.ICMPTypeTimeExceeded), SkipFalse: 1},
	bpf.RetConstant{Val: bpfMaxPacketLen},
	bpf.RetConstant{Val: 0},
})

func mustAssemble(insns []bpf.Instruction) []bpf.RawInstruction {
	raw, err := bpf.Assemble(insns)
	if err != nil {
		panic(err)
	}
	return raw
}
