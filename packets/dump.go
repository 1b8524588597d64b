// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package packets

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// DumpIPv4 decodes a raw IPv4 datagram for trace logging.
func DumpIPv4(buf []byte) string {
	pkt := gopacket.NewPacket(buf, layers.LayerTypeIPv4, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
	return pkt.String()
}
