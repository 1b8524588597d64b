// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package publicip

import (
	"context"
	"net"
	"time"

	externalip "github.com/glendc/go-external-ip"
)

// MaxTries is the maximum amount of tries to attempt to one service.
const MaxTries = 3

// ConsensusTimeout sets the time limit of collecting votes from the consensus
// services.
var ConsensusTimeout = 2 * time.Second

// consensusURIs are the services polled when every checker failed.
var consensusURIs = []string{
	"https://api.ipify.org",
	"http://myexternalip.com/raw",
	"http://ipinfo.io/ip",
	"http://ipecho.net/plain",
	"http://icanhazip.com",
	"http://ifconfig.me/ip",
	"http://ident.me",
	"http://checkip.amazonaws.com",
	"http://whatismyip.akamai.com",
	"http://wgetip.com",
}

// consensusIP lets the go-external-ip voters agree on an IPv4 address.
func consensusIP(ctx context.Context) (net.IP, error) {
	consensus := externalip.NewConsensus(&externalip.ConsensusConfig{Timeout: ConsensusTimeout}, nil)
	for _, uri := range consensusURIs {
		if err := consensus.AddVoter(externalip.NewHTTPSource(uri), 1); err != nil {
			return nil, err
		}
	}
	consensus.UseIPProtocol(4)

	type answer struct {
		ip  net.IP
		err error
	}
	done := make(chan answer, 1)
	go func() {
		ip, err := consensus.ExternalIP()
		done <- answer{ip, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case a := <-done:
		return a.ip, a.err
	}
}
