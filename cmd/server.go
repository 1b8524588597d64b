// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/DataDog/datadog-geotrace/common"
	"github.com/DataDog/datadog-geotrace/log"
	"github.com/DataDog/datadog-geotrace/metrics"
	"github.com/DataDog/datadog-geotrace/server"
	"github.com/DataDog/datadog-geotrace/telemetry"
)

// serveFn is swapped in tests.
var serveFn = (*server.Server).Serve

func newServerCmd(c *cli) *cobra.Command {
	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Traceroute HTTP server",
		Long:  `HTTP server that runs traceroutes on GET /traceroute and exposes metrics on GET /metrics`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			provider, err := telemetry.Init(ctx, c.cfg.Tracing, serviceName, Version)
			if err != nil {
				return err
			}
			defer shutdownTelemetry(provider)

			m := metrics.New()
			tr, closeFn, err := newTracerFn(c.cfg, m)
			if err != nil {
				return err
			}
			defer closeFn()

			srv := server.NewServer(server.WithRunner(tr), server.WithMetrics(m))
			log.Infof("Starting traceroute HTTP server on %s", c.cfg.Server.Addr)
			log.Infof("Example usage: curl 'http://localhost%s/traceroute?target=example.com&geo=true'", c.cfg.Server.Addr)
			return serveFn(srv, ctx, c.cfg.Server.Addr)
		},
	}
	// Default port 3765 is used for Remote Traceroute
	serverCmd.Flags().StringP("addr", "a", common.DefaultServerAddr, "HTTP server address to listen on")
	return serverCmd
}
