// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

// Package cmd holds the datadog-geotrace command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/DataDog/datadog-geotrace/common"
	"github.com/DataDog/datadog-geotrace/config"
	"github.com/DataDog/datadog-geotrace/log"
	"github.com/DataDog/datadog-geotrace/render"
	"github.com/DataDog/datadog-geotrace/result"
	"github.com/DataDog/datadog-geotrace/telemetry"
	"github.com/DataDog/datadog-geotrace/traceroute"
)

const serviceName = "datadog-geotrace"

// flags that only shape the output and never reach the config
var outputFlags = map[string]bool{"config": true, "json": true, "map": true, "help": true}

// flagKeys maps flag names to config keys when they differ.
var flagKeys = map[string]string{"addr": "server.addr"}

type cli struct {
	cfgFile string
	json    bool
	showMap bool

	cfg *config.Config
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	// restore default handling after the first signal so a second one kills
	// the process while the run unwinds
	go func() {
		<-ctx.Done()
		stop()
	}()
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:          "datadog-geotrace [target]",
		Short:        "ICMP traceroute that geolocates every hop",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.loadConfig(cmd)
		},
		RunE: c.runTrace,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "Config file (default is ./.geotrace.yaml or $HOME/.geotrace.yaml)")
	pf.StringP("log-level", "l", common.DefaultLogLevel, "Log level (error, warn, info, debug, trace)")
	pf.String("geo-db", "", "Path to a GeoLite2 City database, tried before the HTTP geolocation service")
	pf.String("geo-url", "", "Base URL of the ip-api compatible geolocation service")

	f := rootCmd.Flags()
	f.IntP("timeout", "t", common.DefaultTimeoutMs, "Per-probe timeout (ms)")
	f.IntP("max-ttl", "m", common.DefaultMaxTTL, "Maximum TTL")
	f.Bool("reverse-dns", common.DefaultReverseDns, "Enrich hops with reverse DNS names")
	f.Bool("geo", common.DefaultGeolocate, "Geolocate every public hop")
	f.Bool("source-public-ip", common.DefaultCollectSourcePublicIP, "Look up the public IP of this host and use it as the map origin")
	f.Bool("skip-private-hops", common.DefaultSkipPrivateHops, "Drop private and loopback hops from the results")
	f.BoolVar(&c.json, "json", false, "Print the results as JSON instead of a hop table")
	f.BoolVar(&c.showMap, "map", false, "Draw the route on a world map (implies --geo)")

	rootCmd.AddCommand(newServerCmd(c), newVersionCmd())
	return rootCmd
}

// loadConfig layers flags over GEOTRACE_* env vars over the config file.
func (c *cli) loadConfig(cmd *cobra.Command) error {
	v, err := config.NewViper(c.cfgFile)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := log.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLogLevel(level)
	c.cfg = cfg
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || outputFlags[f.Name] {
			return
		}
		key := f.Name
		if k, ok := flagKeys[key]; ok {
			key = k
		}
		// an empty string flag must not shadow the config default
		if !f.Changed && f.Value.Type() == "string" && f.Value.String() == "" {
			return
		}
		err = v.BindPFlag(key, f)
	})
	if err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}
	return nil
}

func (c *cli) params(target string) traceroute.TracerouteParams {
	return traceroute.TracerouteParams{
		Hostname:              target,
		Timeout:               c.cfg.Timeout(),
		MaxTTL:                c.cfg.MaxTTL,
		ReverseDns:            c.cfg.ReverseDns,
		Geolocate:             c.cfg.Geo || c.showMap,
		CollectSourcePublicIP: c.cfg.SourcePublicIP,
		SkipPrivateHops:       c.cfg.SkipPrivateHops,
	}
}

func (c *cli) runTrace(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	provider, err := telemetry.Init(ctx, c.cfg.Tracing, serviceName, Version)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(provider)

	tracer, closeFn, err := newTracerFn(c.cfg, nil)
	if err != nil {
		return err
	}
	defer closeFn()

	out := cmd.OutOrStdout()
	params := c.params(args[0])

	var onHop traceroute.HopFunc
	if !c.json {
		printHeader(out, params)
		onHop = func(hop result.TracerouteHop) error {
			_, err := fmt.Fprintln(out, formatHop(hop))
			return err
		}
	}

	results, err := tracer.Stream(ctx, params, onHop)
	if err != nil {
		return err
	}

	if c.json {
		return printJSON(out, results)
	}
	printSummary(out, results)
	if c.showMap {
		m := render.New(render.DefaultWidth, render.DefaultHeight)
		m.PlotResults(results)
		return m.Render(out)
	}
	return nil
}

func shutdownTelemetry(p *telemetry.Provider) {
	if err := p.Shutdown(context.Background()); err != nil {
		log.Debugf("failed to flush traces: %s", err)
	}
}
