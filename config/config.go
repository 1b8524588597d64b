// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

// Package config loads the geotrace settings from flags, GEOTRACE_*
// environment variables and an optional .geotrace.yaml file.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/DataDog/datadog-geotrace/common"
	"github.com/DataDog/datadog-geotrace/geo"
	"github.com/DataDog/datadog-geotrace/log"
	"github.com/DataDog/datadog-geotrace/telemetry"
)

const (
	envPrefix      = "geotrace"
	configFileName = ".geotrace"
)

// Config holds every setting of the CLI and the server.
type Config struct {
	// TimeoutMs is the per-probe timeout in milliseconds
	TimeoutMs       int    `yaml:"timeout" mapstructure:"timeout"`
	MaxTTL          int    `yaml:"max-ttl" mapstructure:"max-ttl"`
	ReverseDns      bool   `yaml:"reverse-dns" mapstructure:"reverse-dns"`
	Geo             bool   `yaml:"geo" mapstructure:"geo"`
	GeoDB           string `yaml:"geo-db" mapstructure:"geo-db"`
	GeoURL          string `yaml:"geo-url" mapstructure:"geo-url"`
	SkipPrivateHops bool   `yaml:"skip-private-hops" mapstructure:"skip-private-hops"`
	SourcePublicIP  bool   `yaml:"source-public-ip" mapstructure:"source-public-ip"`
	LogLevel        string `yaml:"log-level" mapstructure:"log-level"`

	Server  ServerConfig     `yaml:"server" mapstructure:"server"`
	Tracing telemetry.Config `yaml:"tracing" mapstructure:"tracing"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// Timeout returns TimeoutMs as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// SetDefaults registers the defaults on v, which also makes every key
// reachable through its environment variable.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("timeout", common.DefaultTimeoutMs)
	v.SetDefault("max-ttl", common.DefaultMaxTTL)
	v.SetDefault("reverse-dns", common.DefaultReverseDns)
	v.SetDefault("geo", common.DefaultGeolocate)
	v.SetDefault("geo-db", "")
	v.SetDefault("geo-url", geo.DefaultIPAPIURL)
	v.SetDefault("skip-private-hops", common.DefaultSkipPrivateHops)
	v.SetDefault("source-public-ip", common.DefaultCollectSourcePublicIP)
	v.SetDefault("log-level", common.DefaultLogLevel)
	v.SetDefault("server.addr", common.DefaultServerAddr)
	v.SetDefault("tracing.exporter", string(telemetry.NOOP))
}

// NewViper returns a viper instance with defaults and environment binding.
// When cfgFile is empty, .geotrace.yaml is searched in the working and home
// directories; a missing file is not an error.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(configFileName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		log.Debugf("Using config file: %s", v.ConfigFileUsed())
	}
	return v, nil
}

// Load decodes v into a Config. It does not validate.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() (err error) {
	if c.TimeoutMs <= 0 {
		err = errors.Join(err, fmt.Errorf("%w: %d ms", ErrInvalidTimeout, c.TimeoutMs))
	}
	if c.MaxTTL < 1 || c.MaxTTL > 255 {
		err = errors.Join(err, fmt.Errorf("%w: %d", ErrInvalidMaxTTL, c.MaxTTL))
	}
	if _, lErr := log.ParseLogLevel(c.LogLevel); lErr != nil {
		err = errors.Join(err, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel))
	}
	if c.Server.Addr != "" {
		if _, _, sErr := net.SplitHostPort(c.Server.Addr); sErr != nil {
			err = errors.Join(err, fmt.Errorf("%w: %s", ErrInvalidServerAddr, sErr))
		}
	}
	if c.Geo && c.GeoDB == "" {
		if _, uErr := url.ParseRequestURI(c.GeoURL); uErr != nil {
			err = errors.Join(err, fmt.Errorf("%w: %q", ErrInvalidGeoURL, c.GeoURL))
		}
	}
	if tErr := c.Tracing.Exporter.Validate(); tErr != nil {
		err = errors.Join(err, tErr)
	}

	if err != nil {
		return fmt.Errorf("validation of configuration failed: %w", err)
	}
	return nil
}
