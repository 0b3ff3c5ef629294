package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/inkctl/internal/monitor"
	"github.com/danmuck/inkctl/internal/protocol/session"
)

const (
	defaultHost          = "172.16.0.55"
	defaultMonitorListen = ":9200"
)

// fileConfig is the inkctl config.toml key mapping.
type fileConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	ConnectTimeout  string   `toml:"connect_timeout"`
	ReadTimeout     string   `toml:"read_timeout"`
	WriteTimeout    string   `toml:"write_timeout"`
	MaxPayloadBytes int      `toml:"max_payload_bytes"`
	MonitorInterval string   `toml:"monitor_interval"`
	MonitorListen   string   `toml:"monitor_listen"`
	CorsOrigins     []string `toml:"cors_origins"`
}

// clientConfig is the resolved runtime configuration.
type clientConfig struct {
	Session         session.Config
	MonitorInterval time.Duration
	MonitorListen   string
	CorsOrigins     []string
}

func defaultClientConfig() clientConfig {
	cfg := session.DefaultConfig()
	cfg.Host = defaultHost
	return clientConfig{
		Session:         cfg,
		MonitorInterval: monitor.DefaultInterval,
		MonitorListen:   defaultMonitorListen,
	}
}

func loadClientConfig(path string) (clientConfig, error) {
	cfg := defaultClientConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return clientConfig{}, fmt.Errorf("load inkctl config: %w", err)
	}

	if meta.IsDefined("host") {
		if host := strings.TrimSpace(raw.Host); host != "" {
			cfg.Session.Host = host
		}
	}
	if meta.IsDefined("port") {
		cfg.Session.Port = raw.Port
	}
	for _, d := range []struct {
		key string
		raw string
		out *time.Duration
	}{
		{"connect_timeout", raw.ConnectTimeout, &cfg.Session.ConnectTimeout},
		{"read_timeout", raw.ReadTimeout, &cfg.Session.ReadTimeout},
		{"write_timeout", raw.WriteTimeout, &cfg.Session.WriteTimeout},
		{"monitor_interval", raw.MonitorInterval, &cfg.MonitorInterval},
	} {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return clientConfig{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.out = v
	}
	if meta.IsDefined("max_payload_bytes") {
		cfg.Session.Limits.MaxPayloadBytes = raw.MaxPayloadBytes
	}
	if meta.IsDefined("monitor_listen") {
		cfg.MonitorListen = strings.TrimSpace(raw.MonitorListen)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = raw.CorsOrigins
	}

	cfg.Session = cfg.Session.WithDefaults()
	if err := cfg.Session.Validate(); err != nil {
		return clientConfig{}, err
	}
	return cfg, nil
}
