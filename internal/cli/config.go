package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/gurted/gurt-go/pkg/gurt"
)

type fileConfig struct {
	ConnectTimeout   string `toml:"connect_timeout"`
	HandshakeTimeout string `toml:"handshake_timeout"`
	RequestTimeout   string `toml:"request_timeout"`
	UserAgent        string `toml:"user_agent"`
	Insecure         bool   `toml:"insecure"`
	MaxHeaderBytes   int    `toml:"max_header_bytes"`
	MaxBodyBytes     int    `toml:"max_body_bytes"`
}

// loadClientConfig layers a TOML config file over the built-in defaults.
// Only keys present in the file override; absent keys keep their defaults.
func loadClientConfig(path string) (gurt.Config, error) {
	cfg := gurt.DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return gurt.Config{}, fmt.Errorf("load gurtctl config: %w", err)
	}

	if meta.IsDefined("connect_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ConnectTimeout))
		if err != nil {
			return gurt.Config{}, fmt.Errorf("parse connect_timeout: %w", err)
		}
		cfg.ConnectTimeout = d
	}

	if meta.IsDefined("handshake_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.HandshakeTimeout))
		if err != nil {
			return gurt.Config{}, fmt.Errorf("parse handshake_timeout: %w", err)
		}
		cfg.HandshakeTimeout = d
	}

	if meta.IsDefined("request_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.RequestTimeout))
		if err != nil {
			return gurt.Config{}, fmt.Errorf("parse request_timeout: %w", err)
		}
		cfg.RequestTimeout = d
	}

	if meta.IsDefined("user_agent") {
		ua := strings.TrimSpace(raw.UserAgent)
		if ua != "" {
			cfg.UserAgent = ua
		}
	}

	if meta.IsDefined("insecure") {
		cfg.Insecure = raw.Insecure
	}

	if meta.IsDefined("max_header_bytes") {
		cfg.Limits.MaxHeaderBytes = raw.MaxHeaderBytes
	}

	if meta.IsDefined("max_body_bytes") {
		cfg.Limits.MaxBodyBytes = raw.MaxBodyBytes
	}

	return cfg, nil
}

// resolveConfig builds the effective client config from defaults, an
// optional config file, and command-line flag overrides, in that order.
func resolveConfig() (gurt.Config, error) {
	cfg := gurt.DefaultConfig()

	if flagConfig != "" {
		loaded, err := loadClientConfig(flagConfig)
		if err != nil {
			return gurt.Config{}, err
		}
		cfg = loaded
	}

	if flagConnectTimeout != "" {
		d, err := time.ParseDuration(flagConnectTimeout)
		if err != nil {
			return gurt.Config{}, fmt.Errorf("parse --connect-timeout: %w", err)
		}
		cfg.ConnectTimeout = d
	}
	if flagHandshakeTimeout != "" {
		d, err := time.ParseDuration(flagHandshakeTimeout)
		if err != nil {
			return gurt.Config{}, fmt.Errorf("parse --handshake-timeout: %w", err)
		}
		cfg.HandshakeTimeout = d
	}
	if flagRequestTimeout != "" {
		d, err := time.ParseDuration(flagRequestTimeout)
		if err != nil {
			return gurt.Config{}, fmt.Errorf("parse --timeout: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if flagUserAgent != "" {
		cfg.UserAgent = flagUserAgent
	}
	if flagInsecure {
		cfg.Insecure = true
	}

	return cfg, nil
}

func newClient() (*gurt.Client, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}
	return gurt.New(cfg)
}
