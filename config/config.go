//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package config loads the settings shared by the toolhost and toolchat
// binaries from a YAML file, the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	toolmcp "trpc.group/trpc-go/trpc-toolchat-go/tool/mcp"
)

const (
	// EnvPrefix prefixes every environment override, e.g. TOOLCHAT_MODEL_NAME.
	EnvPrefix = "TOOLCHAT"
	// APIKeyEnv is the only source of the chat API key.
	APIKeyEnv = "OPENAI_API_KEY"

	defaultConfigName = "toolchat"
	defaultEnvFile    = ".env"
)

// Config is the full configuration tree.
type Config struct {
	Model     ModelConfig     `mapstructure:"model"`
	Host      HostConfig      `mapstructure:"host"`
	Session   SessionConfig   `mapstructure:"session"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Batch     BatchConfig     `mapstructure:"batch"`
}

// ModelConfig selects the chat model.
type ModelConfig struct {
	Name    string `mapstructure:"name"`
	BaseURL string `mapstructure:"base_url"`
	// APIKey is read from OPENAI_API_KEY only.
	APIKey string `mapstructure:"-"`
}

// HostConfig configures cmd/toolhost.
type HostConfig struct {
	Transport string `mapstructure:"transport"` // "stdio" or "http"
	Address   string `mapstructure:"address"`
	Path      string `mapstructure:"path"`
	KBPath    string `mapstructure:"kb_path"`
}

// SessionConfig configures how cmd/toolchat reaches a host.
type SessionConfig struct {
	Transport        string            `mapstructure:"transport"`
	Command          string            `mapstructure:"command"`
	Args             []string          `mapstructure:"args"`
	ServerURL        string            `mapstructure:"server_url"`
	Headers          map[string]string `mapstructure:"headers"`
	HandshakeTimeout time.Duration     `mapstructure:"handshake_timeout"`
	Timeout          time.Duration     `mapstructure:"timeout"`
}

// LogConfig holds the log level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// TelemetryConfig switches OTLP export on.
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Protocol string `mapstructure:"protocol"` // "grpc" or "http"
	Endpoint string `mapstructure:"endpoint"`
}

// BatchConfig sizes the batch query pool.
type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

var defaults = map[string]any{
	"model.name":                "gpt-4o",
	"model.base_url":            "",
	"host.transport":            "stdio",
	"host.address":              "0.0.0.0:8050",
	"host.path":                 "/mcp",
	"host.kb_path":              "data/kb.json",
	"session.transport":         "stdio",
	"session.command":           "toolhost",
	"session.args":              []string{"-transport", "stdio"},
	"session.server_url":        "http://localhost:8050/mcp",
	"session.headers":           map[string]string{},
	"session.handshake_timeout": "10s",
	"session.timeout":           "30s",
	"log.level":                 "info",
	"telemetry.enabled":         false,
	"telemetry.protocol":        "grpc",
	"telemetry.endpoint":        "",
	"batch.concurrency":         4,
}

// Load reads the configuration. With an empty path it searches "." and
// "./config" for toolchat.yaml and falls back to defaults when none exists;
// an explicit path must exist.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", defaultEnvFile, err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("yaml")
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Model.APIKey = os.Getenv(APIKeyEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown transports and an empty model name.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model.Name) == "" {
		return errors.New("model.name must not be empty")
	}
	switch c.Host.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("unsupported host.transport: %q, supported: stdio, http", c.Host.Transport)
	}
	switch c.Session.Transport {
	case "stdio", "sse", "streamable", "streamable_http":
	default:
		return fmt.Errorf("unsupported session.transport: %q, supported: stdio, sse, streamable", c.Session.Transport)
	}
	switch c.Telemetry.Protocol {
	case "grpc", "http":
	default:
		return fmt.Errorf("unsupported telemetry.protocol: %q, supported: grpc, http", c.Telemetry.Protocol)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be positive, got %d", c.Batch.Concurrency)
	}
	return nil
}

// Connection maps the session section onto a tool session config.
func (c *Config) Connection() toolmcp.ConnectionConfig {
	return toolmcp.ConnectionConfig{
		Transport:        c.Session.Transport,
		ServerURL:        c.Session.ServerURL,
		Headers:          c.Session.Headers,
		Command:          c.Session.Command,
		Args:             append([]string(nil), c.Session.Args...),
		Timeout:          c.Session.Timeout,
		HandshakeTimeout: c.Session.HandshakeTimeout,
	}
}
