//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into a fresh directory so no stray toolchat.yaml or .env is
// picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)
	t.Setenv(APIKeyEnv, "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.Model.Name)
	assert.Equal(t, "sk-test", cfg.Model.APIKey)
	assert.Equal(t, "stdio", cfg.Host.Transport)
	assert.Equal(t, "0.0.0.0:8050", cfg.Host.Address)
	assert.Equal(t, "/mcp", cfg.Host.Path)
	assert.Equal(t, "data/kb.json", cfg.Host.KBPath)
	assert.Equal(t, "stdio", cfg.Session.Transport)
	assert.Equal(t, "toolhost", cfg.Session.Command)
	assert.Equal(t, []string{"-transport", "stdio"}, cfg.Session.Args)
	assert.Equal(t, "http://localhost:8050/mcp", cfg.Session.ServerURL)
	assert.Equal(t, 10*time.Second, cfg.Session.HandshakeTimeout)
	assert.Equal(t, 30*time.Second, cfg.Session.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "grpc", cfg.Telemetry.Protocol)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
}

func TestLoad_SearchedFileAndEnv(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "config"), 0o755))
	yaml := `
model:
  name: gpt-4o-mini
  api_key: from-yaml
session:
  transport: streamable
  server_url: http://example.com/mcp
  timeout: 5s
batch:
  concurrency: 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "toolchat.yaml"), []byte(yaml), 0o644))
	t.Setenv(APIKeyEnv, "")
	t.Setenv("TOOLCHAT_BATCH_CONCURRENCY", "8")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.Model.Name)
	assert.Empty(t, cfg.Model.APIKey, "api key is never read from the file")
	assert.Equal(t, "streamable", cfg.Session.Transport)
	assert.Equal(t, 5*time.Second, cfg.Session.Timeout)
	assert.Equal(t, 8, cfg.Batch.Concurrency)

	conn := cfg.Connection()
	assert.Equal(t, "streamable", conn.Transport)
	assert.Equal(t, "http://example.com/mcp", conn.ServerURL)
	assert.Equal(t, 5*time.Second, conn.Timeout)
	assert.Equal(t, 10*time.Second, conn.HandshakeTimeout)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdir(t)
	t.Setenv(APIKeyEnv, "")
	require.NoError(t, os.Unsetenv(APIKeyEnv))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OPENAI_API_KEY=sk-dotenv\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv(APIKeyEnv) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-dotenv", cfg.Model.APIKey)
}

func TestLoad_ExplicitPath(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("host:\n  transport: http\n  address: 127.0.0.1:9000\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http", cfg.Host.Transport)
	assert.Equal(t, "127.0.0.1:9000", cfg.Host.Address)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "toolchat.yaml"), []byte("session:\n  transport: carrier-pigeon\n"), 0o644))

	_, err := Load("")
	assert.ErrorContains(t, err, "session.transport")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Model:     ModelConfig{Name: "gpt-4o"},
			Host:      HostConfig{Transport: "stdio"},
			Session:   SessionConfig{Transport: "stdio"},
			Telemetry: TelemetryConfig{Protocol: "grpc"},
			Batch:     BatchConfig{Concurrency: 1},
		}
	}
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"sse alias", func(c *Config) { c.Session.Transport = "sse" }, ""},
		{"empty model", func(c *Config) { c.Model.Name = " " }, "model.name"},
		{"host transport", func(c *Config) { c.Host.Transport = "streamable" }, "host.transport"},
		{"session transport", func(c *Config) { c.Session.Transport = "http" }, "session.transport"},
		{"telemetry protocol", func(c *Config) { c.Telemetry.Protocol = "udp" }, "telemetry.protocol"},
		{"concurrency", func(c *Config) { c.Batch.Concurrency = 0 }, "batch.concurrency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
