package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/inkctl/internal/protocol/session"
	"github.com/danmuck/inkctl/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClientConfigDefaultsAndOverrides(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadClientConfig("ex.config.toml")
	require.NoError(t, err)

	assert.Equal(t, "10.1.2.3", cfg.Session.Host)
	assert.Equal(t, 9955, cfg.Session.Port)
	assert.Equal(t, 3*time.Second, cfg.Session.ReadTimeout)
	assert.Equal(t, session.DefaultConfig().WriteTimeout, cfg.Session.WriteTimeout)
	assert.Equal(t, session.DefaultConfig().ConnectTimeout, cfg.Session.ConnectTimeout)
	assert.Equal(t, session.DefaultConfig().Limits, cfg.Session.Limits)
	assert.Equal(t, 500*time.Millisecond, cfg.MonitorInterval)
	assert.Equal(t, "127.0.0.1:9201", cfg.MonitorListen)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CorsOrigins)
}

func TestLoadClientConfigEmptyFileKeepsDefaults(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	cfg, err := loadClientConfig(path)
	require.NoError(t, err)
	assert.Equal(t, defaultClientConfig(), cfg)
}

func TestLoadClientConfigRejects(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	cases := map[string]string{
		"bad duration": `read_timeout = "soon"`,
		"bad port":     `port = 70000`,
		"not toml":     `host = `,
	}
	for name, doc := range cases {
		path := filepath.Join(dir, name+".toml")
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
		_, err := loadClientConfig(path)
		assert.Error(t, err, name)
	}
	_, err := loadClientConfig(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}
