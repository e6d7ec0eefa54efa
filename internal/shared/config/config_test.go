package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netecho/internal/shared/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, types.DefaultEchoPort, cfg.ServerConf.Port)
	assert.Equal(t, "0.0.0.0", cfg.ServerConf.BindAddress)
	assert.Equal(t, 20, cfg.ServerConf.CloseDelayMS)
	assert.True(t, cfg.ServerConf.AbortiveClose)
	assert.Equal(t, "Hello World", cfg.ClientConf.Payload)
	assert.Equal(t, 1000, cfg.ClientConf.RecvTimeoutMS)
	assert.Equal(t, 0, cfg.ServerConf.UDPPort)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.ini"))
	require.NoError(t, err)
	assert.Equal(t, types.DefaultEchoPort, cfg.ServerConf.Port)
}

func TestLoad_IniOverridesSelectedKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "netecho.ini", `
[log]
level = debug

[server]
port = 20001
udp_port = 20002
close_delay_ms = 5

[mcast]
group = 239.1.2.3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogConf.Level)
	assert.Equal(t, 20001, cfg.ServerConf.Port)
	assert.Equal(t, 20002, cfg.ServerConf.UDPPort)
	assert.Equal(t, 5, cfg.ServerConf.CloseDelayMS)
	assert.Equal(t, types.DefaultReadBufferSize, cfg.ServerConf.BufferSize, "untouched keys keep defaults")
	assert.Equal(t, types.DefaultEchoClientPayload, cfg.EchoClientConf.Payload)
	assert.Equal(t, "239.1.2.3", cfg.McastConf.Group)
	assert.Equal(t, types.DefaultMcastPort, cfg.McastConf.Port)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvCloseDelay, "40")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogConf.Level)
	assert.Equal(t, 40, cfg.ServerConf.CloseDelayMS)
}

func TestLoad_DotEnvNextToConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "netecho.ini", "[log]\nlevel = info\n")
	writeFile(t, dir, ".env", EnvLogLevel+"=error\n")
	// godotenv never overwrites variables that are already set
	t.Setenv(EnvLogLevel, "")
	os.Unsetenv(EnvLogLevel)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogConf.Level)
	os.Unsetenv(EnvLogLevel)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.ini", "[server\nport = x\n")
	_, err := Load(path)
	assert.Error(t, err)
}
