package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/wstail/internal/config"
)

func writeConfig(t *testing.T, env, body string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config."+env+".yaml"), []byte(body), 0o644))
	chdir(t, dir)
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CONFIG_ENV", "")

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:8080", cfg.Server)
	assert.Equal(t, "logs", cfg.Endpoint)
	assert.Equal(t, "watchtower", cfg.Container)
	assert.Equal(t, "robotics", cfg.Token)
	assert.Equal(t, "prefixed", cfg.Format)
	assert.True(t, cfg.Sanitize)
	assert.False(t, cfg.TextPingReply)
	assert.Equal(t, 10*time.Second, cfg.HandshakeTimeout)
	assert.Equal(t, 0, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Reconnect.InitialBackoff)
	assert.Equal(t, 30*time.Second, cfg.Reconnect.MaxBackoff)
	assert.Equal(t, 8080, cfg.Mock.Port)
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	writeConfig(t, "test", `
server: ws://robot.local:9000
endpoint: hardware-status
container: ""
format: json
reconnect:
  max_attempts: 3
  initial_backoff: 1s
  max_backoff: 5s
`)
	t.Setenv("CONFIG_ENV", "test")
	t.Setenv("WSTAIL_TOKEN", "from-env")

	fs := pflag.NewFlagSet("wstail", pflag.ContinueOnError)
	config.Flags(fs)
	require.NoError(t, fs.Parse([]string{"--format", "plain", "--text-ping-reply"}))

	cfg, err := config.Load(fs)
	require.NoError(t, err)

	assert.Equal(t, "ws://robot.local:9000", cfg.Server)
	assert.Equal(t, "hardware-status", cfg.Endpoint)
	assert.Equal(t, "from-env", cfg.Token)
	assert.Equal(t, "plain", cfg.Format)
	assert.True(t, cfg.TextPingReply)
	assert.Equal(t, 3, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Reconnect.InitialBackoff)
	assert.Equal(t, 5*time.Second, cfg.Reconnect.MaxBackoff)
}

func TestLoadConfigEnvFlag(t *testing.T) {
	writeConfig(t, "robot", "container: api\n")
	t.Setenv("CONFIG_ENV", "")

	fs := pflag.NewFlagSet("wstail", pflag.ContinueOnError)
	config.Flags(fs)
	require.NoError(t, fs.Parse([]string{"--config-env", "robot"}))

	cfg, err := config.Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "api", cfg.Container)
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"unknown endpoint":   "endpoint: metrics\n",
		"unknown format":     "format: xml\n",
		"missing container":  "container: \"\"\n",
		"backoff inverted":   "reconnect:\n  initial_backoff: 10s\n  max_backoff: 1s\n",
		"negative reconnect": "reconnect:\n  max_attempts: -2\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			writeConfig(t, "bad", body)
			t.Setenv("CONFIG_ENV", "bad")

			_, err := config.Load(nil)
			assert.Error(t, err)
		})
	}
}

func TestMockFlags(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CONFIG_ENV", "")

	client := pflag.NewFlagSet("wstail", pflag.ContinueOnError)
	config.Flags(client)
	assert.Nil(t, client.Lookup("port"))

	fs := pflag.NewFlagSet("mocksupervisor", pflag.ContinueOnError)
	config.Flags(fs)
	config.MockFlags(fs)
	require.NoError(t, fs.Parse([]string{"--port", "9090"}))

	cfg, err := config.Load(fs)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Mock.Port)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and restores the previous one when the test ends.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
