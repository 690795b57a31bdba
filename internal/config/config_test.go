package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustLoadPath_Defaults(t *testing.T) {
	cfg := MustLoadPath("")

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, 7878, cfg.Discovery.Port)
	assert.Equal(t, "255.255.255.255", cfg.Discovery.BroadcastAddr)
	assert.Equal(t, 5*time.Second, cfg.Discovery.BroadcastInterval)
	assert.Equal(t, 30*time.Second, cfg.Discovery.PeerTimeout)
	assert.Equal(t, 10*time.Second, cfg.Discovery.SweepInterval)
	assert.Equal(t, 20*time.Second, cfg.Discovery.ReassemblyTimeout)
	assert.Equal(t, 1100, cfg.Discovery.PacketThreshold)
	assert.Equal(t, 256*1024, cfg.Discovery.MaxMessageSize)
}

func TestMustLoadPath_YamlFile(t *testing.T) {
	content := `env: dev
name: test-node
metrics_addr: ":9090"
discovery:
  port: 9999
  broadcast_interval: 2s
  peer_timeout: 15s
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := MustLoadPath(path)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "test-node", cfg.Name)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, 9999, cfg.Discovery.Port)
	assert.Equal(t, 2*time.Second, cfg.Discovery.BroadcastInterval)
	assert.Equal(t, 15*time.Second, cfg.Discovery.PeerTimeout)
	// untouched keys keep their defaults
	assert.Equal(t, 10*time.Second, cfg.Discovery.SweepInterval)
	assert.Equal(t, 1100, cfg.Discovery.PacketThreshold)
}

func TestMustLoadPath_MissingFilePanics(t *testing.T) {
	assert.Panics(t, func() {
		MustLoadPath("/nonexistent/config.yaml")
	})
}
