package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-stream/internal/protocol"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("VOXEL_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 16, cfg.Chunk.Size)
	assert.Equal(t, 256, cfg.Chunk.Height)
	assert.Equal(t, 4, cfg.Client.ViewDistance)
	assert.Equal(t, 10, cfg.Client.MaxMeshJobsPerTick)
	assert.Equal(t, ":12478", cfg.Server.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
chunk:
  size: 8
client:
  view_distance: 2
  request_timeout: 3s
server:
  seed: 99
  tick: 20ms
log:
  level: debug
  components:
    transport: warn
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	t.Setenv("VOXEL_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Chunk.Size)
	assert.Equal(t, 256, cfg.Chunk.Height, "незаданные поля остаются по умолчанию")
	assert.Equal(t, 2, cfg.Client.ViewDistance)
	assert.Equal(t, 3*time.Second, cfg.Client.RequestTimeout)
	assert.Equal(t, int64(99), cfg.Server.Seed)
	assert.Equal(t, 20*time.Millisecond, cfg.Server.Tick)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, map[string]string{"transport": "warn"}, cfg.Log.Components)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("client:\n  view_distance: -1\n"), 0o644))
	_, err := Load(bad)
	assert.Error(t, err)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("chunk: [1, 2"), 0o644))
	_, err = Load(broken)
	assert.Error(t, err)

	level := filepath.Join(dir, "level.yaml")
	require.NoError(t, os.WriteFile(level, []byte("log:\n  components:\n    server: loud\n"), 0o644))
	_, err = Load(level)
	assert.Error(t, err)

	huge := filepath.Join(dir, "huge.yaml")
	require.NoError(t, os.WriteFile(huge, []byte("chunk:\n  size: 1024\n  height: 65536\n"), 0o644))
	_, err = Load(huge)
	assert.ErrorIs(t, err, protocol.ErrChunkTooLarge, "чанк не помещается в кадр")

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestServerConfig_EnvFallback(t *testing.T) {
	cfg := Default()
	t.Setenv("VOXEL_SERVER_ADDR", "")
	assert.Equal(t, ":12478", cfg.Server.GetServerAddr())

	t.Setenv("VOXEL_SERVER_ADDR", "0.0.0.0:9000")
	t.Setenv("VOXEL_METRICS_ADDR", ":9100")
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.GetServerAddr())
	assert.Equal(t, ":9100", cfg.Server.GetMetricsAddr())
}
