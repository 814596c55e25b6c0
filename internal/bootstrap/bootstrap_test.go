package bootstrap_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/blobstore"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/config"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_UsesConfigPathEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.yml")
	require.NoError(t, os.WriteFile(path, []byte("builder:\n  api_key: public-key\nservice:\n  port: 9001\n"), 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := bootstrap.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Service.Port)
}

func TestLoadConfig_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.yml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: ftp\nbuilder:\n  api_key: k\n"), 0o600))

	_, err := bootstrap.LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.driver")
}

func TestCreateLogger(t *testing.T) {
	cfg := &config.Config{
		Service: config.ServiceConfig{Name: "content-mirror", Version: "1.0.0"},
		Logging: config.LoggingConfig{Level: "debug", Format: "console"},
	}

	log, err := bootstrap.CreateLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestSetupBlobStore_Filesystem(t *testing.T) {
	root := t.TempDir()
	cfg := &config.Config{Storage: config.StorageConfig{
		Driver:    config.StorageDriverFilesystem,
		Root:      root,
		PublicURL: "http://localhost:8095/storage",
	}}

	store, err := bootstrap.SetupBlobStore(t.Context(), cfg)
	require.NoError(t, err)

	fs, ok := store.(*blobstore.Filesystem)
	require.True(t, ok)
	assert.Equal(t, root, fs.Root())
	assert.Equal(t, "http://localhost:8095/storage/builder/a.png", store.URL("builder/a.png"))
}

func TestSetupRegistry(t *testing.T) {
	cfg := &config.Config{Components: map[string][]string{"HeroSplit": {"left.blocks", "right.blocks"}}}

	registry, err := bootstrap.SetupRegistry(cfg, logger.NewNop())
	require.NoError(t, err)
	assert.Contains(t, registry.Components(), "HeroSplit")
	assert.Contains(t, registry.Components(), "Columns")
	assert.Len(t, registry.Patterns("HeroSplit"), 2)

	cfg.Components = map[string][]string{"Broken": {"a..b"}}
	_, err = bootstrap.SetupRegistry(cfg, logger.NewNop())
	require.Error(t, err)
}
