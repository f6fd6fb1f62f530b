package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8688, cfg.Port)
	assert.True(t, cfg.PersistSession)
	assert.Equal(t, "localhost:8688", cfg.Addr())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
host: 0.0.0.0
port: 9000
debug: true
data_dir: /var/lib/sfl-studio
allowed_origins:
  - https://studio.example.com
provider_base_urls:
  openai: https://gateway.internal/v1
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"https://studio.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "https://gateway.internal/v1", cfg.ProviderBaseURLs["openai"])
}

func TestLoadMissingNamedFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SFL_PORT", "7777")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Port)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Port: 0, DataDir: "x"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Port: 8080, DataDir: " "}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Port: 8080, DataDir: "~/.sfl-studio"}
	assert.NoError(t, cfg.Validate())
}
