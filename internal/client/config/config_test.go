package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate_Normalizes(t *testing.T) {
	tmp := t.TempDir()
	cfg := &Config{
		DataDir:  tmp,
		Username: "Alice",
		APIRoot:  "http://127.0.0.1:8080",
		Path:     filepath.Join(tmp, "config.json"),
	}

	require.NoError(t, cfg.Validate())
	assert.True(t, filepath.IsAbs(cfg.DataDir))
	assert.True(t, filepath.IsAbs(cfg.Path))
	assert.Equal(t, "alice", cfg.Username)
}

func TestConfig_Validate_ErrorsOnInvalidInputs(t *testing.T) {
	tmp := t.TempDir()

	t.Run("missing username", func(t *testing.T) {
		cfg := &Config{
			DataDir: tmp,
			APIRoot: "http://127.0.0.1:8080",
		}
		err := cfg.Validate()
		assert.Error(t, err)
	})

	t.Run("bad api root", func(t *testing.T) {
		cfg := &Config{
			DataDir:  tmp,
			Username: "alice",
			APIRoot:  "ftp://bad.example.com",
		}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "api root")
	})

	t.Run("missing data dir", func(t *testing.T) {
		cfg := &Config{
			Username: "alice",
			APIRoot:  "http://127.0.0.1:8080",
		}
		err := cfg.Validate()
		assert.Error(t, err)
	})
}

func TestConfig_SaveAndLoad_Roundtrip(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.json")

	cfg := &Config{
		DataDir:      tmp,
		Username:     "alice",
		APIRoot:      "http://127.0.0.1:8080",
		RefreshToken: "rtok",
		AccessToken:  "atok", // should not persist
		Path:         path,
	}

	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.Save())

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.DataDir, loaded.DataDir)
	assert.Equal(t, cfg.Username, loaded.Username)
	assert.Equal(t, cfg.APIRoot, loaded.APIRoot)
	assert.Equal(t, cfg.RefreshToken, loaded.RefreshToken)

	// Non-persisted fields default on load.
	assert.Empty(t, loaded.AccessToken)
	assert.Equal(t, path, loaded.Path)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
}

func TestLoadFromFile_DefaultsAPIRootWhenMissing(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data_dir":"/tmp/x","username":"alice"}`), 0o600))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIRoot, loaded.APIRoot)
}
