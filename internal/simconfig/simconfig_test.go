package simconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7777", cfg.Server.BindAddr)
	assert.Equal(t, 128, cfg.World.Width)
	assert.Equal(t, "RulesA", cfg.World.Rules)
}

func TestLoadOverlaysUserFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(p, []byte("world:\n  width: 32\n  height: 32\n"), 0o644))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.World.Width)
	assert.Equal(t, 32, cfg.World.Height)
	// untouched fields keep their embedded default
	assert.Equal(t, "original", cfg.World.PressureSystem)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}
