package obslog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lixenwraith/terrarium/internal/simconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWithEmptyFileDisablesLogging(t *testing.T) {
	f, err := Setup(simconfig.LoggingConfig{})
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestSetupOpensAndWritesToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "terrarium.log")

	f, err := Setup(simconfig.LoggingConfig{File: path, MaxSizeBytes: 1024, Level: "info"})
	require.NoError(t, err)
	require.NotNil(t, f)
	defer f.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSetupRotatesOversizedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "terrarium.log")
	require.NoError(t, os.WriteFile(path, make([]byte, 200), 0644))

	f, err := Setup(simconfig.LoggingConfig{File: path, MaxSizeBytes: 100, Level: "info"})
	require.NoError(t, err)
	require.NotNil(t, f)
	defer f.Close()

	matches, err := filepath.Glob(filepath.Join(dir, "terrarium-*.log"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
