package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/despecter/internal/config"
	"github.com/Sumatoshi-tech/despecter/pkg/rewrite"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".despecter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, rewrite.DefaultMaxPasses, cfg.Rewrite.MaxPasses)
	assert.True(t, cfg.Rename.Enabled)
	assert.Equal(t, "pycdc", cfg.Pycdc.Binary)
	assert.Zero(t, cfg.Runner.Workers)
	assert.True(t, cfg.Runner.Banner)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
rewrite:
  max_passes: 25
rename:
  enabled: false
pycdc:
  binary: /opt/pycdc/bin/pycdc
runner:
  workers: 4
  banner: false
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Rewrite.MaxPasses)
	assert.False(t, cfg.Rename.Enabled)
	assert.Equal(t, "/opt/pycdc/bin/pycdc", cfg.Pycdc.Binary)
	assert.Equal(t, 4, cfg.Runner.Workers)
	assert.False(t, cfg.Runner.Banner)
}

func TestLoadConfig_InvalidMaxPasses_Rejected(t *testing.T) {
	path := writeConfig(t, "rewrite:\n  max_passes: 0\n")

	_, err := config.LoadConfig(path)
	assert.ErrorIs(t, err, config.ErrInvalidMaxPasses)
}

func TestLoadConfig_NegativeWorkers_Rejected(t *testing.T) {
	path := writeConfig(t, "runner:\n  workers: -1\n")

	_, err := config.LoadConfig(path)
	assert.ErrorIs(t, err, config.ErrInvalidWorkers)
}

func TestLoadConfig_EmptyBinary_Rejected(t *testing.T) {
	path := writeConfig(t, "pycdc:\n  binary: ''\n")

	_, err := config.LoadConfig(path)
	assert.ErrorIs(t, err, config.ErrEmptyPycdcBinary)
}

func TestLoadConfig_ExplicitMissingFile_Errors(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate_ZeroValueConfig_Invalid(t *testing.T) {
	t.Parallel()

	var cfg config.Config

	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidMaxPasses)
}
