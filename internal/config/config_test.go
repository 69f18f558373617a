package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAndRenderNonEmpty(t *testing.T) {
	d := Defaults()
	assert.Equal(t, Blake3, d.Cache.Algorithm)
	assert.Equal(t, Copy, d.File.Recheck.Method)
	assert.NotEmpty(t, d.Render())
}

func TestLoadMergesLayersByPrecedence(t *testing.T) {
	dir := t.TempDir()
	projectPath := filepath.Join(dir, "config.toml")
	localPath := filepath.Join(dir, "config.local.toml")

	require.NoError(t, os.WriteFile(projectPath, []byte("[cache]\nalgorithm = \"sha3\"\n"), 0o644))
	require.NoError(t, os.WriteFile(localPath, []byte("[core]\nverbosity = \"debug\"\n"), 0o644))

	cfg, err := Load(Sources{
		ProjectPath: projectPath,
		LocalPath:   localPath,
		Environ:     []string{"XVC_CACHE_ALGORITHM=blake2"},
		CLIOptions:  []Option{{Key: "core.quiet", Value: "true"}},
	})
	require.NoError(t, err)

	assert.Equal(t, Algorithm("blake2"), cfg.Cache.Algorithm, "environment overrides project file")
	assert.Equal(t, "debug", cfg.Core.Verbosity, "local project config applied")
	assert.True(t, cfg.Core.Quiet, "CLI option has highest precedence")
}

func TestLoadMissingLayersAreSkipped(t *testing.T) {
	cfg, err := Load(Sources{ProjectPath: "/nonexistent/config.toml"})
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestApplyCLIOptionRejectsUnknownKey(t *testing.T) {
	_, err := Load(Sources{CLIOptions: []Option{{Key: "nope.nope", Value: "x"}}})
	assert.Error(t, err)
}
