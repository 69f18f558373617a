package params

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueAcrossFormats(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name    string
		content string
	}{
		{"params.json", `{"model": {"lr": 0.01, "epochs": 10}}`},
		{"params.yaml", "model:\n  lr: 0.01\n  epochs: 10\n"},
		{"params.toml", "[model]\nlr = 0.01\nepochs = 10\n"},
	}

	for _, c := range cases {
		path := filepath.Join(dir, c.name)
		require.NoError(t, os.WriteFile(path, []byte(c.content), 0o644))

		v, err := Value(path, "model.epochs")
		require.NoError(t, err, c.name)
		assert.Equal(t, "10", v, c.name)
	}
}

func TestValueMissingKeyErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model:\n  lr: 0.01\n"), 0o644))

	_, err := Value(path, "model.missing")
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, JSON, DetectFormat("a.json"))
	assert.Equal(t, TOML, DetectFormat("a.toml"))
	assert.Equal(t, YAML, DetectFormat("a.yaml"))
	assert.Equal(t, YAML, DetectFormat("a"))
}
