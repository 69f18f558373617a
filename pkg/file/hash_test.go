package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvc-dev/xvc/pkg/digest"
)

func TestHashComputesDigestWithoutTracking(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "data.txt"), []byte("hello"), 0o644))

	results, err := Hash(root, []string{"data.txt"}, HashOptions{Algorithm: digest.Blake3})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "data.txt", results[0].Path)
	assert.NotEmpty(t, results[0].Hex)

	info, err := os.Stat(filepath.Join(root, "data.txt"))
	require.NoError(t, err)
	assert.NotEqual(t, os.FileMode(0o444), info.Mode().Perm())
}
