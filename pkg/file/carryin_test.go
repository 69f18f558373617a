package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvc-dev/xvc/internal/config"
	"github.com/xvc-dev/xvc/pkg/digest"
)

func TestCarryInSkipsUnchangedContent(t *testing.T) {
	gen := sharedGenerator(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "data.txt"), []byte("hello"), 0o644))

	stores := NewStores()
	_, err := Track(gen, stores, root, nil, TrackOptions{Algorithm: digest.Blake3, RecheckMethod: config.Copy})
	require.NoError(t, err)

	out, err := CarryIn(stores, root, nil, CarryInOptions{Algorithm: digest.Blake3, RecheckMethod: config.Copy})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCarryInPicksUpEditedContent(t *testing.T) {
	gen := sharedGenerator(t)
	root := t.TempDir()
	path := filepath.Join(root, "data.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	stores := NewStores()
	_, err := Track(gen, stores, root, nil, TrackOptions{Algorithm: digest.Blake3, RecheckMethod: config.Copy})
	require.NoError(t, err)

	require.NoError(t, os.Chmod(path, 0o644))
	require.NoError(t, os.WriteFile(path, []byte("goodbye"), 0o644))

	out, err := CarryIn(stores, root, nil, CarryInOptions{Algorithm: digest.Blake3, RecheckMethod: config.Copy})
	require.NoError(t, err)
	require.Len(t, out, 1)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "goodbye", string(content))
}
