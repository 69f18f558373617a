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

func TestRecheckMaterializesRemovedFile(t *testing.T) {
	gen := sharedGenerator(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "data.txt"), []byte("hello"), 0o644))

	stores := NewStores()
	_, err := Track(gen, stores, root, nil, TrackOptions{Algorithm: digest.Blake3, RecheckMethod: config.Copy})
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "data.txt")))

	report, err := Recheck(stores, root, nil, RecheckOptions{Method: config.Copy})
	require.NoError(t, err)
	require.Len(t, report, 1)

	content, err := os.ReadFile(filepath.Join(root, "data.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
}
