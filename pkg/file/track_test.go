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

func TestTrackRecordsNewFileAndCarriesIn(t *testing.T) {
	gen := sharedGenerator(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "data.txt"), []byte("hello"), 0o644))

	stores := NewStores()
	report, err := Track(gen, stores, root, nil, TrackOptions{
		Algorithm:     digest.Blake3,
		RecheckMethod: config.Copy,
	})
	require.NoError(t, err)
	require.Len(t, report.Tracked, 1)
	assert.True(t, report.Tracked[0].Changed)
	assert.Equal(t, "data.txt", string(report.Tracked[0].Path))

	e, ok := stores.EntityFor("data.txt")
	require.True(t, ok)
	dv, ok := stores.ContentDigest.Get(e)
	require.True(t, ok)
	assert.False(t, dv.IsZero())

	content, err := os.ReadFile(filepath.Join(root, "data.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
}

func TestTrackSkipsUnchangedFileOnSecondRun(t *testing.T) {
	gen := sharedGenerator(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "data.txt"), []byte("hello"), 0o644))

	stores := NewStores()
	opts := TrackOptions{Algorithm: digest.Blake3, RecheckMethod: config.Copy}
	_, err := Track(gen, stores, root, nil, opts)
	require.NoError(t, err)

	eventsBefore := stores.Metadata.EventCount()

	report, err := Track(gen, stores, root, nil, opts)
	require.NoError(t, err)
	require.Len(t, report.Tracked, 1)
	assert.False(t, report.Tracked[0].Changed)
	assert.Equal(t, eventsBefore, stores.Metadata.EventCount(), "unchanged file must not append a new event")
}

func TestTrackNoCommitSkipsCarryIn(t *testing.T) {
	gen := sharedGenerator(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "data.txt"), []byte("hello"), 0o644))

	stores := NewStores()
	_, err := Track(gen, stores, root, nil, TrackOptions{
		Algorithm: digest.Blake3,
		NoCommit:  true,
	})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(root, "data.txt"))
	require.NoError(t, err)
	assert.NotEqual(t, os.FileMode(0o444), info.Mode().Perm())
}

func TestPathMatchesTargets(t *testing.T) {
	assert.True(t, pathMatchesTargets("src/a.go", nil))
	assert.True(t, pathMatchesTargets("src/a.go", []string{"src"}))
	assert.True(t, pathMatchesTargets("src/a.go", []string{"src/a.go"}))
	assert.False(t, pathMatchesTargets("src/a.go", []string{"other"}))
}
