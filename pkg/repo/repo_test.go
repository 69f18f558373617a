package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCreatesLayout(t *testing.T) {
	dir := t.TempDir()
	root, err := Init(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, root.GUID)

	for _, sub := range []string{"store", "ec"} {
		info, err := os.Stat(filepath.Join(root.XvcDir(), sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	_, err = os.Stat(filepath.Join(root.XvcDir(), "guid"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root.XvcDir(), "config.toml"))
	require.NoError(t, err)
}

func TestInitTwiceFails(t *testing.T) {
	dir := t.TempDir()
	_, err := Init(dir)
	require.NoError(t, err)

	_, err = Init(dir)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestFindRootWalksUpFromSubdirectory(t *testing.T) {
	dir := t.TempDir()
	root, err := Init(dir)
	require.NoError(t, err)

	sub := filepath.Join(dir, "a", "b", "c")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	found, err := FindRoot(sub)
	require.NoError(t, err)
	assert.Equal(t, root.Path, found.Path)
	assert.Equal(t, root.GUID, found.GUID)
}

func TestFindRootOutsideRepositoryFails(t *testing.T) {
	dir := t.TempDir()
	_, err := FindRoot(dir)
	assert.ErrorIs(t, err, ErrNotARepository)
}
