package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvc-dev/xvc/internal/config"
	"github.com/xvc-dev/xvc/pkg/digest"
)

func TestMoveToCacheMarksReadOnly(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "file.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))

	d, err := digest.ContentDigestFromPath(src, digest.Blake3, digest.Auto)
	require.NoError(t, err)

	cachePath := AbsPath(root, d, "txt")
	require.NoError(t, MoveToCache(src, cachePath))

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))

	info, err := os.Stat(cachePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o444), info.Mode().Perm())
}

func TestRecheckCopyMaterializesContent(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "file.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))

	d, err := digest.ContentDigestFromPath(src, digest.Blake3, digest.Auto)
	require.NoError(t, err)
	cachePath := AbsPath(root, d, "txt")
	require.NoError(t, MoveToCache(src, cachePath))

	target := filepath.Join(root, "restored.txt")
	require.NoError(t, Recheck(target, cachePath, config.Copy))

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
}

func TestRecheckAppendsGitignoreEntry(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "file.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))

	d, err := digest.ContentDigestFromPath(src, digest.Blake3, digest.Auto)
	require.NoError(t, err)
	cachePath := AbsPath(root, d, "txt")
	require.NoError(t, MoveToCache(src, cachePath))

	target := filepath.Join(root, "restored.txt")
	require.NoError(t, Recheck(target, cachePath, config.Copy))

	content, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, "restored.txt\n", string(content))

	// A second recheck of the same path must not duplicate the entry.
	require.NoError(t, Recheck(target, cachePath, config.Copy))
	content, err = os.ReadFile(filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, "restored.txt\n", string(content))
}

func TestRecheckHardlinkSharesInode(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "file.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))

	d, err := digest.ContentDigestFromPath(src, digest.Blake3, digest.Auto)
	require.NoError(t, err)
	cachePath := AbsPath(root, d, "txt")
	require.NoError(t, MoveToCache(src, cachePath))

	target := filepath.Join(root, "restored.txt")
	require.NoError(t, Recheck(target, cachePath, config.Hardlink))

	cacheInfo, err := os.Stat(cachePath)
	require.NoError(t, err)
	targetInfo, err := os.Stat(target)
	require.NoError(t, err)
	assert.True(t, os.SameFile(cacheInfo, targetInfo))
}
