package xvcpath

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAbsAndBack(t *testing.T) {
	root := t.TempDir()
	abs := filepath.Join(root, "sub", "file.txt")
	p, err := FromAbs(root, abs)
	require.NoError(t, err)
	assert.Equal(t, XvcPath("sub/file.txt"), p)
	assert.Equal(t, abs, p.AbsPath(root))
}

func TestMetadataEqual(t *testing.T) {
	now := time.Now()
	a := Metadata{FileType: File, Size: 10, Modified: now}
	b := Metadata{FileType: File, Size: 10, Modified: now}
	c := Metadata{FileType: File, Size: 11, Modified: now}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestFromStatClassifiesDirectory(t *testing.T) {
	dir := t.TempDir()
	info, err := os.Stat(dir)
	require.NoError(t, err)
	md := FromStat(info)
	assert.Equal(t, Directory, md.FileType)
}
