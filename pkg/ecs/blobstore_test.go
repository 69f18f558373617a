package ecs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobStorePutGetDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.bolt")
	bs, err := OpenBlobStore(path, "cache-manifest")
	require.NoError(t, err)
	defer bs.Close()

	e := NewEntity(5, 11)
	require.NoError(t, bs.Put(e, map[string]string{"digest": "abc123"}))

	var got map[string]string
	found, err := bs.Get(e, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "abc123", got["digest"])

	require.NoError(t, bs.Delete(e))
	found, err = bs.Get(e, &got)
	require.NoError(t, err)
	assert.False(t, found)
}
