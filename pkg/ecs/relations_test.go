package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestR1NAssociateDetach(t *testing.T) {
	r := NewR1N("step-outputs")
	parent := NewEntity(1, 0)
	c1 := NewEntity(2, 0)
	c2 := NewEntity(3, 0)

	r.Associate(parent, c1)
	r.Associate(parent, c2)
	assert.ElementsMatch(t, []Entity{c1, c2}, r.Children(parent))

	r.Detach(c1)
	assert.Equal(t, []Entity{c2}, r.Children(parent))

	p, ok := r.Parent(c2)
	require.True(t, ok)
	assert.Equal(t, parent, p)
}

func TestR1NSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	parent := NewEntity(1, 9)
	child := NewEntity(2, 9)

	r := NewR1N("step-outputs")
	r.Associate(parent, child)
	require.NoError(t, r.Save(dir))

	loaded, err := LoadR1N(dir, "step-outputs")
	require.NoError(t, err)
	assert.Equal(t, []Entity{child}, loaded.Children(parent))
}

func TestRMNAssociateAndLookup(t *testing.T) {
	r := NewRMN[string]("step-dependency")
	a := NewEntity(1, 0)
	b := NewEntity(2, 0)
	pairing := NewEntity(3, 0)

	r.Associate(pairing, a, b, "digest:abc")

	pairs := r.PairsForA(a)
	require.Len(t, pairs, 1)
	assert.Equal(t, b, pairs[0].B)
	assert.Equal(t, "digest:abc", pairs[0].Payload)

	r.Detach(pairing)
	assert.Empty(t, r.PairsForA(a))
}
