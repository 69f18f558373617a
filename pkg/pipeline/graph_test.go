package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvc-dev/xvc/internal/xvcerr"
	"github.com/xvc-dev/xvc/pkg/ecs"
)

func TestGraphDependsOnDirection(t *testing.T) {
	g := NewGraph()
	build := ecs.NewEntity(1, 1)
	test := ecs.NewEntity(2, 1)
	g.AddEdge(test, build) // test depends on build

	assert.Equal(t, []ecs.Entity{build}, g.DependsOn(test))
	assert.Empty(t, g.DependsOn(build))
}

func TestGraphValidateDetectsCycle(t *testing.T) {
	g := NewGraph()
	a := ecs.NewEntity(1, 1)
	b := ecs.NewEntity(2, 1)
	g.AddEdge(a, b)
	g.AddEdge(b, a)

	err := g.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, xvcerr.ErrPipelineCycle)
}

func TestGraphValidateAcceptsDiamond(t *testing.T) {
	g := NewGraph()
	a := ecs.NewEntity(1, 1)
	b := ecs.NewEntity(2, 1)
	c := ecs.NewEntity(3, 1)
	d := ecs.NewEntity(4, 1)
	g.AddEdge(b, a)
	g.AddEdge(c, a)
	g.AddEdge(d, b)
	g.AddEdge(d, c)

	require.NoError(t, g.Validate())
}

func TestGraphTopoOrderRespectsDependencies(t *testing.T) {
	g := NewGraph()
	a := ecs.NewEntity(1, 1)
	b := ecs.NewEntity(2, 1)
	g.AddEdge(b, a)

	order := g.TopoOrder()
	posA, posB := -1, -1
	for i, e := range order {
		if e == a {
			posA = i
		}
		if e == b {
			posB = i
		}
	}
	assert.Less(t, posA, posB)
}
