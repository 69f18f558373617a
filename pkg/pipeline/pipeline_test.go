package pipeline

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvc-dev/xvc/internal/xvcerr"
	"github.com/xvc-dev/xvc/pkg/ecs"
	"github.com/xvc-dev/xvc/pkg/xvcpath"
)

// Exactly one ecs.Generator may exist per process, so every test in this file shares one
// lazily-initialized instance rather than each calling ecs.InitGenerator itself.
var (
	testGenOnce sync.Once
	testGen     *ecs.Generator
)

func sharedGenerator(t *testing.T) *ecs.Generator {
	t.Helper()
	testGenOnce.Do(func() {
		gen, err := ecs.InitGenerator()
		require.NoError(t, err)
		testGen = gen
	})
	return testGen
}

func TestAddStepRejectsDuplicateName(t *testing.T) {
	gen := sharedGenerator(t)
	s := NewStores()
	pipeline := gen.Next()
	s.Pipelines.Insert(pipeline, XvcPipeline{Name: "default"})

	_, err := s.AddStep(gen, pipeline, "build", ByDependencies, "make build")
	require.NoError(t, err)

	_, err = s.AddStep(gen, pipeline, "build", ByDependencies, "make build")
	assert.ErrorIs(t, err, xvcerr.ErrStepNameConflict)
}

func TestBuildGraphExplicitStepDependency(t *testing.T) {
	gen := sharedGenerator(t)
	s := NewStores()
	pipeline := gen.Next()
	s.Pipelines.Insert(pipeline, XvcPipeline{Name: "default"})

	build, err := s.AddStep(gen, pipeline, "build", ByDependencies, "make build")
	require.NoError(t, err)
	test, err := s.AddStep(gen, pipeline, "test", ByDependencies, "make test")
	require.NoError(t, err)

	s.AddDependency(gen, test, Dependency{Kind: StepKind, Step: StepDep{StepName: "build"}})

	g, err := s.BuildGraph(pipeline)
	require.NoError(t, err)
	assert.Equal(t, []ecs.Entity{build}, g.DependsOn(test))
}

func TestBuildGraphImplicitOutputDependency(t *testing.T) {
	gen := sharedGenerator(t)
	s := NewStores()
	pipeline := gen.Next()
	s.Pipelines.Insert(pipeline, XvcPipeline{Name: "default"})

	build, err := s.AddStep(gen, pipeline, "build", ByDependencies, "make build")
	require.NoError(t, err)
	test, err := s.AddStep(gen, pipeline, "test", ByDependencies, "make test")
	require.NoError(t, err)

	s.AddOutput(gen, build, Output{Kind: OutputFile, Path: xvcpath.XvcPath("dist/app")})
	s.AddDependency(gen, test, Dependency{Kind: FileKind, File: FileDep{Path: xvcpath.XvcPath("dist/app")}})

	g, err := s.BuildGraph(pipeline)
	require.NoError(t, err)
	assert.Equal(t, []ecs.Entity{build}, g.DependsOn(test))
}
