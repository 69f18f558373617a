package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xvc-dev/xvc/pkg/digest"
	"github.com/xvc-dev/xvc/pkg/ecs"
	"github.com/xvc-dev/xvc/pkg/xvcpath"
)

func TestBulletinReportAndState(t *testing.T) {
	a := ecs.NewEntity(1, 1)
	b := NewBulletin([]ecs.Entity{a})
	assert.Equal(t, Begin, b.State(a))

	b.Report(a, Running)
	assert.Eventually(t, func() bool { return b.State(a) == Running }, time.Second, time.Millisecond)
	b.Close()
}

func TestRunExecuteDependentStepsFinish(t *testing.T) {
	root := t.TempDir()
	build := ecs.NewEntity(1, 1)
	test := ecs.NewEntity(2, 1)

	g := NewGraph()
	g.AddEdge(test, build)

	opts := RunOptions{
		Root:       root,
		Pool:       NewPool(2),
		Graph:      g,
		Conditions: map[ecs.Entity]RunConditions{build: {Always: true}, test: {Always: true}},
		Commands:   map[ecs.Entity]string{build: "echo building", test: "echo testing"},
		StepNames:  map[ecs.Entity]string{build: "build", test: "test"},
		CompareCtx: CompareContext{Root: root, Algorithm: digest.Blake3, PMM: xvcpath.PathMetadataMap{}},
	}

	run := NewRun(opts)
	final := run.Execute()
	assert.Equal(t, DoneByRunning, final[build])
	assert.Equal(t, DoneByRunning, final[test])
}

func TestRunExecuteNeverStepSkipsRunning(t *testing.T) {
	root := t.TempDir()
	frozen := ecs.NewEntity(1, 1)
	g := NewGraph()
	g.AddNode(frozen)

	opts := RunOptions{
		Root:       root,
		Pool:       NewPool(1),
		Graph:      g,
		Conditions: map[ecs.Entity]RunConditions{frozen: {Never: true}},
		StepNames:  map[ecs.Entity]string{frozen: "frozen"},
		CompareCtx: CompareContext{Root: root, Algorithm: digest.Blake3, PMM: xvcpath.PathMetadataMap{}},
	}

	run := NewRun(opts)
	final := run.Execute()
	assert.Equal(t, DoneWithoutRunning, final[frozen])
}

func TestRunExecuteBrokenStepPropagatesToDependent(t *testing.T) {
	root := t.TempDir()
	broken := ecs.NewEntity(1, 1)
	dependent := ecs.NewEntity(2, 1)
	g := NewGraph()
	g.AddEdge(dependent, broken)

	opts := RunOptions{
		Root:       root,
		Pool:       NewPool(2),
		Graph:      g,
		Conditions: map[ecs.Entity]RunConditions{broken: {Always: true}, dependent: {Always: true}},
		Commands:   map[ecs.Entity]string{broken: "exit 1", dependent: "echo unreachable"},
		StepNames:  map[ecs.Entity]string{broken: "broken", dependent: "dependent"},
		CompareCtx: CompareContext{Root: root, Algorithm: digest.Blake3, PMM: xvcpath.PathMetadataMap{}},
	}

	run := NewRun(opts)
	final := run.Execute()
	assert.Equal(t, Broken, final[broken])
	assert.Equal(t, Broken, final[dependent])
}
