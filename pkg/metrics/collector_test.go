package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/xvc-dev/xvc/pkg/digest"
	"github.com/xvc-dev/xvc/pkg/ecs"
	"github.com/xvc-dev/xvc/pkg/pipeline"
	"github.com/xvc-dev/xvc/pkg/xvcpath"
)

func TestCollectorStepStates(t *testing.T) {
	root := t.TempDir()
	frozen := ecs.NewEntity(101, 1)
	g := pipeline.NewGraph()
	g.AddNode(frozen)

	opts := pipeline.RunOptions{
		Root:         root,
		PipelineName: "collector-test",
		Pool:         pipeline.NewPool(1),
		Graph:        g,
		Conditions:   map[ecs.Entity]pipeline.RunConditions{frozen: {Never: true}},
		StepNames:    map[ecs.Entity]string{frozen: "frozen"},
		CompareCtx:   pipeline.CompareContext{Root: root, Algorithm: digest.Blake3, PMM: xvcpath.PathMetadataMap{}},
	}

	run := pipeline.NewRun(opts)
	final := run.Execute()
	assert.Equal(t, pipeline.DoneWithoutRunning, final[frozen])

	c := NewCollector(run)
	c.collect()

	assert.Equal(t, float64(1), testutil.ToFloat64(StepStateTotal.WithLabelValues("collector-test", pipeline.DoneWithoutRunning.String())))
	assert.Equal(t, float64(1), testutil.ToFloat64(ProcessPoolCapacity))
	assert.Equal(t, float64(0), testutil.ToFloat64(ProcessPoolOccupied))
}

func TestCollectorStartStop(t *testing.T) {
	root := t.TempDir()
	frozen := ecs.NewEntity(102, 1)
	g := pipeline.NewGraph()
	g.AddNode(frozen)

	opts := pipeline.RunOptions{
		Root:         root,
		PipelineName: "collector-start-stop",
		Pool:         pipeline.NewPool(1),
		Graph:        g,
		Conditions:   map[ecs.Entity]pipeline.RunConditions{frozen: {Never: true}},
		StepNames:    map[ecs.Entity]string{frozen: "frozen"},
		CompareCtx:   pipeline.CompareContext{Root: root, Algorithm: digest.Blake3, PMM: xvcpath.PathMetadataMap{}},
	}

	run := pipeline.NewRun(opts)
	run.Execute()

	c := NewCollector(run)
	assert.NotPanics(t, func() {
		c.Start(time.Millisecond)
		c.Stop()
	})
}
