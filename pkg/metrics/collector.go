package metrics

import (
	"time"

	"github.com/xvc-dev/xvc/pkg/pipeline"
)

// Collector periodically samples a live pipeline run's step states and process pool occupancy,
// publishing them as gauges. It mirrors the run rather than driving it: every number it reports
// is read straight off the run's own Bulletin and Pool, so a collector crash or restart never
// affects the run it watches.
type Collector struct {
	run    *pipeline.Run
	stopCh chan struct{}

	// seenStates remembers every state label this collector has ever set, so a state that
	// drains to zero still gets reported as 0 instead of going stale at its last nonzero value.
	seenStates map[pipeline.State]struct{}
}

// NewCollector creates a collector for run. Start must be called to begin polling.
func NewCollector(run *pipeline.Run) *Collector {
	return &Collector{
		run:        run,
		stopCh:     make(chan struct{}),
		seenStates: make(map[pipeline.State]struct{}),
	}
}

// Start begins polling on interval, collecting once immediately.
func (c *Collector) Start(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector's polling goroutine.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectStepStates()
	c.collectPoolOccupancy()
}

func (c *Collector) collectStepStates() {
	pipelineName := c.run.PipelineName()
	counts := make(map[pipeline.State]int)
	for _, state := range c.run.Snapshot() {
		counts[state]++
		c.seenStates[state] = struct{}{}
	}

	for state := range c.seenStates {
		StepStateTotal.WithLabelValues(pipelineName, state.String()).Set(float64(counts[state]))
	}
}

func (c *Collector) collectPoolOccupancy() {
	pool := c.run.Pool()
	if pool == nil {
		return
	}
	ProcessPoolOccupied.Set(float64(pool.Occupied()))
	ProcessPoolCapacity.Set(float64(pool.Capacity()))
}
