package pipeline

import (
	"sync"
	"time"

	"github.com/xvc-dev/xvc/internal/xlog"
	"github.com/xvc-dev/xvc/pkg/diff"
	"github.com/xvc-dev/xvc/pkg/ecs"
)

// stateUpdate is one step's reported state, sent to the Bulletin by the goroutine running that
// step.
type stateUpdate struct {
	step  ecs.Entity
	state State
}

// Bulletin is the single state-bulletin goroutine every step task reports its state to and
// polls other steps' states through. This project documents and uses one global
// state-bulletin goroutine that serializes all step state updates through a single buffered
// channel: the order in which two simultaneously finishing steps are observed by a third,
// waiting step is the order their updates are received on that channel, which is FIFO per
// sender but not otherwise specified across senders. No stronger ordering guarantee is made or
// needed, since a waiting step only cares whether its dependencies have all reached a terminal
// state, not the relative order in which they did so.
type Bulletin struct {
	mu      sync.RWMutex
	states  map[ecs.Entity]State
	updates chan stateUpdate
	done    chan struct{}
}

// NewBulletin creates a Bulletin seeded with every step at Begin, and starts its draining
// goroutine.
func NewBulletin(steps []ecs.Entity) *Bulletin {
	b := &Bulletin{
		states:  make(map[ecs.Entity]State, len(steps)),
		updates: make(chan stateUpdate, 256),
		done:    make(chan struct{}),
	}
	for _, s := range steps {
		b.states[s] = Begin
	}
	go b.run()
	return b
}

func (b *Bulletin) run() {
	for {
		select {
		case u, ok := <-b.updates:
			if !ok {
				return
			}
			b.mu.Lock()
			b.states[u.step] = u.state
			b.mu.Unlock()
		case <-b.done:
			return
		}
	}
}

// Report records step's new state. It never blocks the caller for long: the updates channel is
// large enough that a full pipeline run does not fill it faster than run drains it.
func (b *Bulletin) Report(step ecs.Entity, state State) {
	b.updates <- stateUpdate{step: step, state: state}
}

// State returns step's last reported state.
func (b *Bulletin) State(step ecs.Entity) State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.states[step]
}

// Close stops the draining goroutine. Callers call this after every step task has finished.
func (b *Bulletin) Close() {
	close(b.done)
}

// Snapshot returns every step's current state.
func (b *Bulletin) Snapshot() map[ecs.Entity]State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[ecs.Entity]State, len(b.states))
	for e, s := range b.states {
		out[e] = s
	}
	return out
}

// RunOptions configures one pipeline execution.
type RunOptions struct {
	Root           string
	PipelineName   string
	Pool           *Pool
	PollInterval   time.Duration
	StepTimeout    time.Duration
	Terminate      bool
	Graph          *Graph
	Invalidate     map[ecs.Entity]Invalidate
	Conditions     map[ecs.Entity]RunConditions
	Commands       map[ecs.Entity]string
	StepNames      map[ecs.Entity]string
	Dependencies   map[ecs.Entity][]Dependency
	DependencyRecs map[ecs.Entity][]Record
	Outputs        map[ecs.Entity][]Output
	CompareCtx     CompareContext
}

// Run executes every step in a pipeline to a terminal state, following spec.md section 4.12's
// "launch one task per step" model: each step gets its own goroutine that polls its
// prerequisites' states on the shared Bulletin rather than waiting on a centrally-computed
// execution schedule.
type Run struct {
	opts     RunOptions
	bulletin *Bulletin
}

// NewRun prepares a Run over the steps named in opts.Graph.
func NewRun(opts RunOptions) *Run {
	return &Run{opts: opts, bulletin: NewBulletin(opts.Graph.Steps())}
}

// PipelineName returns the name this run was started with, for callers (such as the metrics
// collector) that label their reporting by pipeline.
func (r *Run) PipelineName() string {
	return r.opts.PipelineName
}

// Snapshot returns every step's current state, exposing the run's Bulletin to callers outside
// the package (such as the metrics collector) without giving them access to Report.
func (r *Run) Snapshot() map[ecs.Entity]State {
	return r.bulletin.Snapshot()
}

// Pool returns the process pool this run was started with.
func (r *Run) Pool() *Pool {
	return r.opts.Pool
}

// Execute runs every step concurrently and returns once all have reached a terminal state.
func (r *Run) Execute() map[ecs.Entity]State {
	steps := r.opts.Graph.Steps()
	var wg sync.WaitGroup
	wg.Add(len(steps))
	for _, step := range steps {
		step := step
		go func() {
			defer wg.Done()
			r.runStep(step)
		}()
	}
	wg.Wait()
	final := r.bulletin.Snapshot()
	r.bulletin.Close()
	return final
}

// runStep drives a single step through the state machine described in step.go, polling its
// dependency steps, running its diffs, and managing its process via the pool, until it reaches
// a terminal state.
func (r *Run) runStep(step ecs.Entity) {
	logger := xlog.WithStep(r.opts.StepNames[step])
	conditions := r.opts.Conditions[step]
	state := Begin

	report := func(next State) {
		state = next
		r.bulletin.Report(step, next)
	}

	if conditions.Never {
		report(DoneWithoutRunning)
		return
	}
	report(WaitingDependencySteps)

	if !r.waitDependencies(step, conditions) {
		report(Broken)
		logger.Warn().Msg("broken dependency step")
		return
	}
	report(CheckingOutputs)

	missingOutputs := r.hasMissingOutputs(step)
	report(CheckingSuperficialDiffs)

	changed, hasMissingDeps, err := r.diffDependencies(step, false)
	if err != nil {
		logger.Error().Err(err).Msg("superficial dependency comparison failed")
		report(Broken)
		return
	}
	if hasMissingDeps && !conditions.IgnoreMissingDependencies {
		report(Broken)
		return
	}

	needThorough := changed || conditions.IgnoreSuperficialDiffs
	if needThorough && !conditions.IgnoreThoroughDiffs {
		report(CheckingThoroughDiffs)
		changed, _, err = r.diffDependencies(step, true)
		if err != nil {
			logger.Error().Err(err).Msg("thorough dependency comparison failed")
			report(Broken)
			return
		}
	}
	report(ComparingDiffsAndOutputs)

	mustRun := conditions.Always || changed || (missingOutputs && !conditions.IgnoreMissingOutputs)
	if !mustRun {
		report(DoneWithoutRunning)
		return
	}
	report(WaitingToRun)

	for !r.opts.Pool.TryAcquire() {
		time.Sleep(r.pollInterval())
	}
	defer r.opts.Pool.Release()

	command, ok := r.opts.Commands[step]
	if !ok || command == "" {
		report(Broken)
		return
	}
	cp, err := StartCommandProcess(r.opts.StepNames[step], command, r.stepTimeout())
	if err != nil {
		report(Broken)
		return
	}
	report(Running)
	for line := range cp.Lines {
		logger.Debug().Str("stream", line.Stream).Msg(line.Text)
	}
	cp.Wait()
	finished, procErr, timedOut := cp.Poll()
	_ = finished
	if timedOut {
		if r.opts.Terminate {
			cp.Terminate()
		}
		report(Broken)
		return
	}
	if procErr != nil {
		report(Broken)
		return
	}
	report(DoneByRunning)
}

// waitDependencies polls step's prerequisites until every one has reached a terminal state,
// returning false if any non-ignored dependency terminated as Broken.
func (r *Run) waitDependencies(step ecs.Entity, conditions RunConditions) bool {
	deps := r.opts.Graph.DependsOn(step)
	if len(deps) == 0 {
		return true
	}
	for {
		allDone := true
		for _, dep := range deps {
			s := r.bulletin.State(dep)
			if s == Broken && !conditions.IgnoreBrokenDepSteps {
				return false
			}
			if !s.Terminal() {
				allDone = false
			}
		}
		if allDone {
			return true
		}
		time.Sleep(r.pollInterval())
	}
}

func (r *Run) hasMissingOutputs(step ecs.Entity) bool {
	for _, out := range r.opts.Outputs[step] {
		if out.Kind != OutputFile {
			continue
		}
		if _, ok := r.opts.CompareCtx.PMM[out.Path]; !ok {
			return true
		}
	}
	return false
}

// diffDependencies compares every dependency step declares against its stored record, returning
// whether any has changed. A dependency with no stored record is compared against a zero Record
// and so counts as changed; missing is always false, so no dependency is reported as missing.
func (r *Run) diffDependencies(step ecs.Entity, thorough bool) (changed bool, missing bool, err error) {
	deps := r.opts.Dependencies[step]
	recs := r.opts.DependencyRecs[step]
	for i, dep := range deps {
		var record Record
		if i < len(recs) {
			record = recs[i]
		}
		var diffResult struct{ Case diff.Case }
		if thorough {
			result, derr := CompareThorough(r.opts.CompareCtx, dep, record)
			if derr != nil {
				return false, false, derr
			}
			diffResult.Case = result.Case
		} else {
			result, derr := CompareSuperficial(r.opts.CompareCtx, dep, record)
			if derr != nil {
				return false, false, derr
			}
			diffResult.Case = result.Case
		}
		if diffResult.Case != diff.Identical {
			changed = true
		}
	}
	return changed, false, nil
}

func (r *Run) pollInterval() time.Duration {
	if r.opts.PollInterval > 0 {
		return r.opts.PollInterval
	}
	return 10 * time.Millisecond
}

func (r *Run) stepTimeout() time.Duration {
	return r.opts.StepTimeout
}
