// Package pipeline implements xvc's build-step DAG: step and dependency definitions, the
// per-step state machine, dependency comparison, the process pool, and the orchestrator that
// runs every step of a pipeline to completion.
package pipeline

import "fmt"

// XvcStep names one step (stage) in a pipeline. Two steps in the same pipeline may not share a
// name; the pipeline's step store is keyed by this value via entity-by-value lookup.
type XvcStep struct {
	Name string
}

// Invalidate controls when a step is considered to need rerunning.
type Invalidate string

const (
	// ByDependencies is the default: a step reruns when any of its dependencies or outputs has
	// changed, per the diff results computed in CheckingSuperficialDiffs/CheckingThoroughDiffs.
	ByDependencies Invalidate = "by_dependencies"
	// Always forces a step to run on every invocation regardless of its dependencies.
	Always Invalidate = "always"
	// Never freezes a step: it is always reported DoneWithoutRunning.
	Never Invalidate = "never"
)

// State is one state of the per-step state machine described by the transition table in
// Transition. DoneByRunning, DoneWithoutRunning and Broken are terminal: Transition only ever
// maps them back to themselves.
type State int

const (
	Begin State = iota
	WaitingDependencySteps
	CheckingOutputs
	CheckingSuperficialDiffs
	CheckingThoroughDiffs
	ComparingDiffsAndOutputs
	WaitingToRun
	Running
	DoneByRunning
	DoneWithoutRunning
	Broken
)

func (s State) String() string {
	switch s {
	case Begin:
		return "begin"
	case WaitingDependencySteps:
		return "waiting_dependency_steps"
	case CheckingOutputs:
		return "checking_outputs"
	case CheckingSuperficialDiffs:
		return "checking_superficial_diffs"
	case CheckingThoroughDiffs:
		return "checking_thorough_diffs"
	case ComparingDiffsAndOutputs:
		return "comparing_diffs_and_outputs"
	case WaitingToRun:
		return "waiting_to_run"
	case Running:
		return "running"
	case DoneByRunning:
		return "done_by_running"
	case DoneWithoutRunning:
		return "done_without_running"
	case Broken:
		return "broken"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is one of the three states a step never leaves once entered.
func (s State) Terminal() bool {
	return s == DoneByRunning || s == DoneWithoutRunning || s == Broken
}

// Event is an input to the step state machine: the outcome of whatever check or action the
// current state represents, driving Transition to the next state.
type Event int

const (
	RunNever Event = iota
	RunConditional
	DependencyStepsRunning
	DependencyStepsFinishedSuccessfully
	DependencyStepsFinishedBroken
	DependencyStepsFinishedBrokenIgnored
	OutputsChecked
	SuperficialDiffsIgnored
	SuperficialDiffsNotChanged
	SuperficialDiffsChanged
	HasMissingDependencies
	ThoroughDiffsDone
	RunAlways
	DiffsHasChanged
	DiffsHasNotChanged
	ProcessPoolFull
	StartProcess
	CannotStartProcess
	WaitProcess
	ProcessTimeout
	ProcessCompletedSuccessfully
	ProcessReturnedNonZero
	KeepTerminal
)

// Transition maps (state, event) to the next state, following the table documented against
// spec.md section 4.9:
//
//	Begin -> {WaitingDependencySteps, DoneWithoutRunning}
//	WaitingDependencySteps -> {WaitingDependencySteps, CheckingOutputs, Broken}
//	CheckingOutputs -> CheckingSuperficialDiffs
//	CheckingSuperficialDiffs -> {CheckingThoroughDiffs, ComparingDiffsAndOutputs, Broken}
//	CheckingThoroughDiffs -> ComparingDiffsAndOutputs
//	ComparingDiffsAndOutputs -> {WaitingToRun, DoneWithoutRunning}
//	WaitingToRun -> {WaitingToRun, Running, Broken}
//	Running -> {Running, DoneByRunning, Broken}
//
// Transition returns an error for any (state, event) pair not named above, including any event
// offered to a terminal state other than KeepTerminal.
func Transition(current State, event Event) (State, error) {
	invalid := func() (State, error) {
		return current, fmt.Errorf("pipeline: no transition for event %d from state %s", event, current)
	}

	if current.Terminal() {
		if event == KeepTerminal {
			return current, nil
		}
		return invalid()
	}

	switch current {
	case Begin:
		switch event {
		case RunNever:
			return DoneWithoutRunning, nil
		case RunConditional:
			return WaitingDependencySteps, nil
		}
	case WaitingDependencySteps:
		switch event {
		case DependencyStepsRunning:
			return WaitingDependencySteps, nil
		case DependencyStepsFinishedSuccessfully, DependencyStepsFinishedBrokenIgnored:
			return CheckingOutputs, nil
		case DependencyStepsFinishedBroken:
			return Broken, nil
		}
	case CheckingOutputs:
		if event == OutputsChecked {
			return CheckingSuperficialDiffs, nil
		}
	case CheckingSuperficialDiffs:
		switch event {
		case SuperficialDiffsIgnored, SuperficialDiffsChanged:
			return CheckingThoroughDiffs, nil
		case SuperficialDiffsNotChanged:
			return ComparingDiffsAndOutputs, nil
		case HasMissingDependencies:
			return Broken, nil
		}
	case CheckingThoroughDiffs:
		if event == ThoroughDiffsDone {
			return ComparingDiffsAndOutputs, nil
		}
	case ComparingDiffsAndOutputs:
		switch event {
		case RunAlways, DiffsHasChanged:
			return WaitingToRun, nil
		case DiffsHasNotChanged:
			return DoneWithoutRunning, nil
		}
	case WaitingToRun:
		switch event {
		case ProcessPoolFull:
			return WaitingToRun, nil
		case StartProcess:
			return Running, nil
		case CannotStartProcess:
			return Broken, nil
		}
	case Running:
		switch event {
		case WaitProcess:
			return Running, nil
		case ProcessCompletedSuccessfully:
			return DoneByRunning, nil
		case ProcessTimeout, ProcessReturnedNonZero:
			return Broken, nil
		}
	}

	return invalid()
}

// RunConditions resolves an Invalidate setting plus the configuration knobs that tune how
// strictly a step's dependency/output checks are enforced, matching spec.md section 4.9.
type RunConditions struct {
	Never                     bool
	Always                    bool
	WaitRunningDepSteps       bool
	IgnoreBrokenDepSteps      bool
	IgnoreMissingDependencies bool
	IgnoreSuperficialDiffs    bool
	IgnoreThoroughDiffs       bool
	IgnoreMissingOutputs      bool
}

// ConditionsFromInvalidate builds the RunConditions implied by a step's Invalidate setting. The
// remaining fields default to the strict (non-ignoring) behavior; callers needing looser
// semantics (e.g. `--ignore-broken-dep-steps`) adjust the returned value before use.
//
// A ByDependencies step with no dependencies at all has nothing to diff against, so it is
// treated as Always and runs exactly once per pipeline run, per spec.md section 8.
func ConditionsFromInvalidate(inv Invalidate, hasDependencies bool) RunConditions {
	switch inv {
	case Never:
		return RunConditions{Never: true}
	case Always:
		return RunConditions{Always: true}
	default:
		if !hasDependencies {
			return RunConditions{Always: true}
		}
		return RunConditions{}
	}
}
