package pipeline

import (
	"fmt"

	"github.com/xvc-dev/xvc/internal/xvcerr"
	"github.com/xvc-dev/xvc/pkg/ecs"
)

// XvcPipeline names a pipeline within a repository. A repository may hold several named
// pipelines; exactly one is "current" at a time (internal/config.PipelineConfig.CurrentPipeline).
type XvcPipeline struct {
	Name string
}

// StepInvalidateComponent pairs a step with its declared Invalidate setting, persisted
// alongside the step itself.
type StepInvalidateComponent struct {
	Invalidate Invalidate
}

// CommandComponent holds the shell command a step runs.
type CommandComponent struct {
	Command string
}

// Stores bundles every persisted component store pipeline.go's entity wiring needs: pipelines,
// steps, their pipeline membership, their invalidate settings and commands, plus their
// dependency and output relations. All are backed by ecs.Store/ecs.R1N, so they round-trip
// through the repository's event log the same way every other tracked component does.
type Stores struct {
	Pipelines   *ecs.Store[XvcPipeline]
	Steps       *ecs.Store[XvcStep]
	StepOf      *ecs.R1N // step entity -> owning pipeline entity
	Invalidate  *ecs.Store[StepInvalidateComponent]
	Commands    *ecs.Store[CommandComponent]
	Dependencies *ecs.Store[Dependency]
	DepOf       *ecs.R1N // dependency entity -> owning step entity
	Outputs     *ecs.Store[Output]
	OutputOf    *ecs.R1N // output entity -> owning step entity
	Records     *ecs.HStore[Record] // last-observed Record, keyed by dependency entity; ephemeral
}

const (
	pipelinesType    = "pipelines"
	stepsType        = "steps"
	stepOfType       = "step-of-pipeline"
	invalidateType   = "step-invalidate"
	commandsType     = "step-commands"
	dependenciesType = "dependencies"
	depOfType        = "dependency-of-step"
	outputsType      = "outputs"
	outputOfType     = "output-of-step"
)

// NewStores creates an empty set of pipeline stores.
func NewStores() *Stores {
	return &Stores{
		Pipelines:    ecs.NewStore[XvcPipeline](pipelinesType),
		Steps:        ecs.NewStore[XvcStep](stepsType),
		StepOf:       ecs.NewR1N(stepOfType),
		Invalidate:   ecs.NewStore[StepInvalidateComponent](invalidateType),
		Commands:     ecs.NewStore[CommandComponent](commandsType),
		Dependencies: ecs.NewStore[Dependency](dependenciesType),
		DepOf:        ecs.NewR1N(depOfType),
		Outputs:      ecs.NewStore[Output](outputsType),
		OutputOf:     ecs.NewR1N(outputOfType),
		Records:      ecs.NewHStore[Record](),
	}
}

// LoadStores restores every persisted pipeline store from storeRoot (Root.StoreDir()).
func LoadStores(storeRoot string) (*Stores, error) {
	pipelines, err := ecs.LoadStore[XvcPipeline](storeRoot, pipelinesType)
	if err != nil {
		return nil, err
	}
	steps, err := ecs.LoadStore[XvcStep](storeRoot, stepsType)
	if err != nil {
		return nil, err
	}
	stepOf, err := ecs.LoadR1N(storeRoot, stepOfType)
	if err != nil {
		return nil, err
	}
	invalidate, err := ecs.LoadStore[StepInvalidateComponent](storeRoot, invalidateType)
	if err != nil {
		return nil, err
	}
	commands, err := ecs.LoadStore[CommandComponent](storeRoot, commandsType)
	if err != nil {
		return nil, err
	}
	deps, err := ecs.LoadStore[Dependency](storeRoot, dependenciesType)
	if err != nil {
		return nil, err
	}
	depOf, err := ecs.LoadR1N(storeRoot, depOfType)
	if err != nil {
		return nil, err
	}
	outputs, err := ecs.LoadStore[Output](storeRoot, outputsType)
	if err != nil {
		return nil, err
	}
	outputOf, err := ecs.LoadR1N(storeRoot, outputOfType)
	if err != nil {
		return nil, err
	}

	return &Stores{
		Pipelines: pipelines, Steps: steps, StepOf: stepOf,
		Invalidate: invalidate, Commands: commands,
		Dependencies: deps, DepOf: depOf,
		Outputs: outputs, OutputOf: outputOf,
		Records: ecs.NewHStore[Record](),
	}, nil
}

// Save persists every store under storeRoot.
func (s *Stores) Save(storeRoot string) error {
	for _, save := range []func(string) error{
		s.Pipelines.Save, s.Steps.Save, s.StepOf.Save,
		s.Invalidate.Save, s.Commands.Save,
		s.Dependencies.Save, s.DepOf.Save,
		s.Outputs.Save, s.OutputOf.Save,
	} {
		if err := save(storeRoot); err != nil {
			return err
		}
	}
	return nil
}

// FindPipeline resolves a pipeline entity by name.
func (s *Stores) FindPipeline(name string) (ecs.Entity, bool) {
	entities := s.Pipelines.EntitiesForValue(XvcPipeline{Name: name})
	if len(entities) == 0 {
		return ecs.Entity{}, false
	}
	return entities[0], true
}

// FindStep resolves a step entity by name, scoped to a single pipeline.
func (s *Stores) FindStep(pipeline ecs.Entity, name string) (ecs.Entity, bool) {
	for _, e := range s.Steps.EntitiesForValue(XvcStep{Name: name}) {
		if p, ok := s.StepOf.Parent(e); ok && p == pipeline {
			return e, true
		}
	}
	return ecs.Entity{}, false
}

// AddStep registers a new step under pipeline, allocating its entity with gen. It returns
// xvcerr.ErrStepNameConflict if pipeline already has a step by that name.
func (s *Stores) AddStep(gen *ecs.Generator, pipeline ecs.Entity, name string, invalidate Invalidate, command string) (ecs.Entity, error) {
	if _, exists := s.FindStep(pipeline, name); exists {
		return ecs.Entity{}, xvcerr.ErrStepNameConflict
	}
	step := gen.Next()
	s.Steps.Insert(step, XvcStep{Name: name})
	s.StepOf.Associate(pipeline, step)
	s.Invalidate.Insert(step, StepInvalidateComponent{Invalidate: invalidate})
	s.Commands.Insert(step, CommandComponent{Command: command})
	return step, nil
}

// AddDependency records that step declares dep, allocating the dependency's own entity.
func (s *Stores) AddDependency(gen *ecs.Generator, step ecs.Entity, dep Dependency) ecs.Entity {
	e := gen.Next()
	s.Dependencies.Insert(e, dep)
	s.DepOf.Associate(step, e)
	return e
}

// AddOutput records that step declares out, allocating the output's own entity.
func (s *Stores) AddOutput(gen *ecs.Generator, step ecs.Entity, out Output) ecs.Entity {
	e := gen.Next()
	s.Outputs.Insert(e, out)
	s.OutputOf.Associate(step, e)
	return e
}

// BuildGraph constructs a Graph for every step belonging to pipeline, adding an explicit edge
// for each StepDep a step declares (resolved by name, matching this step against another step by
// its declared name) and an implicit edge for each FileDep whose path equals a file Output
// another step declares. Glob dependencies and glob outputs add no implicit edges.
// Both forms build the same edge direction: (step, prerequisite).
func (s *Stores) BuildGraph(pipeline ecs.Entity) (*Graph, error) {
	g := NewGraph()
	steps := s.StepOf.Children(pipeline)
	for _, step := range steps {
		g.AddNode(step)
	}

	outputPathToStep := make(map[string]ecs.Entity)
	for _, step := range steps {
		for _, out := range s.OutputOf.Children(step) {
			o, _ := s.Outputs.Get(out)
			if o.Kind == OutputFile {
				outputPathToStep[string(o.Path)] = step
			}
		}
	}

	for _, step := range steps {
		for _, depEntity := range s.DepOf.Children(step) {
			dep, _ := s.Dependencies.Get(depEntity)
			switch dep.Kind {
			case StepKind:
				target, ok := s.FindStep(pipeline, dep.Step.StepName)
				if !ok {
					return nil, fmt.Errorf("pipeline: step dependency on unknown step %q", dep.Step.StepName)
				}
				g.AddEdge(step, target)
			case FileKind:
				if target, ok := outputPathToStep[string(dep.File.Path)]; ok {
					g.AddEdge(step, target)
				}
			}
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
