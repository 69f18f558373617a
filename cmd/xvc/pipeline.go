package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xvc-dev/xvc/pkg/digest"
	"github.com/xvc-dev/xvc/pkg/ecs"
	"github.com/xvc-dev/xvc/pkg/ignore"
	"github.com/xvc-dev/xvc/pkg/metrics"
	"github.com/xvc-dev/xvc/pkg/pipeline"
	"github.com/xvc-dev/xvc/pkg/walker"
	"github.com/xvc-dev/xvc/pkg/xvcpath"
)

var pipelineCmd = &cobra.Command{
	Use:     "pipeline",
	Aliases: []string{"p"},
	Short:   "Define and run pipelines of dependent steps",
}

var pipelineStepCmd = &cobra.Command{
	Use:   "step",
	Short: "Add and inspect a pipeline's steps",
}

func init() {
	pipelineCmd.AddCommand(pipelineNewCmd, pipelineListCmd, pipelineDeleteCmd, pipelineDagCmd,
		pipelineRunCmd, pipelineStepCmd)
	pipelineStepCmd.AddCommand(stepNewCmd, stepListCmd, stepDependencyCmd, stepOutputCmd, stepShowCmd)

	pipelineRunCmd.Flags().String("name", "", "pipeline to run (defaults to pipeline.current_pipeline)")
	pipelineDagCmd.Flags().String("name", "", "pipeline to show (defaults to pipeline.current_pipeline)")

	stepNewCmd.Flags().String("pipeline", "", "owning pipeline (defaults to pipeline.current_pipeline)")
	stepNewCmd.Flags().String("command", "", "shell command this step runs")
	stepNewCmd.Flags().String("invalidate", "by_dependencies", "when to rerun this step (by_dependencies, always, never)")

	stepListCmd.Flags().String("pipeline", "", "owning pipeline (defaults to pipeline.current_pipeline)")

	stepDependencyCmd.Flags().String("pipeline", "", "owning pipeline (defaults to pipeline.current_pipeline)")
	stepDependencyCmd.Flags().String("step", "", "step name this dependency is declared on")
	stepDependencyCmd.Flags().String("file", "", "depend on this tracked file's content and metadata")
	stepDependencyCmd.Flags().String("glob", "", "depend on the set of paths this glob pattern matches")
	stepDependencyCmd.Flags().String("step-dep", "", "depend on another step's completion, by name")

	stepOutputCmd.Flags().String("pipeline", "", "owning pipeline (defaults to pipeline.current_pipeline)")
	stepOutputCmd.Flags().String("step", "", "step name this output is declared on")
	stepOutputCmd.Flags().String("file", "", "path this step produces")
	stepOutputCmd.Flags().String("glob", "", "glob pattern this step's produced paths match")

	stepShowCmd.Flags().String("pipeline", "", "owning pipeline (defaults to pipeline.current_pipeline)")
}

func resolvePipelineName(cmd *cobra.Command, s *session) string {
	if cmd.Flags().Lookup("pipeline") == nil {
		return stringFlagOr(cmd, "name", s.cfg.Pipeline.CurrentPipeline)
	}
	return stringFlagOr(cmd, "pipeline", s.cfg.Pipeline.CurrentPipeline)
}

func findOrFail(s *session, name string) (ecs.Entity, error) {
	e, ok := s.pipeline.FindPipeline(name)
	if !ok {
		return ecs.Entity{}, fmt.Errorf("pipeline: no pipeline named %q", name)
	}
	return e, nil
}

var pipelineNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Declare a new, empty pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		if _, exists := s.pipeline.FindPipeline(args[0]); exists {
			return fmt.Errorf("pipeline: %q already exists", args[0])
		}
		e := s.gen.Next()
		s.pipeline.Pipelines.Insert(e, pipeline.XvcPipeline{Name: args[0]})
		fmt.Printf("Created pipeline %q\n", args[0])
		return s.close("pipeline new")
	},
}

var pipelineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every pipeline in the repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		for _, e := range s.pipeline.Pipelines.Entities() {
			p, _ := s.pipeline.Pipelines.Get(e)
			fmt.Println(p.Name)
		}
		return nil
	},
}

var pipelineDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a pipeline and every step, dependency and output it owns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		e, err := findOrFail(s, args[0])
		if err != nil {
			return err
		}
		for _, step := range s.pipeline.StepOf.Children(e) {
			for _, dep := range s.pipeline.DepOf.Children(step) {
				s.pipeline.Dependencies.Remove(dep)
			}
			for _, out := range s.pipeline.OutputOf.Children(step) {
				s.pipeline.Outputs.Remove(out)
			}
			s.pipeline.Steps.Remove(step)
			s.pipeline.Invalidate.Remove(step)
			s.pipeline.Commands.Remove(step)
		}
		s.pipeline.Pipelines.Remove(e)
		return s.close("pipeline delete")
	},
}

var pipelineDagCmd = &cobra.Command{
	Use:   "dag",
	Short: "Print a pipeline's steps in dependency (topological) order",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		name := resolvePipelineName(cmd, s)
		e, err := findOrFail(s, name)
		if err != nil {
			return err
		}
		g, err := s.pipeline.BuildGraph(e)
		if err != nil {
			return err
		}
		for _, step := range g.TopoOrder() {
			stepVal, _ := s.pipeline.Steps.Get(step)
			deps := g.DependsOn(step)
			depNames := make([]string, 0, len(deps))
			for _, d := range deps {
				dv, _ := s.pipeline.Steps.Get(d)
				depNames = append(depNames, dv.Name)
			}
			fmt.Printf("%s <- %v\n", stepVal.Name, depNames)
		}
		return nil
	},
}

var stepNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Add a step to a pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		name := resolvePipelineName(cmd, s)
		p, err := findOrFail(s, name)
		if err != nil {
			return err
		}
		command, _ := cmd.Flags().GetString("command")
		invalidate, _ := cmd.Flags().GetString("invalidate")
		_, err = s.pipeline.AddStep(s.gen, p, args[0], pipeline.Invalidate(invalidate), command)
		if err != nil {
			return err
		}
		return s.close("pipeline step new")
	},
}

var stepListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a pipeline's steps",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		name := resolvePipelineName(cmd, s)
		p, err := findOrFail(s, name)
		if err != nil {
			return err
		}
		for _, step := range s.pipeline.StepOf.Children(p) {
			stepVal, _ := s.pipeline.Steps.Get(step)
			command, _ := s.pipeline.Commands.Get(step)
			fmt.Printf("%s\t%s\n", stepVal.Name, command.Command)
		}
		return nil
	},
}

var stepDependencyCmd = &cobra.Command{
	Use:   "dependency",
	Short: "Declare a dependency on a step",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		name := resolvePipelineName(cmd, s)
		p, err := findOrFail(s, name)
		if err != nil {
			return err
		}
		stepName, _ := cmd.Flags().GetString("step")
		step, ok := s.pipeline.FindStep(p, stepName)
		if !ok {
			return fmt.Errorf("pipeline: no step named %q", stepName)
		}

		dep, err := dependencyFromFlags(cmd)
		if err != nil {
			return err
		}
		s.pipeline.AddDependency(s.gen, step, dep)
		return s.close("pipeline step dependency")
	},
}

func dependencyFromFlags(cmd *cobra.Command) (pipeline.Dependency, error) {
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		return pipeline.Dependency{Kind: pipeline.FileKind, File: pipeline.FileDep{Path: xvcpath.XvcPath(file)}}, nil
	}
	if glob, _ := cmd.Flags().GetString("glob"); glob != "" {
		return pipeline.Dependency{Kind: pipeline.GlobKind, Glob: pipeline.GlobDep{Pattern: glob}}, nil
	}
	if stepDep, _ := cmd.Flags().GetString("step-dep"); stepDep != "" {
		return pipeline.Dependency{Kind: pipeline.StepKind, Step: pipeline.StepDep{StepName: stepDep}}, nil
	}
	return pipeline.Dependency{}, fmt.Errorf("pipeline: dependency: one of --file, --glob or --step-dep is required")
}

var stepOutputCmd = &cobra.Command{
	Use:   "output",
	Short: "Declare an output a step produces",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		name := resolvePipelineName(cmd, s)
		p, err := findOrFail(s, name)
		if err != nil {
			return err
		}
		stepName, _ := cmd.Flags().GetString("step")
		step, ok := s.pipeline.FindStep(p, stepName)
		if !ok {
			return fmt.Errorf("pipeline: no step named %q", stepName)
		}

		if file, _ := cmd.Flags().GetString("file"); file != "" {
			s.pipeline.AddOutput(s.gen, step, pipeline.Output{Kind: pipeline.OutputFile, Path: xvcpath.XvcPath(file)})
		} else if glob, _ := cmd.Flags().GetString("glob"); glob != "" {
			s.pipeline.AddOutput(s.gen, step, pipeline.Output{Kind: pipeline.OutputGlob, Pattern: glob})
		} else {
			return fmt.Errorf("pipeline: output: one of --file or --glob is required")
		}
		return s.close("pipeline step output")
	},
}

var stepShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a single step's command, dependencies and outputs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		pname := resolvePipelineName(cmd, s)
		p, err := findOrFail(s, pname)
		if err != nil {
			return err
		}
		step, ok := s.pipeline.FindStep(p, args[0])
		if !ok {
			return fmt.Errorf("pipeline: no step named %q", args[0])
		}
		command, _ := s.pipeline.Commands.Get(step)
		invalidate, _ := s.pipeline.Invalidate.Get(step)
		fmt.Printf("name: %s\ncommand: %s\ninvalidate: %s\n", args[0], command.Command, invalidate.Invalidate)
		for _, depEntity := range s.pipeline.DepOf.Children(step) {
			dep, _ := s.pipeline.Dependencies.Get(depEntity)
			fmt.Printf("dependency: %s\n", dep.Kind)
		}
		for _, outEntity := range s.pipeline.OutputOf.Children(step) {
			out, _ := s.pipeline.Outputs.Get(outEntity)
			fmt.Printf("output: %s\n", out.Kind)
		}
		return nil
	},
}

var pipelineRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every step of a pipeline to a terminal state",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		name := resolvePipelineName(cmd, s)
		p, err := findOrFail(s, name)
		if err != nil {
			return err
		}

		g, err := s.pipeline.BuildGraph(p)
		if err != nil {
			return err
		}

		pmm, err := buildPathMetadataMap(s.root.Path)
		if err != nil {
			return err
		}

		conditions := make(map[ecs.Entity]pipeline.RunConditions, len(g.Steps()))
		commands := make(map[ecs.Entity]string, len(g.Steps()))
		stepNames := make(map[ecs.Entity]string, len(g.Steps()))
		dependencies := make(map[ecs.Entity][]pipeline.Dependency, len(g.Steps()))
		outputs := make(map[ecs.Entity][]pipeline.Output, len(g.Steps()))
		for _, step := range g.Steps() {
			command, _ := s.pipeline.Commands.Get(step)
			commands[step] = command.Command

			stepVal, _ := s.pipeline.Steps.Get(step)
			stepNames[step] = stepVal.Name

			for _, depEntity := range s.pipeline.DepOf.Children(step) {
				dep, _ := s.pipeline.Dependencies.Get(depEntity)
				dependencies[step] = append(dependencies[step], dep)
			}
			for _, outEntity := range s.pipeline.OutputOf.Children(step) {
				out, _ := s.pipeline.Outputs.Get(outEntity)
				outputs[step] = append(outputs[step], out)
			}

			inv, _ := s.pipeline.Invalidate.Get(step)
			conditions[step] = pipeline.ConditionsFromInvalidate(inv.Invalidate, len(dependencies[step]) > 0)
		}

		opts := pipeline.RunOptions{
			Root:         s.root.Path,
			PipelineName: name,
			Pool:         pipeline.NewPool(s.cfg.Pipeline.ProcessPoolSize),
			PollInterval: time.Duration(s.cfg.Pipeline.ProcessPollMilliseconds) * time.Millisecond,
			StepTimeout:  time.Duration(s.cfg.Pipeline.StepTimeoutSeconds) * time.Second,
			Terminate:    s.cfg.Pipeline.TerminateOnTimeout,
			Graph:        g,
			Conditions:   conditions,
			Commands:     commands,
			StepNames:    stepNames,
			Dependencies: dependencies,
			Outputs:      outputs,
			CompareCtx: pipeline.CompareContext{
				Root:      s.root.Path,
				Algorithm: digest.Algorithm(s.cfg.Cache.Algorithm),
				PMM:       pmm,
			},
		}

		run := pipeline.NewRun(opts)
		collector := metrics.NewCollector(run)
		collector.Start(100 * time.Millisecond)
		timer := metrics.NewTimer()
		final := run.Execute()
		collector.Stop()
		timer.ObserveDurationVec(metrics.PipelineRunDuration, name)

		outcome := "done"
		for step, state := range final {
			fmt.Printf("%s: %s\n", stepNames[step], state)
			if state == pipeline.Broken {
				outcome = "broken"
				metrics.StepsBrokenTotal.WithLabelValues(name, stepNames[step]).Inc()
			}
		}
		metrics.PipelineRunsTotal.WithLabelValues(name, outcome).Inc()

		return s.close("pipeline run")
	},
}

// buildPathMetadataMap walks the repository under xvcignore semantics, priming the
// CompareContext.PMM a run's FileKind/RegexKind/LinesKind dependencies check freshness against.
func buildPathMetadataMap(root string) (xvcpath.PathMetadataMap, error) {
	var walked []walker.PathMetadata
	_, errs := walker.WalkSerial(ignore.Empty(root), root, root, walker.XvcignoreOptions(), &walked)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	pmm := make(xvcpath.PathMetadataMap, len(walked))
	for _, pm := range walked {
		pmm[pm.Path] = pm.Metadata
	}
	return pmm, nil
}
