package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/xvc-dev/xvc/internal/config"
	"github.com/xvc-dev/xvc/pkg/ecs"
	"github.com/xvc-dev/xvc/pkg/file"
	"github.com/xvc-dev/xvc/pkg/git"
	"github.com/xvc-dev/xvc/pkg/pipeline"
	"github.com/xvc-dev/xvc/pkg/repo"
	"github.com/xvc-dev/xvc/pkg/storage"
)

// session bundles everything a command needs to read and persist repository state: the
// repository root, its resolved configuration, the process-wide entity generator, every
// package's component stores, and the git client backing the automation the global flags
// control.
type session struct {
	root     repo.Root
	cfg      *config.Config
	gen      *ecs.Generator
	file     *file.Stores
	pipeline *pipeline.Stores
	storage  *storage.Stores
	git      *git.Client
}

func parseConfigOptions(raw []string) ([]config.Option, error) {
	opts := make([]config.Option, 0, len(raw))
	for _, r := range raw {
		idx := strings.IndexByte(r, '=')
		if idx < 0 {
			return nil, fmt.Errorf("invalid -c value %q, expected section.key=value", r)
		}
		opts = append(opts, config.Option{Key: r[:idx], Value: r[idx+1:]})
	}
	return opts, nil
}

// openSession finds the repository enclosing --workdir, loads its configuration and every
// package's persisted stores, and restores the process-wide entity generator (LoadGenerator,
// since InitGenerator is reserved for `xvc init`'s fresh process). If --from-ref is set, it
// checks out that ref (stashing the user's staged changes around it) before returning.
func openSession() (*session, error) {
	root, err := repo.FindRoot(flagWorkdir)
	if err != nil {
		return nil, err
	}

	opts, err := parseConfigOptions(flagConfigSet)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(config.DefaultSources(root.Path, opts))
	if err != nil {
		return nil, err
	}

	gen, err := ecs.LoadGenerator(root.EntityCounterDir())
	if err != nil {
		return nil, err
	}

	fileStores, err := file.LoadStores(root.StoreDir())
	if err != nil {
		return nil, err
	}
	pipelineStores, err := pipeline.LoadStores(root.StoreDir())
	if err != nil {
		return nil, err
	}
	storageStores, err := storage.LoadStores(root.StoreDir())
	if err != nil {
		return nil, err
	}

	s := &session{
		root: root, cfg: cfg, gen: gen,
		file: fileStores, pipeline: pipelineStores, storage: storageStores,
		git: git.NewClient(cfg.Git.Command, root.Path),
	}

	if flagFromRef != "" && s.gitEnabled() {
		if err := s.git.CheckoutRef(context.Background(), flagFromRef); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// gitEnabled reports whether git automation should run at all for this invocation: the
// repository's git.use_git config key, unless --skip-git overrides it off.
func (s *session) gitEnabled() bool {
	return s.cfg.Git.UseGit && !flagSkipGit
}

// close persists every store this session may have changed, saves the entity generator, and
// (unless git is disabled) runs the configured auto-commit/auto-stage automation, naming
// cmdName in the commit message.
func (s *session) close(cmdName string) error {
	if err := s.gen.Save(s.root.EntityCounterDir()); err != nil {
		return err
	}
	if err := s.file.Save(s.root.StoreDir()); err != nil {
		return err
	}
	if err := s.pipeline.Save(s.root.StoreDir()); err != nil {
		return err
	}
	if err := s.storage.Save(s.root.StoreDir()); err != nil {
		return err
	}

	return s.git.HandleAutomation(context.Background(), git.AutomationOptions{
		UseGit:     s.gitEnabled(),
		AutoCommit: s.cfg.Git.AutoCommit,
		AutoStage:  s.cfg.Git.AutoStage,
		XvcDir:     repo.Dir,
		CmdName:    cmdName,
		ToBranch:   flagToBranch,
	})
}
