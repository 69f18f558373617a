package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xvc-dev/xvc/pkg/ecs"
	"github.com/xvc-dev/xvc/pkg/repo"
)

// initCmd creates a new repository. It calls ecs.InitGenerator rather than LoadGenerator
// since this is the one command that runs against a directory with no entity-counter file yet:
// every other command restores the generator LoadGenerator's way.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new xvc repository in the working directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := repo.Init(flagWorkdir)
		if err != nil {
			return err
		}
		gen, err := ecs.InitGenerator()
		if err != nil {
			return err
		}
		if err := gen.Save(root.EntityCounterDir()); err != nil {
			return err
		}
		fmt.Printf("Initialized xvc repository at %s (guid %s)\n", root.Path, root.GUID)
		return nil
	},
}
