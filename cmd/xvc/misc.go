package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xvc-dev/xvc/pkg/repo"
)

var rootPathCmd = &cobra.Command{
	Use:   "root",
	Short: "Print the absolute path of the repository enclosing the working directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := repo.FindRoot(flagWorkdir)
		if err != nil {
			return err
		}
		fmt.Println(root.Path)
		return nil
	},
}

var aliasesCmd = &cobra.Command{
	Use:   "aliases",
	Short: "List the short aliases every top-level command accepts",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, c := range rootCmd.Commands() {
			if len(c.Aliases) == 0 {
				continue
			}
			fmt.Printf("%s\t%v\n", c.Name(), c.Aliases)
		}
		return nil
	},
}
