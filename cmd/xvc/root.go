package main

import (
	"github.com/spf13/cobra"

	"github.com/xvc-dev/xvc/internal/xlog"
)

// Global persistent flags, shared by every subcommand via openSession.
var (
	flagWorkdir   string
	flagVerbose   int
	flagQuiet     bool
	flagSkipGit   bool
	flagFromRef   string
	flagToBranch  string
	flagConfigSet []string
)

var rootCmd = &cobra.Command{
	Use:          "xvc",
	Short:        "Track large data files and the pipelines that produce them",
	Long:         `xvc is a content-addressed data and pipeline versioning system, meant to sit alongside git.`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&flagWorkdir, "workdir", "C", ".", "run as if xvc was started in this directory")
	flags.CountVarP(&flagVerbose, "verbose", "v", "increase logging verbosity, may be repeated (-vv for debug)")
	flags.BoolVar(&flagQuiet, "quiet", false, "suppress all output except errors")
	flags.BoolVar(&flagSkipGit, "skip-git", false, "skip git automation (stash/commit/stage) for this invocation")
	flags.StringVar(&flagFromRef, "from-ref", "", "check out this git ref before running the command")
	flags.StringVar(&flagToBranch, "to-branch", "", "commit any changes this command makes onto a new branch with this name")
	flags.StringArrayVarP(&flagConfigSet, "set", "c", nil, "override a config value for this invocation: section.key=value")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(storageCmd)
	rootCmd.AddCommand(checkIgnoreCmd)
	rootCmd.AddCommand(rootPathCmd)
	rootCmd.AddCommand(aliasesCmd)
}

func initLogging() {
	level := xlog.ErrorLevel
	switch {
	case flagQuiet:
		level = xlog.ErrorLevel
	case flagVerbose >= 2:
		level = xlog.DebugLevel
	case flagVerbose == 1:
		level = xlog.InfoLevel
	default:
		level = xlog.WarnLevel
	}
	xlog.Init(xlog.Config{Level: level})
}

// boolFlagOr returns the flag's value if the user set it explicitly, or cfgDefault otherwise —
// the `-c section.key=value`/config-file layers only take effect when a command-line flag
// doesn't already override them.
func boolFlagOr(cmd *cobra.Command, name string, cfgDefault bool) bool {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetBool(name)
		return v
	}
	return cfgDefault
}

func stringFlagOr(cmd *cobra.Command, name string, cfgDefault string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return cfgDefault
}
