package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xvc-dev/xvc/pkg/ignore"
	"github.com/xvc-dev/xvc/pkg/walker"
)

var checkIgnoreCmd = &cobra.Command{
	Use:   "check-ignore <path>",
	Short: "Report whether a path would be ignored by xvc's own .xvcignore rules",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		details := boolFlagOr(cmd, "details", s.cfg.CheckIgnore.Details)

		rules, errs := walker.BuildIgnoreRules(ignore.Empty(s.root.Path), s.root.Path, s.root.Path, ".xvcignore")
		if len(errs) > 0 {
			return errs[0]
		}

		result := ignore.CheckIgnore(rules, args[0])
		switch result {
		case ignore.Matched:
			fmt.Printf("%s: ignored\n", args[0])
		case ignore.WhitelistMatched:
			fmt.Printf("%s: whitelisted\n", args[0])
		default:
			fmt.Printf("%s: not ignored\n", args[0])
		}

		if details {
			for _, p := range rules.Patterns {
				fmt.Printf("  %s (%s:%d)\n", p.Original, p.Source.Path, p.Source.Line)
			}
		}

		if s.gitEnabled() {
			gitIgnored, err := s.git.CheckIgnored(context.Background(), args[0])
			if err == nil {
				fmt.Printf("%s: git-ignored=%v\n", args[0], gitIgnored)
			}
		}
		return nil
	},
}

func init() {
	checkIgnoreCmd.Flags().Bool("details", false, "also print every loaded pattern and where it came from (the matching pattern is not singled out)")
}
