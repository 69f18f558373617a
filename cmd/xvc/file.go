package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xvc-dev/xvc/internal/config"
	"github.com/xvc-dev/xvc/pkg/digest"
	"github.com/xvc-dev/xvc/pkg/file"
	"github.com/xvc-dev/xvc/pkg/metrics"
)

var fileCmd = &cobra.Command{
	Use:     "file",
	Aliases: []string{"f"},
	Short:   "Track, recheck, list and otherwise manage tracked files",
}

func init() {
	fileCmd.AddCommand(fileTrackCmd, fileRecheckCmd, fileCarryInCmd, fileListCmd,
		fileMoveCmd, fileCopyCmd, fileHashCmd, fileRemoveCmd)

	fileTrackCmd.Flags().Bool("force", false, "recompute and re-carry-in even when metadata looks unchanged")
	fileTrackCmd.Flags().Bool("no-commit", false, "record metadata and digests without moving content into the cache")
	fileTrackCmd.Flags().String("text-or-binary", "", "force text/binary digest mode instead of auto-detecting (auto, text, binary)")
	fileTrackCmd.Flags().Bool("include-git-files", false, "also track paths that .gitignore excludes, instead of skipping them")

	fileRecheckCmd.Flags().String("method", "", "how to materialize cached content (copy, hardlink, symlink, reflink)")

	fileCarryInCmd.Flags().Bool("force", false, "carry in even when the workspace digest already matches the recorded one")

	fileListCmd.Flags().String("sort", "", "row ordering (none, name-asc, name-desc, size-asc, size-desc)")
	fileListCmd.Flags().Bool("show-dot-files", false, "include dotfiles in the listing")
	fileListCmd.Flags().Bool("no-summary", false, "omit the trailing totals line")

	fileMoveCmd.Flags().Bool("no-recheck", false, "update the tracked record without touching the workspace copy")
	fileCopyCmd.Flags().Bool("no-recheck", false, "update the tracked record without materializing the new copy")

	fileHashCmd.Flags().String("text-or-binary", "", "force text/binary digest mode instead of auto-detecting (auto, text, binary)")

	fileRemoveCmd.Flags().Bool("from-cache", false, "also delete the cached content, if no other tracked path references it")
	fileRemoveCmd.Flags().Bool("from-workspace", false, "also delete the workspace copy")
}

var fileTrackCmd = &cobra.Command{
	Use:   "track [paths...]",
	Short: "Start tracking files, recording their metadata and content digest",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}

		textOrBinary := stringFlagOr(cmd, "text-or-binary", string(s.cfg.File.Track.TextOrBinary))
		timer := metrics.NewTimer()
		report, err := file.Track(s.gen, s.file, s.root.Path, args, file.TrackOptions{
			TextOrBinary:    config.TextOrBinary(textOrBinary),
			Force:           boolFlagOr(cmd, "force", s.cfg.File.Track.Force),
			NoCommit:        boolFlagOr(cmd, "no-commit", s.cfg.File.Track.NoCommit),
			IncludeGitFiles: boolFlagOr(cmd, "include-git-files", s.cfg.File.Track.IncludeGitFiles),
			Algorithm:       digest.Algorithm(s.cfg.Cache.Algorithm),
			RecheckMethod:   s.cfg.File.Recheck.Method,
		})
		timer.ObserveDuration(metrics.FileTrackDuration)
		if err != nil {
			return err
		}

		for _, t := range report.Tracked {
			fmt.Println(t.Path)
		}
		metrics.TrackedFilesTotal.Set(float64(len(s.file.Paths.Entities())))

		return s.close("file track")
	},
}

var fileRecheckCmd = &cobra.Command{
	Use:   "recheck [paths...]",
	Short: "Materialize tracked content back into the workspace from the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}

		method := stringFlagOr(cmd, "method", string(s.cfg.File.Recheck.Method))
		rechecked, err := file.Recheck(s.file, s.root.Path, args, file.RecheckOptions{
			Method: config.RecheckMethod(method),
		})
		if err != nil {
			return err
		}

		for _, r := range rechecked {
			fmt.Println(r.Path)
			metrics.CacheHitsTotal.Inc()
		}
		return s.close("file recheck")
	},
}

var fileCarryInCmd = &cobra.Command{
	Use:   "carry-in [paths...]",
	Short: "Move changed workspace content into the cache and recheck it back out",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}

		carried, err := file.CarryIn(s.file, s.root.Path, args, file.CarryInOptions{
			Force:         boolFlagOr(cmd, "force", s.cfg.File.CarryIn.Force),
			Algorithm:     digest.Algorithm(s.cfg.Cache.Algorithm),
			TextOrBinary:  s.cfg.File.Track.TextOrBinary,
			RecheckMethod: s.cfg.File.Recheck.Method,
		})
		if err != nil {
			return err
		}

		for _, c := range carried {
			fmt.Println(c.Path)
			metrics.CacheMissesTotal.Inc()
		}
		return s.close("file carry-in")
	},
}

var fileListCmd = &cobra.Command{
	Use:   "list [paths...]",
	Short: "List tracked files",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}

		sortBy := stringFlagOr(cmd, "sort", s.cfg.File.List.Sort)
		report, err := file.List(s.file, args, file.ListOptions{
			Sort:         file.ListSort(sortBy),
			ShowDotFiles: boolFlagOr(cmd, "show-dot-files", s.cfg.File.List.ShowDotFiles),
			NoSummary:    boolFlagOr(cmd, "no-summary", s.cfg.File.List.NoSummary),
		})
		if err != nil {
			return err
		}

		for _, row := range report.Rows {
			fmt.Println(row.String())
		}
		if report.Summary != nil {
			fmt.Printf("Total: %d files, %d bytes\n", report.Summary.TotalFiles, report.Summary.TotalBytes)
		}
		return nil
	},
}

var fileMoveCmd = &cobra.Command{
	Use:   "move <source> <destination>",
	Short: "Rename a tracked path, keeping its entity and digest history",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		err = file.Move(s.file, s.root.Path, args[0], args[1], file.MoveOptions{
			RecheckMethod: s.cfg.File.Recheck.Method,
			NoRecheck:     boolFlagOr(cmd, "no-recheck", false),
		})
		if err != nil {
			return err
		}
		return s.close("file move")
	},
}

var fileCopyCmd = &cobra.Command{
	Use:   "copy <source> <destination>",
	Short: "Duplicate a tracked path's record under a new entity sharing the same digest",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		err = file.Copy(s.gen, s.file, s.root.Path, args[0], args[1], file.MoveOptions{
			RecheckMethod: s.cfg.File.Recheck.Method,
			NoRecheck:     boolFlagOr(cmd, "no-recheck", false),
		})
		if err != nil {
			return err
		}
		return s.close("file copy")
	},
}

var fileHashCmd = &cobra.Command{
	Use:   "hash <paths...>",
	Short: "Compute the content digest of paths without tracking them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		textOrBinary := stringFlagOr(cmd, "text-or-binary", string(s.cfg.File.Track.TextOrBinary))
		results, err := file.Hash(s.root.Path, args, file.HashOptions{
			Algorithm:    digest.Algorithm(s.cfg.Cache.Algorithm),
			TextOrBinary: config.TextOrBinary(textOrBinary),
		})
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Printf("%s  %s\n", r.Hex, r.Path)
		}
		return nil
	},
}

var fileRemoveCmd = &cobra.Command{
	Use:   "remove [paths...]",
	Short: "Stop tracking files",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		removed, err := file.Remove(s.file, s.root.Path, args, file.RemoveOptions{
			FromCache:     boolFlagOr(cmd, "from-cache", false),
			FromWorkspace: boolFlagOr(cmd, "from-workspace", false),
		})
		if err != nil {
			return err
		}
		for _, p := range removed {
			fmt.Println(p)
		}
		return s.close("file remove")
	},
}
