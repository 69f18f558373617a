// Package walker traverses directory trees, applying a layered ignore.Rules set that grows as
// ignore files are discovered, and reports each non-ignored path together with its metadata.
package walker

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/xvc-dev/xvc/pkg/ignore"
	"github.com/xvc-dev/xvc/pkg/xvcpath"
)

// PathMetadata pairs a root-relative path with the filesystem metadata observed for it.
type PathMetadata struct {
	Path     xvcpath.XvcPath
	Metadata xvcpath.Metadata
}

// Options controls how a walk names its ignore file and whether directories are reported
// alongside the files they contain.
type Options struct {
	IgnoreFilename string // empty disables ignore-file discovery entirely
	IncludeDirs    bool
}

// GitignoreOptions walks using `.gitignore` semantics, reporting directories.
func GitignoreOptions() Options {
	return Options{IgnoreFilename: ".gitignore", IncludeDirs: true}
}

// XvcignoreOptions walks using `.xvcignore` semantics, reporting directories.
func XvcignoreOptions() Options {
	return Options{IgnoreFilename: ".xvcignore", IncludeDirs: true}
}

// WithoutDirs returns o with directory entries excluded from results (they are still traversed).
func (o Options) WithoutDirs() Options {
	o.IncludeDirs = false
	return o
}

// WithDirs returns o with directory entries included in results.
func (o Options) WithDirs() Options {
	o.IncludeDirs = true
	return o
}

// entry is one child of a directory being walked, combined with the absolute path used to stat
// and recurse into it.
type entry struct {
	abs  string
	pm   PathMetadata
	info os.FileInfo
}

// listDirectory lists the immediate children of dir (an absolute path), returning one entry per
// child in deterministic (name-sorted) order. A per-entry stat failure is reported as an error
// alongside the successfully-read entries rather than aborting the whole listing.
func listDirectory(root, dir string) ([]entry, []error) {
	names, err := os.ReadDir(dir)
	if err != nil {
		return nil, []error{err}
	}
	sort.Slice(names, func(i, j int) bool { return names[i].Name() < names[j].Name() })

	entries := make([]entry, 0, len(names))
	var errs []error
	for _, de := range names {
		abs := filepath.Join(dir, de.Name())
		info, err := de.Info()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		xp, err := xvcpath.FromAbs(root, abs)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entries = append(entries, entry{
			abs:  abs,
			pm:   PathMetadata{Path: xp, Metadata: xvcpath.FromStat(info)},
			info: info,
		})
	}
	return entries, errs
}

// loadDirectoryIgnores reads opts.IgnoreFilename from dir, if present, and layers its patterns
// onto rules. It returns rules unchanged when the ignore file is absent or ignore discovery is
// disabled.
func loadDirectoryIgnores(rules ignore.Rules, root, dir string, opts Options, entries []entry) (ignore.Rules, error) {
	if opts.IgnoreFilename == "" {
		return rules, nil
	}
	for _, e := range entries {
		if filepath.Base(e.abs) != opts.IgnoreFilename {
			continue
		}
		content, err := os.ReadFile(e.abs)
		if err != nil {
			return rules, err
		}
		sourcePath, err := xvcpath.FromAbs(root, e.abs)
		if err != nil {
			return rules, err
		}
		patterns := ignore.ContentToPatterns(string(sourcePath), string(content))
		return rules.Update(patterns), nil
	}
	return rules, nil
}

// WalkSerial walks dir (given as an absolute path under root) depth-first in a single goroutine,
// appending every non-ignored path to result and returning the ignore.Rules accumulated over the
// whole subtree (the caller's rules merged with every nested ignore file found).
func WalkSerial(rules ignore.Rules, root, dir string, opts Options, result *[]PathMetadata) (ignore.Rules, []error) {
	entries, errs := listDirectory(root, dir)
	layered, err := loadDirectoryIgnores(rules, root, dir, opts, entries)
	if err != nil {
		errs = append(errs, err)
	} else {
		rules = layered
	}

	var childDirs []entry
	for _, e := range entries {
		switch ignore.CheckIgnore(rules, string(e.pm.Path)) {
		case ignore.Matched:
			continue
		}
		if e.info.IsDir() {
			if opts.IncludeDirs {
				*result = append(*result, e.pm)
			}
			childDirs = append(childDirs, e)
		} else {
			*result = append(*result, e.pm)
		}
	}

	merged := rules
	for _, child := range childDirs {
		childRules, childErrs := WalkSerial(rules, root, child.abs, opts, result)
		errs = append(errs, childErrs...)
		merged = mergePatterns(merged, childRules)
	}

	return merged, errs
}

// mergePatterns folds b's patterns into a, used to combine the ignore rules discovered
// independently down separate subtrees of a walk back into one set covering the whole walk.
func mergePatterns(a, b ignore.Rules) ignore.Rules {
	return a.Update(b.Patterns)
}
