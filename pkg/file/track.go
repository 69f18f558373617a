package file

import (
	"sort"

	"github.com/xvc-dev/xvc/internal/config"
	"github.com/xvc-dev/xvc/internal/xlog"
	"github.com/xvc-dev/xvc/pkg/cache"
	"github.com/xvc-dev/xvc/pkg/diff"
	"github.com/xvc-dev/xvc/pkg/digest"
	"github.com/xvc-dev/xvc/pkg/ecs"
	"github.com/xvc-dev/xvc/pkg/ignore"
	"github.com/xvc-dev/xvc/pkg/walker"
	"github.com/xvc-dev/xvc/pkg/xvcpath"
)

// TrackOptions mirrors internal/config.FileTrackConfig, resolved down to the concrete values one
// Track call needs.
type TrackOptions struct {
	TextOrBinary    config.TextOrBinary
	Force           bool
	NoCommit        bool
	IncludeGitFiles bool
	Algorithm       digest.Algorithm
	RecheckMethod   config.RecheckMethod
}

// TrackedFile describes one path Track acted on.
type TrackedFile struct {
	Path    xvcpath.XvcPath
	Changed bool
}

// TrackReport summarizes the result of one Track call.
type TrackReport struct {
	Tracked []TrackedFile
}

// Track walks root below the given targets (or the whole repository if targets is empty),
// records each walked path's metadata and content digest, and — unless opts.NoCommit — moves
// each changed file's content into the cache and rechecks it back out by opts.RecheckMethod. A
// path whose metadata diffs Identical against its existing record (and opts.Force is not set) is
// left untouched: no store insert, and so no new event appended, matching
// original_source/file/src/track/mod.rs:192-196's update_store_records(..., true, false), which
// persists only non-Identical diffs. This mirrors original_source/file/src/track/mod.rs's
// cmd_track pipeline: walk, diff path and metadata, diff (and, for changed entities, recompute)
// the content digest, persist the new records, then carry the changed files into the cache.
func Track(gen *ecs.Generator, stores *Stores, root string, targets []string, opts TrackOptions) (TrackReport, error) {
	logger := xlog.WithComponent("file.track")

	actual, err := walkTargets(root, targets, opts.IncludeGitFiles)
	if err != nil {
		return TrackReport{}, err
	}

	entityOf := make(map[xvcpath.XvcPath]ecs.Entity, len(actual))
	actualMetadata := make(map[ecs.Entity]xvcpath.Metadata, len(actual))
	for path, meta := range actual {
		e := stores.EntityForOrNew(gen, path)
		entityOf[path] = e
		actualMetadata[e] = meta
	}

	entities := make([]ecs.Entity, 0, len(entityOf))
	for _, e := range entityOf {
		entities = append(entities, e)
	}
	recordMetadata := stores.Metadata.Subset(entities)

	metaDiff := diff.DiffStore(recordMetadata, actualMetadata, entities, func(a, b xvcpath.Metadata) bool { return a.Equal(b) })

	report := TrackReport{}
	for path, e := range entityOf {
		d := metaDiff[e]
		changed := opts.Force || diff.Changed(d)
		if !changed {
			report.Tracked = append(report.Tracked, TrackedFile{Path: path, Changed: false})
			continue
		}

		stores.Metadata.Insert(e, actualMetadata[e])
		stores.TextOrBinary.Insert(e, opts.TextOrBinary)

		if actualMetadata[e].FileType == xvcpath.File {
			abs := path.AbsPath(root)
			mode := textOrBinaryToDigestMode(opts.TextOrBinary)
			dg, herr := digest.ContentDigestFromPath(abs, opts.Algorithm, mode)
			if herr != nil {
				logger.Warn().Err(herr).Str("path", string(path)).Msg("failed to digest tracked file")
				continue
			}
			stores.ContentDigest.Insert(e, DigestValue{Algorithm: string(dg.Algorithm), Hex: dg.Hex()})

			if !opts.NoCommit {
				if cerr := carryInOne(root, path, dg, opts.RecheckMethod); cerr != nil {
					logger.Warn().Err(cerr).Str("path", string(path)).Msg("failed to carry file into cache")
				}
			}
		}
		report.Tracked = append(report.Tracked, TrackedFile{Path: path, Changed: changed})
	}

	sort.Slice(report.Tracked, func(i, j int) bool { return report.Tracked[i].Path < report.Tracked[j].Path })
	return report, nil
}

// walkTargets walks root using `.xvcignore` semantics and, unless includeGitFiles, also
// excludes anything `.gitignore` would exclude, then narrows the result to targets (exact paths
// or directory prefixes; glob patterns are not matched; the whole repository when targets is
// empty).
func walkTargets(root string, targets []string, includeGitFiles bool) (xvcpath.PathMetadataMap, error) {
	var walked []walker.PathMetadata
	_, errs := walker.WalkSerial(ignore.Empty(root), root, root, walker.XvcignoreOptions(), &walked)
	if len(errs) > 0 {
		return nil, errs[0]
	}

	var gitRules ignore.Rules
	if !includeGitFiles {
		var gerr []error
		gitRules, gerr = walker.BuildIgnoreRules(ignore.Empty(root), root, root, ".gitignore")
		if len(gerr) > 0 {
			return nil, gerr[0]
		}
	}

	out := make(xvcpath.PathMetadataMap, len(walked))
	for _, pm := range walked {
		if !includeGitFiles && ignore.CheckIgnore(gitRules, string(pm.Path)) == ignore.Matched {
			continue
		}
		if !pathMatchesTargets(string(pm.Path), targets) {
			continue
		}
		out[pm.Path] = pm.Metadata
	}
	return out, nil
}

func pathMatchesTargets(path string, targets []string) bool {
	if len(targets) == 0 {
		return true
	}
	for _, t := range targets {
		if path == t {
			return true
		}
		if len(path) > len(t) && path[:len(t)+1] == t+"/" {
			return true
		}
	}
	return false
}

func textOrBinaryToDigestMode(t config.TextOrBinary) digest.TextOrBinary {
	switch t {
	case config.Text:
		return digest.Text
	case config.Binary:
		return digest.Binary
	default:
		return digest.Auto
	}
}

func carryInOne(root string, path xvcpath.XvcPath, dg digest.ContentDigest, method config.RecheckMethod) error {
	abs := path.AbsPath(root)
	ext := extOf(string(path))
	cachePath := cache.AbsPath(root, dg, ext)
	if err := cache.MoveToCache(abs, cachePath); err != nil {
		return err
	}
	return cache.Recheck(abs, cachePath, method)
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i+1:]
		}
	}
	return ""
}
