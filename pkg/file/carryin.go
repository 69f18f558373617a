package file

import (
	"fmt"

	"github.com/xvc-dev/xvc/internal/config"
	"github.com/xvc-dev/xvc/pkg/digest"
	"github.com/xvc-dev/xvc/pkg/xvcpath"
)

// CarryInOptions controls a standalone `file carry-in` run.
type CarryInOptions struct {
	Force         bool
	Algorithm     digest.Algorithm
	TextOrBinary  config.TextOrBinary
	RecheckMethod config.RecheckMethod
}

// CarryIn moves the on-disk content of every tracked path matching targets into the cache,
// rechecking each one back out afterward, the same last step Track performs when !NoCommit —
// exposed standalone for `xvc file carry-in`, used e.g. after a workspace file was edited
// in place. A path whose on-disk content already matches its recorded digest is skipped unless
// opts.Force.
func CarryIn(stores *Stores, root string, targets []string, opts CarryInOptions) ([]TrackedFile, error) {
	var out []TrackedFile
	for _, e := range stores.Paths.Entities() {
		path, ok := stores.Paths.Get(e)
		if !ok {
			continue
		}
		if !pathMatchesTargets(string(path), targets) {
			continue
		}
		meta, ok := stores.Metadata.Get(e)
		if !ok || meta.FileType != xvcpath.File {
			continue
		}

		mode := textOrBinaryToDigestMode(opts.TextOrBinary)
		dg, err := digest.ContentDigestFromPath(path.AbsPath(root), opts.Algorithm, mode)
		if err != nil {
			return nil, fmt.Errorf("file: carry-in %s: %w", path, err)
		}

		recorded, hasRecord := stores.ContentDigest.Get(e)
		unchanged := hasRecord && recorded.Algorithm == string(dg.Algorithm) && recorded.Hex == dg.Hex()
		if unchanged && !opts.Force {
			continue
		}

		if err := carryInOne(root, path, dg, opts.RecheckMethod); err != nil {
			return nil, fmt.Errorf("file: carry-in %s: %w", path, err)
		}
		stores.ContentDigest.Insert(e, DigestValue{Algorithm: string(dg.Algorithm), Hex: dg.Hex()})
		out = append(out, TrackedFile{Path: path, Changed: true})
	}
	return out, nil
}
