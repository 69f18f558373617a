package file

import (
	"fmt"

	"github.com/xvc-dev/xvc/internal/config"
	"github.com/xvc-dev/xvc/pkg/cache"
	"github.com/xvc-dev/xvc/pkg/digest"
)

// RecheckOptions controls how tracked content is materialized back into the workspace.
type RecheckOptions struct {
	Method config.RecheckMethod
}

// Recheck materializes every tracked path matching targets (or every tracked path, if targets
// is empty) from the cache into the workspace using opts.Method, following
// original_source/file/src/recheck/mod.rs: it reads the entity's recorded XvcPath and
// ContentDigest, derives the cache path, and calls through to pkg/cache.Recheck.
func Recheck(stores *Stores, root string, targets []string, opts RecheckOptions) ([]TrackedFile, error) {
	var out []TrackedFile
	for _, e := range stores.Paths.Entities() {
		path, ok := stores.Paths.Get(e)
		if !ok {
			continue
		}
		if !pathMatchesTargets(string(path), targets) {
			continue
		}
		dv, ok := stores.ContentDigest.Get(e)
		if !ok || dv.IsZero() {
			continue
		}
		dg := digest.ContentDigest{XvcDigest: digest.XvcDigest{Algorithm: digest.Algorithm(dv.Algorithm)}}
		hexBytes, err := hexDecode(dv.Hex)
		if err != nil {
			return nil, fmt.Errorf("file: recheck %s: %w", path, err)
		}
		dg.Bytes = hexBytes

		cachePath := cache.AbsPath(root, dg, extOf(string(path)))
		abs := path.AbsPath(root)
		if err := cache.Recheck(abs, cachePath, opts.Method); err != nil {
			return nil, fmt.Errorf("file: recheck %s: %w", path, err)
		}
		out = append(out, TrackedFile{Path: path, Changed: true})
	}
	return out, nil
}
