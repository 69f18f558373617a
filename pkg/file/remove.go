package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xvc-dev/xvc/pkg/cache"
	"github.com/xvc-dev/xvc/pkg/digest"
	"github.com/xvc-dev/xvc/pkg/xvcpath"
)

// RemoveOptions controls `xvc file remove`.
type RemoveOptions struct {
	FromCache     bool // also delete the cached content, not just the store records
	FromWorkspace bool // also delete the workspace copy
}

// Remove drops the store records for every path matching targets. With opts.FromCache it also
// deletes the cached content (when no other tracked path still shares that digest); with
// opts.FromWorkspace it also deletes the workspace file.
func Remove(stores *Stores, root string, targets []string, opts RemoveOptions) ([]xvcpath.XvcPath, error) {
	var removed []xvcpath.XvcPath
	for _, e := range stores.Paths.Entities() {
		path, ok := stores.Paths.Get(e)
		if !ok {
			continue
		}
		if !pathMatchesTargets(string(path), targets) {
			continue
		}

		dv, hasDigest := stores.ContentDigest.Get(e)

		if opts.FromWorkspace {
			if err := os.Remove(path.AbsPath(root)); err != nil && !os.IsNotExist(err) {
				return removed, fmt.Errorf("file: remove %s: %w", path, err)
			}
		}

		stores.Paths.Remove(e)
		stores.Metadata.Remove(e)
		stores.ContentDigest.Remove(e)
		stores.TextOrBinary.Remove(e)

		if opts.FromCache && hasDigest && !dv.IsZero() && !digestStillReferenced(stores, dv) {
			hexBytes, err := hexDecode(dv.Hex)
			if err != nil {
				return removed, fmt.Errorf("file: remove %s: %w", path, err)
			}
			dg := digest.ContentDigest{XvcDigest: digest.XvcDigest{Algorithm: digest.Algorithm(dv.Algorithm), Bytes: hexBytes}}
			cachePath := cache.AbsPath(root, dg, extOf(string(path)))
			// MoveToCache leaves the entry's directory read-only; unlinking the entry needs write access.
			_ = os.Chmod(filepath.Dir(cachePath), 0o755)
			if err := os.Remove(cachePath); err != nil && !os.IsNotExist(err) {
				return removed, fmt.Errorf("file: remove cache entry for %s: %w", path, err)
			}
		}

		removed = append(removed, path)
	}
	return removed, nil
}

func digestStillReferenced(stores *Stores, dv DigestValue) bool {
	for _, e := range stores.ContentDigest.Entities() {
		other, ok := stores.ContentDigest.Get(e)
		if ok && other.Algorithm == dv.Algorithm && other.Hex == dv.Hex {
			return true
		}
	}
	return false
}
