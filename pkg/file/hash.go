package file

import (
	"fmt"
	"path/filepath"

	"github.com/xvc-dev/xvc/internal/config"
	"github.com/xvc-dev/xvc/pkg/digest"
)

// HashOptions controls `xvc file hash`.
type HashOptions struct {
	Algorithm    digest.Algorithm
	TextOrBinary config.TextOrBinary
}

// HashResult reports one path's computed content digest.
type HashResult struct {
	Path string
	Hex  string
}

// Hash computes the content digest of each given path without touching the store or the cache,
// the read-only counterpart to Track's digesting step — original_source/file/src/common/mod.rs's
// calc_digest exposed standalone for `xvc file hash`.
func Hash(root string, paths []string, opts HashOptions) ([]HashResult, error) {
	mode := textOrBinaryToDigestMode(opts.TextOrBinary)
	out := make([]HashResult, 0, len(paths))
	for _, p := range paths {
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(root, p)
		}
		dg, err := digest.ContentDigestFromPath(abs, opts.Algorithm, mode)
		if err != nil {
			return nil, fmt.Errorf("file: hash %s: %w", p, err)
		}
		out = append(out, HashResult{Path: p, Hex: dg.Hex()})
	}
	return out, nil
}
