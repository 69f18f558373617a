package digest

import "path/filepath"

// CachePath returns the deterministic on-disk location of a cached object given its
// ContentDigest and the source path's extension (without leading dot; empty if none), matching
// spec.md section 4.7: `<algo>/{h[0:3]}/{h[3:6]}/{h[6:]}/0.<ext>`.
func CachePath(d ContentDigest, ext string) string {
	h := d.Hex()
	name := "0"
	if ext != "" {
		name += "." + ext
	}
	return filepath.Join(d.Algorithm.shortTag(), h[0:3], h[3:6], h[6:], name)
}
