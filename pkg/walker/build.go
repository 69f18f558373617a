package walker

import (
	"github.com/xvc-dev/xvc/pkg/ignore"
)

// BuildIgnoreRules walks dir purely to accumulate the ignore rules in effect across its subtree,
// without collecting any PathMetadata — used to (re)prime a walker's starting rules from a
// directory's ignore files before a real walk or watch begins.
func BuildIgnoreRules(rules ignore.Rules, root, dir, ignoreFilename string) (ignore.Rules, []error) {
	opts := Options{IgnoreFilename: ignoreFilename}
	var discard []PathMetadata
	return WalkSerial(rules, root, dir, opts, &discard)
}
