package ignore

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MatchResult is the outcome of checking a path against a Rules set.
type MatchResult int

const (
	NoMatch MatchResult = iota
	Matched
	WhitelistMatched
)

// Rules is the complete, compiled set of ignore rules for one directory subtree: every Pattern
// collected so far (from root down to the directory being checked), split for matching
// purposes into its ignore and whitelist patterns.
type Rules struct {
	Root      string
	Patterns  []Pattern
	ignoreSet []Pattern
	whiteSet  []Pattern
}

// Empty returns a Rules with no patterns at all — nothing is ignored or whitelisted.
func Empty(root string) Rules {
	return Rules{Root: root}
}

// New builds a Rules directly from a pattern list (e.g. the accumulated patterns from every
// ancestor directory plus the current one), deduplicating by original text and source path.
func New(root string, patterns []Pattern) Rules {
	return Empty(root).Update(patterns)
}

// FromPatterns parses patterns (as a single ignore-file-shaped blob, tagged as global rules,
// e.g. the fixed `.xvcignore` default content) and compiles them into a Rules rooted at root.
func FromPatterns(root string, patterns string) Rules {
	return New(root, ContentToPatterns("", patterns))
}

// Update returns a new Rules with newPatterns appended (after removing patterns whose text and
// source path are already present) and the ignore/whitelist matchers recompiled — additive, matching the
// "layered/additive ignore rules per directory" walk behavior of spec.md section 4.4.
func (r Rules) Update(newPatterns []Pattern) Rules {
	seen := make(map[string]struct{}, len(r.Patterns))
	merged := make([]Pattern, 0, len(r.Patterns)+len(newPatterns))
	for _, p := range r.Patterns {
		seen[p.Original+"\x00"+p.Source.Path] = struct{}{}
		merged = append(merged, p)
	}
	for _, p := range newPatterns {
		key := p.Original + "\x00" + p.Source.Path
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, p)
	}

	next := Rules{Root: r.Root, Patterns: merged}
	for _, p := range merged {
		switch p.Effect {
		case Ignore:
			next.ignoreSet = append(next.ignoreSet, p)
		case Whitelist:
			next.whiteSet = append(next.whiteSet, p)
		}
	}
	return next
}

// CheckIgnore reports whether path (given relative to Root, using forward slashes, with no
// leading slash) is matched by this rule set, with whitelist patterns always taking precedence
// over ignore patterns — spec.md's "whitelist dominates ignore".
func CheckIgnore(r Rules, path string) MatchResult {
	normalized := normalizeForMatch(path)
	for _, p := range r.whiteSet {
		if matchPattern(p, normalized) {
			return WhitelistMatched
		}
	}
	for _, p := range r.ignoreSet {
		if matchPattern(p, normalized) {
			return Matched
		}
	}
	return NoMatch
}

// normalizeForMatch strips any leading slash from path, since compiled glob patterns are
// segment-relative (no rooted leading slash) and doublestar treats a leading slash as its own
// path segment.
func normalizeForMatch(path string) string {
	return strings.TrimPrefix(path, "/")
}

func matchPattern(p Pattern, path string) bool {
	ok, err := doublestar.Match(p.Glob, path)
	if err != nil {
		return false
	}
	return ok
}
