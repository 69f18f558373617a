// Package ignore implements xvc's gitignore-compatible ignore-rule engine: parsing ignore-file
// content into patterns, compiling those patterns into glob matchers, and checking a path
// against the compiled rule set with whitelist-dominates-ignore precedence.
package ignore

import (
	"strings"
)

// Effect distinguishes an ignore pattern from a whitelist (negated, `!`-prefixed) pattern.
type Effect int

const (
	Ignore Effect = iota
	Whitelist
)

// Relativity is whether a pattern matches anywhere in the tree or only under one directory.
type Relativity struct {
	Anywhere  bool
	Directory string // meaningful only when Anywhere is false
}

// Kind is whether a pattern can only match a directory or matches a path of any kind.
type Kind int

const (
	Any Kind = iota
	DirectoryOnly
)

// Source records where a pattern came from: a specific line of an ignore file, or a
// programmatically supplied ("global") pattern.
type Source struct {
	FromFile bool
	Path     string // relative to the ignore root; meaningful only when FromFile
	Line     int    // 1-based; meaningful only when FromFile
}

// Pattern is one parsed ignore-file line (or global rule), both in its original textual form
// and as the glob string ready for doublestar matching once Compile has transformed it.
type Pattern struct {
	Original   string
	Glob       string // set by transformForGlob; empty until compiled
	Source     Source
	Effect     Effect
	Relativity Relativity
	Kind       Kind
}

// buildPattern parses one ignore-file line into a Pattern, following the same precedence the
// original gitignore-compatible parser uses: a leading `!` marks Whitelist, a trailing `/`
// marks DirectoryOnly, and any non-final `/` anchors the pattern to its containing directory.
func buildPattern(source Source, original string) Pattern {
	currentDir := ""
	if source.FromFile {
		currentDir = strings.TrimSuffix(parentDir(source.Path), "/")
	}

	line := original
	beginExclamation := strings.HasPrefix(line, "!")
	if beginExclamation || strings.HasPrefix(line, `\!`) {
		line = line[1:]
	}

	if !strings.HasSuffix(line, `\ `) {
		line = strings.TrimRight(line, " \t")
	}

	endSlash := strings.HasSuffix(line, "/")
	if endSlash {
		line = line[:len(line)-1]
	}

	beginSlash := strings.HasPrefix(line, "/")
	nonFinalSlash := false
	if line != "" {
		nonFinalSlash = strings.Contains(line[:len(line)-1], "/")
	}
	if beginSlash {
		line = line[1:]
	}

	effect := Ignore
	if beginExclamation {
		effect = Whitelist
	}

	kind := Any
	if endSlash {
		kind = DirectoryOnly
	}

	relativity := Relativity{Anywhere: true}
	if nonFinalSlash {
		relativity = Relativity{Anywhere: false, Directory: currentDir}
	}

	return Pattern{
		Original:   original,
		Source:     source,
		Effect:     effect,
		Relativity: relativity,
		Kind:       kind,
		Glob:       transformForGlob(line, kind, relativity),
	}
}

// parentDir returns the directory portion of a file path ("" for a top-level file), using
// forward slashes as path.Dir would for a slash-normalized repo-relative path.
func parentDir(p string) string {
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return ""
	}
	return p[:idx]
}

// transformForGlob wraps the bare pattern text into a doublestar glob matching the 4 kind x
// relativity combinations exactly as the original compiler does. A pattern anchored to the
// repository root (Directory == "") is equivalent to Anywhere: anchoring to the root means it
// can match starting at any depth from that root, same as an unanchored pattern.
func transformForGlob(pattern string, kind Kind, rel Relativity) string {
	anchored := !rel.Anywhere && rel.Directory != ""
	switch {
	case kind == Any && !anchored:
		return "**/" + pattern
	case kind == Any && anchored:
		return rel.Directory + "/**/" + pattern
	case kind == DirectoryOnly && !anchored:
		return "**/" + pattern + "/**"
	default: // DirectoryOnly && anchored
		return rel.Directory + "/**/" + pattern + "/**"
	}
}

// ContentToPatterns parses the lines of an ignore file's content into Patterns. Blank lines and
// `#`-comment lines are skipped; trailing whitespace is trimmed unless escaped with a trailing
// `\ `. When sourcePath is non-empty, each Pattern records the file and 1-based line number it
// came from (sourcePath given relative to ignoreRoot); otherwise patterns are tagged as global.
func ContentToPatterns(sourcePath string, content string) []Pattern {
	lines := strings.Split(content, "\n")
	out := make([]Pattern, 0, len(lines))
	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		line := raw
		if !strings.HasSuffix(line, `\ `) {
			line = strings.TrimRight(line, " \t")
		}
		var src Source
		if sourcePath != "" {
			src = Source{FromFile: true, Path: sourcePath, Line: i + 1}
		}
		out = append(out, buildPattern(src, line))
	}
	return out
}
