package pipeline

import (
	"github.com/xvc-dev/xvc/pkg/digest"
	"github.com/xvc-dev/xvc/pkg/xvcpath"
)

// DigestValue is digest.XvcDigest flattened into a comparable shape (a hex string rather than a
// byte slice) so it can live inside a component struct held by ecs.Store, which requires
// comparable component types.
type DigestValue struct {
	Algorithm string
	Hex       string
}

// ToDigestValue flattens d for storage.
func ToDigestValue(d digest.XvcDigest) DigestValue {
	return DigestValue{Algorithm: string(d.Algorithm), Hex: d.Hex()}
}

// Equal reports whether two flattened digests represent the same value.
func (v DigestValue) Equal(other DigestValue) bool {
	return v.Algorithm == other.Algorithm && v.Hex == other.Hex
}

// IsZero reports whether v carries no digest at all.
func (v DigestValue) IsZero() bool { return v.Algorithm == "" && v.Hex == "" }

// DependencyKind discriminates the concrete dependency type held by a Dependency value.
type DependencyKind int

const (
	StepKind DependencyKind = iota
	GenericKind
	FileKind
	GlobKind
	GlobDigestKind
	RegexKind
	RegexDigestKind
	ParamKind
	LinesKind
	LinesDigestKind
	UrlDigestKind
)

func (k DependencyKind) String() string {
	switch k {
	case StepKind:
		return "step"
	case GenericKind:
		return "generic"
	case FileKind:
		return "file"
	case GlobKind:
		return "glob"
	case GlobDigestKind:
		return "glob-digest"
	case RegexKind:
		return "regex"
	case RegexDigestKind:
		return "regex-digest"
	case ParamKind:
		return "param"
	case LinesKind:
		return "lines"
	case LinesDigestKind:
		return "lines-digest"
	case UrlDigestKind:
		return "url-digest"
	default:
		return "unknown"
	}
}

// StepDep names another step by name: this step depends on that step's completion, not on any
// file or content it produces.
type StepDep struct {
	StepName string
}

// GenericDep depends on the stdout of a shell command, comparing the command string itself
// superficially and its captured output thoroughly.
type GenericDep struct {
	Command string
}

// FileDep depends on a single tracked path's content and metadata.
type FileDep struct {
	Path xvcpath.XvcPath
}

// GlobDep depends on the *set* of paths a glob pattern matches (paths added or removed), not
// their content.
type GlobDep struct {
	Pattern       string
	MatchedPaths  string // sorted, newline-joined XvcPath list, matching the CollectionDigest convention
	MatchedDigest DigestValue
}

// GlobDigestDep depends on the combined content digest of every path a glob pattern matches, so
// it changes when any matched file's content changes, not only when the match set changes.
type GlobDigestDep struct {
	Pattern string
}

// RegexDep depends on which lines of a file match a regular expression (the set of matches, not
// their content digest).
type RegexDep struct {
	Path    xvcpath.XvcPath
	Pattern string
}

// RegexDigestDep depends on the content digest of the lines of a file matching a regular
// expression.
type RegexDigestDep struct {
	Path    xvcpath.XvcPath
	Pattern string
}

// ParamDep depends on a single key's value inside a structured parameters file.
type ParamDep struct {
	Path    xvcpath.XvcPath
	KeyPath string
}

// LinesDep depends on the literal text of a line range within a file.
type LinesDep struct {
	Path  xvcpath.XvcPath
	Begin int
	End   int
}

// LinesDigestDep depends on the content digest of a line range within a file.
type LinesDigestDep struct {
	Path  xvcpath.XvcPath
	Begin int
	End   int
}

// UrlDigestDep depends on the content digest of an HTTP(S) resource's body.
type UrlDigestDep struct {
	URL string
}

// Dependency is a tagged union over every dependency kind a step can declare. Only the field
// matching Kind is meaningful; the rest are zero. Every field of every member struct is itself
// comparable, which keeps Dependency comparable and so usable as an ecs.Store/ecs.HStore
// component.
type Dependency struct {
	Kind DependencyKind

	Step         StepDep
	Generic      GenericDep
	File         FileDep
	Glob         GlobDep
	GlobDigest   GlobDigestDep
	Regex        RegexDep
	RegexDigest  RegexDigestDep
	Param        ParamDep
	Lines        LinesDep
	LinesDigest  LinesDigestDep
	UrlDigest    UrlDigestDep
}

// OutputKind discriminates what kind of artifact a step declares as output.
type OutputKind int

const (
	OutputFile OutputKind = iota
	OutputGlob
	OutputMetric
	OutputImage
)

func (k OutputKind) String() string {
	switch k {
	case OutputFile:
		return "file"
	case OutputGlob:
		return "glob"
	case OutputMetric:
		return "metric"
	case OutputImage:
		return "image"
	default:
		return "unknown"
	}
}

// Output is a single artifact a step declares it produces, checked for presence (and, for
// OutputFile, content) in CheckingOutputs.
type Output struct {
	Kind    OutputKind
	Path    xvcpath.XvcPath
	Pattern string // used when Kind == OutputGlob
}

// Record is the persisted, comparable snapshot of a dependency's actual state at the time it was
// last observed, compared against a freshly-recomputed Record by CompareSuperficial/
// CompareThorough. Which fields are meaningful depends on the owning Dependency's Kind.
type Record struct {
	Metadata     xvcpath.Metadata
	ContentHash  DigestValue
	Command      string
	CommandOutput DigestValue
	ParamValue   string
	MatchedPaths string
	MatchedHash  DigestValue
	LineText     string
}
