// Package diff implements the generic reconciliation core shared by every xvc component that
// compares a recorded (stored) value against an actual (observed) one: a five-case sum type and
// the two functions, diff_store and apply_diff, built on top of it.
package diff

import "github.com/xvc-dev/xvc/pkg/ecs"

// Case distinguishes the five possible outcomes of comparing a record against an actual value.
type Case int

const (
	// Identical: record and actual are present and equal.
	Identical Case = iota
	// RecordMissing: actual is present but no record exists yet.
	RecordMissing
	// ActualMissing: a record exists but the actual value is gone.
	ActualMissing
	// Different: both present, but unequal.
	Different
	// Skipped: comparison intentionally not performed for this entity.
	Skipped
)

func (c Case) String() string {
	switch c {
	case Identical:
		return "identical"
	case RecordMissing:
		return "record-missing"
	case ActualMissing:
		return "actual-missing"
	case Different:
		return "different"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Diff holds the outcome of comparing one entity's recorded value against its actual value.
// Record and Actual are only meaningful for the Cases that declare them (spec.md section 4.6):
// RecordMissing carries Actual, ActualMissing carries Record, Different carries both, and
// Identical/Skipped carry whichever was available (kept for convenience, not load-bearing).
type Diff[T any] struct {
	Case   Case
	Record T
	Actual T
}

// Store is a per-entity map of Diff results, the Go analogue of DiffStore<T>.
type Store[T any] = map[ecs.Entity]Diff[T]

// EqualFunc decides whether two values of T should be considered the same for diffing purposes;
// callers pass a plain == comparison when T is comparable, or a field-wise comparison when it
// isn't (e.g. floating-point metadata fields compared with a tolerance).
type EqualFunc[T any] func(a, b T) bool

// DiffStore computes a Diff for every entity in subset (or, if subset is nil, the union of
// records' and actuals' keys), deciding Identical vs Different via equal.
func DiffStore[T any](records, actuals map[ecs.Entity]T, subset []ecs.Entity, equal EqualFunc[T]) Store[T] {
	keys := subset
	if keys == nil {
		seen := make(map[ecs.Entity]struct{}, len(records)+len(actuals))
		for e := range records {
			seen[e] = struct{}{}
		}
		for e := range actuals {
			seen[e] = struct{}{}
		}
		keys = make([]ecs.Entity, 0, len(seen))
		for e := range seen {
			keys = append(keys, e)
		}
	}

	out := make(Store[T], len(keys))
	for _, e := range keys {
		record, hasRecord := records[e]
		actual, hasActual := actuals[e]
		switch {
		case hasRecord && hasActual:
			if equal(record, actual) {
				out[e] = Diff[T]{Case: Identical, Record: record, Actual: actual}
			} else {
				out[e] = Diff[T]{Case: Different, Record: record, Actual: actual}
			}
		case hasActual:
			out[e] = Diff[T]{Case: RecordMissing, Actual: actual}
		case hasRecord:
			out[e] = Diff[T]{Case: ActualMissing, Record: record}
		default:
			out[e] = Diff[T]{Case: Skipped}
		}
	}
	return out
}

// Changed reports whether d represents any kind of change (i.e. is not Identical or Skipped).
func Changed[T any](d Diff[T]) bool {
	return d.Case == Different || d.Case == RecordMissing || d.Case == ActualMissing
}

// ApplyDiff folds diffs onto records, producing the next generation of the store: Identical and
// Skipped entries are kept as-is, RecordMissing entries are inserted only if addNew, ActualMissing
// entries are dropped only if removeMissing, and Different entries are always overwritten with
// Actual — matching spec.md section 4.6 exactly.
func ApplyDiff[T any](records map[ecs.Entity]T, diffs Store[T], addNew, removeMissing bool) map[ecs.Entity]T {
	out := make(map[ecs.Entity]T, len(records))
	for e, v := range records {
		out[e] = v
	}
	for e, d := range diffs {
		switch d.Case {
		case Identical, Skipped:
			// keep whatever records already has for e.
		case RecordMissing:
			if addNew {
				out[e] = d.Actual
			}
		case ActualMissing:
			if removeMissing {
				delete(out, e)
			}
		case Different:
			out[e] = d.Actual
		}
	}
	return out
}
