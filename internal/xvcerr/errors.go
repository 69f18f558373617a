// Package xvcerr defines the error taxonomy shared across xvc packages.
//
// Errors are classified by Kind so that callers can decide whether to abort
// the whole command (RepoState, Config invariants) or continue past a single
// failed item (IO during a walk, a single file's digest).
package xvcerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind groups errors into the categories described in the project's error
// handling design: I/O failures, parse failures, configuration mismatches,
// repository state errors, child-process failures and invariant violations.
type Kind string

const (
	IO           Kind = "io"
	Parse        Kind = "parse"
	Config       Kind = "config"
	RepoState    Kind = "repo_state"
	ChildProcess Kind = "child_process"
	Invariant    Kind = "invariant"
)

// Error wraps an underlying error with the operation and kind that produced
// it, so log lines and CLI output can report "what were we doing" without
// parsing error strings.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s): %v", e.Kind, e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error, wrapping err with errors.WithStack when err doesn't
// already carry a stack trace. Used at repository-invariant boundaries
// (init, DAG build, store save) where a bare error message isn't enough to
// debug a failed command after the fact.
func New(kind Kind, op string, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: errors.WithStack(err)}
}

// Is reports whether err (or any error it wraps) has the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if xe, ok := err.(*Error); ok {
			e = xe
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}

// Sentinel errors for conditions that are compared by identity rather than
// wrapped with per-call context.
var (
	ErrCannotRestoreEntityCounter = fmt.Errorf("cannot restore entity counter: empty directory")
	ErrAlreadyInitialized         = fmt.Errorf("object can only be initialized once per process")
	ErrNoRepositoryRoot           = fmt.Errorf("no .xvc repository found in this directory or its ancestors")
	ErrRepositoryAlreadyExists    = fmt.Errorf("repository is already initialized")
	ErrStepNotFound               = fmt.Errorf("step not found in pipeline")
	ErrStepNameConflict           = fmt.Errorf("a step with this name already exists in the pipeline")
	ErrPipelineCycle              = fmt.Errorf("pipeline steps contain a cycle")
	ErrEntityNotFound             = fmt.Errorf("entity not found in store")
	ErrStorageNameConflict        = fmt.Errorf("a storage with this name already exists")
	ErrStorageNotFound            = fmt.Errorf("storage not found")
	ErrStorageKindUnsupported     = fmt.Errorf("this storage kind is not implemented, only its interface is specified")
)
