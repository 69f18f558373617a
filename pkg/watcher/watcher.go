// Package watcher wraps pkg/walker with an fsnotify subscription, turning raw filesystem events
// into a stream of ignore-rule-honoring Create/Update/Delete events over a path→metadata map.
package watcher

import (
	"context"
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/xvc-dev/xvc/internal/xlog"
	"github.com/xvc-dev/xvc/pkg/ignore"
	"github.com/xvc-dev/xvc/pkg/walker"
	"github.com/xvc-dev/xvc/pkg/xvcpath"
)

// EventKind distinguishes the three filesystem changes the watcher reports.
type EventKind int

const (
	Create EventKind = iota
	Update
	Delete
)

func (k EventKind) String() string {
	switch k {
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Event is one reported filesystem change. Metadata is the zero value for Delete events.
type Event struct {
	Kind     EventKind
	Path     xvcpath.XvcPath
	Metadata xvcpath.Metadata
}

// Watcher recursively watches root for filesystem changes, honoring the ignore rules built from
// ignoreFilename (e.g. ".gitignore"), and reports them on Events until Close is called or ctx is
// canceled.
type Watcher struct {
	root           string
	ignoreFilename string
	rules          ignore.Rules
	fsw            *fsnotify.Watcher
	events         chan Event
	errors         chan error
}

// New builds a Watcher rooted at root, priming its ignore rules from every ignoreFilename found
// in the tree and registering an fsnotify watch on every non-ignored directory.
func New(root, ignoreFilename string) (*Watcher, error) {
	rules, errs := walker.BuildIgnoreRules(ignore.Empty(root), root, root, ignoreFilename)
	for _, e := range errs {
		xlog.WithComponent("watcher").Warn().Err(e).Msg("error priming ignore rules")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:           root,
		ignoreFilename: ignoreFilename,
		rules:          rules,
		fsw:            fsw,
		events:         make(chan Event, 256),
		errors:         make(chan error, 16),
	}

	var dirs []walker.PathMetadata
	_, errs = walker.WalkSerial(rules, root, root, walker.Options{IgnoreFilename: ignoreFilename, IncludeDirs: true}, &dirs)
	for _, e := range errs {
		xlog.WithComponent("watcher").Warn().Err(e).Msg("error walking for initial watch set")
	}
	if err := fsw.Add(root); err != nil {
		fsw.Close()
		return nil, err
	}
	for _, pm := range dirs {
		if pm.Metadata.FileType != xvcpath.Directory {
			continue
		}
		if err := fsw.Add(pm.Path.AbsPath(root)); err != nil {
			xlog.WithComponent("watcher").Warn().Err(err).Str("path", string(pm.Path)).Msg("failed to watch directory")
		}
	}

	return w, nil
}

// Events returns the channel Create/Update/Delete events are delivered on.
func (w *Watcher) Events() <-chan Event { return w.events }

// Errors returns the channel watch errors (fsnotify errors, stat failures) are delivered on.
func (w *Watcher) Errors() <-chan error { return w.errors }

// Run translates fsnotify events into Watcher events until ctx is canceled or Close is called.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.events)
	defer close(w.errors)
	logger := xlog.WithComponent("watcher")
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(raw)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn().Err(err).Msg("fsnotify error")
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *Watcher) handle(raw fsnotify.Event) {
	xp, err := xvcpath.FromAbs(w.root, raw.Name)
	if err != nil {
		return
	}
	if ignore.CheckIgnore(w.rules, string(xp)) == ignore.Matched {
		return
	}

	switch {
	case raw.Op&fsnotify.Remove != 0 || raw.Op&fsnotify.Rename != 0:
		w.events <- Event{Kind: Delete, Path: xp}
	case raw.Op&fsnotify.Create != 0:
		md, ok := w.statOrDelete(xp, raw.Name)
		if !ok {
			return
		}
		if md.FileType == xvcpath.Directory {
			if err := w.fsw.Add(raw.Name); err != nil {
				xlog.WithComponent("watcher").Warn().Err(err).Str("path", raw.Name).Msg("failed to watch new directory")
			}
		}
		w.events <- Event{Kind: Create, Path: xp, Metadata: md}
	case raw.Op&fsnotify.Write != 0:
		md, ok := w.statOrDelete(xp, raw.Name)
		if !ok {
			return
		}
		w.events <- Event{Kind: Update, Path: xp, Metadata: md}
	}
}

func (w *Watcher) statOrDelete(xp xvcpath.XvcPath, abs string) (xvcpath.Metadata, bool) {
	info, err := os.Stat(abs)
	if err != nil {
		w.events <- Event{Kind: Delete, Path: xp}
		return xvcpath.Metadata{}, false
	}
	return xvcpath.FromStat(info), true
}

// Close stops the underlying fsnotify watcher. Run's goroutine observes this via its closed
// Events/Errors channels and returns.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
