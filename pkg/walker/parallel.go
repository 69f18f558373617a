package walker

import (
	"sync"

	"github.com/xvc-dev/xvc/pkg/ignore"
)

// WalkParallel walks dir the same way WalkSerial does, but spawns one goroutine per child
// directory rather than recursing in the calling goroutine — useful for wide trees where
// directory listing and ignore-file parsing dominate wall-clock time. Results stream through
// pathCh/ruleCh/errCh as they are discovered; all three channels are closed once the walk (and all
// of its recursive children) have finished. The caller must drain all three to avoid leaking the
// walk's goroutines.
func WalkParallel(rules ignore.Rules, root, dir string, opts Options) (<-chan PathMetadata, <-chan ignore.Rules, <-chan error) {
	pathCh := make(chan PathMetadata, 64)
	ruleCh := make(chan ignore.Rules, 64)
	errCh := make(chan error, 16)

	var wg sync.WaitGroup
	wg.Add(1)
	go walkParallel(rules, root, dir, opts, pathCh, ruleCh, errCh, &wg)

	go func() {
		wg.Wait()
		close(pathCh)
		close(ruleCh)
		close(errCh)
	}()

	return pathCh, ruleCh, errCh
}

func walkParallel(
	rules ignore.Rules,
	root, dir string,
	opts Options,
	pathCh chan<- PathMetadata,
	ruleCh chan<- ignore.Rules,
	errCh chan<- error,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	entries, errs := listDirectory(root, dir)
	for _, e := range errs {
		errCh <- e
	}

	layered, err := loadDirectoryIgnores(rules, root, dir, opts, entries)
	if err != nil {
		errCh <- err
	} else if len(layered.Patterns) != len(rules.Patterns) {
		rules = layered
		ruleCh <- rules
	}

	var childDirs []entry
	for _, e := range entries {
		if ignore.CheckIgnore(rules, string(e.pm.Path)) == ignore.Matched {
			continue
		}
		if e.info.IsDir() {
			if opts.IncludeDirs {
				pathCh <- e.pm
			}
			childDirs = append(childDirs, e)
		} else {
			pathCh <- e.pm
		}
	}

	for _, child := range childDirs {
		wg.Add(1)
		go walkParallel(rules, root, child.abs, opts, pathCh, ruleCh, errCh, wg)
	}
}
