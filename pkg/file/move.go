package file

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/xvc-dev/xvc/internal/config"
	"github.com/xvc-dev/xvc/pkg/cache"
	"github.com/xvc-dev/xvc/pkg/digest"
	"github.com/xvc-dev/xvc/pkg/ecs"
	"github.com/xvc-dev/xvc/pkg/xvcpath"
)

// MoveOptions controls `xvc file move`/`xvc file copy`, following original_source/file/src/mv/mod.rs's
// MoveCLI: how the destination gets materialized, and whether to skip materializing it at all.
type MoveOptions struct {
	RecheckMethod config.RecheckMethod
	NoRecheck     bool
}

// Move renames a single tracked path's record from source to destination, keeping its entity
// (and therefore its digest history) and, unless opts.NoRecheck, moving its on-disk content too.
// destination must not already be tracked. A directory move (source ending in "/") isn't
// supported; move each contained file individually instead.
func Move(stores *Stores, root, source, destination string, opts MoveOptions) error {
	return moveOrCopy(stores, root, source, destination, opts, true)
}

// Copy duplicates a single tracked path's record under a new entity sharing the same recorded
// digest, then, unless opts.NoRecheck, materializes the destination from the shared cache entry.
func Copy(gen *ecs.Generator, stores *Stores, root, source, destination string, opts MoveOptions) error {
	return copyOne(gen, stores, root, source, destination, opts)
}

func moveOrCopy(stores *Stores, root, source, destination string, opts MoveOptions, isMove bool) error {
	if strings.HasSuffix(source, "/") || strings.HasSuffix(destination, "/") {
		return fmt.Errorf("file: move of a directory target is not supported, move files individually")
	}

	srcPath := xvcpath.XvcPath(source)
	dstPath := xvcpath.XvcPath(destination)

	e, ok := stores.EntityFor(srcPath)
	if !ok {
		return fmt.Errorf("file: move: %s is not tracked", source)
	}
	if _, exists := stores.EntityFor(dstPath); exists {
		return fmt.Errorf("file: move: destination %s is already tracked", destination)
	}

	stores.Paths.Insert(e, dstPath)

	if !opts.NoRecheck {
		if err := os.MkdirAll(path.Dir(dstPath.AbsPath(root)), 0o755); err != nil {
			return fmt.Errorf("file: move %s: %w", destination, err)
		}
		if err := os.Rename(srcPath.AbsPath(root), dstPath.AbsPath(root)); err != nil {
			return fmt.Errorf("file: move %s: %w", destination, err)
		}
		if err := recheckMovedDigest(stores, root, e, dstPath, opts.RecheckMethod); err != nil {
			return err
		}
	}
	return nil
}

func copyOne(gen *ecs.Generator, stores *Stores, root, source, destination string, opts MoveOptions) error {
	if strings.HasSuffix(source, "/") || strings.HasSuffix(destination, "/") {
		return fmt.Errorf("file: copy of a directory target is not supported, copy files individually")
	}

	srcPath := xvcpath.XvcPath(source)
	dstPath := xvcpath.XvcPath(destination)

	srcEntity, ok := stores.EntityFor(srcPath)
	if !ok {
		return fmt.Errorf("file: copy: %s is not tracked", source)
	}
	if _, exists := stores.EntityFor(dstPath); exists {
		return fmt.Errorf("file: copy: destination %s is already tracked", destination)
	}

	dstEntity := gen.Next()
	stores.Paths.Insert(dstEntity, dstPath)
	if meta, ok := stores.Metadata.Get(srcEntity); ok {
		stores.Metadata.Insert(dstEntity, meta)
	}
	if dv, ok := stores.ContentDigest.Get(srcEntity); ok {
		stores.ContentDigest.Insert(dstEntity, dv)
	}
	if tob, ok := stores.TextOrBinary.Get(srcEntity); ok {
		stores.TextOrBinary.Insert(dstEntity, tob)
	}

	if !opts.NoRecheck {
		if err := os.MkdirAll(path.Dir(dstPath.AbsPath(root)), 0o755); err != nil {
			return fmt.Errorf("file: copy %s: %w", destination, err)
		}
		if err := recheckMovedDigest(stores, root, dstEntity, dstPath, opts.RecheckMethod); err != nil {
			return err
		}
	}
	return nil
}

func recheckMovedDigest(stores *Stores, root string, e ecs.Entity, dst xvcpath.XvcPath, method config.RecheckMethod) error {
	dv, ok := stores.ContentDigest.Get(e)
	if !ok || dv.IsZero() {
		return nil
	}
	hexBytes, err := hexDecode(dv.Hex)
	if err != nil {
		return fmt.Errorf("file: recheck after move %s: %w", dst, err)
	}
	dg := digest.ContentDigest{XvcDigest: digest.XvcDigest{Algorithm: digest.Algorithm(dv.Algorithm), Bytes: hexBytes}}
	cachePath := cache.AbsPath(root, dg, extOf(string(dst)))
	return cache.Recheck(dst.AbsPath(root), cachePath, method)
}
