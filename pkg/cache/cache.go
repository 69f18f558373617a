// Package cache implements content-addressed cache storage: moving newly hashed file content
// into the cache directory, and materializing cached content back into the workspace by one of
// the configured recheck methods (copy, hardlink, symlink, reflink).
package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xvc-dev/xvc/internal/config"
	"github.com/xvc-dev/xvc/pkg/digest"
)

// Dir is the repository-relative directory cache files live under.
const Dir = ".xvc"

// AbsPath returns the absolute on-disk location of the cache entry for d within a repository
// rooted at root, given the original file's extension (without leading dot; empty if none).
func AbsPath(root string, d digest.ContentDigest, ext string) string {
	return filepath.Join(root, Dir, digest.CachePath(d, ext))
}

// MoveToCache moves the file at path into the cache at cachePath (both absolute), creating the
// cache directory tree as needed and marking the cache entry (and its immediate containing
// directory) read-only afterward — cache content is immutable once stored.
func MoveToCache(path, cachePath string) error {
	cacheDir := filepath.Dir(cachePath)
	if err := ensureWritableDir(cacheDir); err != nil {
		return err
	}
	if err := os.Rename(path, cachePath); err != nil {
		return fmt.Errorf("move to cache: %w", err)
	}
	if err := os.Chmod(cachePath, 0o444); err != nil {
		return fmt.Errorf("mark cache entry read-only: %w", err)
	}
	if err := os.Chmod(cacheDir, 0o555); err != nil {
		return fmt.Errorf("mark cache directory read-only: %w", err)
	}
	return nil
}

func ensureWritableDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return err
	}
	return os.Chmod(dir, info.Mode()|0o200)
}

// Recheck materializes the cache entry at cachePath into the workspace at path, using method.
// The destination's parent directory is created if missing. Reflink falls back to Copy when the
// method isn't supported, since Go's standard library has no portable reflink syscall wrapper —
// every platform xvc targets either supports copy-on-write via a dedicated ioctl this package
// doesn't shell out for, or doesn't support it at all, so Copy is always a correct fallback.
//
// Recheck always emits an ignore-update event afterward, per spec.md section 4.7, so the
// rechecked path is added to its directory's own .gitignore and git never picks up
// cache-materialized content as untracked.
func Recheck(path, cachePath string, method config.RecheckMethod) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if _, err := os.Lstat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove existing target: %w", err)
		}
	}

	var err error
	switch method {
	case config.Hardlink:
		err = os.Link(cachePath, path)
	case config.Symlink:
		err = os.Symlink(cachePath, path)
	case config.Copy, config.Reflink:
		err = copyFile(cachePath, path)
	default:
		return fmt.Errorf("cache: unknown recheck method %q", method)
	}
	if err != nil {
		return err
	}

	return ignoreMaterializedPath(path)
}

// ignoreMaterializedPath appends path's basename to the .gitignore in path's containing
// directory, creating the file if it doesn't exist and skipping the append if the entry is
// already present, so repeated Recheck calls against the same path don't grow the file
// unboundedly. This mirrors original_source/file/src/common/mod.rs's recheck_from_cache sending
// IgnoreOperation::IgnoreFile after every recheck, regardless of method.
func ignoreMaterializedPath(path string) error {
	dir := filepath.Dir(path)
	entry := filepath.Base(path)
	gitignorePath := filepath.Join(dir, ".gitignore")

	existing, err := os.ReadFile(gitignorePath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, line := range strings.Split(string(existing), "\n") {
		if strings.TrimSpace(line) == entry {
			return nil
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		entry = "\n" + entry
	}
	_, err = f.WriteString(entry + "\n")
	return err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return os.Chmod(dst, 0o644)
}
