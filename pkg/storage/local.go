package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xvc-dev/xvc/internal/xvcerr"
)

// guidFilename is the marker file LocalBackend.Init writes, the Go equivalent of
// original_source/remote/src/remote/mod.rs's XVC_REMOTE_GUID_FILENAME.
const guidFilename = ".xvc-guid"

// LocalBackend is a storage backend that is a plain directory on the same machine as the
// repository, grounded on original_source/remote/src/remote/local.rs's XvcLocalStorage. Content
// is namespaced under RepoGUID so one local storage directory can safely serve multiple
// repositories.
type LocalBackend struct {
	RepoGUID string
	Path     string
	GUID     string
}

// Init creates Path (which must not already exist) and writes its GUID marker file, following
// XvcLocalStorage::init's "remote should point to a blank directory" invariant.
func (b *LocalBackend) Init() error {
	if _, err := os.Stat(b.Path); err == nil {
		return fmt.Errorf("storage: local: %s already exists, storage must point to a blank directory", b.Path)
	} else if !os.IsNotExist(err) {
		return xvcerr.New(xvcerr.IO, "storage.LocalBackend.Init", b.Path, err)
	}
	if err := os.MkdirAll(b.Path, 0o755); err != nil {
		return xvcerr.New(xvcerr.IO, "storage.LocalBackend.Init", b.Path, err)
	}
	if err := os.WriteFile(filepath.Join(b.Path, guidFilename), []byte(b.GUID), 0o644); err != nil {
		return xvcerr.New(xvcerr.IO, "storage.LocalBackend.Init", b.Path, err)
	}
	return nil
}

func (b *LocalBackend) remoteDir() string {
	return filepath.Join(b.Path, b.RepoGUID)
}

// List walks the repository's namespaced directory within the storage, returning every cache
// path found relative to it.
func (b *LocalBackend) List() ([]string, error) {
	root := b.remoteDir()
	var out []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, xvcerr.New(xvcerr.IO, "storage.LocalBackend.List", root, err)
	}
	return out, nil
}

// Send copies each cachePath from localCacheRoot into this storage's namespaced directory,
// following XvcLocalStorage::send.
func (b *LocalBackend) Send(localCacheRoot string, cachePaths []string, force bool) error {
	for _, cp := range cachePaths {
		src := filepath.Join(localCacheRoot, filepath.FromSlash(cp))
		dst := filepath.Join(b.remoteDir(), filepath.FromSlash(cp))
		if !force {
			if _, err := os.Stat(dst); err == nil {
				continue
			}
		}
		if err := copyInto(src, dst); err != nil {
			return xvcerr.New(xvcerr.IO, "storage.LocalBackend.Send", cp, err)
		}
	}
	return nil
}

// Receive copies each cachePath from this storage's namespaced directory into localCacheRoot.
func (b *LocalBackend) Receive(localCacheRoot string, cachePaths []string) error {
	for _, cp := range cachePaths {
		src := filepath.Join(b.remoteDir(), filepath.FromSlash(cp))
		dst := filepath.Join(localCacheRoot, filepath.FromSlash(cp))
		if err := copyInto(src, dst); err != nil {
			return xvcerr.New(xvcerr.IO, "storage.LocalBackend.Receive", cp, err)
		}
	}
	return nil
}

// Delete removes each cachePath from this storage's namespaced directory.
func (b *LocalBackend) Delete(cachePaths []string) error {
	for _, cp := range cachePaths {
		path := filepath.Join(b.remoteDir(), filepath.FromSlash(cp))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return xvcerr.New(xvcerr.IO, "storage.LocalBackend.Delete", cp, err)
		}
	}
	return nil
}

func copyInto(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
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

	_, err = io.Copy(out, in)
	return err
}
