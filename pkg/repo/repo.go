// Package repo implements xvc's repository lifecycle: discovering the repository root from a
// working directory, initializing a new repository's on-disk layout, and the directory
// conventions every other package builds paths from.
package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/xvc-dev/xvc/internal/config"
)

// Dir is the repository-private directory every xvc repository keeps its state under.
const Dir = ".xvc"

// GUIDFile is the file holding the repository's randomly generated identifier.
const GUIDFile = "guid"

// ErrNotARepository is returned by FindRoot when no repository is found in any ancestor
// directory.
var ErrNotARepository = errors.New("repo: not inside an xvc repository")

// ErrAlreadyInitialized is returned by Init when a repository already exists at dir.
var ErrAlreadyInitialized = errors.New("repo: repository already initialized")

// Root describes an initialized repository: its absolute path and identity.
type Root struct {
	Path string
	GUID string
}

// XvcDir returns the absolute path of this repository's `.xvc` directory.
func (r Root) XvcDir() string { return filepath.Join(r.Path, Dir) }

// StoreDir returns the absolute path of the store root, the directory ecs.Store segments for
// every component type live under.
func (r Root) StoreDir() string { return filepath.Join(r.XvcDir(), "store") }

// EntityCounterDir returns the absolute path of the directory persisted entity-counter files
// live under.
func (r Root) EntityCounterDir() string { return filepath.Join(r.XvcDir(), "ec") }

// CacheDir returns the absolute path of the content-addressed cache root.
func (r Root) CacheDir() string { return r.XvcDir() }

// FindRoot walks up from dir looking for a `.xvc` directory, the same way a VCS client finds its
// repository root: the search starts at dir and proceeds through each parent until it reaches
// the filesystem root.
func FindRoot(dir string) (Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Root{}, err
	}
	cur := abs
	for {
		xvcDir := filepath.Join(cur, Dir)
		if info, err := os.Stat(xvcDir); err == nil && info.IsDir() {
			guid, err := readGUID(xvcDir)
			if err != nil {
				return Root{}, err
			}
			return Root{Path: cur, GUID: guid}, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return Root{}, ErrNotARepository
		}
		cur = parent
	}
}

// Init creates a new repository rooted at dir: the cache root, the store root, the
// entity-counter directory, a GUID file, and a default project configuration. It returns
// ErrAlreadyInitialized if dir already has a `.xvc` directory.
func Init(dir string) (Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Root{}, err
	}
	xvcDir := filepath.Join(abs, Dir)
	if _, err := os.Stat(xvcDir); err == nil {
		return Root{}, ErrAlreadyInitialized
	}

	for _, sub := range []string{"", "store", "ec"} {
		if err := os.MkdirAll(filepath.Join(xvcDir, sub), 0o755); err != nil {
			return Root{}, fmt.Errorf("repo: init: %w", err)
		}
	}

	guid := uuid.New().String()
	if err := os.WriteFile(filepath.Join(xvcDir, GUIDFile), []byte(guid), 0o644); err != nil {
		return Root{}, fmt.Errorf("repo: init: write guid: %w", err)
	}

	defaults := config.Defaults()
	rendered := defaults.Render()
	if err := os.WriteFile(filepath.Join(xvcDir, "config.toml"), []byte(rendered), 0o644); err != nil {
		return Root{}, fmt.Errorf("repo: init: write config: %w", err)
	}

	return Root{Path: abs, GUID: guid}, nil
}

func readGUID(xvcDir string) (string, error) {
	content, err := os.ReadFile(filepath.Join(xvcDir, GUIDFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(content), nil
}
