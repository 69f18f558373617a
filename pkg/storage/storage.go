// Package storage implements the `xvc storage {new,list,remove}` backends: named destinations
// cache content can be pushed to and pulled from, independent of the repository's own cache
// directory. Every backend satisfies the same Backend interface; only Local is fully
// implemented here; the remaining kinds are specified at their interface only, per spec.md's
// Non-goals.
package storage

import (
	"fmt"

	"github.com/xvc-dev/xvc/internal/xvcerr"
	"github.com/xvc-dev/xvc/pkg/ecs"
)

// Kind names a storage backend implementation, mirroring the `XvcStorage` enum in
// original_source/storage/src/storage/mod.rs.
type Kind string

const (
	Local        Kind = "local"
	Generic      Kind = "generic"
	Rsync        Kind = "rsync"
	S3           Kind = "s3"
	Minio        Kind = "minio"
	R2           Kind = "r2"
	Gcs          Kind = "gcs"
	Wasabi       Kind = "wasabi"
	DigitalOcean Kind = "digital-ocean"
)

// Config is one named storage's configuration, flattened across every kind rather than
// modeled as a tagged union of per-kind structs (each cloud kind's Rust struct differs only in
// which of these fields it uses) — fields a given Kind doesn't need are left zero.
type Config struct {
	GUID string
	Name string
	Kind Kind

	// Local
	Path string

	// Generic / Rsync
	URL        string
	StorageDir string
	Host       string
	Port       int
	User       string

	// S3-compatible (S3, Minio, R2, Wasabi, DigitalOcean, Gcs)
	Bucket string
	Region string
	Prefix string
}

const configsType = "storage-configs"

// Stores bundles the persisted component store of configured storages.
type Stores struct {
	Configs *ecs.Store[Config]
}

// NewStores creates an empty storage registry.
func NewStores() *Stores {
	return &Stores{Configs: ecs.NewStore[Config](configsType)}
}

// LoadStores restores the storage registry from storeRoot.
func LoadStores(storeRoot string) (*Stores, error) {
	configs, err := ecs.LoadStore[Config](storeRoot, configsType)
	if err != nil {
		return nil, err
	}
	return &Stores{Configs: configs}, nil
}

// Save persists the storage registry.
func (s *Stores) Save(storeRoot string) error {
	return s.Configs.Save(storeRoot)
}

// Find returns the entity and config for the named storage, if one is registered.
func (s *Stores) Find(name string) (ecs.Entity, Config, bool) {
	e, cfg, ok := s.Configs.First(func(_ ecs.Entity, c Config) bool { return c.Name == name })
	return e, cfg, ok
}

// Add registers a new named storage, rejecting a duplicate name.
func (s *Stores) Add(gen *ecs.Generator, cfg Config) (ecs.Entity, error) {
	if _, _, exists := s.Find(cfg.Name); exists {
		return ecs.Entity{}, xvcerr.ErrStorageNameConflict
	}
	e := gen.Next()
	s.Configs.Insert(e, cfg)
	return e, nil
}

// Remove drops the named storage from the registry.
func (s *Stores) Remove(name string) error {
	e, _, ok := s.Find(name)
	if !ok {
		return xvcerr.ErrStorageNotFound
	}
	s.Configs.Remove(e)
	return nil
}

// List returns every registered storage's configuration.
func (s *Stores) List() []Config {
	snapshot := s.Configs.Snapshot()
	out := make([]Config, 0, len(snapshot))
	for _, cfg := range snapshot {
		out = append(out, cfg)
	}
	return out
}

// Backend is the operation set every storage kind exposes, grounded on
// original_source/remote/src/remote/mod.rs's XvcStorageOperations trait (init/list/send/
// receive/delete), renamed to this module's own vocabulary.
type Backend interface {
	// Init prepares the storage for first use (e.g. creating its root directory and writing a
	// GUID marker file), returning an error if it's already initialized.
	Init() error
	// List enumerates every cache path currently stored remotely.
	List() ([]string, error)
	// Send copies cachePaths (relative to the local cache root) from localCacheRoot into the
	// storage, skipping any that already exist unless force.
	Send(localCacheRoot string, cachePaths []string, force bool) error
	// Receive copies cachePaths from the storage into localCacheRoot.
	Receive(localCacheRoot string, cachePaths []string) error
	// Delete removes cachePaths from the storage.
	Delete(cachePaths []string) error
}

// NewBackend constructs the Backend for cfg, returning xvcerr.ErrStorageKindUnsupported for any
// kind this module only specifies the interface for.
func NewBackend(repoGUID string, cfg Config) (Backend, error) {
	switch cfg.Kind {
	case Local:
		return &LocalBackend{RepoGUID: repoGUID, Path: cfg.Path, GUID: cfg.GUID}, nil
	case Generic, Rsync, S3, Minio, R2, Gcs, Wasabi, DigitalOcean:
		return &unsupportedBackend{kind: cfg.Kind}, nil
	default:
		return nil, fmt.Errorf("storage: unknown kind %q", cfg.Kind)
	}
}

// unsupportedBackend satisfies Backend for every cloud kind spec.md's Non-goals specify only at
// their interface ("cloud storage backends ... specified only at their interfaces"): every
// method returns xvcerr.ErrStorageKindUnsupported rather than attempting a network call this
// module carries no SDK for.
type unsupportedBackend struct{ kind Kind }

func (b *unsupportedBackend) Init() error                       { return b.err() }
func (b *unsupportedBackend) List() ([]string, error)           { return nil, b.err() }
func (b *unsupportedBackend) Send(string, []string, bool) error { return b.err() }
func (b *unsupportedBackend) Receive(string, []string) error    { return b.err() }
func (b *unsupportedBackend) Delete([]string) error             { return b.err() }
func (b *unsupportedBackend) err() error {
	return fmt.Errorf("storage: kind %q: %w", b.kind, xvcerr.ErrStorageKindUnsupported)
}
