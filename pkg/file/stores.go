// Package file implements the tracked-file operations built on top of the entity-component
// store, digest, diff, cache and walker packages: track, recheck, carry-in, list, move, hash and
// remove.
package file

import (
	"github.com/xvc-dev/xvc/internal/config"
	"github.com/xvc-dev/xvc/pkg/ecs"
	"github.com/xvc-dev/xvc/pkg/xvcpath"
)

// DigestValue is digest.XvcDigest flattened into a comparable shape, the same technique
// pkg/pipeline uses for the same reason: ecs.Store's component type must be comparable, and
// digest.XvcDigest's []byte field isn't.
type DigestValue struct {
	Algorithm string
	Hex       string
}

// IsZero reports whether v carries no digest at all (an untracked or directory entity).
func (v DigestValue) IsZero() bool { return v.Algorithm == "" && v.Hex == "" }

const (
	pathsType         = "xvc-paths"
	metadataType      = "xvc-metadata"
	contentDigestType = "content-digests"
	textOrBinaryType  = "text-or-binary"
)

// Stores bundles every persisted component store a tracked path's state lives in: its
// repository-relative path, its last-observed filesystem metadata, its content digest (once
// hashed), and the text/binary mode it was hashed with.
type Stores struct {
	Paths         *ecs.Store[xvcpath.XvcPath]
	Metadata      *ecs.Store[xvcpath.Metadata]
	ContentDigest *ecs.Store[DigestValue]
	TextOrBinary  *ecs.Store[config.TextOrBinary]
}

// NewStores creates an empty set of file stores.
func NewStores() *Stores {
	return &Stores{
		Paths:         ecs.NewStore[xvcpath.XvcPath](pathsType),
		Metadata:      ecs.NewStore[xvcpath.Metadata](metadataType),
		ContentDigest: ecs.NewStore[DigestValue](contentDigestType),
		TextOrBinary:  ecs.NewStore[config.TextOrBinary](textOrBinaryType),
	}
}

// LoadStores restores every persisted file store from storeRoot (repo.Root.StoreDir()).
func LoadStores(storeRoot string) (*Stores, error) {
	paths, err := ecs.LoadStore[xvcpath.XvcPath](storeRoot, pathsType)
	if err != nil {
		return nil, err
	}
	metadata, err := ecs.LoadStore[xvcpath.Metadata](storeRoot, metadataType)
	if err != nil {
		return nil, err
	}
	digests, err := ecs.LoadStore[DigestValue](storeRoot, contentDigestType)
	if err != nil {
		return nil, err
	}
	tob, err := ecs.LoadStore[config.TextOrBinary](storeRoot, textOrBinaryType)
	if err != nil {
		return nil, err
	}
	return &Stores{Paths: paths, Metadata: metadata, ContentDigest: digests, TextOrBinary: tob}, nil
}

// Save persists every store under storeRoot.
func (s *Stores) Save(storeRoot string) error {
	for _, save := range []func(string) error{
		s.Paths.Save, s.Metadata.Save, s.ContentDigest.Save, s.TextOrBinary.Save,
	} {
		if err := save(storeRoot); err != nil {
			return err
		}
	}
	return nil
}

// EntityFor returns the entity already tracking path, if any.
func (s *Stores) EntityFor(path xvcpath.XvcPath) (ecs.Entity, bool) {
	entities := s.Paths.EntitiesForValue(path)
	if len(entities) == 0 {
		return ecs.Entity{}, false
	}
	return entities[0], true
}

// EntityForOrNew returns the entity tracking path, allocating a fresh one via gen if path isn't
// tracked yet.
func (s *Stores) EntityForOrNew(gen *ecs.Generator, path xvcpath.XvcPath) ecs.Entity {
	if e, ok := s.EntityFor(path); ok {
		return e
	}
	e := gen.Next()
	s.Paths.Insert(e, path)
	return e
}
