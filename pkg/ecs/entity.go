// Package ecs implements xvc's entity-component store: opaque entity identifiers, append-only
// event logs, and typed component stores rebuilt from those logs by timestamp order.
package ecs

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/xvc-dev/xvc/internal/xvcerr"
)

// Entity identifies a component-bearing object. It has no semantics beyond uniqueness: the
// first half is a per-process monotonic counter, the second half a random salt generated once
// per process so that entities created in different invocations never collide.
type Entity struct {
	counter uint64
	salt    uint64
}

// NewEntity builds an Entity from its raw (counter, salt) pair, e.g. when reading one back from
// a serialized store.
func NewEntity(counter, salt uint64) Entity { return Entity{counter: counter, salt: salt} }

// Uint128 packs the entity into a single 128-bit value (returned as hi, lo uint64) the way the
// Rust implementation converts XvcEntity to/from u128.
func (e Entity) Uint128() (hi, lo uint64) { return e.counter, e.salt }

func (e Entity) String() string {
	return fmt.Sprintf("(%d, %d)", e.counter, e.salt)
}

// Less orders entities first by counter, then by salt, giving a total order usable as a
// BTree/map key and for deterministic iteration.
func (e Entity) Less(other Entity) bool {
	if e.counter != other.counter {
		return e.counter < other.counter
	}
	return e.salt < other.salt
}

// Generator produces unique Entity values for one process. Exactly one Generator may be
// created per process: Load and Init both enforce this with an atomic compare-and-swap guard so that the
// uniqueness invariant (random salt assigned once, counter never reused) cannot be
// accidentally violated by a second instance.
type Generator struct {
	counter uint64 // accessed atomically
	salt    uint64
	dirty   uint32 // accessed atomically, 0/1
}

var initDoneOnce atomic.Bool

// InitGenerator creates a fresh Generator starting its counter at 1. It may be called only once
// per process; a second call returns xvcerr.ErrAlreadyInitialized.
func InitGenerator() (*Generator, error) {
	if !initDoneOnce.CompareAndSwap(false, true) {
		return nil, xvcerr.ErrAlreadyInitialized
	}
	return newGenerator(1), nil
}

// LoadGenerator restores a Generator from the most recent counter file under dir. It may be
// called only once per process, for the same reason as InitGenerator.
func LoadGenerator(dir string) (*Generator, error) {
	if !initDoneOnce.CompareAndSwap(false, true) {
		return nil, xvcerr.ErrAlreadyInitialized
	}
	path, err := MostRecentFile(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, xvcerr.ErrCannotRestoreEntityCounter
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xvcerr.New(xvcerr.IO, "ecs.LoadGenerator", path, err)
	}
	counter, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return nil, xvcerr.New(xvcerr.Parse, "ecs.LoadGenerator", path, err)
	}
	g := &Generator{counter: counter, salt: randomSalt(), dirty: 0}
	return g, nil
}

func newGenerator(start uint64) *Generator {
	return &Generator{counter: start, salt: randomSalt(), dirty: 1}
}

func randomSalt() uint64 {
	var buf [8]byte
	// crypto/rand never fails on supported platforms; a zero salt would only degrade
	// uniqueness across processes, never correctness within one, so a read error falls back
	// to the all-zero salt rather than panicking.
	_, _ = rand.Read(buf[:])
	return binary.BigEndian.Uint64(buf[:])
}

// Next atomically allocates and returns the next Entity.
func (g *Generator) Next() Entity {
	atomic.StoreUint32(&g.dirty, 1)
	c := atomic.AddUint64(&g.counter, 1) - 1
	return Entity{counter: c, salt: g.salt}
}

// Save persists the counter to a new timestamp-named file under dir, but only if Next has been
// called (or this is a freshly-initialized generator) since the last Save — mirroring the
// Rust implementation's dirty-flag gate so that repeated saves without intervening allocation
// are no-ops.
func (g *Generator) Save(dir string) error {
	if !atomic.CompareAndSwapUint32(&g.dirty, 1, 0) {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return xvcerr.New(xvcerr.IO, "ecs.Generator.Save", dir, err)
	}
	path := filepath.Join(dir, Timestamp())
	val := strconv.FormatUint(atomic.LoadUint64(&g.counter), 10)
	if err := os.WriteFile(path, []byte(val), 0o644); err != nil {
		return xvcerr.New(xvcerr.IO, "ecs.Generator.Save", path, err)
	}
	return nil
}

// Timestamp returns a sortable, unique-enough microsecond epoch string, used to name event-log
// segments and entity-counter files so that lexical sort order matches creation order.
func Timestamp() string {
	return strconv.FormatInt(time.Now().UnixMicro(), 10)
}

// SortedFiles returns the names of every file directly under dir, sorted lexically. Timestamp
// names sort in creation order, so event-log and counter files replay correctly. If dir does
// not exist it is created and an empty slice is returned, matching the Rust implementation's
// contract that this function doubles as directory initialization.
func SortedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				return nil, xvcerr.New(xvcerr.IO, "ecs.SortedFiles", dir, mkErr)
			}
			return nil, nil
		}
		return nil, xvcerr.New(xvcerr.IO, "ecs.SortedFiles", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, filepath.Join(dir, e.Name()))
	}
	sort.Strings(names)
	return names, nil
}

// MostRecentFile returns the last (lexically greatest) file under dir, or "" if dir has no
// files or does not exist.
func MostRecentFile(dir string) (string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return "", nil
	}
	files, err := SortedFiles(dir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", nil
	}
	return files[len(files)-1], nil
}

// resetForTest clears the process-wide single-init guard. It exists only so that package tests
// can exercise InitGenerator/LoadGenerator more than once within a single test binary; no
// production code calls it.
func resetForTest() {
	initDoneOnce.Store(false)
}
