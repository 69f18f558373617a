package ecs

import (
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	"github.com/xvc-dev/xvc/internal/xvcerr"
)

// BlobStore is an optional durable side-index over bbolt: a single bucket of "entity -> last
// known value" that could sit alongside a Store's authoritative event log. No other package
// opens one; only this package's tests exercise it. It is never the source of truth — Store's
// event log is.
//
// Grounded on pkg/storage/boltdb.go's per-type bucket CRUD pattern (teacher).
type BlobStore struct {
	db     *bolt.DB
	bucket []byte
}

// OpenBlobStore opens (creating if necessary) a bbolt database at path with a single bucket
// named bucketName.
func OpenBlobStore(path string, bucketName string) (*BlobStore, error) {
	db, err := bolt.Open(path, 0o644, nil)
	if err != nil {
		return nil, xvcerr.New(xvcerr.IO, "ecs.OpenBlobStore", path, err)
	}
	bucket := []byte(bucketName)
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, xvcerr.New(xvcerr.IO, "ecs.OpenBlobStore", path, err)
	}
	return &BlobStore{db: db, bucket: bucket}, nil
}

// Close releases the underlying bbolt database file.
func (b *BlobStore) Close() error {
	return b.db.Close()
}

func entityKey(e Entity) []byte {
	key := make([]byte, 16)
	hi, lo := e.Uint128()
	for i := 0; i < 8; i++ {
		key[i] = byte(hi >> (56 - 8*i))
		key[8+i] = byte(lo >> (56 - 8*i))
	}
	return key
}

// Put stores v (JSON-encoded) under e.
func (b *BlobStore) Put(e Entity, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return xvcerr.New(xvcerr.Parse, "ecs.BlobStore.Put", "", err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Put(entityKey(e), data)
	})
}

// Get loads the value stored under e into dest (a pointer), returning found=false if absent.
func (b *BlobStore) Get(e Entity, dest any) (found bool, err error) {
	err = b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(b.bucket).Get(entityKey(e))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, dest)
	})
	if err != nil {
		return false, xvcerr.New(xvcerr.Parse, "ecs.BlobStore.Get", "", err)
	}
	return found, nil
}

// Delete removes e's entry, if any.
func (b *BlobStore) Delete(e Entity) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Delete(entityKey(e))
	})
}
