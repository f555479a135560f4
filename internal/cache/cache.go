// Package cache persists decoded asset payloads between runs in a bbolt file.
package cache

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/xxh3"
	bolt "go.etcd.io/bbolt"
)

var assetsBucket = []byte("assets")

// boltCache is the implementation of the Cache interface.
type boltCache struct {
	db *bolt.DB
}

// Cache stores asset bytes keyed by their source location.
type Cache interface {
	// Get returns the cached bytes for source.
	//
	// Parameters:
	//   - source: the asset URL or path
	//
	// Returns:
	//   - []byte: a copy of the cached payload
	//   - bool: true on a hit
	//   - error: error if the store cannot be read
	Get(source string) ([]byte, bool, error)

	// Put stores data for source, replacing any previous entry.
	//
	// Parameters:
	//   - source: the asset URL or path
	//   - data: the payload to store
	//
	// Returns:
	//   - error: error if the write fails
	Put(source string, data []byte) error

	// Close releases the underlying database file.
	Close() error
}

var _ Cache = &boltCache{}

// Open opens (or creates) the cache file at path.
//
// Parameters:
//   - path: the bbolt database file
//
// Returns:
//   - Cache: the opened cache
//   - error: error if the file cannot be opened
func Open(path string) (Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(assetsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &boltCache{db: db}, nil
}

// Key returns the storage key for source.
func Key(source string) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, xxh3.HashString(source))
	return key
}

func (c *boltCache) Get(source string) ([]byte, bool, error) {
	var out []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(assetsBucket).Get(Key(source))
		if v != nil {
			// bbolt values are only valid for the life of the transaction.
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache: %w", err)
	}
	return out, out != nil, nil
}

func (c *boltCache) Put(source string, data []byte) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(assetsBucket).Put(Key(source), data)
	})
	if err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

func (c *boltCache) Close() error {
	return c.db.Close()
}
