package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

// BoltStorage implements Storage on a single bbolt database file, with one
// bucket per cache name. Bulk stores are a single transaction, so the
// all-or-nothing guarantee comes from bbolt itself.
type BoltStorage struct {
	db *bbolt.DB
}

// NewBoltStorage opens (creating if absent) the database at path
func NewBoltStorage(path string) (*BoltStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("cache database path cannot be empty")
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	return &BoltStorage{db: db}, nil
}

// Close closes the underlying database
func (bs *BoltStorage) Close() error {
	return bs.db.Close()
}

// Match retrieves a cached entry by key from the named cache
func (bs *BoltStorage) Match(name, key string) (*Entry, error) {
	var entry *Entry

	err := bs.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(name))
		if b == nil {
			return ErrNotFound
		}
		data := b.Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		entry = &Entry{}
		return json.Unmarshal(data, entry)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	return entry, nil
}

// PutAll replaces the named cache's contents in a single transaction
func (bs *BoltStorage) PutAll(name string, entries map[string]*Entry) error {
	err := bs.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(name)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket([]byte(name))
		if err != nil {
			return err
		}
		for key, entry := range entries {
			data, err := json.Marshal(entry)
			if err != nil {
				return fmt.Errorf("failed to marshal cache entry %q: %w", key, err)
			}
			if err := b.Put([]byte(key), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store cache %q: %w", name, err)
	}
	return nil
}

// Keys returns the keys stored in the named cache, sorted
func (bs *BoltStorage) Keys(name string) ([]string, error) {
	var keys []string

	err := bs.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(name))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list cache keys: %w", err)
	}

	sort.Strings(keys)
	return keys, nil
}

// Names returns the names of all caches currently present
func (bs *BoltStorage) Names() ([]string, error) {
	var names []string

	err := bs.db.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list caches: %w", err)
	}

	sort.Strings(names)
	return names, nil
}

// Delete removes the named cache and all its entries
func (bs *BoltStorage) Delete(name string) error {
	err := bs.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(name)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete cache %q: %w", name, err)
	}
	return nil
}
