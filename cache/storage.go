package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNotFound is returned by Match when no entry exists for the given key
var ErrNotFound = errors.New("cache entry not found")

// Entry represents a captured upstream response with its metadata
type Entry struct {
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"stored_at"`
}

// Storage defines the interface for named cache stores. Each name addresses
// an independent bucket of request-keyed entries; buckets are created on
// first write and live until explicitly deleted.
type Storage interface {
	// Match looks up an entry by exact key in the named cache
	Match(name, key string) (*Entry, error)

	// PutAll stores every entry in the named cache as a single atomic
	// operation: either all entries land or none do. Existing contents of
	// the named cache are replaced.
	PutAll(name string, entries map[string]*Entry) error

	// Keys returns the keys stored in the named cache, sorted
	Keys(name string) ([]string, error)

	// Names returns the names of all caches currently present
	Names() ([]string, error)

	// Delete removes the named cache and all its entries
	Delete(name string) error
}

// fileEnvelope wraps an entry with its original key, since filenames are
// hashed and the key cannot be recovered from them
type fileEnvelope struct {
	Key   string `json:"key"`
	Entry Entry  `json:"entry"`
}

// FileStorage implements Storage using the file system: one directory per
// cache name, one JSON file per entry
type FileStorage struct {
	baseDir string
}

// NewFileStorage creates a new file-based cache storage
// It ensures the base directory exists before returning
func NewFileStorage(baseDir string) (*FileStorage, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("cache directory cannot be empty")
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &FileStorage{
		baseDir: baseDir,
	}, nil
}

// Match retrieves a cached entry by key from the named cache
func (fs *FileStorage) Match(name, key string) (*Entry, error) {
	data, err := os.ReadFile(fs.entryPath(name, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}

	return &env.Entry, nil
}

// PutAll writes all entries into a staging directory and swaps it into place,
// so a failure midway leaves the named cache without any of the new entries
func (fs *FileStorage) PutAll(name string, entries map[string]*Entry) error {
	staging, err := os.MkdirTemp(fs.baseDir, ".staging-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	for key, entry := range entries {
		data, err := json.Marshal(fileEnvelope{Key: key, Entry: *entry})
		if err != nil {
			return fmt.Errorf("failed to marshal cache entry %q: %w", key, err)
		}
		if err := os.WriteFile(filepath.Join(staging, hashKey(key)+".json"), data, 0644); err != nil {
			return fmt.Errorf("failed to write cache file for %q: %w", key, err)
		}
	}

	// Move the previous cache out of the way before the swap so a crash
	// cannot leave old and new entries mixed
	dir := fs.cacheDir(name)
	old := dir + ".old"
	if err := os.RemoveAll(old); err != nil {
		return fmt.Errorf("failed to clear displaced cache: %w", err)
	}
	if err := os.Rename(dir, old); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to displace existing cache: %w", err)
	}
	if err := os.Rename(staging, dir); err != nil {
		return fmt.Errorf("failed to commit cache: %w", err)
	}
	if err := os.RemoveAll(old); err != nil {
		return fmt.Errorf("failed to remove displaced cache: %w", err)
	}

	return nil
}

// Keys returns the keys stored in the named cache, sorted
func (fs *FileStorage) Keys(name string) ([]string, error) {
	files, err := os.ReadDir(fs.cacheDir(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var keys []string
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(fs.cacheDir(name), f.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read cache file: %w", err)
		}
		var env fileEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
		}
		keys = append(keys, env.Key)
	}

	sort.Strings(keys)
	return keys, nil
}

// Names returns the names of all caches currently present
func (fs *FileStorage) Names() ([]string, error) {
	dirs, err := os.ReadDir(fs.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache base directory: %w", err)
	}

	var names []string
	for _, d := range dirs {
		if !d.IsDir() || strings.HasPrefix(d.Name(), ".") || strings.HasSuffix(d.Name(), ".old") {
			continue
		}
		names = append(names, d.Name())
	}

	sort.Strings(names)
	return names, nil
}

// Delete removes the named cache and all its entries
func (fs *FileStorage) Delete(name string) error {
	if err := os.RemoveAll(fs.cacheDir(name)); err != nil {
		return fmt.Errorf("failed to delete cache %q: %w", name, err)
	}
	return nil
}

func (fs *FileStorage) cacheDir(name string) string {
	return filepath.Join(fs.baseDir, name)
}

// entryPath generates a file path from a cache name and key
// The key is hashed to create a safe filename
func (fs *FileStorage) entryPath(name, key string) string {
	return filepath.Join(fs.cacheDir(name), hashKey(key)+".json")
}

func hashKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}
