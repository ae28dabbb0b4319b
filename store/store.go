// Package store keeps small reader preferences in a BoltDB file, mirrored in
// memory for reads.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"scripture-api-go/logcolors"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const bucketName = "preferences"

// Store wraps BoltDB with an in-memory mirror of the single bucket.
type Store struct {
	db     *bolt.DB
	mem    sync.Map
	dbPath string
}

// Open opens (or creates) the database at dbPath and loads it into memory.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	if info, err := os.Stat(dbPath); err == nil {
		log.Infof("%s Found existing database at %s (size: %d bytes)", logcolors.LogPreferences, dbPath, info.Size())
	} else {
		log.Infof("%s Creating new database at %s", logcolors.LogPreferences, dbPath)
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open store database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create store bucket: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.loadToMemory(); err != nil {
		log.Warnf("%s Failed to preload store: %v", logcolors.LogPreferences, err)
	}
	return s, nil
}

func (s *Store) loadToMemory() error {
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			s.mem.Store(string(k), string(v))
			count++
			return nil
		})
	})
	if err != nil {
		return err
	}

	log.Debugf("%s Loaded %d keys from disk", logcolors.LogPreferences, count)
	return nil
}

// Get returns the value for key.
func (s *Store) Get(key string) (string, bool) {
	v, ok := s.mem.Load(key)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Set writes key to disk and memory.
func (s *Store) Set(key, value string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	s.mem.Store(key, value)
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	s.mem.Delete(key)
	return nil
}

// Range calls fn for each key in sorted order until fn returns false.
func (s *Store) Range(fn func(key, value string) bool) {
	var keys []string
	values := map[string]string{}
	s.mem.Range(func(k, v any) bool {
		keys = append(keys, k.(string))
		values[k.(string)] = v.(string)
		return true
	})
	sort.Strings(keys)

	for _, k := range keys {
		if !fn(k, values[k]) {
			return
		}
	}
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
