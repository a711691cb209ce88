/*
Package cache keeps the last good copy of each backend payload so views can
render immediately and survive a failed refresh.

A Store is a map guarded by an RWMutex in front of a badger database. The
badger layer is either on disk, which lets the CLI show cached data across
invocations, or in memory for tests and throwaway runs.
*/
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"pelohub/internal/log"

	"github.com/dgraph-io/badger/v3"
)

// View keys.
const (
	KeyEvalDetails    = "eval-details"
	KeyEDASamples     = "eda-samples"
	KeyEngineOverview = "engine-overview"
	KeyAnalysisLog    = "analysis-log"
)

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("cache store is closed")

// Options configures Open.
type Options struct {
	Dir      string // Badger directory; ignored when InMemory.
	InMemory bool
}

// Store is a read-through cache for raw payloads. It is safe for concurrent
// use.
type Store struct {
	mu     sync.RWMutex
	mem    map[string][]byte
	db     *badger.DB
	closed bool
}

// Entry is the outcome of Load.
type Entry struct {
	Data  []byte
	Stale bool // Data came from the cache because the refresh failed.
}

// Fetcher produces fresh data for a key.
type Fetcher func(ctx context.Context) ([]byte, error)

// Open opens or creates the store.
func Open(opts Options) (*Store, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Dir == "" {
			return nil, errors.New("cache directory is required")
		}
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		bopts = badger.DefaultOptions(opts.Dir)
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	log.Debugf("Cache: opened (dir=%q, in-memory=%v)", opts.Dir, opts.InMemory)
	return &Store{mem: make(map[string][]byte), db: db}, nil
}

// Get returns the cached value for key.
func (s *Store) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, false, ErrClosed
	}
	if v, ok := s.mem[key]; ok {
		s.mu.RUnlock()
		return clone(v), true, nil
	}
	s.mu.RUnlock()

	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %q: %w", key, err)
	}

	s.mu.Lock()
	if !s.closed {
		s.mem[key] = val
	}
	s.mu.Unlock()
	return clone(val), true, nil
}

// Set stores value under key.
func (s *Store) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	v := clone(value)
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), v)
	}); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	s.mem[key] = v
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	}); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	delete(s.mem, key)
	return nil
}

// Clear drops every cached value.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	clear(s.mem)
	log.Infof("Cache: cleared")
	return nil
}

// Close flushes and closes the database. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.mem = nil
	return s.db.Close()
}

// Load reads key through the cache. The cached copy is read first, then
// fetch runs. Fresh data is stored and returned. When fetch fails, the
// cached copy is returned marked Stale along with the fetch error; without a
// cached copy only the error is returned.
func (s *Store) Load(ctx context.Context, key string, fetch Fetcher) (Entry, error) {
	cached, hit, err := s.Get(key)
	if err != nil {
		log.Warnf("Cache: %v", err)
	}

	fresh, fetchErr := fetch(ctx)
	if fetchErr != nil {
		if hit {
			log.Warnf("Cache: refresh of %q failed, serving cached copy: %v", key, fetchErr)
			return Entry{Data: cached, Stale: true}, fetchErr
		}
		return Entry{}, fetchErr
	}

	if err := s.Set(key, fresh); err != nil {
		log.Warnf("Cache: %v", err)
	}
	return Entry{Data: fresh}, nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
