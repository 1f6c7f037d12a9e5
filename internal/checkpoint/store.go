package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	ioutils "github.com/handiism/lyrics-harvester/internal/io"
	"github.com/handiism/lyrics-harvester/internal/model"
	"github.com/vmihailenco/msgpack/v5"
)

type tree[P any] map[string]map[string]map[string]P

// Store is a persistent category -> parent -> key -> payload map.
// It is safe for concurrent use.
type Store[P any] struct {
	path string

	mu   sync.RWMutex
	data tree[P]
}

// New returns an empty store backed by path. Nothing is read until Load.
func New[P any](path string) *Store[P] {
	return &Store[P]{path: path, data: make(tree[P])}
}

// Path returns the backing file.
func (s *Store[P]) Path() string {
	return s.path
}

// Load merges the file's contents into the store. A missing file is not an
// error. Entries already in memory win over entries on disk.
func (s *Store[P]) Load() error {
	var loaded tree[P]
	found, err := LoadValue(s.path, &loaded)
	if err != nil || !found {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for category, parents := range loaded {
		for parent, keys := range parents {
			for key, v := range keys {
				if _, ok := s.lookup(category, parent, key); !ok {
					s.put(category, parent, key, v)
				}
			}
		}
	}
	return nil
}

// Save atomically writes the store to its file.
func (s *Store[P]) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SaveValue(s.path, s.data)
}

// Has reports whether an entry exists.
func (s *Store[P]) Has(category, parent, key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.lookup(category, parent, key)
	return ok
}

// Get returns an entry.
func (s *Store[P]) Get(category, parent, key string) (P, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(category, parent, key)
}

// Put adds or replaces an entry.
func (s *Store[P]) Put(category, parent, key string, v P) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(category, parent, key, v)
}

// Len returns the number of entries.
func (s *Store[P]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, parents := range s.data {
		for _, keys := range parents {
			n += len(keys)
		}
	}
	return n
}

// Categories returns the categories in sorted order.
func (s *Store[P]) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.data)
}

// Walk calls fn for every entry in sorted order and stops at the first
// error. fn must not modify the store.
func (s *Store[P]) Walk(fn func(category, parent, key string, v P) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, category := range sortedKeys(s.data) {
		parents := s.data[category]
		for _, parent := range sortedKeys(parents) {
			keys := parents[parent]
			for _, key := range sortedKeys(keys) {
				if err := fn(category, parent, key, keys[key]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *Store[P]) lookup(category, parent, key string) (P, bool) {
	v, ok := s.data[category][parent][key]
	return v, ok
}

func (s *Store[P]) put(category, parent, key string, v P) {
	parents, ok := s.data[category]
	if !ok {
		parents = make(map[string]map[string]P)
		s.data[category] = parents
	}
	keys, ok := parents[parent]
	if !ok {
		keys = make(map[string]P)
		parents[parent] = keys
	}
	keys[key] = v
}

// Pending returns the items whose (Category, Parent, Key) is not stored.
func Pending[T, P any](s *Store[P], items []model.WorkItem[T]) []model.WorkItem[T] {
	var todo []model.WorkItem[T]
	for _, it := range items {
		if !s.Has(it.Category, it.Parent, it.Key) {
			todo = append(todo, it)
		}
	}
	return todo
}

// SaveValue atomically writes v to path as MessagePack.
func SaveValue(path string, v any) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	return ioutils.WriteFileAtomic(path, data)
}

// LoadValue decodes path into v. It reports false, without error, when the
// file does not exist.
func LoadValue(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
