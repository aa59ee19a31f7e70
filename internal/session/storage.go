package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned when no value is stored under a key.
var ErrNotFound = errors.New("key not found")

// ErrEmptyKey is returned when trying to store a value under an empty key.
var ErrEmptyKey = errors.New("empty storage key")

// Storage is the key/value persistence behind the session, the Go side of the
// browser's localStorage.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// LocalStorage keeps values in memory; they are lost on restart.
type LocalStorage struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// NewLocalStorage instantiates a new LocalStorage with an empty map.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		m: map[string][]byte{},
	}
}

// Get returns ErrNotFound if nothing is stored under key.
func (l *LocalStorage) Get(key string) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	v, ok := l.m[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set returns ErrEmptyKey if key is empty.
func (l *LocalStorage) Set(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.m[key] = append([]byte(nil), value...)
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (l *LocalStorage) Remove(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.m, key)
	return nil
}

// FileStorage persists all keys as one JSON document so the session survives restarts.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

// NewFileStorage returns a FileStorage writing to path. The file is created on first Set.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	m := map[string]json.RawMessage{}
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return m, nil
}

func (f *FileStorage) save(m map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, f.path)
}

// Get returns ErrNotFound if nothing is stored under key.
func (f *FileStorage) Get(key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.load()
	if err != nil {
		return nil, err
	}
	v, ok := m[key]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(v), nil
}

// Set stores value, which must be valid JSON.
func (f *FileStorage) Set(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	if !json.Valid(value) {
		return fmt.Errorf("value for %q is not valid JSON", key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.load()
	if err != nil {
		return err
	}
	m[key] = append(json.RawMessage(nil), value...)
	return f.save(m)
}

// Remove deletes key. Removing a missing key is not an error.
func (f *FileStorage) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return f.save(m)
}
