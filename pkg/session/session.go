// Package session remembers which account this device is logged into, and
// holds the anonymous device credential the sync channel waits for.
package session

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/peterbourgon/diskv/v3"
)

// AccountKey is the name the active account key is stored under.
const AccountKey = "hunter_id"

// Store persists the active account key on this device. It is not
// synchronized with the backing document store.
type Store interface {
	Save(key string) error
	// Load returns the saved key; ok is false when no account is active.
	Load() (key string, ok bool, err error)
	Clear() error
}

// kv is the small slice of diskv the session needs.
type kv interface {
	Read(key string) ([]byte, error)
	Write(key string, val []byte) error
	Erase(key string) error
	Has(key string) bool
}

// DiskStore keeps the session in a directory on disk so it survives
// restarts.
type DiskStore struct {
	d kv
}

var _ Store = (*DiskStore)(nil)

// Open returns a DiskStore rooted at dir.
func Open(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, errors.New("session: directory not configured")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("session: ensure %s: %w", dir, err)
	}
	return &DiskStore{d: diskv.New(diskv.Options{
		BasePath:     dir,
		CacheSizeMax: 1024,
		FilePerm:     0o600,
		PathPerm:     0o700,
	})}, nil
}

// NewMemory returns a Store and credential storage that live only as long as
// the process.
func NewMemory() *DiskStore {
	return &DiskStore{d: &memoryKV{m: make(map[string][]byte)}}
}

func (s *DiskStore) Save(key string) error {
	if key == "" {
		return errors.New("session: refusing to save an empty account key")
	}
	if err := s.d.Write(AccountKey, []byte(key)); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

func (s *DiskStore) Load() (string, bool, error) {
	if !s.d.Has(AccountKey) {
		return "", false, nil
	}
	val, err := s.d.Read(AccountKey)
	if err != nil {
		return "", false, fmt.Errorf("session: load: %w", err)
	}
	if len(val) == 0 {
		return "", false, nil
	}
	return string(val), true, nil
}

func (s *DiskStore) Clear() error {
	if !s.d.Has(AccountKey) {
		return nil
	}
	if err := s.d.Erase(AccountKey); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

type memoryKV struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (k *memoryKV) Read(key string) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.m[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return append([]byte(nil), v...), nil
}

func (k *memoryKV) Write(key string, val []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.m[key] = append([]byte(nil), val...)
	return nil
}

func (k *memoryKV) Erase(key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.m, key)
	return nil
}

func (k *memoryKV) Has(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	_, ok := k.m[key]
	return ok
}
