package storage

import (
	"context"
	"path"
	"strconv"
	"sync"
)

// MemoryStore is an in-process FileStore. PutErr and DeleteErr, when set,
// are returned instead of touching the map.
type MemoryStore struct {
	BaseURL   string
	PutErr    error
	DeleteErr error

	mu      sync.Mutex
	seq     int
	files   map[string][]byte
	deleted []string
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{BaseURL: baseURL, files: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, dir, ext string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return "", m.PutErr
	}
	m.seq++
	p := path.Join(dir, "file-"+strconv.Itoa(m.seq)+ext)
	m.files[p] = append([]byte(nil), data...)
	return p, nil
}

func (m *MemoryStore) Delete(_ context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.files, p)
	m.deleted = append(m.deleted, p)
	return nil
}

func (m *MemoryStore) URL(p string) string {
	return m.BaseURL + "/storage/" + p
}

func (m *MemoryStore) Exists(p string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[p]
	return ok
}

// Len is the number of files currently stored.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// Deleted lists every path passed to a successful Delete, in order.
func (m *MemoryStore) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}
