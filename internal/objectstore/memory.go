package objectstore

import (
	"sync"

	"github.com/geovcs/geovcs/internal/objhash"
)

// MemoryStore is an in-memory Store, the hand-rolled fake used by
// reftx/graph/replicate tests — mirroring the teacher's MemoryEngine,
// which backs storage tests without a mocking framework.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[objhash.ObjectId]*Object
}

// NewMemoryStore returns an empty in-memory object store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[objhash.ObjectId]*Object)}
}

// Get implements Store.
func (m *MemoryStore) Get(id objhash.ObjectId) (*Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *obj
	cp.Data = append([]byte(nil), obj.Data...)
	return &cp, nil
}

// Put implements Store.
func (m *MemoryStore) Put(obj *Object) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *obj
	cp.Data = append([]byte(nil), obj.Data...)
	m.objects[obj.ID] = &cp
	return nil
}

// Exists implements Store.
func (m *MemoryStore) Exists(id objhash.ObjectId) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[id]
	return ok, nil
}
