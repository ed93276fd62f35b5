package graphdb

import (
	"sync"

	"github.com/geovcs/geovcs/internal/objhash"
)

// MemoryGraphDb is an in-memory GraphDb, the hand-rolled fake backing
// replicate/graph tests.
type MemoryGraphDb struct {
	mu         sync.RWMutex
	parents    map[objhash.ObjectId][]objhash.ObjectId
	properties map[objhash.ObjectId]map[string]string
	mapping    map[objhash.ObjectId]objhash.ObjectId
}

// NewMemoryGraphDb returns an empty in-memory commit-graph database.
func NewMemoryGraphDb() *MemoryGraphDb {
	return &MemoryGraphDb{
		parents:    make(map[objhash.ObjectId][]objhash.ObjectId),
		properties: make(map[objhash.ObjectId]map[string]string),
		mapping:    make(map[objhash.ObjectId]objhash.ObjectId),
	}
}

// Put implements GraphDb.
func (g *MemoryGraphDb) Put(id objhash.ObjectId, parents []objhash.ObjectId) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := append([]objhash.ObjectId(nil), parents...)
	g.parents[id] = cp
	return nil
}

// GetParents implements GraphDb.
func (g *MemoryGraphDb) GetParents(id objhash.ObjectId) ([]objhash.ObjectId, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]objhash.ObjectId(nil), g.parents[id]...), nil
}

// Exists implements GraphDb.
func (g *MemoryGraphDb) Exists(id objhash.ObjectId) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.parents[id]
	return ok, nil
}

// SetProperty implements GraphDb.
func (g *MemoryGraphDb) SetProperty(id objhash.ObjectId, key, value string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	props, ok := g.properties[id]
	if !ok {
		props = make(map[string]string)
		g.properties[id] = props
	}
	props[key] = value
	return nil
}

// GetProperty implements GraphDb.
func (g *MemoryGraphDb) GetProperty(id objhash.ObjectId, key string) (string, bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	props, ok := g.properties[id]
	if !ok {
		return "", false, nil
	}
	v, ok := props[key]
	return v, ok, nil
}

// Map implements GraphDb, installing both directions under one lock so
// neither direction is ever observable without the other.
func (g *MemoryGraphDb) Map(a, b objhash.ObjectId) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if a.IsNull() || b.IsNull() {
		return nil
	}
	g.mapping[a] = b
	g.mapping[b] = a
	return nil
}

// GetMapping implements GraphDb.
func (g *MemoryGraphDb) GetMapping(id objhash.ObjectId) (objhash.ObjectId, error) {
	if id.IsNull() {
		return objhash.Null, nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.mapping[id], nil
}
