package graphdb

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/geovcs/geovcs/internal/objhash"
)

// Key prefixes, one byte each, following the same single-byte-prefix
// keyspace convention objectstore.BadgerStore and the teacher's
// BadgerEngine use.
const (
	prefixParents  = byte(0x01)
	prefixProperty = byte(0x02)
	prefixMapping  = byte(0x03)
)

// BadgerGraphDb is the on-disk GraphDb backend.
type BadgerGraphDb struct {
	db *badger.DB
}

// BadgerGraphDbOptions configures NewBadgerGraphDb.
type BadgerGraphDbOptions struct {
	DataDir  string
	InMemory bool
}

// NewBadgerGraphDb opens (or creates) a BadgerDB-backed commit-graph
// database.
func NewBadgerGraphDb(opts BadgerGraphDbOptions) (*BadgerGraphDb, error) {
	badgerOpts := badger.DefaultOptions(opts.DataDir)
	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("graphdb: open badger: %w", err)
	}
	return &BadgerGraphDb{db: db}, nil
}

// Close releases the underlying BadgerDB handle.
func (g *BadgerGraphDb) Close() error {
	return g.db.Close()
}

func parentsKey(id objhash.ObjectId) []byte {
	return append([]byte{prefixParents}, id[:]...)
}

func propertyKey(id objhash.ObjectId, key string) []byte {
	buf := append([]byte{prefixProperty}, id[:]...)
	buf = append(buf, ':')
	return append(buf, []byte(key)...)
}

func mappingKey(id objhash.ObjectId) []byte {
	return append([]byte{prefixMapping}, id[:]...)
}

// Put implements GraphDb.
func (g *BadgerGraphDb) Put(id objhash.ObjectId, parents []objhash.ObjectId) error {
	data, err := json.Marshal(parents)
	if err != nil {
		return err
	}
	return g.db.Update(func(txn *badger.Txn) error {
		return txn.Set(parentsKey(id), data)
	})
}

// GetParents implements GraphDb.
func (g *BadgerGraphDb) GetParents(id objhash.ObjectId) ([]objhash.ObjectId, error) {
	var parents []objhash.ObjectId
	err := g.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(parentsKey(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &parents)
		})
	})
	return parents, err
}

// Exists implements GraphDb.
func (g *BadgerGraphDb) Exists(id objhash.ObjectId) (bool, error) {
	found := false
	err := g.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(parentsKey(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// SetProperty implements GraphDb.
func (g *BadgerGraphDb) SetProperty(id objhash.ObjectId, key, value string) error {
	return g.db.Update(func(txn *badger.Txn) error {
		return txn.Set(propertyKey(id, key), []byte(value))
	})
}

// GetProperty implements GraphDb.
func (g *BadgerGraphDb) GetProperty(id objhash.ObjectId, key string) (string, bool, error) {
	var value string
	found := false
	err := g.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(propertyKey(id, key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		value = string(data)
		found = true
		return nil
	})
	return value, found, err
}

// Map implements GraphDb, installing both directions in one Badger
// transaction so the mapping is never observable half-written.
func (g *BadgerGraphDb) Map(a, b objhash.ObjectId) error {
	if a.IsNull() || b.IsNull() {
		return nil
	}
	return g.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(mappingKey(a), b[:]); err != nil {
			return err
		}
		return txn.Set(mappingKey(b), a[:])
	})
}

// GetMapping implements GraphDb.
func (g *BadgerGraphDb) GetMapping(id objhash.ObjectId) (objhash.ObjectId, error) {
	if id.IsNull() {
		return objhash.Null, nil
	}
	var mapped objhash.ObjectId
	err := g.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(mappingKey(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != objhash.Size {
				return fmt.Errorf("graphdb: corrupt mapping value for %s", id)
			}
			copy(mapped[:], val)
			return nil
		})
	})
	return mapped, err
}
