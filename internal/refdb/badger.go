package refdb

import (
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/geovcs/geovcs/internal/objhash"
)

// BadgerRefDb is the on-disk RefDb backend, storing each ref's raw
// string value (40-hex id, or "ref: <target>") keyed by its plain name,
// the same flat layout MemRefDb uses — just persisted via BadgerDB
// instead of an in-process map, following the teacher's pattern of
// offering an in-memory and a Badger-backed implementation of the same
// interface (storage.MemoryEngine / storage.BadgerEngine).
type BadgerRefDb struct {
	db      *badger.DB
	mu      sync.Mutex
	locked  bool
	timeout time.Duration
}

// BadgerRefDbOptions configures NewBadgerRefDb.
type BadgerRefDbOptions struct {
	DataDir string
	// InMemory runs Badger in memory-only mode, useful for tests.
	InMemory bool
}

// NewBadgerRefDb opens (or creates) a BadgerDB-backed RefDb.
func NewBadgerRefDb(opts BadgerRefDbOptions) (*BadgerRefDb, error) {
	badgerOpts := badger.DefaultOptions(opts.DataDir)
	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}
	return &BadgerRefDb{db: db, timeout: DefaultLockTimeout}, nil
}

// Close releases the underlying BadgerDB handle.
func (r *BadgerRefDb) Close() error {
	return r.db.Close()
}

// Lock implements RefDb.
func (r *BadgerRefDb) Lock() error {
	deadline := time.Now().Add(r.timeout)
	for {
		r.mu.Lock()
		if !r.locked {
			r.locked = true
			r.mu.Unlock()
			return nil
		}
		r.mu.Unlock()
		if time.Now().After(deadline) {
			return ErrLockTimeout
		}
		time.Sleep(time.Millisecond)
	}
}

// Unlock implements RefDb.
func (r *BadgerRefDb) Unlock() error {
	r.mu.Lock()
	r.locked = false
	r.mu.Unlock()
	return nil
}

// GetRef implements RefDb.
func (r *BadgerRefDb) GetRef(name string) (objhash.ObjectId, bool, error) {
	raw, ok, err := r.get(name)
	if err != nil || !ok || strings.HasPrefix(raw, "ref: ") {
		return objhash.Null, false, err
	}
	id, err := objhash.Parse(raw)
	if err != nil {
		return objhash.Null, false, err
	}
	return id, true, nil
}

// GetSymRef implements RefDb.
func (r *BadgerRefDb) GetSymRef(name string) (string, bool, error) {
	raw, ok, err := r.get(name)
	if err != nil || !ok || !strings.HasPrefix(raw, "ref: ") {
		return "", false, err
	}
	return strings.TrimPrefix(raw, "ref: "), true, nil
}

func (r *BadgerRefDb) get(name string) (string, bool, error) {
	var raw string
	var found bool
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(name))
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
		raw = string(data)
		found = true
		return nil
	})
	return raw, found, err
}

// PutRef implements RefDb.
func (r *BadgerRefDb) PutRef(name string, id objhash.ObjectId) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(name), []byte(id.String()))
	})
}

// PutSymRef implements RefDb.
func (r *BadgerRefDb) PutSymRef(name string, target string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(name), []byte("ref: "+target))
	})
}

// Remove implements RefDb.
func (r *BadgerRefDb) Remove(name string) (string, bool, error) {
	raw, ok, err := r.get(name)
	if err != nil || !ok {
		return "", ok, err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(name))
	})
	return raw, true, err
}

// RemoveAll implements RefDb.
func (r *BadgerRefDb) RemoveAll(prefix string) (map[string]string, error) {
	removed, err := r.GetAll(prefix)
	if err != nil {
		return nil, err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		var keys [][]byte
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			keys = append(keys, append([]byte(nil), it.Item().Key()...))
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	return removed, err
}

// GetAll implements RefDb.
func (r *BadgerRefDb) GetAll(prefix string) (map[string]string, error) {
	result := make(map[string]string)
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			item := it.Item()
			key := string(item.Key())
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[key] = string(val)
		}
		return nil
	})
	return result, err
}
