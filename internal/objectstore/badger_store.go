package objectstore

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/geovcs/geovcs/internal/logging"
	"github.com/geovcs/geovcs/internal/objhash"
)

// Key prefixes for BadgerDB storage organization, one byte per object
// type — the same single-byte key-prefix scheme the teacher's BadgerEngine
// uses to separate nodes, edges, and secondary indexes in one keyspace.
const (
	prefixCommit      = byte(0x01)
	prefixTree        = byte(0x02)
	prefixFeature     = byte(0x03)
	prefixFeatureType = byte(0x04)
	prefixTag         = byte(0x05)
)

var typePrefix = map[ObjectType]byte{
	TypeCommit:      prefixCommit,
	TypeTree:        prefixTree,
	TypeFeature:     prefixFeature,
	TypeFeatureType: prefixFeatureType,
	TypeTag:         prefixTag,
}

var prefixType = map[byte]ObjectType{
	prefixCommit:      TypeCommit,
	prefixTree:        TypeTree,
	prefixFeature:     TypeFeature,
	prefixFeatureType: TypeFeatureType,
	prefixTag:         TypeTag,
}

// BadgerStore is the on-disk Store backend, keyed as prefixByte+ObjectId.
type BadgerStore struct {
	db *badger.DB
}

// BadgerStoreOptions configures NewBadgerStore.
type BadgerStoreOptions struct {
	// DataDir is the directory holding the Badger database files.
	DataDir string
	// InMemory runs Badger in memory-only mode, useful for tests.
	InMemory bool
}

// NewBadgerStore opens (or creates) a BadgerDB-backed object store.
func NewBadgerStore(opts BadgerStoreOptions) (*BadgerStore, error) {
	badgerOpts := badger.DefaultOptions(opts.DataDir)
	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	lg := logging.New("objectstore")
	badgerOpts = badgerOpts.WithLogger(badgerLoggerAdapter{lg})

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("objectstore: open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Close releases the underlying BadgerDB handle.
func (b *BadgerStore) Close() error {
	return b.db.Close()
}

func objectKey(t ObjectType, id objhash.ObjectId) []byte {
	key := make([]byte, 1+objhash.Size)
	key[0] = typePrefix[t]
	copy(key[1:], id[:])
	return key
}

// Get implements Store. Because the key encodes the object's type
// prefix, Get needs to try each known prefix for id; in practice callers
// generally know the type (PutCommit/PutTree), but Store.Get alone must
// still resolve an id with no type hint.
func (b *BadgerStore) Get(id objhash.ObjectId) (*Object, error) {
	var result *Object
	err := b.db.View(func(txn *badger.Txn) error {
		for prefix, typ := range prefixType {
			key := make([]byte, 1+objhash.Size)
			key[0] = prefix
			copy(key[1:], id[:])
			item, err := txn.Get(key)
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result = &Object{Type: typ, ID: id, Data: data}
			return nil
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Put implements Store.
func (b *BadgerStore) Put(obj *Object) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(objectKey(obj.Type, obj.ID), obj.Data)
	})
}

// Exists implements Store.
func (b *BadgerStore) Exists(id objhash.ObjectId) (bool, error) {
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		for prefix := range prefixType {
			key := make([]byte, 1+objhash.Size)
			key[0] = prefix
			copy(key[1:], id[:])
			_, err := txn.Get(key)
			if err == nil {
				found = true
				return nil
			}
			if err != badger.ErrKeyNotFound {
				return err
			}
		}
		return nil
	})
	return found, err
}

// badgerLoggerAdapter routes Badger's internal logging through our
// component logger instead of Badger's default stderr writer.
type badgerLoggerAdapter struct {
	lg interface {
		Printf(string, ...any)
	}
}

func (a badgerLoggerAdapter) Errorf(f string, args ...interface{})   { a.lg.Printf(f, args...) }
func (a badgerLoggerAdapter) Warningf(f string, args ...interface{}) { a.lg.Printf(f, args...) }
func (a badgerLoggerAdapter) Infof(f string, args ...interface{})    {}
func (a badgerLoggerAdapter) Debugf(f string, args ...interface{})   {}
