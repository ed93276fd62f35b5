// Package refdb defines RefDb, the flat reference-name to value map that
// spec.md §6 names as an external collaborator: the low-level reference
// database TxRefView decorates. A name maps to either a direct ObjectId
// or a symbolic "ref: <other-name>" value; RefDb itself knows nothing
// about that encoding beyond what putRef/putSymRef/getRef/getSymRef
// impose — it is, per the spec, "a flat key→value map over string
// paths."
package refdb

import (
	"github.com/geovcs/geovcs/internal/objhash"
)

// RefDb is the contract every namespace decorator (TxRefView) and every
// concrete backend (MemRefDb, BadgerRefDb) must satisfy.
type RefDb interface {
	// Lock acquires the database-wide lock, timing out per the
	// implementation's own policy. Unlock releases it. Callers hold the
	// lock across multi-step compound updates; RefDb performs no
	// implicit locking of its own.
	Lock() error
	Unlock() error

	// GetRef returns the ObjectId stored at name, or (Null, false) if
	// absent or if name holds a symbolic value.
	GetRef(name string) (objhash.ObjectId, bool, error)

	// GetSymRef returns the target name stored at name, or ("", false)
	// if absent or if name holds a direct value.
	GetSymRef(name string) (string, bool, error)

	// PutRef writes a direct ref.
	PutRef(name string, id objhash.ObjectId) error

	// PutSymRef writes a symbolic ref pointing at target.
	PutSymRef(name string, target string) error

	// Remove deletes name, returning its prior raw value (as stored)
	// and whether it was present.
	Remove(name string) (string, bool, error)

	// RemoveAll deletes every key with the given prefix, returning the
	// removed entries (externalized name -> raw stored value).
	RemoveAll(prefix string) (map[string]string, error)

	// GetAll returns every key with the given prefix (externalized
	// name -> raw stored value). An empty prefix matches everything.
	GetAll(prefix string) (map[string]string, error)
}
