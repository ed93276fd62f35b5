// Package graphdb is the commit-graph database named as an external
// collaborator in spec.md §3 and §6: per-commit parent lists and
// string-keyed properties, plus the bidirectional original<->projected
// commit mapping sparse replication relies on.
package graphdb

import (
	"github.com/geovcs/geovcs/internal/objhash"
)

// PropertySparse is the one distinguished property name the core spec
// names: value "true" marks a commit as a sparse projection.
const PropertySparse = "sparse"

// GraphDb is the commit-graph database contract.
type GraphDb interface {
	// Put records id's parent list. Calling Put again for an id already
	// known overwrites its parents.
	Put(id objhash.ObjectId, parents []objhash.ObjectId) error

	// GetParents returns id's recorded parents. An id never Put is not
	// an error: callers (graph.ParentsFunc implementations) treat it as
	// a root, per spec.md §4.2.
	GetParents(id objhash.ObjectId) ([]objhash.ObjectId, error)

	// Exists reports whether id has been recorded via Put.
	Exists(id objhash.ObjectId) (bool, error)

	// SetProperty stores an arbitrary string property on id.
	SetProperty(id objhash.ObjectId, key, value string) error

	// GetProperty returns id's value for key, or ("", false) if unset.
	GetProperty(id objhash.ObjectId, key string) (string, bool, error)

	// Map installs the bidirectional mapping map(a)=b and map(b)=a in
	// one atomic operation. Per spec.md §3's invariant, the two
	// directions are always installed together; single-direction writes
	// are never performed.
	Map(a, b objhash.ObjectId) error

	// GetMapping returns map(id), or Null if id is unmapped. map(Null)
	// is always Null.
	GetMapping(id objhash.ObjectId) (objhash.ObjectId, error)
}
