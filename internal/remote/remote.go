// Package remote defines the remote wrapper contract spec.md §6 names
// ("the abstract operations a concrete protocol must provide") and the
// one concrete protocol this core ships: a local filesystem remote,
// since spec.md §6 requires sparse-filter resolution against "a local
// file-system repository" and spec.md §1 scopes network framing itself
// as a non-goal.
package remote

import (
	"github.com/geovcs/geovcs/internal/diff"
	"github.com/geovcs/geovcs/internal/graphdb"
	"github.com/geovcs/geovcs/internal/model"
	"github.com/geovcs/geovcs/internal/objectstore"
	"github.com/geovcs/geovcs/internal/objhash"
)

// Ref names a remote pointer and the ObjectId it currently resolves to.
type Ref struct {
	Name     string
	ObjectID objhash.ObjectId
}

// FilteredChanges is the result of filtering one commit's tree diff
// through a RepositoryFilter: the surviving changes, plus whether any
// entry was suppressed (spec.md §4.3.1 step b's wasFiltered()).
type FilteredChanges struct {
	Changes  []diff.Change
	Filtered bool
}

// PushSource bundles the local repository state PushSparseCommit needs
// to read in order to transmit a commit to the remote: the wrapper
// itself owns the remote-side connection, but pushing a commit requires
// reading its bytes from the LOCAL object store, which the wrapper does
// not otherwise have access to.
type PushSource struct {
	Objects objectstore.Store
	Graph   graphdb.GraphDb
}

// Wrapper is the remote wrapper contract: getParents/getObject/
// getFilteredChanges drive fetch; getRemoteRef/updateRemoteRef/
// pushSparseCommit drive push. The exact wire encoding behind each
// method is a protocol concern outside this core.
type Wrapper interface {
	// GetParents returns a remote-side commit's parents, used as the
	// parents oracle for a fetch's GraphTraverser.
	GetParents(id objhash.ObjectId) ([]objhash.ObjectId, error)

	// GetObject fetches a single object (commit or tree) from the
	// remote by id.
	GetObject(id objhash.ObjectId) (*objectstore.Object, error)

	// GetFilteredChanges computes the filtered diff a remote commit
	// introduces relative to its mainline parent.
	GetFilteredChanges(commit model.Commit) (FilteredChanges, error)

	// GetRemoteRef resolves a refspec to the remote ref it currently
	// names, or (_, false, nil) if absent.
	GetRemoteRef(refspec string) (Ref, bool, error)

	// UpdateRemoteRef sets (or, if delete is true, removes) the remote
	// ref named by refspec to point at id.
	UpdateRemoteRef(refspec string, id objhash.ObjectId, delete bool) error

	// PushSparseCommit transmits commit id's objects, read from src,
	// to the remote, and installs id's mapping (spec.md §4.3.2 step 1).
	PushSparseCommit(src PushSource, id objhash.ObjectId) error
}
