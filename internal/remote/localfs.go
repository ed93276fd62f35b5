package remote

import (
	"errors"
	"fmt"
	"strings"

	"github.com/geovcs/geovcs/internal/diff"
	"github.com/geovcs/geovcs/internal/filter"
	"github.com/geovcs/geovcs/internal/graphdb"
	"github.com/geovcs/geovcs/internal/model"
	"github.com/geovcs/geovcs/internal/objectstore"
	"github.com/geovcs/geovcs/internal/objhash"
	"github.com/geovcs/geovcs/internal/refdb"
)

// ErrNotLocalFilesystem is returned when a sparse clone is initialized
// against a non-file:// remote root, per spec.md §6: "sparse clones
// reject non-file:// roots at initialization."
var ErrNotLocalFilesystem = errors.New("remote: sparse clone requires a local file-system repository")

// LocalFS is the one concrete Wrapper this core ships: a remote that is
// itself just another on-disk repository, reached directly rather than
// over a network. It plays both roles the Wrapper contract needs —
// source during fetch, destination during push — against the same
// underlying refdb/objectstore/graphdb triple.
type LocalFS struct {
	Refs    refdb.RefDb
	Objects objectstore.Store
	Graph   graphdb.GraphDb
	// Filter is the local sparse clone's own RepositoryFilter, used to
	// compute GetFilteredChanges against this remote's commits.
	Filter *filter.RepositoryFilter
}

// NewLocalFS builds a LocalFS wrapper. f may be nil, in which case
// GetFilteredChanges treats every change as passing (see
// filter.RepositoryFilter's zero-rule behavior).
func NewLocalFS(refs refdb.RefDb, objects objectstore.Store, graph graphdb.GraphDb, f *filter.RepositoryFilter) *LocalFS {
	if f == nil {
		f = filter.New(nil)
	}
	return &LocalFS{Refs: refs, Objects: objects, Graph: graph, Filter: f}
}

// GetParents implements Wrapper.
func (l *LocalFS) GetParents(id objhash.ObjectId) ([]objhash.ObjectId, error) {
	return l.Graph.GetParents(id)
}

// GetObject implements Wrapper.
func (l *LocalFS) GetObject(id objhash.ObjectId) (*objectstore.Object, error) {
	return l.Objects.Get(id)
}

// GetFilteredChanges implements Wrapper.
func (l *LocalFS) GetFilteredChanges(commit model.Commit) (FilteredChanges, error) {
	changes, err := diff.Commit(l.Objects, commit)
	if err != nil {
		return FilteredChanges{}, err
	}
	kept, wasFiltered := l.Filter.FilterChanges(changes)
	return FilteredChanges{Changes: kept, Filtered: wasFiltered}, nil
}

// GetRemoteRef implements Wrapper.
func (l *LocalFS) GetRemoteRef(refspec string) (Ref, bool, error) {
	if id, ok, err := l.Refs.GetRef(refspec); err != nil {
		return Ref{}, false, err
	} else if ok {
		return Ref{Name: refspec, ObjectID: id}, true, nil
	}
	if target, ok, err := l.Refs.GetSymRef(refspec); err != nil {
		return Ref{}, false, err
	} else if ok {
		return l.resolveSymbolic(refspec, target, 0)
	}
	return Ref{}, false, nil
}

// resolveSymbolic follows at most one level of symbolic indirection, per
// spec.md §3's invariant ("after at most one indirection, either
// identifies a direct ref or is dangling").
func (l *LocalFS) resolveSymbolic(name, target string, depth int) (Ref, bool, error) {
	if depth > 0 {
		return Ref{}, false, nil
	}
	if id, ok, err := l.Refs.GetRef(target); err != nil {
		return Ref{}, false, err
	} else if ok {
		return Ref{Name: name, ObjectID: id}, true, nil
	}
	return Ref{}, false, nil
}

// UpdateRemoteRef implements Wrapper.
func (l *LocalFS) UpdateRemoteRef(refspec string, id objhash.ObjectId, del bool) error {
	if del {
		_, _, err := l.Refs.Remove(refspec)
		return err
	}
	return l.Refs.PutRef(refspec, id)
}

// PushSparseCommit implements Wrapper: copies id's commit and tree
// objects from src into this remote, records its parents in the
// remote's graph database, and installs the identity mapping map(id,id)
// — there is no projection on push (spec.md §4.3.2 describes no
// filtering step), so a pushed commit's "mapping" simply marks it as
// present on the remote. The push evaluator does not read this mapping:
// it skips already-pushed commits by probing the remote for the object.
func (l *LocalFS) PushSparseCommit(src PushSource, id objhash.ObjectId) error {
	commit, err := objectstore.GetCommit(src.Objects, id)
	if err != nil {
		return fmt.Errorf("remote: read local commit %s: %w", id, err)
	}
	if err := copyObject(src.Objects, l.Objects, commit.TreeID); err != nil {
		return fmt.Errorf("remote: copy tree for commit %s: %w", id, err)
	}
	if err := l.Objects.Put(&objectstore.Object{Type: objectstore.TypeCommit, ID: id, Data: commit.Encode()}); err != nil {
		return fmt.Errorf("remote: write commit %s: %w", id, err)
	}
	if err := l.Graph.Put(id, commit.Parents); err != nil {
		return err
	}
	return l.Graph.Map(id, id)
}

func copyObject(src, dst objectstore.Store, id objhash.ObjectId) error {
	if id == model.EmptyTreeID {
		return nil
	}
	if exists, err := dst.Exists(id); err != nil {
		return err
	} else if exists {
		return nil
	}
	obj, err := src.Get(id)
	if err != nil {
		return err
	}
	return dst.Put(obj)
}

// RequireFileRoot validates a remote root URL against spec.md §6's
// local-filesystem requirement.
func RequireFileRoot(rootURL string) error {
	if !strings.HasPrefix(rootURL, "file://") && !strings.HasPrefix(rootURL, "/") && !strings.HasPrefix(rootURL, ".") {
		return ErrNotLocalFilesystem
	}
	return nil
}
