// Package geovcs is the embedding API for geovcs: opening a repository,
// running transactional ref updates against it, walking its commit
// history, and fetching/pushing against another repository through a
// sparse filter. It is a thin façade over internal/repo,
// internal/reftx, internal/graph, and internal/replicate, in the same
// spirit as the teacher's pkg/nornicdb wrapping its storage/decay/search
// internals behind one DB type.
//
// Example:
//
//	db, err := geovcs.Open(".geovcs", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	tx, err := db.Begin()
//	if err != nil {
//		log.Fatal(err)
//	}
//	// ... stage commits against tx's ref view ...
//	tx.Abort()
package geovcs

import (
	"fmt"

	"github.com/geovcs/geovcs/internal/config"
	"github.com/geovcs/geovcs/internal/filter"
	"github.com/geovcs/geovcs/internal/graph"
	"github.com/geovcs/geovcs/internal/model"
	"github.com/geovcs/geovcs/internal/objhash"
	"github.com/geovcs/geovcs/internal/refdb"
	"github.com/geovcs/geovcs/internal/reftx"
	"github.com/geovcs/geovcs/internal/remote"
	"github.com/geovcs/geovcs/internal/repo"
	"github.com/geovcs/geovcs/internal/replicate"
)

// DB is an open geovcs repository.
type DB struct {
	repo   *repo.Repository
	filter *filter.RepositoryFilter
}

// Init creates a new repository at dir and returns it open.
func Init(dir string, cfg *config.Config) (*DB, error) {
	if cfg == nil {
		cfg = config.LoadFromEnv()
		cfg.Repository.DataDir = dir
	}
	r, err := repo.Init(dir, cfg.Repository.InMemory)
	if err != nil {
		return nil, err
	}
	return newDB(r, cfg)
}

// Open opens an existing repository at dir.
func Open(dir string, cfg *config.Config) (*DB, error) {
	if cfg == nil {
		cfg = config.LoadFromEnv()
		cfg.Repository.DataDir = dir
	}
	r, err := repo.Open(dir, cfg.Repository.InMemory)
	if err != nil {
		return nil, err
	}
	return newDB(r, cfg)
}

func newDB(r *repo.Repository, cfg *config.Config) (*DB, error) {
	var f *filter.RepositoryFilter
	path := r.Config.Sparse.Filter
	if path == "" {
		path = cfg.Sparse.FilterPath
	}
	if path != "" {
		rules, err := filter.ParseFile(r.Root, path)
		if err != nil {
			return nil, fmt.Errorf("geovcs: load sparse filter: %w", err)
		}
		f = filter.New(rules)
	}
	return &DB{repo: r, filter: f}, nil
}

// Close releases the repository's on-disk handles.
func (db *DB) Close() error {
	return db.repo.Close()
}

// Tx is an open reference transaction: every ref write made through it
// is isolated from other transactions until Commit promotes it.
type Tx struct {
	view *reftx.TxRefView
}

// Begin opens a new reference transaction.
func (db *DB) Begin() (*Tx, error) {
	view := reftx.New(db.repo.Refs)
	if err := view.Create(); err != nil {
		return nil, err
	}
	return &Tx{view: view}, nil
}

// Refs returns the transaction's isolated RefDb view.
func (t *Tx) Refs() refdb.RefDb {
	return t.view
}

// Commit writes every ref visible through the transaction's view (its
// starting snapshot plus its own writes) into the repository's shared
// ref namespace, then discards the transaction's private namespace.
// Refs removed inside the transaction are not removed from the shared
// namespace.
func (t *Tx) Commit(db *DB) error {
	if err := db.repo.Refs.Lock(); err != nil {
		return err
	}
	defer db.repo.Refs.Unlock()

	entries, err := t.view.GetAll("")
	if err != nil {
		return err
	}
	for name, raw := range entries {
		value, target, symbolic, err := model.Decode(raw)
		if err != nil {
			return fmt.Errorf("geovcs: commit tx: decode %s: %w", name, err)
		}
		if symbolic {
			if err := db.repo.Refs.PutSymRef(name, target); err != nil {
				return err
			}
			continue
		}
		if err := db.repo.Refs.PutRef(name, value); err != nil {
			return err
		}
	}
	return t.view.Close()
}

// Abort discards the transaction's private namespace without touching
// the repository's shared refs.
func (t *Tx) Abort() error {
	return t.view.Close()
}

// Log returns commit ids reachable from start, in ancestor-first order,
// using a GraphTraverser that includes every commit it visits.
func (db *DB) Log(start objhash.ObjectId) ([]objhash.ObjectId, error) {
	t := graph.New(
		func(objhash.ObjectId) (graph.Outcome, error) { return graph.IncludeAndContinue, nil },
		func(id objhash.ObjectId) ([]objhash.ObjectId, error) { return db.repo.Graph.GetParents(id) },
	)
	stack, err := t.Walk(start)
	if err != nil {
		return nil, err
	}
	var out []objhash.ObjectId
	for {
		id, ok := stack.Pop()
		if !ok {
			break
		}
		out = append(out, id)
	}
	return out, nil
}

// Fetch fetches ref's ancestry from the named remote into this
// repository, through this repository's sparse filter.
func (db *DB) Fetch(remoteName, ref string, allowEmpty bool) (replicate.FetchResult, error) {
	w, err := db.openRemote(remoteName)
	if err != nil {
		return replicate.FetchResult{}, err
	}
	remoteRef, ok, err := w.GetRemoteRef(ref)
	if err != nil {
		return replicate.FetchResult{}, err
	}
	if !ok {
		return replicate.FetchResult{}, fmt.Errorf("geovcs: remote %q has no ref %q", remoteName, ref)
	}
	r := replicate.New(db.repo.Refs, db.repo.Objects, db.repo.Graph, db.filter, w)
	r.AllowEmpty = allowEmpty
	return r.Fetch(remoteRef.ObjectID, nil)
}

// Push transmits localRef's history to the named remote under
// remoteRefspec.
func (db *DB) Push(remoteName, localRef, remoteRefspec string) (replicate.PushResult, error) {
	w, err := db.openRemote(remoteName)
	if err != nil {
		return replicate.PushResult{}, err
	}
	r := replicate.New(db.repo.Refs, db.repo.Objects, db.repo.Graph, db.filter, w)
	return r.Push(localRef, remoteRefspec)
}

func (db *DB) openRemote(name string) (remote.Wrapper, error) {
	url, ok := db.repo.Remote(name)
	if !ok {
		return nil, fmt.Errorf("geovcs: no remote named %q configured", name)
	}
	if err := remote.RequireFileRoot(url); err != nil {
		return nil, err
	}
	other, err := repo.Open(url, false)
	if err != nil {
		return nil, fmt.Errorf("geovcs: open remote %q: %w", url, err)
	}
	return remote.NewLocalFS(other.Refs, other.Objects, other.Graph, db.filter), nil
}

// SetRemote records name -> url in the repository's config.
func (db *DB) SetRemote(name, url string) error {
	if err := remote.RequireFileRoot(url); err != nil {
		return err
	}
	return db.repo.SetRemote(name, url)
}

// HeadCommit resolves HEAD through its symbolic indirection to a direct
// commit id.
func (db *DB) HeadCommit() (objhash.ObjectId, error) {
	target, ok, err := db.repo.Refs.GetSymRef(model.HEAD)
	if err != nil {
		return objhash.Null, err
	}
	if !ok {
		id, _, err := db.repo.Refs.GetRef(model.HEAD)
		return id, err
	}
	id, _, err := db.repo.Refs.GetRef(target)
	return id, err
}
