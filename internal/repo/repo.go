// Package repo bootstraps and opens a geovcs repository on disk: the
// .geovcs/{objects,graph,refs} directory layout, the empty tree object,
// HEAD's initial symbolic ref, and the repository's config.yaml — the
// ambient scaffolding spec.md's external-collaborator sections assume
// already exists. Grounded in cmd/nornicdb/main.go's runInit.
package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/geovcs/geovcs/internal/graphdb"
	"github.com/geovcs/geovcs/internal/model"
	"github.com/geovcs/geovcs/internal/objectstore"
	"github.com/geovcs/geovcs/internal/refdb"
)

const (
	objectsDirName = "objects"
	graphDirName   = "graph"
	refsDirName    = "refs"
	configFileName = "config.yaml"
)

// Config is the repository's persisted configuration, read from and
// written to .geovcs/config.yaml.
type Config struct {
	// Sparse holds the sparse-clone filter path, relative to the
	// repository root; empty means a full (non-sparse) clone.
	Sparse SparseSection `yaml:"sparse"`
	// Remotes maps a remote's name to its root URL.
	Remotes map[string]string `yaml:"remotes"`
}

// SparseSection is config.yaml's "sparse:" block.
type SparseSection struct {
	Filter string `yaml:"filter"`
}

// Repository bundles a repository's three backing stores plus its
// parsed config.yaml.
type Repository struct {
	Root    string
	Objects objectstore.Store
	Graph   graphdb.GraphDb
	Refs    refdb.RefDb
	Config  Config

	closers []func() error
}

// Close releases any on-disk backend handles the repository opened.
func (r *Repository) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Init creates a new repository rooted at dir: the objects/graph/refs
// directories, the empty tree object, HEAD pointing at
// refs/heads/master, and a default config.yaml. inMemory opens every
// backend store in memory instead of under dir (used by tests and
// "geovcs init --memory"); dir is still created on disk for config.yaml
// in that case, since a repository needs a stable home even when its
// object data doesn't persist.
func Init(dir string, inMemory bool) (*Repository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("repo: create %s: %w", dir, err)
	}
	if _, err := os.Stat(filepath.Join(dir, configFileName)); err == nil {
		return nil, fmt.Errorf("repo: %s is already a geovcs repository", dir)
	}

	r, err := open(dir, inMemory, true)
	if err != nil {
		return nil, err
	}

	if _, err := objectstore.PutTree(r.Objects, model.EmptyTree()); err != nil {
		return nil, fmt.Errorf("repo: write empty tree: %w", err)
	}
	if err := r.Refs.PutSymRef(model.HEAD, "refs/heads/master"); err != nil {
		return nil, fmt.Errorf("repo: set HEAD: %w", err)
	}

	r.Config = Config{Remotes: map[string]string{}}
	if err := r.writeConfig(); err != nil {
		return nil, err
	}
	return r, nil
}

// Open opens an existing repository rooted at dir.
func Open(dir string, inMemory bool) (*Repository, error) {
	data, err := os.ReadFile(filepath.Join(dir, configFileName))
	if err != nil {
		return nil, fmt.Errorf("repo: %s is not a geovcs repository: %w", dir, err)
	}
	r, err := open(dir, inMemory, false)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &r.Config); err != nil {
		return nil, fmt.Errorf("repo: parse %s: %w", configFileName, err)
	}
	if r.Config.Remotes == nil {
		r.Config.Remotes = map[string]string{}
	}
	return r, nil
}

func open(dir string, inMemory, create bool) (*Repository, error) {
	r := &Repository{Root: dir}

	if inMemory {
		r.Objects = objectstore.NewMemoryStore()
		r.Graph = graphdb.NewMemoryGraphDb()
		r.Refs = refdb.NewMemRefDb()
		return r, nil
	}

	objectsDir := filepath.Join(dir, objectsDirName)
	graphDir := filepath.Join(dir, graphDirName)
	refsDir := filepath.Join(dir, refsDirName)
	if create {
		for _, d := range []string{objectsDir, graphDir, refsDir} {
			if err := os.MkdirAll(d, 0o755); err != nil {
				return nil, fmt.Errorf("repo: create %s: %w", d, err)
			}
		}
	}

	objects, err := objectstore.NewBadgerStore(objectstore.BadgerStoreOptions{DataDir: objectsDir})
	if err != nil {
		return nil, fmt.Errorf("repo: open object store: %w", err)
	}
	r.Objects = objects
	r.closers = append(r.closers, objects.Close)

	graph, err := graphdb.NewBadgerGraphDb(graphdb.BadgerGraphDbOptions{DataDir: graphDir})
	if err != nil {
		return nil, fmt.Errorf("repo: open graph db: %w", err)
	}
	r.Graph = graph
	r.closers = append(r.closers, graph.Close)

	refs, err := refdb.NewBadgerRefDb(refdb.BadgerRefDbOptions{DataDir: refsDir})
	if err != nil {
		return nil, fmt.Errorf("repo: open ref db: %w", err)
	}
	r.Refs = refs
	r.closers = append(r.closers, refs.Close)

	return r, nil
}

// writeConfig persists r.Config to .geovcs/config.yaml.
func (r *Repository) writeConfig() error {
	data, err := yaml.Marshal(r.Config)
	if err != nil {
		return fmt.Errorf("repo: encode config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.Root, configFileName), data, 0o644); err != nil {
		return fmt.Errorf("repo: write config: %w", err)
	}
	return nil
}

// SetRemote records a named remote's URL in config.yaml and persists it.
func (r *Repository) SetRemote(name, url string) error {
	if r.Config.Remotes == nil {
		r.Config.Remotes = map[string]string{}
	}
	r.Config.Remotes[name] = url
	return r.writeConfig()
}

// Remote returns a named remote's configured URL.
func (r *Repository) Remote(name string) (string, bool) {
	url, ok := r.Config.Remotes[name]
	return url, ok
}
