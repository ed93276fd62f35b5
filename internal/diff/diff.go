// Package diff computes the minimal tree diff the replicator needs to
// project one commit's changes through a filter (spec.md §4.3.1 step b).
// Trees are treated as flat, named entry sets — spec.md §1 names a full
// diff engine as an external collaborator and a non-goal of this core;
// this package supplies only what driving the replicator requires: "what
// changed", not "how" (renames/moves are reported as a remove + an add).
package diff

import (
	"github.com/geovcs/geovcs/internal/model"
	"github.com/geovcs/geovcs/internal/objectstore"
)

// ChangeKind classifies one entry-level change between two trees.
type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
	Modified
)

// Change is one named entry that differs between an old and a new tree.
type Change struct {
	Name string
	Kind ChangeKind
	// Old is the entry as it existed in the old tree; zero value (with
	// Name carried separately) when Kind is Added.
	Old model.TreeEntry
	// New is the entry as it exists in the new tree; zero value when
	// Kind is Removed.
	New model.TreeEntry
}

// Trees returns the set-difference between oldTree and newTree's
// top-level entries, keyed by name.
func Trees(oldTree, newTree model.Tree) []Change {
	oldByName := make(map[string]model.TreeEntry, len(oldTree.Entries))
	for _, e := range oldTree.Entries {
		oldByName[e.Name] = e
	}
	newByName := make(map[string]model.TreeEntry, len(newTree.Entries))
	for _, e := range newTree.Entries {
		newByName[e.Name] = e
	}

	var changes []Change
	for name, oldEntry := range oldByName {
		newEntry, ok := newByName[name]
		if !ok {
			changes = append(changes, Change{Name: name, Kind: Removed, Old: oldEntry})
			continue
		}
		if newEntry.ObjectID != oldEntry.ObjectID {
			changes = append(changes, Change{Name: name, Kind: Modified, Old: oldEntry, New: newEntry})
		}
	}
	for name, newEntry := range newByName {
		if _, ok := oldByName[name]; !ok {
			changes = append(changes, Change{Name: name, Kind: Added, New: newEntry})
		}
	}
	return changes
}

// Commit diffs a commit's tree against its mainline parent's tree (or
// the empty tree, for a root commit), both read from store.
func Commit(store objectstore.Store, c model.Commit) ([]Change, error) {
	parentTreeID := model.EmptyTreeID
	if len(c.Parents) > 0 {
		parent, err := objectstore.GetCommit(store, c.Parents[0])
		if err != nil {
			return nil, err
		}
		parentTreeID = parent.TreeID
	}
	oldTree, err := objectstore.GetTree(store, parentTreeID)
	if err != nil {
		return nil, err
	}
	newTree, err := objectstore.GetTree(store, c.TreeID)
	if err != nil {
		return nil, err
	}
	return Trees(oldTree, newTree), nil
}

// Apply returns a new entry set produced by applying changes on top of
// base's entries: additions and modifications upsert, removals delete.
func Apply(base model.Tree, changes []Change) []model.TreeEntry {
	byName := make(map[string]model.TreeEntry, len(base.Entries))
	var order []string
	for _, e := range base.Entries {
		byName[e.Name] = e
		order = append(order, e.Name)
	}
	for _, c := range changes {
		switch c.Kind {
		case Removed:
			delete(byName, c.Name)
		case Added, Modified:
			if _, existed := byName[c.Name]; !existed {
				order = append(order, c.Name)
			}
			byName[c.Name] = c.New
		}
	}
	out := make([]model.TreeEntry, 0, len(byName))
	seen := make(map[string]bool, len(byName))
	for _, name := range order {
		if e, ok := byName[name]; ok && !seen[name] {
			out = append(out, e)
			seen[name] = true
		}
	}
	return out
}
