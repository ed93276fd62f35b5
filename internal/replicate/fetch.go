package replicate

import (
	"fmt"

	"github.com/geovcs/geovcs/internal/diff"
	"github.com/geovcs/geovcs/internal/graph"
	"github.com/geovcs/geovcs/internal/graphdb"
	"github.com/geovcs/geovcs/internal/model"
	"github.com/geovcs/geovcs/internal/objectstore"
	"github.com/geovcs/geovcs/internal/objhash"
	"github.com/geovcs/geovcs/internal/remote"
)

// FetchResult reports what a Fetch call accomplished.
type FetchResult struct {
	// Tip is the local (projected) commit the fetched ref now maps to.
	Tip objhash.ObjectId
	// Fetched counts the remote commits that were newly recorded.
	Fetched int
}

// Fetch walks tip's ancestry on the remote, stopping at any commit
// already recorded in the local graph database, and for every new
// commit (oldest first) projects its filtered diff into a local commit,
// maintaining the original<->projected mapping as it goes. depth is
// accepted only as nil: shallow fetch is out of scope (spec.md §4.3.1,
// "A sparse clone's fetch never truncates history").
func (r *SparseReplicator) Fetch(tip objhash.ObjectId, depth *int) (FetchResult, error) {
	if depth != nil {
		return FetchResult{}, ErrSparseShallow
	}
	if tip.IsNull() {
		return FetchResult{}, nil
	}

	evaluator := func(id objhash.ObjectId) (graph.Outcome, error) {
		exists, err := r.LocalGraph.Exists(id)
		if err != nil {
			return 0, err
		}
		if exists {
			return graph.ExcludeAndPrune, nil
		}
		return graph.IncludeAndContinue, nil
	}
	t := graph.New(evaluator, r.Remote.GetParents)
	stack, err := t.Walk(tip)
	if err != nil {
		return FetchResult{}, fmt.Errorf("replicate: fetch walk: %w", err)
	}

	result := FetchResult{}
	for {
		id, ok := stack.Pop()
		if !ok {
			break
		}
		if err := r.fetchOne(id, id == tip, stack.Empty()); err != nil {
			return FetchResult{}, fmt.Errorf("replicate: fetch %s: %w", id, err)
		}
		result.Fetched++
	}

	projected, err := resolveProjection(r.LocalGraph, tip)
	if err != nil {
		return FetchResult{}, err
	}
	result.Tip = projected
	return result, nil
}

// fetchOne projects a single remote commit into the local repository,
// per spec.md §4.3.1 steps a-f. isTip is true for the commit the fetch
// was requested against; noneLeft is true when this was the last commit
// popped from the traversal stack (both identify the same commit in
// practice, since the tip is always popped last, but isTip is the
// semantically correct check and noneLeft is retained only as a cheap
// sanity signal for callers that want it).
func (r *SparseReplicator) fetchOne(id objhash.ObjectId, isTip, noneLeft bool) error {
	obj, err := r.Remote.GetObject(id)
	if err != nil {
		return err
	}
	commit, err := model.DecodeCommit(id, obj.Data)
	if err != nil {
		return err
	}

	if err := r.LocalGraph.Put(id, commit.Parents); err != nil {
		return err
	}

	baseTreeID := model.EmptyTreeID
	var projectedParents []objhash.ObjectId
	if len(commit.Parents) > 0 {
		basis, err := resolveProjection(r.LocalGraph, commit.Parents[0])
		if err != nil {
			return err
		}
		if basis.IsNull() {
			return fmt.Errorf("%w: commit %s's parent %s has no projection", ErrMissingMapping, id, commit.Parents[0])
		}
		baseCommit, err := objectstore.GetCommit(r.LocalObjects, basis)
		if err != nil {
			return err
		}
		baseTreeID = baseCommit.TreeID
		for _, p := range commit.Parents {
			mapped, err := resolveProjection(r.LocalGraph, p)
			if err != nil {
				return err
			}
			if !mapped.IsNull() {
				projectedParents = append(projectedParents, mapped)
			}
		}
	}

	changes, err := r.Remote.GetFilteredChanges(commit)
	if err != nil {
		return err
	}

	switch {
	case len(changes.Changes) > 0:
		return r.projectCommit(id, commit, baseTreeID, projectedParents, changes)
	case isTip && r.AllowEmpty:
		return r.placeholderCommit(id, commit, baseTreeID, projectedParents)
	default:
		basis, err := resolveProjection(r.LocalGraph, id)
		if err != nil {
			return err
		}
		if basis.IsNull() {
			// No parent to inherit a projection from and nothing to
			// project: leave id entirely unmapped. A later commit built
			// on top of it will walk past it via resolveProjection.
			return nil
		}
		return r.LocalGraph.SetProperty(basis, graphdb.PropertySparse, "true")
	}
}

func (r *SparseReplicator) projectCommit(original objhash.ObjectId, commit model.Commit, baseTreeID objhash.ObjectId, parents []objhash.ObjectId, changes remote.FilteredChanges) error {
	baseTree, err := objectstore.GetTree(r.LocalObjects, baseTreeID)
	if err != nil {
		return err
	}
	for _, c := range changes.Changes {
		if c.Kind == diff.Removed {
			continue
		}
		if err := r.copyFromRemote(c.New.ObjectID); err != nil {
			return err
		}
		if !c.New.MetadataID.IsNull() {
			if err := r.copyFromRemote(c.New.MetadataID); err != nil {
				return err
			}
		}
	}
	newTree := model.Tree{Entries: diff.Apply(baseTree, changes.Changes)}
	storedTree, err := objectstore.PutTree(r.LocalObjects, newTree)
	if err != nil {
		return err
	}
	projected := model.Commit{
		Parents:   parents,
		TreeID:    storedTree.ID,
		Author:    commit.Author,
		Committer: commit.Committer,
		Message:   commit.Message,
	}
	stored, err := objectstore.PutCommit(r.LocalObjects, projected)
	if err != nil {
		return err
	}
	if changes.Filtered {
		if err := r.LocalGraph.SetProperty(stored.ID, graphdb.PropertySparse, "true"); err != nil {
			return err
		}
	}
	return r.LocalGraph.Map(original, stored.ID)
}

func (r *SparseReplicator) placeholderCommit(original objhash.ObjectId, commit model.Commit, baseTreeID objhash.ObjectId, parents []objhash.ObjectId) error {
	placeholder := model.Commit{
		Parents:   parents,
		TreeID:    baseTreeID,
		Author:    commit.Author,
		Committer: commit.Committer,
		Message:   PlaceholderMessage,
	}
	stored, err := objectstore.PutCommit(r.LocalObjects, placeholder)
	if err != nil {
		return err
	}
	if err := r.LocalGraph.SetProperty(stored.ID, graphdb.PropertySparse, "true"); err != nil {
		return err
	}
	return r.LocalGraph.Map(original, stored.ID)
}

// copyFromRemote transfers a single object (feature, feature type, or
// shallow subtree) from the remote to the local object store, if it
// isn't already present locally.
func (r *SparseReplicator) copyFromRemote(id objhash.ObjectId) error {
	if id == model.EmptyTreeID || id.IsNull() {
		return nil
	}
	exists, err := r.LocalObjects.Exists(id)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	obj, err := r.Remote.GetObject(id)
	if err != nil {
		return err
	}
	return r.LocalObjects.Put(obj)
}
