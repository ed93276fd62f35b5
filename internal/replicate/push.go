package replicate

import (
	"errors"
	"fmt"

	"github.com/geovcs/geovcs/internal/graph"
	"github.com/geovcs/geovcs/internal/objectstore"
	"github.com/geovcs/geovcs/internal/objhash"
	"github.com/geovcs/geovcs/internal/remote"
)

// PushResult reports what a Push call accomplished.
type PushResult struct {
	Status PushStatus
	Pushed int
}

// Push transmits localRef's history, down to (but excluding) whatever
// the remote already has, to the remote under remoteRefspec, per
// spec.md §4.3.2. Push never rewrites commits: the remote receives
// exactly the objects the local repository holds.
func (r *SparseReplicator) Push(localRef, remoteRefspec string) (PushResult, error) {
	localID, ok, err := r.LocalRefs.GetRef(localRef)
	if err != nil {
		return PushResult{}, err
	}
	if !ok {
		return PushResult{}, fmt.Errorf("replicate: local ref %q does not resolve", localRef)
	}

	status, err := r.checkPush(localID, remoteRefspec)
	if err != nil {
		return PushResult{}, err
	}
	if status != PushOK {
		return PushResult{Status: status}, &PushError{Status: status}
	}

	evaluator := func(id objhash.ObjectId) (graph.Outcome, error) {
		present, err := remoteHasObject(r.Remote, id)
		if err != nil {
			return 0, err
		}
		if present {
			return graph.ExcludeAndPrune, nil
		}
		return graph.IncludeAndContinue, nil
	}
	t := graph.New(evaluator, r.LocalGraph.GetParents)
	stack, err := t.Walk(localID)
	if err != nil {
		return PushResult{}, fmt.Errorf("replicate: push walk: %w", err)
	}

	src := remote.PushSource{Objects: r.LocalObjects, Graph: r.LocalGraph}
	result := PushResult{Status: PushOK}
	for {
		id, ok := stack.Pop()
		if !ok {
			break
		}
		if err := r.Remote.PushSparseCommit(src, id); err != nil {
			return PushResult{}, fmt.Errorf("replicate: push %s: %w", id, err)
		}
		result.Pushed++
	}

	if err := r.Remote.UpdateRemoteRef(remoteRefspec, localID, false); err != nil {
		return PushResult{}, fmt.Errorf("replicate: update remote ref %q: %w", remoteRefspec, err)
	}
	return result, nil
}

// checkPush classifies the push before any object is transmitted:
// NOTHING_TO_PUSH when the remote ref already names localID exactly,
// REMOTE_HAS_CHANGES when the remote ref names a commit that isn't an
// ancestor of localID (the remote has diverged or moved ahead), and OK
// otherwise (first push of this ref, or a fast-forward).
func (r *SparseReplicator) checkPush(localID objhash.ObjectId, remoteRefspec string) (PushStatus, error) {
	remoteRef, exists, err := r.Remote.GetRemoteRef(remoteRefspec)
	if err != nil {
		return 0, err
	}
	if !exists {
		return PushOK, nil
	}
	if remoteRef.ObjectID == localID {
		return PushNothingToPush, nil
	}
	ancestor, err := isAncestor(r.LocalGraph, localID, remoteRef.ObjectID)
	if err != nil {
		return 0, err
	}
	if !ancestor {
		return PushRemoteHasChanges, nil
	}
	return PushOK, nil
}

// isAncestor reports whether candidate appears in descendant's ancestry,
// per the local graph database's recorded parent links.
func isAncestor(g interface {
	GetParents(id objhash.ObjectId) ([]objhash.ObjectId, error)
}, descendant, candidate objhash.ObjectId) (bool, error) {
	visited := make(map[objhash.ObjectId]bool)
	frontier := []objhash.ObjectId{descendant}
	for len(frontier) > 0 {
		id := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		if id == candidate {
			return true, nil
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		parents, err := g.GetParents(id)
		if err != nil {
			return false, err
		}
		frontier = append(frontier, parents...)
	}
	return false, nil
}

// remoteHasObject probes the remote for id's presence, distinguishing
// objectstore.ErrNotFound from a genuine transport failure.
func remoteHasObject(w remote.Wrapper, id objhash.ObjectId) (bool, error) {
	_, err := w.GetObject(id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, objectstore.ErrNotFound) {
		return false, nil
	}
	return false, err
}
