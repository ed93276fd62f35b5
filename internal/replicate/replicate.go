// Package replicate implements SparseReplicator (spec.md §4.3): fetch
// and push between a local sparse clone and a full remote, rewriting
// commits through a RepositoryFilter and maintaining the original<->
// projected commit mapping in a graphdb.GraphDb.
package replicate

import (
	"errors"
	"fmt"
	"log"

	"github.com/geovcs/geovcs/internal/filter"
	"github.com/geovcs/geovcs/internal/graphdb"
	"github.com/geovcs/geovcs/internal/logging"
	"github.com/geovcs/geovcs/internal/objectstore"
	"github.com/geovcs/geovcs/internal/objhash"
	"github.com/geovcs/geovcs/internal/refdb"
	"github.com/geovcs/geovcs/internal/remote"
)

// PlaceholderMessage is the distinguished message a placeholder commit
// carries, per spec.md §4.3.1 step f.
const PlaceholderMessage = "Placeholder Sparse Commit"

// Precondition errors, returned by Fetch before any commit is written.
var (
	ErrSparseShallow  = errors.New("replicate: sparse clone cannot be shallow")
	ErrMissingMapping = errors.New("replicate: expected commit mapping is missing")
)

// PushStatus is a synchronization outcome of checkPush: a non-exceptional
// status, not a bug, per spec.md §7.
type PushStatus int

const (
	// PushOK means the push may proceed.
	PushOK PushStatus = iota
	// PushNothingToPush means the local ref is already reflected on the
	// remote; there is nothing to transfer.
	PushNothingToPush
	// PushRemoteHasChanges means the remote has diverged or advanced
	// past what a fast-forward push from local can reach.
	PushRemoteHasChanges
)

func (s PushStatus) String() string {
	switch s {
	case PushOK:
		return "ok"
	case PushNothingToPush:
		return "NOTHING_TO_PUSH"
	case PushRemoteHasChanges:
		return "REMOTE_HAS_CHANGES"
	default:
		return "unknown"
	}
}

// PushError wraps a non-OK PushStatus as an error, for callers that want
// checkPush's outcome as a Go error.
type PushError struct {
	Status PushStatus
}

func (e *PushError) Error() string {
	return fmt.Sprintf("replicate: push rejected: %s", e.Status)
}

// SparseReplicator orchestrates fetch and push between a local sparse
// repository and a remote wrapper. It holds no transaction state of its
// own: reftx.TxRefView is not used by replication, per spec.md §2.
type SparseReplicator struct {
	LocalRefs    refdb.RefDb
	LocalObjects objectstore.Store
	LocalGraph   graphdb.GraphDb
	Filter       *filter.RepositoryFilter
	Remote       remote.Wrapper

	// AllowEmpty controls whether a fetch whose tip has an empty
	// filtered diff still produces a placeholder commit, per spec.md
	// §4.3.1 step f.
	AllowEmpty bool

	log *log.Logger
}

// New builds a SparseReplicator. AllowEmpty defaults to true, matching
// the common case of fetching a ref whose tip's tree collapses entirely
// under the filter: a placeholder keeps the fetched ref resolvable.
func New(localRefs refdb.RefDb, localObjects objectstore.Store, localGraph graphdb.GraphDb, f *filter.RepositoryFilter, w remote.Wrapper) *SparseReplicator {
	if f == nil {
		f = filter.New(nil)
	}
	return &SparseReplicator{
		LocalRefs:    localRefs,
		LocalObjects: localObjects,
		LocalGraph:   localGraph,
		Filter:       f,
		Remote:       w,
		AllowEmpty:   true,
		log:          logging.New("replicate"),
	}
}

// resolveProjection returns the projected (local) commit id that
// original's nearest mapped ancestor (inclusive) has been assigned.
// When original itself is mapped, that mapping is returned directly.
// Otherwise — the spec.md §9 "non-tip empty diffs" case, where a commit
// contributes no new mapping of its own — it walks up the recorded
// parent chain until it finds one that is, since "the commit's
// projection is its mainline parent's projection." A commit with no
// parents and no mapping resolves to the empty tree's owner, Null.
func resolveProjection(g graphdb.GraphDb, id objhash.ObjectId) (objhash.ObjectId, error) {
	for cur := id; !cur.IsNull(); {
		mapped, err := g.GetMapping(cur)
		if err != nil {
			return objhash.Null, err
		}
		if !mapped.IsNull() {
			return mapped, nil
		}
		parents, err := g.GetParents(cur)
		if err != nil {
			return objhash.Null, err
		}
		if len(parents) == 0 {
			return objhash.Null, nil
		}
		cur = parents[0]
	}
	return objhash.Null, nil
}
