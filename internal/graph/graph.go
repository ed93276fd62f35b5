// Package graph implements the reverse-topological commit walker
// (spec.md §4.2) shared by both replication directions: a depth-first
// traversal over the commit parent DAG, driven by a caller-supplied
// evaluator and parents oracle, producing commits in an order whose pop
// sequence is ancestors-before-descendants.
package graph

import (
	"github.com/geovcs/geovcs/internal/objhash"
)

// Outcome is the evaluator's verdict for one commit.
type Outcome int

const (
	// IncludeAndContinue appends the commit to the output and descends
	// into its parents.
	IncludeAndContinue Outcome = iota
	// ExcludeAndPrune skips the commit and does not descend into its
	// parents.
	ExcludeAndPrune
	// ExcludeAndContinue skips the commit but still descends into its
	// parents.
	ExcludeAndContinue
	// IncludeAndPrune appends the commit to the output but does not
	// descend into its parents.
	IncludeAndPrune
)

// Evaluator classifies one commit during the walk.
type Evaluator func(id objhash.ObjectId) (Outcome, error)

// ParentsFunc returns a commit's parents in declared order. A commit id
// unknown to the oracle is treated as a root (return nil, nil), not an
// error.
type ParentsFunc func(id objhash.ObjectId) ([]objhash.ObjectId, error)

// Traverser walks a commit DAG depth-first from a start node, starting
// ancestor chains matching the Evaluator's verdict at each step.
//
// A Traverser is not safe for concurrent use: run one per traversal, per
// spec.md §5 ("callers must not share ... a GraphTraverser across
// threads").
type Traverser struct {
	Evaluator Evaluator
	Parents   ParentsFunc
}

// New builds a Traverser from an evaluator and a parents oracle.
func New(evaluator Evaluator, parents ParentsFunc) *Traverser {
	return &Traverser{Evaluator: evaluator, Parents: parents}
}

// Walk runs the traversal from start and returns the result as a Stack:
// callers Pop() commits off it in ancestor-first order, so that by the
// time a commit is popped every one of its unpruned ancestors has
// already been popped (and, in replication, already written to the
// destination).
//
// Walk(Null) returns an empty Stack: the start-equal-to-Null edge case.
func (t *Traverser) Walk(start objhash.ObjectId) (*Stack, error) {
	if start.IsNull() {
		return &Stack{}, nil
	}

	visited := make(map[objhash.ObjectId]bool)
	// pending holds included commits whose parents are still being
	// walked; each is appended when it comes off the frontier again.
	pending := make(map[objhash.ObjectId]bool)
	var output []objhash.ObjectId
	frontier := []objhash.ObjectId{start}

	for len(frontier) > 0 {
		n := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		if visited[n] {
			if pending[n] {
				delete(pending, n)
				output = append(output, n)
			}
			continue
		}
		visited[n] = true

		outcome, err := t.Evaluator(n)
		if err != nil {
			return nil, err
		}

		descend := false
		switch outcome {
		case IncludeAndContinue:
			pending[n] = true
			frontier = append(frontier, n)
			descend = true
		case ExcludeAndPrune:
			// Neither appended nor descended.
		case ExcludeAndContinue:
			descend = true
		case IncludeAndPrune:
			output = append(output, n)
		}
		if descend {
			parents, err := t.Parents(n)
			if err != nil {
				return nil, err
			}
			frontier = append(frontier, parents...)
		}
	}

	// output lists ancestors first; Stack pops from the end.
	for i, j := 0, len(output)-1; i < j; i, j = i+1, j-1 {
		output[i], output[j] = output[j], output[i]
	}
	return &Stack{ids: output}, nil
}

// Stack is the walker's output: a LIFO sequence whose Pop order is
// ancestors-before-descendants.
type Stack struct {
	ids []objhash.ObjectId
}

// Pop removes and returns the next commit in ancestor-first order, or
// (Null, false) once the stack is empty.
func (s *Stack) Pop() (objhash.ObjectId, bool) {
	if len(s.ids) == 0 {
		return objhash.Null, false
	}
	id := s.ids[len(s.ids)-1]
	s.ids = s.ids[:len(s.ids)-1]
	return id, true
}

// Len reports how many commits remain.
func (s *Stack) Len() int {
	return len(s.ids)
}

// Empty reports whether the stack has been fully popped.
func (s *Stack) Empty() bool {
	return len(s.ids) == 0
}

// Peek returns the next commit Pop would return without removing it.
func (s *Stack) Peek() (objhash.ObjectId, bool) {
	if len(s.ids) == 0 {
		return objhash.Null, false
	}
	return s.ids[len(s.ids)-1], true
}
