package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geovcs/geovcs/internal/objhash"
)

func id(s string) objhash.ObjectId { return objhash.Sum([]byte(s)) }

// linearChain builds a parents oracle for c3 -> c2 -> c1 -> (root).
func linearChain() (c1, c2, c3 objhash.ObjectId, parents ParentsFunc) {
	c1, c2, c3 = id("c1"), id("c2"), id("c3")
	table := map[objhash.ObjectId][]objhash.ObjectId{
		c3: {c2},
		c2: {c1},
		c1: nil,
	}
	return c1, c2, c3, func(n objhash.ObjectId) ([]objhash.ObjectId, error) {
		return table[n], nil
	}
}

func includeAll(objhash.ObjectId) (Outcome, error) { return IncludeAndContinue, nil }

func TestWalkNullStartIsEmpty(t *testing.T) {
	tr := New(includeAll, func(objhash.ObjectId) ([]objhash.ObjectId, error) { return nil, nil })
	stack, err := tr.Walk(objhash.Null)
	require.NoError(t, err)
	assert.True(t, stack.Empty())
}

func TestWalkAncestorFirstOrder(t *testing.T) {
	c1, c2, c3, parents := linearChain()
	tr := New(includeAll, parents)

	stack, err := tr.Walk(c3)
	require.NoError(t, err)

	var popped []objhash.ObjectId
	for {
		n, ok := stack.Pop()
		if !ok {
			break
		}
		popped = append(popped, n)
	}
	require.Len(t, popped, 3)
	assert.Equal(t, []objhash.ObjectId{c1, c2, c3}, popped, "ancestors must pop before their descendants")
}

func TestWalkExcludeAndPruneStopsDescent(t *testing.T) {
	c1, c2, c3, parents := linearChain()
	evaluator := func(n objhash.ObjectId) (Outcome, error) {
		if n == c2 {
			return ExcludeAndPrune, nil
		}
		return IncludeAndContinue, nil
	}
	tr := New(evaluator, parents)
	stack, err := tr.Walk(c3)
	require.NoError(t, err)

	var popped []objhash.ObjectId
	for {
		n, ok := stack.Pop()
		if !ok {
			break
		}
		popped = append(popped, n)
	}
	assert.NotContains(t, popped, c2)
	assert.NotContains(t, popped, c1, "pruning at c2 must stop the walk from reaching c1")
	assert.Contains(t, popped, c3)
}

func TestWalkExcludeAndContinueSkipsButDescends(t *testing.T) {
	c1, c2, c3, parents := linearChain()
	evaluator := func(n objhash.ObjectId) (Outcome, error) {
		if n == c2 {
			return ExcludeAndContinue, nil
		}
		return IncludeAndContinue, nil
	}
	tr := New(evaluator, parents)
	stack, err := tr.Walk(c3)
	require.NoError(t, err)

	var popped []objhash.ObjectId
	for {
		n, ok := stack.Pop()
		if !ok {
			break
		}
		popped = append(popped, n)
	}
	assert.NotContains(t, popped, c2)
	assert.Contains(t, popped, c1, "excluding c2 must still let its parent c1 be reached")
	assert.Contains(t, popped, c3)
}

func TestWalkIncludeAndPruneStopsDescent(t *testing.T) {
	c1, c2, c3, parents := linearChain()
	evaluator := func(n objhash.ObjectId) (Outcome, error) {
		if n == c2 {
			return IncludeAndPrune, nil
		}
		return IncludeAndContinue, nil
	}
	tr := New(evaluator, parents)
	stack, err := tr.Walk(c3)
	require.NoError(t, err)

	var popped []objhash.ObjectId
	for {
		n, ok := stack.Pop()
		if !ok {
			break
		}
		popped = append(popped, n)
	}
	assert.Contains(t, popped, c2)
	assert.NotContains(t, popped, c1)
}

func TestWalkVisitsEachCommitOnce(t *testing.T) {
	// Diamond: d -> b,c ; b -> a ; c -> a.
	a, b, c, d := id("a"), id("b"), id("c"), id("d")
	visits := map[objhash.ObjectId]int{}
	parents := func(n objhash.ObjectId) ([]objhash.ObjectId, error) {
		switch n {
		case d:
			return []objhash.ObjectId{b, c}, nil
		case b, c:
			return []objhash.ObjectId{a}, nil
		default:
			return nil, nil
		}
	}
	evaluator := func(n objhash.ObjectId) (Outcome, error) {
		visits[n]++
		return IncludeAndContinue, nil
	}
	tr := New(evaluator, parents)
	_, err := tr.Walk(d)
	require.NoError(t, err)
	assert.Equal(t, 1, visits[a], "a must be evaluated exactly once despite two incoming paths")
}

func TestStackPeekDoesNotConsume(t *testing.T) {
	_, _, c3, parents := linearChain()
	tr := New(includeAll, parents)
	stack, err := tr.Walk(c3)
	require.NoError(t, err)

	first, ok := stack.Peek()
	require.True(t, ok)
	lenBefore := stack.Len()

	again, ok := stack.Peek()
	require.True(t, ok)
	assert.Equal(t, first, again)
	assert.Equal(t, lenBefore, stack.Len())

	popped, ok := stack.Pop()
	require.True(t, ok)
	assert.Equal(t, first, popped)
}
