package weave_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weavedoc/weave/content"
	"github.com/weavedoc/weave/diffengine"
	"github.com/weavedoc/weave/id"
	"github.com/weavedoc/weave/weave"
)

func newSnippetNode(b []byte) *weave.Node {
	return weave.NewNode(id.New(), content.NewSnippet(b, nil, nil))
}

// S1: adding a chain of root/child nodes then removing the root cascades
// to the child, since it is now parentless.
func TestAddRemoveRootChain(t *testing.T) {
	w := weave.New()
	root := newSnippetNode([]byte("hello "))
	rootID, ok := w.AddNode(root, nil, false)
	require.True(t, ok)

	child := newSnippetNode([]byte("world"))
	child.Parents.Add(rootID)
	childID, ok := w.AddNode(child, nil, false)
	require.True(t, ok)

	roots := w.GetRootNodes()
	require.Len(t, roots, 1)
	assert.Equal(t, rootID, roots[0].Node.ID)

	_, removed := w.RemoveNode(rootID)
	assert.True(t, removed)

	_, _, ok = w.GetNode(childID)
	assert.False(t, ok, "child should cascade-remove once its only parent is gone")
}

// S2: activating a sibling deactivates the previously active one among
// the same parent's children (exclusivity within a parent).
func TestActivationExclusivity(t *testing.T) {
	w := weave.New()
	root := newSnippetNode([]byte("root"))
	rootID, _ := w.AddNode(root, nil, false)

	a := newSnippetNode([]byte("branch a"))
	a.Parents.Add(rootID)
	a.Active = true
	aID, ok := w.AddNode(a, nil, false)
	require.True(t, ok)

	b := newSnippetNode([]byte("branch b"))
	b.Parents.Add(rootID)
	bID, ok := w.AddNode(b, nil, false)
	require.True(t, ok)

	w.UpdateNodeActivity(bID, true, true)

	na, _, _ := w.GetNode(aID)
	nb, _, _ := w.GetNode(bID)
	assert.False(t, na.Active, "activating b should deactivate sibling a")
	assert.True(t, nb.Active)
}

func TestDeduplicationReturnsExistingSibling(t *testing.T) {
	w := weave.New()
	root := newSnippetNode([]byte("root"))
	rootID, _ := w.AddNode(root, nil, false)

	first := newSnippetNode([]byte("same"))
	first.Parents.Add(rootID)
	firstID, ok := w.AddNode(first, nil, true)
	require.True(t, ok)

	second := newSnippetNode([]byte("same"))
	second.Parents.Add(rootID)
	secondID, ok := w.AddNode(second, nil, true)
	require.True(t, ok)

	assert.Equal(t, firstID, secondID, "structurally identical sibling content should be deduplicated")
}

func TestMultiparentAndNonconcatableModesAreMutuallyExclusive(t *testing.T) {
	w := weave.New()
	a := newSnippetNode([]byte("a"))
	aID, _ := w.AddNode(a, nil, false)
	b := newSnippetNode([]byte("b"))
	bID, _ := w.AddNode(b, nil, false)

	multi := newSnippetNode([]byte("multi"))
	multi.Parents.Add(aID)
	multi.Parents.Add(bID)
	_, ok := w.AddNode(multi, nil, false)
	require.True(t, ok)
	assert.True(t, w.IsMultiparentMode())

	script := diffengine.Diff{Modifications: []diffengine.Modification{{Index: 0, Content: diffengine.Deletion(1)}}}
	diffNode := weave.NewNode(id.New(), content.NewDiff(script, nil, nil))
	_, ok = w.AddNode(diffNode, nil, false)
	assert.False(t, ok, "non-concatable content cannot be added once multiparent mode is active")
}

func TestSplitNodeThenMergeRoundTrips(t *testing.T) {
	w := weave.New()
	n := newSnippetNode([]byte("hello world"))
	nID, _ := w.AddNode(n, nil, false)

	leftID, rightID, ok := w.SplitNode(nID, 6)
	require.True(t, ok)
	assert.Equal(t, nID, rightID)

	mergedID, ok := w.MergeNodes(leftID, rightID)
	require.True(t, ok)
	assert.Equal(t, rightID, mergedID)

	merged, _, ok := w.GetNode(mergedID)
	require.True(t, ok)
	snip, isSnippet := merged.Content.(content.Snippet)
	require.True(t, isSnippet)
	assert.Equal(t, "hello world", string(snip.Bytes))
}
