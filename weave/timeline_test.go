package weave_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weavedoc/weave/content"
	"github.com/weavedoc/weave/id"
	"github.com/weavedoc/weave/weave"
)

func TestActiveTimelineRendersBytesInOrder(t *testing.T) {
	w := weave.New()
	root := weave.NewNode(id.New(), content.NewSnippet([]byte("hello "), nil, nil))
	root.Active = true
	rootID, _ := w.AddNode(root, nil, false)

	child := weave.NewNode(id.New(), content.NewSnippet([]byte("world"), nil, nil))
	child.Active = true
	child.Parents.Add(rootID)
	w.AddNode(child, nil, false)

	timelines := w.GetActiveTimelines()
	require.Len(t, timelines, 1)
	assert.Equal(t, "hello world", string(timelines[0].Bytes()))
}

func TestActiveTimelineEnumeratesBothBranches(t *testing.T) {
	w := weave.New()
	root := weave.NewNode(id.New(), content.NewSnippet([]byte("root"), nil, nil))
	root.Active = true
	rootID, _ := w.AddNode(root, nil, false)

	a := weave.NewNode(id.New(), content.NewSnippet([]byte("a"), nil, nil))
	a.Active = true
	a.Parents.Add(rootID)
	aID, _ := w.AddNode(a, nil, false)

	b := weave.NewNode(id.New(), content.NewSnippet([]byte("b"), nil, nil))
	b.Active = true
	b.Parents.Add(rootID)
	bID, _ := w.AddNode(b, nil, false)

	// force multiparent mode off path: both a and b are independent
	// children of root, each its own single-parent branch.
	_ = aID
	_ = bID

	timelines := w.GetActiveTimelines()
	assert.Len(t, timelines, 2)
}

func TestAnnotatedStringTracksNodeRanges(t *testing.T) {
	w := weave.New()
	root := weave.NewNode(id.New(), content.NewSnippet([]byte("foo"), nil, nil))
	root.Active = true
	rootID, _ := w.AddNode(root, nil, false)

	child := weave.NewNode(id.New(), content.NewSnippet([]byte("bar"), nil, nil))
	child.Active = true
	child.Parents.Add(rootID)
	childID, _ := w.AddNode(child, nil, false)

	timelines := w.GetActiveTimelines()
	require.Len(t, timelines, 1)
	str, anns := timelines[0].AnnotatedString()
	assert.Equal(t, "foobar", str)
	require.Len(t, anns, 2)
	assert.Equal(t, rootID, anns[0].NodeID)
	assert.Equal(t, childID, anns[1].NodeID)
	assert.Equal(t, 0, anns[0].Span.Start)
	assert.Equal(t, 3, anns[0].Span.End)
	assert.Equal(t, 3, anns[1].Span.Start)
	assert.Equal(t, 6, anns[1].Span.End)
}

func TestAnnotatedStringSubstitutesInvalidUTF8(t *testing.T) {
	w := weave.New()
	n := weave.NewNode(id.New(), content.NewSnippet([]byte{0xFF, 'a'}, nil, nil))
	n.Active = true
	w.AddNode(n, nil, false)

	timelines := w.GetActiveTimelines()
	require.Len(t, timelines, 1)
	str, _ := timelines[0].AnnotatedString()
	assert.Equal(t, "\u001Aa", str)
}

func TestSnapshotIsConsistentWithLiveWeave(t *testing.T) {
	w := weave.New()
	root := weave.NewNode(id.New(), content.NewSnippet([]byte("snap"), nil, nil))
	root.Active = true
	rootID, _ := w.AddNode(root, nil, false)

	snap := w.Snapshot()
	n, _, ok := snap.GetNode(rootID)
	require.True(t, ok)
	assert.Equal(t, "snap", string(n.Content.(content.Snippet).Bytes))
	assert.Len(t, snap.GetRootNodes(), 1)
	assert.Len(t, snap.GetActiveTimelines(), 1)
}
