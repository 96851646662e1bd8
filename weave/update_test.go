package weave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weavedoc/weave/content"
	"github.com/weavedoc/weave/id"
	"github.com/weavedoc/weave/weave"
)

// S3: appending text at the end of the rendered timeline (a tail
// insertion) should, by default, create a new child Snippet node rather
// than mutate the existing one.
func TestUpdateTailInsertionCreatesChildNode(t *testing.T) {
	w := weave.New()
	root := weave.NewNode(id.New(), content.NewSnippet([]byte("hello"), nil, nil))
	root.Active = true
	w.AddNode(root, nil, false)

	w.Update(0, []byte("hello world"), time.Time{}, false, false)

	timelines := w.GetActiveTimelines()
	require.Len(t, timelines, 1)
	assert.Equal(t, "hello world", string(timelines[0].Bytes()))
	assert.Len(t, timelines[0].Entries, 2, "tail insertion should append a sibling node, not mutate the root")
}

// mergeTailNodes=true folds a tail insertion into the trailing
// non-generated node instead of creating a new one.
func TestUpdateTailInsertionMergesWhenRequested(t *testing.T) {
	w := weave.New()
	root := weave.NewNode(id.New(), content.NewSnippet([]byte("hello"), nil, nil))
	root.Active = true
	w.AddNode(root, nil, false)

	w.Update(0, []byte("hello world"), time.Time{}, false, true)

	timelines := w.GetActiveTimelines()
	require.Len(t, timelines, 1)
	assert.Equal(t, "hello world", string(timelines[0].Bytes()))
	assert.Len(t, timelines[0].Entries, 1, "merge_tail_nodes should fold the insertion into the existing node")
}

// S4: addDiffNode=true (nonconcatable mode forces this regardless) wraps
// any edit as a Diff-content node layered on top of the timeline.
func TestUpdateWithDiffNodeWrapsEditAsScript(t *testing.T) {
	w := weave.New()
	root := weave.NewNode(id.New(), content.NewSnippet([]byte("hello world"), nil, nil))
	root.Active = true
	w.AddNode(root, nil, false)

	w.Update(0, []byte("hello brave world"), time.Time{}, true, false)

	timelines := w.GetActiveTimelines()
	require.Len(t, timelines, 1)
	assert.Equal(t, "hello brave world", string(timelines[0].Bytes()))

	last := timelines[0].Entries[len(timelines[0].Entries)-1]
	_, isDiff := last.Node.Content.(content.Diff)
	assert.True(t, isDiff, "addDiffNode should append a Diff-content node")
}

func TestUpdateOutOfRangeTimelineInsertsAgainstEmptyBase(t *testing.T) {
	w := weave.New()
	w.Update(5, []byte("fresh"), time.Time{}, false, false)

	timelines := w.GetActiveTimelines()
	require.Len(t, timelines, 1)
	assert.Equal(t, "fresh", string(timelines[0].Bytes()))
}

func TestInsertAtRangeOutOfBoundsAddsDetachedNode(t *testing.T) {
	w := weave.New()
	n := weave.NewNode(id.New(), content.NewSnippet([]byte("payload"), nil, nil))
	nodeID, ok := w.InsertAtRange(3, 0, 0, n, nil, false)
	require.True(t, ok)

	got, _, ok := w.GetNode(nodeID)
	require.True(t, ok)
	assert.Equal(t, 0, got.Parents.Len())
}
