package annotation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/weavedoc/weave/annotation"
	"github.com/weavedoc/weave/id"
)

func mustFakeID(t *testing.T) id.Id {
	t.Helper()
	return id.New()
}

func TestContentAnnotationSplit(t *testing.T) {
	base := annotation.ContentAnnotation{
		Span:     annotation.Range{Start: 2, End: 8},
		Metadata: map[string]string{"p": "0.5"},
	}

	t.Run("splits at a relative offset, duplicating metadata", func(t *testing.T) {
		left, right, ok := annotation.Split[annotation.ContentAnnotation](base, 3)
		assert.True(t, ok)
		assert.Equal(t, annotation.Range{Start: 2, End: 5}, left.Span)
		assert.Equal(t, annotation.Range{Start: 5, End: 8}, right.Span)
		assert.Equal(t, base.Metadata, left.Metadata)
		assert.Equal(t, base.Metadata, right.Metadata)
	})

	t.Run("refuses to split at offset zero", func(t *testing.T) {
		_, _, ok := annotation.Split[annotation.ContentAnnotation](base, 0)
		assert.False(t, ok)
	})

	t.Run("refuses to split at or beyond the span's end", func(t *testing.T) {
		_, _, ok := annotation.Split[annotation.ContentAnnotation](base, 6)
		assert.False(t, ok)
		_, _, ok = annotation.Split[annotation.ContentAnnotation](base, 7)
		assert.False(t, ok)
	})
}

func TestTimelineAnnotationSplit(t *testing.T) {
	nodeID := mustFakeID(t)
	base := annotation.TimelineAnnotation{
		Span:    annotation.Range{Start: 0, End: 10},
		NodeID:  nodeID,
		HasNode: true,
	}

	left, right, ok := annotation.Split[annotation.TimelineAnnotation](base, 4)
	assert.True(t, ok)
	assert.Equal(t, annotation.Range{Start: 0, End: 4}, left.Span)
	assert.Equal(t, annotation.Range{Start: 4, End: 10}, right.Span)
	assert.True(t, left.HasNode)
	assert.True(t, right.HasNode)
	assert.Equal(t, nodeID, left.NodeID)
	assert.Equal(t, nodeID, right.NodeID)
}

func TestTimelineAnnotationWithHelpers(t *testing.T) {
	nodeID := mustFakeID(t)
	modelID := mustFakeID(t)
	a := annotation.TimelineAnnotationFromRange(annotation.Range{Start: 0, End: 3})
	assert.False(t, a.HasNode)
	a = a.WithNode(nodeID).WithModel(modelID)
	assert.True(t, a.HasNode)
	assert.True(t, a.HasModel)
	assert.Equal(t, nodeID, a.NodeID)
	assert.Equal(t, modelID, a.ModelID)
}

func TestRangeLen(t *testing.T) {
	r := annotation.Range{Start: 3, End: 9}
	assert.Equal(t, 6, r.Len())
}
