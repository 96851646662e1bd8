// Package annotation implements the byte-range annotation algebra of
// component B: ContentAnnotation and TimelineAnnotation both describe a
// half-open byte range plus some attached metadata, and both support
// splitting a range at a relative offset the same way. Annotation vectors
// are kept sorted, contiguous, and non-overlapping by construction; the
// diff engine (component C) is the only thing that mutates them in bulk.
package annotation

import (
	"fmt"

	"github.com/weavedoc/weave/id"
	"github.com/weavedoc/weave/payload"
)

// Range is a half-open byte range [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes the range covers.
func (r Range) Len() int {
	return r.End - r.Start
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// Annotation is implemented by every annotation type. T is the concrete
// annotation type itself, following the curiously-recurring generic
// pattern so WithRange can return the same concrete type without losing
// its attached fields — the equivalent of Rust's `Annotation` trait with
// `Self: Sized`.
type Annotation[T any] interface {
	Range() Range
	WithRange(Range) T
}

// Split divides an annotation at relative offset i inside its current
// span, producing two annotations that both retain a copy of the
// original's scalar fields. Returns ok=false if i is 0 (nothing to the
// left) or if the offset reaches or exceeds the span's end (nothing to
// the right) — matching every Annotation impl in the original source.
func Split[T Annotation[T]](a T, i int) (left, right T, ok bool) {
	r := a.Range()
	if i == 0 || r.Start+i >= r.End {
		var zero T
		return zero, zero, false
	}
	left = a.WithRange(Range{Start: r.Start, End: r.Start + i})
	right = a.WithRange(Range{Start: r.Start + i, End: r.End})
	return left, right, true
}

// ContentAnnotation describes one byte range within a single node's own
// content (e.g. one token's span within a TokenContent), with optional
// metadata carried from that content.
type ContentAnnotation struct {
	Span     Range
	Metadata map[string]string
}

// Range implements Annotation.
func (a ContentAnnotation) Range() Range { return a.Span }

// WithRange implements Annotation.
func (a ContentAnnotation) WithRange(r Range) ContentAnnotation {
	a.Span = r
	return a
}

// ContentAnnotationFromRange builds a fresh, metadata-less ContentAnnotation spanning r —
// used by the diff engine to construct the annotation for newly inserted
// content.
func ContentAnnotationFromRange(r Range) ContentAnnotation {
	return ContentAnnotation{Span: r}
}

// TimelineAnnotation describes one byte range within a flattened
// timeline's rendered string, carrying enough scalar/owned information to
// trace the range back to its originating node, model, and content
// metadata without holding a live reference into the Weave (Go has no
// borrow checker — see the design note in SPEC_FULL.md).
type TimelineAnnotation struct {
	Span               Range
	NodeID             id.Id
	HasNode            bool
	ModelID            id.Id
	HasModel           bool
	Parameters         []payload.Param
	SubsectionMetadata map[string]string
	ContentMetadata    map[string]string
}

// Range implements Annotation.
func (a TimelineAnnotation) Range() Range { return a.Span }

// WithRange implements Annotation.
func (a TimelineAnnotation) WithRange(r Range) TimelineAnnotation {
	a.Span = r
	return a
}

// TimelineAnnotationFromRange builds a fresh TimelineAnnotation spanning r with no node,
// model, or metadata attached — used by the diff engine as the initial
// shape of a newly inserted span before the caller populates node/model
// information from the diff node that produced it.
func TimelineAnnotationFromRange(r Range) TimelineAnnotation {
	return TimelineAnnotation{Span: r}
}

// WithNode returns a copy with the node reference set.
func (a TimelineAnnotation) WithNode(nodeID id.Id) TimelineAnnotation {
	a.NodeID = nodeID
	a.HasNode = true
	return a
}

// WithModel returns a copy with the model reference set.
func (a TimelineAnnotation) WithModel(modelID id.Id) TimelineAnnotation {
	a.ModelID = modelID
	a.HasModel = true
	return a
}
