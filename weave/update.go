package weave

import (
	"time"

	"github.com/weavedoc/weave/annotation"
	"github.com/weavedoc/weave/content"
	"github.com/weavedoc/weave/diffengine"
	"github.com/weavedoc/weave/id"
)

// Update rewrites the Weave in response to new_text replacing the
// rendered contents of the timeline at timelineIndex, per spec §4.F. An
// out-of-range index degenerates to a single insertion at 0, against an
// empty synthesized timeline.
func (w *Weave) Update(timelineIndex int, newText []byte, deadline time.Time, addDiffNode, mergeTailNodes bool) {
	timelines := w.GetActiveTimelines()

	var before []byte
	var ranges []annotation.TimelineAnnotation
	if timelineIndex >= 0 && timelineIndex < len(timelines) {
		str, anns := timelines[timelineIndex].AnnotatedString()
		before = []byte(str)
		ranges = coalesceRanges(anns)
	}

	diff := diffengine.New(before, newText, deadline)

	if w.IsMultiparentMode() {
		addDiffNode = false
	}
	if w.IsNonconcatableMode() {
		addDiffNode = true
	}

	if addDiffNode {
		w.performDiffUpdate(diff, ranges, mergeTailNodes)
	} else {
		w.performGraphUpdate(diff, ranges, mergeTailNodes)
	}
}

// coalesceRanges collapses a per-node/per-token annotation vector into
// node_ranges as spec §4.F step 2 describes: "adjacent runs by the same
// id are coalesced."
func coalesceRanges(anns []annotation.TimelineAnnotation) []annotation.TimelineAnnotation {
	out := make([]annotation.TimelineAnnotation, 0, len(anns))
	for _, a := range anns {
		if len(out) > 0 {
			last := &out[len(out)-1]
			if last.HasNode == a.HasNode && (!a.HasNode || last.NodeID == a.NodeID) && last.Span.End == a.Span.Start {
				last.Span.End = a.Span.End
				continue
			}
		}
		out = append(out, annotation.TimelineAnnotation{Span: a.Span, NodeID: a.NodeID, HasNode: a.HasNode})
	}
	return out
}

func lastRangeEnd(ranges []annotation.TimelineAnnotation) int {
	if len(ranges) == 0 {
		return 0
	}
	return ranges[len(ranges)-1].Span.End
}

func lastRangeNode(ranges []annotation.TimelineAnnotation) (id.Id, bool) {
	if len(ranges) == 0 {
		return id.Nil, false
	}
	last := ranges[len(ranges)-1]
	return last.NodeID, last.HasNode
}

func intervalContains(start, end, x int) bool {
	return x >= start && x < end
}

// applyRangeModification threads a single Modification through ranges
// (component C's ApplyAnnotations), then stamps whichever fresh slot(s)
// it produced with the node identities the reconciler just created —
// mirroring Diff::apply_timeline_annotations' post-processing, but for
// the node_ranges mapping rather than the rendered-string annotations.
func applyRangeModification(ranges []annotation.TimelineAnnotation, m diffengine.Modification, insertedID id.Id, hasInserted bool, leftID id.Id, hasLeft bool, rightID id.Id, hasRight bool) []annotation.TimelineAnnotation {
	result, indices := diffengine.ApplyAnnotations(diffengine.Diff{Modifications: []diffengine.Modification{m}}, ranges)
	if len(indices) == 0 {
		return result
	}
	idx := indices[0]
	if hasInserted && idx.InsertedBytes != nil {
		result[*idx.InsertedBytes] = result[*idx.InsertedBytes].WithNode(insertedID)
	}
	if hasLeft && idx.LeftSplit != nil {
		result[*idx.LeftSplit] = result[*idx.LeftSplit].WithNode(leftID)
	}
	if hasRight && idx.RightSplit != nil {
		result[*idx.RightSplit] = result[*idx.RightSplit].WithNode(rightID)
	}
	return result
}

func (w *Weave) performDiffUpdate(diff diffengine.Diff, ranges []annotation.TimelineAnnotation, mergeTailNodes bool) {
	end := lastRangeEnd(ranges)
	switch {
	case len(diff.Modifications) == 1 && diff.Modifications[0].Index >= end:
		w.handleModificationTail(&ranges, diff.Modifications[0], mergeTailNodes)
	case len(diff.Modifications) == 1:
		w.handleSingularModificationDiffNontail(ranges, diff.Modifications[0])
	case len(diff.Modifications) > 1:
		w.handleMultipleModificationDiff(ranges, diff)
	}
}

func (w *Weave) performGraphUpdate(diff diffengine.Diff, ranges []annotation.TimelineAnnotation, mergeTailNodes bool) {
	for _, m := range diff.Modifications {
		end := lastRangeEnd(ranges)
		if m.Index >= end {
			w.handleModificationTail(&ranges, m, mergeTailNodes)
		} else {
			w.handleGraphModificationNontail(&ranges, m)
		}
	}
}

func (w *Weave) removeNodeIfNotGenerated(nodeID id.Id) bool {
	n, ok := w.nodes[nodeID]
	if !ok || n.Content.Model() != nil {
		return false
	}
	w.RemoveNode(nodeID)
	return true
}

// updateNongeneratedParent merges newBytes into parent's content via
// content.Merge, but only when parent carries no ContentModel (spec §9's
// resolved reading of merge_tail_nodes: model absence alone gates it,
// independent of whether metadata is present).
func (w *Weave) updateNongeneratedParent(parentID id.Id, newBytes []byte) (id.Id, bool) {
	n, ok := w.nodes[parentID]
	if !ok || n.Content.Model() != nil {
		return id.Nil, false
	}
	if !content.IsMergeable(n.Content, content.NewSnippet(newBytes, nil, n.Content.Metadata())) {
		return id.Nil, false
	}
	n.Content = content.Merge(n.Content, content.NewSnippet(newBytes, nil, n.Content.Metadata()))
	w.markChanged(false)
	return parentID, true
}

// handleModificationTail applies one modification known to fall at or
// past the end of the rendered timeline (spec §4.F step 6).
func (w *Weave) handleModificationTail(ranges *[]annotation.TimelineAnnotation, m diffengine.Modification, mergeTailNodes bool) {
	rs := *ranges
	lastNodeID, hasLastNode := lastRangeNode(rs)

	var insertedID, leftID, rightID id.Id
	var hasInserted, hasLeft, hasRight bool

	switch m.Content.Kind {
	case diffengine.OpInsertion, diffengine.OpTokenInsertion:
		merged := false
		if mergeTailNodes && hasLastNode {
			if nid, ok := w.updateNongeneratedParent(lastNodeID, m.Content.FlattenBytes()); ok {
				insertedID, hasInserted, merged = nid, true, true
			}
		}
		if !merged {
			parents := newIDSet()
			if hasLastNode {
				parents.Add(lastNodeID)
			}
			n := &Node{ID: id.New(), Parents: parents, Children: newIDSet(), Active: true,
				Content: content.NewSnippet(m.Content.FlattenBytes(), nil, nil)}
			nid, _ := w.AddNode(n, nil, true)
			insertedID, hasInserted = nid, true
		}
	case diffengine.OpDeletion:
		rangeStart := m.Index
		rangeEnd := m.Index + m.Content.Length
		for i := len(rs) - 1; i >= 0; i-- {
			r := rs[i]
			if !r.HasNode {
				continue
			}
			if !(intervalContains(rangeStart, rangeEnd, r.Span.Start) || intervalContains(rangeStart, rangeEnd, r.Span.End)) {
				continue
			}
			switch {
			case rangeStart <= r.Span.Start && r.Span.End <= rangeEnd:
				w.UpdateNodeActivity(r.NodeID, false, true)
				if mergeTailNodes {
					w.removeNodeIfNotGenerated(r.NodeID)
				}
			case intervalContains(rangeStart, rangeEnd, r.Span.End):
				left, right, ok := w.SplitNode(r.NodeID, rangeStart-r.Span.Start)
				if ok {
					leftID, hasLeft = left, true
					rightID, hasRight = right, true
					w.UpdateNodeActivity(right, false, true)
					if mergeTailNodes && w.removeNodeIfNotGenerated(left) {
						hasLeft = false
					}
				} else {
					n := &Node{ID: id.New(), Parents: newIDSetFrom(r.NodeID), Children: newIDSet(), Active: true,
						Content: content.NewDiff(diffengine.Diff{Modifications: []diffengine.Modification{
							{Index: m.Index, Content: diffengine.Deletion(m.Content.Length)},
						}}, nil, nil)}
					nid, _ := w.AddNode(n, nil, true)
					insertedID, hasInserted = nid, true
				}
			}
		}
	}

	*ranges = applyRangeModification(rs, m, insertedID, hasInserted, leftID, hasLeft, rightID, hasRight)
}

func (w *Weave) handleSingularModificationDiffNontail(ranges []annotation.TimelineAnnotation, m diffengine.Modification) {
	lastNodeID, hasLastNode := lastRangeNode(ranges)
	parents := newIDSet()
	if hasLastNode {
		parents.Add(lastNodeID)
	}
	n := &Node{ID: id.New(), Parents: parents, Children: newIDSet(), Active: true,
		Content: content.NewDiff(diffengine.Diff{Modifications: []diffengine.Modification{m}}, nil, nil)}
	w.AddNode(n, nil, true)
}

func (w *Weave) handleMultipleModificationDiff(ranges []annotation.TimelineAnnotation, diff diffengine.Diff) {
	lastNodeID, hasLastNode := lastRangeNode(ranges)
	parents := newIDSet()
	if hasLastNode {
		parents.Add(lastNodeID)
	}
	n := &Node{ID: id.New(), Parents: parents, Children: newIDSet(), Active: true,
		Content: content.NewDiff(diff, nil, nil)}
	w.AddNode(n, nil, true)
}

// splitRangeBoundaries locates the contiguous run of ranges overlapping
// [start, end), splitting the first and last covered node at the
// boundary unless the boundary already falls exactly on a node edge
// (spec §4.F step 5's "selected" run). It returns the node that should
// become the new parent edge (startingNode) and the node that should
// become the new child edge (endingNode) of whatever gets wedged in.
func (w *Weave) splitRangeBoundaries(ranges []annotation.TimelineAnnotation, start, end int) (startingNode, endingNode id.Id, selected []annotation.TimelineAnnotation, ok bool) {
	var sel []annotation.TimelineAnnotation
	firstIdx, lastIdx := -1, -1
	for i, r := range ranges {
		if intervalContains(start, end, r.Span.Start) || intervalContains(start, end, r.Span.End) {
			if firstIdx == -1 {
				firstIdx = i
			}
			lastIdx = i
			sel = append(sel, r)
		}
	}
	if firstIdx == -1 {
		return id.Nil, id.Nil, nil, false
	}
	first := ranges[firstIdx]
	last := ranges[lastIdx]

	switch {
	case start == first.Span.Start:
		if firstIdx == 0 || !ranges[firstIdx-1].HasNode {
			return id.Nil, id.Nil, nil, false
		}
		startingNode = ranges[firstIdx-1].NodeID
	case start > first.Span.Start:
		if !first.HasNode {
			return id.Nil, id.Nil, nil, false
		}
		left, _, splitOK := w.SplitNode(first.NodeID, start-first.Span.Start)
		if !splitOK {
			return id.Nil, id.Nil, nil, false
		}
		startingNode = left
	default:
		return id.Nil, id.Nil, nil, false
	}

	switch {
	case end == last.Span.End:
		if lastIdx+1 >= len(ranges) || !ranges[lastIdx+1].HasNode {
			return id.Nil, id.Nil, nil, false
		}
		endingNode = ranges[lastIdx+1].NodeID
	case end < last.Span.End:
		if !last.HasNode {
			return id.Nil, id.Nil, nil, false
		}
		_, right, splitOK := w.SplitNode(last.NodeID, end-last.Span.Start)
		if !splitOK {
			return id.Nil, id.Nil, nil, false
		}
		endingNode = right
	default:
		return id.Nil, id.Nil, nil, false
	}

	return startingNode, endingNode, sel, true
}

// handleGraphModificationNontail restructures the DAG for a modification
// that falls strictly inside the rendered timeline (spec §4.F step 5,
// graph mode branch).
func (w *Weave) handleGraphModificationNontail(ranges *[]annotation.TimelineAnnotation, m diffengine.Modification) {
	rs := *ranges
	rangeStart := m.Index
	rangeEnd := m.Index + m.Content.Len()

	startingNode, endingNode, selected, ok := w.splitRangeBoundaries(rs, rangeStart, rangeEnd)
	if !ok {
		return
	}

	var insertedID id.Id
	var hasInserted bool
	leftID, rightID := startingNode, endingNode

	switch m.Content.Kind {
	case diffengine.OpInsertion, diffengine.OpTokenInsertion:
		n := &Node{ID: id.New(), Parents: newIDSetFrom(startingNode), Children: newIDSetFrom(endingNode), Active: true,
			Content: content.NewSnippet(m.Content.FlattenBytes(), nil, nil)}
		nid, _ := w.AddNode(n, nil, true)
		insertedID, hasInserted = nid, true
	case diffengine.OpDeletion:
		endingNodeParents := newIDSet()
		if en, ok := w.nodes[endingNode]; ok {
			endingNodeParents = en.Parents.Clone()
		}
		for _, s := range selected {
			if s.HasNode {
				endingNodeParents.Remove(s.NodeID)
			}
		}
		endingNodeParents.Add(startingNode)
		w.MoveNode(endingNode, endingNodeParents.Slice())
		rightID = endingNode
	}

	*ranges = applyRangeModification(rs, m, insertedID, hasInserted, leftID, true, rightID, true)
}

// InsertAtRange wedges n into the timeline at timelineIndex's rendered
// [rangeStart, rangeEnd) byte range, splitting boundary nodes as needed.
// If the timeline is missing or rangeStart is past its rendered end, n
// is added as-is (spec §4.F, final paragraph).
func (w *Weave) InsertAtRange(timelineIndex int, rangeStart, rangeEnd int, n *Node, model *Model, deduplicate bool) (id.Id, bool) {
	timelines := w.GetActiveTimelines()

	if timelineIndex < 0 || timelineIndex >= len(timelines) {
		n.Parents = newIDSet()
		n.Children = newIDSet()
		return w.AddNode(n, model, deduplicate)
	}

	str, anns := timelines[timelineIndex].AnnotatedString()
	if rangeStart >= len(str) {
		n.Parents = newIDSet()
		n.Children = newIDSet()
		return w.AddNode(n, model, deduplicate)
	}

	if w.IsNonconcatableMode() {
		if toks, isTokens := n.Content.(content.Tokens); isTokens {
			if diff, ok := content.Into(toks, 0, 0); ok {
				n.Content = diff
			}
		}
	}

	ranges := coalesceRanges(anns)
	startingNode, endingNode, _, ok := w.splitRangeBoundaries(ranges, rangeStart, rangeEnd)
	if !ok {
		return id.Nil, false
	}

	n.Parents = newIDSetFrom(startingNode)
	n.Children = newIDSetFrom(endingNode)
	return w.AddNode(n, model, deduplicate)
}
