package weave

import (
	"sort"
	"unicode/utf8"

	"github.com/weavedoc/weave/annotation"
	"github.com/weavedoc/weave/content"
	"github.com/weavedoc/weave/diffengine"
	"github.com/weavedoc/weave/id"
)

// TimelineEntry pairs a Node on a timeline with its display Model.
type TimelineEntry struct {
	Node  *Node
	Model *Model
}

// Timeline is a maximal path of active nodes from an active root,
// produced by GetActiveTimelines (spec §4.E).
type Timeline struct {
	Entries []TimelineEntry
}

// Bytes concatenates every entry's resolved payload.
func (t Timeline) Bytes() []byte {
	var buf []byte
	for _, e := range t.Entries {
		switch c := e.Node.Content.(type) {
		case content.Snippet:
			buf = append(buf, c.IntoBytes()...)
		case content.Tokens:
			buf = append(buf, c.IntoBytes()...)
		case content.Diff:
			buf = c.Apply(buf)
		case content.Blank:
		}
	}
	return buf
}

// AnnotatedString accumulates the timeline's bytes alongside
// TimelineAnnotations describing which node (and model, parameters,
// metadata) produced each byte range, per spec §4.E.
func (t Timeline) AnnotatedString() (string, []annotation.TimelineAnnotation) {
	var buf []byte
	anns := make([]annotation.TimelineAnnotation, 0, len(t.Entries))

	for _, e := range t.Entries {
		n := e.Node
		switch c := n.Content.(type) {
		case content.Snippet:
			anns = append(anns, shiftedAnnotations(c.Annotations(), len(buf), n, e.Model)...)
			buf = append(buf, c.IntoBytes()...)
		case content.Tokens:
			anns = append(anns, shiftedAnnotations(c.Annotations(), len(buf), n, e.Model)...)
			buf = append(buf, c.IntoBytes()...)
		case content.Diff:
			applyTimelineAnnotations(c, n, e.Model, &anns)
			buf = c.Apply(buf)
		case content.Blank:
		}
	}

	return substituteInvalidUTF8(buf), anns
}

func shiftedAnnotations(cas []annotation.ContentAnnotation, shift int, n *Node, model *Model) []annotation.TimelineAnnotation {
	out := make([]annotation.TimelineAnnotation, len(cas))
	for i, ca := range cas {
		ta := annotation.TimelineAnnotation{
			Span:               annotation.Range{Start: ca.Span.Start + shift, End: ca.Span.End + shift},
			SubsectionMetadata: ca.Metadata,
			ContentMetadata:    n.Content.Metadata(),
		}.WithNode(n.ID)
		if model != nil {
			ta = ta.WithModel(model.ID)
		}
		if nodeModel := n.Content.Model(); nodeModel != nil {
			ta.Parameters = nodeModel.Parameters
		}
		out[i] = ta
	}
	return out
}

// applyTimelineAnnotations ports Diff::apply_timeline_annotations: it
// threads the diff node's script through the accumulating annotation
// vector and stamps the freshly inserted slot(s) with this node's
// identity, exactly as content/mod.rs's apply_timeline_annotations does.
func applyTimelineAnnotations(c content.Diff, n *Node, model *Model, anns *[]annotation.TimelineAnnotation) {
	result, indices := diffengine.ApplyAnnotations(c.Script, *anns)
	for modIdx, idx := range indices {
		if idx.InsertedBytes != nil {
			result[*idx.InsertedBytes] = stampTimelineAnnotation(result[*idx.InsertedBytes], n, model, nil)
		}
		if idx.InsertedTokensStart != nil && idx.InsertedTokensEnd != nil {
			m := c.Script.Modifications[modIdx]
			if m.Content.Kind == diffengine.OpTokenInsertion {
				for i, tok := range m.Content.Tokens {
					slot := *idx.InsertedTokensStart + i
					result[slot] = stampTimelineAnnotation(result[slot], n, model, tok.Metadata)
				}
			}
		}
	}
	*anns = result
}

func stampTimelineAnnotation(ta annotation.TimelineAnnotation, n *Node, model *Model, subsectionMetadata map[string]string) annotation.TimelineAnnotation {
	ta = ta.WithNode(n.ID)
	if model != nil {
		ta = ta.WithModel(model.ID)
	}
	if nodeModel := n.Content.Model(); nodeModel != nil {
		ta.Parameters = nodeModel.Parameters
	}
	ta.ContentMetadata = n.Content.Metadata()
	if subsectionMetadata != nil {
		ta.SubsectionMetadata = subsectionMetadata
	}
	return ta
}

// substituteInvalidUTF8 re-encodes bytes to a string where each invalid
// UTF-8 byte becomes one U+001A code point, preserving length (spec §4.E).
func substituteInvalidUTF8(b []byte) string {
	out := make([]rune, 0, len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size <= 1 {
			out = append(out, '\u001A')
			b = b[1:]
			continue
		}
		out = append(out, r)
		b = b[size:]
	}
	return string(out)
}

// buildActiveTimelines implements get_active_timelines, shared by *Weave
// and Snapshot (spec §4.E): seed one path per active root, then
// repeatedly extend by active children, cloning the path for every
// additional active child found.
func buildActiveTimelines(nodes map[id.Id]*Node, roots []id.Id, models map[id.Id]*Model) []Timeline {
	var paths [][]*Node
	for _, rootID := range roots {
		n, ok := nodes[rootID]
		if !ok || !n.Active {
			continue
		}
		paths = append(paths, []*Node{n})
	}

	for {
		var fresh [][]*Node
		extended := false
		for i := range paths {
			last := paths[i][len(paths[i])-1]
			addedFirst := false
			for _, childID := range last.Children.Slice() {
				child, ok := nodes[childID]
				if !ok || !child.Active {
					continue
				}
				if !addedFirst {
					paths[i] = append(paths[i], child)
					addedFirst = true
				} else {
					cloned := append([]*Node(nil), paths[i][:len(paths[i])-1]...)
					cloned = append(cloned, child)
					fresh = append(fresh, cloned)
				}
				extended = true
			}
		}
		paths = append(paths, fresh...)
		if !extended {
			break
		}
	}

	out := make([]Timeline, len(paths))
	for i, p := range paths {
		entries := make([]TimelineEntry, len(p))
		for j, n := range p {
			var m *Model
			if nodeModel := n.Content.Model(); nodeModel != nil {
				m = models[nodeModel.ID]
			}
			entries[j] = TimelineEntry{Node: n, Model: m}
		}
		out[i] = Timeline{Entries: entries}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].Entries) < len(out[j].Entries) })
	return out
}

// Snapshot is a read-only view of a Weave, implementing View the same way
// *Weave does. Only the root list and the two mode flags are copied when
// it is taken; the node and model maps are shared with the owning Weave,
// so later mutations of that Weave are visible through the Snapshot.
type Snapshot struct {
	nodes             map[id.Id]*Node
	models            map[id.Id]*Model
	roots             []id.Id
	multiparentMode   bool
	nonconcatableMode bool
}

// Snapshot captures the Weave's current read surface by reference; the
// maps are shared, not deep-copied, matching the original's borrowed
// WeaveSnapshot<'w> (mutating the source Weave after taking a Snapshot is
// the caller's responsibility to avoid, exactly as a live Rust borrow
// would forbid it statically).
func (w *Weave) Snapshot() Snapshot {
	return Snapshot{
		nodes:             w.nodes,
		models:            w.models,
		roots:             w.roots.Slice(),
		multiparentMode:   w.IsMultiparentMode(),
		nonconcatableMode: w.IsNonconcatableMode(),
	}
}

func (s Snapshot) GetNode(nodeID id.Id) (*Node, *Model, bool) {
	n, ok := s.nodes[nodeID]
	if !ok {
		return nil, nil, false
	}
	var m *Model
	if nodeModel := n.Content.Model(); nodeModel != nil {
		m = s.models[nodeModel.ID]
	}
	return n, m, true
}

func (s Snapshot) GetRootNodes() []NodePair {
	out := make([]NodePair, 0, len(s.roots))
	for _, id := range s.roots {
		if n, ok := s.nodes[id]; ok {
			var m *Model
			if nodeModel := n.Content.Model(); nodeModel != nil {
				m = s.models[nodeModel.ID]
			}
			out = append(out, NodePair{Node: n, Model: m})
		}
	}
	return out
}

func (s Snapshot) GetActiveTimelines() []Timeline {
	return buildActiveTimelines(s.nodes, s.roots, s.models)
}

func (s Snapshot) IsMultiparentMode() bool   { return s.multiparentMode }
func (s Snapshot) IsNonconcatableMode() bool { return s.nonconcatableMode }
