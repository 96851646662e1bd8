package weave

import (
	"reflect"

	"github.com/weavedoc/weave/content"
	"github.com/weavedoc/weave/id"
)

// Weave is a DAG of Nodes plus their Models: the owning arena described
// by spec §3 ("a Weave exclusively owns all of its nodes and models").
type Weave struct {
	nodes  map[id.Id]*Node
	models map[id.Id]*Model

	metadata map[string]string

	roots              *sortedSet
	modelNodes         map[id.Id]*idSet
	multiparentNodes   map[id.Id]struct{}
	nonconcatableNodes map[id.Id]struct{}

	// changed/changedShape are latch-and-drain invalidation signals for
	// external view caches (spec §4.D "index discipline"); the core
	// itself never reads them.
	changed      bool
	changedShape bool
}

// New returns an empty Weave.
func New() *Weave {
	return &Weave{
		nodes:              make(map[id.Id]*Node),
		models:             make(map[id.Id]*Model),
		metadata:           make(map[string]string),
		roots:              newSortedSet(),
		modelNodes:         make(map[id.Id]*idSet),
		multiparentNodes:   make(map[id.Id]struct{}),
		nonconcatableNodes: make(map[id.Id]struct{}),
	}
}

// Metadata returns the document-level metadata map, mutable in place.
func (w *Weave) Metadata() map[string]string { return w.metadata }

// IsMultiparentMode reports whether the Weave contains any node that was
// added with more than one parent or with children already attached, or
// was moved under more than one parent; if so, non-concatable content
// cannot be added. A node that merely gains children later, when those
// children are added, does not count.
func (w *Weave) IsMultiparentMode() bool { return len(w.multiparentNodes) > 0 }

// IsNonconcatableMode reports whether the Weave contains any Diff-content
// node; if so, multi-parent nodes cannot be added.
func (w *Weave) IsNonconcatableMode() bool { return len(w.nonconcatableNodes) > 0 }

// Changed reports and clears the latch set by any mutation.
func (w *Weave) Changed() bool {
	c := w.changed
	w.changed = false
	return c
}

// ChangedShape reports and clears the latch set by any mutation that
// could have altered the graph's shape (added/removed/relinked a node).
func (w *Weave) ChangedShape() bool {
	c := w.changedShape
	w.changedShape = false
	return c
}

func (w *Weave) markChanged(shape bool) {
	w.changed = true
	if shape {
		w.changedShape = true
	}
}

// AddNode adds n, optionally updating the Model associated with its
// content. See spec §4.D for the full contract, including deduplication.
func (w *Weave) AddNode(n *Node, model *Model, deduplicate bool) (id.Id, bool) {
	if _, exists := w.nodes[n.ID]; exists {
		return id.Nil, false
	}

	nonconcatableAfter := len(w.nonconcatableNodes) > 0 || !content.IsConcatable(n.Content)
	multiparentAfter := len(w.multiparentNodes) > 0 || n.Parents.Len() > 1 || n.Children.Len() > 0
	if nonconcatableAfter && multiparentAfter {
		return id.Nil, false
	}

	if deduplicate {
		for _, parentID := range n.Parents.Slice() {
			parent, ok := w.nodes[parentID]
			if !ok {
				continue
			}
			for _, siblingID := range parent.Children.Slice() {
				sibling, ok := w.nodes[siblingID]
				if !ok {
					continue
				}
				if !structurallyEqual(sibling.Content, n.Content) {
					continue
				}
				if sibling.Active != n.Active {
					w.UpdateNodeActivity(sibling.ID, n.Active, true)
				}
				if sibling.Bookmarked != n.Bookmarked {
					w.UpdateNodeBookmarkedStatus(sibling.ID, n.Bookmarked)
				}
				return sibling.ID, true
			}
		}
	}

	for _, childID := range n.Children.Slice() {
		if child, ok := w.nodes[childID]; ok {
			child.Parents.Add(n.ID)
		} else {
			n.Children.Remove(childID)
		}
	}
	for _, parentID := range n.Parents.Slice() {
		if n.Active {
			w.UpdateNodeActivity(parentID, true, true)
		}
		if parent, ok := w.nodes[parentID]; ok {
			parent.Children.Add(n.ID)
		} else {
			n.Parents.Remove(parentID)
		}
	}

	if n.Parents.Len() == 0 {
		w.roots.Add(n.ID)
	}
	if n.Parents.Len() > 1 || n.Children.Len() > 0 {
		w.multiparentNodes[n.ID] = struct{}{}
	}
	if !content.IsConcatable(n.Content) {
		w.nonconcatableNodes[n.ID] = struct{}{}
	}
	if nodeModel := n.Content.Model(); nodeModel != nil {
		if model != nil {
			m := model.clone()
			m.ID = nodeModel.ID
			w.models[m.ID] = m
		}
		set, ok := w.modelNodes[nodeModel.ID]
		if !ok {
			set = newIDSet()
			w.modelNodes[nodeModel.ID] = set
		}
		set.Add(n.ID)
	}

	w.nodes[n.ID] = n
	w.markChanged(true)
	return n.ID, true
}

// structurallyEqual implements the deduplication test of spec §4.D
// ("structural equality"): slice-bearing variants (Tokens, Diff) aren't
// comparable with ==, so this compares by value via reflection instead.
func structurallyEqual(a, b content.NodeContent) bool {
	return reflect.DeepEqual(a, b)
}

// AddModel upserts m. When m has no model→nodes index entry yet, the
// entry is created with capacity for at least capacityHint nodes.
func (w *Weave) AddModel(m *Model, capacityHint int) {
	w.models[m.ID] = m.clone()
	if _, ok := w.modelNodes[m.ID]; !ok {
		hint := max(capacityHint, 0)
		w.modelNodes[m.ID] = &idSet{order: make([]id.Id, 0, hint), pos: make(map[id.Id]int, hint)}
	}
	w.markChanged(false)
}

// UpdateNodeActivity recursively updates a node's active status, per the
// two propagation policies documented in spec §4.D.
func (w *Weave) UpdateNodeActivity(nodeID id.Id, active, inPlace bool) {
	if n, ok := w.nodes[nodeID]; ok {
		if n.Active == active {
			return
		}

		isParentActive := false
		for _, p := range n.Parents.Slice() {
			if parent, ok := w.nodes[p]; ok && parent.Active {
				isParentActive = true
				break
			}
		}

		switch {
		case isParentActive != active:
			if active {
				if minParent, ok := n.Parents.Min(); ok {
					w.UpdateNodeActivity(minParent, true, inPlace)
				}
			} else if !inPlace {
				for _, p := range n.Parents.Slice() {
					w.UpdateNodeActivity(p, false, false)
				}
			}
		case inPlace && active:
			seen := make(map[id.Id]struct{})
			for _, p := range n.Parents.Slice() {
				parent, ok := w.nodes[p]
				if !ok {
					continue
				}
				for _, sib := range parent.Children.Slice() {
					if _, dup := seen[sib]; dup {
						continue
					}
					seen[sib] = struct{}{}
					w.UpdateNodeActivity(sib, false, true)
				}
			}
		}
	}

	if n, ok := w.nodes[nodeID]; ok {
		n.Active = active
		w.markChanged(false)
		if !active {
			for _, c := range n.Children.Slice() {
				w.updateRemovedChildActivity(c)
			}
		}
	}
}

func (w *Weave) updateRemovedChildActivity(nodeID id.Id) {
	if n, ok := w.nodes[nodeID]; ok {
		if !n.Active {
			return
		}
		for _, p := range n.Parents.Slice() {
			if parent, ok := w.nodes[p]; ok && parent.Active {
				return
			}
		}
	}
	if n, ok := w.nodes[nodeID]; ok {
		n.Active = false
		w.markChanged(false)
		for _, c := range n.Children.Slice() {
			w.updateRemovedChildActivity(c)
		}
	}
}

// UpdateNodeBookmarkedStatus sets a node's bookmark bit, with no
// propagation (spec §3 invariant 8: bookmarked is orthogonal to active).
func (w *Weave) UpdateNodeBookmarkedStatus(nodeID id.Id, bookmarked bool) {
	if n, ok := w.nodes[nodeID]; ok {
		n.Bookmarked = bookmarked
		w.markChanged(false)
	}
}

// MoveNode relinks nodeID to newParents, refusing moves that name one of
// the node's current children as a new parent (an immediate cycle) or
// that violate non-concatable mode. Deeper descendants are not checked.
func (w *Weave) MoveNode(nodeID id.Id, newParents []id.Id) bool {
	if w.IsNonconcatableMode() && len(newParents) > 1 {
		return false
	}

	n, ok := w.nodes[nodeID]
	if !ok {
		return false
	}
	for _, c := range n.Children.Slice() {
		for _, p := range newParents {
			if c == p {
				return false
			}
		}
	}

	oldParents := n.Parents.Clone()
	active := n.Active

	kept := newIDSet()
	for _, p := range newParents {
		if active {
			w.UpdateNodeActivity(p, true, true)
		}
		if parent, ok := w.nodes[p]; ok {
			parent.Children.Add(nodeID)
			kept.Add(p)
		}
	}

	if kept.Len() == 0 {
		w.roots.Add(nodeID)
	} else {
		w.roots.Remove(nodeID)
	}
	if kept.Len() > 1 {
		w.multiparentNodes[nodeID] = struct{}{}
	} else {
		delete(w.multiparentNodes, nodeID)
	}

	n.Parents = kept

	for _, op := range oldParents.Slice() {
		if !kept.Contains(op) {
			if parent, ok := w.nodes[op]; ok {
				parent.Children.Remove(nodeID)
			}
		}
	}

	w.markChanged(true)
	return true
}

// SplitNode splits nodeID's content at byte index, producing a new left
// sibling and leaving the original node (now holding the right half) in
// place. The new id is anchored at the same millisecond timestamp as
// nodeID (SUPPLEMENTED FEATURE, ported from the original's
// Ulid::from_datetime(identifier.datetime())) so split siblings sort
// adjacently by id.
func (w *Weave) SplitNode(nodeID id.Id, index int) (id.Id, id.Id, bool) {
	original, ok := w.nodes[nodeID]
	if !ok {
		return id.Nil, id.Nil, false
	}
	left, right, ok := content.Split(original.Content, index)
	if !ok {
		return id.Nil, id.Nil, false
	}

	leftNode := &Node{
		ID:         id.FromTime(nodeID.Time()),
		Parents:    original.Parents.Clone(),
		Children:   newIDSetFrom(nodeID),
		Active:     original.Active,
		Bookmarked: original.Bookmarked,
		Content:    left,
	}
	leftID, ok := w.AddNode(leftNode, nil, false)
	if !ok {
		return id.Nil, id.Nil, false
	}

	right2 := w.nodes[nodeID]
	right2.Content = right
	right2.Bookmarked = false
	right2.Parents = newIDSetFrom(leftID)
	w.markChanged(true)

	return leftID, nodeID, true
}

// MergeNodes merges right into left's position, defined only when right
// is a child of left. The merged node keeps right's id and active
// status; bookmarked is the OR of both.
func (w *Weave) MergeNodes(left, right id.Id) (id.Id, bool) {
	l, ok := w.nodes[left]
	if !ok {
		return id.Nil, false
	}
	r, ok := w.nodes[right]
	if !ok {
		return id.Nil, false
	}
	if !(l.Children.Contains(right) && r.Parents.Contains(left)) {
		return id.Nil, false
	}

	if !content.IsMergeable(l.Content, r.Content) {
		return id.Nil, false
	}
	merged := content.Merge(l.Content, r.Content)

	parents := l.Parents.Clone()
	bookmarked := l.Bookmarked

	r.Content = merged
	if !r.Bookmarked {
		r.Bookmarked = bookmarked
	}
	r.Parents = parents
	for _, p := range parents.Slice() {
		if parent, ok := w.nodes[p]; ok {
			parent.Children.Add(right)
		}
	}

	if parents.Len() == 0 {
		w.roots.Add(right)
	} else {
		w.roots.Remove(right)
	}
	if parents.Len() > 1 {
		w.multiparentNodes[right] = struct{}{}
	} else {
		delete(w.multiparentNodes, right)
	}

	// right's edge to left is already replaced above; drop it from
	// left.Children so RemoveNode's orphan cascade doesn't also delete
	// the node we just reparented.
	l.Children.Remove(right)

	w.RemoveNode(left)
	w.markChanged(true)
	return right, true
}

// RemoveNode removes nodeID, cascading to children orphaned by the
// removal and destroying any Model whose last referencing node is gone.
func (w *Weave) RemoveNode(nodeID id.Id) (*Node, bool) {
	n, ok := w.nodes[nodeID]
	if !ok {
		return nil, false
	}
	delete(w.nodes, nodeID)
	w.roots.Remove(nodeID)
	delete(w.multiparentNodes, nodeID)
	delete(w.nonconcatableNodes, nodeID)

	for _, p := range n.Parents.Slice() {
		if parent, ok := w.nodes[p]; ok {
			parent.Children.Remove(nodeID)
		}
	}
	for _, c := range n.Children.Slice() {
		child, ok := w.nodes[c]
		if !ok {
			continue
		}
		child.Parents.Remove(nodeID)
		if child.Parents.Len() == 0 {
			w.RemoveNode(c)
		} else if n.Active {
			w.updateRemovedChildActivity(c)
		}
	}
	if nodeModel := n.Content.Model(); nodeModel != nil {
		if set, ok := w.modelNodes[nodeModel.ID]; ok {
			set.Remove(nodeID)
			if set.Len() == 0 {
				delete(w.models, nodeModel.ID)
				delete(w.modelNodes, nodeModel.ID)
			}
		}
	}
	w.markChanged(true)
	return n, true
}

// Reserve is a capacity hint. Go's built-in maps cannot be pre-sized
// after creation the way Rust's HashMap::reserve can, so this is a no-op
// kept only for API parity with spec §6.3's operation list.
func (w *Weave) Reserve(nodes, models int) {}

// ShrinkToFit is likewise a no-op: Go's runtime gives maps no shrink
// hook, unlike Rust's HashMap::shrink_to_fit.
func (w *Weave) ShrinkToFit() {}

// GetNode implements View.
func (w *Weave) GetNode(nodeID id.Id) (*Node, *Model, bool) {
	n, ok := w.nodes[nodeID]
	if !ok {
		return nil, nil, false
	}
	return n, w.modelFor(n), true
}

func (w *Weave) modelFor(n *Node) *Model {
	nodeModel := n.Content.Model()
	if nodeModel == nil {
		return nil
	}
	return w.models[nodeModel.ID]
}

// NodePair pairs a Node with its display Model, if any.
type NodePair struct {
	Node  *Node
	Model *Model
}

// GetRootNodes implements View.
func (w *Weave) GetRootNodes() []NodePair {
	roots := w.roots.Slice()
	out := make([]NodePair, 0, len(roots))
	for _, id := range roots {
		if n, ok := w.nodes[id]; ok {
			out = append(out, NodePair{Node: n, Model: w.modelFor(n)})
		}
	}
	return out
}

// GetActiveTimelines implements View.
func (w *Weave) GetActiveTimelines() []Timeline {
	return buildActiveTimelines(w.nodes, w.roots.Slice(), w.models)
}

// View is the read-only surface shared by *Weave and Snapshot, matching
// the original's WeaveView trait (spec §9: "implementations ... should
// ... return opaque handles" or "copy the relevant scalar fields").
type View interface {
	GetNode(id.Id) (*Node, *Model, bool)
	GetRootNodes() []NodePair
	GetActiveTimelines() []Timeline
}

var (
	_ View = (*Weave)(nil)
	_ View = Snapshot{}
)
