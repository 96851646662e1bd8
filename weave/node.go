// Package weave implements components D, E, and F: the Node/Model graph
// store, activation and timeline projection, and the edit reconciler that
// ties the diff engine back into the graph. The tagged (id, parents,
// children) arena shape follows spec §9's own guidance and the teacher's
// map-of-structs storage pattern (graphstore/simple.go's GraphStoreData).
package weave

import (
	"maps"

	"github.com/weavedoc/weave/content"
	"github.com/weavedoc/weave/id"
)

// Node is one fragment of a document: content plus its position in the
// DAG and its activation/bookmark bits.
type Node struct {
	ID         id.Id
	Parents    *idSet
	Children   *idSet
	Active     bool
	Bookmarked bool
	Content    content.NodeContent
}

// NewNode builds a Node with the given content and no parents or children.
func NewNode(nodeID id.Id, c content.NodeContent) *Node {
	return &Node{ID: nodeID, Parents: newIDSet(), Children: newIDSet(), Content: c}
}

func (n *Node) clone() *Node {
	return &Node{
		ID:         n.ID,
		Parents:    n.Parents.Clone(),
		Children:   n.Children.Clone(),
		Active:     n.Active,
		Bookmarked: n.Bookmarked,
		Content:    n.Content,
	}
}

// Model is a document-level display label for a generator, keyed by id.
type Model struct {
	ID       id.Id
	Label    string
	Metadata map[string]string
}

func (m *Model) clone() *Model {
	return &Model{ID: m.ID, Label: m.Label, Metadata: maps.Clone(m.Metadata)}
}
