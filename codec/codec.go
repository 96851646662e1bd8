// Package codec implements component G: the stable on-disk format for a
// Weave (spec §6.2) — a MessagePack payload wrapped in framed LZ4, with a
// version tag governing forward/backward compatibility. Persist-on-write
// to a file follows the teacher's storage/kvstore/file_kvstore.go idiom.
package codec

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/weavedoc/weave/content"
	"github.com/weavedoc/weave/diffengine"
	"github.com/weavedoc/weave/id"
	"github.com/weavedoc/weave/payload"
	"github.com/weavedoc/weave/weave"
)

// CurrentVersion is the latest schema version this codec writes. Readers
// accept payloads at or below this version, upgrading older ones
// in-memory; payloads above it are rejected (spec §6.2).
const CurrentVersion = 0

// CompactWeave is the logical, version-tagged, fully-owned on-disk
// representation of a Weave, matching spec §6.2 field for field.
type CompactWeave struct {
	Version    uint64              `msgpack:"version"`
	Nodes      []CompactNodeEntry  `msgpack:"nodes"`
	Active     []id.Id             `msgpack:"active"`
	Bookmarked []id.Id             `msgpack:"bookmarked"`
	Models     []CompactModelEntry `msgpack:"models"`
	Metadata   map[string]string   `msgpack:"metadata"`
}

// CompactNodeEntry is one (id, (data, parents)) tuple in topological
// order: a node appears only after every one of its ancestors.
type CompactNodeEntry struct {
	ID      id.Id          `msgpack:"id"`
	Data    CompactContent `msgpack:"data"`
	Parents []id.Id        `msgpack:"parents"`
}

// CompactModelEntry is one (id, CompactModel) pair. Kept as an ordered
// slice rather than a map so re-encoding an identical Weave is
// byte-identical — map iteration order in Go (and msgpack's default
// encoder) is not guaranteed stable across encodes.
type CompactModelEntry struct {
	ID    id.Id        `msgpack:"id"`
	Model CompactModel `msgpack:"model"`
}

// CompactModel is the persisted shape of a weave.Model.
type CompactModel struct {
	Label    string            `msgpack:"label"`
	Metadata map[string]string `msgpack:"metadata"`
}

// CompactNodeModel is the persisted shape of a content.ContentModel.
type CompactNodeModel struct {
	ID         id.Id          `msgpack:"id"`
	Parameters []payload.Param `msgpack:"parameters"`
}

// ContentKind tags which NodeData variant a CompactContent holds.
type ContentKind int

const (
	KindSnippet ContentKind = iota
	KindTokens
	KindDiff
	KindBlank
)

// CompactContent is the persisted tagged union for NodeData (spec
// §6.2). Exactly the fields relevant to Kind are populated.
type CompactContent struct {
	Kind ContentKind `msgpack:"kind"`

	SnippetBytes []byte              `msgpack:"snippet_bytes,omitempty"`
	Tokens       []CompactToken      `msgpack:"tokens,omitempty"`
	DiffOps      []CompactDiffOp     `msgpack:"diff_ops,omitempty"`

	Model    *CompactNodeModel `msgpack:"model,omitempty"`
	Metadata map[string]string `msgpack:"metadata,omitempty"`
}

// CompactToken is one (bytes, metadata?) pair of a Tokens content.
type CompactToken struct {
	Bytes    []byte            `msgpack:"bytes"`
	Metadata map[string]string `msgpack:"metadata,omitempty"`
}

// DiffOpKind tags which DiffOp variant a CompactDiffOp holds.
type DiffOpKind int

const (
	OpInsert DiffOpKind = iota
	OpInsertToken
	OpDelete
)

// CompactDiffOp is one (index, op) pair of a Diff content's script.
type CompactDiffOp struct {
	Index  uint64         `msgpack:"index"`
	Kind   DiffOpKind     `msgpack:"kind"`
	Bytes  []byte         `msgpack:"bytes,omitempty"`
	Tokens []CompactToken `msgpack:"tokens,omitempty"`
	Length uint64         `msgpack:"length,omitempty"`
}

// Encode serializes w into the compact wire format: MessagePack, then
// framed LZ4. The transform is order-preserving and deterministic for
// equal inputs, matching spec §6.2's "outer container" contract. Models
// are carried as an ordered slice (see CompactModelEntry) and every
// remaining map (content/token/model metadata) is marshaled with sorted
// keys, since neither Go's map iteration nor msgpack's default encoder
// guarantees a stable key order across encodes.
func Encode(w *weave.Weave) ([]byte, error) {
	cw := toCompact(w)

	var rawBuf bytes.Buffer
	enc := msgpack.NewEncoder(&rawBuf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(cw); err != nil {
		return nil, fmt.Errorf("codec: marshal msgpack: %w", err)
	}
	raw := rawBuf.Bytes()

	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("codec: lz4 compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("codec: lz4 close: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode and reconstructs a live Weave: models first
// (with a capacity hint equal to the node count), then nodes in listed
// order via the standard AddNode path, which rebuilds children links
// from parent edges and applies the active/bookmarked sets.
func Decode(data []byte) (*weave.Weave, error) {
	zr := lz4.NewReader(bytes.NewReader(data))
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("codec: lz4 decompress: %w", err)
	}

	var cw CompactWeave
	if err := msgpack.Unmarshal(raw, &cw); err != nil {
		return nil, fmt.Errorf("codec: unmarshal msgpack: %w", err)
	}
	if cw.Version > CurrentVersion {
		return nil, fmt.Errorf("codec: payload version %d is newer than the latest known version %d", cw.Version, CurrentVersion)
	}
	cw = upgrade(cw)

	return fromCompact(cw)
}

// upgrade migrates a CompactWeave from an older version to
// CurrentVersion in-memory. There is only one version so far; this is
// the hook future migrations attach to.
func upgrade(cw CompactWeave) CompactWeave {
	cw.Version = CurrentVersion
	return cw
}

func toCompact(w *weave.Weave) CompactWeave {
	cw := CompactWeave{
		Version:  CurrentVersion,
		Metadata: w.Metadata(),
	}

	seenModels := make(map[id.Id]bool)
	order := topoSortNodes(w)
	for _, n := range order {
		cw.Nodes = append(cw.Nodes, CompactNodeEntry{
			ID:      n.ID,
			Data:    toCompactContent(n.Content),
			Parents: n.Parents.Slice(),
		})
		if n.Active {
			cw.Active = append(cw.Active, n.ID)
		}
		if n.Bookmarked {
			cw.Bookmarked = append(cw.Bookmarked, n.ID)
		}
		if nodeModel := n.Content.Model(); nodeModel != nil && !seenModels[nodeModel.ID] {
			if _, m, ok := w.GetNode(n.ID); ok && m != nil {
				seenModels[nodeModel.ID] = true
				cw.Models = append(cw.Models, CompactModelEntry{
					ID:    nodeModel.ID,
					Model: CompactModel{Label: m.Label, Metadata: m.Metadata},
				})
			}
		}
	}

	return cw
}

// topoSortNodes orders every node in w so each appears after all of its
// ancestors, via a simple iterative Kahn's-algorithm walk over the
// parent/child adjacency already tracked by the Weave.
func topoSortNodes(w *weave.Weave) []*weave.Node {
	roots := w.GetRootNodes()

	remaining := make(map[id.Id]int)
	seen := make(map[id.Id]bool)
	var order []*weave.Node
	queue := make([]*weave.Node, 0, len(roots))
	for _, r := range roots {
		queue = append(queue, r.Node)
	}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		order = append(order, n)

		for _, childID := range n.Children.Slice() {
			child, _, ok := w.GetNode(childID)
			if !ok || seen[childID] {
				continue
			}
			if _, tracked := remaining[childID]; !tracked {
				remaining[childID] = child.Parents.Len()
			}
			remaining[childID]--
			if remaining[childID] <= 0 {
				queue = append(queue, child)
			}
		}
	}

	return order
}

func toCompactContent(c content.NodeContent) CompactContent {
	switch v := c.(type) {
	case content.Snippet:
		return CompactContent{
			Kind:         KindSnippet,
			SnippetBytes: v.IntoBytes(),
			Model:        compactModelOf(v.Model()),
			Metadata:     v.Metadata(),
		}
	case content.Tokens:
		toks := make([]CompactToken, len(v.Toks))
		for i, t := range v.Toks {
			toks[i] = CompactToken{Bytes: t.Bytes, Metadata: t.Metadata}
		}
		return CompactContent{
			Kind:     KindTokens,
			Tokens:   toks,
			Model:    compactModelOf(v.Model()),
			Metadata: v.Metadata(),
		}
	case content.Diff:
		ops := make([]CompactDiffOp, len(v.Script.Modifications))
		for i, m := range v.Script.Modifications {
			ops[i] = toCompactDiffOp(m)
		}
		return CompactContent{
			Kind:     KindDiff,
			DiffOps:  ops,
			Model:    compactModelOf(v.Model()),
			Metadata: v.Metadata(),
		}
	default:
		return CompactContent{Kind: KindBlank}
	}
}

func compactModelOf(m *content.ContentModel) *CompactNodeModel {
	if m == nil {
		return nil
	}
	return &CompactNodeModel{ID: m.ID, Parameters: m.Parameters}
}

func toCompactDiffOp(m diffengine.Modification) CompactDiffOp {
	switch m.Content.Kind {
	case diffengine.OpInsertion:
		return CompactDiffOp{Index: uint64(m.Index), Kind: OpInsert, Bytes: m.Content.FlattenBytes()}
	case diffengine.OpTokenInsertion:
		toks := make([]CompactToken, len(m.Content.Tokens))
		for i, t := range m.Content.Tokens {
			toks[i] = CompactToken{Bytes: t.Bytes, Metadata: t.Metadata}
		}
		return CompactDiffOp{Index: uint64(m.Index), Kind: OpInsertToken, Tokens: toks}
	default:
		return CompactDiffOp{Index: uint64(m.Index), Kind: OpDelete, Length: uint64(m.Content.Length)}
	}
}

func fromCompact(cw CompactWeave) (*weave.Weave, error) {
	w := weave.New()
	for k, v := range cw.Metadata {
		w.Metadata()[k] = v
	}

	for _, entry := range cw.Models {
		w.AddModel(&weave.Model{ID: entry.ID, Label: entry.Model.Label, Metadata: entry.Model.Metadata}, len(cw.Nodes))
	}

	active := idSetFrom(cw.Active)
	bookmarked := idSetFrom(cw.Bookmarked)

	for _, entry := range cw.Nodes {
		c, err := fromCompactContent(entry.Data)
		if err != nil {
			return nil, fmt.Errorf("codec: node %s: %w", entry.ID, err)
		}
		n := weave.NewNode(entry.ID, c)
		for _, p := range entry.Parents {
			n.Parents.Add(p)
		}
		n.Active = active[entry.ID]
		n.Bookmarked = bookmarked[entry.ID]

		if _, ok := w.AddNode(n, nil, false); !ok {
			return nil, fmt.Errorf("codec: failed to add node %s", entry.ID)
		}
	}

	return w, nil
}

func idSetFrom(ids []id.Id) map[id.Id]bool {
	out := make(map[id.Id]bool, len(ids))
	for _, i := range ids {
		out[i] = true
	}
	return out
}

func fromCompactContent(cc CompactContent) (content.NodeContent, error) {
	model := modelOf(cc.Model)

	switch cc.Kind {
	case KindSnippet:
		return content.NewSnippet(cc.SnippetBytes, model, cc.Metadata), nil
	case KindTokens:
		toks := make([]payload.Token, len(cc.Tokens))
		for i, t := range cc.Tokens {
			toks[i] = payload.Token{Bytes: t.Bytes, Metadata: t.Metadata}
		}
		return content.NewTokens(toks, model, cc.Metadata), nil
	case KindDiff:
		mods := make([]diffengine.Modification, len(cc.DiffOps))
		for i, op := range cc.DiffOps {
			mods[i] = fromCompactDiffOp(op)
		}
		return content.NewDiff(diffengine.Diff{Modifications: mods}, model, cc.Metadata), nil
	case KindBlank:
		return content.Blank{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown content kind %d", cc.Kind)
	}
}

func modelOf(cm *CompactNodeModel) *content.ContentModel {
	if cm == nil {
		return nil
	}
	return &content.ContentModel{ID: cm.ID, Parameters: cm.Parameters}
}

func fromCompactDiffOp(op CompactDiffOp) diffengine.Modification {
	switch op.Kind {
	case OpInsert:
		return diffengine.Modification{Index: int(op.Index), Content: diffengine.Insertion(op.Bytes)}
	case OpInsertToken:
		toks := make([]payload.Token, len(op.Tokens))
		for i, t := range op.Tokens {
			toks[i] = payload.Token{Bytes: t.Bytes, Metadata: t.Metadata}
		}
		return diffengine.Modification{Index: int(op.Index), Content: diffengine.TokenInsertion(toks)}
	default:
		return diffengine.Modification{Index: int(op.Index), Content: diffengine.Deletion(int(op.Length))}
	}
}

// SaveToFile encodes w and writes it to path, creating parent
// directories as needed — the persist-on-write idiom of
// storage/kvstore/file_kvstore.go, adapted to a single whole-document
// snapshot instead of incremental key/value writes.
func SaveToFile(w *weave.Weave, path string) error {
	data, err := Encode(w)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("codec: create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("codec: write file: %w", err)
	}
	return nil
}

// LoadFromFile reads and decodes a Weave previously written by
// SaveToFile.
func LoadFromFile(path string) (*weave.Weave, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("codec: read file: %w", err)
	}
	return Decode(data)
}
