// Package content implements component A: the NodeContent sum type
// (Snippet, Tokens, Diff, Blank) and the merge/split/reduce laws that
// keep it canonical. The tagged-union encoding follows the same pattern
// the teacher uses for NodeRelationships (schema/node_relationship.go): a
// marker interface implemented only by the concrete variant types.
package content

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/weavedoc/weave/diffengine"
	"github.com/weavedoc/weave/id"
	"github.com/weavedoc/weave/payload"
)

// Param is a (key, value) parameter of a ContentModel.
type Param = payload.Param

// ContentModel records the generative context a piece of content was
// produced under: which generator (by id) and with what parameters.
type ContentModel struct {
	ID         id.Id
	Parameters []Param
}

// Equal reports structural equality.
func (m ContentModel) Equal(other ContentModel) bool {
	return m.ID == other.ID && payload.ParamsEqual(m.Parameters, other.Parameters)
}

// NodeContent is the tagged union of a node's payload. Only the types in
// this package implement it.
type NodeContent interface {
	isNodeContent()

	// Model returns the content's generative context, if any.
	Model() *ContentModel
	// Metadata returns the content-level metadata map, if any.
	Metadata() map[string]string
	// HasMetadata reports whether the content carries any metadata at
	// all: model, content-level metadata, token-level metadata, or (for
	// Diff) token metadata inside an inserted token.
	HasMetadata() bool
	// IsEmpty reports whether the content carries zero bytes (Diff
	// content is empty when its script has no modifications at all;
	// Blank is always empty).
	IsEmpty() bool
	// String renders the content for display purposes.
	String() string
}

// IsConcatable reports whether c can participate in Merge/Split: true for
// Snippet, Tokens, and Blank; false for Diff.
func IsConcatable(c NodeContent) bool {
	_, isDiff := c.(Diff)
	return !isDiff
}

// IsMergeable reports whether l and r may be combined by Merge.
func IsMergeable(l, r NodeContent) bool {
	if !IsConcatable(l) || !IsConcatable(r) {
		return false
	}
	if !modelsEqual(l.Model(), r.Model()) {
		return false
	}
	return payload.MetadataEqual(l.Metadata(), r.Metadata())
}

func modelsEqual(a, b *ContentModel) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// Merge combines l and r, defined only when IsMergeable(l, r). Calling it
// otherwise is a programmer error (spec §7: "calling merge on
// non-mergeable content" panics).
func Merge(l, r NodeContent) NodeContent {
	if !IsMergeable(l, r) {
		panic("content: Merge called on non-mergeable content")
	}

	if _, ok := l.(Blank); ok {
		return Reduce(r)
	}
	if _, ok := r.(Blank); ok {
		return Reduce(l)
	}

	switch lv := l.(type) {
	case Snippet:
		switch rv := r.(type) {
		case Snippet:
			return Reduce(Snippet{
				Bytes:    append(append([]byte(nil), lv.Bytes...), rv.Bytes...),
				model:    lv.model,
				metadata: lv.metadata,
			})
		case Tokens:
			prepended := append([]payload.Token{{Bytes: append([]byte(nil), lv.Bytes...)}}, cloneTokens(rv.Toks)...)
			return Reduce(Tokens{Toks: prepended, model: lv.model, metadata: lv.metadata})
		}
	case Tokens:
		switch rv := r.(type) {
		case Snippet:
			appended := append(cloneTokens(lv.Toks), payload.Token{Bytes: append([]byte(nil), rv.Bytes...)})
			return Reduce(Tokens{Toks: appended, model: lv.model, metadata: lv.metadata})
		case Tokens:
			combined := append(cloneTokens(lv.Toks), cloneTokens(rv.Toks)...)
			return Reduce(Tokens{Toks: combined, model: lv.model, metadata: lv.metadata})
		}
	}
	panic("content: Merge called on non-mergeable content")
}

// Split divides c at byte index i, defined when i <= len(c) and c is
// splittable (Diff never splits; Blank only splits at 0). Returns
// ok=false when the split is not defined.
func Split(c NodeContent, i int) (left, right NodeContent, ok bool) {
	switch v := c.(type) {
	case Snippet:
		l, r, splitOK := v.split(i)
		if !splitOK {
			return nil, nil, false
		}
		return Reduce(l), Reduce(r), true
	case Tokens:
		l, r, splitOK := v.split(i)
		if !splitOK {
			return nil, nil, false
		}
		return Reduce(l), Reduce(r), true
	case Blank:
		if i != 0 {
			return nil, nil, false
		}
		return Blank{}, Blank{}, true
	case Diff:
		return nil, nil, false
	default:
		return nil, nil, false
	}
}

// Reduce canonicalizes content: empty, metadata-less content collapses
// to Blank; a Tokens value with no non-empty, non-metadata-carrying
// tokens collapses to Snippet or Blank; a single metadata-less token
// collapses Tokens to Snippet.
func Reduce(c NodeContent) NodeContent {
	switch v := c.(type) {
	case Tokens:
		kept := make([]payload.Token, 0, len(v.Toks))
		for _, t := range v.Toks {
			if !t.IsEmpty() || t.HasMetadata() {
				kept = append(kept, t)
			}
		}
		switch {
		case len(kept) == 0:
			return reduceEmpty(v.model, v.metadata)
		case len(kept) == 1 && !kept[0].HasMetadata():
			return reduceSnippet(kept[0].Bytes, v.model, v.metadata)
		default:
			return Tokens{Toks: kept, model: v.model, metadata: v.metadata}
		}
	case Snippet:
		if len(v.Bytes) == 0 && !hasMapMetadata(v.metadata) && v.model == nil {
			return Blank{}
		}
		return v
	default:
		return c
	}
}

func reduceEmpty(model *ContentModel, metadata map[string]string) NodeContent {
	if model == nil && !hasMapMetadata(metadata) {
		return Blank{}
	}
	return Snippet{Bytes: nil, model: model, metadata: metadata}
}

func reduceSnippet(b []byte, model *ContentModel, metadata map[string]string) NodeContent {
	if len(b) == 0 && model == nil && !hasMapMetadata(metadata) {
		return Blank{}
	}
	return Snippet{Bytes: b, model: model, metadata: metadata}
}

func hasMapMetadata(m map[string]string) bool {
	return len(m) > 0
}

func cloneTokens(toks []payload.Token) []payload.Token {
	out := make([]payload.Token, len(toks))
	for i, t := range toks {
		out[i] = t.Clone()
	}
	return out
}

// Into converts c into a Diff node content representing the byte range
// [rangeStart, rangeEnd) being replaced by the content's own bytes — the
// shape used by the edit reconciler when it downgrades concatable
// content into a diff-node (e.g. non-concatable-mode token insertion).
// Returns ok=false for content that is already Diff or Blank.
func Into(c NodeContent, rangeStart, rangeEnd int) (Diff, bool) {
	var model *ContentModel
	var metadata map[string]string
	var mods []diffengine.Modification

	switch v := c.(type) {
	case Snippet:
		model, metadata = v.model, v.metadata
		if rangeEnd > rangeStart {
			mods = append(mods, diffengine.Modification{Index: rangeStart, Content: diffengine.Deletion(rangeEnd - rangeStart)})
		}
		mods = append(mods, diffengine.Modification{Index: rangeStart, Content: diffengine.Insertion(v.Bytes)})
	case Tokens:
		model, metadata = v.model, v.metadata
		if rangeEnd > rangeStart {
			mods = append(mods, diffengine.Modification{Index: rangeStart, Content: diffengine.Deletion(rangeEnd - rangeStart)})
		}
		mods = append(mods, diffengine.Modification{Index: rangeStart, Content: diffengine.TokenInsertion(v.Toks)})
	default:
		return Diff{}, false
	}

	return Diff{
		Script:   diffengine.Diff{Modifications: mods},
		model:    model,
		metadata: metadata,
	}, true
}

// renderBytes implements the "No Content" / byte-escaped display the
// original's Display impls use: empty content renders as "No Content";
// any byte that isn't part of a valid UTF-8 sequence renders as a \xNN
// escape instead of being dropped or replaced wholesale.
func renderBytes(b []byte) string {
	if len(b) == 0 {
		return "No Content"
	}
	var sb strings.Builder
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size <= 1 {
			fmt.Fprintf(&sb, `\x%02X`, b[0])
			b = b[1:]
			continue
		}
		sb.WriteRune(r)
		b = b[size:]
	}
	return sb.String()
}
