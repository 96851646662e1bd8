// Package diffengine implements component C: a byte-level diff between
// two buffers, produced as an ordered list of Modifications, plus the
// machinery to apply that list both to raw bytes and to an annotation
// vector (component B) covering those bytes.
//
// A Modification's Index is expressed in a running coordinate frame: the
// position it refers to in the buffer as already modified by every
// Modification before it in the same Diff. This is what lets Apply walk
// the list applying each Modification's splice directly, with no index
// recomputation — and it is exactly the frame ApplyAnnotations threads
// an annotation vector through, modification by modification.
package diffengine

import (
	"fmt"

	"github.com/weavedoc/weave/payload"
)

// OpKind identifies which case of ModificationContent is populated.
type OpKind int

const (
	OpInsertion OpKind = iota
	OpTokenInsertion
	OpDeletion
)

func (k OpKind) String() string {
	switch k {
	case OpInsertion:
		return "Insertion"
	case OpTokenInsertion:
		return "TokenInsertion"
	case OpDeletion:
		return "Deletion"
	default:
		return "Unknown"
	}
}

// ModificationContent is the payload of one edit: an insertion of raw
// bytes, an insertion of tokenized content (carrying per-token
// metadata), or a deletion of a given byte length.
type ModificationContent struct {
	Kind   OpKind
	Bytes  []byte
	Tokens []payload.Token
	Length int
}

// Insertion builds a raw-byte insertion.
func Insertion(b []byte) ModificationContent {
	return ModificationContent{Kind: OpInsertion, Bytes: append([]byte(nil), b...)}
}

// TokenInsertion builds a tokenized insertion.
func TokenInsertion(tokens []payload.Token) ModificationContent {
	cloned := make([]payload.Token, len(tokens))
	for i, t := range tokens {
		cloned[i] = t.Clone()
	}
	return ModificationContent{Kind: OpTokenInsertion, Tokens: cloned}
}

// Deletion builds a deletion of the given byte length.
func Deletion(length int) ModificationContent {
	return ModificationContent{Kind: OpDeletion, Length: length}
}

// Len returns the number of bytes this content spans: the inserted byte
// count for Insertion/TokenInsertion, the removed byte count for
// Deletion.
func (c ModificationContent) Len() int {
	switch c.Kind {
	case OpInsertion:
		return len(c.Bytes)
	case OpTokenInsertion:
		total := 0
		for _, t := range c.Tokens {
			total += t.Len()
		}
		return total
	case OpDeletion:
		return c.Length
	default:
		return 0
	}
}

// IsEmpty reports whether this content has zero length.
func (c ModificationContent) IsEmpty() bool {
	return c.Len() == 0
}

// HasMetadata reports whether this content carries any token-level
// metadata. Only TokenInsertion can.
func (c ModificationContent) HasMetadata() bool {
	if c.Kind != OpTokenInsertion {
		return false
	}
	for _, t := range c.Tokens {
		if t.HasMetadata() {
			return true
		}
	}
	return false
}

// FlattenBytes returns the byte content this modification would splice
// in: the raw bytes for Insertion, the concatenated token bytes for
// TokenInsertion, or nil for Deletion.
func (c ModificationContent) FlattenBytes() []byte {
	return c.flattenBytes()
}

// flattenBytes returns the byte content to splice in for Insertion and
// TokenInsertion content.
func (c ModificationContent) flattenBytes() []byte {
	switch c.Kind {
	case OpInsertion:
		return c.Bytes
	case OpTokenInsertion:
		out := make([]byte, 0, c.Len())
		for _, t := range c.Tokens {
			out = append(out, t.Bytes...)
		}
		return out
	default:
		return nil
	}
}

// Modification is one edit applied at a position in the running
// coordinate frame described in the package doc.
type Modification struct {
	Index   int
	Content ModificationContent
}

// Apply splices this modification into data and returns the result. Data
// is not mutated in place; the returned slice may share no backing array
// with the input.
func (m Modification) Apply(data []byte) []byte {
	switch m.Content.Kind {
	case OpInsertion, OpTokenInsertion:
		insert := m.Content.flattenBytes()
		if m.Index < 0 || m.Index > len(data) {
			panic(fmt.Sprintf("diffengine: insertion index %d out of bounds for %d-byte buffer", m.Index, len(data)))
		}
		out := make([]byte, 0, len(data)+len(insert))
		out = append(out, data[:m.Index]...)
		out = append(out, insert...)
		out = append(out, data[m.Index:]...)
		return out
	case OpDeletion:
		end := m.Index + m.Content.Length
		if m.Index < 0 || end > len(data) {
			panic(fmt.Sprintf("diffengine: deletion range [%d, %d) out of bounds for %d-byte buffer", m.Index, end, len(data)))
		}
		out := make([]byte, 0, len(data)-m.Content.Length)
		out = append(out, data[:m.Index]...)
		out = append(out, data[end:]...)
		return out
	default:
		return data
	}
}
