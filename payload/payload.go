// Package payload holds the small, dependency-free value types shared by
// the content and diff-engine layers: key/value parameters attached to a
// ContentModel, and the (bytes, metadata) pair that makes up one token of
// tokenized content. Keeping them here, rather than in content or
// diffengine, avoids an import cycle between those two packages (content
// wraps a diffengine.Diff; diffengine's TokenInsertion carries Token
// values) while keeping both shapes in one obvious place.
package payload

import "maps"

// Param is one (key, value) pair of a ContentModel's generation
// parameters. A slice of Param preserves insertion order, unlike a map.
type Param struct {
	Key   string
	Value string
}

// Token is one element of tokenized content: a byte run with optional
// per-token metadata (for example, a generation probability).
type Token struct {
	Bytes    []byte
	Metadata map[string]string
}

// Len returns the byte length of the token's content.
func (t Token) Len() int {
	return len(t.Bytes)
}

// IsEmpty reports whether the token carries no bytes. Metadata-only
// tokens are still "empty" by this measure; callers that care about
// metadata check it separately.
func (t Token) IsEmpty() bool {
	return len(t.Bytes) == 0
}

// HasMetadata reports whether the token carries any metadata.
func (t Token) HasMetadata() bool {
	return len(t.Metadata) > 0
}

// Clone returns a deep copy of the token.
func (t Token) Clone() Token {
	out := Token{Bytes: append([]byte(nil), t.Bytes...)}
	if t.Metadata != nil {
		out.Metadata = maps.Clone(t.Metadata)
	}
	return out
}

// Split divides the token at byte offset i, producing two tokens that
// both carry a copy of the original metadata. Returns ok=false if i is
// out of bounds.
func (t Token) Split(i int) (left, right Token, ok bool) {
	if i < 0 || i > len(t.Bytes) {
		return Token{}, Token{}, false
	}
	left = Token{Bytes: append([]byte(nil), t.Bytes[:i]...)}
	right = Token{Bytes: append([]byte(nil), t.Bytes[i:]...)}
	if t.Metadata != nil {
		left.Metadata = maps.Clone(t.Metadata)
		right.Metadata = maps.Clone(t.Metadata)
	}
	return left, right, true
}

// Equal reports structural equality between two tokens.
func (t Token) Equal(other Token) bool {
	if !bytesEqual(t.Bytes, other.Bytes) {
		return false
	}
	return metadataEqual(t.Metadata, other.Metadata)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func metadataEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// ParamsEqual reports structural equality between two parameter lists,
// order-sensitive (parameters are a list, not a set).
func ParamsEqual(a, b []Param) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// MetadataEqual reports structural equality between two metadata maps.
func MetadataEqual(a, b map[string]string) bool {
	return metadataEqual(a, b)
}

// BytesEqual reports structural equality between two byte slices.
func BytesEqual(a, b []byte) bool {
	return bytesEqual(a, b)
}
