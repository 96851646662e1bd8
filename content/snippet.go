package content

import (
	"github.com/weavedoc/weave/annotation"
	"github.com/weavedoc/weave/payload"
)

// Snippet is opaque byte content: the simplest NodeContent variant.
type Snippet struct {
	Bytes []byte

	model    *ContentModel
	metadata map[string]string
}

// NewSnippet builds a Snippet with optional model and metadata.
func NewSnippet(b []byte, model *ContentModel, metadata map[string]string) Snippet {
	return Snippet{Bytes: append([]byte(nil), b...), model: model, metadata: metadata}
}

func (Snippet) isNodeContent() {}

// Model implements NodeContent.
func (s Snippet) Model() *ContentModel { return s.model }

// Metadata implements NodeContent.
func (s Snippet) Metadata() map[string]string { return s.metadata }

// HasMetadata implements NodeContent.
func (s Snippet) HasMetadata() bool {
	return s.model != nil || hasMapMetadata(s.metadata)
}

// IsEmpty implements NodeContent.
func (s Snippet) IsEmpty() bool {
	return len(s.Bytes) == 0
}

// String implements NodeContent.
func (s Snippet) String() string {
	return renderBytes(s.Bytes)
}

// IntoBytes returns the snippet's raw bytes.
func (s Snippet) IntoBytes() []byte {
	return s.Bytes
}

// Len returns the byte length of the snippet.
func (s Snippet) Len() int {
	return len(s.Bytes)
}

// Annotations yields the single ContentAnnotation spanning this
// snippet's whole byte range, carrying no per-span metadata (a Snippet
// has none to attach at this granularity).
func (s Snippet) Annotations() []annotation.ContentAnnotation {
	return []annotation.ContentAnnotation{
		{Span: annotation.Range{Start: 0, End: len(s.Bytes)}},
	}
}

func (s Snippet) split(i int) (Snippet, Snippet, bool) {
	if i < 0 || i > len(s.Bytes) {
		return Snippet{}, Snippet{}, false
	}
	left := Snippet{Bytes: append([]byte(nil), s.Bytes[:i]...), model: s.model, metadata: s.metadata}
	right := Snippet{Bytes: append([]byte(nil), s.Bytes[i:]...), model: s.model, metadata: s.metadata}
	return left, right, true
}

// Equal reports structural equality between two snippets.
func (s Snippet) Equal(other Snippet) bool {
	if !payload.BytesEqual(s.Bytes, other.Bytes) {
		return false
	}
	if !modelsEqual(s.model, other.model) {
		return false
	}
	return payload.MetadataEqual(s.metadata, other.metadata)
}
