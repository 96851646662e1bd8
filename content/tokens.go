package content

import (
	"github.com/weavedoc/weave/annotation"
	"github.com/weavedoc/weave/payload"
)

// Tokens is content split into a sequence of byte runs, each carrying
// its own optional metadata (e.g. a per-token generation probability).
type Tokens struct {
	Toks []payload.Token

	model    *ContentModel
	metadata map[string]string
}

// NewTokens builds a Tokens value with optional model and metadata.
func NewTokens(tokens []payload.Token, model *ContentModel, metadata map[string]string) Tokens {
	return Tokens{Toks: cloneTokens(tokens), model: model, metadata: metadata}
}

func (Tokens) isNodeContent() {}

// Model implements NodeContent.
func (t Tokens) Model() *ContentModel { return t.model }

// Metadata implements NodeContent.
func (t Tokens) Metadata() map[string]string { return t.metadata }

// HasMetadata implements NodeContent.
func (t Tokens) HasMetadata() bool {
	if t.model != nil || hasMapMetadata(t.metadata) {
		return true
	}
	for _, tok := range t.Toks {
		if tok.HasMetadata() {
			return true
		}
	}
	return false
}

// IsEmpty implements NodeContent: true only if every token is empty (a
// metadata-only token still counts as empty by byte length).
func (t Tokens) IsEmpty() bool {
	for _, tok := range t.Toks {
		if !tok.IsEmpty() {
			return false
		}
	}
	return true
}

// String implements NodeContent.
func (t Tokens) String() string {
	return renderBytes(t.IntoBytes())
}

// IntoBytes flattens every token's bytes in order.
func (t Tokens) IntoBytes() []byte {
	out := make([]byte, 0, t.Len())
	for _, tok := range t.Toks {
		out = append(out, tok.Bytes...)
	}
	return out
}

// Len sums the byte length of every token.
func (t Tokens) Len() int {
	total := 0
	for _, tok := range t.Toks {
		total += tok.Len()
	}
	return total
}

// Annotations yields one ContentAnnotation per token, spanning that
// token's byte range with its metadata attached.
func (t Tokens) Annotations() []annotation.ContentAnnotation {
	out := make([]annotation.ContentAnnotation, 0, len(t.Toks))
	cursor := 0
	for _, tok := range t.Toks {
		out = append(out, annotation.ContentAnnotation{
			Span:     annotation.Range{Start: cursor, End: cursor + tok.Len()},
			Metadata: tok.Metadata,
		})
		cursor += tok.Len()
	}
	return out
}

func (t Tokens) split(i int) (Tokens, Tokens, bool) {
	if i < 0 || i > t.Len() {
		return Tokens{}, Tokens{}, false
	}
	cursor := 0
	for idx, tok := range t.Toks {
		tokEnd := cursor + tok.Len()
		if i < tokEnd || (i == tokEnd && idx == len(t.Toks)-1 && i == t.Len()) {
			if i == cursor {
				left := Tokens{Toks: cloneTokens(t.Toks[:idx]), model: t.model, metadata: t.metadata}
				right := Tokens{Toks: cloneTokens(t.Toks[idx:]), model: t.model, metadata: t.metadata}
				return left, right, true
			}
			tokLeft, tokRight, ok := tok.Split(i - cursor)
			if !ok {
				return Tokens{}, Tokens{}, false
			}
			leftToks := cloneTokens(t.Toks[:idx])
			if !tokLeft.IsEmpty() || tokLeft.HasMetadata() {
				leftToks = append(leftToks, tokLeft)
			}
			rightToks := []payload.Token{tokRight}
			rightToks = append(rightToks, cloneTokens(t.Toks[idx+1:])...)
			left := Tokens{Toks: leftToks, model: t.model, metadata: t.metadata}
			right := Tokens{Toks: rightToks, model: t.model, metadata: t.metadata}
			return left, right, true
		}
		cursor = tokEnd
	}
	// i exactly equals the total length: split at the very end.
	if i == t.Len() {
		left := Tokens{Toks: cloneTokens(t.Toks), model: t.model, metadata: t.metadata}
		right := Tokens{Toks: nil, model: t.model, metadata: t.metadata}
		return left, right, true
	}
	return Tokens{}, Tokens{}, false
}
