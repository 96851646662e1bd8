package content

// Blank is the canonical empty content: zero bytes, no model, no
// metadata. Reduce collapses any other empty, metadata-less content into
// Blank so equality checks and deduplication never have to treat "empty
// Snippet" and "empty Tokens" as distinct states.
type Blank struct{}

func (Blank) isNodeContent() {}

// Model implements NodeContent.
func (Blank) Model() *ContentModel { return nil }

// Metadata implements NodeContent.
func (Blank) Metadata() map[string]string { return nil }

// HasMetadata implements NodeContent.
func (Blank) HasMetadata() bool { return false }

// IsEmpty implements NodeContent.
func (Blank) IsEmpty() bool { return true }

// String implements NodeContent.
func (Blank) String() string { return "No Content" }

// IntoBytes returns the empty byte slice.
func (Blank) IntoBytes() []byte { return nil }

// Len returns 0.
func (Blank) Len() int { return 0 }
