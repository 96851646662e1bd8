package content

import (
	"fmt"

	"github.com/weavedoc/weave/diffengine"
)

// Diff is content expressed as a byte-level edit script against the
// concatenation of its node's parents, rather than as literal bytes. It
// is never concatable: Merge and Split are undefined on it (spec §4.A).
type Diff struct {
	Script diffengine.Diff

	model    *ContentModel
	metadata map[string]string
}

// NewDiff builds a Diff content value from an edit script.
func NewDiff(script diffengine.Diff, model *ContentModel, metadata map[string]string) Diff {
	return Diff{Script: script, model: model, metadata: metadata}
}

func (Diff) isNodeContent() {}

// Model implements NodeContent.
func (d Diff) Model() *ContentModel { return d.model }

// Metadata implements NodeContent.
func (d Diff) Metadata() map[string]string { return d.metadata }

// HasMetadata implements NodeContent: true if the model, content-level
// metadata, or any inserted token inside the script carries metadata.
func (d Diff) HasMetadata() bool {
	if d.model != nil || hasMapMetadata(d.metadata) {
		return true
	}
	for _, m := range d.Script.Modifications {
		if m.Content.HasMetadata() {
			return true
		}
	}
	return false
}

// IsEmpty implements NodeContent: a Diff is empty when its script carries
// no modifications at all.
func (d Diff) IsEmpty() bool {
	return len(d.Script.Modifications) == 0
}

// String implements NodeContent: diffs render as their modification
// count summary rather than as bytes, since a Diff has no bytes of its
// own outside the context of the buffer it patches.
func (d Diff) String() string {
	if d.IsEmpty() {
		return "No Content"
	}
	return fmt.Sprintf("Diff (%s)", d.Script.Count().String())
}

// Apply runs the diff's script against base, producing the node's
// resolved bytes.
func (d Diff) Apply(base []byte) []byte {
	return d.Script.Apply(base)
}
