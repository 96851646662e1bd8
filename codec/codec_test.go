package codec_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weavedoc/weave/codec"
	"github.com/weavedoc/weave/content"
	"github.com/weavedoc/weave/id"
	"github.com/weavedoc/weave/weave"
)

func buildSampleWeave(t *testing.T) (*weave.Weave, id.Id, id.Id) {
	t.Helper()
	w := weave.New()
	w.Metadata()["title"] = "sample document"

	root := weave.NewNode(id.New(), content.NewSnippet([]byte("hello "), nil, map[string]string{"lang": "en"}))
	root.Active = true
	rootID, ok := w.AddNode(root, nil, false)
	require.True(t, ok)

	child := weave.NewNode(id.New(), content.NewSnippet([]byte("world"), nil, nil))
	child.Active = true
	child.Bookmarked = true
	child.Parents.Add(rootID)
	childID, ok := w.AddNode(child, nil, false)
	require.True(t, ok)

	return w, rootID, childID
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	w, rootID, childID := buildSampleWeave(t)

	data, err := codec.Encode(w)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	decoded, err := codec.Decode(data)
	require.NoError(t, err)

	root, _, ok := decoded.GetNode(rootID)
	require.True(t, ok)
	assert.Equal(t, "hello ", string(root.Content.(content.Snippet).Bytes))
	assert.True(t, root.Active)

	child, _, ok := decoded.GetNode(childID)
	require.True(t, ok)
	assert.True(t, child.Bookmarked)
	assert.Equal(t, decoded.Metadata()["title"], "sample document")

	timelines := decoded.GetActiveTimelines()
	require.Len(t, timelines, 1)
	assert.Equal(t, "hello world", string(timelines[0].Bytes()))
}

func buildMultiModelWeave(t *testing.T) *weave.Weave {
	t.Helper()
	w := weave.New()
	w.Metadata()["title"] = "sample document"
	w.Metadata()["owner"] = "alice"
	w.Metadata()["status"] = "draft"

	modelA := id.New()
	rootContent := content.NewSnippet(
		[]byte("hello "),
		&content.ContentModel{ID: modelA, Parameters: []content.Param{{Key: "temperature", Value: "0.7"}}},
		map[string]string{"lang": "en", "tone": "neutral", "source": "draft"},
	)
	root := weave.NewNode(id.New(), rootContent)
	root.Active = true
	rootID, ok := w.AddNode(root, &weave.Model{ID: modelA, Label: "model-a", Metadata: map[string]string{"provider": "x", "version": "1"}}, false)
	require.True(t, ok)

	modelB := id.New()
	childContent := content.NewSnippet(
		[]byte("world"),
		&content.ContentModel{ID: modelB, Parameters: []content.Param{{Key: "temperature", Value: "0.2"}}},
		map[string]string{"lang": "en", "tone": "formal"},
	)
	child := weave.NewNode(id.New(), childContent)
	child.Active = true
	child.Parents.Add(rootID)
	_, ok = w.AddNode(child, &weave.Model{ID: modelB, Label: "model-b", Metadata: map[string]string{"provider": "y", "version": "2"}}, false)
	require.True(t, ok)

	return w
}

func TestEncodeIsByteIdenticalAcrossReencodes(t *testing.T) {
	w := buildMultiModelWeave(t)

	first, err := codec.Encode(w)
	require.NoError(t, err)

	decoded, err := codec.Decode(first)
	require.NoError(t, err)

	second, err := codec.Encode(decoded)
	require.NoError(t, err)

	assert.Equal(t, first, second, "re-encoding an identical weave must be byte-equal")

	// Encoding the same in-memory weave repeatedly must also agree, since
	// map iteration order (Go maps, and msgpack's default encoder) is not
	// guaranteed stable across calls.
	for i := 0; i < 5; i++ {
		again, err := codec.Encode(w)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSaveLoadFileRoundTrip(t *testing.T) {
	w, rootID, _ := buildSampleWeave(t)
	path := filepath.Join(t.TempDir(), "doc.weave")

	require.NoError(t, codec.SaveToFile(w, path))

	loaded, err := codec.LoadFromFile(path)
	require.NoError(t, err)

	n, _, ok := loaded.GetNode(rootID)
	require.True(t, ok)
	assert.Equal(t, "hello ", string(n.Content.(content.Snippet).Bytes))
}
