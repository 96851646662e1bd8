package content_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weavedoc/weave/content"
	"github.com/weavedoc/weave/diffengine"
	"github.com/weavedoc/weave/id"
	"github.com/weavedoc/weave/payload"
)

func TestMergeSnippetSnippet(t *testing.T) {
	l := content.NewSnippet([]byte("Hello, "), nil, nil)
	r := content.NewSnippet([]byte("World"), nil, nil)
	merged := content.Merge(l, r)
	snip, ok := merged.(content.Snippet)
	require.True(t, ok)
	assert.Equal(t, "Hello, World", string(snip.IntoBytes()))
}

func TestMergeSnippetTokens(t *testing.T) {
	l := content.NewSnippet([]byte("Hello"), nil, nil)
	r := content.NewTokens([]payload.Token{{Bytes: []byte(" World")}}, nil, nil)
	merged := content.Merge(l, r)
	toks, ok := merged.(content.Tokens)
	require.True(t, ok)
	assert.Equal(t, "Hello World", string(toks.IntoBytes()))
}

func TestMergeBlankIsIdentity(t *testing.T) {
	r := content.NewSnippet([]byte("World"), nil, nil)
	merged := content.Merge(content.Blank{}, r)
	assert.Equal(t, r, merged)
}

func TestMergeNonMergeablePanics(t *testing.T) {
	diff := content.NewDiff(diffengine.Diff{}, nil, nil)
	snip := content.NewSnippet([]byte("x"), nil, nil)
	assert.Panics(t, func() {
		content.Merge(diff, snip)
	})
}

func TestMergeDifferentModelsPanics(t *testing.T) {
	m1 := &content.ContentModel{ID: id.New()}
	m2 := &content.ContentModel{ID: id.New()}
	l := content.NewSnippet([]byte("a"), m1, nil)
	r := content.NewSnippet([]byte("b"), m2, nil)
	assert.False(t, content.IsMergeable(l, r))
	assert.Panics(t, func() {
		content.Merge(l, r)
	})
}

func TestSplitThenMergeRoundTrips(t *testing.T) {
	original := content.NewSnippet([]byte("Hello, World"), nil, nil)
	left, right, ok := content.Split(original, 7)
	require.True(t, ok)
	merged := content.Merge(left, right)
	snip, ok := merged.(content.Snippet)
	require.True(t, ok)
	assert.Equal(t, "Hello, World", string(snip.IntoBytes()))
}

func TestSplitTokensAtTokenBoundary(t *testing.T) {
	toks := content.NewTokens([]payload.Token{
		{Bytes: []byte("foo")},
		{Bytes: []byte("bar")},
	}, nil, nil)
	left, right, ok := content.Split(toks, 3)
	require.True(t, ok)
	assert.Equal(t, "foo", left.String())
	assert.Equal(t, "bar", right.String())
}

func TestSplitTokensInsideToken(t *testing.T) {
	toks := content.NewTokens([]payload.Token{
		{Bytes: []byte("foobar")},
	}, nil, nil)
	left, right, ok := content.Split(toks, 3)
	require.True(t, ok)
	assert.Equal(t, "foo", left.String())
	assert.Equal(t, "bar", right.String())
}

func TestSplitDiffAlwaysFails(t *testing.T) {
	diff := content.NewDiff(diffengine.Diff{}, nil, nil)
	_, _, ok := content.Split(diff, 0)
	assert.False(t, ok)
}

func TestSplitOutOfBoundsFails(t *testing.T) {
	snip := content.NewSnippet([]byte("abc"), nil, nil)
	_, _, ok := content.Split(snip, 10)
	assert.False(t, ok)
}

func TestReduceEmptySnippetBecomesBlank(t *testing.T) {
	snip := content.NewSnippet(nil, nil, nil)
	reduced := content.Reduce(snip)
	_, isBlank := reduced.(content.Blank)
	assert.True(t, isBlank)
}

func TestReduceSingleTokenBecomesSnippet(t *testing.T) {
	toks := content.NewTokens([]payload.Token{{Bytes: []byte("hi")}}, nil, nil)
	reduced := content.Reduce(toks)
	snip, ok := reduced.(content.Snippet)
	require.True(t, ok)
	assert.Equal(t, "hi", string(snip.IntoBytes()))
}

func TestReduceKeepsMetadataCarryingEmptyToken(t *testing.T) {
	toks := content.NewTokens([]payload.Token{
		{Bytes: nil, Metadata: map[string]string{"k": "v"}},
	}, nil, nil)
	reduced := content.Reduce(toks)
	_, stillTokens := reduced.(content.Tokens)
	assert.True(t, stillTokens)
}

func TestStringRenderingEmptyContent(t *testing.T) {
	assert.Equal(t, "No Content", content.Blank{}.String())
	assert.Equal(t, "No Content", content.NewSnippet(nil, nil, nil).String())
}

func TestStringRenderingInvalidUTF8(t *testing.T) {
	snip := content.NewSnippet([]byte{0x68, 0x69, 0xff}, nil, nil)
	assert.Equal(t, `hi\xFF`, snip.String())
}

func TestIntoDiffFromSnippet(t *testing.T) {
	snip := content.NewSnippet([]byte("new"), nil, nil)
	diff, ok := content.Into(snip, 2, 5)
	require.True(t, ok)
	assert.False(t, diff.IsEmpty())
	assert.Equal(t, "new", string(diff.Apply([]byte("abcde"))[2:]))
}

func TestIntoDiffFromBlankFails(t *testing.T) {
	_, ok := content.Into(content.Blank{}, 0, 0)
	assert.False(t, ok)
}
