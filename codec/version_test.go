package codec

import (
	"bytes"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/weavedoc/weave/content"
	"github.com/weavedoc/weave/id"
	"github.com/weavedoc/weave/weave"
)

func TestDecodeRejectsFutureVersion(t *testing.T) {
	w := weave.New()
	n := weave.NewNode(id.New(), content.NewSnippet([]byte("x"), nil, nil))
	_, ok := w.AddNode(n, nil, false)
	require.True(t, ok)

	cw := toCompact(w)
	cw.Version = CurrentVersion + 1

	raw, err := msgpack.Marshal(cw)
	require.NoError(t, err)

	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	_, err = zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = Decode(buf.Bytes())
	assert.Error(t, err)
}
