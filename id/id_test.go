package id_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weavedoc/weave/id"
)

func TestNew(t *testing.T) {
	t.Run("produces distinct, non-nil ids", func(t *testing.T) {
		a := id.New()
		b := id.New()
		assert.False(t, a.IsNil())
		assert.False(t, b.IsNil())
		assert.NotEqual(t, a, b)
	})

	t.Run("orders ascending by creation order", func(t *testing.T) {
		a := id.New()
		b := id.New()
		assert.True(t, a.Less(b))
		assert.True(t, a.Compare(b) < 0)
		assert.True(t, b.Compare(a) > 0)
	})
}

func TestFromTime(t *testing.T) {
	t.Run("anchors the timestamp component", func(t *testing.T) {
		when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		got := id.FromTime(when)
		assert.Equal(t, when.UnixMilli(), got.Time().UnixMilli())
	})

	t.Run("two ids from the same time still differ", func(t *testing.T) {
		when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		a := id.FromTime(when)
		b := id.FromTime(when)
		assert.NotEqual(t, a, b)
	})
}

func TestStringRoundTrip(t *testing.T) {
	original := id.New()
	s := original.String()
	parsed, err := id.Parse(s)
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestBytesRoundTrip(t *testing.T) {
	original := id.New()
	parsed, err := id.FromBytes(original.Bytes())
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestParseInvalid(t *testing.T) {
	_, err := id.Parse("not-a-valid-ulid")
	assert.Error(t, err)
}

func TestNilIsZeroValue(t *testing.T) {
	var zero id.Id
	assert.True(t, zero.IsNil())
	assert.Equal(t, id.Nil, zero)
}
