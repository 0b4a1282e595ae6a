package cache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lkmbench/lkmbench/core"
)

func TestKeyIsContentAddressed(t *testing.T) {
	require.Equal(t, Key([]byte("abc")), Key([]byte("abc")))
	require.NotEqual(t, Key([]byte("abc")), Key([]byte("abd")))
}

func TestCacheRoundTrip(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)

	key := Key([]byte("int x;"))
	_, ok := c.Get(key)
	require.False(t, ok)

	want := core.EvaluationResult{OverallScore: 0.42}
	c.Add(key, want)

	got, ok := c.Get(key)
	require.True(t, ok)
	require.Equal(t, want, got)
	require.Equal(t, 1, c.Len())
}

func TestNilCacheIsInert(t *testing.T) {
	var c *ResultCache
	require.NotPanics(t, func() {
		c.Add("k", core.EvaluationResult{})
		_, ok := c.Get("k")
		require.False(t, ok)
		require.Zero(t, c.Len())
	})
}
