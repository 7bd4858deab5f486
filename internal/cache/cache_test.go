package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffboody/osmdb-sub002/internal/model"
)

func TestGetNodeLoadsOnMissAndHitsOnSecondCall(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)

	loads := 0
	load := func() (*model.Node, error) {
		loads++
		return &model.Node{ID: 1, Lat: 10, Lon: 20}, nil
	}

	n1, h1, err := c.GetNode(1, load)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
	assert.Equal(t, int64(1), n1.ID)

	n2, h2, err := c.GetNode(1, load)
	require.NoError(t, err)
	assert.Equal(t, 1, loads, "second fetch should hit the cache, not reload")
	assert.Same(t, n1, n2)

	h1.Release()
	h2.Release()
	assert.Equal(t, 1, c.Len())
}

func TestGetWayReturnsIndependentMutableCopies(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)

	load := func() (*model.Way, error) {
		return &model.Way{ID: 5, Nds: []int64{1, 2, 3}}, nil
	}

	w1, h1, err := c.GetWay(5, load)
	require.NoError(t, err)
	w2, h2, err := c.GetWay(5, load)
	require.NoError(t, err)

	w1.Nds[0] = 99
	assert.NotEqual(t, w1.Nds[0], w2.Nds[0])

	h1.Release()
	h2.Release()
}

func TestTrimEvictsOnlyUnreferencedEntries(t *testing.T) {
	c, err := New(1) // tiny budget so every insert exceeds it
	require.NoError(t, err)

	load := func(id int64) func() (*model.Node, error) {
		return func() (*model.Node, error) { return &model.Node{ID: id}, nil }
	}

	_, pinned, err := c.GetNode(1, load(1))
	require.NoError(t, err)
	_, unpinned, err := c.GetNode(2, load(2))
	require.NoError(t, err)
	unpinned.Release()

	c.Trim()

	assert.Equal(t, 1, c.Len())
	pinned.Release()
}

func TestLoadErrorIsPropagatedAndNotCached(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)

	boom := assert.AnError
	_, _, err = c.GetNode(1, func() (*model.Node, error) { return nil, boom })
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())
}
