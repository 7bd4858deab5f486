package join

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffboody/osmdb-sub002/internal/model"
)

// straightLine returns a node lookup for three collinear nodes along
// the equator, spaced one degree of longitude apart, so the angle test
// at the shared endpoint always passes (cosine ~1).
func straightLine() func(id int64) (*model.Node, bool) {
	nodes := map[int64]*model.Node{
		1: {ID: 1, Lat: 0, Lon: 0},
		2: {ID: 2, Lat: 0, Lon: 1},
		3: {ID: 3, Lat: 0, Lon: 2},
		4: {ID: 4, Lat: 0, Lon: 3},
	}
	return func(id int64) (*model.Node, bool) {
		n, ok := nodes[id]
		return n, ok
	}
}

func TestJoinMergesCollinearMatchingWays(t *testing.T) {
	working := map[int64]*model.Way{
		10: {ID: 10, Class: 1, Nds: []int64{1, 2}},
		20: {ID: 20, Class: 1, Nds: []int64{2, 3}},
	}
	survivors := Join(working, straightLine())

	require.Len(t, survivors, 1)
	merged := working[survivors[0]]
	assert.Equal(t, []int64{1, 2, 3}, merged.Nds)
}

func TestJoinChainsTransitively(t *testing.T) {
	working := map[int64]*model.Way{
		10: {ID: 10, Class: 1, Nds: []int64{1, 2}},
		20: {ID: 20, Class: 1, Nds: []int64{2, 3}},
		30: {ID: 30, Class: 1, Nds: []int64{3, 4}},
	}
	survivors := Join(working, straightLine())

	require.Len(t, survivors, 1)
	merged := working[survivors[0]]
	assert.Equal(t, []int64{1, 2, 3, 4}, merged.Nds)
}

func TestJoinBlockedByClassMismatch(t *testing.T) {
	working := map[int64]*model.Way{
		10: {ID: 10, Class: 1, Nds: []int64{1, 2}},
		20: {ID: 20, Class: 2, Nds: []int64{2, 3}},
	}
	survivors := Join(working, straightLine())

	assert.Len(t, survivors, 2)
}

func TestJoinBlockedByNameMismatch(t *testing.T) {
	working := map[int64]*model.Way{
		10: {ID: 10, Class: 1, HasName: true, Name: "Main St", Nds: []int64{1, 2}},
		20: {ID: 20, Class: 1, HasName: true, Name: "Elm St", Nds: []int64{2, 3}},
	}
	survivors := Join(working, straightLine())

	assert.Len(t, survivors, 2)
}

func TestJoinBlockedBySharpAngle(t *testing.T) {
	nodes := map[int64]*model.Node{
		1: {ID: 1, Lat: 0, Lon: 0},
		2: {ID: 2, Lat: 0, Lon: 1},
		3: {ID: 3, Lat: 1, Lon: 1}, // sharp turn north at node 2
	}
	lookup := func(id int64) (*model.Node, bool) {
		n, ok := nodes[id]
		return n, ok
	}
	working := map[int64]*model.Way{
		10: {ID: 10, Class: 1, Nds: []int64{1, 2}},
		20: {ID: 20, Class: 1, Nds: []int64{2, 3}},
	}
	survivors := Join(working, lookup)

	assert.Len(t, survivors, 2)
}

func TestJoinSkipsLoops(t *testing.T) {
	working := map[int64]*model.Way{
		10: {ID: 10, Class: 1, Nds: []int64{1, 2, 3, 1}},
	}
	survivors := Join(working, straightLine())

	assert.Len(t, survivors, 1)
	assert.Equal(t, []int64{1, 2, 3, 1}, working[survivors[0]].Nds)
}
