package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeffboody/osmdb-sub002/internal/model"
)

func nodeLookup(nodes map[int64]*model.Node) NodeLookup {
	return func(id int64) (*model.Node, bool) {
		n, ok := nodes[id]
		return n, ok
	}
}

func TestSampleKeepsShortWaysUnchanged(t *testing.T) {
	w := &model.Way{Nds: []int64{1, 2}}
	nodes := map[int64]*model.Node{
		1: {ID: 1, Lat: 0, Lon: 0},
		2: {ID: 2, Lat: 0, Lon: 1},
	}
	Sample(w, 14, nodeLookup(nodes))
	assert.Equal(t, []int64{1, 2}, w.Nds)
}

func TestSampleAlwaysKeepsFirstAndLast(t *testing.T) {
	nodes := map[int64]*model.Node{
		1: {ID: 1, Lat: 0, Lon: 0},
		2: {ID: 2, Lat: 0, Lon: 0.0000001},
		3: {ID: 3, Lat: 0, Lon: 0.0000002},
		4: {ID: 4, Lat: 0, Lon: 1},
	}
	w := &model.Way{Nds: []int64{1, 2, 3, 4}}
	Sample(w, 14, nodeLookup(nodes))

	assert.Equal(t, int64(1), w.Nds[0])
	assert.Equal(t, int64(4), w.Nds[len(w.Nds)-1])
}

func TestSampleDropsNodesCloserThanThreshold(t *testing.T) {
	nodes := map[int64]*model.Node{
		1: {ID: 1, Lat: 0, Lon: 0},
		2: {ID: 2, Lat: 0, Lon: 0.0000001}, // far closer than any z14 threshold
		3: {ID: 3, Lat: 0, Lon: 5},
	}
	w := &model.Way{Nds: []int64{1, 2, 3}}
	Sample(w, 14, nodeLookup(nodes))

	assert.Equal(t, []int64{1, 3}, w.Nds)
}

func TestSampleToleratesMissingInteriorNode(t *testing.T) {
	nodes := map[int64]*model.Node{
		1: {ID: 1, Lat: 0, Lon: 0},
		3: {ID: 3, Lat: 0, Lon: 5},
	}
	w := &model.Way{Nds: []int64{1, 2, 3}}
	Sample(w, 14, nodeLookup(nodes))

	assert.Equal(t, []int64{1, 3}, w.Nds)
}

func TestMinDistIncreasesWithLowerZoom(t *testing.T) {
	assert.Greater(t, MinDist(4), MinDist(10))
	assert.Greater(t, MinDist(10), MinDist(16))
}
