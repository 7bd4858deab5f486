package tile

import (
	"context"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffboody/osmdb-sub002/internal/cache"
	"github.com/jeffboody/osmdb-sub002/internal/geo"
	"github.com/jeffboody/osmdb-sub002/internal/model"
	"github.com/jeffboody/osmdb-sub002/internal/store"
	"github.com/jeffboody/osmdb-sub002/pkg/osmdbtypes"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "test.db"), 1)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDriverBuildProducesAWellFormedTileContainingSeededData(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	const zoom = 10
	tx, ty := geo.CoordToTile(40.0, -105.2, zoom)
	latT, lonL, latB, lonR := geo.TileToCoord(tx, ty, zoom)
	centerLat := (latT + latB) / 2
	centerLon := (lonL + lonR) / 2

	require.NoError(t, s.AddNode(ctx, &model.Node{ID: 1, Lat: centerLat, Lon: centerLon, Name: "Peak", HasName: true}, 5))
	require.NoError(t, s.AddNode(ctx, &model.Node{ID: 2, Lat: centerLat + 0.001, Lon: centerLon + 0.001}, 5))

	wayBBox := osmdbtypes.BoundingBox{LatT: centerLat + 0.001, LonL: centerLon, LatB: centerLat, LonR: centerLon + 0.001}
	w := &model.Way{ID: 10, Name: "Trail", HasName: true, Selected: true, BBox: wayBBox, Nds: []int64{1, 2}}
	require.NoError(t, s.AddWay(ctx, w, 5))

	c, err := cache.New(0)
	require.NoError(t, err)

	d := &Driver{Store: s, Cache: c}
	blob, err := d.Build(ctx, 0, zoom, tx, ty, 7)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(blob), 20)

	assert.Equal(t, Magic, binary.LittleEndian.Uint32(blob[0:4]))
	assert.Equal(t, Version, binary.LittleEndian.Uint32(blob[4:8]))
	assert.Equal(t, int32(zoom), int32(binary.LittleEndian.Uint32(blob[8:12])))
	countRels := int32(binary.LittleEndian.Uint32(blob[28:32]))
	countWays := int32(binary.LittleEndian.Uint32(blob[32:36]))
	assert.Equal(t, int32(0), countRels)
	assert.Equal(t, int32(1), countWays)
}

func TestDriverBuildOnEmptyTileReturnsHeaderOnlyBlob(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	c, err := cache.New(0)
	require.NoError(t, err)

	d := &Driver{Store: s, Cache: c}
	blob, err := d.Build(ctx, 0, 3, 1, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, Magic, binary.LittleEndian.Uint32(blob[0:4]))
}
