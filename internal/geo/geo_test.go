package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceZeroForSamePoint(t *testing.T) {
	d := Distance(40.0, -105.0, 40.0, -105.0)
	assert.InDelta(t, 0, d, 1e-9)
}

func TestDistancePositiveForDistinctPoints(t *testing.T) {
	d := Distance(40.0, -105.0, 41.0, -105.0)
	assert.Greater(t, d, 0.0)
}

func TestCoordToTileRoundTripsThroughTileToCoord(t *testing.T) {
	const zoom = 12
	lat, lon := 40.061295, -105.214552
	tx, ty := CoordToTile(lat, lon, zoom)

	latT, lonL, latB, lonR := TileToCoord(tx, ty, zoom)
	require.Less(t, latB, latT)
	require.Less(t, lonL, lonR)
	assert.GreaterOrEqual(t, lat, latB)
	assert.LessOrEqual(t, lat, latT)
	assert.GreaterOrEqual(t, lon, lonL)
	assert.LessOrEqual(t, lon, lonR)
}

func TestClassifyQuadrant(t *testing.T) {
	tlc := Vec3{X: -1, Y: 0, Z: 1}
	trc := Vec3{X: 1, Y: 0, Z: 1}

	assert.Equal(t, QuadrantTop, ClassifyQuadrant(Vec3{X: 0, Y: 0, Z: 1}, tlc, trc))
	assert.Equal(t, QuadrantLeft, ClassifyQuadrant(Vec3{X: -1, Y: 0, Z: 0}, tlc, trc))
	assert.Equal(t, QuadrantBottom, ClassifyQuadrant(Vec3{X: 0, Y: 0, Z: -1}, tlc, trc))
	assert.Equal(t, QuadrantRight, ClassifyQuadrant(Vec3{X: 1, Y: 0, Z: 0}, tlc, trc))
}

func TestVec3NormalizeOfZeroVectorIsZero(t *testing.T) {
	v := Vec3{}.Normalize()
	assert.Equal(t, Vec3{}, v)
}

func TestVec3NormalizeHasUnitLength(t *testing.T) {
	v := Vec3{X: 3, Y: 4, Z: 0}.Normalize()
	assert.InDelta(t, 1.0, v.Len(), 1e-9)
	assert.False(t, math.IsNaN(v.X))
}
