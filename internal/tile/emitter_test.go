package tile

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffboody/osmdb-sub002/pkg/osmdbtypes"
)

func TestBeginTileWritesHeaderInOrder(t *testing.T) {
	e := New()
	e.BeginTile(12, 3, 4, 99, 0, 0, 1, osmdbtypes.BoundingBox{LatT: 1, LonL: -1, LatB: -1, LonR: 1})

	require.NoError(t, e.AddNode(5, 0, Point16{}, "x"))
	buf, n := e.EndTile()
	require.Equal(t, n, len(buf))
	require.GreaterOrEqual(t, len(buf), 32)

	assert.Equal(t, Magic, binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, Version, binary.LittleEndian.Uint32(buf[4:8]))
	assert.Equal(t, int32(12), int32(binary.LittleEndian.Uint32(buf[8:12])))
	assert.Equal(t, int32(3), int32(binary.LittleEndian.Uint32(buf[12:16])))
	assert.Equal(t, int32(4), int32(binary.LittleEndian.Uint32(buf[16:20])))
}

func TestCoordToPointMapsTileCenterToOrigin(t *testing.T) {
	e := New()
	e.BeginTile(10, 0, 0, 0, 0, 0, 0, osmdbtypes.BoundingBox{LatT: 1, LonL: -1, LatB: -1, LonR: 1})

	p := e.CoordToPoint(0, 0)
	assert.InDelta(t, 0, p.X, 1)
	assert.InDelta(t, 0, p.Y, 1)

	topLeft := e.CoordToPoint(1, -1)
	assert.Less(t, topLeft.X, int16(0))
	assert.Less(t, topLeft.Y, int16(0))
}

func TestEmptyTileSkipsRelAndWayPhases(t *testing.T) {
	e := New()
	e.BeginTile(5, 0, 0, 0, 0, 0, 1, osmdbtypes.BoundingBox{LatT: 1, LonL: -1, LatB: -1, LonR: 1})

	require.NoError(t, e.AddNode(1, 0, Point16{}, "solo"))
}

func TestBeginWayBeforeRelsClosedIsFormatViolation(t *testing.T) {
	e := New()
	e.BeginTile(5, 0, 0, 0, 1, 1, 0, osmdbtypes.BoundingBox{LatT: 1, LonL: -1, LatB: -1, LonR: 1})

	err := e.BeginWay(1, 0, 0, Point16{}, Range16{}, "early")
	assert.ErrorIs(t, err, ErrFormatViolation)
}

func TestAddWayCoordWithoutBeginWayIsFormatViolation(t *testing.T) {
	e := New()
	e.BeginTile(5, 0, 0, 0, 0, 1, 0, osmdbtypes.BoundingBox{LatT: 1, LonL: -1, LatB: -1, LonR: 1})

	err := e.AddWayCoord(Point16{})
	assert.ErrorIs(t, err, ErrFormatViolation)
}

func TestNestedWayInsideRelCountsAsRelMemberNotTopLevelWay(t *testing.T) {
	// One rel enclosing one nested way, plus one genuine top-level way;
	// countWays reflects only the top-level way per BeginTile's contract
	// (driver.go's emit passes len(ways), the top-level ways only, not
	// a recursive total).
	e := New()
	e.BeginTile(5, 0, 0, 0, 1, 1, 0, osmdbtypes.BoundingBox{LatT: 1, LonL: -1, LatB: -1, LonR: 1})

	require.NoError(t, e.BeginRel(0, 1, Point16{}, Range16{}, "rel"))
	require.NoError(t, e.BeginWay(1, 0, 0, Point16{}, Range16{}, "nested"))
	require.NoError(t, e.AddWayCoord(Point16{X: 1, Y: 1}))
	require.NoError(t, e.EndWay())
	require.NoError(t, e.EndRel())

	require.NoError(t, e.BeginWay(2, 0, 0, Point16{}, Range16{}, "top"))
	require.NoError(t, e.AddWayCoord(Point16{X: 2, Y: 2}))
	require.NoError(t, e.EndWay())

	// All top-level ways accounted for: next phase should accept a node.
	require.NoError(t, e.AddNode(1, 0, Point16{}, "n"))
}

func TestResetClearsStateAndBuffer(t *testing.T) {
	e := New()
	e.BeginTile(5, 0, 0, 0, 0, 0, 1, osmdbtypes.BoundingBox{LatT: 1, LonL: -1, LatB: -1, LonR: 1})
	require.NoError(t, e.AddNode(1, 0, Point16{}, "n"))

	e.Reset()
	buf, n := e.EndTile()
	assert.Equal(t, 0, n)
	assert.Empty(t, buf)
}

func TestClampInt16ClampsOutOfRangeValues(t *testing.T) {
	assert.Equal(t, int16(32767), clampInt16(1<<40))
	assert.Equal(t, int16(-32768), clampInt16(-(1 << 40)))
	assert.Equal(t, int16(5), clampInt16(5))
}
