// Package osmdbtypes holds small value types shared across store, cache,
// tile and changeset packages.
package osmdbtypes

import "fmt"

// TileCoordinates identifies a web-mercator-style tile.
type TileCoordinates struct {
	Z, X, Y int
}

func (c TileCoordinates) String() string {
	return fmt.Sprintf("%d-%d-%d", c.Z, c.X, c.Y)
}

// ID returns the prefetch table id = 2^zoom*y + x used by tbl_tileN.
func (c TileCoordinates) ID() int64 {
	return (int64(1)<<uint(c.Z))*int64(c.Y) + int64(c.X)
}

// BoundingBox is an axis-aligned geographic box: top/left/bottom/right
// in the (latT, lonL, latB, lonR) convention used throughout the store.
type BoundingBox struct {
	LatT, LonL, LatB, LonR float64
}

// Empty reports whether the box has zero extent on both axes, the
// signal used by the changeset applier to skip no-op records.
func (b BoundingBox) Empty() bool {
	return b.LatT == b.LatB && b.LonL == b.LonR
}

// Intersects implements the open half-plane test from spec §4.A:
// latT>@B && lonL<@R && latB<@T && lonR>@L
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.LatT > o.LatB && b.LonL < o.LonR && b.LatB < o.LatT && b.LonR > o.LonL
}

// Union returns the axis-aligned hull of b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return BoundingBox{
		LatT: maxF(b.LatT, o.LatT),
		LonL: minF(b.LonL, o.LonL),
		LatB: minF(b.LatB, o.LatB),
		LonR: maxF(b.LonR, o.LonR),
	}
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
