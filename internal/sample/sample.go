// Package sample implements the nd-thinning sampler of spec §4.E:
// after joining, a way's nd-list is thinned by dropping candidates
// closer than a per-zoom-tier distance threshold to the last node
// kept.
package sample

import (
	"math"

	"github.com/jeffboody/osmdb-sub002/internal/geo"
	"github.com/jeffboody/osmdb-sub002/internal/model"
)

// homeLat, homeLon is the fixed "home tile" spec §4.E derives
// thresholds from.
const (
	homeLat = 40.061295
	homeLon = -105.214552
	homeZoomLow  = 8
	homeZoomMid  = 11 // representative zoom within the z9-13 tier
	homeZoomHigh = 14
)

// pix is sqrt(2 * 256^2), the tile-diagonal pixel count thresholds are
// divided by (times 8 samples per diagonal, per spec §4.E).
var pix = math.Sqrt(2 * 256 * 256)

var (
	minDistLow  float64 // z <= 8
	minDistMid  float64 // 9 <= z <= 13
	minDistHigh float64 // z >= 14
)

func init() {
	minDistLow = tileDiagonalMiles(homeZoomLow) / (pix * 8)
	minDistMid = tileDiagonalMiles(homeZoomMid) / (pix * 8)
	minDistHigh = tileDiagonalMiles(homeZoomHigh) / (pix * 8)
}

// tileDiagonalMiles returns the cartesian-miles diagonal of the tile
// containing the home-tile coordinate at the given zoom.
func tileDiagonalMiles(zoom int) float64 {
	tx, ty := geo.CoordToTile(homeLat, homeLon, zoom)
	latT, lonL, latB, lonR := geo.TileToCoord(tx, ty, zoom)
	return geo.Distance(latT, lonL, latB, lonR)
}

// MinDist returns the sampling threshold, in cartesian miles, for the
// zoom tier containing zoom: z<=8, 9<=z<=13, z>=14.
func MinDist(zoom int) float64 {
	switch {
	case zoom <= 8:
		return minDistLow
	case zoom <= 13:
		return minDistMid
	default:
		return minDistHigh
	}
}

// NodeLookup resolves a node id to its coordinates; a miss is
// tolerated and the candidate is skipped without affecting the
// last-kept reference, per spec §4.E.
type NodeLookup func(id int64) (*model.Node, bool)

// Sample thins w.Nds in place: the first nd is always kept; each
// subsequent candidate is kept only if its cartesian distance from the
// last-kept node is >= MinDist(zoom); the last nd is always kept
// regardless of distance.
func Sample(w *model.Way, zoom int, lookup NodeLookup) {
	if len(w.Nds) <= 2 {
		return
	}
	threshold := MinDist(zoom)

	kept := make([]int64, 0, len(w.Nds))
	kept = append(kept, w.Nds[0])
	lastKept, lastOK := lookup(w.Nds[0])

	for i := 1; i < len(w.Nds)-1; i++ {
		id := w.Nds[i]
		n, ok := lookup(id)
		if !ok {
			continue // missing node skipped, last-kept reference unaffected
		}
		if !lastOK {
			kept = append(kept, id)
			lastKept, lastOK = n, true
			continue
		}
		d := geo.Distance(lastKept.Lat, lastKept.Lon, n.Lat, n.Lon)
		if d < threshold {
			continue
		}
		kept = append(kept, id)
		lastKept, lastOK = n, true
	}

	last := w.Nds[len(w.Nds)-1]
	if len(kept) == 0 || kept[len(kept)-1] != last {
		kept = append(kept, last)
	}
	w.Nds = kept
}
