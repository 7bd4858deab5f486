// Package clip implements the per-way tile-border culling of spec
// §4.F: long runs of consecutive out-of-tile nodes sharing the same
// quadrant are thinned to at most two per side using a sliding
// 3-quadrant window.
package clip

import (
	"github.com/jeffboody/osmdb-sub002/internal/geo"
	"github.com/jeffboody/osmdb-sub002/internal/model"
	"github.com/jeffboody/osmdb-sub002/pkg/osmdbtypes"
)

// NodeLookup resolves a node id to its coordinates.
type NodeLookup func(id int64) (*model.Node, bool)

// Inflate returns bbox expanded by 1/16th of its dimensions on every
// side, per spec §4.F, so non-zero-width lines aren't cut between
// neighboring tiles.
func Inflate(bbox osmdbtypes.BoundingBox) osmdbtypes.BoundingBox {
	dLat := (bbox.LatT - bbox.LatB) / 16
	dLon := (bbox.LonR - bbox.LonL) / 16
	return osmdbtypes.BoundingBox{
		LatT: bbox.LatT + dLat,
		LonL: bbox.LonL - dLon,
		LatB: bbox.LatB - dLat,
		LonR: bbox.LonR + dLon,
	}
}

func inside(bbox osmdbtypes.BoundingBox, lat, lon float64) bool {
	return lat <= bbox.LatT && lat >= bbox.LatB && lon >= bbox.LonL && lon <= bbox.LonR
}

// Clip thins w.Nds in place per spec §4.F. tileBBox should already be
// inflated (via Inflate) by the caller.
func Clip(w *model.Way, tileBBox osmdbtypes.BoundingBox, lookup NodeLookup) {
	if len(w.Nds) <= 2 {
		return
	}

	centerLat := (tileBBox.LatT + tileBBox.LatB) / 2
	centerLon := (tileBBox.LonL + tileBBox.LonR) / 2
	center := geo.GeoToXYZ(centerLat, centerLon, geo.EarthRadiusMiles)
	tlc := geo.GeoToXYZ(tileBBox.LatT, tileBBox.LonL, geo.EarthRadiusMiles).Sub(center).Normalize()
	trc := geo.GeoToXYZ(tileBBox.LatT, tileBBox.LonR, geo.EarthRadiusMiles).Sub(center).Normalize()

	loop := w.IsLoop()

	nodes := make([]*model.Node, len(w.Nds))
	valid := make([]bool, len(w.Nds))
	for i, id := range w.Nds {
		if n, ok := lookup(id); ok {
			nodes[i] = n
			valid[i] = true
		}
	}

	quadrantAt := func(i int) geo.Quadrant {
		if !valid[i] {
			return geo.QuadrantNone
		}
		n := nodes[i]
		pc := geo.GeoToXYZ(n.Lat, n.Lon, geo.EarthRadiusMiles).Sub(center).Normalize()
		return geo.ClassifyQuadrant(pc, tlc, trc)
	}

	keep := make([]bool, len(w.Nds))
	for i := range keep {
		keep[i] = true
	}

	var q0, q1, q2 geo.Quadrant
	if !loop {
		if valid[0] {
			q1 = quadrantAt(0)
			q2 = q1
		}
	}

	for i := 1; i < len(w.Nds)-1; i++ {
		if valid[i] && inside(tileBBox, nodes[i].Lat, nodes[i].Lon) {
			q1, q2 = geo.QuadrantNone, geo.QuadrantNone
			continue
		}
		q0 = q1
		q1 = q2
		q2 = quadrantAt(i)
		if i >= 2 && q0 == q1 && q1 == q2 && q0 != geo.QuadrantNone {
			keep[i-1] = false
		}
	}

	if !loop && len(w.Nds) >= 2 {
		last := len(w.Nds) - 1
		qLast := quadrantAt(last)
		// q2 holds the quadrant of the last node's immediate predecessor
		// (the window update above assigns quadrantAt(i) to q2 one step
		// ahead of q1), so the same-quadrant-as-predecessor test compares
		// against q2, not q1. A last node inside the tile is always kept.
		lastInside := valid[last] && inside(tileBBox, nodes[last].Lat, nodes[last].Lon)
		if !lastInside && q2 == qLast && q2 != geo.QuadrantNone {
			keep[last] = false
		}
	}
	out := make([]int64, 0, len(w.Nds))
	for i, k := range keep {
		if k {
			out = append(out, w.Nds[i])
		}
	}
	w.Nds = out
}
