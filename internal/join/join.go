// Package join implements the way-join engine of spec §4.D: it merges
// ways that share an endpoint node so long labelled roads render as a
// single polyline.
//
// No teacher or pack example implements endpoint-graph polyline
// merging; this package is stdlib-only (map/slice bookkeeping plus
// internal/geo for the angle test), documented in DESIGN.md as the one
// algorithmic component with no third-party library to ground on.
package join

import (
	"math"

	"github.com/jeffboody/osmdb-sub002/internal/geo"
	"github.com/jeffboody/osmdb-sub002/internal/model"
)

// cos30 is the minimum cosine of the angle at the shared endpoint for
// a join to be allowed (spec §4.D item 3: sharp turns are rejected).
var cos30 = math.Cos(30 * math.Pi / 180.0)

// NodeLookup resolves a node id to its coordinates; callers pass the
// cache-backed lookup used by the tile driver. A missing node is
// tolerated (spec §7 item 2) and simply disqualifies the angle test
// for that candidate pair.
type NodeLookup func(id int64) (*model.Node, bool)

// Join merges every pair of ways in working that share an endpoint and
// satisfy all five conditions of spec §4.D, iterating to a fixed
// point. working is mutated in place; the returned slice lists the ids
// still present in working (survivors) in no particular order.
func Join(working map[int64]*model.Way, lookup NodeLookup) []int64 {
	endpoints := map[int64][]int64{} // node id -> way ids with that head/tail
	for id, w := range working {
		if len(w.Nds) < 2 || w.IsLoop() {
			continue
		}
		endpoints[w.Head()] = append(endpoints[w.Head()], id)
		endpoints[w.Tail()] = append(endpoints[w.Tail()], id)
	}

	changed := true
	for changed {
		changed = false
		for n, ids := range endpoints {
			joined := tryJoinAt(working, endpoints, n, ids, lookup)
			if joined {
				changed = true
				break // the multimap was rewritten; restart the scan
			}
		}
	}

	survivors := make([]int64, 0, len(working))
	for id := range working {
		survivors = append(survivors, id)
	}
	return survivors
}

// tryJoinAt looks for one joinable pair sharing endpoint n and, if
// found, performs the splice and multimap rewrite described in spec
// §4.D, returning true.
func tryJoinAt(working map[int64]*model.Way, endpoints map[int64][]int64, n int64, ids []int64, lookup NodeLookup) bool {
	for i := 0; i < len(ids); i++ {
		a, ok := working[ids[i]]
		if !ok {
			continue
		}
		for j := i + 1; j < len(ids); j++ {
			b, ok := working[ids[j]]
			if !ok || ids[i] == ids[j] {
				continue
			}
			if canJoin(a, b, n, lookup) {
				spliceWays(working, endpoints, a, b, n)
				return true
			}
		}
	}
	return false
}

// canJoin implements the five conditions of spec §4.D.
func canJoin(a, b *model.Way, n int64, lookup NodeLookup) bool {
	if a.ID == b.ID {
		return false
	}
	if len(a.Nds) < 2 || len(b.Nds) < 2 || a.IsLoop() || b.IsLoop() {
		return false
	}
	if !isEndpoint(a, n) || !isEndpoint(b, n) {
		return false
	}
	if !anglePasses(a, b, n, lookup) {
		return false
	}
	if a.Class != b.Class || a.Layer != b.Layer || a.Flags != b.Flags {
		return false
	}
	if a.HasName != b.HasName {
		return false
	}
	if a.HasName && a.Name != b.Name {
		return false
	}
	return true
}

func isEndpoint(w *model.Way, n int64) bool {
	return w.Head() == n || w.Tail() == n
}

// anglePasses computes the angle at n between p_prev->p_n and
// p_n->p_next using the adjacent interior nodes of a and b, and
// requires cosine >= cos(30 deg).
func anglePasses(a, b *model.Way, n int64, lookup NodeLookup) bool {
	prevID, ok1 := neighborOf(a, n)
	nextID, ok2 := neighborOf(b, n)
	if !ok1 || !ok2 {
		return false
	}
	pPrev, ok := lookup(prevID)
	if !ok {
		return false
	}
	pN, ok := lookup(n)
	if !ok {
		return false
	}
	pNext, ok := lookup(nextID)
	if !ok {
		return false
	}

	vPrev := geo.GeoToXYZ(pPrev.Lat, pPrev.Lon, geo.EarthRadiusMiles)
	vN := geo.GeoToXYZ(pN.Lat, pN.Lon, geo.EarthRadiusMiles)
	vNext := geo.GeoToXYZ(pNext.Lat, pNext.Lon, geo.EarthRadiusMiles)

	in := vN.Sub(vPrev).Normalize()
	out := vNext.Sub(vN).Normalize()
	cosine := in.Dot(out)
	return cosine >= cos30
}

// neighborOf returns the node id adjacent to n at whichever end of w
// equals n (the node "just inside" the shared endpoint).
func neighborOf(w *model.Way, n int64) (int64, bool) {
	switch {
	case w.Head() == n && len(w.Nds) > 1:
		return w.Nds[1], true
	case w.Tail() == n && len(w.Nds) > 1:
		return w.Nds[len(w.Nds)-2], true
	default:
		return 0, false
	}
}

// spliceWays merges b into a (splicing b's nds, dropping the
// duplicated n, unioning bboxes), deletes b from working, and rewrites
// every endpoint-multimap edge pointing at b's id to a's id so
// subsequent joins can chain transitively.
func spliceWays(working map[int64]*model.Way, endpoints map[int64][]int64, a, b *model.Way, n int64) {
	switch {
	case a.Tail() == n && b.Head() == n:
		a.Nds = append(a.Nds, b.Nds[1:]...)
	case a.Head() == n && b.Tail() == n:
		a.Nds = append(append([]int64(nil), b.Nds[:len(b.Nds)-1]...), a.Nds...)
	case a.Tail() == n && b.Tail() == n:
		a.Nds = append(a.Nds, reversed(b.Nds[:len(b.Nds)-1])...)
	case a.Head() == n && b.Head() == n:
		a.Nds = append(reversed(b.Nds[1:]), a.Nds...)
	}
	a.BBox = a.BBox.Union(b.BBox)
	delete(working, b.ID)

	for node, ids := range endpoints {
		for i, id := range ids {
			if id == b.ID {
				ids[i] = a.ID
			}
		}
		endpoints[node] = dedupe(ids)
	}
	endpoints[a.Head()] = appendUnique(endpoints[a.Head()], a.ID)
	endpoints[a.Tail()] = appendUnique(endpoints[a.Tail()], a.ID)
}

func reversed(ids []int64) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}

func dedupe(ids []int64) []int64 {
	seen := map[int64]bool{}
	out := ids[:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func appendUnique(ids []int64, id int64) []int64 {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
