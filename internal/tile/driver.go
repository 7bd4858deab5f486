package tile

import (
	"context"
	"fmt"
	"log"

	"github.com/jeffboody/osmdb-sub002/internal/cache"
	"github.com/jeffboody/osmdb-sub002/internal/clip"
	"github.com/jeffboody/osmdb-sub002/internal/geo"
	"github.com/jeffboody/osmdb-sub002/internal/join"
	"github.com/jeffboody/osmdb-sub002/internal/model"
	"github.com/jeffboody/osmdb-sub002/internal/sample"
	"github.com/jeffboody/osmdb-sub002/internal/store"
	"github.com/jeffboody/osmdb-sub002/pkg/osmdbtypes"
)

// pointCenterAreaThreshold is half a "typical" z14 tile's area
// (delta-lat * delta-lon), per spec §4.I: polygon relations larger
// than this are emitted as a centered point instead of full geometry.
const pointCenterAreaThreshold = 2 * 0.000369

// PointCenterClass reports whether a top-level way's style classifies
// it as a point-center (no nds loaded), and is supplied by the
// out-of-scope style/class lookup collaborator named in spec §1.
type PointCenterClass func(class int) bool

// Driver orchestrates gather -> join -> sample -> clip -> emit for one
// tile, per spec §4.I.
type Driver struct {
	Store             *store.Store
	Cache             *cache.Cache
	IsPointCenterClass PointCenterClass
	Log               *log.Logger
}

// exportSet is the local per-tile dedupe set keyed by tagged id
// ("n123","w45","r7"), per spec §9's design note.
type exportSet map[string]struct{}

func (s exportSet) has(tag string, id int64) bool {
	_, ok := s[fmt.Sprintf("%c%d", tag[0], id)]
	return ok
}

func (s exportSet) mark(tag string, id int64) {
	s[fmt.Sprintf("%c%d", tag[0], id)] = struct{}{}
}

// Build produces the binary tile blob for (z,x,y), per spec §4.I.
func (d *Driver) Build(ctx context.Context, tid int, zoom, x, y int, changeset int64) (_ []byte, err error) {
	latT, lonL, latB, lonR := geo.TileToCoord(x, y, zoom)
	bbox := osmdbtypes.BoundingBox{LatT: latT, LonL: lonL, LatB: latB, LonR: lonR}
	inflated := clip.Inflate(bbox)

	exp := exportSet{}
	handles := []*cache.Handle{}
	defer func() {
		for _, h := range handles {
			h.Release()
		}
		d.Cache.Trim()
	}()
	pin := func(h *cache.Handle) { handles = append(handles, h) }

	lookupNode := func(id int64) (*model.Node, bool) {
		n, h, err := d.Cache.GetNode(id, func() (*model.Node, error) { return d.Store.GetNode(ctx, id) })
		if err != nil {
			return nil, false
		}
		pin(h)
		return n, true
	}

	var emittedNodes []*model.Node
	var emittedRels []relEmission
	var emittedWays []*model.Way

	// gatherNodes
	nodeIDs, err := d.Store.NodesRange(ctx, tid, bbox, zoom)
	if err != nil {
		return nil, fmt.Errorf("tile: gather nodes: %w", err)
	}
	for _, nid := range nodeIDs {
		if exp.has("n", nid) {
			continue
		}
		n, ok := lookupNode(nid)
		if !ok {
			continue // missing reference tolerated, spec §7 item 2
		}
		exp.mark("n", nid)
		emittedNodes = append(emittedNodes, n)
	}

	// gatherRelations
	rels, err := d.Store.RelsRange(ctx, tid, bbox, zoom)
	if err != nil {
		return nil, fmt.Errorf("tile: gather relations: %w", err)
	}
	for _, rr := range rels {
		if exp.has("r", rr.ID) {
			continue
		}
		rel, h, err := d.Cache.GetRelation(rr.ID, func() (*model.Relation, error) { return d.Store.GetRelation(ctx, rr.ID) })
		if err != nil {
			continue // missing reference tolerated
		}
		pin(h)
		exp.mark("r", rr.ID)

		dLat := rr.BBox.LatT - rr.BBox.LatB
		dLon := rr.BBox.LonR - rr.BBox.LonL
		area := dLat * dLon
		if area < 0 {
			area = -area
		}

		re := relEmission{rel: rel}
		if area < pointCenterAreaThreshold {
			for _, m := range rel.Members {
				switch m.Type {
				case model.MemberNode:
					if exp.has("n", m.Ref) {
						continue
					}
					if n, ok := lookupNode(m.Ref); ok {
						exp.mark("n", m.Ref)
						emittedNodes = append(emittedNodes, n)
					}
				case model.MemberWay:
					if exp.has("w", m.Ref) {
						continue
					}
					w, h, err := d.Cache.GetWay(m.Ref, func() (*model.Way, error) { return d.Store.GetWay(ctx, m.Ref) })
					if err != nil {
						continue
					}
					pin(h)
					exp.mark("w", m.Ref)
					re.memberWays = append(re.memberWays, w)
					for _, nid := range w.Nds {
						if exp.has("n", nid) {
							continue
						}
						if n, ok := lookupNode(nid); ok {
							exp.mark("n", nid)
							emittedNodes = append(emittedNodes, n)
						}
					}
				}
			}
		}
		emittedRels = append(emittedRels, re)
	}

	// gatherWays
	wayIDs, err := d.Store.WaysRange(ctx, tid, bbox, zoom)
	if err != nil {
		return nil, fmt.Errorf("tile: gather ways: %w", err)
	}
	working := map[int64]*model.Way{}
	for _, wid := range wayIDs {
		if exp.has("w", wid) {
			continue
		}
		w, h, err := d.Cache.GetWay(wid, func() (*model.Way, error) { return d.Store.GetWay(ctx, wid) })
		if err != nil {
			continue
		}
		pin(h)
		if d.IsPointCenterClass != nil && d.IsPointCenterClass(w.Class) {
			w.Nds = nil
		}
		working[wid] = w
	}

	survivors := join.Join(working, lookupNode)
	for _, wid := range survivors {
		w := working[wid]
		if len(w.Nds) > 0 {
			sample.Sample(w, zoom, lookupNode)
			clip.Clip(w, inflated, lookupNode)
		}
		exp.mark("w", wid)
		emittedWays = append(emittedWays, w)
		for _, nid := range w.Nds {
			if exp.has("n", nid) {
				continue
			}
			if n, ok := lookupNode(nid); ok {
				exp.mark("n", nid)
				emittedNodes = append(emittedNodes, n)
			}
		}
	}

	blob, err := d.emit(zoom, x, y, changeset, bbox, emittedRels, emittedWays, emittedNodes)
	if err != nil {
		return nil, fmt.Errorf("tile: emit: %w", err)
	}
	if d.Log != nil {
		d.Log.Printf("tile %d/%d/%d: %d rels, %d ways, %d nodes, %d bytes",
			zoom, x, y, len(emittedRels), len(emittedWays), len(emittedNodes), len(blob))
	}
	return blob, nil
}

type relEmission struct {
	rel        *model.Relation
	memberWays []*model.Way
}

func (d *Driver) emit(zoom, x, y int, changeset int64, bbox osmdbtypes.BoundingBox,
	rels []relEmission, ways []*model.Way, nodes []*model.Node) ([]byte, error) {

	e := New()
	e.BeginTile(zoom, x, y, changeset, len(rels), len(ways), len(nodes), bbox)

	byID := make(map[int64]*model.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	for _, re := range rels {
		center := e.CoordToPoint(centerLat(re.rel.BBox), centerLon(re.rel.BBox))
		rng := e.RangeToTile(re.rel.BBox)
		if err := e.BeginRel(int(re.rel.Type), re.rel.Class, center, rng, re.rel.Name); err != nil {
			e.Reset()
			return nil, err
		}
		for _, w := range re.memberWays {
			if err := emitWay(e, w, byID); err != nil {
				e.Reset()
				return nil, err
			}
		}
		if err := e.EndRel(); err != nil {
			e.Reset()
			return nil, err
		}
	}

	for _, w := range ways {
		if err := emitWay(e, w, byID); err != nil {
			e.Reset()
			return nil, err
		}
	}

	for _, n := range nodes {
		p := e.CoordToPoint(n.Lat, n.Lon)
		if err := e.AddNode(n.Class, n.Elevation, p, n.Name); err != nil {
			e.Reset()
			return nil, err
		}
	}

	blob, _ := e.EndTile()
	return blob, nil
}

// emitWay writes one way record, inlining its point list from nodes
// already resolved into byID. A way with no nds (point-center style,
// or a hole left by a missing reference) is emitted with its bbox
// center and range alone, per spec §4.I.
func emitWay(e *Emitter, w *model.Way, byID map[int64]*model.Node) error {
	bbox := w.BBox
	center := e.CoordToPoint(centerLat(bbox), centerLon(bbox))
	rng := e.RangeToTile(bbox)
	if err := e.BeginWay(w.Class, w.Layer, int(w.Flags), center, rng, w.Name); err != nil {
		return err
	}
	for _, id := range w.Nds {
		n, ok := byID[id]
		if !ok {
			continue // missing reference tolerated, spec §7 item 2
		}
		if err := e.AddWayCoord(e.CoordToPoint(n.Lat, n.Lon)); err != nil {
			return err
		}
	}
	return e.EndWay()
}

func centerLat(b osmdbtypes.BoundingBox) float64 { return (b.LatT + b.LatB) / 2 }
func centerLon(b osmdbtypes.BoundingBox) float64 { return (b.LonL + b.LonR) / 2 }
