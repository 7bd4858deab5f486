package tile

import (
	"context"
	"fmt"
	"log"

	"github.com/jeffboody/osmdb-sub002/internal/geo"
	"github.com/jeffboody/osmdb-sub002/internal/store"
	"github.com/jeffboody/osmdb-sub002/pkg/osmdbtypes"
)

// Region names the `-pf=WW|US|CO` CLI flag of spec §6 resolves to a
// bounding box.
type Region struct {
	Name string
	BBox osmdbtypes.BoundingBox
}

// KnownRegions are the named prefetch regions the `prefetch` CLI
// accepts. WW (worldwide) is the full lat/lon extent; US and CO are
// illustrative bounding boxes, supplied by deployment config in
// practice.
var KnownRegions = map[string]osmdbtypes.BoundingBox{
	"WW": {LatT: 85, LonL: -180, LatB: -85, LonR: 180},
	"US": {LatT: 49.4, LonL: -125.0, LatB: 24.5, LonR: -66.9},
	"CO": {LatT: 41.0, LonL: -109.1, LatB: 37.0, LonR: -102.0},
}

// Planner enumerates the tiles covering a region at a fixed zoom tier
// and drives the Pool to build each one, writing every successfully
// built tile into the zoom's tbl_tileN table (id = 2^zoom*y + x, per
// spec §6). Failed tiles are logged and counted; no row is written for
// them.
//
// Grounded on the teacher's services/mvt_backup_mbtiles.go snapshot
// sweep (enumerate, act per row, log aggregate counts).
type Planner struct {
	Store *store.Store
	Pool  *Pool
	Log   *log.Logger
}

// Tiles enumerates the integer tile coordinates covering bbox at zoom.
func Tiles(bbox osmdbtypes.BoundingBox, zoom int) []osmdbtypes.TileCoordinates {
	x0, y0 := geo.CoordToTile(bbox.LatT, bbox.LonL, zoom)
	x1, y1 := geo.CoordToTile(bbox.LatB, bbox.LonR, zoom)
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	var out []osmdbtypes.TileCoordinates
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			out = append(out, osmdbtypes.TileCoordinates{Z: zoom, X: x, Y: y})
		}
	}
	return out
}

// tableForZoom maps the zoom tiers named in spec §6 to their table.
func tableForZoom(zoom int) (string, error) {
	switch zoom {
	case 9:
		return "tbl_tile9", nil
	case 12:
		return "tbl_tile12", nil
	case 15:
		return "tbl_tile15", nil
	default:
		return "", fmt.Errorf("prefetch: unsupported zoom tier %d", zoom)
	}
}

// Run builds every tile covering region at zoom and writes each
// successfully built blob into the zoom's tbl_tileN table. It returns
// an error carrying the failure count if any tile failed to build or
// to be written.
func (p *Planner) Run(ctx context.Context, region Region, zoom int) error {
	table, err := tableForZoom(zoom)
	if err != nil {
		return err
	}

	tiles := Tiles(region.BBox, zoom)
	jobs := make([]Job, len(tiles))
	for i, t := range tiles {
		jobs[i] = Job{TileCoordinates: t}
	}

	results := p.Pool.Run(ctx, jobs)

	var ok, failed int
	for _, r := range results {
		id := r.Job.TileCoordinates.ID()
		if r.Err != nil {
			failed++
			if p.Log != nil {
				p.Log.Printf("prefetch %s zoom=%d tile=%s: %v", region.Name, zoom, r.Job.TileCoordinates, r.Err)
			}
			continue
		}
		if err := p.recordTile(ctx, table, id, r.Blob); err != nil {
			failed++
			continue
		}
		ok++
	}

	if p.Log != nil {
		p.Log.Printf("prefetch %s zoom=%d: %d/%d tiles built", region.Name, zoom, ok, ok+failed)
	}
	if failed > 0 {
		return fmt.Errorf("prefetch: %d of %d tiles failed", failed, ok+failed)
	}
	return nil
}

func (p *Planner) recordTile(ctx context.Context, table string, id int64, blob []byte) error {
	return p.Store.RecordPrefetchTile(ctx, table, id, blob)
}
