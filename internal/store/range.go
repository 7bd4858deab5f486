package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jeffboody/osmdb-sub002/pkg/osmdbtypes"
)

// RelRangeRow is one row returned by RelsRange: the relation id plus
// its precomputed bbox, as used by the tile driver's gatherRelations
// step (spec §4.I item 4) to decide point-center vs expansion.
type RelRangeRow struct {
	ID   int64
	BBox osmdbtypes.BoundingBox
}

// NodesRange returns node ids whose range row intersects bbox at the
// given minimum zoom, using thread tid's replicated statement set.
func (s *Store) NodesRange(ctx context.Context, tid int, bbox osmdbtypes.BoundingBox, minZoom int) ([]int64, error) {
	rs := s.threadStmts(tid)
	rows, err := rs.nodesRange.QueryContext(ctx, bbox.LatB, bbox.LonR, bbox.LatT, bbox.LonL, minZoom)
	if err != nil {
		return nil, fmt.Errorf("store: nodes_range: %w: %v", ErrStoreFault, err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// WaysRange returns ids of selected=1 ways intersecting bbox.
func (s *Store) WaysRange(ctx context.Context, tid int, bbox osmdbtypes.BoundingBox, minZoom int) ([]int64, error) {
	rs := s.threadStmts(tid)
	rows, err := rs.waysRange.QueryContext(ctx, bbox.LatB, bbox.LonR, bbox.LatT, bbox.LonL, minZoom)
	if err != nil {
		return nil, fmt.Errorf("store: ways_range: %w: %v", ErrStoreFault, err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// RelsRange returns relation ids and their bboxes intersecting bbox.
func (s *Store) RelsRange(ctx context.Context, tid int, bbox osmdbtypes.BoundingBox, minZoom int) ([]RelRangeRow, error) {
	rs := s.threadStmts(tid)
	rows, err := rs.relsRange.QueryContext(ctx, bbox.LatB, bbox.LonR, bbox.LatT, bbox.LonL, minZoom)
	if err != nil {
		return nil, fmt.Errorf("store: rels_range: %w: %v", ErrStoreFault, err)
	}
	defer rows.Close()

	var out []RelRangeRow
	for rows.Next() {
		var row RelRangeRow
		if err := rows.Scan(&row.ID, &row.BBox.LatT, &row.BBox.LonL, &row.BBox.LatB, &row.BBox.LonR); err != nil {
			return nil, fmt.Errorf("store: scan rels_range row: %w: %v", ErrStoreFault, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanIDs(rows *sql.Rows) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan id: %w: %v", ErrStoreFault, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
