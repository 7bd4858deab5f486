package store

import (
	"context"
	"fmt"

	"github.com/jeffboody/osmdb-sub002/internal/model"
	"github.com/jeffboody/osmdb-sub002/pkg/osmdbtypes"
)

// AddNode inserts or replaces a node's coords, info and range rows,
// and mirrors its name into the nodes_text FTS table for search.
func (s *Store) AddNode(ctx context.Context, n *model.Node, minZoom int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.single.putNodeCoords.ExecContext(ctx, n.ID, n.Lat, n.Lon); err != nil {
		return fmt.Errorf("store: insert node %d coords: %w: %v", n.ID, ErrStoreFault, err)
	}
	if _, err := s.single.putNodeInfo.ExecContext(ctx, n.ID, nullable(n.HasName, n.Name), n.Abbrev, n.Elevation, n.State, n.Class, minZoom); err != nil {
		return fmt.Errorf("store: insert node %d info: %w: %v", n.ID, ErrStoreFault, err)
	}
	if _, err := s.single.putNodeRange.ExecContext(ctx, n.ID, n.Lat, n.Lon, n.Lat, n.Lon); err != nil {
		return fmt.Errorf("store: insert node %d range: %w: %v", n.ID, ErrStoreFault, err)
	}
	if n.HasName {
		if _, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO nodes_text (rowid, nid, name) VALUES (?, ?, ?)`, n.ID, n.ID, n.Name); err != nil {
			return fmt.Errorf("store: insert node %d text: %w: %v", n.ID, ErrStoreFault, err)
		}
	}
	return nil
}

// AddWay inserts or replaces a way's row, its bbox/min-zoom range row
// and its ordered nd-list.
func (s *Store) AddWay(ctx context.Context, w *model.Way, minZoom int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	oneway := 0
	switch {
	case w.Flags&model.FlagOnewayForward != 0:
		oneway = 1
	case w.Flags&model.FlagOnewayReverse != 0:
		oneway = -1
	}
	center := centerOf(w.BBox)
	_, err := s.single.putWay.ExecContext(ctx, w.ID, nullable(w.HasName, w.Name), w.Abbrev, w.Class, w.Layer,
		oneway, boolToInt(w.Flags&model.FlagBridge != 0), boolToInt(w.Flags&model.FlagTunnel != 0),
		boolToInt(w.Flags&model.FlagCutting != 0), center.LatT, center.LonL, boolToInt(w.Selected))
	if err != nil {
		return fmt.Errorf("store: insert way %d: %w: %v", w.ID, ErrStoreFault, err)
	}
	if _, err := s.single.putWayRange.ExecContext(ctx, w.ID, w.BBox.LatT, w.BBox.LonL, w.BBox.LatB, w.BBox.LonR, minZoom); err != nil {
		return fmt.Errorf("store: insert way %d range: %w: %v", w.ID, ErrStoreFault, err)
	}
	for idx, nid := range w.Nds {
		if _, err := s.single.putWayNd.ExecContext(ctx, w.ID, idx, nid); err != nil {
			return fmt.Errorf("store: insert way %d nd %d: %w: %v", w.ID, idx, ErrStoreFault, err)
		}
	}
	return nil
}

// AddRelation inserts or replaces a relation's row, bbox/min-zoom
// range row and its ordered member list.
func (s *Store) AddRelation(ctx context.Context, r *model.Relation, minZoom int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	center := centerOf(r.BBox)
	polygon := boolToInt(r.Type == model.RelationMultipolygon)
	_, err := s.single.putRel.ExecContext(ctx, r.ID, nullable(r.HasName, r.Name), r.Abbrev, r.Class, int(r.Type), center.LatT, center.LonL, polygon)
	if err != nil {
		return fmt.Errorf("store: insert relation %d: %w: %v", r.ID, ErrStoreFault, err)
	}
	if _, err := s.single.putRelRange.ExecContext(ctx, r.ID, r.BBox.LatT, r.BBox.LonL, r.BBox.LatB, r.BBox.LonR, minZoom); err != nil {
		return fmt.Errorf("store: insert relation %d range: %w: %v", r.ID, ErrStoreFault, err)
	}
	wayIdx := 0
	for _, m := range r.Members {
		switch m.Type {
		case model.MemberNode:
			if _, err := s.single.putRelNode.ExecContext(ctx, r.ID, m.Ref, m.Role); err != nil {
				return fmt.Errorf("store: insert relation %d node member: %w: %v", r.ID, ErrStoreFault, err)
			}
		case model.MemberWay:
			if _, err := s.single.putRelWay.ExecContext(ctx, r.ID, wayIdx, m.Ref, m.Role); err != nil {
				return fmt.Errorf("store: insert relation %d way member: %w: %v", r.ID, ErrStoreFault, err)
			}
			wayIdx++
		}
	}
	return nil
}

// Watermark returns the last-applied changeset id, or 0 if none.
func (s *Store) Watermark(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id int64
	err := s.single.getWatermark.QueryRowContext(ctx).Scan(&id)
	if err != nil {
		return 0, nil // absent watermark defaults to 0, not a fault
	}
	return id, nil
}

// SetWatermark persists the high-water changeset id applied so far.
func (s *Store) SetWatermark(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.single.setWatermark.ExecContext(ctx, id); err != nil {
		return fmt.Errorf("store: set watermark: %w: %v", ErrStoreFault, err)
	}
	return nil
}

func centerOf(b osmdbtypes.BoundingBox) osmdbtypes.BoundingBox {
	return osmdbtypes.BoundingBox{
		LatT: (b.LatT + b.LatB) / 2,
		LonL: (b.LonL + b.LonR) / 2,
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullable(has bool, s string) interface{} {
	if !has {
		return nil
	}
	return s
}
