package store

import (
	"context"
	"fmt"

	"github.com/jeffboody/osmdb-sub002/pkg/osmdbtypes"
)

// WaysRangeIDsIntersecting and RelsRangeIDsIntersecting back the
// changeset applier's §4.H step 1: find every ways_range/rels_range id
// intersecting a changeset bbox, using the same open half-plane test
// as the tile driver's range queries (no min-zoom filter; a changeset
// invalidates a row regardless of the zoom tier it was indexed at).
func (s *Store) WaysRangeIDsIntersecting(ctx context.Context, bbox osmdbtypes.BoundingBox) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT wid FROM ways_range WHERE latT > ? AND lonL < ? AND latB < ? AND lonR > ?`,
		bbox.LatB, bbox.LonR, bbox.LatT, bbox.LonL)
	if err != nil {
		return nil, fmt.Errorf("store: ways_range intersect: %w: %v", ErrStoreFault, err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func (s *Store) RelsRangeIDsIntersecting(ctx context.Context, bbox osmdbtypes.BoundingBox) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT rid FROM rels_range WHERE latT > ? AND lonL < ? AND latB < ? AND lonR > ?`,
		bbox.LatB, bbox.LonR, bbox.LatT, bbox.LonL)
	if err != nil {
		return nil, fmt.Errorf("store: rels_range intersect: %w: %v", ErrStoreFault, err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// DeleteWaysRange and DeleteRelsRange remove the given ids from their
// range tables, the finish step of §4.H.
func (s *Store) DeleteWaysRange(ctx context.Context, ids []int64) error {
	return s.deleteRangeIDs(ctx, "ways_range", "wid", ids)
}

func (s *Store) DeleteRelsRange(ctx context.Context, ids []int64) error {
	return s.deleteRangeIDs(ctx, "rels_range", "rid", ids)
}

func (s *Store) deleteRangeIDs(ctx context.Context, table, column string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin delete %s: %w: %v", table, ErrStoreFault, err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, table, column))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("store: prepare delete %s: %w: %v", table, ErrStoreFault, err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			tx.Rollback()
			return fmt.Errorf("store: delete %s id %d: %w: %v", table, id, ErrStoreFault, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit delete %s: %w: %v", table, ErrStoreFault, err)
	}
	return nil
}
