package store

import (
	"context"
	"fmt"
)

// RecordPrefetchTile writes one built tile blob into the named
// per-zoom prefetch table (tbl_tile9/12/15), creating the table on
// first use. id is 2^zoom*y + x, per spec §6.
func (s *Store) RecordPrefetchTile(ctx context.Context, table string, id int64, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY, tile_data BLOB)`, table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("store: create %s: %w: %v", table, ErrStoreFault, err)
	}

	dml := fmt.Sprintf(`INSERT OR REPLACE INTO %s (id, tile_data) VALUES (?, ?)`, table)
	if _, err := s.db.ExecContext(ctx, dml, id, blob); err != nil {
		return fmt.Errorf("store: insert into %s: %w: %v", table, ErrStoreFault, err)
	}
	return nil
}
