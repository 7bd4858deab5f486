package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SearchResult pairs an object id with the class_rank used to order
// it, per spec §4.A ("Search queries return at most 10 results ranked
// by class rank").
type SearchResult struct {
	ID   int64
	Rank int
}

// SearchNodes, SearchWays and SearchRels are the narrow FTS-backed
// interface spec §4.A owns; the fuzzy/spellfix layer in front of them
// (internal/store/spellfix.go) is the external collaborator named out
// of scope by spec §1.
func (s *Store) SearchNodes(ctx context.Context, tid int, term string) ([]SearchResult, error) {
	return runSearch(ctx, s.threadStmts(tid).searchNodes, term)
}

func (s *Store) SearchWays(ctx context.Context, tid int, term string) ([]SearchResult, error) {
	return runSearch(ctx, s.threadStmts(tid).searchWays, term)
}

func (s *Store) SearchRels(ctx context.Context, tid int, term string) ([]SearchResult, error) {
	return runSearch(ctx, s.threadStmts(tid).searchRels, term)
}

func runSearch(ctx context.Context, stmt *sql.Stmt, term string) ([]SearchResult, error) {
	rows, err := stmt.QueryContext(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w: %v", ErrStoreFault, err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Rank); err != nil {
			return nil, fmt.Errorf("store: scan search result: %w: %v", ErrStoreFault, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
