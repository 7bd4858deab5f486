// Package store implements the keyed blob store of spec §4.A: point
// lookups and inserts for nodes/ways/relations, bbox+min-zoom range
// queries, ranked text search, and the changeset-driven range
// invalidation of §4.H.
//
// Grounded on the teacher's services/mvt_backup_mbtiles.go: a
// database/sql handle over a pure-Go sqlite driver, raw SQL, and
// fmt.Errorf-wrapped failures. Per spec §9's design note, range and
// search statements are replicated per worker thread so concurrent
// tile builds never contend on a shared cursor; single-id point
// lookups share one prepared statement serialized under Store.mu. That
// mutex belongs to the store alone; the object cache guards its own
// map/list mutations with a separate mutex.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/jeffboody/osmdb-sub002/internal/model"
	"github.com/jeffboody/osmdb-sub002/pkg/osmdbtypes"

	_ "modernc.org/sqlite"
)

// Store is a process-lifetime handle to the embedded SQL engine, per
// spec §9's design note on global OSM/DB state.
type Store struct {
	db       *sql.DB
	nthreads int

	mu      sync.Mutex // guards single-writer (point-lookup/insert) statements
	single  *singleStmts
	threads []*rangeStmts // indexed by tid
}

// Open opens (creating if absent) the sqlite-backed store at path and
// prepares its statement sets. nthreads bounds the number of worker
// threads that will call thread-scoped methods with a given tid.
func Open(path string, nthreads int) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: failed to ping database: %w", err)
	}
	// sqlite only tolerates one writer; readers run fine concurrently
	// once WAL is enabled.
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: failed to set WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: failed to initialize schema: %w", err)
	}

	s := &Store{db: db, nthreads: nthreads}

	single, err := prepareSingleStmts(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: %w", err)
	}
	s.single = single

	s.threads = make([]*rangeStmts, nthreads)
	for tid := 0; tid < nthreads; tid++ {
		rs, err := prepareRangeStmts(db)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("store: failed to prepare thread %d statements: %w", tid, err)
		}
		s.threads[tid] = rs
	}

	return s, nil
}

// Close releases every prepared statement and the underlying handle.
func (s *Store) Close() error {
	s.single.close()
	for _, rs := range s.threads {
		rs.close()
	}
	return s.db.Close()
}

func (s *Store) threadStmts(tid int) *rangeStmts {
	if tid < 0 || tid >= len(s.threads) {
		tid = 0
	}
	return s.threads[tid]
}

// --- point lookups (shared, mutex-serialized) ---

// GetNode loads a single node by id, or ErrMissingRef if absent.
func (s *Store) GetNode(ctx context.Context, id int64) (*model.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getNodeLocked(ctx, id)
}

// getNodeLocked is GetNode's body with the mutex already held by the
// caller, so callers that hold s.mu (e.g. GetWay's bbox computation)
// can fetch a node without re-entering the non-reentrant mutex.
func (s *Store) getNodeLocked(ctx context.Context, id int64) (*model.Node, error) {
	n := &model.Node{ID: id}
	var name, abrev sql.NullString
	row := s.single.getNode.QueryRowContext(ctx, id)
	err := row.Scan(&n.Lat, &n.Lon, &name, &abrev, &n.Elevation, &n.State, &n.Class)
	if err == sql.ErrNoRows {
		return nil, ErrMissingRef
	}
	if err != nil {
		return nil, fmt.Errorf("store: get node %d: %w: %v", id, ErrStoreFault, err)
	}
	if name.Valid {
		n.Name, n.HasName = name.String, true
	}
	n.Abbrev = abrev.String
	return n, nil
}

// GetWay loads a way and its ordered nd-list by id.
func (s *Store) GetWay(ctx context.Context, id int64) (*model.Way, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := &model.Way{ID: id}
	var name, abrev sql.NullString
	var oneway, bridge, tunnel, cutting, selected int
	row := s.single.getWay.QueryRowContext(ctx, id)
	err := row.Scan(&name, &abrev, &w.Class, &w.Layer, &oneway, &bridge, &tunnel, &cutting, &selected)
	if err == sql.ErrNoRows {
		return nil, ErrMissingRef
	}
	if err != nil {
		return nil, fmt.Errorf("store: get way %d: %w: %v", id, ErrStoreFault, err)
	}
	if name.Valid {
		w.Name, w.HasName = name.String, true
	}
	w.Abbrev = abrev.String
	w.Selected = selected != 0
	w.Flags = flagsFromInts(oneway, bridge, tunnel, cutting)

	rows, err := s.single.getWayNds.QueryContext(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("store: get way %d nds: %w: %v", id, ErrStoreFault, err)
	}
	defer rows.Close()
	for rows.Next() {
		var nid int64
		if err := rows.Scan(&nid); err != nil {
			return nil, fmt.Errorf("store: scan way %d nd: %w: %v", id, ErrStoreFault, err)
		}
		w.Nds = append(w.Nds, nid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate way %d nds: %w: %v", id, ErrStoreFault, err)
	}

	w.BBox = wayBBoxFromNds(ctx, s, w.Nds)
	return w, nil
}

// wayBBoxFromNds computes the hull of the coordinates of referenced
// nodes that exist in the store, per spec §3 invariant. Missing nodes
// are tolerated and simply do not contribute. Callers hold s.mu (GetWay
// does), so this fetches nodes via the lock-free getNodeLocked instead
// of the public, self-locking GetNode.
func wayBBoxFromNds(ctx context.Context, s *Store, nds []int64) osmdbtypes.BoundingBox {
	var bbox osmdbtypes.BoundingBox
	first := true
	for _, nid := range nds {
		n, err := s.getNodeLocked(ctx, nid)
		if err != nil {
			continue // missing reference tolerated, per spec §7 item 2
		}
		if first {
			bbox = osmdbtypes.BoundingBox{LatT: n.Lat, LonL: n.Lon, LatB: n.Lat, LonR: n.Lon}
			first = false
			continue
		}
		bbox = bbox.Union(osmdbtypes.BoundingBox{LatT: n.Lat, LonL: n.Lon, LatB: n.Lat, LonR: n.Lon})
	}
	return bbox
}

// GetRelation loads a relation and its ordered member list by id.
func (s *Store) GetRelation(ctx context.Context, id int64) (*model.Relation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := &model.Relation{ID: id}
	var name, abrev sql.NullString
	var relType int
	row := s.single.getRel.QueryRowContext(ctx, id)
	err := row.Scan(&name, &abrev, &r.Class, &relType)
	if err == sql.ErrNoRows {
		return nil, ErrMissingRef
	}
	if err != nil {
		return nil, fmt.Errorf("store: get relation %d: %w: %v", id, ErrStoreFault, err)
	}
	if name.Valid {
		r.Name, r.HasName = name.String, true
	}
	r.Abbrev = abrev.String
	r.Type = model.RelationType(relType)

	nodeRows, err := s.single.getRelNodes.QueryContext(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("store: get relation %d node members: %w: %v", id, ErrStoreFault, err)
	}
	for nodeRows.Next() {
		var nid int64
		var role int
		if err := nodeRows.Scan(&nid, &role); err != nil {
			nodeRows.Close()
			return nil, fmt.Errorf("store: scan relation %d node member: %w: %v", id, ErrStoreFault, err)
		}
		r.Members = append(r.Members, model.Member{Ref: nid, Type: model.MemberNode, Role: role})
	}
	nodeRows.Close()
	if err := nodeRows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate relation %d node members: %w: %v", id, ErrStoreFault, err)
	}

	wayRows, err := s.single.getRelWays.QueryContext(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("store: get relation %d way members: %w: %v", id, ErrStoreFault, err)
	}
	var bbox osmdbtypes.BoundingBox
	first := true
	for wayRows.Next() {
		var wid int64
		var role int
		if err := wayRows.Scan(&wid, &role); err != nil {
			wayRows.Close()
			return nil, fmt.Errorf("store: scan relation %d way member: %w: %v", id, ErrStoreFault, err)
		}
		r.Members = append(r.Members, model.Member{Ref: wid, Type: model.MemberWay, Role: role})
		if wb, err := s.wayRangeBBox(ctx, wid); err == nil {
			if first {
				bbox, first = wb, false
			} else {
				bbox = bbox.Union(wb)
			}
		}
	}
	wayRows.Close()
	if err := wayRows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate relation %d way members: %w: %v", id, ErrStoreFault, err)
	}
	r.BBox = bbox

	return r, nil
}

func (s *Store) wayRangeBBox(ctx context.Context, wid int64) (osmdbtypes.BoundingBox, error) {
	var b osmdbtypes.BoundingBox
	row := s.single.getWayRange.QueryRowContext(ctx, wid)
	err := row.Scan(&b.LatT, &b.LonL, &b.LatB, &b.LonR)
	if err == sql.ErrNoRows {
		return b, ErrMissingRef
	}
	if err != nil {
		return b, fmt.Errorf("%w: %v", ErrStoreFault, err)
	}
	return b, nil
}

func flagsFromInts(oneway, bridge, tunnel, cutting int) model.WayFlags {
	var f model.WayFlags
	switch oneway {
	case 1:
		f |= model.FlagOnewayForward
	case -1:
		f |= model.FlagOnewayReverse
	}
	if bridge != 0 {
		f |= model.FlagBridge
	}
	if tunnel != 0 {
		f |= model.FlagTunnel
	}
	if cutting != 0 {
		f |= model.FlagCutting
	}
	return f
}
