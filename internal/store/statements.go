package store

import (
	"database/sql"
	"fmt"
)

// singleStmts are the single-writer, point-lookup/insert statements
// shared across threads and serialized under Store.mu.
type singleStmts struct {
	getNode     *sql.Stmt
	getWay      *sql.Stmt
	getWayNds   *sql.Stmt
	getWayRange *sql.Stmt
	getRel      *sql.Stmt
	getRelNodes *sql.Stmt
	getRelWays  *sql.Stmt

	putNodeCoords *sql.Stmt
	putNodeInfo   *sql.Stmt
	putNodeRange  *sql.Stmt
	putWay        *sql.Stmt
	putWayRange   *sql.Stmt
	putWayNd      *sql.Stmt
	putRel        *sql.Stmt
	putRelRange   *sql.Stmt
	putRelNode    *sql.Stmt
	putRelWay     *sql.Stmt

	getWatermark *sql.Stmt
	setWatermark *sql.Stmt
}

func prepareSingleStmts(db *sql.DB) (*singleStmts, error) {
	s := &singleStmts{}
	stmts := []struct {
		dst  **sql.Stmt
		text string
	}{
		{&s.getNode, `SELECT c.lat, c.lon, i.name, i.abrev, i.ele, i.st, i.class
			FROM nodes_coords c JOIN nodes_info i ON i.nid = c.nid WHERE c.nid = ?`},
		{&s.getWay, `SELECT name, abrev, class, layer, oneway, bridge, tunnel, cutting, selected
			FROM ways WHERE wid = ?`},
		{&s.getWayNds, `SELECT nid FROM ways_nds WHERE wid = ? ORDER BY idx`},
		{&s.getWayRange, `SELECT latT, lonL, latB, lonR FROM ways_range WHERE wid = ?`},
		{&s.getRel, `SELECT name, abrev, class, type FROM rels WHERE rid = ?`},
		{&s.getRelNodes, `SELECT nid, role FROM nodes_members WHERE rid = ?`},
		{&s.getRelWays, `SELECT wid, role FROM ways_members WHERE rid = ? ORDER BY idx`},

		{&s.putNodeCoords, `INSERT OR REPLACE INTO nodes_coords (nid, lat, lon) VALUES (?, ?, ?)`},
		{&s.putNodeInfo, `INSERT OR REPLACE INTO nodes_info (nid, name, abrev, ele, st, class, min_zoom) VALUES (?, ?, ?, ?, ?, ?, ?)`},
		{&s.putNodeRange, `INSERT OR REPLACE INTO nodes_range (nid, latT, lonL, latB, lonR) VALUES (?, ?, ?, ?, ?)`},
		{&s.putWay, `INSERT OR REPLACE INTO ways (wid, name, abrev, class, layer, oneway, bridge, tunnel, cutting, center_lat, center_lon, selected)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`},
		{&s.putWayRange, `INSERT OR REPLACE INTO ways_range (wid, latT, lonL, latB, lonR, min_zoom) VALUES (?, ?, ?, ?, ?, ?)`},
		{&s.putWayNd, `INSERT OR REPLACE INTO ways_nds (wid, idx, nid) VALUES (?, ?, ?)`},
		{&s.putRel, `INSERT OR REPLACE INTO rels (rid, name, abrev, class, type, center_lat, center_lon, polygon) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`},
		{&s.putRelRange, `INSERT OR REPLACE INTO rels_range (rid, latT, lonL, latB, lonR, min_zoom) VALUES (?, ?, ?, ?, ?, ?)`},
		{&s.putRelNode, `INSERT OR REPLACE INTO nodes_members (rid, nid, role) VALUES (?, ?, ?)`},
		{&s.putRelWay, `INSERT OR REPLACE INTO ways_members (rid, idx, wid, role) VALUES (?, ?, ?, ?)`},

		{&s.getWatermark, `SELECT change_id FROM watermark WHERE id = 0`},
		{&s.setWatermark, `INSERT OR REPLACE INTO watermark (id, change_id) VALUES (0, ?)`},
	}
	for _, st := range stmts {
		prepared, err := db.Prepare(st.text)
		if err != nil {
			return nil, fmt.Errorf("prepare %q: %w", st.text, err)
		}
		*st.dst = prepared
	}
	return s, nil
}

func (s *singleStmts) close() {
	for _, st := range []*sql.Stmt{
		s.getNode, s.getWay, s.getWayNds, s.getWayRange, s.getRel, s.getRelNodes, s.getRelWays,
		s.putNodeCoords, s.putNodeInfo, s.putNodeRange, s.putWay, s.putWayRange, s.putWayNd,
		s.putRel, s.putRelRange, s.putRelNode, s.putRelWay, s.getWatermark, s.setWatermark,
	} {
		if st != nil {
			st.Close()
		}
	}
}

// rangeStmts are replicated once per worker thread so concurrent tile
// builds never block on a shared cursor, per spec §9's design note.
type rangeStmts struct {
	nodesRange *sql.Stmt
	waysRange  *sql.Stmt
	relsRange  *sql.Stmt

	searchNodes *sql.Stmt
	searchWays  *sql.Stmt
	searchRels  *sql.Stmt
}

const rangePredicate = `latT > ? AND lonL < ? AND latB < ? AND lonR > ? AND min_zoom <= ?`

func prepareRangeStmts(db *sql.DB) (*rangeStmts, error) {
	r := &rangeStmts{}
	stmts := []struct {
		dst  **sql.Stmt
		text string
	}{
		{&r.nodesRange, `SELECT nid FROM nodes_range WHERE ` + rangePredicate},
		{&r.waysRange, `SELECT w.wid FROM ways_range r JOIN ways w ON w.wid = r.wid
			WHERE ` + rangePredicateAliased("r") + ` AND w.selected = 1`},
		{&r.relsRange, `SELECT rid, latT, lonL, latB, lonR FROM rels_range WHERE ` + rangePredicate},
		{&r.searchNodes, `SELECT n.nid, coalesce(cr.rank, 0) AS rank FROM nodes_text t
			JOIN nodes_info n ON n.nid = t.nid LEFT JOIN class_rank cr ON cr.class = n.class
			WHERE t.name MATCH ? ORDER BY rank DESC LIMIT 10`},
		{&r.searchWays, `SELECT w.wid, coalesce(cr.rank, 0) AS rank FROM ways_text t
			JOIN ways w ON w.wid = t.wid LEFT JOIN class_rank cr ON cr.class = w.class
			WHERE t.name MATCH ? ORDER BY rank DESC LIMIT 10`},
		{&r.searchRels, `SELECT rl.rid, coalesce(cr.rank, 0) AS rank FROM rels_text t
			JOIN rels rl ON rl.rid = t.rid LEFT JOIN class_rank cr ON cr.class = rl.class
			WHERE t.name MATCH ? ORDER BY rank DESC LIMIT 10`},
	}
	for _, st := range stmts {
		prepared, err := db.Prepare(st.text)
		if err != nil {
			return nil, fmt.Errorf("prepare %q: %w", st.text, err)
		}
		*st.dst = prepared
	}
	return r, nil
}

func rangePredicateAliased(alias string) string {
	return fmt.Sprintf("%s.latT > ? AND %s.lonL < ? AND %s.latB < ? AND %s.lonR > ? AND %s.min_zoom <= ?",
		alias, alias, alias, alias, alias)
}

func (r *rangeStmts) close() {
	for _, st := range []*sql.Stmt{r.nodesRange, r.waysRange, r.relsRange, r.searchNodes, r.searchWays, r.searchRels} {
		if st != nil {
			st.Close()
		}
	}
}
