package store

// schema mirrors spec §6's persistent store schema. One Store owns one
// underlying *sql.DB; nodes/ways/rels are split into info/coords/range
// tables the way the source schema does, so range queries can scan a
// narrow table without touching name/tag payloads.
const schema = `
CREATE TABLE IF NOT EXISTS nodes_coords (
	nid INTEGER PRIMARY KEY,
	lat REAL NOT NULL,
	lon REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS nodes_info (
	nid INTEGER PRIMARY KEY,
	name TEXT,
	abrev TEXT,
	ele INTEGER,
	st INTEGER,
	class INTEGER,
	min_zoom INTEGER
);
CREATE TABLE IF NOT EXISTS nodes_range (
	nid INTEGER PRIMARY KEY,
	latT REAL, lonL REAL, latB REAL, lonR REAL
);
CREATE INDEX IF NOT EXISTS idx_nodes_range ON nodes_range (latT, lonL, latB, lonR);

CREATE TABLE IF NOT EXISTS ways (
	wid INTEGER PRIMARY KEY,
	name TEXT,
	abrev TEXT,
	class INTEGER,
	layer INTEGER,
	oneway INTEGER,
	bridge INTEGER,
	tunnel INTEGER,
	cutting INTEGER,
	center_lat REAL,
	center_lon REAL,
	selected INTEGER
);
CREATE TABLE IF NOT EXISTS ways_range (
	wid INTEGER PRIMARY KEY,
	latT REAL, lonL REAL, latB REAL, lonR REAL,
	min_zoom INTEGER
);
CREATE INDEX IF NOT EXISTS idx_ways_range ON ways_range (latT, lonL, latB, lonR);
CREATE TABLE IF NOT EXISTS ways_nds (
	wid INTEGER,
	idx INTEGER,
	nid INTEGER,
	PRIMARY KEY (wid, idx)
);

CREATE TABLE IF NOT EXISTS rels (
	rid INTEGER PRIMARY KEY,
	name TEXT,
	abrev TEXT,
	class INTEGER,
	type INTEGER,
	center_lat REAL,
	center_lon REAL,
	polygon INTEGER
);
CREATE TABLE IF NOT EXISTS rels_range (
	rid INTEGER PRIMARY KEY,
	latT REAL, lonL REAL, latB REAL, lonR REAL,
	min_zoom INTEGER
);
CREATE INDEX IF NOT EXISTS idx_rels_range ON rels_range (latT, lonL, latB, lonR);
CREATE TABLE IF NOT EXISTS nodes_members (
	rid INTEGER,
	nid INTEGER,
	role INTEGER
);
CREATE TABLE IF NOT EXISTS ways_members (
	rid INTEGER,
	idx INTEGER,
	wid INTEGER,
	role INTEGER,
	PRIMARY KEY (rid, idx)
);

CREATE TABLE IF NOT EXISTS class_rank (
	class INTEGER PRIMARY KEY,
	rank INTEGER
);

CREATE VIRTUAL TABLE IF NOT EXISTS nodes_text USING fts5(nid UNINDEXED, name);
CREATE VIRTUAL TABLE IF NOT EXISTS ways_text  USING fts5(wid UNINDEXED, name);
CREATE VIRTUAL TABLE IF NOT EXISTS rels_text  USING fts5(rid UNINDEXED, name);

CREATE TABLE IF NOT EXISTS watermark (
	id INTEGER PRIMARY KEY CHECK (id = 0),
	change_id INTEGER NOT NULL
);
`
