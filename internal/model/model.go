// Package model defines the Node, Way and Relation types shared by the
// store, cache, join, sample, clip and tile packages, per spec §3.
package model

import "github.com/jeffboody/osmdb-sub002/pkg/osmdbtypes"

// WayFlags is a bitset of way attributes.
type WayFlags int

const (
	FlagOnewayForward WayFlags = 1 << iota
	FlagOnewayReverse
	FlagBridge
	FlagTunnel
	FlagCutting
)

// RelationType distinguishes plain relations from boundaries and
// multipolygons.
type RelationType int

const (
	RelationNone RelationType = iota
	RelationBoundary
	RelationMultipolygon
)

// MemberType is the kind of object a relation member refers to.
type MemberType int

const (
	MemberNode MemberType = iota
	MemberWay
	MemberRelation
)

// Node is immutable after construction and refcounted by the cache.
type Node struct {
	ID         int64
	Lat, Lon   float64
	Name       string
	Abbrev     string
	Elevation  int
	State      int
	Class      int
	HasName    bool
}

// Way is refcounted; the cache hands out mutable copies so join/sample/
// clip can mutate state without disturbing the canonical cached value.
type Way struct {
	ID       int64
	Name     string
	Abbrev   string
	HasName  bool
	Class    int
	Layer    int
	Flags    WayFlags
	BBox     osmdbtypes.BoundingBox
	Nds      []int64 // ordered node ids; a Way-copy's working geometry
	Selected bool
}

// Clone returns an independent mutable copy of w, as handed out by the
// cache on every Way fetch (spec §4.B).
func (w *Way) Clone() *Way {
	cp := *w
	cp.Nds = append([]int64(nil), w.Nds...)
	return &cp
}

func (w *Way) Head() int64 {
	if len(w.Nds) == 0 {
		return 0
	}
	return w.Nds[0]
}

func (w *Way) Tail() int64 {
	if len(w.Nds) == 0 {
		return 0
	}
	return w.Nds[len(w.Nds)-1]
}

// IsLoop reports whether the way's first and last node ids are equal.
func (w *Way) IsLoop() bool {
	return len(w.Nds) > 1 && w.Head() == w.Tail()
}

func (w *Way) HasOneway() bool {
	return w.Flags&(FlagOnewayForward|FlagOnewayReverse) != 0
}

// MemberRole enumerates the relation-member role codes persisted in
// the nodes_members/ways_members role column (spec §4.A); multipolygon
// relations use outer/inner to distinguish the filled area from holes.
type MemberRole int

const (
	RoleNone MemberRole = iota
	RoleOuter
	RoleInner
)

// Member is one entry in a Relation's ordered member list.
type Member struct {
	Ref  int64
	Type MemberType
	Role int
}

// Relation is immutable; its bbox is the hull of its member Ways'
// bboxes only (node-only members do not contribute, per spec §3).
type Relation struct {
	ID      int64
	Name    string
	Abbrev  string
	HasName bool
	Class   int
	Type    RelationType
	Members []Member
	BBox    osmdbtypes.BoundingBox
}
