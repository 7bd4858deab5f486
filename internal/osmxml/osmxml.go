// Package osmxml decodes the OSM XML elements named in spec §6 (osm,
// bounds, node, way, nd, relation, member, tag) and the standalone
// <changeset> stream consumed by the changeset applier. The full
// OSM XML parser (tag extraction, transliteration, abbreviation) is an
// external collaborator per spec §1; this package owns only the
// struct-tag decoding, grounded on the teacher's gpx_importer.go use
// of encoding/xml with attribute-tagged fields.
package osmxml

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/jeffboody/osmdb-sub002/pkg/osmdbtypes"
)

// Changeset is one <changeset id=".." min_lat=".." .../> record.
type Changeset struct {
	ID   int64                  `xml:"id,attr"`
	BBox osmdbtypes.BoundingBox `xml:"-"`

	MinLat float64 `xml:"min_lat,attr"`
	MinLon float64 `xml:"min_lon,attr"`
	MaxLat float64 `xml:"max_lat,attr"`
	MaxLon float64 `xml:"max_lon,attr"`
}

type changesetDoc struct {
	XMLName    xml.Name    `xml:"osm"`
	Changesets []Changeset `xml:"changeset"`
}

// DecodeChangesets reads a `<osm><changeset .../>...</osm>` document
// and fills in each record's BBox from its min/max attributes.
func DecodeChangesets(r io.Reader) ([]Changeset, error) {
	var doc changesetDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("osmxml: decode changesets: %w", err)
	}
	for i := range doc.Changesets {
		c := &doc.Changesets[i]
		c.BBox = osmdbtypes.BoundingBox{LatT: c.MaxLat, LonL: c.MinLon, LatB: c.MinLat, LonR: c.MaxLon}
	}
	return doc.Changesets, nil
}

// Tag is a <tag k=".." v=".."/> element.
type Tag struct {
	Key   string `xml:"k,attr"`
	Value string `xml:"v,attr"`
}

// Nd is a <nd ref=".."/> element within a Way.
type Nd struct {
	Ref int64 `xml:"ref,attr"`
}

// Member is a <member type=".." ref=".." role=".."/> element within a
// Relation.
type Member struct {
	Type string `xml:"type,attr"`
	Ref  int64  `xml:"ref,attr"`
	Role string `xml:"role,attr"`
}

// Node is a <node id=".." lat=".." lon="..">...<tag/>...</node> element.
type Node struct {
	ID   int64   `xml:"id,attr"`
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Tags []Tag   `xml:"tag"`
}

// Way is a <way id="..">...<nd/>...<tag/>...</way> element.
type Way struct {
	ID   int64 `xml:"id,attr"`
	Nds  []Nd  `xml:"nd"`
	Tags []Tag `xml:"tag"`
}

// Relation is a <relation id="..">...<member/>...<tag/>...</relation>
// element.
type Relation struct {
	ID      int64    `xml:"id,attr"`
	Members []Member `xml:"member"`
	Tags    []Tag    `xml:"tag"`
}

// Bounds is the <bounds .../> element of an OSM extract.
type Bounds struct {
	MinLat float64 `xml:"minlat,attr"`
	MinLon float64 `xml:"minlon,attr"`
	MaxLat float64 `xml:"maxlat,attr"`
	MaxLon float64 `xml:"maxlon,attr"`
}

// Document is one parsed `<osm>...</osm>` extract.
type Document struct {
	XMLName   xml.Name   `xml:"osm"`
	Bounds    Bounds     `xml:"bounds"`
	Nodes     []Node     `xml:"node"`
	Ways      []Way      `xml:"way"`
	Relations []Relation `xml:"relation"`
}

// Decode reads one OSM XML extract.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("osmxml: decode document: %w", err)
	}
	return &doc, nil
}

// TagValue looks up a tag's value by key.
func TagValue(tags []Tag, key string) (string, bool) {
	for _, t := range tags {
		if t.Key == key {
			return t.Value, true
		}
	}
	return "", false
}
