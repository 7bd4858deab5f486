// Package style decodes the style.xml input consumed by the import
// CLI: a table mapping a class name to its numeric class id, minimum
// visible zoom and point-center flag, per spec §6's "import style.xml
// input.xml db" entry point. Grounded on the osmxml package's
// encoding/xml struct-tag decoding, itself grounded on the teacher's
// gpx_importer.go.
package style

import (
	"encoding/xml"
	"fmt"
	"io"
)

// Class is one `<class name=".." id=".." min_zoom=".." center=".."/>`
// entry.
type Class struct {
	Name        string `xml:"name,attr"`
	ID          int    `xml:"id,attr"`
	MinZoom     int    `xml:"min_zoom,attr"`
	PointCenter bool   `xml:"center,attr"`
}

type document struct {
	XMLName xml.Name `xml:"style"`
	Classes []Class  `xml:"class"`
}

// Table resolves a class name to its Class record.
type Table struct {
	byName map[string]Class
	byID   map[int]Class
}

// Decode reads a style.xml document into a lookup Table.
func Decode(r io.Reader) (*Table, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("style: decode: %w", err)
	}
	t := &Table{byName: map[string]Class{}, byID: map[int]Class{}}
	for _, c := range doc.Classes {
		t.byName[c.Name] = c
		t.byID[c.ID] = c
	}
	return t, nil
}

// ClassID resolves a class name to its numeric id, or 0 if unknown.
func (t *Table) ClassID(name string) int {
	if c, ok := t.byName[name]; ok {
		return c.ID
	}
	return 0
}

// Lookup resolves a class name to its full Class record.
func (t *Table) Lookup(name string) (Class, bool) {
	c, ok := t.byName[name]
	return c, ok
}

// MinZoom returns the minimum zoom at which a class id is visible.
func (t *Table) MinZoom(classID int) int {
	if c, ok := t.byID[classID]; ok {
		return c.MinZoom
	}
	return 0
}

// IsPointCenter reports whether a class id should be rendered as a
// centered point rather than full geometry, per tile.PointCenterClass.
func (t *Table) IsPointCenter(classID int) bool {
	if c, ok := t.byID[classID]; ok {
		return c.PointCenter
	}
	return false
}
