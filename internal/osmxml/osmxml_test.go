package osmxml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeParsesNodesWaysAndRelations(t *testing.T) {
	src := `<?xml version="1.0"?>
<osm>
  <bounds minlat="39.9" minlon="-105.3" maxlat="40.1" maxlon="-105.1"/>
  <node id="1" lat="40.0" lon="-105.2">
    <tag k="highway" v="residential"/>
  </node>
  <node id="2" lat="40.01" lon="-105.21"/>
  <way id="10">
    <nd ref="1"/>
    <nd ref="2"/>
    <tag k="name" v="Main St"/>
  </way>
  <relation id="100">
    <member type="way" ref="10" role="outer"/>
    <tag k="type" v="route"/>
  </relation>
</osm>`

	doc, err := Decode(strings.NewReader(src))
	require.NoError(t, err)

	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, int64(1), doc.Nodes[0].ID)
	assert.InDelta(t, 40.0, doc.Nodes[0].Lat, 1e-9)
	v, ok := TagValue(doc.Nodes[0].Tags, "highway")
	require.True(t, ok)
	assert.Equal(t, "residential", v)

	require.Len(t, doc.Ways, 1)
	assert.Equal(t, []Nd{{Ref: 1}, {Ref: 2}}, doc.Ways[0].Nds)

	require.Len(t, doc.Relations, 1)
	assert.Equal(t, "outer", doc.Relations[0].Members[0].Role)

	assert.InDelta(t, 39.9, doc.Bounds.MinLat, 1e-9)
}

func TestTagValueMissingKeyReturnsFalse(t *testing.T) {
	_, ok := TagValue([]Tag{{Key: "name", Value: "x"}}, "highway")
	assert.False(t, ok)
}

func TestDecodeChangesetsFillsBBoxFromMinMax(t *testing.T) {
	src := `<osm>
  <changeset id="42" min_lat="39.9" min_lon="-105.3" max_lat="40.1" max_lon="-105.1"/>
</osm>`

	cs, err := DecodeChangesets(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, cs, 1)

	assert.Equal(t, int64(42), cs[0].ID)
	assert.InDelta(t, 40.1, cs[0].BBox.LatT, 1e-9)
	assert.InDelta(t, -105.3, cs[0].BBox.LonL, 1e-9)
	assert.InDelta(t, 39.9, cs[0].BBox.LatB, 1e-9)
	assert.InDelta(t, -105.1, cs[0].BBox.LonR, 1e-9)
}

func TestDecodeRejectsMalformedXML(t *testing.T) {
	_, err := Decode(strings.NewReader("<osm><node id=\"1\""))
	assert.Error(t, err)
}
