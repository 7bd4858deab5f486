package style

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `<style>
  <class name="highway=residential" id="1" min_zoom="12" center="false"/>
  <class name="amenity=cafe" id="2" min_zoom="14" center="true"/>
</style>`

func TestDecodeBuildsNameAndIDLookups(t *testing.T) {
	table, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, 1, table.ClassID("highway=residential"))
	assert.Equal(t, 12, table.MinZoom(1))
	assert.False(t, table.IsPointCenter(1))

	assert.Equal(t, 14, table.MinZoom(2))
	assert.True(t, table.IsPointCenter(2))

	c, ok := table.Lookup("amenity=cafe")
	require.True(t, ok)
	assert.Equal(t, 2, c.ID)
}

func TestUnknownNameOrIDReturnsZeroValues(t *testing.T) {
	table, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, 0, table.ClassID("nonexistent"))
	assert.Equal(t, 0, table.MinZoom(999))
	assert.False(t, table.IsPointCenter(999))

	_, ok := table.Lookup("nonexistent")
	assert.False(t, ok)
}
