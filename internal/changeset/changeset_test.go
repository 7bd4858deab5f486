package changeset

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffboody/osmdb-sub002/internal/model"
	"github.com/jeffboody/osmdb-sub002/internal/osmxml"
	"github.com/jeffboody/osmdb-sub002/internal/store"
	"github.com/jeffboody/osmdb-sub002/pkg/osmdbtypes"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "test.db"), 1)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestApplySkipsChangesetsAtOrBelowWatermark(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.SetWatermark(ctx, 10))

	a := &Applier{Store: s}
	result, err := a.Apply(ctx, []osmxml.Changeset{
		{ID: 5, BBox: osmdbtypes.BoundingBox{LatT: 1, LonL: -1, LatB: -1, LonR: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Applied)
	assert.Equal(t, int64(10), result.NewWatermark)
}

func TestApplyDeletesWaysAndRelsIntersectingBBox(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	w := &model.Way{ID: 1, BBox: osmdbtypes.BoundingBox{LatT: 1, LonL: -1, LatB: -1, LonR: 1}}
	require.NoError(t, s.AddWay(ctx, w, 10))
	r := &model.Relation{ID: 2, BBox: osmdbtypes.BoundingBox{LatT: 1, LonL: -1, LatB: -1, LonR: 1}}
	require.NoError(t, s.AddRelation(ctx, r, 10))

	a := &Applier{Store: s}
	result, err := a.Apply(ctx, []osmxml.Changeset{
		{ID: 1, BBox: osmdbtypes.BoundingBox{LatT: 1, LonL: -1, LatB: -1, LonR: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, 1, result.WaysDeleted)
	assert.Equal(t, 1, result.RelsDeleted)
	assert.Equal(t, int64(1), result.NewWatermark)

	ids, err := s.WaysRangeIDsIntersecting(ctx, w.BBox)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestApplyAdvancesWatermarkThroughEmptyBBoxChangesets(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a := &Applier{Store: s}
	result, err := a.Apply(ctx, []osmxml.Changeset{
		{ID: 3, BBox: osmdbtypes.BoundingBox{}},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Applied, "an empty bbox changeset advances the watermark without touching any range row")
	assert.Equal(t, int64(3), result.NewWatermark)
}
