// Package changeset implements the changeset applier of spec §4.H: it
// invalidates the derived ways_range/rels_range tables from OSM
// changeset bboxes so a subsequent re-index repopulates only the
// affected area.
package changeset

import (
	"context"
	"fmt"

	"github.com/jeffboody/osmdb-sub002/internal/osmxml"
	"github.com/jeffboody/osmdb-sub002/internal/store"
)

// Applier runs one invalidation pass over a stream of changesets.
type Applier struct {
	Store *store.Store
}

// Result summarizes one run, for logging by the CLI entry point.
type Result struct {
	Applied      int
	WaysDeleted  int
	RelsDeleted  int
	NewWatermark int64
}

// Apply takes the decoded changesets, applies every record whose id exceeds
// the current watermark and whose bbox is non-zero, and advances the
// watermark. Failure of any single bbox operation aborts the run
// (spec §4.H); ids accumulated into the temp sets before the failure
// are discarded since deletion only happens in the finish step.
func (a *Applier) Apply(ctx context.Context, changesets []osmxml.Changeset) (Result, error) {
	watermark, err := a.Store.Watermark(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("changeset: read watermark: %w", err)
	}

	deleteWays := map[int64]struct{}{}
	deleteRels := map[int64]struct{}{}
	applied := 0
	newWatermark := watermark

	for _, c := range changesets {
		if c.ID <= watermark {
			continue
		}
		if c.BBox.Empty() {
			if c.ID > newWatermark {
				newWatermark = c.ID
			}
			continue
		}

		wids, err := a.Store.WaysRangeIDsIntersecting(ctx, c.BBox)
		if err != nil {
			return Result{}, fmt.Errorf("changeset %d: %w", c.ID, err)
		}
		for _, id := range wids {
			deleteWays[id] = struct{}{}
		}

		rids, err := a.Store.RelsRangeIDsIntersecting(ctx, c.BBox)
		if err != nil {
			return Result{}, fmt.Errorf("changeset %d: %w", c.ID, err)
		}
		for _, id := range rids {
			deleteRels[id] = struct{}{}
		}

		applied++
		if c.ID > newWatermark {
			newWatermark = c.ID
		}
	}

	wayIDs := keys(deleteWays)
	relIDs := keys(deleteRels)

	if err := a.Store.DeleteWaysRange(ctx, wayIDs); err != nil {
		return Result{}, fmt.Errorf("changeset: finish: %w", err)
	}
	if err := a.Store.DeleteRelsRange(ctx, relIDs); err != nil {
		return Result{}, fmt.Errorf("changeset: finish: %w", err)
	}
	if err := a.Store.SetWatermark(ctx, newWatermark); err != nil {
		return Result{}, fmt.Errorf("changeset: finish: %w", err)
	}

	return Result{
		Applied:      applied,
		WaysDeleted:  len(wayIDs),
		RelsDeleted:  len(relIDs),
		NewWatermark: newWatermark,
	}, nil
}

func keys(m map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
