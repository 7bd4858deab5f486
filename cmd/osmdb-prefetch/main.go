// Command osmdb-prefetch builds every tile covering a named region at
// the three prefetch zoom tiers, per spec §6:
// `prefetch -pf=WW|US|CO smem cache.db index.db`.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeffboody/osmdb-sub002/internal/cache"
	"github.com/jeffboody/osmdb-sub002/internal/config"
	"github.com/jeffboody/osmdb-sub002/internal/store"
	"github.com/jeffboody/osmdb-sub002/internal/tile"
)

// prefetchZooms are the three tiers tbl_tile9/12/15 cover, per spec §6.
var prefetchZooms = []int{9, 12, 15}

func main() {
	var region string
	cmd := &cobra.Command{
		Use:   "osmdb-prefetch smem cache.db index.db",
		Short: "Prefetch every tile covering a named region into per-zoom tile tables",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(region, args[0], args[1], args[2])
		},
	}
	cmd.Flags().StringVar(&region, "pf", "WW", "prefetch region: WW, US or CO")
	if err := cmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run(regionName, smem, cachePath, indexPath string) error {
	logger := log.New(os.Stderr, "osmdb-prefetch: ", log.LstdFlags)

	bbox, ok := tile.KnownRegions[regionName]
	if !ok {
		return fmt.Errorf("unknown prefetch region %q", regionName)
	}
	region := tile.Region{Name: regionName, BBox: bbox}

	cfg := config.Load()

	idx, err := store.Open(indexPath, cfg.Cache.NThreads)
	if err != nil {
		return fmt.Errorf("open index store: %w", err)
	}
	defer idx.Close()

	objCache, err := cache.New(int64(cfg.Cache.BudgetBytes))
	if err != nil {
		return fmt.Errorf("create object cache: %w", err)
	}

	driver := &tile.Driver{Store: idx, Cache: objCache, Log: logger}
	pool := tile.NewPool(driver, cfg.Cache.NThreads)

	cacheStore, err := store.Open(cachePath, cfg.Cache.NThreads)
	if err != nil {
		return fmt.Errorf("open cache store: %w", err)
	}
	defer cacheStore.Close()

	planner := &tile.Planner{Store: cacheStore, Pool: pool, Log: logger}

	ctx := context.Background()
	for _, zoom := range prefetchZooms {
		if err := planner.Run(ctx, region, zoom); err != nil {
			logger.Printf("zoom %d: %v", zoom, err)
		}
	}

	_ = smem // names the shared-memory budget flag of the original CLI surface; tuning lives in internal/config
	return nil
}
