// Command osmdb-select answers one tile or search request against a
// store database, per spec §6: `select db <request>` where request is
// `/osmdbv4/z/x/y` or `/search/term+term`, writing gzip-compressed
// output to out.xml.gz.
package main

import (
	"compress/gzip"
	"context"
	"encoding/xml"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeffboody/osmdb-sub002/internal/cache"
	"github.com/jeffboody/osmdb-sub002/internal/config"
	"github.com/jeffboody/osmdb-sub002/internal/store"
	"github.com/jeffboody/osmdb-sub002/internal/style"
	"github.com/jeffboody/osmdb-sub002/internal/tile"
)

func main() {
	var stylePath string
	cmd := &cobra.Command{
		Use:   "osmdb-select db request",
		Short: "Answer one /osmdbv4/z/x/y tile or /search/term request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], args[1], stylePath)
		},
	}
	cmd.Flags().StringVar(&stylePath, "style", "", "style.xml used to classify point-center ways (optional)")
	if err := cmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run(dbPath, request, stylePath string) error {
	logger := log.New(os.Stderr, "osmdb-select: ", log.LstdFlags)

	cfg := config.Load()
	s, err := store.Open(dbPath, cfg.Cache.NThreads)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	var isPointCenter tile.PointCenterClass
	if stylePath != "" {
		f, err := os.Open(stylePath)
		if err != nil {
			return fmt.Errorf("open style file: %w", err)
		}
		defer f.Close()
		classes, err := style.Decode(f)
		if err != nil {
			return fmt.Errorf("decode style: %w", err)
		}
		isPointCenter = classes.IsPointCenter
	}

	var body []byte
	switch {
	case strings.HasPrefix(request, "/osmdbv4/"):
		body, err = selectTile(s, isPointCenter, cfg, request, logger)
	case strings.HasPrefix(request, "/search/"):
		body, err = selectSearch(s, cfg, request)
	default:
		err = fmt.Errorf("unrecognized request %q", request)
	}
	if err != nil {
		return err
	}

	out, err := os.Create("out.xml.gz")
	if err != nil {
		return fmt.Errorf("create out.xml.gz: %w", err)
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	if _, err := gw.Write(body); err != nil {
		return fmt.Errorf("write out.xml.gz: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("close out.xml.gz: %w", err)
	}

	logger.Printf("wrote out.xml.gz (%d bytes) for %s", len(body), request)
	return nil
}

func selectTile(s *store.Store, isPointCenter tile.PointCenterClass, cfg *config.Config, request string, logger *log.Logger) ([]byte, error) {
	parts := strings.Split(strings.TrimPrefix(request, "/osmdbv4/"), "/")
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed tile request %q", request)
	}
	zoom, err1 := strconv.Atoi(parts[0])
	x, err2 := strconv.Atoi(parts[1])
	y, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return nil, fmt.Errorf("malformed tile coordinates in %q", request)
	}

	c, err := cache.New(int64(cfg.Cache.BudgetBytes))
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	driver := &tile.Driver{Store: s, Cache: c, IsPointCenterClass: isPointCenter, Log: logger}
	return driver.Build(context.Background(), 0, zoom, x, y, 0)
}

// searchResults is the XML document produced for a /search/term+term
// request, per spec §6.
type searchResults struct {
	XMLName xml.Name     `xml:"results"`
	Nodes   []resultItem `xml:"node"`
	Ways    []resultItem `xml:"way"`
	Rels    []resultItem `xml:"relation"`
}

type resultItem struct {
	ID   int64 `xml:"id,attr"`
	Rank int   `xml:"rank,attr"`
}

func selectSearch(s *store.Store, cfg *config.Config, request string) ([]byte, error) {
	term := strings.ReplaceAll(strings.TrimPrefix(request, "/search/"), "+", " ")
	ctx := context.Background()

	nodes, err := s.SearchNodes(ctx, 0, term)
	if err != nil {
		return nil, fmt.Errorf("search nodes: %w", err)
	}
	ways, err := s.SearchWays(ctx, 0, term)
	if err != nil {
		return nil, fmt.Errorf("search ways: %w", err)
	}
	rels, err := s.SearchRels(ctx, 0, term)
	if err != nil {
		return nil, fmt.Errorf("search relations: %w", err)
	}

	doc := searchResults{
		Nodes: toResultItems(nodes),
		Ways:  toResultItems(ways),
		Rels:  toResultItems(rels),
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal search results: %w", err)
	}
	return out, nil
}

func toResultItems(results []store.SearchResult) []resultItem {
	out := make([]resultItem, len(results))
	for i, r := range results {
		out[i] = resultItem{ID: r.ID, Rank: r.Rank}
	}
	return out
}
