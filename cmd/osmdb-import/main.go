// Command osmdb-import loads an OSM XML extract into the keyed blob
// store, per spec §6: `import style.xml input.xml db`.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeffboody/osmdb-sub002/internal/config"
	"github.com/jeffboody/osmdb-sub002/internal/model"
	"github.com/jeffboody/osmdb-sub002/internal/osmxml"
	"github.com/jeffboody/osmdb-sub002/internal/store"
	"github.com/jeffboody/osmdb-sub002/internal/style"
	"github.com/jeffboody/osmdb-sub002/pkg/osmdbtypes"
)

func main() {
	cmd := &cobra.Command{
		Use:   "osmdb-import style.xml input.xml db",
		Short: "Import an OSM XML extract into a store database",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], args[1], args[2])
		},
	}
	if err := cmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run(stylePath, inputPath, dbPath string) error {
	logger := log.New(os.Stderr, "osmdb-import: ", log.LstdFlags)

	styleFile, err := os.Open(stylePath)
	if err != nil {
		return fmt.Errorf("open style file: %w", err)
	}
	defer styleFile.Close()
	classes, err := style.Decode(styleFile)
	if err != nil {
		return fmt.Errorf("decode style: %w", err)
	}

	inputFile, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}
	defer inputFile.Close()
	doc, err := osmxml.Decode(inputFile)
	if err != nil {
		return fmt.Errorf("decode input: %w", err)
	}

	cfg := config.Load()
	s, err := store.Open(dbPath, cfg.Cache.NThreads)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	ctx := context.Background()
	nodesByID := make(map[int64]osmxml.Node, len(doc.Nodes))
	for _, n := range doc.Nodes {
		nodesByID[n.ID] = n
	}

	nNodes, nWays, nRels := 0, 0, 0

	for _, n := range doc.Nodes {
		class := classify(classes, n.Tags)
		node := &model.Node{ID: n.ID, Lat: n.Lat, Lon: n.Lon, Class: class.ID}
		if v, ok := osmxml.TagValue(n.Tags, "name"); ok {
			node.Name, node.HasName = v, true
		}
		if v, ok := osmxml.TagValue(n.Tags, "abrev"); ok {
			node.Abbrev = v
		}
		if err := s.AddNode(ctx, node, class.MinZoom); err != nil {
			return fmt.Errorf("import node %d: %w", n.ID, err)
		}
		nNodes++
	}

	for _, w := range doc.Ways {
		nds := make([]int64, len(w.Nds))
		for i, nd := range w.Nds {
			nds[i] = nd.Ref
		}
		class := classify(classes, w.Tags)
		way := &model.Way{ID: w.ID, Class: class.ID, Nds: nds, BBox: wayBBox(nodesByID, nds)}
		if v, ok := osmxml.TagValue(w.Tags, "name"); ok {
			way.Name, way.HasName = v, true
		}
		if v, ok := osmxml.TagValue(w.Tags, "oneway"); ok {
			if v == "-1" {
				way.Flags |= model.FlagOnewayReverse
			} else {
				way.Flags |= model.FlagOnewayForward
			}
		}
		if _, ok := osmxml.TagValue(w.Tags, "bridge"); ok {
			way.Flags |= model.FlagBridge
		}
		if _, ok := osmxml.TagValue(w.Tags, "tunnel"); ok {
			way.Flags |= model.FlagTunnel
		}
		if _, ok := osmxml.TagValue(w.Tags, "cutting"); ok {
			way.Flags |= model.FlagCutting
		}
		if err := s.AddWay(ctx, way, class.MinZoom); err != nil {
			return fmt.Errorf("import way %d: %w", w.ID, err)
		}
		nWays++
	}

	for _, r := range doc.Relations {
		class := classify(classes, r.Tags)
		rel := &model.Relation{ID: r.ID, Class: class.ID}
		if v, ok := osmxml.TagValue(r.Tags, "name"); ok {
			rel.Name, rel.HasName = v, true
		}
		if t, ok := osmxml.TagValue(r.Tags, "type"); ok {
			switch t {
			case "multipolygon":
				rel.Type = model.RelationMultipolygon
			case "boundary":
				rel.Type = model.RelationBoundary
			}
		}
		for _, m := range r.Members {
			var mt model.MemberType
			switch m.Type {
			case "way":
				mt = model.MemberWay
			case "relation":
				mt = model.MemberRelation
			default:
				mt = model.MemberNode
			}
			rel.Members = append(rel.Members, model.Member{Ref: m.Ref, Type: mt, Role: memberRole(m.Role)})
		}
		if err := s.AddRelation(ctx, rel, class.MinZoom); err != nil {
			return fmt.Errorf("import relation %d: %w", r.ID, err)
		}
		nRels++
	}

	logger.Printf("imported %d nodes, %d ways, %d relations from %s", nNodes, nWays, nRels, inputPath)
	return nil
}

// classify resolves an element's style class from its tags, per the
// external style-lookup collaborator named in spec §1: the first tag
// whose "key=value" matches an entry in the style table wins; only if
// no tag matches that way does the first tag whose bare key matches
// win. Elements with no matching tag fall back to the zero class.
func classify(classes *style.Table, tags []osmxml.Tag) style.Class {
	for _, t := range tags {
		if c, ok := classes.Lookup(t.Key + "=" + t.Value); ok {
			return c
		}
	}
	for _, t := range tags {
		if c, ok := classes.Lookup(t.Key); ok {
			return c
		}
	}
	return style.Class{}
}

// memberRole maps an OSM XML member role string to the role code
// persisted in the store, per spec §4.A. Multipolygon/boundary
// relations tag their members "outer"/"inner"; anything else (empty
// role, or roles like "admin_centre" this importer doesn't track) maps
// to RoleNone.
func memberRole(role string) int {
	switch role {
	case "outer":
		return int(model.RoleOuter)
	case "inner":
		return int(model.RoleInner)
	default:
		return int(model.RoleNone)
	}
}

func wayBBox(nodesByID map[int64]osmxml.Node, nds []int64) osmdbtypes.BoundingBox {
	var bbox osmdbtypes.BoundingBox
	first := true
	for _, id := range nds {
		n, ok := nodesByID[id]
		if !ok {
			continue
		}
		b := osmdbtypes.BoundingBox{LatT: n.Lat, LonL: n.Lon, LatB: n.Lat, LonR: n.Lon}
		if first {
			bbox, first = b, false
			continue
		}
		bbox = bbox.Union(b)
	}
	return bbox
}
