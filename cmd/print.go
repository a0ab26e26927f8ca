package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/royalcat/geoloc/geomodel"
	"github.com/royalcat/geoloc/i2dtree"
	"github.com/royalcat/geoloc/locator"
	"github.com/urfave/cli/v3"
)

func printTree(ctx *cli.Context) error {
	items, err := locator.ParsePoints(os.Stdin)
	if err != nil {
		return err
	}

	switch format := ctx.String("format"); format {
	case "tree":
		return writeTree(os.Stdout, i2dtree.Build(items))
	case "geojson":
		return writeGeoJSON(os.Stdout, items)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// writeTree prints one node per line, indented by depth, with the axis the node
// splits on.
func writeTree(w io.Writer, tree *i2dtree.Tree[geomodel.Info]) error {
	var sb strings.Builder
	tree.Walk(func(node *i2dtree.Node[geomodel.Info], depth int, axis i2dtree.Axis) bool {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(axis.String())
		sb.WriteString(" (")
		sb.WriteString(strconv.FormatFloat(node.Item.Point.Latitude, 'f', -1, 64))
		sb.WriteString(", ")
		sb.WriteString(strconv.FormatFloat(node.Item.Point.Longitude, 'f', -1, 64))
		sb.WriteString(") ")
		sb.WriteString(node.Item.Value.Name)
		sb.WriteString("\n")
		return true
	})
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeGeoJSON(w io.Writer, items []i2dtree.Item[geomodel.Info]) error {
	fc := locator.NewFromItems(items, quietLogger()).FeatureCollection()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(fc)
}
