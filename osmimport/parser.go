package osmimport

import (
	"github.com/paulmach/osm"
	"github.com/royalcat/geoloc/geomodel"
	"github.com/royalcat/geoloc/i2dtree"
)

// Tags that make a named node worth locating on its own.
var poiKeys = []string{"place", "amenity", "shop", "tourism", "historic", "railway"}

func (f *Importer) parseNode(node *osm.Node) (i2dtree.Item[geomodel.Info], bool) {
	street := node.Tags.Find("addr:street")
	housenumber := node.Tags.Find("addr:housenumber")

	if housenumber != "" && street != "" {
		return i2dtree.NewItem(node.Lat, node.Lon, geomodel.Info{
			Name:        f.localizedName(node.Tags),
			Street:      f.localizedTag(node.Tags, "addr:street"),
			HouseNumber: housenumber,
			City:        f.localizedTag(node.Tags, "addr:city"),
			Region:      f.localizedTag(node.Tags, "addr:state"),
		}), true
	}

	name := f.localizedName(node.Tags)
	if name == "" {
		return i2dtree.Item[geomodel.Info]{}, false
	}
	for _, key := range poiKeys {
		if node.Tags.Find(key) != "" {
			return i2dtree.NewItem(node.Lat, node.Lon, geomodel.Info{
				Name:   name,
				City:   f.localizedTag(node.Tags, "addr:city"),
				Region: f.localizedTag(node.Tags, "addr:state"),
			}), true
		}
	}

	return i2dtree.Item[geomodel.Info]{}, false
}

const nameKey = "name"

func (f *Importer) localizedName(tags osm.Tags) string {
	return f.localizedTag(tags, nameKey)
}

func (f *Importer) localizedTag(tags osm.Tags, key string) string {
	if f.preferredLocalization != "" {
		if localized := tags.Find(key + ":" + f.preferredLocalization); localized != "" {
			return localized
		}
	}

	return tags.Find(key)
}
