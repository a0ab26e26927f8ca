package locator

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/royalcat/geoloc/geomodel"
	"github.com/royalcat/geoloc/i2dtree"
)

// FeatureCollection exports every stored point as a GeoJSON point feature in
// tree pre-order. Empty info fields are left out of the properties.
func (l *Locator) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	l.Walk(func(item i2dtree.Item[geomodel.Info]) bool {
		fc.Append(Feature(item))
		return true
	})
	return fc
}

func Feature(item i2dtree.Item[geomodel.Info]) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{item.Point.Longitude, item.Point.Latitude})
	setProperty(f, "name", item.Value.Name)
	setProperty(f, "street", item.Value.Street)
	setProperty(f, "house_number", item.Value.HouseNumber)
	setProperty(f, "city", item.Value.City)
	setProperty(f, "region", item.Value.Region)
	return f
}

func setProperty(f *geojson.Feature, key, value string) {
	if value != "" {
		f.Properties[key] = value
	}
}
