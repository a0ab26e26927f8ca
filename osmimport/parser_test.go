package osmimport

import (
	"testing"

	"github.com/paulmach/osm"
	"github.com/royalcat/geoloc/geomodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(lat, lon float64, tags ...string) *osm.Node {
	n := &osm.Node{ID: 1, Lat: lat, Lon: lon}
	for i := 0; i+1 < len(tags); i += 2 {
		n.Tags = append(n.Tags, osm.Tag{Key: tags[i], Value: tags[i+1]})
	}
	return n
}

func TestParseAddressNode(t *testing.T) {
	f := New(1, "")

	item, ok := f.parseNode(node(51.5, -0.12,
		"addr:street", "Whitehall",
		"addr:housenumber", "10",
		"addr:city", "London",
		"name", "Office",
	))
	require.True(t, ok)
	assert.Equal(t, 51.5, item.Point.Latitude)
	assert.Equal(t, -0.12, item.Point.Longitude)
	assert.Equal(t, geomodel.Info{Name: "Office", Street: "Whitehall", HouseNumber: "10", City: "London"}, item.Value)
}

func TestParsePOINode(t *testing.T) {
	f := New(1, "")

	item, ok := f.parseNode(node(48.85, 2.29, "name", "Tour Eiffel", "tourism", "attraction"))
	require.True(t, ok)
	assert.Equal(t, "Tour Eiffel", item.Value.Name)

	_, ok = f.parseNode(node(48.85, 2.29, "name", "Just a name"))
	assert.False(t, ok)

	_, ok = f.parseNode(node(48.85, 2.29, "amenity", "bench"))
	assert.False(t, ok)

	_, ok = f.parseNode(node(48.85, 2.29, "addr:housenumber", "5"))
	assert.False(t, ok)
}

func TestLocalization(t *testing.T) {
	f := New(1, "en")

	item, ok := f.parseNode(node(55.75, 37.62,
		"name", "Красная площадь",
		"name:en", "Red Square",
		"place", "square",
		"addr:city", "Москва",
		"addr:city:en", "Moscow",
	))
	require.True(t, ok)
	assert.Equal(t, "Red Square", item.Value.Name)
	assert.Equal(t, "Moscow", item.Value.City)

	item, ok = New(1, "de").parseNode(node(55.75, 37.62, "name", "Красная площадь", "place", "square"))
	require.True(t, ok)
	assert.Equal(t, "Красная площадь", item.Value.Name)
}
