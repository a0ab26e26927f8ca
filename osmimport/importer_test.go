package osmimport_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/royalcat/geoloc/geomodel"
	"github.com/royalcat/geoloc/i2dtree"
	"github.com/royalcat/geoloc/osmimport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

type pbfNode struct {
	id       int64
	lat, lon float64
	tags     []string // key, value pairs
}

// fileBlock frames data as a raw (uncompressed) blob with its header.
func fileBlock(typ string, data []byte) []byte {
	var blob []byte
	blob = protowire.AppendTag(blob, 1, protowire.BytesType) // raw
	blob = protowire.AppendBytes(blob, data)
	blob = protowire.AppendTag(blob, 2, protowire.VarintType) // raw_size
	blob = protowire.AppendVarint(blob, uint64(len(data)))

	var header []byte
	header = protowire.AppendTag(header, 1, protowire.BytesType) // type
	header = protowire.AppendString(header, typ)
	header = protowire.AppendTag(header, 3, protowire.VarintType) // datasize
	header = protowire.AppendVarint(header, uint64(len(blob)))

	out := binary.BigEndian.AppendUint32(nil, uint32(len(header)))
	out = append(out, header...)
	return append(out, blob...)
}

func packedSint64(values []int64) []byte {
	var b []byte
	for _, v := range values {
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(v))
	}
	return b
}

// encodePBF writes nodes as a single dense block with the default granularity
// of 100 nanodegrees.
func encodePBF(nodes []pbfNode) []byte {
	var headerBlock []byte
	for _, feature := range []string{"OsmSchema-V0.6", "DenseNodes"} {
		headerBlock = protowire.AppendTag(headerBlock, 4, protowire.BytesType) // required_features
		headerBlock = protowire.AppendString(headerBlock, feature)
	}

	strs := []string{""}
	index := map[string]int{"": 0}
	str := func(s string) uint64 {
		i, ok := index[s]
		if !ok {
			i = len(strs)
			index[s] = i
			strs = append(strs, s)
		}
		return uint64(i)
	}

	var ids, lats, lons []int64
	var keyvals []byte
	var prevID, prevLat, prevLon int64
	for _, n := range nodes {
		lat := int64(math.Round(n.lat * 1e7))
		lon := int64(math.Round(n.lon * 1e7))
		ids = append(ids, n.id-prevID)
		lats = append(lats, lat-prevLat)
		lons = append(lons, lon-prevLon)
		prevID, prevLat, prevLon = n.id, lat, lon

		for _, t := range n.tags {
			keyvals = protowire.AppendVarint(keyvals, str(t))
		}
		keyvals = protowire.AppendVarint(keyvals, 0)
	}

	var dense []byte
	dense = protowire.AppendTag(dense, 1, protowire.BytesType)
	dense = protowire.AppendBytes(dense, packedSint64(ids))
	dense = protowire.AppendTag(dense, 8, protowire.BytesType)
	dense = protowire.AppendBytes(dense, packedSint64(lats))
	dense = protowire.AppendTag(dense, 9, protowire.BytesType)
	dense = protowire.AppendBytes(dense, packedSint64(lons))
	dense = protowire.AppendTag(dense, 10, protowire.BytesType)
	dense = protowire.AppendBytes(dense, keyvals)

	var group []byte
	group = protowire.AppendTag(group, 2, protowire.BytesType) // dense
	group = protowire.AppendBytes(group, dense)

	var table []byte
	for _, s := range strs {
		table = protowire.AppendTag(table, 1, protowire.BytesType)
		table = protowire.AppendString(table, s)
	}

	var block []byte
	block = protowire.AppendTag(block, 1, protowire.BytesType) // stringtable
	block = protowire.AppendBytes(block, table)
	block = protowire.AppendTag(block, 2, protowire.BytesType) // primitivegroup
	block = protowire.AppendBytes(block, group)
	block = protowire.AppendTag(block, 17, protowire.VarintType) // granularity
	block = protowire.AppendVarint(block, 100)

	return append(fileBlock("OSMHeader", headerBlock), fileBlock("OSMData", block)...)
}

var moscowNodes = []pbfNode{
	{id: 1, lat: 55.7575, lon: 37.6134, tags: []string{
		"addr:street", "Tverskaya", "addr:housenumber", "1", "addr:city", "Moscow", "name", "Shop",
	}},
	{id: 2, lat: 55.752, lon: 37.6175, tags: []string{
		"name", "Кремль", "name:en", "Kremlin", "tourism", "attraction",
	}},
	{id: 5, lat: 55.75, lon: 37.6},
	{id: 9, lat: 55.74, lon: 37.61, tags: []string{"name", "Bench"}},
}

func sortByName(items []i2dtree.Item[geomodel.Info]) {
	slices.SortFunc(items, func(a, b i2dtree.Item[geomodel.Info]) int {
		return strings.Compare(a.Value.Name, b.Value.Name)
	})
}

func TestImport(t *testing.T) {
	data := encodePBF(moscowNodes)

	items, err := osmimport.New(2, "en").WithoutProgress().
		Import(context.Background(), bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, items, 2)
	sortByName(items)

	assert.Equal(t, geomodel.Info{Name: "Kremlin"}, items[0].Value)
	assert.InDelta(t, 55.752, items[0].Point.Latitude, 1e-7)
	assert.InDelta(t, 37.6175, items[0].Point.Longitude, 1e-7)

	assert.Equal(t, geomodel.Info{Name: "Shop", Street: "Tverskaya", HouseNumber: "1", City: "Moscow"}, items[1].Value)
	assert.InDelta(t, 55.7575, items[1].Point.Latitude, 1e-7)
	assert.InDelta(t, 37.6134, items[1].Point.Longitude, 1e-7)
}

func TestImportFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "moscow.osm.pbf")
	require.NoError(t, os.WriteFile(name, encodePBF(moscowNodes), 0o644))

	f := osmimport.New(1, "").WithoutProgress()
	items, err := f.ImportFile(context.Background(), name)
	require.NoError(t, err)
	require.Len(t, items, 2)
	sortByName(items)
	assert.Equal(t, "Shop", items[0].Value.Name)
	assert.Equal(t, "Кремль", items[1].Value.Name)

	// a second import on the same importer starts from scratch
	again, err := f.ImportFile(context.Background(), name)
	require.NoError(t, err)
	assert.Len(t, again, 2)
}

func TestImportInvalidStream(t *testing.T) {
	data := []byte{0xff, 0xff, 0xff, 0xff}

	_, err := osmimport.New(1, "").WithoutProgress().
		Import(context.Background(), bytes.NewReader(data), int64(len(data)))
	assert.Error(t, err)
}
