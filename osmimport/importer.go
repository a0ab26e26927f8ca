// Package osmimport extracts named and addressed points from OpenStreetMap
// PBF extracts.
package osmimport

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/cheggaaa/pb/v3/termutil"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/royalcat/geoloc/geomodel"
	"github.com/royalcat/geoloc/i2dtree"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

type Importer struct {
	threads               int
	preferredLocalization string
	progress              bool

	pointsMutex sync.Mutex
	points      []i2dtree.Item[geomodel.Info]

	log *logrus.Entry
}

// New creates an importer decoding with the given number of threads.
// preferredLocalization selects name:<lang> tags over plain name when set.
func New(threads int, preferredLocalization string) *Importer {
	return &Importer{
		threads:               max(threads, 1),
		preferredLocalization: preferredLocalization,
		progress:              true,
		log:                   logrus.WithField("component", "osmimport"),
	}
}

// WithoutProgress disables the terminal progress bar.
func (f *Importer) WithoutProgress() *Importer {
	f.progress = false
	return f
}

func (f *Importer) ImportFile(ctx context.Context, name string) ([]i2dtree.Item[geomodel.Info], error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	f.log.WithField("file", name).Info("Importing OSM extract")
	return f.Import(ctx, file, stat.Size())
}

// Import scans an OSM PBF stream of the given size and returns the points it
// found. Only nodes are read.
func (f *Importer) Import(ctx context.Context, r io.Reader, size int64) ([]i2dtree.Item[geomodel.Info], error) {
	f.points = f.points[:0]

	scanner := osmpbf.New(ctx, r, f.threads)
	defer scanner.Close()
	scanner.SkipWays = true
	scanner.SkipRelations = true

	p := pool.New().WithMaxGoroutines(f.threads)
	err := f.scanWithProgress(scanner, size, "extracting points", func(object osm.Object) bool {
		node, ok := object.(*osm.Node)
		if !ok {
			return true
		}
		p.Go(func() {
			if point, ok := f.parseNode(node); ok {
				f.pointsMutex.Lock()
				f.points = append(f.points, point)
				f.pointsMutex.Unlock()
			}
		})
		return true
	})
	p.Wait()
	if err != nil {
		return nil, fmt.Errorf("error scanning osm data: %w", err)
	}

	f.log.WithField("points", len(f.points)).Info("OSM import complete")

	out := make([]i2dtree.Item[geomodel.Info], len(f.points))
	copy(out, f.points)
	return out, nil
}

func (f *Importer) scanWithProgress(scanner *osmpbf.Scanner, size int64, name string, it func(osm.Object) bool) error {
	var bar *pb.ProgressBar
	if f.progress {
		bar = pb.Start64(size)
		bar.Set("prefix", name)
		bar.Set(pb.Bytes, true)
		bar.SetRefreshRate(time.Second * 5)
		if w, err := termutil.TerminalWidth(); w == 0 || err != nil {
			bar.SetTemplateString(`{{with string . "prefix"}}{{.}} {{end}}{{counters . }} {{bar . }} {{percent . }} {{speed . }} {{rtime . "ETA %s"}}{{with string . "suffix"}} {{.}}{{end}}` + "\n")
		}
	}

	for scanner.Scan() {
		if bar != nil {
			bar.SetCurrent(scanner.FullyScannedBytes())
		}
		if !it(scanner.Object()) {
			break
		}
	}
	if bar != nil {
		bar.Finish()
	}

	return scanner.Err()
}
