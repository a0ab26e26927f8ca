package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/fogleman/poissondisc"
	"github.com/royalcat/geoloc/i2dtree"
	"github.com/royalcat/geoloc/internal/stats"
	"github.com/urfave/cli/v3"
)

// bench area, in degrees
const (
	benchMinLat, benchMaxLat = 50.0, 60.0
	benchMinLon, benchMaxLon = 30.0, 40.0
)

func bench(ctx *cli.Context) error {
	seed := ctx.Int64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return runBench(ctx.Context, os.Stdout, benchConfig{
		count:        ctx.Int("count"),
		queries:      ctx.Int("queries"),
		seed:         seed,
		distribution: ctx.String("distribution"),
	})
}

type benchConfig struct {
	count        int
	queries      int
	seed         int64
	distribution string
}

func runBench(ctx context.Context, w io.Writer, cfg benchConfig) error {
	rnd := rand.New(rand.NewSource(cfg.seed))

	items, err := benchItems(rnd, cfg.count, cfg.distribution)
	if err != nil {
		return err
	}
	queries := make([]i2dtree.Point, cfg.queries)
	for i := range queries {
		queries[i] = randomPoint(rnd)
	}

	collector, err := stats.NewCollector(50 * time.Millisecond)
	if err != nil {
		return err
	}
	collector.Start(ctx)

	collector.BeginPhase("build")
	tree := i2dtree.Build(items)
	collector.EndPhase(len(items))

	collector.BeginPhase("nearest")
	found := make([]i2dtree.Nearest[int], len(queries))
	for i, q := range queries {
		found[i] = tree.Nearest(q)
	}
	collector.EndPhase(len(queries))

	collector.BeginPhase("brute force")
	mismatches := 0
	for i, q := range queries {
		want := bruteNearest(items, q)
		if !found[i].Found() && len(items) == 0 {
			continue
		}
		if want != found[i].Metric {
			mismatches++
		}
	}
	collector.EndPhase(len(queries))

	report := collector.Stop()

	fmt.Fprintf(w, "points: %d, queries: %d, seed: %d, distribution: %s, height: %d\n\n",
		tree.Len(), len(queries), cfg.seed, cfg.distribution, tree.Height())
	if _, err := report.WriteTo(w); err != nil {
		return err
	}

	if mismatches > 0 {
		return fmt.Errorf("%d of %d queries disagree with a linear scan", mismatches, len(queries))
	}
	return nil
}

func randomPoint(rnd *rand.Rand) i2dtree.Point {
	return i2dtree.NewPoint(
		benchMinLat+rnd.Float64()*(benchMaxLat-benchMinLat),
		benchMinLon+rnd.Float64()*(benchMaxLon-benchMinLon),
	)
}

// benchItems generates points valued by their index. The poisson distribution
// yields roughly count evenly spaced points, never more than count.
func benchItems(rnd *rand.Rand, count int, distribution string) ([]i2dtree.Item[int], error) {
	if count < 0 {
		return nil, fmt.Errorf("invalid point count %d", count)
	}

	var points []i2dtree.Point
	switch distribution {
	case "uniform":
		points = make([]i2dtree.Point, count)
		for i := range points {
			points[i] = randomPoint(rnd)
		}
	case "poisson":
		if count == 0 {
			break
		}
		area := (benchMaxLat - benchMinLat) * (benchMaxLon - benchMinLon)
		radius := 0.7 * math.Sqrt(area/float64(count))
		for _, p := range poissondisc.Sample(benchMinLat, benchMinLon, benchMaxLat, benchMaxLon, radius, 10, rnd) {
			points = append(points, i2dtree.NewPoint(p.X, p.Y))
		}
		rnd.Shuffle(len(points), func(i, j int) { points[i], points[j] = points[j], points[i] })
		points = points[:min(len(points), count)]
	default:
		return nil, fmt.Errorf("unknown distribution %q", distribution)
	}

	items := make([]i2dtree.Item[int], len(points))
	for i, p := range points {
		items[i] = i2dtree.Item[int]{Point: p, Value: i}
	}
	return items, nil
}

func bruteNearest(items []i2dtree.Item[int], q i2dtree.Point) float64 {
	best := math.Inf(1)
	for _, it := range items {
		best = min(best, it.Point.SquareDistance(q))
	}
	return best
}
