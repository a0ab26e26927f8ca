package main

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/royalcat/geoloc/locator"
	"github.com/royalcat/geoloc/osmimport"
	"github.com/royalcat/geoloc/server"
	"github.com/urfave/cli/v3"
)

func locatorOptions(ctx *cli.Context) []locator.Option {
	var opts []locator.Option
	if d := ctx.Float64("max-distance"); d > 0 {
		opts = append(opts, locator.WithMaxDistance(d))
	}
	return opts
}

func serve(ctx *cli.Context) error {
	sctx, cancel := signalContext(ctx.Context)
	defer cancel()

	shutdown, err := setupTelemetry(sctx, ctx.String("otlp.endpoint"))
	if err != nil {
		return fmt.Errorf("error setting up telemetry: %w", err)
	}
	defer shutdown()

	files, err := pointsFiles(ctx)
	if err != nil {
		return err
	}

	slog.Info("Initing locator", "files", files)
	loc, err := locator.LoadFromFiles(sctx, files, locatorOptions(ctx)...)
	if err != nil {
		return err
	}

	if osmFile := ctx.String("osm"); osmFile != "" {
		items, err := osmimport.New(runtime.GOMAXPROCS(0), "").WithoutProgress().ImportFile(sctx, osmFile)
		if err != nil {
			return fmt.Errorf("error importing %s: %w", osmFile, err)
		}
		inserted := loc.UpsertItems(items)
		slog.Info("Imported OSM points", "file", osmFile, "points", len(items), "inserted", inserted)
	}

	return server.Run(sctx, ctx.String("listen"), loc)
}
