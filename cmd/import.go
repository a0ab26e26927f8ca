package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/royalcat/geoloc/locator"
	"github.com/royalcat/geoloc/osmimport"
	"github.com/urfave/cli/v3"
)

func importOSM(ctx *cli.Context) (err error) {
	log := slog.Default()

	threads := ctx.Int("threads")
	if threads == 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	log = log.With("threads", threads)

	preferredLocalization := ctx.String("preferred-localization")
	if preferredLocalization == "official" {
		preferredLocalization = ""
	}

	if pprofListen := ctx.String("pprof.listen"); pprofListen != "" {
		go func() {
			log.Info("Starting pprof server", "listen", pprofListen)
			if err := http.ListenAndServe(pprofListen, nil); err != nil {
				log.Error("Error starting pprof server", "error", err)
			}
		}()
	}

	if ctx.Bool("pprof.profile") {
		f, err := os.Create("profile.cpu.pprof")
		if err != nil {
			return fmt.Errorf("error creating pprof file: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("error starting pprof: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	sctx, cancel := signalContext(ctx.Context)
	defer cancel()

	input := ctx.String("osm")
	items, err := osmimport.New(threads, preferredLocalization).ImportFile(sctx, input)
	if err != nil {
		return fmt.Errorf("error importing %s: %w", input, err)
	}

	output := ctx.String("output")
	log.Info("Saving points", "file", output, "points", len(items))

	out, err := locator.CreatePointsFile(output)
	if err != nil {
		return fmt.Errorf("failed to create points file: %w", err)
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	if err := locator.WritePoints(out, items); err != nil {
		return fmt.Errorf("failed to save points to file: %w", err)
	}

	log.Info("Import complete")
	return nil
}
