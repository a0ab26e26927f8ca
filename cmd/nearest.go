package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/royalcat/geoloc/locator"
	"github.com/urfave/cli/v3"
)

var errNotFound = errors.New("no place found")

func nearest(ctx *cli.Context) error {
	if ctx.Args().Len() != 2 {
		return fmt.Errorf("expected LAT LON arguments, got %d", ctx.Args().Len())
	}
	lat, err := strconv.ParseFloat(ctx.Args().Get(0), 64)
	if err != nil {
		return fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(ctx.Args().Get(1), 64)
	if err != nil {
		return fmt.Errorf("invalid longitude: %w", err)
	}

	files, err := pointsFiles(ctx)
	if err != nil {
		return err
	}

	opts := append(locatorOptions(ctx), quietLogger())
	loc, err := locator.LoadFromFiles(ctx.Context, files, opts...)
	if err != nil {
		return err
	}

	return writeNearest(os.Stdout, loc, lat, lon)
}

func quietLogger() locator.Option {
	return locator.WithLogger(slog.New(slog.DiscardHandler))
}

func writeNearest(w io.Writer, loc *locator.Locator, lat, lon float64) error {
	if !locator.ValidCoordinate(lat, lon) {
		return locator.ErrInvalidCoordinate
	}
	res, ok := loc.Find(lat, lon)
	if !ok {
		return errNotFound
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
