package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/royalcat/geoloc/internal/telemetry"
	"github.com/urfave/cli/v3"

	_ "github.com/KimMachineGun/automemlimit"
	_ "go.uber.org/automaxprocs"
)

const appName = "geoloc"

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func main() {
	// a missing .env is fine, the environment is used as is
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		slog.Warn("Error loading .env", "error", err)
	}

	app := &cli.App{
		Name:        appName,
		Description: "Nearest known place lookup over a 2-d tree of coordinates",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "serve a nearest place api",
				Flags: []cli.Flag{
					pointsFlag(),
					&cli.StringFlag{
						Name:      "osm",
						Usage:     "OSM PBF extract imported on top of the points files",
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:  "listen",
						Value: envOr("GEOLOC_LISTEN", ":8080"),
					},
					&cli.Float64Flag{
						Name:        "max-distance",
						Usage:       "largest distance, in degrees, a match may be from the query",
						DefaultText: "unlimited",
					},
					&cli.StringFlag{
						Name:  "otlp.endpoint",
						Value: os.Getenv("GEOLOC_OTLP_ENDPOINT"),
					},
				},
				Action: serve,
			},
			{
				Name:    "nearest",
				Aliases: []string{"n"},
				Usage:   "find the place nearest to LAT LON",
				Flags: []cli.Flag{
					pointsFlag(),
					&cli.Float64Flag{
						Name:        "max-distance",
						DefaultText: "unlimited",
					},
				},
				Action: nearest,
			},
			{
				Name:  "print",
				Usage: "build a tree from \"LAT LON VALUE\" lines on stdin and print it",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "tree or geojson",
						Value: "tree",
					},
				},
				Action: printTree,
			},
			{
				Name:    "import",
				Aliases: []string{"i"},
				Usage:   "extract points from an OSM PBF file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:      "osm",
						Required:  true,
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:      "output",
						Aliases:   []string{"o"},
						Usage:     "points file to write, compressed when it ends in .zst",
						Required:  true,
						TakesFile: true,
					},
					&cli.IntFlag{
						Name:        "threads",
						Aliases:     []string{"t"},
						DefaultText: "max",
					},
					&cli.StringFlag{
						Name:        "preferred-localization",
						Aliases:     []string{"l"},
						DefaultText: "official",
						Value:       "official",
					},
					&cli.StringFlag{
						Name: "pprof.listen",
					},
					&cli.BoolFlag{
						Name: "pprof.profile",
					},
				},
				Action: importOSM,
			},
			{
				Name:  "bench",
				Usage: "time building and querying a tree of random points",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "count",
						Aliases: []string{"n"},
						Value:   100_000,
					},
					&cli.IntFlag{
						Name:    "queries",
						Aliases: []string{"q"},
						Value:   10_000,
					},
					&cli.Int64Flag{
						Name:        "seed",
						DefaultText: "time based",
					},
					&cli.StringFlag{
						Name:  "distribution",
						Usage: "uniform or poisson",
						Value: "uniform",
					},
				},
				Action: bench,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func pointsFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:        "points",
		Aliases:     []string{"p"},
		Usage:       "points file, .zst compressed or plain; later files override earlier ones",
		DefaultText: "$GEOLOC_POINTS",
		TakesFile:   true,
	}
}

func pointsFiles(ctx *cli.Context) ([]string, error) {
	files := ctx.StringSlice("points")
	if len(files) == 0 {
		if def := os.Getenv("GEOLOC_POINTS"); def != "" {
			files = strings.Split(def, ",")
		}
	}
	if len(files) == 0 {
		return nil, errors.New("no points files given, set --points or GEOLOC_POINTS")
	}
	return files, nil
}

// setupTelemetry replaces the default logger and meter provider. The returned
// function flushes and closes them.
func setupTelemetry(ctx context.Context, endpoint string) (func(), error) {
	client, err := telemetry.Setup(ctx, telemetry.Config{
		AppName:  appName,
		Endpoint: endpoint,
		LogLevel: slog.LevelDebug,
	})
	if err != nil {
		return nil, err
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Flush(ctx); err != nil {
			slog.Error("Error flushing telemetry", "error", err)
		}
		if err := client.Shutdown(ctx); err != nil {
			slog.Error("Error shutting down telemetry", "error", err)
		}
	}, nil
}

func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
