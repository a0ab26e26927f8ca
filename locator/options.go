package locator

import "log/slog"

type options struct {
	maxDistance float64
	logger      *slog.Logger
	workers     int
}

type Option interface {
	apply(*options)
}

type maxDistance float64

func (r maxDistance) apply(o *options) {
	o.maxDistance = float64(r)
}

// WithMaxDistance limits Find to results at most d away, in degrees of planar
// distance. Default: unlimited.
func WithMaxDistance(d float64) Option {
	return maxDistance(d)
}

type loggerOption struct {
	logger *slog.Logger
}

func (l loggerOption) apply(o *options) {
	o.logger = l.logger
}

// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return loggerOption{logger: logger}
}

type workers int

func (w workers) apply(o *options) {
	o.workers = int(w)
}

// WithWorkers bounds how many files LoadFromFiles parses at once.
// Default: GOMAXPROCS.
func WithWorkers(n int) Option {
	return workers(n)
}
