package locator

import (
	"errors"
	"log/slog"
	"math"
	"runtime"
	"sync"

	"github.com/royalcat/geoloc/geomodel"
	"github.com/royalcat/geoloc/i2dtree"
)

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Locator is a point store safe for concurrent use. Lookups share a read lock,
// upserts take the write lock for the whole tree.
type Locator struct {
	mu   sync.RWMutex
	tree *i2dtree.Tree[geomodel.Info]

	maxDistance float64
	logger      *slog.Logger
}

type Result struct {
	Info      geomodel.Info `json:"info"`
	Latitude  float64       `json:"lat"`
	Longitude float64       `json:"lon"`
	Distance  float64       `json:"distance"`
}

func loadOptions(opts ...Option) options {
	options := options{
		maxDistance: math.Inf(1),
		logger:      slog.Default(),
		workers:     runtime.GOMAXPROCS(0),
	}
	for _, o := range opts {
		o.apply(&options)
	}
	return options
}

func newLocator(tree *i2dtree.Tree[geomodel.Info], opts ...Option) *Locator {
	options := loadOptions(opts...)
	options.logger.Info("Initializing locator", "points", tree.Len())

	return &Locator{
		tree:        tree,
		maxDistance: options.maxDistance,
		logger:      options.logger,
	}
}

func New(opts ...Option) *Locator {
	return newLocator(&i2dtree.Tree[geomodel.Info]{}, opts...)
}

// NewFromItems builds a balanced tree from items. The slice is reordered.
func NewFromItems(items []i2dtree.Item[geomodel.Info], opts ...Option) *Locator {
	return newLocator(i2dtree.Build(items), opts...)
}

func ValidCoordinate(lat, lon float64) bool {
	return !math.IsNaN(lat) && !math.IsInf(lat, 0) && !math.IsNaN(lon) && !math.IsInf(lon, 0)
}

func (l *Locator) Find(lat, lon float64) (Result, bool) {
	return l.FindWithin(lat, lon, l.maxDistance)
}

func (l *Locator) FindWithin(lat, lon float64, maxDistance float64) (Result, bool) {
	if !ValidCoordinate(lat, lon) {
		return Result{}, false
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	nearest := l.tree.Nearest(i2dtree.NewPoint(lat, lon))
	if !nearest.Found() {
		return Result{}, false
	}

	dist := math.Sqrt(nearest.Metric)
	if dist > maxDistance {
		return Result{}, false
	}

	return Result{
		Info:      nearest.Item.Value,
		Latitude:  nearest.Item.Point.Latitude,
		Longitude: nearest.Item.Point.Longitude,
		Distance:  dist,
	}, true
}

// Upsert stores info at the exact point, replacing whatever was stored there.
// It reports whether a new point was added.
func (l *Locator) Upsert(lat, lon float64, info geomodel.Info) (bool, error) {
	if !ValidCoordinate(lat, lon) {
		return false, ErrInvalidCoordinate
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	before := l.tree.Len()
	l.tree.Upsert(i2dtree.NewItem(lat, lon, info))
	return l.tree.Len() > before, nil
}

// UpsertItems applies items in order under a single write lock and returns how
// many of them were new points.
func (l *Locator) UpsertItems(items []i2dtree.Item[geomodel.Info]) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	before := l.tree.Len()
	for _, item := range items {
		l.tree.Upsert(item)
	}
	return l.tree.Len() - before
}

func (l *Locator) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tree.Len()
}

func (l *Locator) Height() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tree.Height()
}

// Walk calls fn for every stored item in tree pre-order while holding the read
// lock. fn must not call back into the locator's write methods.
func (l *Locator) Walk(fn func(item i2dtree.Item[geomodel.Info]) bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	l.tree.Walk(func(node *i2dtree.Node[geomodel.Info], _ int, _ i2dtree.Axis) bool {
		return fn(node.Item)
	})
}
