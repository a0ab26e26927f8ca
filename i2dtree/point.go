package i2dtree

import "math"

// Point is a planar pair of coordinates. Distances are Euclidean over the raw
// degrees, not great-circle.
type Point struct {
	Latitude  float64
	Longitude float64
}

func NewPoint(latitude, longitude float64) Point {
	return Point{Latitude: latitude, Longitude: longitude}
}

// Index returns the coordinate compared on the given axis.
func (p Point) Index(axis Axis) float64 {
	if axis == Longitude {
		return p.Longitude
	}
	return p.Latitude
}

func (p Point) Distance(other Point) float64 {
	return math.Sqrt(p.SquareDistance(other))
}

func (p Point) SquareDistance(other Point) float64 {
	dlat := p.Latitude - other.Latitude
	dlon := p.Longitude - other.Longitude
	return dlat*dlat + dlon*dlon
}

// Equal reports exact equality of both coordinates.
func (p Point) Equal(other Point) bool {
	return p.Latitude == other.Latitude && p.Longitude == other.Longitude
}
