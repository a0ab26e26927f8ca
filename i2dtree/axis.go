package i2dtree

// Axis selects the coordinate compared at a tree level.
type Axis uint8

const (
	Latitude Axis = iota
	Longitude
)

// Next returns the axis used one level deeper.
func (a Axis) Next() Axis {
	if a == Latitude {
		return Longitude
	}
	return Latitude
}

func (a Axis) String() string {
	if a == Latitude {
		return "lat"
	}
	return "lon"
}
