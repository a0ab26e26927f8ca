package i2dtree

// Item is a value stored at a point.
type Item[T any] struct {
	Point Point
	Value T
}

func NewItem[T any](latitude, longitude float64, value T) Item[T] {
	return Item[T]{Point: NewPoint(latitude, longitude), Value: value}
}
