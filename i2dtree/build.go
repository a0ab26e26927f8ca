package i2dtree

import (
	"cmp"
	"slices"
)

// Build constructs a balanced tree from items. The slice is reordered in place.
//
// Each level sorts its range by the level axis and takes the element at len/2
// as the node, so a range of n items puts n/2 items to the left and
// n-1-n/2 to the right. Duplicate points are all kept.
func Build[T any](items []Item[T]) *Tree[T] {
	return &Tree[T]{
		root: build(Latitude, items),
		size: len(items),
	}
}

func build[T any](axis Axis, items []Item[T]) *Node[T] {
	switch len(items) {
	case 0:
		return nil
	case 1:
		return &Node[T]{Item: items[0]}
	}

	sortByAxis(axis, items)

	m := len(items) / 2
	next := axis.Next()
	return &Node[T]{
		Item:  items[m],
		Left:  build(next, items[:m]),
		Right: build(next, items[m+1:]),
	}
}

func sortByAxis[T any](axis Axis, items []Item[T]) {
	slices.SortFunc(items, func(a, b Item[T]) int {
		return cmp.Compare(a.Point.Index(axis), b.Point.Index(axis))
	})
}
