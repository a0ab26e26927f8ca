package i2dtree

// Nearest is a search candidate. Item points into the tree it was found in and
// is nil when there is no candidate. Metric is the squared distance to the query.
type Nearest[T any] struct {
	Metric float64
	Item   *Item[T]
}

func (n Nearest[T]) Found() bool {
	return n.Item != nil
}

// CloserOf returns the candidate with the strictly smaller metric, a on ties.
// An absent candidate never wins over a present one.
func CloserOf[T any](a, b Nearest[T]) Nearest[T] {
	if !b.Found() {
		return a
	}
	if !a.Found() || b.Metric < a.Metric {
		return b
	}
	return a
}

// FindNearest returns a copy of the item closest to query, or false when the
// tree is empty.
func (t *Tree[T]) FindNearest(query Point) (Item[T], bool) {
	best := t.Nearest(query)
	if !best.Found() {
		var zero Item[T]
		return zero, false
	}
	return *best.Item, true
}

// Nearest searches for the item closest to query.
//
// Nodes are visited node first, then the subtree on the query's side of the
// splitting line, then the other subtree. The other subtree is skipped unless
// the squared distance from the query to the splitting line is below the best
// metric seen so far. Earlier candidates win ties, and a node at the query
// point ends the search.
func (t *Tree[T]) Nearest(query Point) Nearest[T] {
	type visit struct {
		node *Node[T]
		axis Axis
		// bound is the squared distance to the parent's splitting line; only
		// far-side visits are checked against it.
		bound float64
		far   bool
	}

	var best Nearest[T]

	stack := []visit{{node: t.root, axis: Latitude}}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if v.node == nil {
			continue
		}
		if v.far && !(v.bound < best.Metric) {
			continue
		}

		item := &v.node.Item
		metric := item.Point.SquareDistance(query)
		if metric == 0 {
			return Nearest[T]{Metric: 0, Item: item}
		}
		best = CloserOf(best, Nearest[T]{Metric: metric, Item: item})

		delta := query.Index(v.axis) - item.Point.Index(v.axis)
		near, far := v.node.Left, v.node.Right
		if delta >= 0 {
			near, far = far, near
		}

		next := v.axis.Next()
		stack = append(stack,
			visit{node: far, axis: next, bound: delta * delta, far: true},
			visit{node: near, axis: next},
		)
	}

	return best
}
