package i2dtree

// Upsert stores item. When a node already holds exactly item.Point only its
// value is replaced and the shape is left untouched; otherwise a new leaf is
// attached where the descent ends. The tree is never rebalanced.
func (t *Tree[T]) Upsert(item Item[T]) {
	link := &t.root
	axis := Latitude

	for *link != nil {
		node := *link
		if node.Item.Point.Equal(item.Point) {
			node.Item.Value = item.Value
			return
		}

		if item.Point.Index(axis) >= node.Item.Point.Index(axis) {
			link = &node.Right
		} else {
			link = &node.Left
		}
		axis = axis.Next()
	}

	*link = &Node[T]{Item: item}
	t.size++
}
