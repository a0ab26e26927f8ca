// Package i2dtree is a 2-d tree over latitude and longitude.
//
// Levels alternate between comparing latitude (the root) and longitude. At every
// node the left subtree holds points whose coordinate on the level axis is lower
// than the node's and the right subtree holds the rest, so equal coordinates
// descend to the right.
//
// A Tree is not safe for concurrent use. Searches may run in parallel with each
// other but not with Upsert.
package i2dtree

// Node is a non-empty subtree. A nil *Node is an empty one.
type Node[T any] struct {
	Item        Item[T]
	Left, Right *Node[T]
}

// Tree owns a node hierarchy. The zero value is an empty tree.
type Tree[T any] struct {
	root *Node[T]
	size int
}

func (t *Tree[T]) Root() *Node[T] {
	return t.root
}

// Len returns the number of stored items, duplicates included.
func (t *Tree[T]) Len() int {
	return t.size
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (t *Tree[T]) Height() int {
	height := 0
	t.Walk(func(_ *Node[T], depth int, _ Axis) bool {
		if depth+1 > height {
			height = depth + 1
		}
		return true
	})
	return height
}

// Walk visits nodes in pre-order (node, left, right) with their depth and
// discriminating axis. Returning false from fn stops the walk.
func (t *Tree[T]) Walk(fn func(node *Node[T], depth int, axis Axis) bool) {
	type frame struct {
		node  *Node[T]
		depth int
	}

	stack := []frame{{node: t.root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.node == nil {
			continue
		}

		axis := Latitude
		if f.depth%2 == 1 {
			axis = Longitude
		}
		if !fn(f.node, f.depth, axis) {
			return
		}

		stack = append(stack, frame{f.node.Right, f.depth + 1}, frame{f.node.Left, f.depth + 1})
	}
}
