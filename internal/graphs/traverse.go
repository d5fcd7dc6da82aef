package graphs

import "iter"

// Clades of the subtree rooted at c in pre-order (parent before children,
// children in stored order). Each call starts a fresh traversal.
func (c *Clade) PreOrder() iter.Seq[*Clade] {
	return func(yield func(*Clade) bool) {
		c.preOrder(yield)
	}
}

func (c *Clade) preOrder(yield func(*Clade) bool) bool {
	if !yield(c) {
		return false
	}
	for _, child := range c.children {
		if !child.preOrder(yield) {
			return false
		}
	}
	return true
}

// Clades of the subtree rooted at c in post-order (children before parent)
func (c *Clade) PostOrder() iter.Seq[*Clade] {
	return func(yield func(*Clade) bool) {
		c.postOrder(yield)
	}
}

func (c *Clade) postOrder(yield func(*Clade) bool) bool {
	for _, child := range c.children {
		if !child.postOrder(yield) {
			return false
		}
	}
	return yield(c)
}

// Leaves in pre-order
func (c *Clade) Leaves() []*Clade {
	leaves := make([]*Clade, 0)
	for n := range c.PreOrder() {
		if n.Tip() {
			leaves = append(leaves, n)
		}
	}
	return leaves
}

func (c *Clade) LeafNames() []string {
	leaves := c.Leaves()
	names := make([]string, len(leaves))
	for i, l := range leaves {
		names[i] = l.name
	}
	return names
}

// Number of internal clades (including c itself if it is not a leaf)
func (c *Clade) NumInternal() int {
	count := 0
	for n := range c.PreOrder() {
		if !n.Tip() {
			count++
		}
	}
	return count
}

// Sum of all branch lengths that are set
func (c *Clade) TotalLength() float64 {
	total := 0.0
	for n := range c.PreOrder() {
		if l, ok := n.BranchLength(); ok {
			total += l
		}
	}
	return total
}

// Maps every clade below c to its parent. The map is derived from the tree
// and is not kept by it.
func (c *Clade) Parents() map[*Clade]*Clade {
	parents := make(map[*Clade]*Clade)
	for n := range c.PreOrder() {
		for _, child := range n.children {
			parents[child] = n
		}
	}
	return parents
}
