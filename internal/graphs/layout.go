package graphs

// Drawing coordinates of a clade
type Point struct {
	X float64 // distance from root along branches
	Y float64 // vertical position, leaves are 1 apart
}

// Computes drawing coordinates for every clade. X is the distance from the
// root (unset lengths count as 0; if no length is set anywhere every branch
// counts as 1). Leaves are spaced one unit apart from the top in pre-order,
// internal clades sit midway between their first and last child.
func Layout(root *Clade) map[*Clade]Point {
	unit := true
	for c := range root.PreOrder() {
		if _, ok := c.BranchLength(); ok && c != root {
			unit = false
			break
		}
	}
	pos := make(map[*Clade]Point)
	var depth func(c *Clade, x float64)
	depth = func(c *Clade, x float64) {
		pos[c] = Point{X: x}
		for _, child := range c.children {
			step := 1.0
			if !unit {
				step = 0
				if l, ok := child.BranchLength(); ok {
					step = l
				}
			}
			depth(child, x+step)
		}
	}
	depth(root, 0)
	nLeaves := len(root.Leaves())
	i := 0
	for c := range root.PostOrder() {
		p := pos[c]
		if c.Tip() {
			p.Y = float64(nLeaves - i)
			i++
		} else {
			p.Y = (pos[c.children[0]].Y + pos[c.children[len(c.children)-1]].Y) / 2
		}
		pos[c] = p
	}
	return pos
}
