package graphs

import (
	"fmt"
	"strings"

	"github.com/evolbioinfo/gotree/tree"
)

// Characters that end a name in newick; gotree has no quoting for them
const NewickReserved = "[](),:;"

// Reports whether name can be written to newick and read back unchanged
func NewickSafe(name string) bool {
	return !strings.ContainsAny(name, NewickReserved)
}

// Builds a gotree tree with the same topology, names, branch lengths, and
// supports. The root of the gotree tree corresponds to root.
func ToGotree(root *Clade) *tree.Tree {
	tre := tree.NewTree()
	r := tre.NewNode()
	r.SetName(root.name)
	tre.SetRoot(r)
	var connect func(parent *tree.Node, cur *Clade)
	connect = func(parent *tree.Node, cur *Clade) {
		for _, child := range cur.children {
			node := tre.NewNode()
			node.SetName(child.name)
			e := tre.ConnectNodes(parent, node)
			if l, ok := child.BranchLength(); ok {
				e.SetLength(l)
			}
			if s, ok := child.Support(); ok && !child.Tip() {
				e.SetSupport(s)
			}
			connect(node, child)
		}
	}
	connect(r, root)
	return tre
}

// Newick string of the tree (branch lengths and supports included when set).
// Names must be NewickSafe for the string to parse back to the same tree.
func Newick(root *Clade) string {
	return ToGotree(root).Newick()
}

// Converts a gotree tree into a clade tree rooted where tre is rooted.
// Negative (nil) lengths and supports from gotree are left unset.
func FromGotree(tre *tree.Tree) (*Clade, error) {
	root := tre.Root()
	if root == nil {
		return nil, fmt.Errorf("%w, tree has no root", ErrInvalidTree)
	}
	var build func(cur, prev *tree.Node, e *tree.Edge) *Clade
	build = func(cur, prev *tree.Node, e *tree.Edge) *Clade {
		children := make([]*Clade, 0, len(cur.Neigh()))
		edges := cur.Edges()
		for i, n := range cur.Neigh() {
			if n != prev {
				children = append(children, build(n, cur, edges[i]))
			}
		}
		var c *Clade
		if len(children) == 0 {
			c = NewLeaf(cur.Name())
		} else {
			c = NewClade(cur.Name(), children...)
		}
		if e == nil {
			return c
		}
		if l := e.Length(); l != tree.NIL_LENGTH {
			c = c.WithLength(l)
		}
		if s := e.Support(); s != tree.NIL_SUPPORT && !c.Tip() {
			c = c.WithSupport(s)
		}
		return c
	}
	return build(root, nil, nil), nil
}
