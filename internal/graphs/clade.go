// Package containing the tree structure produced by neighbor-joining along
// with traversal, splits, layout, and conversion to and from gotree trees
package graphs

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

var ErrInvalidTree = errors.New("invalid tree")

// Node of a phylogenetic tree. Leaves are named taxa, internal clades are
// (usually unnamed) hypothetical ancestors. A clade owns its children and is
// never modified after it is made; the With* methods return new clades that
// share the (equally immutable) children.
type Clade struct {
	name     string
	length   float64  // length of branch to parent (NaN when unset)
	support  float64  // support for the split above this clade (NaN when unset)
	children []*Clade // ordered children, empty for leaves
}

// Makes a leaf clade with no branch length
func NewLeaf(name string) *Clade {
	return &Clade{name: name, length: math.NaN(), support: math.NaN()}
}

// Makes an internal clade; children are kept in the order given
func NewClade(name string, children ...*Clade) *Clade {
	if len(children) == 0 {
		panic("internal clade must have at least one child")
	}
	for _, c := range children {
		if c == nil {
			panic("nil child clade")
		}
	}
	return &Clade{name: name, length: math.NaN(), support: math.NaN(), children: slices.Clone(children)}
}

// Returns copy of clade with branch length set
func (c *Clade) WithLength(length float64) *Clade {
	cp := *c
	cp.length = length
	return &cp
}

// Returns copy of clade with support set
func (c *Clade) WithSupport(support float64) *Clade {
	cp := *c
	cp.support = support
	return &cp
}

// Returns copy of clade with its children replaced
func (c *Clade) WithChildren(children ...*Clade) *Clade {
	if len(children) == 0 {
		panic("cannot turn internal clade into a leaf")
	}
	cp := *c
	cp.children = slices.Clone(children)
	return &cp
}

func (c *Clade) Name() string {
	return c.name
}

// Branch length to parent; ok is false if it was never set (e.g., the root)
func (c *Clade) BranchLength() (length float64, ok bool) {
	return c.length, !math.IsNaN(c.length)
}

func (c *Clade) Support() (support float64, ok bool) {
	return c.support, !math.IsNaN(c.support)
}

func (c *Clade) Tip() bool {
	return len(c.children) == 0
}

func (c *Clade) NChildren() int {
	return len(c.children)
}

func (c *Clade) Child(i int) *Clade {
	return c.children[i]
}

// Returns a copy of the children slice
func (c *Clade) Children() []*Clade {
	return slices.Clone(c.children)
}

// Label used in logs and messages; internal clades are shown by their leafset
func (c *Clade) String() string {
	if c.Tip() || c.name != "" {
		return c.name
	}
	return "{" + strings.Join(c.LeafNames(), ",") + "}"
}

// Checks that the leaves of the tree are exactly taxa (each appearing once),
// and that every internal clade has children. Returns ErrInvalidTree otherwise.
func CheckLeafset(root *Clade, taxa []string) error {
	want := make(map[string]bool, len(taxa))
	for _, t := range taxa {
		want[t] = true
	}
	seen := make(map[string]bool, len(taxa))
	for c := range root.PreOrder() {
		if !c.Tip() {
			continue
		}
		switch {
		case !want[c.name]:
			return fmt.Errorf("%w, leaf %q is not an input taxon", ErrInvalidTree, c.name)
		case seen[c.name]:
			return fmt.Errorf("%w, leaf %q appears more than once", ErrInvalidTree, c.name)
		}
		seen[c.name] = true
	}
	if len(seen) != len(want) {
		return fmt.Errorf("%w, tree has %d of %d taxa", ErrInvalidTree, len(seen), len(want))
	}
	return nil
}
