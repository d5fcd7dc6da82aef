// Package implementing Neighbor-Joining (Saitou & Nei) tree construction. We
// use the following naming convention throughout: i and j are the active
// nodes being joined, u is the new node joining them, k is any other active
// node, and n is the current number of active nodes.
package infer

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/jsdoublel/njtree/internal/distance"
	gr "github.com/jsdoublel/njtree/internal/graphs"
	pr "github.com/jsdoublel/njtree/internal/prep"
)

// Q values within this of each other are ties; the earlier pair wins
const tieTolerance = 1e-12

// Negative branch length produced by NJ arithmetic (non-fatal, clamped to 0)
type Anomaly struct {
	Clade  *gr.Clade // clade below the clamped branch, as it appears in the tree
	Length float64   // length before clamping
}

func (a Anomaly) String() string {
	return fmt.Sprintf("negative branch length %s above %s clamped to 0",
		strconv.FormatFloat(a.Length, 'g', 6, 64), a.Clade)
}

// Result of tree construction
type Result struct {
	Tree      *gr.Clade // arbitrary root of the unrooted tree
	Anomalies []Anomaly
}

// working state, local to one tree construction
type joiner struct {
	active    []*gr.Clade // active nodes; dists is indexed by position here
	dists     [][]float64 // working distances between active nodes
	last      *gr.Clade   // most recently created internal node
	anomalies []Anomaly
}

// Builds a Neighbor-Joining tree from dm, using the matrix labels as leaf
// names. The tree is unrooted; it is returned hanging from the last node
// created (which has three children) or, for two taxa, from a root that
// splits their distance evenly. Returns ErrValidation for fewer than two taxa.
// The same matrix always gives the same tree.
func NeighborJoining(dm *distance.Matrix) (*Result, error) {
	if dm == nil || dm.Len() < 2 {
		return nil, fmt.Errorf("%w, neighbor-joining needs at least 2 taxa", pr.ErrValidation)
	}
	names := dm.Names()
	nj := &joiner{
		active:    make([]*gr.Clade, len(names)),
		dists:     dm.Rows(),
		anomalies: make([]Anomaly, 0),
	}
	for i, name := range names {
		nj.active[i] = gr.NewLeaf(name)
	}
	var root *gr.Clade
	if len(names) == 2 {
		root = nj.joinPair()
	} else {
		for len(nj.active) > 2 {
			nj.join()
		}
		root = nj.finish()
	}
	if err := gr.CheckLeafset(root, names); err != nil {
		panic(fmt.Sprintf("neighbor-joining produced a bad tree: %s", err))
	}
	return &Result{Tree: root, Anomalies: nj.anomalies}, nil
}

// Joins the pair of active nodes minimizing Q into a new node u
func (nj *joiner) join() {
	n := len(nj.active)
	sums := nj.rowSums()
	i, j := nj.minPair(sums)
	dij := nj.dists[i][j]
	li := dij/2 + (sums[i]-sums[j])/float64(2*(n-2))
	lj := dij - li
	u := gr.NewClade("", nj.branch(nj.active[i], li), nj.branch(nj.active[j], lj))
	for k := range n {
		if k != i && k != j {
			duk := (nj.dists[i][k] + nj.dists[j][k] - dij) / 2
			nj.dists[i][k], nj.dists[k][i] = duk, duk
		}
	}
	nj.dists[i][i] = 0
	nj.active[i] = u // u takes the place of i (i < j) and j is dropped
	nj.remove(j)
	nj.last = u
}

func (nj *joiner) rowSums() []float64 {
	sums := make([]float64, len(nj.dists))
	for i, row := range nj.dists {
		for _, d := range row {
			sums[i] += d
		}
	}
	return sums
}

// Returns pair i < j minimizing Q(i,j) = (n-2)d(i,j) - sum_k d(i,k) - sum_k d(j,k);
// ties go to the first pair in (i, j) order
func (nj *joiner) minPair(sums []float64) (int, int) {
	n := len(nj.active)
	bestI, bestJ := -1, -1
	best := math.Inf(1)
	for i := range n {
		for j := i + 1; j < n; j++ {
			q := float64(n-2)*nj.dists[i][j] - sums[i] - sums[j]
			if bestI < 0 || q < best-tieTolerance {
				best, bestI, bestJ = q, i, j
			}
		}
	}
	return bestI, bestJ
}

func (nj *joiner) remove(j int) {
	nj.active = slices.Delete(nj.active, j, j+1)
	nj.dists = slices.Delete(nj.dists, j, j+1)
	for k := range nj.dists {
		nj.dists[k] = slices.Delete(nj.dists[k], j, j+1)
	}
}

// Returns c with its branch length set, clamping (and recording) negative lengths
func (nj *joiner) branch(c *gr.Clade, length float64) *gr.Clade {
	switch {
	case length >= 0:
		return c.WithLength(length)
	case length > -tieTolerance: // rounding error
		return c.WithLength(0)
	}
	c = c.WithLength(0)
	nj.anomalies = append(nj.anomalies, Anomaly{Clade: c, Length: length})
	return c
}

// Two taxa: root between them with the distance split evenly
func (nj *joiner) joinPair() *gr.Clade {
	d := nj.dists[0][1]
	return gr.NewClade("", nj.branch(nj.active[0], d/2), nj.branch(nj.active[1], d-d/2))
}

// Two active nodes left, one of them the last node created: the other node
// becomes its third child, with the remaining distance as branch length
func (nj *joiner) finish() *gr.Clade {
	if len(nj.active) != 2 || nj.last == nil {
		panic(fmt.Sprintf("cannot finish tree with %d active nodes", len(nj.active)))
	}
	other := nj.active[0]
	if other == nj.last {
		other = nj.active[1]
	} else if nj.active[1] != nj.last {
		panic("last joined node is not active")
	}
	children := append(nj.last.Children(), nj.branch(other, nj.dists[0][1]))
	return nj.last.WithChildren(children...)
}
