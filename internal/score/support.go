// Package implementing split support for neighbor-joining trees
package score

import (
	"errors"
	"fmt"
	"slices"

	gr "github.com/jsdoublel/njtree/internal/graphs"
)

var ErrTaxaMismatch = errors.New("taxa mismatch")

// Annotates every internal (non-root) clade of tre with the fraction of
// replicate trees that contain the split above it. Returns a new tree; tre is
// left as is. Every replicate must have exactly the leaves of tre.
func Support(tre *gr.Clade, replicates []*gr.Clade) (*gr.Clade, error) {
	if len(replicates) == 0 {
		return nil, fmt.Errorf("%w, no replicate trees", ErrTaxaMismatch)
	}
	taxa := tre.LeafNames()
	slices.Sort(taxa)
	index := gr.TaxonIndex(taxa)
	counts := make(map[string]int)
	for i, rep := range replicates {
		splits, err := gr.Splits(rep, index)
		if err != nil {
			return nil, fmt.Errorf("%w, replicate %d: %s", ErrTaxaMismatch, i, err)
		}
		for _, s := range splits {
			counts[s.Key()]++
		}
	}
	keys, err := splitKeys(tre, index)
	if err != nil {
		return nil, err
	}
	support := make(map[*gr.Clade]float64, len(keys))
	for c, key := range keys {
		support[c] = float64(counts[key]) / float64(len(replicates))
	}
	return annotate(tre, support), nil
}

// split key of the branch above each internal clade except the root; clades
// whose split is trivial are left out
func splitKeys(tre *gr.Clade, index map[string]uint) (map[*gr.Clade]string, error) {
	leafsets, err := gr.Leafsets(tre, index)
	if err != nil {
		return nil, err
	}
	n := uint(len(index))
	keys := make(map[*gr.Clade]string)
	for c, side := range leafsets {
		if c == tre || c.Tip() {
			continue
		}
		if side.Test(0) {
			side = side.Complement()
		}
		if count := side.Count(); count <= 1 || count >= n-1 {
			continue
		}
		keys[c] = gr.Split{Clade: c, Leaves: side}.Key()
	}
	return keys, nil
}

func annotate(c *gr.Clade, support map[*gr.Clade]float64) *gr.Clade {
	if c.Tip() {
		return c
	}
	children := c.Children()
	for i, child := range children {
		children[i] = annotate(child, support)
	}
	out := c.WithChildren(children...)
	if s, ok := support[c]; ok {
		out = out.WithSupport(s)
	}
	return out
}
