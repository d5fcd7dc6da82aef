package graphs

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Bipartition of the taxa induced by the branch above Clade. Leaves holds the
// side of the bipartition that does not contain taxon 0, so that the same
// split has the same representation regardless of where the tree is rooted.
type Split struct {
	Clade  *Clade
	Leaves *bitset.BitSet
}

// Key that is equal for equal splits over the same taxon index
func (s Split) Key() string {
	return s.Leaves.String()
}

// Maps taxon names to bit positions
func TaxonIndex(taxa []string) map[string]uint {
	index := make(map[string]uint, len(taxa))
	for i, t := range taxa {
		index[t] = uint(i)
	}
	return index
}

// Calculates the leafset of every clade of the tree. Errors if a leaf is not
// in index, is repeated, or if a taxon of index is missing.
func Leafsets(root *Clade, index map[string]uint) (map[*Clade]*bitset.BitSet, error) {
	n := uint(len(index))
	leafsets := make(map[*Clade]*bitset.BitSet)
	seen := bitset.New(n)
	for cur := range root.PostOrder() {
		if cur.Tip() {
			i, ok := index[cur.name]
			if !ok {
				return nil, fmt.Errorf("%w, leaf %q not in taxon set", ErrInvalidTree, cur.name)
			}
			if seen.Test(i) {
				return nil, fmt.Errorf("%w, leaf %q appears more than once", ErrInvalidTree, cur.name)
			}
			seen.Set(i)
			leafsets[cur] = bitset.New(n).Set(i)
			continue
		}
		leafsets[cur] = leafsets[cur.children[0]].Clone()
		for _, child := range cur.children[1:] {
			leafsets[cur].InPlaceUnion(leafsets[child])
		}
	}
	if seen.Count() != n {
		return nil, fmt.Errorf("%w, tree has %d of %d taxa", ErrInvalidTree, seen.Count(), n)
	}
	return leafsets, nil
}

// Non-trivial splits of the (unrooted) tree in pre-order. Branches inducing
// the same split (as the two branches below a bifurcating root do) are only
// reported once.
func Splits(root *Clade, index map[string]uint) ([]Split, error) {
	leafsets, err := Leafsets(root, index)
	if err != nil {
		return nil, err
	}
	n := uint(len(index))
	splits := make([]Split, 0)
	seen := make(map[string]bool)
	for cur := range root.PreOrder() {
		if cur == root || cur.Tip() {
			continue
		}
		side := leafsets[cur]
		if side.Test(0) {
			side = side.Complement()
		}
		if count := side.Count(); count <= 1 || count >= n-1 {
			continue
		}
		split := Split{Clade: cur, Leaves: side}
		if seen[split.Key()] {
			continue
		}
		seen[split.Key()] = true
		splits = append(splits, split)
	}
	return splits, nil
}
