// Package for reading and validating aligned sequences, and for writing trees
// and distance matrices out again
package prep

import (
	"errors"
	"fmt"
	"slices"

	gr "github.com/jsdoublel/njtree/internal/graphs"
)

var (
	ErrParse      = errors.New("parse error")
	ErrValidation = errors.New("validation error")
)

// Named, aligned sequence (taxon)
type Sequence struct {
	Name     string
	Residues string
}

// Ordered collection of at least two equal length sequences with unique
// names. Not modified after construction.
type SequenceSet struct {
	seqs   []Sequence
	length int
}

// Validates and makes a sequence set. Returns ErrValidation if there are
// fewer than two sequences, names are empty, repeated, or not NewickSafe, or
// the sequences are empty or not all the same length.
func NewSequenceSet(seqs []Sequence) (*SequenceSet, error) {
	if len(seqs) < 2 {
		return nil, fmt.Errorf("%w, at least 2 sequences are required to build a tree, found %d", ErrValidation, len(seqs))
	}
	names := make(map[string]bool, len(seqs))
	for _, s := range seqs {
		switch {
		case s.Name == "":
			return nil, fmt.Errorf("%w, sequence with empty name", ErrValidation)
		case !gr.NewickSafe(s.Name):
			return nil, fmt.Errorf("%w, sequence name %q contains one of %s", ErrValidation, s.Name, gr.NewickReserved)
		case names[s.Name]:
			return nil, fmt.Errorf("%w, sequence name %q is not unique", ErrValidation, s.Name)
		case len(s.Residues) != len(seqs[0].Residues):
			return nil, fmt.Errorf("%w, sequence %q has length %d but %q has length %d; sequences must be aligned",
				ErrValidation, s.Name, len(s.Residues), seqs[0].Name, len(seqs[0].Residues))
		}
		names[s.Name] = true
	}
	if len(seqs[0].Residues) == 0 {
		return nil, fmt.Errorf("%w, sequences are empty", ErrValidation)
	}
	return &SequenceSet{seqs: slices.Clone(seqs), length: len(seqs[0].Residues)}, nil
}

// Number of sequences
func (set *SequenceSet) Len() int {
	return len(set.seqs)
}

// Length of the alignment (all sequences have this length)
func (set *SequenceSet) AlignmentLength() int {
	return set.length
}

func (set *SequenceSet) Sequence(i int) Sequence {
	return set.seqs[i]
}

// Sequence names in input order
func (set *SequenceSet) Names() []string {
	names := make([]string, len(set.seqs))
	for i, s := range set.seqs {
		names[i] = s.Name
	}
	return names
}
