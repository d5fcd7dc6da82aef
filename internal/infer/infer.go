package infer

import (
	"fmt"
	"log"

	"github.com/jsdoublel/njtree/internal/distance"
	pr "github.com/jsdoublel/njtree/internal/prep"
)

const DefaultMaxTaxa = 2000

type InferOptions struct {
	Model   distance.Model // distance model
	MaxTaxa int            // largest number of sequences accepted (<= 0 means no limit)
}

func DefaultInferOptions() InferOptions {
	return InferOptions{Model: distance.Identity, MaxTaxa: DefaultMaxTaxa}
}

// Runs distance calculation and neighbor-joining -- returns the tree (with any
// clamped branch lengths) and the distance matrix it was built from. Errors
// are ErrValidation for sets that cannot be used (too few or too many taxa,
// residues the model cannot score).
func Infer(set *pr.SequenceSet, opts InferOptions) (*Result, *distance.Matrix, error) {
	if set == nil {
		return nil, nil, fmt.Errorf("%w, no sequences", pr.ErrValidation)
	}
	if opts.MaxTaxa > 0 && set.Len() > opts.MaxTaxa {
		return nil, nil, fmt.Errorf("%w, %d sequences is more than the limit of %d", pr.ErrValidation, set.Len(), opts.MaxTaxa)
	}
	log.Printf("computing %s distances for %d sequences of length %d\n", opts.Model, set.Len(), set.AlignmentLength())
	dm, err := distance.Compute(set, opts.Model)
	if err != nil {
		return nil, nil, fmt.Errorf("distance error: %w", err)
	}
	log.Println("building neighbor-joining tree")
	result, err := NeighborJoining(dm)
	if err != nil {
		return nil, nil, err
	}
	for _, a := range result.Anomalies {
		log.Printf("WARNING: %s\n", a)
	}
	log.Printf("tree has %d leaves, %d internal nodes, total branch length %f\n",
		set.Len(), result.Tree.NumInternal(), result.Tree.TotalLength())
	return result, dm, nil
}
