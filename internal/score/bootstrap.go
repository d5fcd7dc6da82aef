package score

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jsdoublel/njtree/internal/distance"
	gr "github.com/jsdoublel/njtree/internal/graphs"
	"github.com/jsdoublel/njtree/internal/infer"
	pr "github.com/jsdoublel/njtree/internal/prep"
)

// Builds reps neighbor-joining trees from column-resampled copies of set.
// Replicate r draws its columns from a PCG source seeded with seed+r, so the
// result only depends on the arguments (not on nprocs).
func Bootstrap(set *pr.SequenceSet, model distance.Model, reps int, seed uint64, nprocs int) ([]*gr.Clade, error) {
	if set == nil {
		return nil, fmt.Errorf("%w, no sequences", pr.ErrValidation)
	}
	if reps <= 0 {
		return nil, fmt.Errorf("%w, number of bootstrap replicates must be positive, but is %d", pr.ErrValidation, reps)
	}
	replicates := make([]*gr.Clade, reps)
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(max(nprocs, 1))
	for r := range reps {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(seed+uint64(r), 0))
			dm, err := distance.Compute(Resample(set, rng), model)
			if err != nil {
				return fmt.Errorf("bootstrap replicate %d: %w", r, err)
			}
			result, err := infer.NeighborJoining(dm)
			if err != nil {
				return fmt.Errorf("bootstrap replicate %d: %w", r, err)
			}
			replicates[r] = result.Tree
			return nil
		})
	}
	return replicates, g.Wait()
}

// Returns a copy of set with its alignment columns drawn with replacement
func Resample(set *pr.SequenceSet, rng *rand.Rand) *pr.SequenceSet {
	l := set.AlignmentLength()
	cols := make([]int, l)
	for k := range cols {
		cols[k] = rng.IntN(l)
	}
	seqs := make([]pr.Sequence, set.Len())
	for i := range seqs {
		orig := set.Sequence(i)
		var b strings.Builder
		b.Grow(l)
		for _, k := range cols {
			b.WriteByte(orig.Residues[k])
		}
		seqs[i] = pr.Sequence{Name: orig.Name, Residues: b.String()}
	}
	resampled, err := pr.NewSequenceSet(seqs)
	if err != nil {
		panic(fmt.Sprintf("resampling produced an invalid sequence set: %s", err))
	}
	return resampled
}
