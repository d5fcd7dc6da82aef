package infer

import (
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/evolbioinfo/gotree/io/newick"

	"github.com/jsdoublel/njtree/internal/distance"
	gr "github.com/jsdoublel/njtree/internal/graphs"
	pr "github.com/jsdoublel/njtree/internal/prep"
)

const tolerance = 1e-9

func makeMatrix(t *testing.T, names []string, dists [][]float64) *distance.Matrix {
	t.Helper()
	dm, err := distance.NewMatrix(names, dists)
	if err != nil {
		t.Fatalf("invalid matrix; test is written wrong: %s", err)
	}
	return dm
}

func leafLengths(root *gr.Clade) map[string]float64 {
	lengths := make(map[string]float64)
	for _, l := range root.Leaves() {
		lengths[l.Name()], _ = l.BranchLength()
	}
	return lengths
}

func TestNeighborJoining(t *testing.T) {
	testCases := []struct {
		name        string
		names       []string
		dists       [][]float64
		leafLengths map[string]float64
		splits      [][]string // non-trivial splits (side without names[0])
		totalLength float64
		anomalies   int
	}{
		{
			name:        "two taxa",
			names:       []string{"A", "B"},
			dists:       [][]float64{{0, 0.25}, {0.25, 0}},
			leafLengths: map[string]float64{"A": 0.125, "B": 0.125},
			splits:      [][]string{},
			totalLength: 0.25,
		},
		{
			name:  "additive five taxa",
			names: []string{"a", "b", "c", "d", "e"},
			dists: [][]float64{
				{0, 5, 9, 9, 8},
				{5, 0, 10, 10, 9},
				{9, 10, 0, 8, 7},
				{9, 10, 8, 0, 3},
				{8, 9, 7, 3, 0},
			},
			leafLengths: map[string]float64{"a": 2, "b": 3, "c": 4, "d": 2, "e": 1},
			splits:      [][]string{{"d", "e"}, {"c", "d", "e"}},
			totalLength: 17,
		},
		{
			name:  "additive four taxa",
			names: []string{"A", "B", "C", "D"},
			dists: [][]float64{
				{0, 3, 7, 8},
				{3, 0, 6, 7},
				{7, 6, 0, 3},
				{8, 7, 3, 0},
			},
			leafLengths: map[string]float64{"A": 2, "B": 1, "C": 1, "D": 2},
			splits:      [][]string{{"C", "D"}},
			totalLength: 10,
		},
		{
			name:  "triangle violation",
			names: []string{"a", "b", "c"},
			dists: [][]float64{
				{0, 1, 1},
				{1, 0, 4},
				{1, 4, 0},
			},
			leafLengths: map[string]float64{"a": 0, "b": 2, "c": 2},
			splits:      [][]string{},
			totalLength: 4,
			anomalies:   1,
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			result, err := NeighborJoining(makeMatrix(t, test.names, test.dists))
			if err != nil {
				t.Fatalf("unexpected error %s", err)
			}
			root := result.Tree
			if err := gr.CheckLeafset(root, test.names); err != nil {
				t.Error(err)
			}
			for name, length := range leafLengths(root) {
				if math.Abs(length-test.leafLengths[name]) > tolerance {
					t.Errorf("branch length of %s is %f, expected %f", name, length, test.leafLengths[name])
				}
			}
			if math.Abs(root.TotalLength()-test.totalLength) > tolerance {
				t.Errorf("total length %f != %f", root.TotalLength(), test.totalLength)
			}
			splits, err := gr.Splits(root, gr.TaxonIndex(test.names))
			if err != nil {
				t.Fatal(err)
			}
			if len(splits) != len(test.splits) {
				t.Fatalf("%d splits, expected %d (%s)", len(splits), len(test.splits), gr.Newick(root))
			}
			for i, split := range splits {
				side := make([]string, 0)
				for j, name := range test.names {
					if split.Leaves.Test(uint(j)) {
						side = append(side, name)
					}
				}
				if !slices.Equal(side, test.splits[i]) {
					t.Errorf("split %v, expected %v", side, test.splits[i])
				}
			}
			if len(result.Anomalies) != test.anomalies {
				t.Errorf("%d anomalies, expected %d", len(result.Anomalies), test.anomalies)
			}
			for _, a := range result.Anomalies {
				t.Logf("%s", a)
				if l, _ := a.Clade.BranchLength(); l != 0 || a.Length >= 0 {
					t.Errorf("anomaly not clamped: %+v", a)
				}
			}
		})
	}
}

func TestNeighborJoiningShape(t *testing.T) {
	names := []string{"A", "B"}
	result, err := NeighborJoining(makeMatrix(t, names, [][]float64{{0, 0.25}, {0.25, 0}}))
	if err != nil {
		t.Fatal(err)
	}
	root := result.Tree
	if root.NChildren() != 2 || !root.Child(0).Tip() || !root.Child(1).Tip() {
		t.Errorf("two taxa should give a root with two leaves, got %s", gr.Newick(root))
	}
	if _, ok := root.BranchLength(); ok {
		t.Error("root should not have a branch length")
	}
}

func TestNeighborJoiningErrors(t *testing.T) {
	if _, err := NeighborJoining(nil); !errors.Is(err, pr.ErrValidation) {
		t.Errorf("nil matrix: unexpected error %+v", err)
	}
	dm := makeMatrix(t, []string{"A"}, [][]float64{{0}})
	if _, err := NeighborJoining(dm); !errors.Is(err, pr.ErrValidation) {
		t.Errorf("one taxon: unexpected error %+v", err)
	}
}

func TestNeighborJoiningTies(t *testing.T) {
	// every pair ties, so the first pair is always joined first
	names := []string{"A", "B", "C", "D"}
	dists := [][]float64{
		{0, 1, 1, 1},
		{1, 0, 1, 1},
		{1, 1, 0, 1},
		{1, 1, 1, 0},
	}
	result, err := NeighborJoining(makeMatrix(t, names, dists))
	if err != nil {
		t.Fatal(err)
	}
	first := result.Tree.Child(0)
	if first.Tip() || !slices.Equal(first.LeafNames(), []string{"A", "B"}) {
		t.Errorf("expected A and B to be joined first, got %s", gr.Newick(result.Tree))
	}
}

// random sequence sets of various sizes, checked against the tree invariants
func TestNeighborJoiningProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	const alphabet = "ACGT-"
	for n := 2; n <= 15; n++ {
		seqs := make([]pr.Sequence, n)
		for i := range seqs {
			residues := make([]byte, 30)
			for k := range residues {
				residues[k] = alphabet[rng.IntN(len(alphabet))]
			}
			seqs[i] = pr.Sequence{Name: string(rune('a' + i)), Residues: string(residues)}
		}
		set, err := pr.NewSequenceSet(seqs)
		if err != nil {
			t.Fatal(err)
		}
		dm, err := distance.Compute(set, distance.Identity)
		if err != nil {
			t.Fatal(err)
		}
		r1, err := NeighborJoining(dm)
		if err != nil {
			t.Fatalf("n=%d: %s", n, err)
		}
		r2, err := NeighborJoining(dm)
		if err != nil {
			t.Fatalf("n=%d: %s", n, err)
		}
		if gr.Newick(r1.Tree) != gr.Newick(r2.Tree) {
			t.Errorf("n=%d: trees differ between runs\n%s\n%s", n, gr.Newick(r1.Tree), gr.Newick(r2.Tree))
		}
		if err := gr.CheckLeafset(r1.Tree, set.Names()); err != nil {
			t.Errorf("n=%d: %s", n, err)
		}
		expInternal := n - 2
		if n == 2 {
			expInternal = 1
		}
		if r1.Tree.NumInternal() != expInternal {
			t.Errorf("n=%d: %d internal nodes, expected %d", n, r1.Tree.NumInternal(), expInternal)
		}
		for c := range r1.Tree.PreOrder() {
			if c == r1.Tree {
				continue
			}
			if l, ok := c.BranchLength(); !ok || l < 0 {
				t.Errorf("n=%d: bad branch length %f (set %t) above %s", n, l, ok, c)
			}
		}
	}
}

func TestInfer(t *testing.T) {
	set, err := pr.NewSequenceSet([]pr.Sequence{
		{Name: "Seq1", Residues: "ATCGTACGATCG"},
		{Name: "Seq2", Residues: "ATGGTACGATCA"},
		{Name: "Seq3", Residues: "ATCGTACGCTCG"},
	})
	if err != nil {
		t.Fatal(err)
	}
	result, dm, err := Infer(set, DefaultInferOptions())
	if err != nil {
		t.Fatal(err)
	}
	if dm.Len() != 3 {
		t.Errorf("matrix has %d taxa", dm.Len())
	}
	root := result.Tree
	if len(root.Leaves()) != 3 || root.NumInternal() != 1 {
		t.Errorf("expected 3 leaves and 1 internal node, got %s", gr.Newick(root))
	}
	for c := range root.PreOrder() {
		if l, ok := c.BranchLength(); ok && l < 0 {
			t.Errorf("negative branch length above %s", c)
		}
	}
	opts := DefaultInferOptions()
	opts.MaxTaxa = 2
	if _, _, err := Infer(set, opts); !errors.Is(err, pr.ErrValidation) {
		t.Errorf("taxa limit: unexpected error %+v", err)
	}
	if _, _, err := Infer(nil, DefaultInferOptions()); !errors.Is(err, pr.ErrValidation) {
		t.Errorf("nil set: unexpected error %+v", err)
	}
	set, err = pr.NewSequenceSet([]pr.Sequence{{Name: "A", Residues: "ACGN"}, {Name: "B", Residues: "ACGT"}})
	if err != nil {
		t.Fatal(err)
	}
	opts = DefaultInferOptions()
	opts.Model = distance.Trans
	if _, _, err := Infer(set, opts); !errors.Is(err, pr.ErrValidation) {
		t.Errorf("unscorable residue: unexpected error %+v", err)
	}
}

func TestInferNewickNames(t *testing.T) {
	testCases := []struct {
		name        string
		fasta       string
		expectedErr error
	}{
		{
			name:  "plain names",
			fasta: ">Seq1\nATCGTACGATCG\n>Seq2\nATGGTACGATCA\n>Seq3\nATCGTACGCTCG\n",
		},
		{
			name:  "names with spaces and symbols",
			fasta: ">Homo sapiens\nATCGTACGATCG\n>gi|123|abc\nATGGTACGATCA\n>O'Brien 2\nATCGTACGCTCG\n",
		},
		{
			name:        "brackets",
			fasta:       ">Seq1 [human]\nATCGTACGATCG\n>Seq2\nATGGTACGATCA\n>Seq3\nATCGTACGCTCG\n",
			expectedErr: pr.ErrParse,
		},
		{
			name:        "colon and comma",
			fasta:       ">gi:123,abc\nATCGTACGATCG\n>Seq2\nATGGTACGATCA\n>Seq3\nATCGTACGCTCG\n",
			expectedErr: pr.ErrParse,
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			set, err := pr.ParseFASTA(strings.NewReader(test.fasta))
			switch {
			case !errors.Is(err, test.expectedErr):
				t.Fatalf("failed with unexpected error %+v", err)
			case err != nil:
				t.Logf("%s", err)
				return
			}
			result, _, err := Infer(set, DefaultInferOptions())
			if err != nil {
				t.Fatal(err)
			}
			nwk := gr.Newick(result.Tree)
			tre, err := newick.NewParser(strings.NewReader(nwk)).Parse()
			if err != nil {
				t.Fatalf("newick %s could not be parsed: %s", nwk, err)
			}
			back, err := gr.FromGotree(tre)
			if err != nil {
				t.Fatal(err)
			}
			if err := gr.CheckLeafset(back, set.Names()); err != nil {
				t.Errorf("%s: %s", nwk, err)
			}
		})
	}
}
