// Package for computing pairwise distance matrices from aligned sequences.
//
// The default identity model is a naive Hamming-fraction distance: the
// fraction of aligned positions at which two sequences carry different
// characters, with gaps and ambiguity codes compared literally like any
// other character. It is not an evolutionary distance.
package distance

import (
	"fmt"
	"strings"
	"unicode"

	pr "github.com/jsdoublel/njtree/internal/prep"
)

// Substitution model used to score aligned positions
type Model int

const (
	Identity Model = iota
	Blastn
	Trans
)

var ParseModel = map[string]Model{
	"identity": Identity,
	"blastn":   Blastn,
	"trans":    Trans,
}

func (m *Model) Set(s string) error {
	if model, ok := ParseModel[s]; ok {
		*m = model
		return nil
	}
	return fmt.Errorf("\"%s\" is not a valid distance model", s)
}

func (m Model) String() string {
	for s, md := range ParseModel {
		if md == m {
			return s
		}
	}
	panic(fmt.Sprintf("model (%d) does not exist", m))
}

// Scoring matrix over a small alphabet (DNA models)
type scoringMatrix struct {
	alphabet string
	scores   [][]int
}

var (
	blastnMatrix = scoringMatrix{
		alphabet: "ATCG",
		scores: [][]int{
			{5, -4, -4, -4},
			{-4, 5, -4, -4},
			{-4, -4, 5, -4},
			{-4, -4, -4, 5},
		},
	}
	// transitions (A<->G, C<->T) are penalized less than transversions
	transMatrix = scoringMatrix{
		alphabet: "ATCG",
		scores: [][]int{
			{6, -5, -5, -1},
			{-5, 6, -1, -5},
			{-5, -1, 6, -5},
			{-1, -5, -5, 6},
		},
	}
)

// positions with these are skipped by scoring matrix models
const skipLetters = "-*"

// Computes the pairwise distance matrix of the sequence set under model. Each
// pair is computed once and mirrored. Returns ErrValidation for sets with
// fewer than two sequences or empty/unequal sequences, and for residues a
// scoring matrix model has no score for.
func Compute(set *pr.SequenceSet, model Model) (*Matrix, error) {
	if set == nil || set.Len() < 2 {
		return nil, fmt.Errorf("%w, at least 2 sequences are required", pr.ErrValidation)
	}
	if set.AlignmentLength() < 1 {
		return nil, fmt.Errorf("%w, sequences are empty", pr.ErrValidation)
	}
	var pairwise func(s1, s2 string) (float64, error)
	switch model {
	case Identity:
		pairwise = identity
	case Blastn:
		pairwise = blastnMatrix.distance
	case Trans:
		pairwise = transMatrix.distance
	default:
		panic(fmt.Sprintf("invalid distance model (%d)", model))
	}
	n := set.Len()
	dists := make([][]float64, n)
	for i := range n {
		dists[i] = make([]float64, n)
	}
	for i := range n {
		s1 := set.Sequence(i)
		for j := i + 1; j < n; j++ {
			s2 := set.Sequence(j)
			if len(s1.Residues) != len(s2.Residues) {
				return nil, fmt.Errorf("%w, %s and %s differ in length", pr.ErrValidation, s1.Name, s2.Name)
			}
			d, err := pairwise(s1.Residues, s2.Residues)
			if err != nil {
				return nil, fmt.Errorf("%w, comparing %s and %s: %s", pr.ErrValidation, s1.Name, s2.Name, err)
			}
			dists[i][j], dists[j][i] = d, d
		}
	}
	return &Matrix{names: set.Names(), dists: dists}, nil
}

// Fraction of positions that differ (every position counts, gaps included)
func identity(s1, s2 string) (float64, error) {
	mismatches := 0
	for k := range len(s1) {
		if s1[k] != s2[k] {
			mismatches++
		}
	}
	return float64(mismatches) / float64(len(s1)), nil
}

// 1 - score/maxScore, where maxScore is the larger of the two self scores.
// Positions with a gap or stop in either sequence are skipped; residues are
// case-insensitive.
func (sm scoringMatrix) distance(s1, s2 string) (float64, error) {
	score, max1, max2 := 0, 0, 0
	for k := range len(s1) {
		if isSkipped(s1[k]) || isSkipped(s2[k]) {
			continue
		}
		a, err := sm.index(s1[k])
		if err != nil {
			return 0, err
		}
		b, err := sm.index(s2[k])
		if err != nil {
			return 0, err
		}
		score += sm.scores[a][b]
		max1 += sm.scores[a][a]
		max2 += sm.scores[b][b]
	}
	maxScore := max(max1, max2)
	if maxScore == 0 {
		return 1, nil
	}
	return 1 - float64(score)/float64(maxScore), nil
}

func (sm scoringMatrix) index(c byte) (int, error) {
	if i := strings.IndexRune(sm.alphabet, unicode.ToUpper(rune(c))); i >= 0 {
		return i, nil
	}
	return 0, fmt.Errorf("residue '%c' is not one of %s", c, sm.alphabet)
}

func isSkipped(c byte) bool {
	return strings.IndexByte(skipLetters, c) >= 0
}
