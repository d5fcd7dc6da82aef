package prep

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestReadAlignmentFile(t *testing.T) {
	testCases := []struct {
		name        string
		file        string
		format      string
		names       []string
		length      int
		expectedErr error
	}{
		{
			name:   "fasta",
			file:   "testdata/example.fasta",
			format: "fasta",
			names:  []string{"Seq1", "Seq2", "Seq3"},
			length: 12,
		},
		{
			name:   "phylip",
			file:   "testdata/example.phy",
			format: "phylip",
			names:  []string{"Seq1", "Seq2", "Seq3"},
			length: 12,
		},
		{
			name:        "ragged fasta",
			file:        "testdata/ragged.fasta",
			format:      "fasta",
			expectedErr: ErrParse,
		},
		{
			name:        "no header",
			file:        "testdata/noheader.fasta",
			format:      "fasta",
			expectedErr: ErrParse,
		},
		{
			name:        "empty fasta",
			file:        "testdata/empty.fasta",
			format:      "fasta",
			expectedErr: ErrParse,
		},
		{
			name:        "fasta read as phylip",
			file:        "testdata/example.fasta",
			format:      "phylip",
			expectedErr: ErrParse,
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			set, err := ReadAlignmentFile(test.file, ParseFormat[test.format])
			switch {
			case !errors.Is(err, test.expectedErr):
				t.Errorf("Failed with unexpected error %+v", err)
			case err != nil:
				t.Logf("%s", err)
			default:
				if !reflect.DeepEqual(set.Names(), test.names) {
					t.Errorf("names %v != %v", set.Names(), test.names)
				}
				if set.AlignmentLength() != test.length {
					t.Errorf("alignment length %d != %d", set.AlignmentLength(), test.length)
				}
			}
		})
	}
}

func TestReadTreesFile(t *testing.T) {
	testCases := []struct {
		name        string
		file        string
		format      string
		numTrees    int
		expectedErr error
	}{
		{
			name:     "newick",
			file:     "testdata/trees.nwk",
			format:   "newick",
			numTrees: 2,
		},
		{
			name:     "nexus",
			file:     "testdata/trees.nex",
			format:   "nexus",
			numTrees: 2,
		},
		{
			name:        "bad tree",
			file:        "testdata/badtree.nwk",
			format:      "newick",
			expectedErr: ErrParse,
		},
		{
			name:        "empty",
			file:        "testdata/empty.nwk",
			format:      "newick",
			expectedErr: ErrInvalidFile,
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			trees, err := ReadTreesFile(test.file, ParseTreeFormat[test.format])
			switch {
			case !errors.Is(err, test.expectedErr):
				t.Errorf("Failed with unexpected error %+v", err)
			case err != nil:
				t.Logf("%s", err)
			case len(trees.Trees) != test.numTrees || len(trees.Names) != test.numTrees:
				t.Errorf("read %d trees, expected %d", len(trees.Trees), test.numTrees)
			}
		})
	}
}

func TestFormatSet(t *testing.T) {
	var f Format
	if err := f.Set("phylip"); err != nil || f != Phylip {
		t.Errorf("could not set format to phylip: %v", err)
	}
	if f.String() != "phylip" {
		t.Errorf("format string %s != phylip", f.String())
	}
	if err := f.Set("genbank"); err == nil {
		t.Error("genbank should not be a valid format")
	}
	var tf TreeFormat
	if err := tf.Set("nexus"); err != nil || tf != NexusTrees {
		t.Errorf("could not set tree format to nexus: %v", err)
	}
}

type testMatrix struct {
	names []string
	d     [][]float64
}

func (m testMatrix) Names() []string     { return m.names }
func (m testMatrix) At(i, j int) float64 { return m.d[i][j] }

func TestWriteDistanceCSV(t *testing.T) {
	dm := testMatrix{
		names: []string{"A", "B"},
		d:     [][]float64{{0, 0.25}, {0.25, 0}},
	}
	var buf bytes.Buffer
	if err := WriteDistanceCSV(dm, &buf); err != nil {
		t.Fatal(err)
	}
	expected := ",A,B\nA,0,0.25\nB,0.25,0\n"
	if buf.String() != expected {
		t.Errorf("csv output\n%s\n!= expected\n%s", buf.String(), expected)
	}
	if strings.Count(buf.String(), "\n") != 3 {
		t.Error("expected 3 rows")
	}
}
