package prep

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/evolbioinfo/goalign/align"
	alnexus "github.com/evolbioinfo/goalign/io/nexus"
	"github.com/evolbioinfo/goalign/io/phylip"
	"github.com/evolbioinfo/gotree/io/newick"
	"github.com/evolbioinfo/gotree/io/nexus"
	"github.com/evolbioinfo/gotree/tree"
)

var (
	ErrInvalidFile = errors.New("invalid file")
	ErrWritingFile = errors.New("error writing file")
)

// Alignment file format
type Format int

const (
	Fasta Format = iota
	Phylip
	Nexus
)

var ParseFormat = map[string]Format{
	"fasta":  Fasta,
	"phylip": Phylip,
	"nexus":  Nexus,
}

func (f *Format) Set(s string) error {
	if format, ok := ParseFormat[s]; ok {
		*f = format
		return nil
	}
	return fmt.Errorf("\"%s\" is not a valid alignment file format", s)
}

func (f Format) String() string {
	for s, fr := range ParseFormat {
		if fr == f {
			return s
		}
	}
	panic(fmt.Sprintf("format (%d) does not exist", f))
}

// Tree file format (for replicate trees used to compute support)
type TreeFormat int

const (
	Newick TreeFormat = iota
	NexusTrees
)

var ParseTreeFormat = map[string]TreeFormat{
	"newick": Newick,
	"nexus":  NexusTrees,
}

func (f *TreeFormat) Set(s string) error {
	if format, ok := ParseTreeFormat[s]; ok {
		*f = format
		return nil
	}
	return fmt.Errorf("\"%s\" is not a valid tree file format", s)
}

func (f TreeFormat) String() string {
	for s, fr := range ParseTreeFormat {
		if fr == f {
			return s
		}
	}
	panic(fmt.Sprintf("tree format (%d) does not exist", f))
}

// Reads aligned sequences in the given format
func ReadAlignment(r io.Reader, format Format) (*SequenceSet, error) {
	switch format {
	case Fasta:
		return ParseFASTA(r)
	case Phylip:
		al, err := phylip.NewParser(r, false).Parse()
		if err != nil {
			return nil, fmt.Errorf("%w, error reading phylip alignment: %s", ErrParse, err)
		}
		return fromAlignment(al)
	case Nexus:
		al, err := alnexus.NewParser(r).Parse()
		if err != nil {
			return nil, fmt.Errorf("%w, error reading nexus alignment: %s", ErrParse, err)
		}
		return fromAlignment(al)
	default:
		panic(fmt.Sprintf("invalid format (%d)", format))
	}
}

func fromAlignment(al align.Alignment) (*SequenceSet, error) {
	if al == nil || al.NbSequences() == 0 {
		return nil, fmt.Errorf("%w, alignment has no sequences", ErrParse)
	}
	seqs := make([]Sequence, al.NbSequences())
	for i := range seqs {
		name, ok := al.GetSequenceNameById(i)
		if !ok {
			panic(fmt.Sprintf("alignment has no sequence %d", i))
		}
		residues, _ := al.GetSequenceById(i)
		seqs[i] = Sequence{Name: name, Residues: residues}
	}
	return NewSequenceSet(seqs)
}

// Reads and validates an alignment file
func ReadAlignmentFile(path string, format Format) (*SequenceSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s, %w", path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			panic(fmt.Sprintf("could not close file %s, %s", path, err))
		}
	}()
	set, err := ReadAlignment(file, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Trees read from a tree file
type Trees struct {
	Trees []*tree.Tree // trees in file order
	Names []string     // tree names (line numbers for newick files)
}

// Reads a file of newick trees (one per line) or a nexus trees block.
// Returns ErrInvalidFile if the file is empty and ErrParse for bad trees.
func ReadTreesFile(path string, format TreeFormat) (*Trees, error) {
	flags := log.Flags()
	lout := log.Writer()
	log.SetOutput(io.Discard) // gotree can be noisy
	defer func() {
		log.SetOutput(lout)
		log.SetFlags(flags)
	}()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s, %w", path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			panic(fmt.Sprintf("could not close file %s, %s", path, err))
		}
	}()
	trees := &Trees{Trees: make([]*tree.Tree, 0), Names: make([]string, 0)}
	switch format {
	case Newick:
		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
		for i := 1; scanner.Scan(); i++ {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			tre, err := newick.NewParser(bytes.NewReader(line)).Parse()
			if err != nil {
				return nil, fmt.Errorf("%w, error reading tree on line %d in %s: %s", ErrParse, i, path, err.Error())
			}
			trees.Trees = append(trees.Trees, tre)
			trees.Names = append(trees.Names, strconv.Itoa(i))
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("error reading %s, %w", path, err)
		}
	case NexusTrees:
		nex, err := nexus.NewParser(file).Parse()
		if err != nil {
			return nil, fmt.Errorf("%w, error reading nexus file %s: %s", ErrParse, path, err.Error())
		}
		nex.IterateTrees(func(s string, t *tree.Tree) {
			trees.Trees = append(trees.Trees, t)
			trees.Names = append(trees.Names, s)
		})
	default:
		panic(fmt.Sprintf("invalid tree format (%d)", format))
	}
	if len(trees.Trees) == 0 {
		return nil, fmt.Errorf("%w, no trees in %s", ErrInvalidFile, path)
	}
	return trees, nil
}

// Labeled square matrix that can be written as csv
type LabeledMatrix interface {
	Names() []string
	At(i, j int) float64
}

// Writes distance matrix as csv. The first row and column hold the taxon names.
func WriteDistanceCSV(dm LabeledMatrix, w io.Writer) (err error) {
	names := dm.Names()
	data := make([][]string, len(names)+1)
	data[0] = append([]string{""}, names...)
	for i, name := range names {
		data[i+1] = make([]string, len(names)+1)
		data[i+1][0] = name
		for j := range names {
			data[i+1][j+1] = strconv.FormatFloat(dm.At(i, j), 'f', -1, 64)
		}
	}
	writer := csv.NewWriter(w)
	defer func() {
		writer.Flush()
		if err == nil {
			err = writer.Error()
		} else if writer.Error() != nil {
			log.Printf("error when flushing output csv, %s", writer.Error())
		}
	}()
	if err = writer.WriteAll(data); err != nil {
		err = fmt.Errorf("%w, %s", ErrWritingFile, err)
		return
	}
	return
}

// Writes file through f, creating or truncating it first
func WriteFile(path string, f func(w io.Writer) error) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w, %s", ErrWritingFile, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w, %s", ErrWritingFile, cerr)
		}
	}()
	return f(file)
}
