package prep

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	gr "github.com/jsdoublel/njtree/internal/graphs"
)

const (
	headerMarker  = ">"
	maxLineLength = 16 * 1024 * 1024
)

// Reads an aligned FASTA file. Each record is a header line starting with
// '>' (the trimmed rest of the line is the sequence name) followed by any
// number of residue lines, which are concatenated with all whitespace
// removed. Blank lines are ignored.
//
// Returns ErrParse when no records are found, residues appear before the
// first header, a name is empty, repeated, or holds a newick reserved
// character, or sequence lengths differ. A
// well formed file that is unusable for tree building (e.g., one record)
// returns ErrValidation.
func ParseFASTA(r io.Reader) (*SequenceSet, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	seqs := make([]Sequence, 0)
	headerLines := make(map[string]int)
	var residues strings.Builder
	flush := func() {
		if len(seqs) > 0 {
			seqs[len(seqs)-1].Residues = residues.String()
			residues.Reset()
		}
	}
	for i := 1; scanner.Scan(); i++ {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, headerMarker):
			flush()
			name := strings.TrimSpace(strings.TrimPrefix(line, headerMarker))
			if name == "" {
				return nil, fmt.Errorf("%w, empty sequence name on line %d", ErrParse, i)
			}
			if !gr.NewickSafe(name) {
				return nil, fmt.Errorf("%w, sequence name %q on line %d contains one of %s, which cannot be used in newick output",
					ErrParse, name, i, gr.NewickReserved)
			}
			if prev, ok := headerLines[name]; ok {
				return nil, fmt.Errorf("%w, sequence name %q on line %d was already used on line %d", ErrParse, name, i, prev)
			}
			headerLines[name] = i
			seqs = append(seqs, Sequence{Name: name})
		case len(seqs) == 0:
			return nil, fmt.Errorf("%w, line %d has residues before any '%s' header", ErrParse, i, headerMarker)
		default:
			residues.WriteString(strings.Join(strings.Fields(line), ""))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w, %s", ErrParse, err)
	}
	flush()
	if len(seqs) == 0 {
		return nil, fmt.Errorf("%w, no FASTA records found", ErrParse)
	}
	for _, s := range seqs[1:] {
		if len(s.Residues) != len(seqs[0].Residues) {
			return nil, fmt.Errorf("%w, sequence %q has length %d but %q has length %d; sequences must be aligned",
				ErrParse, s.Name, len(s.Residues), seqs[0].Name, len(seqs[0].Residues))
		}
	}
	return NewSequenceSet(seqs)
}
