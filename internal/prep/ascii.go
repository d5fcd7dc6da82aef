package prep

import (
	"bufio"
	"io"
	"strconv"

	gr "github.com/jsdoublel/njtree/internal/graphs"
)

// Draws tree as indented text, one clade per line, e.g.
//
//	.
//	├── A 0.125
//	└── B 0.125
//
// Internal clades without a name are drawn as '+', supports are shown in
// brackets.
func DrawASCII(root *gr.Clade, w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(cladeLabel(root, ".") + "\n")
	var draw func(c *gr.Clade, prefix string)
	draw = func(c *gr.Clade, prefix string) {
		for i := range c.NChildren() {
			child := c.Child(i)
			branch, indent := "├── ", "│   "
			if i == c.NChildren()-1 {
				branch, indent = "└── ", "    "
			}
			bw.WriteString(prefix + branch + cladeLabel(child, "+") + "\n")
			draw(child, prefix+indent)
		}
	}
	draw(root, "")
	return bw.Flush()
}

func cladeLabel(c *gr.Clade, unnamed string) string {
	label := c.Name()
	if label == "" {
		label = unnamed
	}
	if l, ok := c.BranchLength(); ok {
		label += " " + strconv.FormatFloat(l, 'f', -1, 64)
	}
	if s, ok := c.Support(); ok {
		label += " [" + strconv.FormatFloat(s, 'f', -1, 64) + "]"
	}
	return label
}
