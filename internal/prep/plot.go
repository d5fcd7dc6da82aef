package prep

import (
	"fmt"
	"image/color"
	"io"
	"math/rand/v2"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	gr "github.com/jsdoublel/njtree/internal/graphs"
)

var branchColor = color.RGBA{R: 37, G: 37, B: 37, A: 255}

// Tree drawing options
type PlotOptions struct {
	Width  vg.Length
	Height vg.Length
	Seed   uint64 // seed for leaf label colors
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 6 * vg.Inch, Height: 6 * vg.Inch}
}

// Draws tree as a rectangular phylogram: branches run horizontally from the
// parent's x to the clade's x, leaf names are colored from a palette seeded by
// opts.Seed, and branch lengths are printed (2 decimals) above non-zero branches.
// The tree is only read.
func TreePlot(root *gr.Clade, opts PlotOptions) (*plot.Plot, error) {
	pos := gr.Layout(root)
	parents := root.Parents()
	p := plot.New()
	p.X.Label.Text = "Branch length"
	p.HideY()
	maxX := 0.0
	leafXYs, leafNames := make(plotter.XYs, 0), make([]string, 0)
	branchXYs, branchNames := make(plotter.XYs, 0), make([]string, 0)
	for c := range root.PreOrder() {
		maxX = max(maxX, pos[c].X)
		if c.Tip() {
			leafXYs = append(leafXYs, plotter.XY{X: pos[c].X, Y: pos[c].Y})
			leafNames = append(leafNames, c.Name())
		}
		parent, ok := parents[c]
		if !ok {
			continue
		}
		line, err := plotter.NewLine(plotter.XYs{
			{X: pos[parent].X, Y: pos[parent].Y},
			{X: pos[parent].X, Y: pos[c].Y},
			{X: pos[c].X, Y: pos[c].Y},
		})
		if err != nil {
			return nil, fmt.Errorf("error drawing branch to %s: %w", c, err)
		}
		line.Color = branchColor
		line.Width = vg.Points(1.5)
		p.Add(line)
		if l, ok := c.BranchLength(); ok && l != 0 {
			branchXYs = append(branchXYs, plotter.XY{X: (pos[parent].X + pos[c].X) / 2, Y: pos[c].Y})
			branchNames = append(branchNames, strconv.FormatFloat(l, 'f', 2, 64))
		}
	}
	leafLabels, err := plotter.NewLabels(plotter.XYLabels{XYs: leafXYs, Labels: leafNames})
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	for i := range leafLabels.TextStyle {
		leafLabels.TextStyle[i].Color = randomColor(rng)
		leafLabels.TextStyle[i].YAlign = draw.YCenter
	}
	leafLabels.Offset = vg.Point{X: vg.Points(4)}
	p.Add(leafLabels)
	if len(branchNames) > 0 {
		branchLabels, err := plotter.NewLabels(plotter.XYLabels{XYs: branchXYs, Labels: branchNames})
		if err != nil {
			return nil, err
		}
		for i := range branchLabels.TextStyle {
			branchLabels.TextStyle[i].XAlign = draw.XCenter
		}
		branchLabels.Offset = vg.Point{Y: vg.Points(2)}
		p.Add(branchLabels)
	}
	p.X.Min = 0
	p.X.Max = 1.25*maxX + 0.05 // room for leaf names
	p.Y.Min = 0
	p.Y.Max = float64(len(leafNames)) + 1
	return p, nil
}

// darker colors so labels stay readable on white
func randomColor(rng *rand.Rand) color.RGBA {
	return color.RGBA{R: uint8(rng.IntN(200)), G: uint8(rng.IntN(200)), B: uint8(rng.IntN(200)), A: 255}
}

// Writes tree drawing as png to w
func WriteTreePNG(root *gr.Clade, opts PlotOptions, w io.Writer) error {
	p, err := TreePlot(root, opts)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(opts.Width, opts.Height, "png")
	if err != nil {
		return err
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("%w, %s", ErrWritingFile, err)
	}
	return nil
}
