/*
njtree builds unrooted phylogenetic trees from aligned sequences with the
neighbor-joining algorithm.

usage: njtree [ -f <format> | -m <model> | -c <config> | -b <replicates> | -t <trees> | -o <prefix> | -a | -h | -v ] <alignment>...

positional arguments:

	<alignment>	aligned sequence file(s); one tree is printed per file

flags:

	-F format
	  	support tree file format [ newick | nexus ] (default "newick")
	-a	draw trees as text after the newick output
	-b int
	  	number of bootstrap replicates used to compute split support
	-c file
	  	yaml config file (flags take precedence)
	-f format
	  	alignment format [ fasta | phylip | nexus ] (default "fasta")
	-h	prints this message and exits
	-m model
	  	distance model [ identity | blastn | trans ] (default "identity")
	-n int
	  	number of parallel processes
	-o prefix
	  	write tree plot to <prefix>.png and distance matrix to <prefix>.csv
	-s int
	  	random seed for bootstrap and plot colors (default 1)
	-t file
	  	trees used to compute split support (instead of bootstrap)
	-v	prints version number and exits

examples:

	njtree alignment.fasta > tree.nwk 2> log.txt

	njtree -b 100 -o aln -a alignment.fasta > tree.nwk 2> log.txt
*/
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/jsdoublel/njtree/internal/config"
	"github.com/jsdoublel/njtree/internal/distance"
	gr "github.com/jsdoublel/njtree/internal/graphs"
	"github.com/jsdoublel/njtree/internal/infer"
	pr "github.com/jsdoublel/njtree/internal/prep"
	"github.com/jsdoublel/njtree/internal/score"
)

const (
	Version    = "v0.1.0"
	ErrMessage = "njtree encountered an error ::"
)

type args struct {
	cfg        *config.Config // settings from config file and flags
	files      []string       // alignment files
	treeFile   string         // support trees (optional)
	treeFormat pr.TreeFormat  // support tree file format
}

func setNProcs(nprocs int) int {
	maxProcs := runtime.GOMAXPROCS(0)
	switch {
	case nprocs > maxProcs:
		log.Printf("%d is greater than available processes (%d); limit set to %d\n", nprocs, maxProcs, maxProcs)
		return maxProcs
	case nprocs <= 0:
		log.Printf("number of processes not set; defaulting to %d processes\n", maxProcs)
		return maxProcs
	default:
		return nprocs
	}
}

func parseArgs() args {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr,
			"usage: njtree [ -f <format> | -m <model> | -c <config> | -b <replicates> | -t <trees> | -o <prefix> | -a | -h | -v ] <alignment>...\n",
			"\n",
			"positional arguments:\n\n",
			"  <alignment>\taligned sequence file(s); one tree is printed per file\n",
			"\n",
			"flags:\n\n",
		)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr,
			"\n",
			"examples:\n\n",
			"\tnjtree alignment.fasta > tree.nwk 2> log.txt\n\n",
			"\tnjtree -b 100 -o aln -a alignment.fasta > tree.nwk 2> log.txt\n",
		)
	}
	format := pr.Fasta
	flag.Var(&format, "f", "alignment `format` [ fasta | phylip | nexus ] (default \"fasta\")")
	model := distance.Identity
	flag.Var(&model, "m", "distance `model` [ identity | blastn | trans ] (default \"identity\")")
	treeFormat := pr.Newick
	flag.Var(&treeFormat, "F", "support tree file `format` [ newick | nexus ] (default \"newick\")")
	cfgFile := flag.String("c", "", "yaml config `file` (flags take precedence)")
	reps := flag.Int("b", 0, "number of bootstrap replicates used to compute split support")
	seed := flag.Uint64("s", config.DefaultSeed, "random seed for bootstrap and plot colors")
	treeFile := flag.String("t", "", "trees used to compute split support (instead of bootstrap) `file`")
	prefix := flag.String("o", "", "write tree plot to <prefix>.png and distance matrix to <prefix>.csv")
	ascii := flag.Bool("a", false, "draw trees as text after the newick output")
	nprocs := flag.Int("n", 0, "number of parallel processes")
	help := flag.Bool("h", false, "prints this message and exits")
	ver := flag.Bool("v", false, "prints version number and exits")
	flag.Parse()
	if *help {
		flag.Usage()
		os.Exit(0)
	}
	if *ver {
		fmt.Printf("njtree version %s\n", Version)
		os.Exit(0)
	}
	if flag.NArg() < 1 {
		parserError("at least one alignment file is required")
	}
	cfg := config.Default()
	if *cfgFile != "" {
		var err error
		if cfg, err = config.Load(*cfgFile); err != nil {
			parserError(err.Error())
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "f":
			cfg.Format = format.String()
		case "m":
			cfg.Model = model.String()
		case "b":
			cfg.Bootstrap = *reps
		case "s":
			cfg.Seed = *seed
		case "o":
			cfg.Output = *prefix
		case "a":
			cfg.ASCII = *ascii
		case "n":
			cfg.NProcs = *nprocs
		}
	})
	if err := cfg.Validate(); err != nil {
		parserError(err.Error())
	}
	if cfg.Bootstrap > 0 && *treeFile != "" {
		parserError("-b and -t cannot be used together")
	}
	cfg.NProcs = setNProcs(cfg.NProcs)
	return args{
		cfg:        cfg,
		files:      flag.Args(),
		treeFile:   *treeFile,
		treeFormat: treeFormat,
	}
}

// prints message, usage, and exits (status code 1)
func parserError(message string) {
	fmt.Fprintln(os.Stderr, message)
	flag.Usage()
	os.Exit(1)
}

// Reads the support tree file
func readReplicates(path string, format pr.TreeFormat) ([]*gr.Clade, error) {
	trees, err := pr.ReadTreesFile(path, format)
	if err != nil {
		return nil, err
	}
	replicates := make([]*gr.Clade, len(trees.Trees))
	for i, tre := range trees.Trees {
		if replicates[i], err = gr.FromGotree(tre); err != nil {
			return nil, fmt.Errorf("tree %s in %s: %w", trees.Names[i], path, err)
		}
	}
	log.Printf("read %d support trees from %s\n", len(replicates), path)
	return replicates, nil
}

// Output prefix for the i-th of n input files
func outputPrefix(prefix string, i, n int) string {
	if n == 1 {
		return prefix
	}
	return prefix + "." + strconv.Itoa(i+1)
}

// Processes each bootstrap may use while nfiles files run at once, so that
// all replicates together stay within nprocs
func bootstrapProcs(nprocs, nfiles int) int {
	return max(1, nprocs/max(1, min(nfiles, nprocs)))
}

// Builds the tree for one alignment file and writes its side outputs; returns
// what should be printed on stdout
func run(path string, i int, a args, replicates []*gr.Clade) (string, error) {
	cfg := a.cfg
	log.Printf("reading %s\n", path)
	set, err := pr.ReadAlignmentFile(path, cfg.AlignmentFormat())
	if err != nil {
		return "", err
	}
	opts := cfg.InferOptions()
	result, dm, err := infer.Infer(set, opts)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	tre := result.Tree
	if cfg.Bootstrap > 0 {
		log.Printf("running %d bootstrap replicates for %s\n", cfg.Bootstrap, path)
		if replicates, err = score.Bootstrap(set, opts.Model, cfg.Bootstrap, cfg.Seed, bootstrapProcs(cfg.NProcs, len(a.files))); err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
	}
	if replicates != nil {
		if tre, err = score.Support(tre, replicates); err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
	}
	var out bytes.Buffer
	fmt.Fprintln(&out, gr.Newick(tre))
	if cfg.ASCII {
		if err := pr.DrawASCII(tre, &out); err != nil {
			return "", err
		}
	}
	if cfg.Output != "" {
		prefix := outputPrefix(cfg.Output, i, len(a.files))
		if err := pr.WriteFile(prefix+".csv", func(w io.Writer) error {
			return pr.WriteDistanceCSV(dm, w)
		}); err != nil {
			return "", err
		}
		if err := pr.WriteFile(prefix+".png", func(w io.Writer) error {
			return pr.WriteTreePNG(tre, cfg.PlotOptions(), w)
		}); err != nil {
			return "", err
		}
		log.Printf("wrote %s.csv and %s.png\n", prefix, prefix)
	}
	return out.String(), nil
}

// Runs every input file (in parallel) and returns the outputs in input order
func runAll(a args) ([]string, error) {
	var replicates []*gr.Clade
	if a.treeFile != "" {
		var err error
		if replicates, err = readReplicates(a.treeFile, a.treeFormat); err != nil {
			return nil, err
		}
	}
	outputs := make([]string, len(a.files))
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(a.cfg.NProcs)
	for i, path := range a.files {
		g.Go(func() error {
			out, err := run(path, i, a, replicates)
			outputs[i] = out
			return err
		})
	}
	return outputs, g.Wait()
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("njtree version %s", Version)
	a := parseArgs()
	outputs, err := runAll(a)
	if err != nil {
		log.Fatalf("%s %s\n", ErrMessage, err)
	}
	for _, out := range outputs {
		fmt.Print(out)
	}
}
