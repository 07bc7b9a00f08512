// Command genwell writes synthetic fixtures: an HGS observation-well block
// file and, optionally, a matching observed station table. Output is
// deterministic for a given seed and is parsed back with the domain package
// before the command exits.
//
// Usage:
//
//	go run ./cmd/genwell \
//	  -out testdata/Baildon059.dat \
//	  -observed testdata/Baildon059_obs.csv \
//	  -blocks 10 -steps 104 -interval 604800
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/obswell-etl/internal/domain"
)

// well describes the synthetic column of layers.
type well struct {
	blocks    int
	steps     int
	interval  float64 // seconds between zones
	base      float64 // elevation of the bottom layer
	thickness float64 // vertical spacing between layers
	rng       *rand.Rand
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the block file")
	observed := flag.String("observed", "", "optional output path for an observed station table")
	blocks := flag.Int("blocks", 10, "number of layers")
	steps := flag.Int("steps", 52, "number of time steps")
	interval := flag.Float64("interval", 604800, "seconds between time steps")
	epoch := flag.String("epoch", domain.DefaultEpoch, "calendar instant of simulation time zero")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *blocks < 1 || *steps < 1 || *interval <= 0 {
		return fmt.Errorf("-blocks and -steps must be positive and -interval greater than zero")
	}
	start, err := domain.ParseEpoch(*epoch)
	if err != nil {
		return err
	}

	w := well{
		blocks:    *blocks,
		steps:     *steps,
		interval:  *interval,
		base:      340,
		thickness: 2.5,
		rng:       rand.New(rand.NewPCG(*seed, *seed)),
	}

	name := strings.TrimSuffix(filepath.Base(*out), filepath.Ext(*out))
	if err := writeFile(*out, func(b *bufio.Writer) { w.writeBlocks(b, name) }); err != nil {
		return err
	}
	if err := verify(*out, w); err != nil {
		return err
	}
	log.Printf("%s: %d layers x %d steps", *out, w.blocks, w.steps)

	if *observed != "" {
		serial0 := domain.DateSerial(start)
		if err := writeFile(*observed, func(b *bufio.Writer) { w.writeObserved(b, name, serial0) }); err != nil {
			return err
		}
		log.Printf("%s: %d observations", *observed, w.steps)
	}
	return nil
}

// head is the synthetic hydraulic head at a step: a seasonal swing around
// a mean a few meters below the surface, plus small noise.
func (w well) head(step int) float64 {
	surface := w.elevation(w.blocks)
	days := float64(step) * w.interval / 86400
	season := 1.5 * math.Sin(2*math.Pi*days/365.25)
	return surface - 3 + season + w.rng.NormFloat64()*0.05
}

func (w well) elevation(block int) float64 {
	return w.base + float64(block-1)*w.thickness
}

func (w well) writeBlocks(b *bufio.Writer, name string) {
	fmt.Fprintf(b, "TITLE = \"Observation well: %s\"\n", name)
	b.WriteString("VARIABLES = \"H\",\"S\",\"Z\",\"X\",\"Y\"\n")
	for s := range w.steps {
		fmt.Fprintf(b, "zone t=\"%16.4f\"\n", float64(s)*w.interval)
		h := w.head(s)
		for blk := 1; blk <= w.blocks; blk++ {
			z := w.elevation(blk)
			sat := 1.0
			if z > h {
				sat = math.Max(0.05, 1-(z-h)/10)
			}
			fmt.Fprintf(b, "  %14.6f  %10.6f  %14.6f  %12.2f  %12.2f\n", h, sat, z, 512300.0, 5599100.0)
		}
	}
}

// writeObserved writes date serials and depth below surface in the
// comma-separated layout obswell compare reads.
func (w well) writeObserved(b *bufio.Writer, name string, serial0 float64) {
	fmt.Fprintf(b, "TITLE = \"%s observed\"\n", name)
	b.WriteString("VARIABLES = \"date\",\"DTGS\"\n")
	fmt.Fprintf(b, "ZONE T=\"%s\"\n", name)
	surface := w.elevation(w.blocks)
	for s := range w.steps {
		serial := serial0 + float64(s)*w.interval/86400
		fmt.Fprintf(b, "%.1f,%.3f\n", serial, surface-w.head(s)+w.rng.NormFloat64()*0.1)
	}
}

func writeFile(path string, fill func(*bufio.Writer)) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	b := bufio.NewWriter(f)
	fill(b)
	if err := b.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// verify parses the generated file back and checks its shape.
func verify(path string, w well) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	raw, err := domain.ParseBlocks(f, path)
	if err != nil {
		return fmt.Errorf("generated file does not parse: %w", err)
	}
	if raw.BlockCount != w.blocks || raw.Steps() != w.steps {
		return fmt.Errorf("generated file has %d blocks x %d steps, want %d x %d",
			raw.BlockCount, raw.Steps(), w.blocks, w.steps)
	}
	return nil
}
