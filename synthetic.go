/*
 *  synthetic.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes

import (
	"bufio"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/shenwei356/xopen"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const nucleotides = "ACGT"

// SyntheticOptions controls planted motif generation
type SyntheticOptions struct {
	Sequences        int
	Length           int
	Motifs           int
	MotifLength      int
	SitesPerSequence int
	// MotifAlpha is the Dirichlet concentration of every motif column, small
	// values give sharp motifs
	MotifAlpha float64
}

// DefaultSyntheticOptions plants two motifs of the default site length
func DefaultSyntheticOptions() SyntheticOptions {
	return SyntheticOptions{
		Sequences:        20,
		Length:           100,
		Motifs:           2,
		MotifLength:      DefaultTFBSLength,
		SitesPerSequence: 1,
		MotifAlpha:       0.1,
	}
}

// SyntheticTFBS is generated data with its planted partition
type SyntheticTFBS struct {
	Names     []string
	Sequences []string
	Motifs    [][][AlphabetSize]float64
	Truth     Partition
}

// Data encodes the generated sequences
func (r *SyntheticTFBS) Data() *TFBSData {
	return NewTFBSData(r.Names, r.Sequences)
}

// WriteFasta saves the sequences
func (r *SyntheticTFBS) WriteFasta(filename string) error {
	fw, err := xopen.Wopen(filename)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(fw)
	for i, s := range r.Sequences {
		fmt.Fprintf(w, ">%s\n%s\n", r.Names[i], s)
	}
	if err := w.Flush(); err != nil {
		fw.Close()
		return err
	}
	log.Noticef("Synthetic sequences written to `%s`", filename)
	return fw.Close()
}

// GenerateTFBSData draws motifs from a Dirichlet, plants non-overlapping
// forward sites into uniform background sequences and returns the truth
func GenerateTFBSData(rng *rand.Rand, opts SyntheticOptions) *SyntheticTFBS {
	r := &SyntheticTFBS{}
	for m := 0; m < opts.Motifs; m++ {
		motif := make([][AlphabetSize]float64, opts.MotifLength)
		for j := range motif {
			motif[j] = dirichletDraw(rng, opts.MotifAlpha)
		}
		r.Motifs = append(r.Motifs, motif)
	}

	uniform := []float64{0.25, 0.5, 0.75, 1}
	sites := make([][]Range, opts.Motifs)
	for s := 0; s < opts.Sequences; s++ {
		seq := make([]byte, opts.Length)
		for p := range seq {
			seq[p] = nucleotides[categoricalDraw(rng, uniform)]
		}
		taken := make([]bool, opts.Length)
		for k := 0; k < opts.SitesPerSequence && opts.Motifs > 0; k++ {
			p, ok := findSlot(rng, taken, opts.MotifLength)
			if !ok {
				break
			}
			m := rng.IntN(opts.Motifs)
			for j, column := range r.Motifs[m] {
				cum := floats.CumSum(make([]float64, AlphabetSize), column[:])
				seq[p+j] = nucleotides[categoricalDraw(rng, cum)]
				taken[p+j] = true
			}
			sites[m] = append(sites[m], Range{Index: Index{s, p}, Length: opts.MotifLength})
		}
		r.Names = append(r.Names, fmt.Sprintf("seq%d", s))
		r.Sequences = append(r.Sequences, string(seq))
	}
	for _, ranges := range sites {
		if len(ranges) > 0 {
			r.Truth = append(r.Truth, Subset{
				Tag:    SubsetTag{ModelID: DefaultBaselineTag, Length: opts.MotifLength},
				Ranges: ranges,
			})
		}
	}
	r.Truth.Sort()
	return r
}

// findSlot picks a random free window, giving up after a few attempts
func findSlot(rng *rand.Rand, taken []bool, length int) (int, bool) {
	if length > len(taken) {
		return 0, false
	}
	for attempt := 0; attempt < 100; attempt++ {
		p := rng.IntN(len(taken) - length + 1)
		free := true
		for j := p; j < p+length; j++ {
			if taken[j] {
				free = false
				break
			}
		}
		if free {
			return p, true
		}
	}
	return 0, false
}

// dirichletDraw normalizes independent gamma variates obtained by inverse
// transform, so that all randomness comes from rng
func dirichletDraw(rng *rand.Rand, alpha float64) [AlphabetSize]float64 {
	g := distuv.Gamma{Alpha: alpha, Beta: 1}
	var x [AlphabetSize]float64
	for {
		for k := range x {
			x[k] = g.Quantile(uniformOpen(rng))
		}
		if total := floats.Sum(x[:]); total > 0 && !math.IsInf(total, 0) {
			floats.Scale(1/total, x[:])
			return x
		}
	}
}

// categoricalDraw samples an index from cumulative probabilities
func categoricalDraw(rng *rand.Rand, cum []float64) int {
	u := rng.Float64() * cum[len(cum)-1]
	k := sort.Search(len(cum), func(i int) bool { return cum[i] > u })
	if k >= len(cum) {
		k = len(cum) - 1
	}
	return k
}

// uniformOpen draws from (0, 1)
func uniformOpen(rng *rand.Rand) float64 {
	for {
		if u := rng.Float64(); u > 0 {
			return u
		}
	}
}

// GaussianSyntheticOptions controls the Gaussian mixture generator
type GaussianSyntheticOptions struct {
	Points int
	// Alpha is the concentration of the Chinese restaurant process
	Alpha float64
	// Spread is the standard deviation of the cluster means around the origin
	Spread float64
	// Sigma is the standard deviation of points around their mean
	Sigma float64
}

// DefaultGaussianSyntheticOptions gives a handful of well separated clusters
func DefaultGaussianSyntheticOptions() GaussianSyntheticOptions {
	return GaussianSyntheticOptions{Points: 200, Alpha: 1, Spread: 10, Sigma: 1}
}

// GenerateGaussianData seats points by a Chinese restaurant process and
// draws them around the mean of their table
func GenerateGaussianData(rng *rand.Rand, opts GaussianSyntheticOptions) *GaussianData {
	data := &GaussianData{}
	var sizes []float64
	var centers [][]float64
	spread := mustNormal(mat.NewVecDense(2, nil),
		mat.NewSymDense(2, []float64{opts.Spread * opts.Spread, 0, 0, opts.Spread * opts.Spread}))
	for i := 0; i < opts.Points; i++ {
		weights := append(append([]float64(nil), sizes...), opts.Alpha)
		cum := floats.CumSum(make([]float64, len(weights)), weights)
		k := categoricalDraw(rng, cum)
		if k == len(sizes) {
			sizes = append(sizes, 0)
			centers = append(centers, spread.Quantile(nil, []float64{uniformOpen(rng), uniformOpen(rng)}))
		}
		sizes[k]++
		mu := mat.NewVecDense(2, centers[k])
		noise := mustNormal(mu, mat.NewSymDense(2, []float64{opts.Sigma * opts.Sigma, 0, 0, opts.Sigma * opts.Sigma}))
		x := noise.Quantile(nil, []float64{uniformOpen(rng), uniformOpen(rng)})
		data.Points = append(data.Points, [2]float64{x[0], x[1]})
		data.Labels = append(data.Labels, k)
	}
	log.Noticef("Generated %d points in %d clusters", opts.Points, len(sizes))
	return data
}
