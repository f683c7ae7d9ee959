/*
 *  population.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"sync"

	hungarianAlgorithm "github.com/oddg/hungarian-algorithm"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Population runs independent replicas of a sampler. Every replica owns a
// deep copy of the model and its own random stream.
type Population struct {
	Samplers []*Sampler
	samples  int
}

// PopulationSummary holds convergence diagnostics across replicas
type PopulationSummary struct {
	// PSRF is the potential scale reduction factor of the likelihood traces
	PSRF float64
	// Agreement of every replica's MAP partition with replica 0
	Agreement []float64
}

// NewPopulation clones the model n times, replica i draws from PCG(seed, i)
func NewPopulation(model Mixture, indexer *Indexer, n int, seed uint64) *Population {
	r := &Population{}
	for i := 0; i < n; i++ {
		rng := rand.New(rand.NewPCG(seed, uint64(i)))
		s := NewSampler(model.Clone(), indexer.Clone(), rng)
		s.ID = i
		r.Samplers = append(r.Samplers, s)
	}
	log.Noticef("Population of %d samplers (seed = %d)", n, seed)
	return r
}

// SetOutput directs the progress lines of every replica to w
func (r *Population) SetOutput(w io.Writer) {
	sw := &syncWriter{w: w}
	for _, s := range r.Samplers {
		s.Out = sw
	}
}

// Configure applies the tempering and recording settings to every replica
func (r *Population) Configure(initialTemperature float64, savePartitions bool) {
	for _, s := range r.Samplers {
		s.InitialTemperature = initialTemperature
		s.SavePartitions = savePartitions
	}
}

// Run samples all replicas concurrently and waits for them
func (r *Population) Run(ctx context.Context, burnin, samples int) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range r.Samplers {
		s := s
		g.Go(func() error {
			return s.Run(gctx, burnin, samples)
		})
	}
	r.samples += samples
	if err := g.Wait(); err != nil {
		return err
	}
	log.Noticef("Population finished %d burn-in and %d sampling sweeps", burnin, samples)
	return nil
}

// History collects the traces of all replicas
func (r *Population) History() Histories {
	histories := make(Histories, len(r.Samplers))
	for i, s := range r.Samplers {
		histories[i] = s.History()
	}
	return histories
}

// Summary computes the diagnostics over the sampling sweeps
func (r *Population) Summary() PopulationSummary {
	traces := make([][]float64, len(r.Samplers))
	for i, s := range r.Samplers {
		h := s.History()
		start := h.Len() - r.samples
		if start < 0 {
			start = 0
		}
		traces[i] = h.Likelihood[start:]
	}
	summary := PopulationSummary{PSRF: PSRF(traces)}
	if len(r.Samplers) > 0 {
		ref := r.Samplers[0].History().MapPartition
		for _, s := range r.Samplers {
			summary.Agreement = append(summary.Agreement, PartitionAgreement(ref, s.History().MapPartition))
		}
	}
	return summary
}

// PSRF is the Gelman-Rubin potential scale reduction factor over chains of
// equal length. It is NaN for fewer than two chains or two draws.
func PSRF(chains [][]float64) float64 {
	m := len(chains)
	if m < 2 {
		return math.NaN()
	}
	n := len(chains[0])
	for _, c := range chains {
		if len(c) != n {
			return math.NaN()
		}
	}
	if n < 2 {
		return math.NaN()
	}
	means := make([]float64, m)
	variances := make([]float64, m)
	for i, c := range chains {
		means[i], variances[i] = stat.MeanVariance(c, nil)
	}
	W := stat.Mean(variances, nil)
	B := stat.Variance(means, nil) // B/n in the usual notation
	if W == 0 {
		if B == 0 {
			return 1
		}
		return math.Inf(1)
	}
	N := float64(n)
	vplus := (N-1)/N*W + B
	return math.Sqrt(vplus / W)
}

// PartitionAgreement is the fraction of sites that fall into matching
// subsets after the best relabeling of b onto a. Two empty partitions agree
// completely.
func PartitionAgreement(a, b Partition) float64 {
	total := max(a.Len(), b.Len())
	if total == 0 {
		return 1
	}
	N := max(len(a), len(b))
	weights := Make2DSlice(N, N)
	where := map[Range]int{}
	for j, s := range b {
		for _, rg := range s.Ranges {
			where[rg] = j
		}
	}
	for i, s := range a {
		for _, rg := range s.Ranges {
			if j, ok := where[rg]; ok {
				weights[i][j]++
			}
		}
	}
	solution := maxBipartiteMatchingWithWeights(weights)
	matched := 0
	for i, j := range solution {
		if j >= 0 && j < N {
			matched += weights[i][j]
		}
	}
	return float64(matched) / float64(total)
}

// maxBipartiteMatchingWithWeights calculates the bipartite matching using the
// weights, wraps hungarianAlgorithm() which minimizes the costs, so we need to
// transform from weights to costs
func maxBipartiteMatchingWithWeights(weights [][]int) []int {
	maxCell := 0
	for _, row := range weights {
		for _, cell := range row {
			maxCell = max(maxCell, cell)
		}
	}
	N := len(weights)
	costs := Make2DSlice(N, N)
	for i, row := range weights {
		for j, cell := range row {
			costs[i][j] = maxCell - cell
		}
	}
	solution, err := hungarianAlgorithm.Solve(costs)
	if err != nil {
		log.Errorf("Label matching failed: %v", err)
		return nil
	}
	return solution
}

// syncWriter serializes the progress lines of concurrent replicas
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (r *syncWriter) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.w.Write(p)
}
