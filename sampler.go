/*
 *  sampler.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
)

// Mixture is a collapsed mixture model that the Gibbs sampler can drive
type Mixture interface {
	Indexer() *Indexer
	ValidForSampling(i Index) bool
	Assignment(i Index) ClusterTag
	Remove(i Index) ClusterTag
	MixtureWeights(i Index, weights []float64, candidates []Candidate, temp float64) ([]float64, []Candidate)
	Commit(c Candidate) ClusterTag
	NumClusters() int
	LogLikelihood() float64
	LogPosterior() float64
	Partition() Partition
	Clone() Mixture
}

// SamplerPhase is the state of a sampler
type SamplerPhase int

// Sampler phases
const (
	Idle SamplerPhase = iota
	BurnIn
	Sampling
)

func (r SamplerPhase) String() string {
	switch r {
	case BurnIn:
		return "burn-in"
	case Sampling:
		return "sampling"
	}
	return "idle"
}

// Command is executed by the sampler between two sweeps
type Command interface {
	Execute(s *Sampler) error
}

// PrintPartitionCommand prints the current partition
type PrintPartitionCommand struct {
	Out io.Writer
}

// Execute prints the partition
func (r PrintPartitionCommand) Execute(s *Sampler) error {
	_, err := fmt.Fprintln(r.Out, s.model.Partition())
	return err
}

// SaveResultCommand writes the history of the sampler
type SaveResultCommand struct {
	Filename string
}

// Execute saves the result file
func (r SaveResultCommand) Execute(s *Sampler) error {
	return Histories{s.history}.Save(r.Filename)
}

// Sampler runs collapsed Gibbs sweeps over a mixture
type Sampler struct {
	ID                 int
	Out                io.Writer
	InitialTemperature float64
	SavePartitions     bool

	model    Mixture
	indexer  *Indexer
	rng      *rand.Rand
	history  *SamplingHistory
	commands chan Command
	phase    SamplerPhase
	temp     float64

	weights    []float64
	candidates []Candidate
}

// NewSampler binds a model, its traversal order and a random stream
func NewSampler(model Mixture, indexer *Indexer, rng *rand.Rand) *Sampler {
	return &Sampler{
		Out:                io.Discard,
		InitialTemperature: 1,
		model:              model,
		indexer:            indexer,
		rng:                rng,
		history:            NewSamplingHistory(),
		commands:           make(chan Command, 16),
		temp:               1,
	}
}

// Model returns the mixture being sampled
func (r *Sampler) Model() Mixture {
	return r.model
}

// History returns the trace recorded so far
func (r *Sampler) History() *SamplingHistory {
	return r.history
}

// Phase returns the current phase
func (r *Sampler) Phase() SamplerPhase {
	return r.phase
}

// Commands returns the queue drained between sweeps
func (r *Sampler) Commands() chan<- Command {
	return r.commands
}

// Run performs burnin tempered sweeps followed by samples sweeps at
// temperature one. The context is checked between sweeps.
func (r *Sampler) Run(ctx context.Context, burnin, samples int) error {
	defer func() { r.phase = Idle }()
	r.phase = BurnIn
	for s := 0; s < burnin; s++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.sweep(s, r.burninTemperature(s, burnin))
	}
	r.phase = Sampling
	for s := 0; s < samples; s++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.sweep(s, 1)
	}
	return nil
}

// burninTemperature decreases linearly and reaches one at the last burn-in
// sweep
func (r *Sampler) burninTemperature(s, burnin int) float64 {
	t0 := r.InitialTemperature
	return t0 + (1-t0)*float64(s+1)/float64(burnin)
}

func (r *Sampler) sweep(s int, temp float64) {
	r.temp = temp
	r.indexer.Shuffle(r.rng)
	switches := 0
	for _, i := range r.indexer.Sampling() {
		if _, switched := r.Step(i); switched {
			switches++
		}
	}
	elements := r.indexer.Elements()
	fraction := 0.0
	if elements > 0 {
		fraction = float64(switches) / float64(elements)
	}
	posterior := r.model.LogPosterior()
	r.history.Append(r.model.NumClusters(), fraction, r.model.LogLikelihood(), posterior, temp)
	if r.phase == Sampling {
		r.history.Observe(r.model.Partition(), posterior, r.SavePartitions)
	}
	fmt.Fprintf(r.Out, "[Sampler %d] %s %d: components %d\n", r.ID, r.phase, s+1, r.model.NumClusters())
	r.drain()
}

// drain executes every pending command without blocking
func (r *Sampler) drain() {
	for {
		select {
		case cmd := <-r.commands:
			if err := cmd.Execute(r); err != nil {
				log.Errorf("Sampler %d: %v", r.ID, err)
			}
		default:
			return
		}
	}
}

// Step resamples the element at i. Invalid positions are skipped.
func (r *Sampler) Step(i Index) (sampled, switched bool) {
	if !r.model.ValidForSampling(i) {
		return false, false
	}
	old := r.model.Remove(i)
	r.weights, r.candidates = r.model.MixtureWeights(i, r.weights[:0], r.candidates[:0], r.temp)
	k := r.draw(r.weights)
	tag := r.model.Commit(r.candidates[k])
	return true, tag != old
}

// draw samples an entry of the cumulative log weights by inverse transform
func (r *Sampler) draw(weights []float64) int {
	last := len(weights) - 1
	target := math.Log(r.rng.Float64()) + weights[last]
	for k, w := range weights {
		if w > target {
			return k
		}
	}
	return last
}
