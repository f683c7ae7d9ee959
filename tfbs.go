/*
 *  tfbs.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes

import (
	"fmt"
	"math"
)

// Candidate is one entry of the weight vector: a cluster and the range it
// would receive. New candidates stand for a cluster that does not exist yet.
type Candidate struct {
	Tag      ClusterTag
	Range    Range
	Baseline BaselineTag
	New      bool
}

// TFBSModel is the binding site mixture. Background clusters compete with
// foreground clusters for every window of the data. Foreground clusters are
// created and recycled under the process prior.
type TFBSModel struct {
	data         *TFBSData
	state        *TFBSState
	prior        ProcessPrior
	length       int
	lambda       float64
	lambdaLog    float64
	lambdaInvLog float64
	bothStrands  bool
	// empty holds one never-mutated empty cluster per baseline, used to
	// weigh the new cluster option
	empty []*Cluster
}

// NewTFBSModel builds the model from options. Every position starts in the
// first background cluster.
func NewTFBSModel(data *TFBSData, opts *Options) (*TFBSModel, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if data == nil || data.Elements() == 0 {
		return nil, ErrEmptyData
	}
	prior, err := NewProcessPrior(opts.ProcessPrior, opts.Alpha, opts.Discount)
	if err != nil {
		return nil, err
	}

	L := opts.TFBSLength
	r := &TFBSModel{
		data:         data,
		state:        NewTFBSState(data, L, L, opts.Record),
		prior:        prior,
		length:       L,
		lambda:       opts.Lambda,
		lambdaLog:    math.Log(opts.Lambda),
		lambdaInvLog: math.Log(1 - opts.Lambda),
		bothStrands:  opts.BothStrands,
	}

	if opts.BackgroundModel != "independence-dirichlet" {
		return nil, fmt.Errorf("%w: `%s`", ErrUnknownBackground, opts.BackgroundModel)
	}
	for _, alpha := range opts.BackgroundAlpha {
		r.state.AddBackground(NewIndependenceBackground(alpha, data))
	}

	for _, b := range opts.Baselines {
		alpha := b.Alpha
		if alpha == nil {
			alpha = UniformAlpha(L, b.Pseudocount)
		}
		if len(alpha) != L {
			return nil, fmt.Errorf("%w: baseline `%s` has %d columns, site length is %d",
				ErrInvalidOptions, b.Name, len(alpha), L)
		}
		prototype := NewProductDirichlet(alpha, data)
		r.state.AddBaseline(b.Name, prototype)
		r.empty = append(r.empty, NewCluster(prototype, NoCluster, b.Name, true, false))
	}

	bg := r.state.BgTags[0]
	for s, size := range data.Sizes() {
		if size > 0 {
			r.state.Add(Range{Index: Index{s, 0}, Length: size}, bg)
		}
	}
	log.Noticef("TFBS model with %s, lambda = %g, site length = %d, %d background(s), %d baseline(s)",
		prior.Name(), opts.Lambda, L, len(r.state.BgTags), len(r.empty))
	return r, nil
}

// State exposes the bookkeeping
func (r *TFBSModel) State() *TFBSState {
	return r.state
}

// Prior exposes the process prior
func (r *TFBSModel) Prior() ProcessPrior {
	return r.prior
}

// Indexer visits every position where a site could start
func (r *TFBSModel) Indexer() *Indexer {
	indexer := r.data.Indexer()
	indexer.Restrict(func(i Index) bool {
		return r.data.Contains(Range{Index: i, Length: r.length})
	})
	log.Noticef("Sampling %s positions", Percentage(len(indexer.Sampling()), indexer.Elements()))
	return indexer
}

// ValidForSampling rejects windows that overlap other sites, leave the
// sequence or cover masked positions
func (r *TFBSModel) ValidForSampling(i Index) bool {
	return r.state.ValidForSampling(i)
}

// Assignment returns the cluster of the position
func (r *TFBSModel) Assignment(i Index) ClusterTag {
	return r.state.Assignment(i)
}

// Remove releases the window at i
func (r *TFBSModel) Remove(i Index) ClusterTag {
	return r.state.Remove(i)
}

// strands returns the ranges a foreground cluster may receive at i
func (r *TFBSModel) strands(i Index) []Range {
	rg := Range{Index: i, Length: r.length}
	if !r.bothStrands {
		return []Range{rg}
	}
	rev := rg
	rev.Reverse = true
	return []Range{rg, rev}
}

// MixtureWeights appends one cumulative log weight per candidate, so that
// every entry is the log-sum of itself and all previous ones and the last
// entry is the log normalizer. The window at i must have been removed.
// A site costs log(lambda), every background position log(1-lambda), which
// makes the weights the Gibbs conditional of LogPosterior.
func (r *TFBSModel) MixtureWeights(i Index, weights []float64, candidates []Candidate, temp float64) ([]float64, []Candidate) {
	sum := math.Inf(-1)
	ranges := r.strands(i)
	window := ranges[0]
	for _, tag := range r.state.Used() {
		c := r.state.Cluster(tag)
		if r.state.IsBackground(tag) {
			lw := (float64(window.Length)*r.lambdaInvLog + c.Model().LogPredictive(window)) / temp
			sum = LogAdd(sum, lw)
			weights = append(weights, sum)
			candidates = append(candidates, Candidate{Tag: tag, Range: window})
			continue
		}
		numLog := r.prior.LogPredictive(c, r.state, 1)
		for _, rg := range ranges {
			lw := (r.lambdaLog + numLog + c.Model().LogPredictive(rg)) / temp
			sum = LogAdd(sum, lw)
			weights = append(weights, sum)
			candidates = append(candidates, Candidate{Tag: tag, Range: rg, Baseline: c.Baseline()})
		}
	}
	for _, c := range r.empty {
		numLog := r.prior.LogPredictive(c, r.state, 1)
		for _, rg := range ranges {
			lw := (r.lambdaLog + numLog + c.Model().LogPredictive(rg)) / temp
			sum = LogAdd(sum, lw)
			weights = append(weights, sum)
			candidates = append(candidates, Candidate{Tag: NoCluster, Range: rg, Baseline: c.Baseline(), New: true})
		}
	}
	return weights, candidates
}

// Commit assigns the candidate, a new cluster is taken from the free list
func (r *TFBSModel) Commit(c Candidate) ClusterTag {
	tag := c.Tag
	if c.New {
		tag = r.state.GetFreeCluster(c.Baseline).Tag()
	}
	r.state.Add(c.Range, tag)
	return tag
}

// NumClusters is the number of foreground clusters
func (r *TFBSModel) NumClusters() int {
	return r.state.Size()
}

// LogLikelihood sums the marginal likelihood of every used cluster
func (r *TFBSModel) LogLikelihood() float64 {
	return r.state.LogLikelihood()
}

// LogPosterior adds the process prior and the site occurrence prior to the
// likelihood
func (r *TFBSModel) LogPosterior() float64 {
	result := r.LogLikelihood() + r.prior.Joint(r.state)
	result += float64(r.state.NumTFBS) * r.lambdaLog
	result += float64(r.state.BackgroundPositions()) * r.lambdaInvLog
	return result
}

// Partition returns the current foreground clusters
func (r *TFBSModel) Partition() Partition {
	sites := r.state.Sites()
	partition := Partition{}
	for _, tag := range r.state.ForegroundTags() {
		c := r.state.Cluster(tag)
		partition = append(partition, Subset{
			Tag:    SubsetTag{ModelID: c.Baseline(), Length: r.length},
			Ranges: sites[tag],
		})
	}
	return partition
}

// SetPartition places the sites of the partition, the model must not hold
// any site yet. The partition is checked as a whole before any site is
// placed, a rejected partition leaves the model untouched.
func (r *TFBSModel) SetPartition(p Partition) error {
	if r.state.NumTFBS > 0 {
		return fmt.Errorf("%w: model already holds %d sites", ErrInvalidPartition, r.state.NumTFBS)
	}
	taken := make(map[Index]Range)
	for _, s := range p {
		if r.state.Baseline(s.Tag.ModelID) == nil {
			return fmt.Errorf("%w: unknown baseline `%s`", ErrInvalidPartition, s.Tag.ModelID)
		}
		if s.Tag.Length != r.length {
			return fmt.Errorf("%w: subset length %d, site length is %d", ErrInvalidPartition, s.Tag.Length, r.length)
		}
		for _, rg := range s.Ranges {
			if rg.Length != r.length || !r.state.validRange(rg, false) {
				return fmt.Errorf("%w: site %s overlaps or leaves the data", ErrInvalidPartition, rg)
			}
			for j := 0; j < rg.Length; j++ {
				if other, ok := taken[rg.At(j)]; ok {
					return fmt.Errorf("%w: site %s overlaps %s", ErrInvalidPartition, rg, other)
				}
				taken[rg.At(j)] = rg
			}
		}
	}

	for _, s := range p {
		if len(s.Ranges) == 0 {
			continue
		}
		tag := r.state.GetFreeCluster(s.Tag.ModelID).Tag()
		for _, rg := range s.Ranges {
			r.state.Remove(rg.Index)
			r.state.Add(rg, tag)
		}
	}
	log.Noticef("Initialized %d sites in %d clusters", r.state.NumTFBS, r.state.Size())
	return nil
}

// Clone copies the state, data, prior and baselines are shared
func (r *TFBSModel) Clone() Mixture {
	p := *r
	p.state = r.state.Clone()
	return &p
}
