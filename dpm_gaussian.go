/*
 *  dpm_gaussian.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes

import (
	"math"
	"sort"
)

// GaussianBaseline is the baseline tag of the Gaussian mixture
const GaussianBaseline = BaselineTag("gaussian")

// GaussianMixture is a plain Dirichlet process mixture of bivariate
// Gaussians, every point is one observation
type GaussianMixture struct {
	data        *GaussianData
	state       *MixtureState
	prior       ProcessPrior
	assignments []ClusterTag
	empty       *Cluster
}

// NewGaussianMixture puts all points into one cluster of the baseline
func NewGaussianMixture(data *GaussianData, prior ProcessPrior, baseline *BivariateGaussian, record bool) (*GaussianMixture, error) {
	if data == nil || data.Elements() == 0 {
		return nil, ErrEmptyData
	}
	r := &GaussianMixture{
		data:        data,
		state:       NewMixtureState(record),
		prior:       prior,
		assignments: make([]ClusterTag, data.Elements()),
		empty:       NewCluster(baseline, NoCluster, GaussianBaseline, true, false),
	}
	r.state.AddBaseline(GaussianBaseline, baseline)
	tag := r.state.GetFreeCluster(GaussianBaseline).Tag()
	for i := range data.Points {
		r.state.AddObservations(Range{Index: Index{0, i}, Length: 1}, tag)
		r.assignments[i] = tag
	}
	log.Noticef("Gaussian mixture with %s over %d points", prior.Name(), data.Elements())
	return r, nil
}

// State exposes the cluster manager
func (r *GaussianMixture) State() *MixtureState {
	return r.state
}

// Indexer visits every point
func (r *GaussianMixture) Indexer() *Indexer {
	return r.data.Indexer()
}

// ValidForSampling accepts every point
func (r *GaussianMixture) ValidForSampling(i Index) bool {
	return true
}

// Assignment returns the cluster of the point
func (r *GaussianMixture) Assignment(i Index) ClusterTag {
	return r.assignments[i.Pos]
}

// Remove takes the point out of its cluster
func (r *GaussianMixture) Remove(i Index) ClusterTag {
	tag := r.assignments[i.Pos]
	r.state.RemoveObservations(Range{Index: i, Length: 1}, tag)
	r.assignments[i.Pos] = NoCluster
	return tag
}

// MixtureWeights appends the cumulative log weights of every used cluster
// and of a new one
func (r *GaussianMixture) MixtureWeights(i Index, weights []float64, candidates []Candidate, temp float64) ([]float64, []Candidate) {
	rg := Range{Index: i, Length: 1}
	sum := math.Inf(-1)
	for _, tag := range r.state.Used() {
		c := r.state.Cluster(tag)
		lw := (r.prior.LogPredictive(c, r.state, 1) + c.Model().LogPredictive(rg)) / temp
		sum = LogAdd(sum, lw)
		weights = append(weights, sum)
		candidates = append(candidates, Candidate{Tag: tag, Range: rg, Baseline: GaussianBaseline})
	}
	lw := (r.prior.LogPredictive(r.empty, r.state, 1) + r.empty.Model().LogPredictive(rg)) / temp
	sum = LogAdd(sum, lw)
	weights = append(weights, sum)
	candidates = append(candidates, Candidate{Tag: NoCluster, Range: rg, Baseline: GaussianBaseline, New: true})
	return weights, candidates
}

// Commit assigns the point to the drawn cluster
func (r *GaussianMixture) Commit(c Candidate) ClusterTag {
	tag := c.Tag
	if c.New {
		tag = r.state.GetFreeCluster(GaussianBaseline).Tag()
	}
	r.state.AddObservations(c.Range, tag)
	r.assignments[c.Range.Pos] = tag
	return tag
}

// NumClusters is the number of used clusters
func (r *GaussianMixture) NumClusters() int {
	return r.state.Size()
}

// LogLikelihood sums the marginal likelihood of every cluster
func (r *GaussianMixture) LogLikelihood() float64 {
	return r.state.LogLikelihood()
}

// LogPosterior adds the process prior
func (r *GaussianMixture) LogPosterior() float64 {
	return r.LogLikelihood() + r.prior.Joint(r.state)
}

// Partition groups the points by cluster
func (r *GaussianMixture) Partition() Partition {
	groups := make(map[ClusterTag][]Range)
	for i, tag := range r.assignments {
		groups[tag] = append(groups[tag], Range{Index: Index{0, i}, Length: 1})
	}
	tags := make([]ClusterTag, 0, len(groups))
	for tag := range groups {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	partition := Partition{}
	for _, tag := range tags {
		partition = append(partition, Subset{
			Tag:    SubsetTag{ModelID: GaussianBaseline, Length: 1},
			Ranges: groups[tag],
		})
	}
	return partition
}

// Clone copies state and assignments, data and prior are shared
func (r *GaussianMixture) Clone() Mixture {
	p := *r
	p.state = r.state.Clone()
	p.assignments = append([]ClusterTag(nil), r.assignments...)
	return &p
}
